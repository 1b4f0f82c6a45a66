package bridge

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// payloadSchema 只约束外层形状：trades 必须是对象数组。
// 字段级别的脏值交给 journal.Number 宽容解码，这里不收紧。
const payloadSchema = `{
  "type": "object",
  "required": ["trades"],
  "properties": {
    "trades": {
      "type": "array",
      "items": {"type": "object"}
    },
    "stats": {"type": "object"},
    "timestamp": {"type": "string"}
  }
}`

var compiledPayloadSchema = jsonschema.MustCompileString("journal_payload.json", payloadSchema)

func validatePayloadShape(raw []byte) error {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	if err := compiledPayloadSchema.Validate(doc); err != nil {
		return fmt.Errorf("payload schema: %w", err)
	}
	return nil
}

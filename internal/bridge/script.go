package bridge

import (
	"fmt"
	"regexp"
	"strings"
)

// 生成喂给 python -c 的脚本。参数全部内联进脚本文本，
// 每次调用独立，不经过任何共享可变状态。
//
// 脚本约定：成功时向 stdout 打印 journal JSON；
// 任何 Python 异常被捕获后打印 {"error", "type", "traceback"}，退出码仍为 0。

const scriptTemplate = `
import sys
import json
sys.path.insert(0, %q)

try:
    from journal.journal_manager import JournalManager
    manager = JournalManager()
    result = %s
    print(json.dumps(result, default=str))
except Exception as e:
    import traceback
    error = {
        'error': str(e),
        'type': type(e).__name__,
        'traceback': traceback.format_exc()
    }
    print(json.dumps(error))
`

func combinedScript(scriptDir string, days int) string {
	call := fmt.Sprintf("manager.get_combined_journal(days=%d)", days)
	return fmt.Sprintf(scriptTemplate, scriptDir, call)
}

func brokerScript(scriptDir, broker string, days int) string {
	call := fmt.Sprintf("manager.get_trades_by_broker(%q, days=%d)", broker, days)
	return fmt.Sprintf(scriptTemplate, scriptDir, call)
}

var brokerNameRe = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// NormalizeBroker 校验并规范化 broker 标识，防止把任意文本拼进脚本。
func NormalizeBroker(name string) (string, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if !brokerNameRe.MatchString(name) {
		return "", false
	}
	return name, true
}

package journal

import (
	"bytes"
	"strconv"
	"strings"
	"time"
)

// 交易方向常量（上游 API 统一为大写）。
const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// Number 包装 float64，容忍上游 JSON 中的 null、字符串数字与脏值。
// 任何解析失败都按 0 处理，绝不让单个字段拖垮整条 payload。
type Number float64

func (n *Number) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		*n = 0
		return nil
	}
	if raw[0] == '"' {
		var s string
		s = strings.Trim(string(raw), `"`)
		s = strings.TrimSpace(s)
		if s == "" {
			*n = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*n = 0
			return nil
		}
		*n = Number(f)
		return nil
	}
	f, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		*n = 0
		return nil
	}
	*n = Number(f)
	return nil
}

func (n Number) Float() float64 { return float64(n) }

// TradeRecord 是单笔成交的 broker 无关表示。
// schwab 适配层写 total，P&L 层补 amount，两个字段都可能出现。
type TradeRecord struct {
	ID        string `json:"id"`
	Broker    string `json:"broker"`
	Symbol    string `json:"symbol"`
	Side      string `json:"side"`
	Quantity  Number `json:"quantity"`
	Price     Number `json:"price"`
	Amount    Number `json:"amount"`
	Total     Number `json:"total"`
	Fee       Number `json:"fee"`
	Datetime  string `json:"datetime"`
	PLUSD     Number `json:"pl_usd"`
	PLPercent Number `json:"pl_percent"`
	IsWinner  bool   `json:"is_winner"`
}

// Notional 返回名义成交额：优先 amount，缺失时回退 total。
func (t TradeRecord) Notional() float64 {
	if t.Amount != 0 {
		return t.Amount.Float()
	}
	return t.Total.Float()
}

// NormalizedSide 返回大写方向；非 BUY/SELL 原样返回（调用方自行决定是否计数）。
func (t TradeRecord) NormalizedSide() string {
	return strings.ToUpper(strings.TrimSpace(t.Side))
}

// datetimeLayouts 覆盖两个 broker 实际吐出的时间格式。
var datetimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseDatetime 解析成交时间并统一到 UTC，失败返回 ok=false。
// 日期/小时分桶只依赖这里，保证部署时区不影响分桶结果。
func (t TradeRecord) ParseDatetime() (time.Time, bool) {
	raw := strings.TrimSpace(t.Datetime)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range datetimeLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

// Combined 是一次调用外部分析进程得到的完整结果。
// 构造后不可变，下一次成功调用产生新对象整体替换。
type Combined struct {
	Timestamp string                 `json:"timestamp"`
	Trades    []TradeRecord          `json:"trades"`
	Stats     map[string]any         `json:"stats"`
	Capital   map[string]any         `json:"capital,omitempty"`
	Symbols   map[string]SymbolStats `json:"symbols,omitempty"`
	Positions map[string]any         `json:"positions,omitempty"`

	// FetchedAt 由 invoker 在解析成功后写入，payload 缺 timestamp 时兜底。
	FetchedAt time.Time `json:"-"`
}

// SymbolStats 是分析进程按符号汇总的 P&L 透传。
type SymbolStats struct {
	Trades    Number `json:"trades"`
	PLUSD     Number `json:"pl_usd"`
	PLPercent Number `json:"pl_percent"`
}

// GeneratedAt 返回结果生成时间：优先 payload 自带 timestamp，否则抓取时间。
func (c *Combined) GeneratedAt() time.Time {
	if c == nil {
		return time.Time{}
	}
	raw := strings.TrimSpace(c.Timestamp)
	if raw != "" {
		for _, layout := range datetimeLayouts {
			if ts, err := time.Parse(layout, raw); err == nil {
				return ts.UTC()
			}
		}
	}
	return c.FetchedAt
}

// BrokerJournal 是单 broker 查询结果，额外带 capital/P&L 透传。
type BrokerJournal struct {
	Broker    string                 `json:"broker,omitempty"`
	Timestamp string                 `json:"timestamp"`
	Trades    []TradeRecord          `json:"trades"`
	Stats     map[string]any         `json:"stats"`
	Capital   map[string]any         `json:"capital,omitempty"`
	Symbols   map[string]SymbolStats `json:"symbols,omitempty"`

	FetchedAt time.Time `json:"-"`
}

package journal

import (
	"strings"

	"github.com/shopspring/decimal"
)

// AggregateView 是从一份 trade 列表推导出的全部看板视图。
// 只读、按需重算、从不落盘；字段名与前端原有结构保持一致。
type AggregateView struct {
	TotalTrades int     `json:"totalTrades"`
	Buys        int     `json:"buys"`
	Sells       int     `json:"sells"`
	TotalVolume float64 `json:"totalVolume"`
	TotalFees   float64 `json:"totalFees"`
	AvgPerTrade float64 `json:"avgPerTrade"`

	BySymbol     map[string]*SymbolBucket `json:"tradesBySymbol"`
	ByDate       map[string]*DateBucket   `json:"tradesByDate"`
	ByHour       map[int]*HourBucket      `json:"tradesByHour"`
	BrokerSplit  map[string]int           `json:"brokerSplit"`
	BrokerVolume map[string]float64       `json:"brokerVolume"`

	TopSymbolsByVolume []SymbolRank `json:"topSymbolsByVolume"`
	TopSymbolsByCount  []SymbolRank `json:"topSymbolsByCount"`
	WinnersByPL        []SymbolRank `json:"winnersByPL"`
	LosersByPL         []SymbolRank `json:"losersByPL"`
}

// SymbolBucket 聚合单个符号的统计；trades 保留输入顺序。
type SymbolBucket struct {
	Count    int           `json:"count"`
	Volume   float64       `json:"volume"`
	Buys     int           `json:"buys"`
	Sells    int           `json:"sells"`
	Trades   []TradeRecord `json:"trades"`
	TotalQty float64       `json:"totalQty"`
	AvgPrice float64       `json:"avgPrice"`
	PLUSD    float64       `json:"pl_usd"`

	volume   decimal.Decimal
	totalQty decimal.Decimal
	fees     decimal.Decimal
	pl       decimal.Decimal
	first    int
}

// DateBucket 按 UTC 日历日（ISO 格式 YYYY-MM-DD）聚合。
type DateBucket struct {
	Count  int           `json:"count"`
	Volume float64       `json:"volume"`
	Trades []TradeRecord `json:"trades"`

	volume decimal.Decimal
}

// HourBucket 按 UTC 小时（0~23）聚合。
type HourBucket struct {
	Count  int     `json:"count"`
	Volume float64 `json:"volume"`

	volume decimal.Decimal
}

// Aggregate 单遍扫描 trades 产出全部分组，第二遍补派生比值与排名。
// 纯函数：相同输入两次调用产出逐字节一致的结果。
//
// 脏数据策略（刻意宽松，看板依赖它不抛错）：
//   - 数值字段缺失/非法按 0 累加，绝不中断；
//   - side 不是 BUY/SELL 时不进多空计数，但仍计入符号/日期/小时/broker 总量；
//   - datetime 解析失败只跳过日期与小时分桶。
func Aggregate(trades []TradeRecord) *AggregateView {
	view := &AggregateView{
		BySymbol:     make(map[string]*SymbolBucket),
		ByDate:       make(map[string]*DateBucket),
		ByHour:       make(map[int]*HourBucket),
		BrokerSplit:  make(map[string]int),
		BrokerVolume: make(map[string]float64),
	}

	totalVolume := decimal.Zero
	totalFees := decimal.Zero
	brokerVolume := make(map[string]decimal.Decimal)

	for _, t := range trades {
		notional := decimal.NewFromFloat(t.Notional())
		fee := decimal.NewFromFloat(t.Fee.Float())
		qty := decimal.NewFromFloat(t.Quantity.Float())
		pl := decimal.NewFromFloat(t.PLUSD.Float())

		view.TotalTrades++
		side := t.NormalizedSide()
		switch side {
		case SideBuy:
			view.Buys++
		case SideSell:
			view.Sells++
		}
		totalVolume = totalVolume.Add(notional)
		totalFees = totalFees.Add(fee)

		sym := strings.TrimSpace(t.Symbol)
		bucket, ok := view.BySymbol[sym]
		if !ok {
			bucket = &SymbolBucket{first: len(view.BySymbol)}
			view.BySymbol[sym] = bucket
		}
		bucket.Count++
		bucket.volume = bucket.volume.Add(notional)
		bucket.totalQty = bucket.totalQty.Add(qty)
		bucket.fees = bucket.fees.Add(fee)
		bucket.pl = bucket.pl.Add(pl)
		switch side {
		case SideBuy:
			bucket.Buys++
		case SideSell:
			bucket.Sells++
		}
		bucket.Trades = append(bucket.Trades, t)

		if ts, ok := t.ParseDatetime(); ok {
			dateKey := ts.Format("2006-01-02")
			day, ok := view.ByDate[dateKey]
			if !ok {
				day = &DateBucket{}
				view.ByDate[dateKey] = day
			}
			day.Count++
			day.volume = day.volume.Add(notional)
			day.Trades = append(day.Trades, t)

			hour, ok := view.ByHour[ts.Hour()]
			if !ok {
				hour = &HourBucket{}
				view.ByHour[ts.Hour()] = hour
			}
			hour.Count++
			hour.volume = hour.volume.Add(notional)
		}

		broker := normalizeBroker(t.Broker)
		view.BrokerSplit[broker]++
		brokerVolume[broker] = brokerVolume[broker].Add(notional)
	}

	view.TotalVolume = decToFloat(totalVolume)
	view.TotalFees = decToFloat(totalFees)
	if view.TotalTrades > 0 {
		view.AvgPerTrade = decToFloat(totalVolume.Div(decimal.NewFromInt(int64(view.TotalTrades))))
	}
	for broker, vol := range brokerVolume {
		view.BrokerVolume[broker] = decToFloat(vol)
	}
	for _, bucket := range view.BySymbol {
		bucket.Volume = decToFloat(bucket.volume)
		bucket.TotalQty = decToFloat(bucket.totalQty)
		bucket.PLUSD = decToFloat(bucket.pl)
		if bucket.totalQty.IsPositive() {
			bucket.AvgPrice = decToFloat(bucket.volume.Div(bucket.totalQty))
		}
	}
	for _, day := range view.ByDate {
		day.Volume = decToFloat(day.volume)
	}
	for _, hour := range view.ByHour {
		hour.Volume = decToFloat(hour.volume)
	}

	view.buildRankings()
	return view
}

func normalizeBroker(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return "unknown"
	}
	return name
}

func decToFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

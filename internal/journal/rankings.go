package journal

import "sort"

// SymbolRank 是排名视图里的一行符号快照。
type SymbolRank struct {
	Symbol   string  `json:"symbol"`
	Count    int     `json:"count"`
	Volume   float64 `json:"volume"`
	AvgPrice float64 `json:"avgPrice"`
	PLUSD    float64 `json:"pl_usd"`

	first int
}

// buildRankings 把符号分组快照按各自的数值键排序。
// 并列时回退到首次出现顺序，保证排名确定且可测。
func (v *AggregateView) buildRankings() {
	base := make([]SymbolRank, 0, len(v.BySymbol))
	for sym, bucket := range v.BySymbol {
		base = append(base, SymbolRank{
			Symbol:   sym,
			Count:    bucket.Count,
			Volume:   bucket.Volume,
			AvgPrice: bucket.AvgPrice,
			PLUSD:    bucket.PLUSD,
			first:    bucket.first,
		})
	}
	sort.Slice(base, func(i, j int) bool { return base[i].first < base[j].first })

	v.TopSymbolsByVolume = rankBy(base, func(a, b SymbolRank) bool { return a.Volume > b.Volume })
	v.TopSymbolsByCount = rankBy(base, func(a, b SymbolRank) bool { return a.Count > b.Count })
	v.WinnersByPL = rankBy(base, func(a, b SymbolRank) bool { return a.PLUSD > b.PLUSD })
	v.LosersByPL = rankBy(base, func(a, b SymbolRank) bool { return a.PLUSD < b.PLUSD })
}

func rankBy(base []SymbolRank, less func(a, b SymbolRank) bool) []SymbolRank {
	out := append([]SymbolRank(nil), base...)
	sort.SliceStable(out, func(i, j int) bool {
		if less(out[i], out[j]) {
			return true
		}
		if less(out[j], out[i]) {
			return false
		}
		return out[i].first < out[j].first
	})
	return out
}

// TopN 截取排名前 n 项；n<=0 或超长时返回整个切片。
func TopN(ranks []SymbolRank, n int) []SymbolRank {
	if n <= 0 || n >= len(ranks) {
		return ranks
	}
	return ranks[:n]
}

// AllSymbols 按首次出现顺序返回出现过的全部符号。
func (v *AggregateView) AllSymbols() []string {
	ranked := make([]SymbolRank, 0, len(v.BySymbol))
	for sym, bucket := range v.BySymbol {
		ranked = append(ranked, SymbolRank{Symbol: sym, first: bucket.first})
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].first < ranked[j].first })
	out := make([]string, len(ranked))
	for i, r := range ranked {
		out[i] = r.Symbol
	}
	return out
}

// Package insights derives portfolio metrics from a fetched model. All
// functions are pure; time is passed in.
package insights

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/bimakw/wallet-aggregator/internal/domain/entities"
	"github.com/bimakw/wallet-aggregator/internal/domain/units"
)

const (
	// DistributionLimit is the number of slices in the allocation breakdown
	DistributionLimit = 10
	// LegendLimit is the number of slices named in the chart legend
	LegendLimit = 6
)

// Slice is one token's share of the portfolio value
type Slice struct {
	Symbol   string  `json:"symbol"`
	Name     string  `json:"name"`
	ValueUSD float64 `json:"value_usd"`
	Percent  float64 `json:"percent"`
}

// TokenValue returns quantity times price, zero when unpriced
func TokenValue(t entities.TokenHolding) decimal.Decimal {
	if t.PriceUSD == nil {
		return decimal.Zero
	}
	return units.ToQuantity(t.RawBalance, t.Decimals).Mul(decimal.NewFromFloat(*t.PriceUSD))
}

func totalValue(tokens []entities.TokenHolding) decimal.Decimal {
	total := decimal.Zero
	for _, t := range tokens {
		total = total.Add(TokenValue(t))
	}
	return total
}

// TotalValue sums the USD value of tokens
func TotalValue(tokens []entities.TokenHolding) float64 {
	return totalValue(tokens).InexactFloat64()
}

// DefiTotalValue sums position net values
func DefiTotalValue(positions []entities.DefiPosition) float64 {
	total := decimal.Zero
	for _, p := range positions {
		total = total.Add(decimal.NewFromFloat(p.NetValueUSD))
	}
	return total.InexactFloat64()
}

// Distribution returns up to limit tokens with a positive value, largest
// first, each with its percentage of the total. Ties keep fetch order.
func Distribution(tokens []entities.TokenHolding, limit int) []Slice {
	total := totalValue(tokens)
	if !total.IsPositive() {
		return []Slice{}
	}

	slices := make([]Slice, 0, len(tokens))
	values := make([]decimal.Decimal, 0, len(tokens))
	for _, t := range tokens {
		v := TokenValue(t)
		if !v.IsPositive() {
			continue
		}
		slices = append(slices, Slice{
			Symbol:   t.Symbol,
			Name:     t.Name,
			ValueUSD: v.InexactFloat64(),
			Percent:  v.Div(total).Mul(decimal.NewFromInt(100)).InexactFloat64(),
		})
		values = append(values, v)
	}

	idx := make([]int, len(slices))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return values[idx[a]].GreaterThan(values[idx[b]])
	})

	sorted := make([]Slice, 0, len(slices))
	for _, i := range idx {
		sorted = append(sorted, slices[i])
	}
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

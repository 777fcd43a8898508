package insights

import (
	"github.com/shopspring/decimal"

	"github.com/bimakw/wallet-aggregator/internal/domain/entities"
)

// YieldRates are the flat yearly yield assumptions per position kind. Rate
// is applied to net value; APY is the figure reported per source.
type YieldRates struct {
	LendingRate   float64
	LendingAPY    float64
	LiquidityRate float64
	LiquidityAPY  float64
}

// DefaultYieldRates are the heuristic defaults
var DefaultYieldRates = YieldRates{
	LendingRate:   0.05,
	LendingAPY:    5.2,
	LiquidityRate: 0.15,
	LiquidityAPY:  15.5,
}

// YieldSource is one position's estimated yearly yield
type YieldSource struct {
	Protocol  string  `json:"protocol"`
	Type      string  `json:"type"`
	YearlyUSD float64 `json:"yearly_usd"`
	APY       float64 `json:"apy"`
}

// YieldEstimate sums the per-position estimates
type YieldEstimate struct {
	TotalYearlyUSD float64       `json:"total_yearly_usd"`
	AverageAPY     float64       `json:"average_apy"`
	Sources        []YieldSource `json:"sources"`
}

// EstimateYield applies rates to each position's net value. Liquidity net
// value is always zero, so those sources contribute only their APY.
func EstimateYield(positions []entities.DefiPosition, rates YieldRates) YieldEstimate {
	total := decimal.Zero
	apySum := 0.0
	sources := make([]YieldSource, 0, len(positions))

	for _, p := range positions {
		var rate, apy float64
		var kind string
		switch p.Kind {
		case entities.PositionLending:
			rate, apy, kind = rates.LendingRate, rates.LendingAPY, "Lending"
		case entities.PositionLiquidity:
			rate, apy, kind = rates.LiquidityRate, rates.LiquidityAPY, "Liquidity"
		default:
			continue
		}

		yearly := decimal.NewFromFloat(p.NetValueUSD).Mul(decimal.NewFromFloat(rate))
		total = total.Add(yearly)
		apySum += apy
		sources = append(sources, YieldSource{
			Protocol:  p.Protocol,
			Type:      kind,
			YearlyUSD: yearly.InexactFloat64(),
			APY:       apy,
		})
	}

	avg := 0.0
	if len(sources) > 0 {
		avg = apySum / float64(len(sources))
	}

	return YieldEstimate{
		TotalYearlyUSD: total.InexactFloat64(),
		AverageAPY:     avg,
		Sources:        sources,
	}
}

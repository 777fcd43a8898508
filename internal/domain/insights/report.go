package insights

import (
	"time"

	"github.com/bimakw/wallet-aggregator/internal/domain/entities"
)

// Report is every derived metric for one portfolio
type Report struct {
	TotalValueUSD float64       `json:"total_value_usd"`
	DefiValueUSD  float64       `json:"defi_value_usd"`
	Distribution  []Slice       `json:"distribution"`
	Legend        []Slice       `json:"legend"`
	Health        Health        `json:"health"`
	Achievements  []Achievement `json:"achievements"`
	Yield         YieldEstimate `json:"yield"`
}

// Build derives the full report for p
func Build(p *entities.Portfolio, now time.Time, rates YieldRates) Report {
	if p == nil {
		p = &entities.Portfolio{}
	}

	total := TotalValue(p.Tokens)
	distribution := Distribution(p.Tokens, DistributionLimit)
	legend := distribution
	if len(legend) > LegendLimit {
		legend = legend[:LegendLimit]
	}

	return Report{
		TotalValueUSD: total,
		DefiValueUSD:  DefiTotalValue(p.DefiPositions),
		Distribution:  distribution,
		Legend:        legend,
		Health:        HealthScore(p, now),
		Achievements:  Achievements(p, total, now),
		Yield:         EstimateYield(p.DefiPositions, rates),
	}
}

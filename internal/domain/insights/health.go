package insights

import (
	"math"
	"time"

	"github.com/bimakw/wallet-aggregator/internal/domain/entities"
)

// Health score weights and thresholds
const (
	diversityWeight = 0.3
	defiWeight      = 0.2
	activityWeight  = 0.3
	riskWeight      = 0.2

	diversityTarget     = 10
	activityTarget      = 20
	activityWindow      = 30 * 24 * time.Hour
	lowHealthFactor     = 1.5
	excellentScoreFloor = 80
	goodScoreFloor      = 60
)

const (
	LabelExcellent        = "Excellent"
	LabelGood             = "Good"
	LabelNeedsImprovement = "Needs Improvement"

	RiskLow    = "Low"
	RiskMedium = "Medium"
	RiskHigh   = "High"

	RiskLowHealthFactor = "Low DeFi health factor"
	RiskConcentration   = "High asset concentration"
)

// Health is the wallet health report
type Health struct {
	Score           int      `json:"score"`
	Label           string   `json:"label"`
	Diversity       float64  `json:"diversity"`
	DefiRatio       float64  `json:"defi_ratio"`
	Activity        float64  `json:"activity"`
	RecentTxCount   int      `json:"recent_tx_count"`
	RiskLevel       string   `json:"risk_level"`
	RiskFactors     []string `json:"risk_factors"`
	Recommendations []string `json:"recommendations"`
}

// HealthScore scores p on diversity, DeFi participation, recent activity and
// risk. Every component is in [0,100], so is the score.
func HealthScore(p *entities.Portfolio, now time.Time) Health {
	total := TotalValue(p.Tokens)

	diversity := math.Min(100, float64(len(p.Tokens))/diversityTarget*100)

	defiRatio := 0.0
	if total > 0 {
		defiRatio = clamp(DefiTotalValue(p.DefiPositions)/total*100, 0, 100)
	}

	recent := recentTransactions(p.Transactions, now)
	activity := math.Min(100, float64(recent)/activityTarget*100)

	factors := riskFactors(p)
	level, riskScore := riskLevel(len(factors))

	score := int(math.Round(diversity*diversityWeight +
		defiRatio*defiWeight +
		activity*activityWeight +
		riskScore*riskWeight))

	h := Health{
		Score:         score,
		Label:         ScoreLabel(score),
		Diversity:     diversity,
		DefiRatio:     defiRatio,
		Activity:      activity,
		RecentTxCount: recent,
		RiskLevel:     level,
		RiskFactors:   factors,
	}
	h.Recommendations = recommendations(h)
	return h
}

// ScoreLabel names a health score band
func ScoreLabel(score int) string {
	switch {
	case score >= excellentScoreFloor:
		return LabelExcellent
	case score >= goodScoreFloor:
		return LabelGood
	default:
		return LabelNeedsImprovement
	}
}

// recentTransactions counts timestamped transactions in the activity window
func recentTransactions(txs []entities.Transaction, now time.Time) int {
	cutoff := now.Add(-activityWindow).Unix()
	n := 0
	for _, tx := range txs {
		if tx.Timestamp != nil && *tx.Timestamp >= cutoff {
			n++
		}
	}
	return n
}

func riskFactors(p *entities.Portfolio) []string {
	factors := make([]string, 0, 2)
	for _, pos := range p.DefiPositions {
		if pos.Lending == nil {
			continue
		}
		if hf := pos.Lending.HealthFactor; hf > 0 && hf < lowHealthFactor {
			factors = append(factors, RiskLowHealthFactor)
			break
		}
	}
	if len(p.Tokens) == 1 {
		factors = append(factors, RiskConcentration)
	}
	return factors
}

func riskLevel(factors int) (string, float64) {
	switch factors {
	case 0:
		return RiskLow, 100
	case 1:
		return RiskMedium, 60
	default:
		return RiskHigh, 30
	}
}

func recommendations(h Health) []string {
	recs := make([]string, 0, 4)
	if h.Diversity < 50 {
		recs = append(recs, "Consider increasing asset diversity to reduce concentration risk")
	}
	if h.DefiRatio < 20 {
		recs = append(recs, "Consider participating in DeFi protocols to earn yield")
	}
	if h.Activity < 50 {
		recs = append(recs, "Increasing transaction activity can improve asset liquidity")
	}
	if h.RiskLevel == RiskHigh {
		recs = append(recs, "Pay attention to risk factors and optimize asset allocation")
	}
	if h.Score >= excellentScoreFloor {
		recs = append(recs, "Asset allocation is good, keep it up")
	}
	return recs
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

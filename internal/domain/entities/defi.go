package entities

// PositionKind distinguishes DeFi position variants
type PositionKind string

const (
	PositionLending   PositionKind = "lending"
	PositionLiquidity PositionKind = "liquidity"
)

// DefiPosition is a wallet's position in one protocol. Exactly one of Lending
// or Liquidity is set, matching Kind.
type DefiPosition struct {
	Protocol    string             `json:"protocol"`
	Kind        PositionKind       `json:"kind"`
	Logo        string             `json:"logo"`
	NetValueUSD float64            `json:"net_value_usd"`
	Lending     *LendingPosition   `json:"lending,omitempty"`
	Liquidity   *LiquidityPosition `json:"liquidity,omitempty"`
}

// LendingPosition is an account summary from a lending protocol
type LendingPosition struct {
	TotalCollateralUSD   float64 `json:"total_collateral_usd"`
	TotalDebtUSD         float64 `json:"total_debt_usd"`
	AvailableBorrowUSD   float64 `json:"available_borrow_usd"`
	HealthFactor         float64 `json:"health_factor"`
	LTV                  float64 `json:"ltv"`
	LiquidationThreshold float64 `json:"liquidation_threshold"`
}

// LiquidityPosition lists the pools a wallet provides liquidity to.
// No USD valuation is available for these positions.
type LiquidityPosition struct {
	Pairs         []string `json:"pairs"`
	PositionCount int      `json:"position_count"`
}

package entities

// PriceQuote is a USD price with an optional 24h change in percent
type PriceQuote struct {
	USD       float64  `json:"usd"`
	Change24h *float64 `json:"usd_24h_change,omitempty"`
}

// CoinMatch is a price-id search hit
type CoinMatch struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

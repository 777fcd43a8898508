package entities

// TokenHolding represents a single fungible balance held by a wallet.
// RawBalance is the unscaled integer amount as a decimal string; Decimals is
// the exponent used to turn it into a human quantity.
type TokenHolding struct {
	ContractAddress string   `json:"contract_address"`
	Symbol          string   `json:"symbol"`
	Name            string   `json:"name"`
	RawBalance      string   `json:"raw_balance"`
	Decimals        int      `json:"decimals"`
	PriceUSD        *float64 `json:"price_usd,omitempty"`
}

// IsNative reports whether the holding is the chain's native coin
func (t TokenHolding) IsNative() bool {
	return t.ContractAddress == NativeAddress
}

// WithPrice returns a copy of the holding carrying the given unit price
func (t TokenHolding) WithPrice(price float64) TokenHolding {
	p := price
	t.PriceUSD = &p
	return t
}

// TokenCandidate is a contract reported by the indexer as holding a non-zero balance
type TokenCandidate struct {
	ContractAddress string `json:"contract_address"`
	RawBalance      string `json:"raw_balance"`
}

package entities

// Portfolio is the normalized model for one address: every list is replaced
// wholesale on each fetch and never patched from outside the aggregator.
type Portfolio struct {
	Address       string         `json:"address"`
	Tokens        []TokenHolding `json:"tokens"`
	NFTs          []NFTItem      `json:"nfts"`
	DefiPositions []DefiPosition `json:"defi_positions"`
	Transactions  []Transaction  `json:"transactions"`
}

// Symbols returns the distinct token symbols in fetch order
func (p *Portfolio) Symbols() []string {
	seen := make(map[string]struct{}, len(p.Tokens))
	symbols := make([]string, 0, len(p.Tokens))
	for _, t := range p.Tokens {
		if t.Symbol == "" {
			continue
		}
		if _, ok := seen[t.Symbol]; ok {
			continue
		}
		seen[t.Symbol] = struct{}{}
		symbols = append(symbols, t.Symbol)
	}
	return symbols
}

// Clone returns a copy whose slices can be modified independently
func (p *Portfolio) Clone() *Portfolio {
	if p == nil {
		return nil
	}
	return &Portfolio{
		Address:       p.Address,
		Tokens:        append([]TokenHolding(nil), p.Tokens...),
		NFTs:          append([]NFTItem(nil), p.NFTs...),
		DefiPositions: append([]DefiPosition(nil), p.DefiPositions...),
		Transactions:  append([]Transaction(nil), p.Transactions...),
	}
}

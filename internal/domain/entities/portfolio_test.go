package entities

import "testing"

func TestPortfolio_Symbols(t *testing.T) {
	p := &Portfolio{
		Tokens: []TokenHolding{
			{Symbol: "MATIC"},
			{Symbol: "USDC"},
			{Symbol: "MATIC"},
			{Symbol: ""},
			{Symbol: "DAI"},
		},
	}

	got := p.Symbols()
	expected := []string{"MATIC", "USDC", "DAI"}
	if len(got) != len(expected) {
		t.Fatalf("expected %d symbols, got %d", len(expected), len(got))
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("symbol %d: expected %s, got %s", i, expected[i], got[i])
		}
	}
}

func TestPortfolio_Clone(t *testing.T) {
	p := &Portfolio{Address: "0xabc", Tokens: []TokenHolding{{Symbol: "MATIC"}}}
	c := p.Clone()
	c.Tokens[0] = c.Tokens[0].WithPrice(1.5)

	if p.Tokens[0].PriceUSD != nil {
		t.Error("expected original holding to stay unpriced")
	}
	if c.Tokens[0].PriceUSD == nil || *c.Tokens[0].PriceUSD != 1.5 {
		t.Error("expected clone to carry the price")
	}
}

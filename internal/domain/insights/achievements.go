package insights

import (
	"time"

	"github.com/bimakw/wallet-aggregator/internal/domain/entities"
)

// Rarity grades an achievement
type Rarity string

const (
	RarityCommon Rarity = "common"
	RarityRare   Rarity = "rare"
	RarityEpic   Rarity = "epic"
)

var rarityColors = map[Rarity]string{
	RarityCommon: "#95a5a6",
	RarityRare:   "#3498db",
	RarityEpic:   "#9b59b6",
}

// Color returns the display color, common's for unknown rarities
func (r Rarity) Color() string {
	if c, ok := rarityColors[r]; ok {
		return c
	}
	return rarityColors[RarityCommon]
}

// Achievement is an unlocked badge
type Achievement struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Rarity      Rarity `json:"rarity"`
	Color       string `json:"color"`
}

const longTermHolding = 30 * 24 * time.Hour

// facts are the inputs every rule reads
type facts struct {
	tokens     int
	nfts       int
	positions  int
	txs        int
	totalValue float64
	oldestTx   *time.Time
	now        time.Time
}

type rule struct {
	badge  Achievement
	unlock func(f facts) bool
}

// catalog is ordered; results keep this order
var catalog = []rule{
	{Achievement{ID: "first-token", Title: "Token Holder", Description: "First time holding tokens", Icon: "🪙", Rarity: RarityCommon},
		func(f facts) bool { return f.tokens > 0 }},
	{Achievement{ID: "thousandaire", Title: "Thousandaire", Description: "Asset value exceeds $1,000", Icon: "💰", Rarity: RarityCommon},
		func(f facts) bool { return f.totalValue >= 1000 }},
	{Achievement{ID: "ten-thousandaire", Title: "Ten Thousandaire", Description: "Asset value exceeds $10,000", Icon: "💎", Rarity: RarityRare},
		func(f facts) bool { return f.totalValue >= 10000 }},
	{Achievement{ID: "hundred-thousandaire", Title: "Hundred Thousandaire", Description: "Asset value exceeds $100,000", Icon: "👑", Rarity: RarityEpic},
		func(f facts) bool { return f.totalValue >= 100000 }},
	{Achievement{ID: "nft-collector", Title: "NFT Collector", Description: "Own at least 1 NFT", Icon: "🖼️", Rarity: RarityCommon},
		func(f facts) bool { return f.nfts >= 1 }},
	{Achievement{ID: "nft-enthusiast", Title: "NFT Enthusiast", Description: "Own at least 10 NFTs", Icon: "🎨", Rarity: RarityRare},
		func(f facts) bool { return f.nfts >= 10 }},
	{Achievement{ID: "nft-whale", Title: "NFT Whale", Description: "Own at least 50 NFTs", Icon: "🐋", Rarity: RarityEpic},
		func(f facts) bool { return f.nfts >= 50 }},
	{Achievement{ID: "defi-participant", Title: "DeFi Participant", Description: "Participate in DeFi protocols", Icon: "🏦", Rarity: RarityCommon},
		func(f facts) bool { return f.positions > 0 }},
	{Achievement{ID: "active-trader", Title: "Active Trader", Description: "Complete at least 10 transactions", Icon: "📊", Rarity: RarityCommon},
		func(f facts) bool { return f.txs >= 10 }},
	{Achievement{ID: "power-trader", Title: "Power Trader", Description: "Complete at least 100 transactions", Icon: "⚡", Rarity: RarityRare},
		func(f facts) bool { return f.txs >= 100 }},
	{Achievement{ID: "diversified", Title: "Diversified", Description: "Hold at least 5 different tokens", Icon: "🌈", Rarity: RarityRare},
		func(f facts) bool { return f.tokens >= 5 }},
	{Achievement{ID: "long-term-holder", Title: "Long-term Holder", Description: "Hold assets for more than 30 days", Icon: "⏰", Rarity: RarityCommon},
		func(f facts) bool { return f.oldestTx != nil && f.now.Sub(*f.oldestTx) >= longTermHolding }},
}

// Achievements returns the unlocked badges for p. Every rule is a threshold
// on a count or on totalValue, so growing any input never locks a badge.
func Achievements(p *entities.Portfolio, totalValue float64, now time.Time) []Achievement {
	f := facts{
		tokens:     len(p.Tokens),
		nfts:       len(p.NFTs),
		positions:  len(p.DefiPositions),
		txs:        len(p.Transactions),
		totalValue: totalValue,
		oldestTx:   oldestTimestamp(p.Transactions),
		now:        now,
	}

	unlocked := make([]Achievement, 0, len(catalog))
	for _, r := range catalog {
		if !r.unlock(f) {
			continue
		}
		a := r.badge
		a.Color = a.Rarity.Color()
		unlocked = append(unlocked, a)
	}
	return unlocked
}

// oldestTimestamp ignores entries without a timestamp
func oldestTimestamp(txs []entities.Transaction) *time.Time {
	var oldest *int64
	for i := range txs {
		ts := txs[i].Timestamp
		if ts == nil {
			continue
		}
		if oldest == nil || *ts < *oldest {
			oldest = ts
		}
	}
	if oldest == nil {
		return nil
	}
	t := time.Unix(*oldest, 0)
	return &t
}

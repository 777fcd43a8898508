package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/bimakw/wallet-aggregator/internal/config"
	"github.com/bimakw/wallet-aggregator/internal/domain/entities"
	"github.com/bimakw/wallet-aggregator/internal/domain/repositories"
)

// DefaultPriceIDs maps well-known Polygon symbols to price ids
var DefaultPriceIDs = map[string]string{
	"MATIC":  "matic-network",
	"WMATIC": "wmatic",
	"USDC":   "usd-coin",
	"USDT":   "tether",
	"WETH":   "weth",
	"WBTC":   "wrapped-bitcoin",
	"DAI":    "dai",
	"AAVE":   "aave",
	"LINK":   "chainlink",
	"UNI":    "uniswap",
	"CRV":    "curve-dao-token",
}

const (
	priceKeyPrefix  = "price:"
	changeKeyPrefix = "change:"
	idKeyPrefix     = "id:"
)

// PriceResolver maps token symbols to USD prices. Every upstream price
// request is a single batched call; symbols without a price id are omitted
// from results rather than priced at zero.
type PriceResolver struct {
	source         repositories.PriceSource
	ids            map[string]string
	searchFallback bool
	cache          *gocache.Cache
	searchMu       sync.Mutex
	logger         *zap.Logger
}

// NewPriceResolver creates a resolver over source. extra extends or
// overrides DefaultPriceIDs.
func NewPriceResolver(source repositories.PriceSource, cfg config.PriceConfig, extra map[string]string, logger *zap.Logger) *PriceResolver {
	ids := make(map[string]string, len(DefaultPriceIDs)+len(extra))
	for symbol, id := range DefaultPriceIDs {
		ids[symbol] = id
	}
	for symbol, id := range extra {
		ids[strings.ToUpper(symbol)] = id
	}

	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = time.Minute
	}

	return &PriceResolver{
		source:         source,
		ids:            ids,
		searchFallback: cfg.SearchFallback,
		cache:          gocache.New(ttl, 2*ttl),
		logger:         logger.Named("prices"),
	}
}

// Resolve returns USD prices keyed by upper-cased symbol. On upstream failure
// the cached subset is returned together with the error.
func (r *PriceResolver) Resolve(ctx context.Context, symbols []string) (map[string]float64, error) {
	quotes, err := r.resolve(ctx, symbols, false)
	prices := make(map[string]float64, len(quotes))
	for symbol, q := range quotes {
		prices[symbol] = q.USD
	}
	return prices, err
}

// ResolveWithChange is Resolve with the 24h change included
func (r *PriceResolver) ResolveWithChange(ctx context.Context, symbols []string) (map[string]entities.PriceQuote, error) {
	return r.resolve(ctx, symbols, true)
}

func (r *PriceResolver) resolve(ctx context.Context, symbols []string, withChange bool) (map[string]entities.PriceQuote, error) {
	prefix := priceKeyPrefix
	if withChange {
		prefix = changeKeyPrefix
	}

	out := make(map[string]entities.PriceQuote)
	pending := make(map[string][]string) // price id -> symbols
	for _, symbol := range NormalizeSymbols(symbols) {
		if v, ok := r.cache.Get(prefix + symbol); ok {
			out[symbol] = v.(entities.PriceQuote)
			continue
		}
		id := r.priceID(ctx, symbol)
		if id == "" {
			continue
		}
		pending[id] = append(pending[id], symbol)
	}

	if len(pending) == 0 {
		return out, nil
	}

	ids := make([]string, 0, len(pending))
	for id := range pending {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	quotes, err := r.source.SimplePrices(ctx, ids, withChange)
	if err != nil {
		r.logger.Warn("Price lookup failed", zap.Int("ids", len(ids)), zap.Error(err))
		return out, fmt.Errorf("failed to resolve prices: %w", err)
	}

	for id, q := range quotes {
		for _, symbol := range pending[id] {
			out[symbol] = q
			r.cache.SetDefault(prefix+symbol, q)
		}
	}

	r.logger.Debug("Resolved prices",
		zap.Int("requested", len(ids)),
		zap.Int("priced", len(quotes)),
	)

	return out, nil
}

// priceID returns the id for symbol, consulting search when it is not
// mapped. Search failures and ambiguous matches yield "".
func (r *PriceResolver) priceID(ctx context.Context, symbol string) string {
	if id, ok := r.ids[symbol]; ok {
		return id
	}
	if !r.searchFallback {
		return ""
	}

	r.searchMu.Lock()
	defer r.searchMu.Unlock()

	if v, ok := r.cache.Get(idKeyPrefix + symbol); ok {
		return v.(string)
	}

	coins, err := r.source.Search(ctx, symbol)
	if err != nil {
		r.logger.Debug("Price id search failed", zap.String("symbol", symbol), zap.Error(err))
		return ""
	}
	id := uniqueMatch(symbol, coins)
	r.cache.SetDefault(idKeyPrefix+symbol, id)
	return id
}

// uniqueMatch returns the id of the only coin whose symbol equals symbol
func uniqueMatch(symbol string, coins []entities.CoinMatch) string {
	match := ""
	for _, c := range coins {
		if !strings.EqualFold(c.Symbol, symbol) {
			continue
		}
		if match != "" {
			return ""
		}
		match = c.ID
	}
	return match
}

// NormalizeSymbols upper-cases and de-duplicates symbols, keeping first-seen
// order and dropping blanks
func NormalizeSymbols(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

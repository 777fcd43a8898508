package app

import (
	"go.uber.org/zap"

	"github.com/bimakw/wallet-aggregator/internal/application/services"
	"github.com/bimakw/wallet-aggregator/internal/config"
	"github.com/bimakw/wallet-aggregator/internal/domain/repositories"
	"github.com/bimakw/wallet-aggregator/internal/infrastructure/alchemy"
	"github.com/bimakw/wallet-aggregator/internal/infrastructure/cache"
	"github.com/bimakw/wallet-aggregator/internal/infrastructure/coingecko"
	"github.com/bimakw/wallet-aggregator/internal/infrastructure/ethereum"
	"github.com/bimakw/wallet-aggregator/internal/infrastructure/explorer"
	"github.com/bimakw/wallet-aggregator/internal/infrastructure/subgraph"
)

// App holds the wired services shared by the API server and the CLI
type App struct {
	Config     *config.Config
	Aggregator *services.Aggregator
	Prices     *services.PriceResolver
	Dashboard  *services.DashboardService

	// RPC is nil when the chain endpoint could not be configured; chain
	// sources then report a ConfigError per request.
	RPC      *ethereum.Client
	Cache    cache.Cache
	PriceAPI *coingecko.Client

	closers []func()
	logger  *zap.Logger
}

// New builds every source client and service from cfg. Only an unreadable
// symbol map fails construction; missing credentials and an unreachable
// Redis degrade the affected sources instead.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{Config: cfg, logger: logger}
	timeout := cfg.Aggregator.SourceTimeout

	extraIDs, err := config.LoadSymbolMap(cfg.Price.SymbolMapFile)
	if err != nil {
		return nil, err
	}

	// Chain RPC; the readers must see an untyped nil when it is missing
	var (
		caller   ethereum.ContractCaller
		balances ethereum.BalanceReader
	)
	rpc, err := ethereum.NewClient(cfg.Chain, logger)
	if err != nil {
		logger.Warn("Chain RPC unavailable, on-chain sources disabled", zap.Error(err))
	} else {
		a.RPC = rpc
		caller, balances = rpc, rpc
		a.closers = append(a.closers, rpc.Close)
	}

	// Upstream clients
	indexer := alchemy.NewClient(cfg.Alchemy, cfg.Chain.NativeSymbol, timeout, logger)
	scan := explorer.NewClient(cfg.Explorer, cfg.Chain.NativeSymbol, timeout, logger)
	a.PriceAPI = coingecko.NewClient(cfg.Price, timeout, logger)

	// Balance sources
	native := ethereum.NewNativeBalanceReader(balances, cfg.Chain, logger)
	fetcher := ethereum.NewTokenFetcher(
		ethereum.NewERC20Reader(caller, logger),
		cfg.Aggregator.TokenWorkers,
		logger,
	)
	tokens := services.NewTokenBalanceAdapter(indexer, fetcher, logger)

	// DeFi sources
	defi := []repositories.DefiSource{
		ethereum.NewAaveReader(caller, cfg.DeFi.AavePoolAddress, logger),
		subgraph.NewQuickSwapReader(cfg.DeFi.QuickSwapSubgraphURL, timeout, logger),
	}

	a.Prices = services.NewPriceResolver(a.PriceAPI, cfg.Price, extraIDs, logger)
	history := services.NewTransactionHistory(indexer, scan, timeout, logger)

	a.Aggregator = services.NewAggregator(services.AggregatorDeps{
		Native:  native,
		Tokens:  tokens,
		NFTs:    indexer,
		Defi:    defi,
		History: history,
		Prices:  a.Prices,
	}, timeout, logger)

	a.Cache = newCache(cfg, logger, &a.closers)
	a.Dashboard = services.NewDashboardService(a.Aggregator, a.Prices, scan, a.Cache, cfg, logger)

	return a, nil
}

// Close releases the RPC and cache connections
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// newCache prefers Redis when enabled and falls back to process memory
func newCache(cfg *config.Config, logger *zap.Logger, closers *[]func()) cache.Cache {
	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedisCache(cfg.Redis, cfg.API.CacheTTL, logger)
		if err == nil {
			*closers = append(*closers, func() { _ = redisCache.Close() })
			return redisCache
		}
		logger.Warn("Failed to connect to Redis, using in-memory cache", zap.Error(err))
	}
	return cache.NewMemoryCache(cfg.API.CacheTTL)
}

package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the application
type Config struct {
	// Chain RPC configuration
	Chain ChainConfig

	// Alchemy indexer configuration
	Alchemy AlchemyConfig

	// Block explorer configuration
	Explorer ExplorerConfig

	// Price API configuration
	Price PriceConfig

	// DeFi protocol configuration
	DeFi DefiConfig

	// Aggregation configuration
	Aggregator AggregatorConfig

	// Yield heuristics
	Yield YieldConfig

	// Redis configuration
	Redis RedisConfig

	// API server configuration
	API APIConfig

	// Logging configuration
	Log LogConfig
}

// ChainConfig holds blockchain RPC settings
type ChainConfig struct {
	RPCURL       string `envconfig:"POLYGON_RPC_URL" default:"https://polygon-rpc.com"`
	NativeSymbol string `envconfig:"CHAIN_NATIVE_SYMBOL" default:"MATIC"`
	NativeName   string `envconfig:"CHAIN_NATIVE_NAME" default:"Polygon"`
}

// AlchemyConfig holds indexer credentials and request shaping
type AlchemyConfig struct {
	APIKey      string  `envconfig:"ALCHEMY_API_KEY" default:""`
	BaseURL     string  `envconfig:"ALCHEMY_BASE_URL" default:"https://polygon-mainnet.g.alchemy.com/v2"`
	NFTPageSize int     `envconfig:"ALCHEMY_NFT_PAGE_SIZE" default:"100"`
	TxMaxCount  int     `envconfig:"ALCHEMY_TX_MAX_COUNT" default:"50"`
	RateLimit   float64 `envconfig:"ALCHEMY_RATE_LIMIT" default:"10"`
}

// ExplorerConfig holds PolygonScan-style explorer settings
type ExplorerConfig struct {
	APIKey   string `envconfig:"EXPLORER_API_KEY" default:""`
	BaseURL  string `envconfig:"EXPLORER_BASE_URL" default:"https://api.polygonscan.com/api"`
	PageSize int    `envconfig:"EXPLORER_PAGE_SIZE" default:"20"`
}

// PriceConfig holds CoinGecko-style price API settings
type PriceConfig struct {
	BaseURL        string        `envconfig:"COINGECKO_BASE_URL" default:"https://api.coingecko.com/api/v3"`
	APIKey         string        `envconfig:"COINGECKO_API_KEY" default:""`
	RateLimit      float64       `envconfig:"COINGECKO_RATE_LIMIT" default:"5"`
	CacheTTL       time.Duration `envconfig:"PRICE_CACHE_TTL" default:"60s"`
	SearchFallback bool          `envconfig:"PRICE_SEARCH_FALLBACK" default:"true"`
	SymbolMapFile  string        `envconfig:"PRICE_SYMBOL_MAP_FILE" default:""`
}

// DefiConfig holds protocol endpoints
type DefiConfig struct {
	AavePoolAddress      string `envconfig:"AAVE_POOL_ADDRESS" default:"0x794a61358D6845594F94dc1DB02A252b5b4814aD"`
	QuickSwapSubgraphURL string `envconfig:"QUICKSWAP_SUBGRAPH_URL" default:"https://api.thegraph.com/subgraphs/name/quickswap/quickswap-polygon"`
}

// AggregatorConfig holds fan-out settings
type AggregatorConfig struct {
	SourceTimeout time.Duration `envconfig:"AGGREGATOR_SOURCE_TIMEOUT" default:"30s"`
	TokenWorkers  int           `envconfig:"AGGREGATOR_TOKEN_WORKERS" default:"8"`
}

// YieldConfig holds the flat-rate yield assumptions per protocol type.
// Rate feeds the yearly estimate, APY is the figure displayed and averaged.
type YieldConfig struct {
	LendingRate   float64 `envconfig:"YIELD_LENDING_RATE" default:"0.05"`
	LendingAPY    float64 `envconfig:"YIELD_LENDING_APY" default:"5.2"`
	LiquidityRate float64 `envconfig:"YIELD_LIQUIDITY_RATE" default:"0.15"`
	LiquidityAPY  float64 `envconfig:"YIELD_LIQUIDITY_APY" default:"15.5"`
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled  bool   `envconfig:"REDIS_ENABLED" default:"false"`
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD" default:""`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// APIConfig holds API server settings
type APIConfig struct {
	Host            string        `envconfig:"API_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"API_PORT" default:"8081"`
	ReadTimeout     time.Duration `envconfig:"API_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"API_WRITE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"API_SHUTDOWN_TIMEOUT" default:"30s"`
	RateLimitRPS    int           `envconfig:"API_RATE_LIMIT_RPS" default:"100"`
	CacheTTL        time.Duration `envconfig:"API_CACHE_TTL" default:"30s"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Format string `envconfig:"LOG_FORMAT" default:"json"`
}

// Load loads configuration from a .env file (if any) and environment variables
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

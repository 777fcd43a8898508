package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bimakw/wallet-aggregator/internal/config"
	"github.com/bimakw/wallet-aggregator/internal/domain/entities"
	"github.com/bimakw/wallet-aggregator/internal/domain/insights"
	"github.com/bimakw/wallet-aggregator/internal/domain/repositories"
	"github.com/bimakw/wallet-aggregator/internal/domain/units"
	"github.com/bimakw/wallet-aggregator/internal/infrastructure/cache"
)

// balanceDisplayDecimals is the precision of formatted token balances
const balanceDisplayDecimals = 4

// DashboardService serves wallet views built from fresh aggregations
type DashboardService struct {
	agg          *Aggregator
	prices       *PriceResolver
	transfers    repositories.TokenTransferSource
	cache        cache.Cache
	cacheTTL     time.Duration
	yield        insights.YieldRates
	nativeSymbol string
	logger       *zap.Logger
	now          func() time.Time
}

// NewDashboardService creates a new dashboard service. transfers and c may
// be nil.
func NewDashboardService(
	agg *Aggregator,
	prices *PriceResolver,
	transfers repositories.TokenTransferSource,
	c cache.Cache,
	cfg *config.Config,
	logger *zap.Logger,
) *DashboardService {
	return &DashboardService{
		agg:          agg,
		prices:       prices,
		transfers:    transfers,
		cache:        c,
		cacheTTL:     cfg.API.CacheTTL,
		yield:        YieldRatesFromConfig(cfg.Yield),
		nativeSymbol: cfg.Chain.NativeSymbol,
		logger:       logger.Named("dashboard"),
		now:          time.Now,
	}
}

// YieldRatesFromConfig maps the configured heuristics onto insights rates
func YieldRatesFromConfig(cfg config.YieldConfig) insights.YieldRates {
	return insights.YieldRates{
		LendingRate:   cfg.LendingRate,
		LendingAPY:    cfg.LendingAPY,
		LiquidityRate: cfg.LiquidityRate,
		LiquidityAPY:  cfg.LiquidityAPY,
	}
}

// TokenDTO is the API representation of a priced holding
type TokenDTO struct {
	ContractAddress  string   `json:"contract_address"`
	Symbol           string   `json:"symbol"`
	Name             string   `json:"name"`
	Decimals         int      `json:"decimals"`
	RawBalance       string   `json:"raw_balance"`
	BalanceFormatted string   `json:"balance_formatted"`
	PriceUSD         *float64 `json:"price_usd"`
	PriceFormatted   string   `json:"price_formatted"`
	ValueUSD         float64  `json:"value_usd"`
	IsNative         bool     `json:"is_native"`
}

// TransactionDTO is the API representation of a history entry
type TransactionDTO struct {
	entities.Transaction
	FromShort string `json:"from_short"`
	ToShort   string `json:"to_short"`
	Fee       string `json:"fee,omitempty"`
}

// DashboardDTO is everything shown for one wallet
type DashboardDTO struct {
	ID            string                                   `json:"id"`
	Address       string                                   `json:"address"`
	ShortAddress  string                                   `json:"short_address"`
	Tokens        []TokenDTO                               `json:"tokens"`
	NFTs          []entities.NFTItem                       `json:"nfts"`
	NFTPageKey    string                                   `json:"nft_page_key,omitempty"`
	NFTTotal      int                                      `json:"nft_total"`
	DefiPositions []entities.DefiPosition                  `json:"defi_positions"`
	Transactions  []TransactionDTO                         `json:"transactions"`
	TxHasMore     bool                                     `json:"tx_has_more"`
	Report        insights.Report                          `json:"report"`
	Domains       map[entities.Domain]entities.DomainState `json:"domains"`
	Sources       map[string]entities.SourceStatus         `json:"sources"`
	Skipped       []entities.Skipped                       `json:"skipped,omitempty"`
	FetchedAt     string                                   `json:"fetched_at"`
}

// DashboardResponse wraps dashboard data for API response
type DashboardResponse struct {
	Data DashboardDTO `json:"data"`
}

// TokensDTO is the balances view
type TokensDTO struct {
	Address       string               `json:"address"`
	Tokens        []TokenDTO           `json:"tokens"`
	TotalValueUSD float64              `json:"total_value_usd"`
	Distribution  []insights.Slice     `json:"distribution"`
	Status        entities.DomainState `json:"status"`
	PriceStatus   entities.DomainState `json:"price_status"`
	Skipped       []entities.Skipped   `json:"skipped,omitempty"`
}

// TokensResponse wraps tokens data for API response
type TokensResponse struct {
	Data TokensDTO `json:"data"`
}

// NFTPageDTO is one page of NFTs
type NFTPageDTO struct {
	Address     string               `json:"address"`
	Items       []entities.NFTItem   `json:"items"`
	NextPageKey string               `json:"next_page_key,omitempty"`
	TotalCount  int                  `json:"total_count"`
	Status      entities.DomainState `json:"status"`
	Skipped     []entities.Skipped   `json:"skipped,omitempty"`
}

// NFTPageResponse wraps an NFT page for API response
type NFTPageResponse struct {
	Data NFTPageDTO `json:"data"`
}

// DefiDTO is the DeFi positions view
type DefiDTO struct {
	Address     string                  `json:"address"`
	Positions   []entities.DefiPosition `json:"positions"`
	NetValueUSD float64                 `json:"net_value_usd"`
	Yield       insights.YieldEstimate  `json:"yield"`
	Status      entities.DomainState    `json:"status"`
}

// DefiResponse wraps DeFi data for API response
type DefiResponse struct {
	Data DefiDTO `json:"data"`
}

// TransactionsDTO is one page of history
type TransactionsDTO struct {
	Address      string               `json:"address"`
	Transactions []TransactionDTO     `json:"transactions"`
	Source       entities.TxSource    `json:"source,omitempty"`
	Page         int                  `json:"page"`
	HasMore      bool                 `json:"has_more"`
	Status       entities.DomainState `json:"status"`
	Skipped      []entities.Skipped   `json:"skipped,omitempty"`
}

// TransactionsResponse wraps history for API response
type TransactionsResponse struct {
	Data TransactionsDTO `json:"data"`
}

// PriceDTO is one resolved price
type PriceDTO struct {
	USD       float64  `json:"usd"`
	Formatted string   `json:"formatted"`
	Change24h *float64 `json:"change_24h,omitempty"`
}

// PricesDTO is the price lookup result; Missing lists symbols without a price
type PricesDTO struct {
	Prices  map[string]PriceDTO `json:"prices"`
	Missing []string            `json:"missing"`
}

// PricesResponse wraps prices for API response
type PricesResponse struct {
	Data PricesDTO `json:"data"`
}

// SwapQuoteDTO is a demo quote; nothing is signed or submitted
type SwapQuoteDTO struct {
	From      string   `json:"from"`
	To        string   `json:"to"`
	AmountIn  string   `json:"amount_in"`
	AmountOut string   `json:"amount_out"`
	Rate      string   `json:"rate"`
	ValueUSD  *float64 `json:"value_usd,omitempty"`
	Demo      bool     `json:"demo"`
	QuotedAt  string   `json:"quoted_at"`
}

// SwapQuoteResponse wraps a swap quote for API response
type SwapQuoteResponse struct {
	Data SwapQuoteDTO `json:"data"`
}

// GetDashboard aggregates address and derives the full report
func (s *DashboardService) GetDashboard(ctx context.Context, address string) (*DashboardResponse, error) {
	if err := entities.ValidateAddress(address); err != nil {
		return nil, err
	}
	address = entities.NormalizeAddress(address)
	cacheKey := cache.Key("dashboard", address)

	var cached DashboardResponse
	if s.cacheGet(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	snap, err := s.agg.Aggregate(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate wallet: %w", err)
	}

	response := &DashboardResponse{Data: s.DashboardFromSnapshot(snap)}
	if !snap.Degraded() {
		s.cacheSet(ctx, cacheKey, response)
	}
	return response, nil
}

// Invalidate drops every cached response for address so the next request
// queries all sources again
func (s *DashboardService) Invalidate(ctx context.Context, address string) error {
	if err := entities.ValidateAddress(address); err != nil {
		return err
	}
	if s.cache == nil {
		return nil
	}
	address = entities.NormalizeAddress(address)

	if err := s.cache.Delete(ctx, cache.Key("dashboard", address)); err != nil {
		return fmt.Errorf("failed to invalidate dashboard: %w", err)
	}
	if err := s.cache.DeletePattern(ctx, cache.Key("nfts", address, "*")); err != nil {
		return fmt.Errorf("failed to invalidate NFT pages: %w", err)
	}

	s.logger.Debug("Invalidated cached responses", zap.String("address", address))
	return nil
}

// DashboardFromSnapshot renders a snapshot with its derived report
func (s *DashboardService) DashboardFromSnapshot(snap *entities.Snapshot) DashboardDTO {
	p := snap.Portfolio
	if p == nil {
		p = &entities.Portfolio{Address: snap.Address}
	}

	return DashboardDTO{
		ID:            snap.ID,
		Address:       snap.Address,
		ShortAddress:  units.ShortAddress(snap.Address),
		Tokens:        tokenDTOs(p.Tokens),
		NFTs:          nonNilNFTs(p.NFTs),
		NFTPageKey:    snap.NFTPageKey,
		NFTTotal:      snap.NFTTotal,
		DefiPositions: nonNilPositions(p.DefiPositions),
		Transactions:  s.transactionDTOs(p.Transactions),
		TxHasMore:     snap.TxHasMore,
		Report:        insights.Build(p, s.now(), s.yield),
		Domains:       snap.Domains,
		Sources:       snap.Sources,
		Skipped:       snap.Skipped,
		FetchedAt:     snap.FetchedAt.Format(time.RFC3339),
	}
}

// GetTokens returns priced holdings without fetching the other domains
func (s *DashboardService) GetTokens(ctx context.Context, address string) (*TokensResponse, error) {
	if err := entities.ValidateAddress(address); err != nil {
		return nil, err
	}
	address = entities.NormalizeAddress(address)

	res := s.agg.fetchBalances(ctx, newSourceTracker(nil), address)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &TokensResponse{
		Data: TokensDTO{
			Address:       address,
			Tokens:        tokenDTOs(res.tokens),
			TotalValueUSD: insights.TotalValue(res.tokens),
			Distribution:  insights.Distribution(res.tokens, insights.DistributionLimit),
			Status:        res.state,
			PriceStatus:   res.prices,
			Skipped:       res.skipped,
		},
	}, nil
}

// GetNFTs returns the NFT page after pageKey
func (s *DashboardService) GetNFTs(ctx context.Context, address, pageKey string) (*NFTPageResponse, error) {
	if err := entities.ValidateAddress(address); err != nil {
		return nil, err
	}
	address = entities.NormalizeAddress(address)
	cacheKey := cache.Key("nfts", address, pageKey)

	var cached NFTPageResponse
	if s.cacheGet(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	res := s.agg.fetchNFTs(ctx, newSourceTracker(nil), address, pageKey)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dto := NFTPageDTO{Address: address, Items: []entities.NFTItem{}, Status: res.state}
	if res.page != nil {
		dto.Items = nonNilNFTs(res.page.Items)
		dto.NextPageKey = res.page.NextPageKey
		dto.TotalCount = res.page.TotalCount
		dto.Skipped = res.page.Skipped
	}

	response := &NFTPageResponse{Data: dto}
	if res.page != nil && res.state.Status != entities.DomainError {
		s.cacheSet(ctx, cacheKey, response)
	}
	return response, nil
}

// GetDefi returns protocol positions with the yield estimate
func (s *DashboardService) GetDefi(ctx context.Context, address string) (*DefiResponse, error) {
	if err := entities.ValidateAddress(address); err != nil {
		return nil, err
	}
	address = entities.NormalizeAddress(address)

	res := s.agg.fetchDefi(ctx, newSourceTracker(nil), address)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &DefiResponse{
		Data: DefiDTO{
			Address:     address,
			Positions:   nonNilPositions(res.positions),
			NetValueUSD: insights.DefiTotalValue(res.positions),
			Yield:       insights.EstimateYield(res.positions, s.yield),
			Status:      res.state,
		},
	}, nil
}

// GetTransactions returns a page of history. Page 1 tries the indexer first;
// later pages come from the explorer.
func (s *DashboardService) GetTransactions(ctx context.Context, address string, page int) (*TransactionsResponse, error) {
	if err := entities.ValidateAddress(address); err != nil {
		return nil, err
	}
	address = entities.NormalizeAddress(address)
	if page < 1 {
		page = 1
	}

	var (
		result *entities.TransactionPage
		err    error
	)
	if page == 1 {
		result, _, err = s.agg.deps.History.Fetch(ctx, address)
	} else {
		result, _, err = s.agg.deps.History.Page(ctx, address, page)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	return &TransactionsResponse{Data: s.transactionsDTO(address, page, result, err)}, nil
}

// GetTokenTransfers returns a page of ERC-20 transfer events from the explorer
func (s *DashboardService) GetTokenTransfers(ctx context.Context, address string, page int) (*TransactionsResponse, error) {
	if err := entities.ValidateAddress(address); err != nil {
		return nil, err
	}
	address = entities.NormalizeAddress(address)
	if page < 1 {
		page = 1
	}

	var (
		result *entities.TransactionPage
		err    error
	)
	if s.transfers == nil {
		err = entities.NewConfigError("explorer", "token transfer history not configured")
	} else {
		result, err = s.transfers.TokenTransfers(ctx, address, page)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	return &TransactionsResponse{Data: s.transactionsDTO(address, page, result, err)}, nil
}

func (s *DashboardService) transactionsDTO(address string, page int, result *entities.TransactionPage, err error) TransactionsDTO {
	dto := TransactionsDTO{Address: address, Transactions: []TransactionDTO{}, Page: page}
	if err != nil {
		s.logger.Warn("Transaction history failed",
			zap.String("address", address),
			zap.Int("page", page),
			zap.Error(err),
		)
		dto.Status = failedState(entities.DomainTransactions, RoleFallback, err)
		return dto
	}

	dto.Transactions = s.transactionDTOs(result.Transactions)
	dto.Source = result.Source
	dto.Page = result.Page
	dto.HasMore = result.HasMore
	dto.Skipped = result.Skipped
	dto.Status = listState(len(result.Transactions))
	return dto
}

// GetPrices resolves symbols with their 24h change. Partial results are
// returned when the upstream fails but some prices are cached.
func (s *DashboardService) GetPrices(ctx context.Context, symbols []string) (*PricesResponse, error) {
	symbols = NormalizeSymbols(symbols)
	if len(symbols) == 0 {
		return nil, entities.NewValidationError("prices", "at least one symbol is required")
	}

	quotes, err := s.prices.ResolveWithChange(ctx, symbols)
	if err != nil && len(quotes) == 0 {
		return nil, err
	}

	dto := PricesDTO{Prices: make(map[string]PriceDTO, len(quotes)), Missing: []string{}}
	for _, symbol := range symbols {
		q, ok := quotes[symbol]
		if !ok {
			dto.Missing = append(dto.Missing, symbol)
			continue
		}
		dto.Prices[symbol] = PriceDTO{
			USD:       q.USD,
			Formatted: units.FormatPrice(q.USD),
			Change24h: q.Change24h,
		}
	}

	return &PricesResponse{Data: dto}, nil
}

// GetSwapQuote returns a fixed 1:1 demo quote for amount of from in to
func (s *DashboardService) GetSwapQuote(ctx context.Context, from, to, amount string) (*SwapQuoteResponse, error) {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))
	if from == "" || to == "" {
		return nil, entities.NewValidationError("swap", "from and to symbols are required")
	}
	if from == to {
		return nil, entities.NewValidationError("swap", "from and to must differ")
	}

	in, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil || !in.IsPositive() {
		return nil, entities.NewValidationError("swap", "amount must be a positive number")
	}

	dto := SwapQuoteDTO{
		From:      from,
		To:        to,
		AmountIn:  in.String(),
		AmountOut: in.String(),
		Rate:      "1",
		Demo:      true,
		QuotedAt:  s.now().UTC().Format(time.RFC3339),
	}

	prices, err := s.prices.Resolve(ctx, []string{from})
	if err != nil {
		s.logger.Debug("Swap quote without USD value", zap.String("from", from), zap.Error(err))
	}
	if p, ok := prices[from]; ok {
		v, _ := in.Mul(decimal.NewFromFloat(p)).Float64()
		dto.ValueUSD = &v
	}

	return &SwapQuoteResponse{Data: dto}, nil
}

// HealthCheck reports whether the response cache is reachable
func (s *DashboardService) HealthCheck(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.HealthCheck(ctx)
}

func (s *DashboardService) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil || s.cacheTTL <= 0 {
		return false
	}
	if err := s.cache.Get(ctx, key, dest); err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	s.logger.Debug("Cache hit", zap.String("key", key))
	return true
}

func (s *DashboardService) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	if err := s.cache.SetWithTTL(ctx, key, value, s.cacheTTL); err != nil {
		s.logger.Warn("Failed to cache response", zap.String("key", key), zap.Error(err))
	}
}

func tokenDTOs(tokens []entities.TokenHolding) []TokenDTO {
	out := make([]TokenDTO, len(tokens))
	for i, t := range tokens {
		value, _ := insights.TokenValue(t).Float64()
		price := "N/A"
		if t.PriceUSD != nil {
			price = units.FormatPrice(*t.PriceUSD)
		}
		out[i] = TokenDTO{
			ContractAddress:  t.ContractAddress,
			Symbol:           t.Symbol,
			Name:             t.Name,
			Decimals:         t.Decimals,
			RawBalance:       t.RawBalance,
			BalanceFormatted: units.FormatTokenBalance(t.RawBalance, t.Decimals, balanceDisplayDecimals),
			PriceUSD:         t.PriceUSD,
			PriceFormatted:   price,
			ValueUSD:         value,
			IsNative:         t.IsNative(),
		}
	}
	return out
}

func (s *DashboardService) transactionDTOs(txs []entities.Transaction) []TransactionDTO {
	out := make([]TransactionDTO, len(txs))
	for i, tx := range txs {
		out[i] = TransactionDTO{
			Transaction: tx,
			FromShort:   units.ShortAddress(tx.From),
			ToShort:     units.ShortAddress(tx.To),
		}
		if tx.GasUsed != "" && tx.GasPrice != "" {
			out[i].Fee = units.FormatGasFee(tx.GasUsed, tx.GasPrice, s.nativeSymbol)
		}
	}
	return out
}

func nonNilNFTs(items []entities.NFTItem) []entities.NFTItem {
	if items == nil {
		return []entities.NFTItem{}
	}
	return items
}

func nonNilPositions(positions []entities.DefiPosition) []entities.DefiPosition {
	if positions == nil {
		return []entities.DefiPosition{}
	}
	return positions
}

package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bimakw/wallet-aggregator/internal/domain/entities"
	"github.com/bimakw/wallet-aggregator/internal/domain/repositories"
)

// ErrNoMorePages is returned when a load-more is asked for past the last page
var ErrNoMorePages = errors.New("no more pages")

// Source keys used in Snapshot.Sources
const (
	SourceKeyNative = "native"
	SourceKeyTokens = "tokens"
	SourceKeyNFTs   = "nfts"
	SourceKeyPrices = "prices"
)

// DefiSourceKey returns the Snapshot.Sources key of a DeFi protocol reader
func DefiSourceKey(name string) string { return "defi:" + name }

// HistorySourceKey returns the Snapshot.Sources key of a history source
func HistorySourceKey(name string) string { return "transactions:" + name }

// PriceLookup prices symbols in one batch. On failure it may still return
// the prices it knows.
type PriceLookup interface {
	Resolve(ctx context.Context, symbols []string) (map[string]float64, error)
}

// AggregatorDeps are the adapters an Aggregator fans out to. Any of them may
// be nil except History.
type AggregatorDeps struct {
	Native  repositories.NativeBalanceSource
	Tokens  *TokenBalanceAdapter
	NFTs    repositories.NFTSource
	Defi    []repositories.DefiSource
	History *TransactionHistory
	Prices  PriceLookup
}

// Aggregator runs every source for an address concurrently and assembles
// the results into a Snapshot. Sources fail independently.
type Aggregator struct {
	deps    AggregatorDeps
	timeout time.Duration
	logger  *zap.Logger
	now     func() time.Time
}

// NewAggregator creates a new aggregator. timeout bounds each source call.
func NewAggregator(deps AggregatorDeps, timeout time.Duration, logger *zap.Logger) *Aggregator {
	return &Aggregator{
		deps:    deps,
		timeout: timeout,
		logger:  logger.Named("aggregator"),
		now:     time.Now,
	}
}

type balancesResult struct {
	tokens  []entities.TokenHolding
	skipped []entities.Skipped
	state   entities.DomainState
	prices  entities.DomainState
}

type nftResult struct {
	page  *entities.NFTPage
	state entities.DomainState
}

type defiResult struct {
	positions []entities.DefiPosition
	state     entities.DomainState
}

type historyResult struct {
	page  *entities.TransactionPage
	state entities.DomainState
}

// Aggregate fetches everything known about address. It fails only on an
// invalid address or a cancelled context; source failures are recorded on
// the snapshot's domains instead.
func (a *Aggregator) Aggregate(ctx context.Context, address string) (*entities.Snapshot, error) {
	if err := entities.ValidateAddress(address); err != nil {
		return nil, err
	}
	address = entities.NormalizeAddress(address)

	tr := newSourceTracker(nil)
	var (
		wg   sync.WaitGroup
		bal  balancesResult
		nft  nftResult
		defi defiResult
		txs  historyResult
	)

	wg.Add(4)
	go func() {
		defer wg.Done()
		bal = a.fetchBalances(ctx, tr, address)
	}()
	go func() {
		defer wg.Done()
		nft = a.fetchNFTs(ctx, tr, address, "")
	}()
	go func() {
		defer wg.Done()
		defi = a.fetchDefi(ctx, tr, address)
	}()
	go func() {
		defer wg.Done()
		txs = a.fetchHistory(ctx, tr, address)
	}()
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snap := &entities.Snapshot{
		ID:      uuid.NewString(),
		Address: address,
		Portfolio: &entities.Portfolio{
			Address:       address,
			Tokens:        bal.tokens,
			NFTs:          []entities.NFTItem{},
			DefiPositions: defi.positions,
			Transactions:  []entities.Transaction{},
		},
		Domains: map[entities.Domain]entities.DomainState{
			entities.DomainBalances:     bal.state,
			entities.DomainPrices:       bal.prices,
			entities.DomainNFTs:         nft.state,
			entities.DomainDefi:         defi.state,
			entities.DomainTransactions: txs.state,
		},
		Sources:   tr.snapshot(),
		Skipped:   append([]entities.Skipped(nil), bal.skipped...),
		FetchedAt: a.now().UTC(),
	}

	if nft.page != nil {
		snap.Portfolio.NFTs = nft.page.Items
		snap.NFTPageKey = nft.page.NextPageKey
		snap.NFTTotal = nft.page.TotalCount
		snap.Skipped = append(snap.Skipped, nft.page.Skipped...)
	}

	if txs.page != nil {
		snap.Portfolio.Transactions = txs.page.Transactions
		snap.Skipped = append(snap.Skipped, txs.page.Skipped...)
		if txs.page.Source == entities.TxSourceExplorer {
			snap.ExplorerPage = txs.page.Page
			snap.TxHasMore = txs.page.HasMore
		} else {
			snap.TxHasMore = a.deps.History.CanPage()
		}
	}

	observeDomains(snap.Domains)

	a.logger.Info("Aggregated wallet",
		zap.String("address", address),
		zap.Int("tokens", len(snap.Portfolio.Tokens)),
		zap.Int("nfts", len(snap.Portfolio.NFTs)),
		zap.Int("positions", len(snap.Portfolio.DefiPositions)),
		zap.Int("transactions", len(snap.Portfolio.Transactions)),
		zap.Int("skipped", len(snap.Skipped)),
	)

	return snap, nil
}

// MoreNFTs returns a new snapshot with the next NFT page appended. The
// input snapshot is not modified.
func (a *Aggregator) MoreNFTs(ctx context.Context, snap *entities.Snapshot) (*entities.Snapshot, error) {
	if snap == nil || snap.NFTPageKey == "" {
		return nil, ErrNoMorePages
	}

	tr := newSourceTracker(snap.Sources)
	res := a.fetchNFTs(ctx, tr, snap.Address, snap.NFTPageKey)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	next := a.derive(snap)
	next.Sources = tr.snapshot()

	if res.page == nil {
		// Keep what was shown and the page key so the user can retry.
		if res.state.Error != nil {
			next.Domains[entities.DomainNFTs] = entities.DomainState{
				Status: entities.DomainError,
				Error:  res.state.Error,
			}
		}
		return next, nil
	}

	seen := make(map[string]struct{}, len(next.Portfolio.NFTs))
	for _, n := range next.Portfolio.NFTs {
		seen[n.Key()] = struct{}{}
	}
	for _, n := range res.page.Items {
		if _, ok := seen[n.Key()]; ok {
			continue
		}
		seen[n.Key()] = struct{}{}
		next.Portfolio.NFTs = append(next.Portfolio.NFTs, n)
	}

	next.NFTPageKey = res.page.NextPageKey
	next.NFTTotal = res.page.TotalCount
	next.Skipped = append(next.Skipped, res.page.Skipped...)
	next.Domains[entities.DomainNFTs] = listState(len(next.Portfolio.NFTs))

	return next, nil
}

// MoreTransactions returns a new snapshot with the next explorer page of
// history appended, deduplicated by hash
func (a *Aggregator) MoreTransactions(ctx context.Context, snap *entities.Snapshot) (*entities.Snapshot, error) {
	if snap == nil || !snap.TxHasMore {
		return nil, ErrNoMorePages
	}

	tr := newSourceTracker(snap.Sources)
	page, attempts, err := a.deps.History.Page(ctx, snap.Address, snap.ExplorerPage+1)
	tr.recordAttempts(attempts)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	next := a.derive(snap)
	next.Sources = tr.snapshot()

	if err != nil {
		a.logger.Warn("Failed to load more transactions",
			zap.String("address", snap.Address),
			zap.Int("page", snap.ExplorerPage+1),
			zap.Error(err),
		)
		d := Decide(entities.DomainTransactions, RoleFallback, err)
		next.Domains[entities.DomainTransactions] = entities.DomainState{
			Status: entities.DomainError,
			Error:  d.DomainError(),
		}
		return next, nil
	}

	seen := make(map[string]struct{}, len(next.Portfolio.Transactions))
	for _, tx := range next.Portfolio.Transactions {
		seen[tx.Hash] = struct{}{}
	}
	for _, tx := range page.Transactions {
		if _, ok := seen[tx.Hash]; ok {
			continue
		}
		seen[tx.Hash] = struct{}{}
		next.Portfolio.Transactions = append(next.Portfolio.Transactions, tx)
	}

	next.ExplorerPage = page.Page
	next.TxHasMore = page.HasMore
	next.Skipped = append(next.Skipped, page.Skipped...)
	next.Domains[entities.DomainTransactions] = listState(len(next.Portfolio.Transactions))

	return next, nil
}

func (a *Aggregator) derive(snap *entities.Snapshot) *entities.Snapshot {
	next := snap.Clone()
	next.ID = uuid.NewString()
	next.FetchedAt = a.now().UTC()
	return next
}

// call runs fn under the per-source timeout and records its outcome
func (a *Aggregator) call(ctx context.Context, tr *sourceTracker, key string, fn func(ctx context.Context) error) error {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	tr.start(key)
	start := time.Now()
	err := fn(ctx)
	tr.finish(key, err, time.Since(start))
	return err
}

func (a *Aggregator) fetchBalances(ctx context.Context, tr *sourceTracker, address string) balancesResult {
	var (
		wg        sync.WaitGroup
		native    entities.TokenHolding
		nativeErr error
		holdings  []entities.TokenHolding
		skipped   []entities.Skipped
		tokensErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		if a.deps.Native == nil {
			nativeErr = entities.NewConfigError(SourceKeyNative, "chain RPC not configured")
			tr.finish(SourceKeyNative, nativeErr, 0)
			return
		}
		nativeErr = a.call(ctx, tr, SourceKeyNative, func(ctx context.Context) error {
			var err error
			native, err = a.deps.Native.NativeBalance(ctx, address)
			return err
		})
	}()
	go func() {
		defer wg.Done()
		if a.deps.Tokens == nil {
			tokensErr = entities.NewConfigError(SourceKeyTokens, "token listing not configured")
			tr.finish(SourceKeyTokens, tokensErr, 0)
			return
		}
		tokensErr = a.call(ctx, tr, SourceKeyTokens, func(ctx context.Context) error {
			var err error
			holdings, skipped, err = a.deps.Tokens.Holdings(ctx, address)
			return err
		})
	}()
	wg.Wait()

	tokens := make([]entities.TokenHolding, 0, len(holdings)+1)
	if nativeErr == nil {
		tokens = append(tokens, native)
	} else {
		a.logger.Warn("Native balance failed", zap.String("address", address), zap.Error(nativeErr))
	}
	if tokensErr == nil {
		tokens = append(tokens, holdings...)
	} else {
		a.logger.Warn("Token balances failed", zap.String("address", address), zap.Error(tokensErr))
	}

	res := balancesResult{skipped: skipped}
	res.state = listState(len(tokens))
	for _, d := range []Decision{
		Decide(entities.DomainBalances, RoleNative, nativeErr),
		Decide(entities.DomainBalances, RoleTokens, tokensErr),
	} {
		if de := d.DomainError(); de != nil {
			res.state = entities.DomainState{Status: entities.DomainError, Error: de}
			break
		}
	}

	res.tokens, res.prices = a.attachPrices(ctx, tr, tokens)
	return res
}

// attachPrices prices tokens with a single resolver call. Unpriced tokens
// keep a nil price.
func (a *Aggregator) attachPrices(ctx context.Context, tr *sourceTracker, tokens []entities.TokenHolding) ([]entities.TokenHolding, entities.DomainState) {
	symbols := (&entities.Portfolio{Tokens: tokens}).Symbols()
	if len(symbols) == 0 || a.deps.Prices == nil {
		return tokens, entities.DomainState{Status: entities.DomainEmpty}
	}

	var prices map[string]float64
	err := a.call(ctx, tr, SourceKeyPrices, func(ctx context.Context) error {
		var err error
		prices, err = a.deps.Prices.Resolve(ctx, symbols)
		return err
	})
	if err != nil {
		a.logger.Warn("Pricing degraded",
			zap.Int("symbols", len(symbols)),
			zap.Int("priced", len(prices)),
			zap.Error(err),
		)
	}

	priced := make([]entities.TokenHolding, len(tokens))
	for i, t := range tokens {
		if p, ok := prices[strings.ToUpper(t.Symbol)]; ok {
			priced[i] = t.WithPrice(p)
		} else {
			priced[i] = t
		}
	}
	return priced, listState(len(prices))
}

func (a *Aggregator) fetchNFTs(ctx context.Context, tr *sourceTracker, address, pageKey string) nftResult {
	if a.deps.NFTs == nil {
		err := entities.NewConfigError(SourceKeyNFTs, "NFT source not configured")
		tr.finish(SourceKeyNFTs, err, 0)
		return nftResult{state: failedState(entities.DomainNFTs, "", err)}
	}

	var page *entities.NFTPage
	err := a.call(ctx, tr, SourceKeyNFTs, func(ctx context.Context) error {
		var err error
		page, err = a.deps.NFTs.NFTs(ctx, address, pageKey)
		return err
	})
	if err != nil {
		a.logger.Warn("NFT fetch failed",
			zap.String("address", address),
			zap.Bool("next_page", pageKey != ""),
			zap.Error(err),
		)
		return nftResult{state: failedState(entities.DomainNFTs, "", err)}
	}
	return nftResult{page: page, state: listState(len(page.Items))}
}

func (a *Aggregator) fetchDefi(ctx context.Context, tr *sourceTracker, address string) defiResult {
	if len(a.deps.Defi) == 0 {
		return defiResult{positions: []entities.DefiPosition{}, state: entities.DomainState{Status: entities.DomainEmpty}}
	}

	perSource := make([][]entities.DefiPosition, len(a.deps.Defi))
	errs := make([]error, len(a.deps.Defi))

	var wg sync.WaitGroup
	for i, src := range a.deps.Defi {
		wg.Add(1)
		go func(i int, src repositories.DefiSource) {
			defer wg.Done()
			errs[i] = a.call(ctx, tr, DefiSourceKey(src.Name()), func(ctx context.Context) error {
				var err error
				perSource[i], err = src.Positions(ctx, address)
				return err
			})
		}(i, src)
	}
	wg.Wait()

	positions := make([]entities.DefiPosition, 0, len(a.deps.Defi))
	var surfaced *entities.DomainFailure
	for i, src := range a.deps.Defi {
		if errs[i] != nil {
			a.logger.Warn("DeFi protocol failed",
				zap.String("address", address),
				zap.String("protocol", src.Name()),
				zap.Error(errs[i]),
			)
			if de := Decide(entities.DomainDefi, "", errs[i]).DomainError(); de != nil && surfaced == nil {
				surfaced = de
			}
			continue
		}
		positions = append(positions, perSource[i]...)
	}

	if surfaced != nil {
		return defiResult{positions: positions, state: entities.DomainState{Status: entities.DomainError, Error: surfaced}}
	}
	return defiResult{positions: positions, state: listState(len(positions))}
}

func (a *Aggregator) fetchHistory(ctx context.Context, tr *sourceTracker, address string) historyResult {
	page, attempts, err := a.deps.History.Fetch(ctx, address)
	tr.recordAttempts(attempts)
	if err != nil {
		a.logger.Warn("Transaction history failed", zap.String("address", address), zap.Error(err))
		return historyResult{state: failedState(entities.DomainTransactions, RoleFallback, err)}
	}
	return historyResult{page: page, state: listState(len(page.Transactions))}
}

func listState(n int) entities.DomainState {
	if n == 0 {
		return entities.DomainState{Status: entities.DomainEmpty}
	}
	return entities.DomainState{Status: entities.DomainOK}
}

// failedState is the state of a domain whose only source failed
func failedState(domain entities.Domain, role string, err error) entities.DomainState {
	if de := Decide(domain, role, err).DomainError(); de != nil {
		return entities.DomainState{Status: entities.DomainError, Error: de}
	}
	return entities.DomainState{Status: entities.DomainEmpty}
}

// sourceTracker collects per-source call states from concurrent fetches
type sourceTracker struct {
	mu      sync.Mutex
	sources map[string]entities.SourceStatus
}

func newSourceTracker(prev map[string]entities.SourceStatus) *sourceTracker {
	sources := make(map[string]entities.SourceStatus, len(prev)+8)
	for k, v := range prev {
		sources[k] = v
	}
	return &sourceTracker{sources: sources}
}

func (t *sourceTracker) start(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sources[key] = entities.SourceStatus{State: entities.SourceFetching}
}

func (t *sourceTracker) finish(key string, err error, latency time.Duration) {
	observeSource(key, err, latency)

	status := entities.SourceStatus{
		State:     entities.SourceSucceeded,
		LatencyMS: latency.Milliseconds(),
	}
	if err != nil {
		status.State = entities.SourceFailed
		status.ErrorKind = entities.KindOf(err)
		status.Message = entities.UserMessage(err)
		if se, ok := entities.AsSourceError(err); ok {
			status.Timeout = se.Timeout
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.sources[key] = status
}

func (t *sourceTracker) recordAttempts(attempts []Attempt) {
	for _, at := range attempts {
		t.finish(HistorySourceKey(at.Source), at.Err, at.Latency)
	}
}

func (t *sourceTracker) snapshot() map[string]entities.SourceStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]entities.SourceStatus, len(t.sources))
	for k, v := range t.sources {
		out[k] = v
	}
	return out
}

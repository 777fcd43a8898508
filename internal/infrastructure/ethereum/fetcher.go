package ethereum

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bimakw/wallet-aggregator/internal/domain/entities"
	"github.com/bimakw/wallet-aggregator/internal/domain/units"
)

// TokenReader reads one token's holding for an owner
type TokenReader interface {
	ReadToken(ctx context.Context, contract, owner string) (*entities.TokenHolding, error)
}

// TokenFetcher reads token details for many candidates concurrently
type TokenFetcher struct {
	reader  TokenReader
	workers int
	logger  *zap.Logger
}

// NewTokenFetcher creates a fetcher running at most workers reads at a time
func NewTokenFetcher(reader TokenReader, workers int, logger *zap.Logger) *TokenFetcher {
	if workers < 1 {
		workers = 1
	}
	return &TokenFetcher{
		reader:  reader,
		workers: workers,
		logger:  logger,
	}
}

// FetchHoldings reads every candidate and returns holdings in candidate order.
// A failed read drops only that token; siblings keep running.
func (f *TokenFetcher) FetchHoldings(ctx context.Context, owner string, candidates []entities.TokenCandidate) ([]entities.TokenHolding, []entities.Skipped) {
	results := make([]*entities.TokenHolding, len(candidates))
	skipped := make([]entities.Skipped, 0)
	var mu sync.Mutex

	// Workers never return an error so one failure cannot cancel the batch.
	var g errgroup.Group
	g.SetLimit(f.workers)

	for i, candidate := range candidates {
		i, candidate := i, candidate // capture
		g.Go(func() error {
			holding, err := f.reader.ReadToken(ctx, candidate.ContractAddress, owner)
			if err == nil && !units.IsPositiveRaw(holding.RawBalance) {
				mu.Lock()
				skipped = append(skipped, entities.Skip(entities.SkipToken, candidate.ContractAddress, "zero balance"))
				mu.Unlock()
				return nil
			}
			if err != nil {
				f.logger.Debug("Dropping token after failed read",
					zap.String("token", candidate.ContractAddress),
					zap.Error(err),
				)
				mu.Lock()
				skipped = append(skipped, entities.Skip(entities.SkipToken, candidate.ContractAddress, err.Error()))
				mu.Unlock()
				return nil
			}

			results[i] = holding
			return nil
		})
	}

	_ = g.Wait()

	holdings := make([]entities.TokenHolding, 0, len(candidates))
	for _, h := range results {
		if h != nil {
			holdings = append(holdings, *h)
		}
	}

	f.logger.Debug("Fetched token details",
		zap.Int("candidates", len(candidates)),
		zap.Int("holdings", len(holdings)),
		zap.Int("skipped", len(skipped)),
	)

	return holdings, skipped
}

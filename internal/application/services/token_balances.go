package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/bimakw/wallet-aggregator/internal/domain/entities"
	"github.com/bimakw/wallet-aggregator/internal/domain/repositories"
)

// TokenBalanceAdapter lists a wallet's token contracts from the indexer and
// reads each one on chain
type TokenBalanceAdapter struct {
	candidates repositories.TokenCandidateSource
	fetcher    repositories.TokenHoldingFetcher
	logger     *zap.Logger
}

// NewTokenBalanceAdapter creates a new token balance adapter
func NewTokenBalanceAdapter(
	candidates repositories.TokenCandidateSource,
	fetcher repositories.TokenHoldingFetcher,
	logger *zap.Logger,
) *TokenBalanceAdapter {
	return &TokenBalanceAdapter{
		candidates: candidates,
		fetcher:    fetcher,
		logger:     logger.Named("tokens"),
	}
}

// Holdings returns the wallet's non-zero ERC-20 holdings in listing order.
// Only the listing can fail; tokens whose details cannot be read are
// returned as Skipped.
func (a *TokenBalanceAdapter) Holdings(ctx context.Context, address string) ([]entities.TokenHolding, []entities.Skipped, error) {
	candidates, err := a.candidates.ListTokenCandidates(ctx, address)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list token candidates: %w", err)
	}
	if len(candidates) == 0 {
		return []entities.TokenHolding{}, nil, nil
	}

	holdings, skipped := a.fetcher.FetchHoldings(ctx, address, candidates)

	if len(skipped) > 0 {
		a.logger.Warn("Some tokens could not be read",
			zap.String("address", address),
			zap.Int("candidates", len(candidates)),
			zap.Int("skipped", len(skipped)),
		)
	}

	return holdings, skipped, nil
}

package repositories

import (
	"context"

	"github.com/bimakw/wallet-aggregator/internal/domain/entities"
)

// NativeBalanceSource reads the chain's native coin balance
type NativeBalanceSource interface {
	// NativeBalance returns the native holding of address, zero included
	NativeBalance(ctx context.Context, address string) (entities.TokenHolding, error)
}

// TokenCandidateSource lists ERC-20 contracts a wallet may hold
type TokenCandidateSource interface {
	// ListTokenCandidates returns contracts with a non-zero indexed balance
	ListTokenCandidates(ctx context.Context, address string) ([]entities.TokenCandidate, error)
}

// TokenHoldingFetcher resolves candidates into holdings. It never fails as a
// whole; individual failures come back as Skipped.
type TokenHoldingFetcher interface {
	FetchHoldings(ctx context.Context, owner string, candidates []entities.TokenCandidate) ([]entities.TokenHolding, []entities.Skipped)
}

// NFTSource pages through a wallet's NFTs
type NFTSource interface {
	// NFTs returns the page after pageKey; an empty key is the first page
	NFTs(ctx context.Context, address, pageKey string) (*entities.NFTPage, error)
}

// DefiSource reads a wallet's positions in one protocol
type DefiSource interface {
	Name() string
	Positions(ctx context.Context, address string) ([]entities.DefiPosition, error)
}

// TransactionSource returns a page of a wallet's history. Pages start at 1.
type TransactionSource interface {
	Name() string
	Transactions(ctx context.Context, address string, page int) (*entities.TransactionPage, error)
}

// TokenTransferSource returns a page of a wallet's ERC-20 transfer events
type TokenTransferSource interface {
	TokenTransfers(ctx context.Context, address string, page int) (*entities.TransactionPage, error)
}

// PriceSource looks up USD prices by price id
type PriceSource interface {
	// SimplePrices prices every id in one request; unknown ids are absent
	SimplePrices(ctx context.Context, ids []string, includeChange bool) (map[string]entities.PriceQuote, error)

	// Search finds price ids matching a free-text query
	Search(ctx context.Context, query string) ([]entities.CoinMatch, error)
}

package alchemy

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/bimakw/wallet-aggregator/internal/domain/entities"
	"github.com/bimakw/wallet-aggregator/internal/domain/units"
)

type tokenBalance struct {
	ContractAddress string  `json:"contractAddress"`
	TokenBalance    string  `json:"tokenBalance"`
	Error           *string `json:"error"`
}

type tokenBalancesResult struct {
	Address       string         `json:"address"`
	TokenBalances []tokenBalance `json:"tokenBalances"`
}

// ListTokenCandidates returns ERC-20 contracts with a non-zero balance for
// address. Zero balances are filtered by integer comparison.
func (c *Client) ListTokenCandidates(ctx context.Context, address string) ([]entities.TokenCandidate, error) {
	var result tokenBalancesResult
	if err := c.call(ctx, "alchemy_getTokenBalances", []interface{}{address, "erc20"}, &result); err != nil {
		return nil, fmt.Errorf("failed to get token balances: %w", err)
	}

	candidates := make([]entities.TokenCandidate, 0, len(result.TokenBalances))
	for _, tb := range result.TokenBalances {
		if tb.Error != nil && *tb.Error != "" {
			c.logger.Debug("Skipping token balance with error",
				zap.String("token", tb.ContractAddress),
				zap.String("error", *tb.Error),
			)
			continue
		}
		if !entities.IsValidAddress(tb.ContractAddress) {
			continue
		}
		raw, ok := units.ParseRaw(tb.TokenBalance)
		if !ok || raw.Sign() == 0 {
			continue
		}
		candidates = append(candidates, entities.TokenCandidate{
			ContractAddress: strings.ToLower(tb.ContractAddress),
			RawBalance:      raw.String(),
		})
	}

	c.logger.Debug("Listed token candidates",
		zap.String("address", address),
		zap.Int("reported", len(result.TokenBalances)),
		zap.Int("non_zero", len(candidates)),
	)

	return candidates, nil
}

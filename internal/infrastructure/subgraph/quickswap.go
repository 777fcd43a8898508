// Package subgraph reads liquidity positions from The Graph
package subgraph

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bimakw/wallet-aggregator/internal/domain/entities"
	"github.com/bimakw/wallet-aggregator/internal/infrastructure/httpclient"
)

const (
	// Source is the upstream name used in errors and metrics
	Source = "quickswap"

	QuickSwapProtocolName = "QuickSwap"
	quickSwapLogo         = "🦎"
	unknownSymbol         = "?"
)

const liquidityPositionsQuery = `query LiquidityPositions($user: ID!) {
  user(id: $user) {
    liquidityPositions {
      pair {
        token0 { symbol }
        token1 { symbol }
      }
      liquidityTokenBalance
    }
  }
}`

type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type token struct {
	Symbol string `json:"symbol"`
}

type liquidityPosition struct {
	Pair *struct {
		Token0 token `json:"token0"`
		Token1 token `json:"token1"`
	} `json:"pair"`
	LiquidityTokenBalance string `json:"liquidityTokenBalance"`
}

type liquidityPositionsResponse struct {
	Data *struct {
		User *struct {
			LiquidityPositions []liquidityPosition `json:"liquidityPositions"`
		} `json:"user"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

// QuickSwapReader lists a wallet's QuickSwap LP positions
type QuickSwapReader struct {
	http   *httpclient.Client
	url    string
	logger *zap.Logger
}

// NewQuickSwapReader creates a reader for the subgraph at url
func NewQuickSwapReader(url string, timeout time.Duration, logger *zap.Logger) *QuickSwapReader {
	return &QuickSwapReader{
		http:   httpclient.New(Source, timeout, logger),
		url:    url,
		logger: logger.Named(Source),
	}
}

// Name returns the protocol source name
func (r *QuickSwapReader) Name() string {
	return Source
}

// Positions returns one liquidity position summarizing every pool address
// holds LP tokens in, or none when there are no such pools
func (r *QuickSwapReader) Positions(ctx context.Context, address string) ([]entities.DefiPosition, error) {
	if r.url == "" {
		return nil, entities.NewConfigError(Source, "QuickSwap subgraph URL not configured")
	}

	req := graphQLRequest{
		Query:     liquidityPositionsQuery,
		Variables: map[string]interface{}{"user": strings.ToLower(address)},
	}

	var resp liquidityPositionsResponse
	if err := r.http.PostJSON(ctx, r.url, req, &resp); err != nil {
		return nil, fmt.Errorf("failed to query liquidity positions: %w", err)
	}
	if len(resp.Errors) > 0 {
		return nil, entities.NewUpstreamError(Source, resp.Errors[0].Message, nil)
	}
	if resp.Data == nil || resp.Data.User == nil {
		return nil, nil
	}

	pairs := make([]string, 0, len(resp.Data.User.LiquidityPositions))
	for _, lp := range resp.Data.User.LiquidityPositions {
		if !hasLiquidity(lp.LiquidityTokenBalance) {
			continue
		}
		pairs = append(pairs, pairName(lp))
	}

	r.logger.Debug("Fetched liquidity positions",
		zap.String("address", address),
		zap.Int("reported", len(resp.Data.User.LiquidityPositions)),
		zap.Int("active", len(pairs)),
	)

	if len(pairs) == 0 {
		return nil, nil
	}

	return []entities.DefiPosition{{
		Protocol:    QuickSwapProtocolName,
		Kind:        entities.PositionLiquidity,
		Logo:        quickSwapLogo,
		NetValueUSD: 0,
		Liquidity: &entities.LiquidityPosition{
			Pairs:         pairs,
			PositionCount: len(pairs),
		},
	}}, nil
}

// hasLiquidity treats an unparseable balance as held, since the subgraph
// only reports positions that were opened
func hasLiquidity(balance string) bool {
	d, err := decimal.NewFromString(balance)
	if err != nil {
		return true
	}
	return d.IsPositive()
}

func pairName(lp liquidityPosition) string {
	if lp.Pair == nil {
		return unknownSymbol + "/" + unknownSymbol
	}
	return symbolOr(lp.Pair.Token0.Symbol) + "/" + symbolOr(lp.Pair.Token1.Symbol)
}

func symbolOr(s string) string {
	if s == "" {
		return unknownSymbol
	}
	return s
}

// Package coingecko is the USD price source
package coingecko

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bimakw/wallet-aggregator/internal/config"
	"github.com/bimakw/wallet-aggregator/internal/domain/entities"
	"github.com/bimakw/wallet-aggregator/internal/infrastructure/httpclient"
)

// Source is the upstream name used in errors and metrics
const Source = "coingecko"

const vsCurrency = "usd"

// Client talks to the CoinGecko v3 API
type Client struct {
	http    *httpclient.Client
	baseURL string
	logger  *zap.Logger
}

// NewClient creates a price client. The demo key header is only sent when a
// key is configured.
func NewClient(cfg config.PriceConfig, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		http: httpclient.New(Source, timeout, logger,
			httpclient.WithRateLimit(cfg.RateLimit, 1),
			httpclient.WithHeader("x-cg-demo-api-key", cfg.APIKey),
		),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		logger:  logger.Named(Source),
	}
}

// SimplePrices fetches USD prices for ids in a single request. Ids the API
// does not know are absent from the result.
func (c *Client) SimplePrices(ctx context.Context, ids []string, includeChange bool) (map[string]entities.PriceQuote, error) {
	if len(ids) == 0 {
		return map[string]entities.PriceQuote{}, nil
	}

	query := url.Values{}
	query.Set("ids", strings.Join(ids, ","))
	query.Set("vs_currencies", vsCurrency)
	if includeChange {
		query.Set("include_24hr_change", "true")
	}

	var resp map[string]map[string]*float64
	if err := c.http.GetJSON(ctx, c.baseURL+"/simple/price", query, &resp); err != nil {
		return nil, fmt.Errorf("failed to get prices: %w", err)
	}

	quotes := make(map[string]entities.PriceQuote, len(resp))
	for id, fields := range resp {
		usd := fields[vsCurrency]
		if usd == nil {
			continue
		}
		quotes[id] = entities.PriceQuote{USD: *usd, Change24h: fields[vsCurrency+"_24h_change"]}
	}

	c.logger.Debug("Fetched prices",
		zap.Int("requested", len(ids)),
		zap.Int("priced", len(quotes)),
	)

	return quotes, nil
}

// Search returns coins matching query
func (c *Client) Search(ctx context.Context, query string) ([]entities.CoinMatch, error) {
	if strings.TrimSpace(query) == "" {
		return nil, entities.NewValidationError(Source, "search query is empty")
	}

	var resp struct {
		Coins []entities.CoinMatch `json:"coins"`
	}
	if err := c.http.GetJSON(ctx, c.baseURL+"/search", url.Values{"query": {query}}, &resp); err != nil {
		return nil, fmt.Errorf("failed to search %q: %w", query, err)
	}
	return resp.Coins, nil
}

// Ping checks API reachability
func (c *Client) Ping(ctx context.Context) error {
	var resp map[string]interface{}
	return c.http.GetJSON(ctx, c.baseURL+"/ping", nil, &resp)
}

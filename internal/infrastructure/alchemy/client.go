package alchemy

import (
	"context"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/bimakw/wallet-aggregator/internal/config"
	"github.com/bimakw/wallet-aggregator/internal/domain/entities"
	"github.com/bimakw/wallet-aggregator/internal/infrastructure/httpclient"
)

// Source is the upstream name used in errors and metrics
const Source = "alchemy"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Client talks to the Alchemy indexer's REST and JSON-RPC endpoints
type Client struct {
	http         *httpclient.Client
	config       config.AlchemyConfig
	nativeSymbol string
	logger       *zap.Logger
}

// NewClient creates an indexer client. A missing API key is reported per
// call as a ConfigError rather than at construction.
func NewClient(cfg config.AlchemyConfig, nativeSymbol string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		http: httpclient.New(Source, timeout, logger,
			httpclient.WithRateLimit(cfg.RateLimit, 1),
			httpclient.WithSecret(cfg.APIKey),
		),
		config:       cfg,
		nativeSymbol: nativeSymbol,
		logger:       logger.Named(Source),
	}
}

type rpcRequest struct {
	ID      int           `json:"id"`
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result jsoniter.RawMessage `json:"result"`
	Error  *rpcError           `json:"error"`
}

// endpoint returns the keyed base URL
func (c *Client) endpoint() (string, error) {
	if c.config.APIKey == "" {
		return "", entities.NewConfigError(Source, "Alchemy API key not configured")
	}
	return strings.TrimRight(c.config.BaseURL, "/") + "/" + c.config.APIKey, nil
}

// call performs a JSON-RPC request and decodes its result into dest
func (c *Client) call(ctx context.Context, method string, params []interface{}, dest interface{}) error {
	endpoint, err := c.endpoint()
	if err != nil {
		return err
	}

	req := rpcRequest{ID: 1, JSONRPC: "2.0", Method: method, Params: params}

	var resp rpcResponse
	if err := c.http.PostJSON(ctx, endpoint, req, &resp); err != nil {
		return err
	}

	if resp.Error != nil {
		return entities.NewUpstreamError(Source, resp.Error.Message, nil)
	}
	if len(resp.Result) == 0 || string(resp.Result) == "null" {
		return entities.NewUpstreamError(Source, "empty result", nil)
	}

	if err := json.Unmarshal(resp.Result, dest); err != nil {
		return httpclient.ClassifyDecode(Source, err)
	}
	return nil
}

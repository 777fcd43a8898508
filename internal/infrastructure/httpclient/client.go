package httpclient

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Client performs JSON requests against one upstream and classifies failures
// into SourceErrors tagged with the upstream's name.
type Client struct {
	client  *fasthttp.Client
	source  string
	timeout time.Duration
	limiter *rate.Limiter
	headers map[string]string
	secrets []string
	logger  *zap.Logger
}

// Option configures a Client
type Option func(*Client)

// WithRateLimit throttles outgoing requests to rps with the given burst
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithHeader adds a header to every request
func WithHeader(key, value string) Option {
	return func(c *Client) {
		if value != "" {
			c.headers[key] = value
		}
	}
}

// WithSecret masks value wherever it appears in a logged URL, for upstreams
// that carry credentials in the path
func WithSecret(value string) Option {
	return func(c *Client) {
		if value != "" {
			c.secrets = append(c.secrets, value)
		}
	}
}

// New creates a client for the named upstream
func New(source string, timeout time.Duration, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		client: &fasthttp.Client{
			Name:                "wallet-aggregator",
			MaxIdleConnDuration: 30 * time.Second,
		},
		source:  source,
		timeout: timeout,
		headers: make(map[string]string),
		logger:  logger.Named(source),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetJSON issues a GET with the given query and decodes the body into dest
func (c *Client) GetJSON(ctx context.Context, rawURL string, query url.Values, dest interface{}) error {
	req := fasthttp.AcquireRequest()

	if len(query) > 0 {
		sep := "?"
		if strings.Contains(rawURL, "?") {
			sep = "&"
		}
		rawURL += sep + query.Encode()
	}
	req.SetRequestURI(rawURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")

	return c.do(ctx, req, dest)
}

// PostJSON issues a POST with a JSON body and decodes the response into dest
func (c *Client) PostJSON(ctx context.Context, rawURL string, body interface{}, dest interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	req := fasthttp.AcquireRequest()

	req.SetRequestURI(rawURL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("Accept", "application/json")
	req.SetBody(payload)

	return c.do(ctx, req, dest)
}

// do sends req and releases it. DoDeadline cannot be interrupted, so when
// ctx ends first the exchange is abandoned and finishes in the background.
func (c *Client) do(ctx context.Context, req *fasthttp.Request, dest interface{}) error {
	if err := ctx.Err(); err != nil {
		fasthttp.ReleaseRequest(req)
		return ClassifyTransport(c.source, err)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			fasthttp.ReleaseRequest(req)
			return ClassifyTransport(c.source, err)
		}
	}

	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.timeout)
	}

	resp := fasthttp.AcquireResponse()
	uri := c.redact(req.URI().FullURI())
	start := time.Now()

	done := make(chan error, 1)
	go func() {
		done <- c.client.DoDeadline(req, resp, deadline)
	}()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		go func() {
			<-done
			fasthttp.ReleaseRequest(req)
			fasthttp.ReleaseResponse(resp)
		}()
		c.logger.Debug("Request abandoned",
			zap.String("uri", uri),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(ctx.Err()),
		)
		return ClassifyTransport(c.source, ctx.Err())
	}
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	if err != nil {
		c.logger.Debug("Request failed",
			zap.String("uri", uri),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return ClassifyTransport(c.source, err)
	}

	body := resp.Body()
	if err := ClassifyStatus(c.source, resp.StatusCode(), body); err != nil {
		c.logger.Debug("Upstream returned error status",
			zap.Int("status", resp.StatusCode()),
			zap.Int("body_size", len(body)),
		)
		return err
	}

	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return ClassifyDecode(c.source, err)
	}
	return nil
}

// redact strips the query string and masks configured secrets so API keys
// never reach the logs
func (c *Client) redact(uri []byte) string {
	out := string(uri)
	if i := strings.IndexByte(out, '?'); i >= 0 {
		out = out[:i]
	}
	for _, secret := range c.secrets {
		out = strings.ReplaceAll(out, secret, "***")
	}
	return out
}

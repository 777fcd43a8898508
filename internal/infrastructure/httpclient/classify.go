package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/valyala/fasthttp"

	"github.com/bimakw/wallet-aggregator/internal/domain/entities"
)

// ClassifyTransport maps a failed round trip to a NetworkError. Deadline
// expiry is flagged as a timeout so it stays distinguishable from a refused
// connection.
func ClassifyTransport(source string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, fasthttp.ErrTimeout) ||
		errors.Is(err, fasthttp.ErrDialTimeout) {
		return entities.NewTimeoutError(source, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return entities.NewTimeoutError(source, err)
	}

	if errors.Is(err, context.Canceled) {
		return entities.NewNetworkError(source, "request cancelled", err)
	}

	return entities.NewNetworkError(source, "connection failed", err)
}

// ClassifyStatus maps a non-2xx response to a SourceError
func ClassifyStatus(source string, status int, body []byte) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == fasthttp.StatusUnauthorized || status == fasthttp.StatusForbidden:
		return entities.NewUpstreamError(source, "invalid API key", fmt.Errorf("status %d", status))
	case status == fasthttp.StatusTooManyRequests:
		return entities.NewNetworkError(source, "rate limit exceeded", fmt.Errorf("status %d", status))
	default:
		return entities.NewUpstreamError(source,
			fmt.Sprintf("upstream returned status %d", status),
			fmt.Errorf("body: %s", truncate(body, 256)),
		)
	}
}

// ClassifyDecode maps an undecodable body to an UpstreamError
func ClassifyDecode(source string, err error) error {
	return entities.NewUpstreamError(source, "malformed response", err)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

package ethereum

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/ethereum/go-ethereum/rpc"

	"github.com/bimakw/wallet-aggregator/internal/domain/entities"
)

// classifyRPCError maps go-ethereum transport and JSON-RPC failures onto the
// source error taxonomy
func classifyRPCError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := entities.AsSourceError(err); ok {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return entities.NewTimeoutError(SourceRPC, err)
	}
	if errors.Is(err, context.Canceled) {
		return entities.NewNetworkError(SourceRPC, "request cancelled", err)
	}

	var httpErr rpc.HTTPError
	if errors.As(err, &httpErr) {
		switch {
		case httpErr.StatusCode == http.StatusUnauthorized || httpErr.StatusCode == http.StatusForbidden:
			return entities.NewUpstreamError(SourceRPC, "invalid API key", err)
		case httpErr.StatusCode == http.StatusTooManyRequests:
			return entities.NewNetworkError(SourceRPC, "rate limit exceeded", err)
		default:
			return entities.NewUpstreamError(SourceRPC, "node returned an error status", err)
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return entities.NewTimeoutError(SourceRPC, err)
		}
		return entities.NewNetworkError(SourceRPC, "connection failed", err)
	}

	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return entities.NewUpstreamError(SourceRPC, "call reverted or rejected", err)
	}

	return entities.NewNetworkError(SourceRPC, "connection failed", err)
}

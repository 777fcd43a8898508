package entities

import (
	"errors"
	"fmt"
	"testing"
)

func TestSourceError(t *testing.T) {
	t.Run("kind survives wrapping", func(t *testing.T) {
		base := NewConfigError("alchemy", "API key not configured")
		wrapped := fmt.Errorf("fetch tokens: %w", base)

		if KindOf(wrapped) != ConfigError {
			t.Errorf("expected ConfigError, got %s", KindOf(wrapped))
		}
		if UserMessage(wrapped) != "API key not configured" {
			t.Errorf("unexpected message: %s", UserMessage(wrapped))
		}
	})

	t.Run("unwraps cause", func(t *testing.T) {
		cause := errors.New("dial tcp: connection refused")
		err := NewNetworkError("rpc", "connection failed", cause)
		if !errors.Is(err, cause) {
			t.Error("expected errors.Is to find the cause")
		}
	})

	t.Run("timeout is a network error", func(t *testing.T) {
		err := NewTimeoutError("explorer", nil)
		if err.Kind != NetworkError || !err.Timeout {
			t.Errorf("expected timeout network error, got %+v", err)
		}
	})

	t.Run("unclassified errors default to upstream", func(t *testing.T) {
		if KindOf(errors.New("boom")) != UpstreamError {
			t.Error("expected UpstreamError for plain errors")
		}
		if UserMessage(errors.New("secret payload")) != "unexpected error" {
			t.Error("expected raw error text to be hidden")
		}
	})
}

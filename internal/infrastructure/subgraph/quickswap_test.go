package subgraph

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/bimakw/wallet-aggregator/internal/domain/entities"
)

func newTestReader(t *testing.T, payload string) (*QuickSwapReader, *string) {
	t.Helper()
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, payload)
	}))
	t.Cleanup(srv.Close)
	return NewQuickSwapReader(srv.URL, 5*time.Second, zap.NewNop()), &body
}

func TestQuickSwapReader_Positions(t *testing.T) {
	reader, body := newTestReader(t, `{
		"data": {
			"user": {
				"liquidityPositions": [
					{"pair": {"token0": {"symbol": "WMATIC"}, "token1": {"symbol": "USDC"}}, "liquidityTokenBalance": "1.25"},
					{"pair": {"token0": {"symbol": "WETH"}, "token1": {"symbol": ""}}, "liquidityTokenBalance": "0.5"},
					{"pair": {"token0": {"symbol": "DAI"}, "token1": {"symbol": "USDT"}}, "liquidityTokenBalance": "0"}
				]
			}
		}
	}`)

	positions, err := reader.Positions(context.Background(), "0xABCDEF0000000000000000000000000000000001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(*body, "0xabcdef0000000000000000000000000000000001") {
		t.Errorf("expected lowercased address in variables, got %s", *body)
	}

	if len(positions) != 1 {
		t.Fatalf("expected a single summary position, got %d", len(positions))
	}
	pos := positions[0]
	if pos.Kind != entities.PositionLiquidity || pos.Protocol != QuickSwapProtocolName {
		t.Errorf("unexpected position: %+v", pos)
	}
	if pos.NetValueUSD != 0 {
		t.Errorf("expected zero net value, got %f", pos.NetValueUSD)
	}
	if pos.Liquidity.PositionCount != 2 {
		t.Errorf("expected 2 active pools, got %d", pos.Liquidity.PositionCount)
	}
	if pos.Liquidity.Pairs[0] != "WMATIC/USDC" || pos.Liquidity.Pairs[1] != "WETH/?" {
		t.Errorf("unexpected pairs: %v", pos.Liquidity.Pairs)
	}
}

func TestQuickSwapReader_NoUser(t *testing.T) {
	reader, _ := newTestReader(t, `{"data": {"user": null}}`)

	positions, err := reader.Positions(context.Background(), "0x1111111111111111111111111111111111111111")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(positions) != 0 {
		t.Errorf("expected no positions, got %d", len(positions))
	}
}

func TestQuickSwapReader_Errors(t *testing.T) {
	t.Run("graphql error", func(t *testing.T) {
		reader, _ := newTestReader(t, `{"errors": [{"message": "indexing error"}]}`)
		_, err := reader.Positions(context.Background(), "0x1111111111111111111111111111111111111111")
		if !entities.IsKind(err, entities.UpstreamError) {
			t.Errorf("expected UpstreamError, got %v", err)
		}
	})

	t.Run("missing url", func(t *testing.T) {
		reader := NewQuickSwapReader("", time.Second, zap.NewNop())
		_, err := reader.Positions(context.Background(), "0x1111111111111111111111111111111111111111")
		if !entities.IsKind(err, entities.ConfigError) {
			t.Errorf("expected ConfigError, got %v", err)
		}
	})
}

package explorer

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/bimakw/wallet-aggregator/internal/config"
	"github.com/bimakw/wallet-aggregator/internal/domain/entities"
)

const testOwner = "0x1111111111111111111111111111111111111111"

func newTestClient(t *testing.T, apiKey, payload string, seen *http.Request) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			*seen = *r
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, payload)
	}))
	t.Cleanup(srv.Close)

	cfg := config.ExplorerConfig{APIKey: apiKey, BaseURL: srv.URL, PageSize: 2}
	return NewClient(cfg, "MATIC", 5*time.Second, zap.NewNop())
}

func TestClient_Transactions(t *testing.T) {
	payload := `{
		"status": "1",
		"message": "OK",
		"result": [
			{
				"hash": "0xaaa",
				"from": "0x1111111111111111111111111111111111111111",
				"to": "0x2222222222222222222222222222222222222222",
				"value": "1000000000000000000",
				"timeStamp": "1700000000",
				"blockNumber": "50000000",
				"isError": "0",
				"txreceipt_status": "1",
				"gasUsed": "21000",
				"gasPrice": "30000000000"
			},
			{
				"hash": "0xbbb",
				"from": "0x1111111111111111111111111111111111111111",
				"to": "0x3333333333333333333333333333333333333333",
				"value": "0",
				"timeStamp": "1700000100",
				"blockNumber": "50000001",
				"isError": "1",
				"txreceipt_status": ""
			}
		]
	}`

	var seen http.Request
	c := newTestClient(t, "secret", payload, &seen)

	page, err := c.Transactions(context.Background(), testOwner, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	q := seen.URL.Query()
	if q.Get("action") != "txlist" || q.Get("page") != "2" || q.Get("offset") != "2" || q.Get("sort") != "desc" {
		t.Errorf("unexpected query: %s", seen.URL.RawQuery)
	}
	if q.Get("apikey") != "secret" {
		t.Errorf("expected api key to be sent")
	}

	if page.Source != entities.TxSourceExplorer {
		t.Errorf("expected explorer source, got %s", page.Source)
	}
	if page.Page != 2 {
		t.Errorf("expected page 2, got %d", page.Page)
	}
	if !page.HasMore {
		t.Error("expected HasMore when a full page is returned")
	}
	if len(page.Transactions) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(page.Transactions))
	}

	first := page.Transactions[0]
	if first.Status != entities.TxSuccess || first.GasUsed != "21000" || first.Asset != "MATIC" {
		t.Errorf("unexpected first tx: %+v", first)
	}
	if first.Timestamp == nil || *first.Timestamp != 1700000000 {
		t.Errorf("unexpected timestamp: %v", first.Timestamp)
	}
	if first.BlockNumber != 50000000 {
		t.Errorf("unexpected block: %d", first.BlockNumber)
	}

	if page.Transactions[1].Status != entities.TxFailed {
		t.Errorf("expected isError fallback to mark failure, got %s", page.Transactions[1].Status)
	}
}

func TestClient_TokenTransfers(t *testing.T) {
	payload := `{
		"status": "1",
		"message": "OK",
		"result": [
			{"hash": "0xccc", "value": "5000000", "tokenSymbol": "USDC", "timeStamp": "1700000000", "blockNumber": "1"}
		]
	}`

	var seen http.Request
	c := newTestClient(t, "secret", payload, &seen)

	page, err := c.TokenTransfers(context.Background(), testOwner, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen.URL.Query().Get("action") != "tokentx" {
		t.Errorf("expected tokentx action, got %s", seen.URL.Query().Get("action"))
	}
	if page.HasMore {
		t.Error("expected no more pages for a short page")
	}
	tx := page.Transactions[0]
	if tx.Asset != "USDC" || tx.Category != "erc20" {
		t.Errorf("unexpected token transfer: %+v", tx)
	}
}

func TestClient_Errors(t *testing.T) {
	t.Run("missing api key", func(t *testing.T) {
		c := newTestClient(t, "", `{}`, nil)
		_, err := c.Transactions(context.Background(), testOwner, 1)
		if !entities.IsKind(err, entities.ConfigError) {
			t.Errorf("expected ConfigError, got %v", err)
		}
	})

	t.Run("no transactions found", func(t *testing.T) {
		c := newTestClient(t, "secret", `{"status":"0","message":"No transactions found","result":[]}`, nil)
		page, err := c.Transactions(context.Background(), testOwner, 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(page.Transactions) != 0 || page.HasMore {
			t.Errorf("expected empty page, got %+v", page)
		}
	})

	t.Run("upstream error", func(t *testing.T) {
		c := newTestClient(t, "secret", `{"status":"0","message":"NOTOK","result":"Invalid API Key"}`, nil)
		_, err := c.Transactions(context.Background(), testOwner, 1)
		if !entities.IsKind(err, entities.UpstreamError) {
			t.Fatalf("expected UpstreamError, got %v", err)
		}
		if entities.UserMessage(err) != "Invalid API Key" {
			t.Errorf("expected result detail as message, got %q", entities.UserMessage(err))
		}
	})
}

func TestNormalizeTxs(t *testing.T) {
	rows := []RawTx{
		{Hash: "0x1", Value: ""},
		{Hash: ""},
		{Hash: "0x1"},
		{Hash: "0x2", TimeStamp: "not-a-number"},
	}

	txs, skipped := NormalizeTxs(rows, "MATIC", false)
	if len(txs) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(txs))
	}
	if len(skipped) != 2 {
		t.Errorf("expected 2 skipped, got %d", len(skipped))
	}
	if txs[0].RawValue != "0" {
		t.Errorf("expected empty value to become 0, got %q", txs[0].RawValue)
	}
	if txs[1].Timestamp != nil {
		t.Errorf("expected absent timestamp, got %d", *txs[1].Timestamp)
	}

	tokenTxs, _ := NormalizeTxs(rows, "MATIC", true)
	if len(tokenTxs) != 3 {
		t.Errorf("expected repeated hashes kept for token transfers, got %d", len(tokenTxs))
	}
}

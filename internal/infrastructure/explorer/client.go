// Package explorer is the fallback transaction source backed by a
// PolygonScan-compatible account API.
package explorer

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/bimakw/wallet-aggregator/internal/config"
	"github.com/bimakw/wallet-aggregator/internal/domain/entities"
	"github.com/bimakw/wallet-aggregator/internal/infrastructure/httpclient"
)

// Source is the upstream name used in errors and metrics
const Source = "explorer"

const (
	actionTxList  = "txlist"
	actionTokenTx = "tokentx"
	noTxMessage   = "No transactions found"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Client queries the explorer's account module
type Client struct {
	http         *httpclient.Client
	config       config.ExplorerConfig
	nativeSymbol string
	logger       *zap.Logger
}

// NewClient creates an explorer client
func NewClient(cfg config.ExplorerConfig, nativeSymbol string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		http:         httpclient.New(Source, timeout, logger, httpclient.WithRateLimit(5, 1)),
		config:       cfg,
		nativeSymbol: nativeSymbol,
		logger:       logger.Named(Source),
	}
}

// Name returns the upstream name
func (c *Client) Name() string {
	return Source
}

type apiResponse struct {
	Status  string              `json:"status"`
	Message string              `json:"message"`
	Result  jsoniter.RawMessage `json:"result"`
}

// RawTx is one row of txlist or tokentx
type RawTx struct {
	Hash            string `json:"hash"`
	From            string `json:"from"`
	To              string `json:"to"`
	Value           string `json:"value"`
	TimeStamp       string `json:"timeStamp"`
	BlockNumber     string `json:"blockNumber"`
	IsError         string `json:"isError"`
	TxReceiptStatus string `json:"txreceipt_status"`
	GasUsed         string `json:"gasUsed"`
	GasPrice        string `json:"gasPrice"`
	TokenSymbol     string `json:"tokenSymbol"`
	ContractAddress string `json:"contractAddress"`
}

// Transactions returns page of address's normal transactions, newest first.
// Pages start at 1.
func (c *Client) Transactions(ctx context.Context, address string, page int) (*entities.TransactionPage, error) {
	return c.list(ctx, actionTxList, address, page)
}

// TokenTransfers returns page of address's ERC-20 transfer events
func (c *Client) TokenTransfers(ctx context.Context, address string, page int) (*entities.TransactionPage, error) {
	return c.list(ctx, actionTokenTx, address, page)
}

func (c *Client) list(ctx context.Context, action, address string, page int) (*entities.TransactionPage, error) {
	if c.config.APIKey == "" {
		return nil, entities.NewConfigError(Source, "explorer API key not configured")
	}
	if page < 1 {
		page = 1
	}
	offset := c.config.PageSize
	if offset <= 0 {
		offset = 20
	}

	query := url.Values{}
	query.Set("module", "account")
	query.Set("action", action)
	query.Set("address", address)
	query.Set("startblock", "0")
	query.Set("endblock", "99999999")
	query.Set("page", strconv.Itoa(page))
	query.Set("offset", strconv.Itoa(offset))
	query.Set("sort", "desc")
	query.Set("apikey", c.config.APIKey)

	var resp apiResponse
	if err := c.http.GetJSON(ctx, c.config.BaseURL, query, &resp); err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", action, err)
	}

	result := &entities.TransactionPage{
		Transactions: []entities.Transaction{},
		Source:       entities.TxSourceExplorer,
		Page:         page,
	}

	if resp.Status != "1" {
		if strings.HasPrefix(resp.Message, noTxMessage) {
			return result, nil
		}
		return nil, entities.NewUpstreamError(Source, upstreamMessage(resp), nil)
	}

	var rows []RawTx
	if err := json.Unmarshal(resp.Result, &rows); err != nil {
		return nil, httpclient.ClassifyDecode(Source, err)
	}

	result.Transactions, result.Skipped = NormalizeTxs(rows, c.nativeSymbol, action == actionTokenTx)
	result.HasMore = len(rows) == offset

	c.logger.Debug("Fetched explorer page",
		zap.String("action", action),
		zap.String("address", address),
		zap.Int("page", page),
		zap.Int("rows", len(rows)),
	)

	return result, nil
}

// upstreamMessage prefers the string result, which carries the detail on
// errors such as an invalid key
func upstreamMessage(resp apiResponse) string {
	var detail string
	if err := json.Unmarshal(resp.Result, &detail); err == nil && detail != "" {
		return detail
	}
	if resp.Message != "" {
		return resp.Message
	}
	return "explorer request failed"
}

// NormalizeTxs normalizes explorer rows, dropping rows without a hash and
// repeated hashes
func NormalizeTxs(rows []RawTx, nativeSymbol string, tokenTransfers bool) ([]entities.Transaction, []entities.Skipped) {
	txs := make([]entities.Transaction, 0, len(rows))
	skipped := make([]entities.Skipped, 0)
	seen := make(map[string]struct{}, len(rows))

	for _, row := range rows {
		if row.Hash == "" {
			skipped = append(skipped, entities.Skip(entities.SkipTransaction, "", "missing hash"))
			continue
		}
		key := strings.ToLower(row.Hash)
		if _, dup := seen[key]; dup && !tokenTransfers {
			skipped = append(skipped, entities.Skip(entities.SkipTransaction, row.Hash, "duplicate hash"))
			continue
		}
		seen[key] = struct{}{}
		txs = append(txs, NormalizeTx(row, nativeSymbol))
	}
	return txs, skipped
}

// NormalizeTx maps one explorer row onto a Transaction
func NormalizeTx(row RawTx, nativeSymbol string) entities.Transaction {
	tx := entities.Transaction{
		Hash:     row.Hash,
		From:     strings.ToLower(row.From),
		To:       strings.ToLower(row.To),
		Asset:    nativeSymbol,
		RawValue: row.Value,
		Status:   txStatus(row),
		GasUsed:  row.GasUsed,
		GasPrice: row.GasPrice,
		Source:   entities.TxSourceExplorer,
		Category: "external",
	}
	if row.TokenSymbol != "" {
		tx.Asset = row.TokenSymbol
		tx.Category = "erc20"
	}
	if tx.RawValue == "" {
		tx.RawValue = "0"
	}
	if ts, err := strconv.ParseInt(row.TimeStamp, 10, 64); err == nil && ts > 0 {
		tx.Timestamp = &ts
	}
	if n, err := strconv.ParseUint(row.BlockNumber, 10, 64); err == nil {
		tx.BlockNumber = n
	}
	return tx
}

// txStatus reads txreceipt_status, falling back to isError for rows that
// predate receipts or come from tokentx
func txStatus(row RawTx) entities.TxStatus {
	switch row.TxReceiptStatus {
	case "1":
		return entities.TxSuccess
	case "0":
		return entities.TxFailed
	}
	if row.IsError == "1" {
		return entities.TxFailed
	}
	return entities.TxSuccess
}

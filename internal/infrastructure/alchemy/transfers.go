package alchemy

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bimakw/wallet-aggregator/internal/domain/entities"
	"github.com/bimakw/wallet-aggregator/internal/domain/units"
)

// TransferCategories are the asset classes requested from the indexer
var TransferCategories = []string{"external", "erc20", "erc721", "erc1155"}

// RawTransfer is one asset transfer from alchemy_getAssetTransfers
type RawTransfer struct {
	Hash        string   `json:"hash"`
	From        string   `json:"from"`
	To          string   `json:"to"`
	Value       *float64 `json:"value"`
	Asset       *string  `json:"asset"`
	Category    string   `json:"category"`
	BlockNum    string   `json:"blockNum"`
	RawContract *struct {
		Value   *string `json:"value"`
		Address *string `json:"address"`
	} `json:"rawContract"`
	Metadata *struct {
		BlockTimestamp string `json:"blockTimestamp"`
	} `json:"metadata"`
}

type assetTransfersParams struct {
	FromBlock        string   `json:"fromBlock"`
	ToBlock          string   `json:"toBlock"`
	FromAddress      string   `json:"fromAddress"`
	MaxCount         string   `json:"maxCount"`
	ExcludeZeroValue bool     `json:"excludeZeroValue"`
	Category         []string `json:"category"`
	WithMetadata     bool     `json:"withMetadata"`
	Order            string   `json:"order"`
}

type assetTransfersResult struct {
	Transfers []RawTransfer `json:"transfers"`
	PageKey   string        `json:"pageKey"`
}

// Transactions returns the most recent outgoing transfers of address
func (c *Client) Transactions(ctx context.Context, address string, page int) (*entities.TransactionPage, error) {
	maxCount := c.config.TxMaxCount
	if maxCount <= 0 {
		maxCount = 50
	}

	params := assetTransfersParams{
		FromBlock:        "0x0",
		ToBlock:          "latest",
		FromAddress:      address,
		MaxCount:         fmt.Sprintf("0x%x", maxCount),
		ExcludeZeroValue: false,
		Category:         TransferCategories,
		WithMetadata:     true,
		Order:            "desc",
	}

	var result assetTransfersResult
	if err := c.call(ctx, "alchemy_getAssetTransfers", []interface{}{params}, &result); err != nil {
		return nil, fmt.Errorf("failed to get asset transfers: %w", err)
	}

	txs, skipped := NormalizeTransfers(result.Transfers, c.nativeSymbol)

	c.logger.Debug("Fetched asset transfers",
		zap.String("address", address),
		zap.Int("transfers", len(txs)),
		zap.Int("skipped", len(skipped)),
	)

	return &entities.TransactionPage{
		Transactions: txs,
		Skipped:      skipped,
		Source:       entities.TxSourceIndexer,
		Page:         1,
		HasMore:      result.PageKey != "",
	}, nil
}

// Name returns the upstream name
func (c *Client) Name() string {
	return Source
}

// NormalizeTransfers normalizes a transfer list, dropping entries without a
// hash and repeated hashes
func NormalizeTransfers(raws []RawTransfer, nativeSymbol string) ([]entities.Transaction, []entities.Skipped) {
	txs := make([]entities.Transaction, 0, len(raws))
	skipped := make([]entities.Skipped, 0)
	seen := make(map[string]struct{}, len(raws))

	for _, raw := range raws {
		tx, skip := NormalizeTransfer(raw, nativeSymbol)
		if skip != nil {
			skipped = append(skipped, *skip)
			continue
		}
		key := strings.ToLower(tx.Hash)
		if _, dup := seen[key]; dup {
			skipped = append(skipped, entities.Skip(entities.SkipTransaction, tx.Hash, "duplicate hash"))
			continue
		}
		seen[key] = struct{}{}
		txs = append(txs, tx)
	}
	return txs, skipped
}

// NormalizeTransfer maps one indexer transfer onto a Transaction
func NormalizeTransfer(raw RawTransfer, nativeSymbol string) (entities.Transaction, *entities.Skipped) {
	if raw.Hash == "" {
		skip := entities.Skip(entities.SkipTransaction, "", "missing hash")
		return entities.Transaction{}, &skip
	}

	asset := nativeSymbol
	if raw.Asset != nil && *raw.Asset != "" {
		asset = *raw.Asset
	}

	tx := entities.Transaction{
		Hash:     raw.Hash,
		From:     strings.ToLower(raw.From),
		To:       strings.ToLower(raw.To),
		Asset:    asset,
		RawValue: transferValue(raw),
		Status:   entities.TxSuccess,
		Category: raw.Category,
		Source:   entities.TxSourceIndexer,
	}

	if n, ok := units.ParseRaw(raw.BlockNum); ok && n.IsUint64() {
		tx.BlockNumber = n.Uint64()
	}

	if raw.Metadata != nil && raw.Metadata.BlockTimestamp != "" {
		if ts, err := time.Parse(time.RFC3339, raw.Metadata.BlockTimestamp); err == nil {
			unix := ts.Unix()
			tx.Timestamp = &unix
		}
	}

	return tx, nil
}

// transferValue returns the raw integer amount. The indexer's float value is
// already scaled by decimals, so transfers without a raw amount report zero.
func transferValue(raw RawTransfer) string {
	if raw.RawContract != nil && raw.RawContract.Value != nil {
		if v, ok := units.HexToDecimal(*raw.RawContract.Value); ok {
			return v
		}
	}
	return "0"
}

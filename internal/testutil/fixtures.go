package testutil

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/bimakw/wallet-aggregator/internal/domain/entities"
)

// Common test addresses
const (
	USDTAddress  = "0xc2132d05d31c914a87c6611c10748aeb04b58e8f"
	USDCAddress  = "0x2791bca1f2de4661ed88a30c99a7a9449aa84174"
	WETHAddress  = "0x7ceb23fd6bc0add59e62ac25578270cff1b9f619"
	AliceAddress = "0x1111111111111111111111111111111111111111"
	BobAddress   = "0x2222222222222222222222222222222222222222"
	CharlieAddr  = "0x3333333333333333333333333333333333333333"
)

// CreateTestHolding creates a 1 USDC holding without a price
func CreateTestHolding(opts ...HoldingOption) entities.TokenHolding {
	h := entities.TokenHolding{
		ContractAddress: USDCAddress,
		Symbol:          "USDC",
		Name:            "USD Coin",
		RawBalance:      "1000000",
		Decimals:        6,
	}

	for _, opt := range opts {
		opt(&h)
	}

	return h
}

// CreateNativeHolding creates a MATIC holding with the given raw balance
func CreateNativeHolding(raw string) entities.TokenHolding {
	return CreateTestHolding(
		WithContract(entities.NativeAddress),
		WithSymbol("MATIC"),
		WithName("Polygon"),
		WithDecimals(18),
		WithRawBalance(raw),
	)
}

type HoldingOption func(*entities.TokenHolding)

func WithContract(address string) HoldingOption {
	return func(h *entities.TokenHolding) {
		h.ContractAddress = address
	}
}

func WithSymbol(symbol string) HoldingOption {
	return func(h *entities.TokenHolding) {
		h.Symbol = symbol
	}
}

func WithName(name string) HoldingOption {
	return func(h *entities.TokenHolding) {
		h.Name = name
	}
}

func WithRawBalance(raw string) HoldingOption {
	return func(h *entities.TokenHolding) {
		h.RawBalance = raw
	}
}

func WithDecimals(decimals int) HoldingOption {
	return func(h *entities.TokenHolding) {
		h.Decimals = decimals
	}
}

func WithPrice(price float64) HoldingOption {
	return func(h *entities.TokenHolding) {
		p := price
		h.PriceUSD = &p
	}
}

var txCounter atomic.Int64

// CreateTestTransaction creates a successful transfer from Alice to Bob with
// a unique hash
func CreateTestTransaction(opts ...TransactionOption) entities.Transaction {
	n := txCounter.Add(1)
	ts := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC).Unix()
	tx := entities.Transaction{
		Hash:        fmt.Sprintf("0x%064x", n),
		From:        AliceAddress,
		To:          BobAddress,
		Asset:       "MATIC",
		RawValue:    "1000000000000000000",
		Timestamp:   &ts,
		Status:      entities.TxSuccess,
		BlockNumber: 12345678,
		Category:    "external",
		Source:      entities.TxSourceIndexer,
	}

	for _, opt := range opts {
		opt(&tx)
	}

	return tx
}

type TransactionOption func(*entities.Transaction)

func WithHash(hash string) TransactionOption {
	return func(tx *entities.Transaction) {
		tx.Hash = hash
	}
}

func WithTimestamp(t time.Time) TransactionOption {
	return func(tx *entities.Transaction) {
		ts := t.Unix()
		tx.Timestamp = &ts
	}
}

func WithoutTimestamp() TransactionOption {
	return func(tx *entities.Transaction) {
		tx.Timestamp = nil
	}
}

func WithTxSource(source entities.TxSource) TransactionOption {
	return func(tx *entities.Transaction) {
		tx.Source = source
	}
}

// CreateTestNFT creates an ERC721 item
func CreateTestNFT(contract, tokenID string) entities.NFTItem {
	return entities.NFTItem{
		ContractAddress: contract,
		TokenID:         tokenID,
		Title:           "#" + tokenID,
		CollectionName:  "Test Collection",
		TokenStandard:   "ERC721",
	}
}

// CreateLendingPosition creates an Aave-style position with net value
// collateral minus debt
func CreateLendingPosition(collateral, debt, healthFactor float64) entities.DefiPosition {
	return entities.DefiPosition{
		Protocol:    "Aave V3",
		Kind:        entities.PositionLending,
		Logo:        "🦇",
		NetValueUSD: collateral - debt,
		Lending: &entities.LendingPosition{
			TotalCollateralUSD:   collateral,
			TotalDebtUSD:         debt,
			HealthFactor:         healthFactor,
			LTV:                  0.75,
			LiquidationThreshold: 0.8,
		},
	}
}

// CreateLiquidityPosition creates a QuickSwap-style position over pairs
func CreateLiquidityPosition(pairs ...string) entities.DefiPosition {
	return entities.DefiPosition{
		Protocol: "QuickSwap",
		Kind:     entities.PositionLiquidity,
		Logo:     "🦎",
		Liquidity: &entities.LiquidityPosition{
			Pairs:         pairs,
			PositionCount: len(pairs),
		},
	}
}

// CreateTransactionPage wraps txs in a single page from source
func CreateTransactionPage(source entities.TxSource, page int, hasMore bool, txs ...entities.Transaction) *entities.TransactionPage {
	if txs == nil {
		txs = []entities.Transaction{}
	}
	return &entities.TransactionPage{
		Transactions: txs,
		Source:       source,
		Page:         page,
		HasMore:      hasMore,
	}
}

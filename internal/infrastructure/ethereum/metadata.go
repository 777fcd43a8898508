/*
 * Copyright (c) 2024 Bima Kharisma Wicaksana
 * GitHub: https://github.com/bimakw
 *
 * Licensed under MIT License with Attribution Requirement.
 * See LICENSE file for details.
 */

package ethereum

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bimakw/wallet-aggregator/internal/domain/entities"
)

// ERC20Reader reads ERC-20 balances and metadata via eth_call
type ERC20Reader struct {
	caller ContractCaller
	logger *zap.Logger
}

// NewERC20Reader creates a new ERC-20 reader
func NewERC20Reader(caller ContractCaller, logger *zap.Logger) *ERC20Reader {
	return &ERC20Reader{
		caller: caller,
		logger: logger,
	}
}

// ERC-20 function selectors (first 4 bytes of keccak256 hash)
var (
	// name() -> 0x06fdde03
	nameSig = common.FromHex("0x06fdde03")
	// symbol() -> 0x95d89b41
	symbolSig = common.FromHex("0x95d89b41")
	// decimals() -> 0x313ce567
	decimalsSig = common.FromHex("0x313ce567")
	// balanceOf(address) -> 0x70a08231
	balanceOfSig = common.FromHex("0x70a08231")
)

// ReadToken reads balance, decimals, symbol and name of one token for owner.
// The four calls run together; balance, decimals and symbol are required,
// a missing name falls back to the symbol.
func (r *ERC20Reader) ReadToken(ctx context.Context, contract, owner string) (*entities.TokenHolding, error) {
	if r.caller == nil {
		return nil, entities.NewConfigError(SourceRPC, "RPC endpoint not configured")
	}

	token := common.HexToAddress(contract)
	holder := common.HexToAddress(owner)

	var (
		balance  *big.Int
		decimals uint8
		symbol   string
		name     string
		nameErr  error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		balance, err = r.fetchBalance(gctx, token, holder)
		return err
	})
	g.Go(func() error {
		var err error
		decimals, err = r.fetchDecimals(gctx, token)
		return err
	})
	g.Go(func() error {
		var err error
		symbol, err = r.fetchSymbol(gctx, token)
		return err
	})
	g.Go(func() error {
		name, nameErr = r.fetchName(gctx, token)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to read token %s: %w", contract, err)
	}

	if nameErr != nil || name == "" {
		r.logger.Debug("Token name unavailable, using symbol",
			zap.String("token", contract),
			zap.Error(nameErr),
		)
		name = symbol
	}

	return &entities.TokenHolding{
		ContractAddress: strings.ToLower(contract),
		Symbol:          symbol,
		Name:            name,
		RawBalance:      balance.String(),
		Decimals:        int(decimals),
	}, nil
}

// fetchBalance fetches balanceOf(owner) via eth_call
func (r *ERC20Reader) fetchBalance(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	data := append(append([]byte{}, balanceOfSig...), common.LeftPadBytes(owner.Bytes(), 32)...)
	result, err := r.caller.CallContract(ctx, token, data)
	if err != nil {
		return nil, err
	}
	if len(result) < 32 {
		return nil, entities.NewValidationError(SourceRPC, fmt.Sprintf("invalid balanceOf response length: %d", len(result)))
	}
	return new(big.Int).SetBytes(result[:32]), nil
}

// fetchName fetches token name via eth_call
func (r *ERC20Reader) fetchName(ctx context.Context, addr common.Address) (string, error) {
	result, err := r.caller.CallContract(ctx, addr, nameSig)
	if err != nil {
		return "", err
	}
	return decodeStringOrBytes32(result)
}

// fetchSymbol fetches token symbol via eth_call
func (r *ERC20Reader) fetchSymbol(ctx context.Context, addr common.Address) (string, error) {
	result, err := r.caller.CallContract(ctx, addr, symbolSig)
	if err != nil {
		return "", err
	}
	symbol, err := decodeStringOrBytes32(result)
	if err != nil {
		return "", entities.NewValidationError(SourceRPC, fmt.Sprintf("undecodable symbol: %v", err))
	}
	if symbol == "" {
		return "", entities.NewValidationError(SourceRPC, "empty symbol")
	}
	return symbol, nil
}

// fetchDecimals fetches token decimals via eth_call
func (r *ERC20Reader) fetchDecimals(ctx context.Context, addr common.Address) (uint8, error) {
	result, err := r.caller.CallContract(ctx, addr, decimalsSig)
	if err != nil {
		return 0, err
	}

	// Decimals returns uint8, but padded to 32 bytes
	if len(result) < 32 {
		return 0, entities.NewValidationError(SourceRPC, fmt.Sprintf("invalid decimals response length: %d", len(result)))
	}

	// Take the last byte for uint8
	return result[31], nil
}

// decodeStringOrBytes32 decodes a response that could be either:
// 1. ABI-encoded string: offset (32 bytes) + length (32 bytes) + data (padded to 32 bytes)
// 2. bytes32: raw 32 bytes (e.g., MKR token)
func decodeStringOrBytes32(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty data")
	}

	if len(data) < 32 {
		return "", fmt.Errorf("data too short: %d bytes", len(data))
	}

	// An ABI string starts with an offset of 0x20
	if len(data) >= 64 {
		offset := new(big.Int).SetBytes(data[:32])
		if offset.Uint64() == 32 {
			length := new(big.Int).SetBytes(data[32:64])
			strLen := int(length.Uint64())

			if strLen == 0 {
				return "", nil
			}

			if len(data) >= 64+strLen {
				strData := data[64 : 64+strLen]
				return strings.TrimRight(string(strData), "\x00"), nil
			}
		}
	}

	result := bytes.TrimRight(data[:32], "\x00")
	if isPrintableASCII(result) {
		return string(result), nil
	}

	return "0x" + hex.EncodeToString(data[:32]), nil
}

// isPrintableASCII checks if all bytes are printable ASCII characters
func isPrintableASCII(data []byte) bool {
	for _, b := range data {
		if b < 32 || b > 126 {
			return false
		}
	}
	return len(data) > 0
}

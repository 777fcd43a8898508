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
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/bimakw/wallet-aggregator/internal/domain/entities"
	"github.com/bimakw/wallet-aggregator/internal/testutil"
)

func TestDecodeStringOrBytes32(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
		wantErr  bool
	}{
		{
			name: "ABI-encoded string - USDT",
			input: func() []byte {
				// offset = 32 (0x20)
				// length = 10 ("TetherUSD" is 9 chars, but let's use "Tether USD" = 10)
				// data = "Tether USD"
				data, _ := hex.DecodeString(
					"0000000000000000000000000000000000000000000000000000000000000020" + // offset = 32
						"000000000000000000000000000000000000000000000000000000000000000a" + // length = 10
						"5465746865722055534400000000000000000000000000000000000000000000", // "Tether USD" padded
				)
				return data
			}(),
			expected: "Tether USD",
			wantErr:  false,
		},
		{
			name: "ABI-encoded string - USDC",
			input: func() []byte {
				// "USD Coin" = 8 chars
				data, _ := hex.DecodeString(
					"0000000000000000000000000000000000000000000000000000000000000020" + // offset = 32
						"0000000000000000000000000000000000000000000000000000000000000008" + // length = 8
						"55534420436f696e000000000000000000000000000000000000000000000000", // "USD Coin" padded
				)
				return data
			}(),
			expected: "USD Coin",
			wantErr:  false,
		},
		{
			name: "bytes32 - MKR style",
			input: func() []byte {
				// MKR returns "Maker" as bytes32 (not ABI-encoded string)
				data, _ := hex.DecodeString(
					"4d616b6572000000000000000000000000000000000000000000000000000000", // "Maker" as bytes32
				)
				return data
			}(),
			expected: "Maker",
			wantErr:  false,
		},
		{
			name: "bytes32 - DAI style",
			input: func() []byte {
				// "Dai" as bytes32
				data, _ := hex.DecodeString(
					"4461690000000000000000000000000000000000000000000000000000000000", // "Dai" as bytes32
				)
				return data
			}(),
			expected: "Dai",
			wantErr:  false,
		},
		{
			name: "short symbol - ETH",
			input: func() []byte {
				// "ETH" as bytes32
				data, _ := hex.DecodeString(
					"4554480000000000000000000000000000000000000000000000000000000000", // "ETH"
				)
				return data
			}(),
			expected: "ETH",
			wantErr:  false,
		},
		{
			name: "ABI-encoded empty string",
			input: func() []byte {
				data, _ := hex.DecodeString(
					"0000000000000000000000000000000000000000000000000000000000000020" + // offset = 32
						"0000000000000000000000000000000000000000000000000000000000000000", // length = 0
				)
				return data
			}(),
			expected: "",
			wantErr:  false,
		},
		{
			name:     "empty input",
			input:    []byte{},
			expected: "",
			wantErr:  true,
		},
		{
			name:     "short input (less than 32 bytes)",
			input:    []byte{0x01, 0x02, 0x03},
			expected: "",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := decodeStringOrBytes32(tt.input)

			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error but got nil")
				}
				return
			}

			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}

			if result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestIsPrintableASCII(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected bool
	}{
		{
			name:     "printable ASCII - letters",
			input:    []byte("Hello"),
			expected: true,
		},
		{
			name:     "printable ASCII - with numbers",
			input:    []byte("Token123"),
			expected: true,
		},
		{
			name:     "printable ASCII - with symbols",
			input:    []byte("USD-T_v2"),
			expected: true,
		},
		{
			name:     "contains null byte",
			input:    []byte("Test\x00Name"),
			expected: false,
		},
		{
			name:     "contains control character",
			input:    []byte("Test\x1FName"),
			expected: false,
		},
		{
			name:     "contains DEL character",
			input:    []byte("Test\x7FName"),
			expected: false,
		},
		{
			name:     "empty input",
			input:    []byte{},
			expected: false,
		},
		{
			name:     "high ASCII (non-printable)",
			input:    []byte{0x80, 0x81},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := isPrintableASCII(tt.input)
			if result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestFunctionSelectors(t *testing.T) {
	// Verify that our function selectors are correct
	// These are the first 4 bytes of keccak256 hash of function signatures

	tests := []struct {
		name     string
		selector []byte
		expected string
	}{
		{
			name:     "name()",
			selector: nameSig,
			expected: "06fdde03",
		},
		{
			name:     "symbol()",
			selector: symbolSig,
			expected: "95d89b41",
		},
		{
			name:     "decimals()",
			selector: decimalsSig,
			expected: "313ce567",
		},
		{
			name:     "balanceOf(address)",
			selector: balanceOfSig,
			expected: "70a08231",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := hex.EncodeToString(tt.selector)
			if result != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, result)
			}
		})
	}
}

func encodeUint(n int64) []byte {
	return common.LeftPadBytes(big.NewInt(n).Bytes(), 32)
}

func encodeString(s string) []byte {
	out := encodeUint(32)
	out = append(out, encodeUint(int64(len(s)))...)
	return append(out, common.RightPadBytes([]byte(s), 32)...)
}

// tokenCaller answers ERC-20 reads for a single fake token
func tokenCaller(balance int64, decimals int64, symbol, name string, failing []byte) *testutil.MockContractCaller {
	caller := testutil.NewMockContractCaller()
	caller.CallContractFunc = func(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
		selector := data[:4]
		if failing != nil && bytes.Equal(selector, failing) {
			return nil, entities.NewNetworkError(SourceRPC, "connection failed", errors.New("boom"))
		}
		switch {
		case bytes.Equal(selector, balanceOfSig):
			return encodeUint(balance), nil
		case bytes.Equal(selector, decimalsSig):
			return encodeUint(decimals), nil
		case bytes.Equal(selector, symbolSig):
			return encodeString(symbol), nil
		case bytes.Equal(selector, nameSig):
			return encodeString(name), nil
		}
		return nil, errors.New("unexpected selector")
	}
	return caller
}

func TestERC20Reader_ReadToken(t *testing.T) {
	owner := testutil.AliceAddress
	token := testutil.USDCAddress

	t.Run("reads all fields", func(t *testing.T) {
		caller := tokenCaller(2500000, 6, "USDC", "USD Coin", nil)
		reader := NewERC20Reader(caller, zap.NewNop())

		holding, err := reader.ReadToken(context.Background(), token, owner)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if holding.Symbol != "USDC" || holding.Name != "USD Coin" {
			t.Errorf("unexpected metadata: %+v", holding)
		}
		if holding.Decimals != 6 {
			t.Errorf("expected 6 decimals, got %d", holding.Decimals)
		}
		if holding.RawBalance != "2500000" {
			t.Errorf("expected raw balance 2500000, got %s", holding.RawBalance)
		}
		if holding.ContractAddress != token {
			t.Errorf("expected contract %s, got %s", token, holding.ContractAddress)
		}
	})

	t.Run("encodes owner in balanceOf call", func(t *testing.T) {
		caller := tokenCaller(1, 18, "X", "X", nil)
		reader := NewERC20Reader(caller, zap.NewNop())

		if _, err := reader.ReadToken(context.Background(), token, owner); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		found := false
		for _, call := range caller.Calls {
			data := call.Args[1].([]byte)
			if bytes.Equal(data[:4], balanceOfSig) {
				found = true
				if !bytes.Equal(data[4:], common.LeftPadBytes(common.HexToAddress(owner).Bytes(), 32)) {
					t.Errorf("owner not encoded in balanceOf call: %x", data)
				}
			}
		}
		if !found {
			t.Error("expected a balanceOf call")
		}
	})

	t.Run("name falls back to symbol", func(t *testing.T) {
		caller := tokenCaller(1, 18, "WETH", "", nameSig)
		reader := NewERC20Reader(caller, zap.NewNop())

		holding, err := reader.ReadToken(context.Background(), token, owner)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if holding.Name != "WETH" {
			t.Errorf("expected name fallback WETH, got %s", holding.Name)
		}
	})

	t.Run("fails when balance read fails", func(t *testing.T) {
		caller := tokenCaller(1, 18, "WETH", "Wrapped Ether", balanceOfSig)
		reader := NewERC20Reader(caller, zap.NewNop())

		if _, err := reader.ReadToken(context.Background(), token, owner); err == nil {
			t.Error("expected error when balanceOf fails")
		}
	})

	t.Run("fails when decimals read fails", func(t *testing.T) {
		caller := tokenCaller(1, 18, "WETH", "Wrapped Ether", decimalsSig)
		reader := NewERC20Reader(caller, zap.NewNop())

		_, err := reader.ReadToken(context.Background(), token, owner)
		if !entities.IsKind(err, entities.NetworkError) {
			t.Errorf("expected NetworkError, got %v", err)
		}
	})

	t.Run("nil caller is a config error", func(t *testing.T) {
		reader := NewERC20Reader(nil, zap.NewNop())
		_, err := reader.ReadToken(context.Background(), token, owner)
		if !entities.IsKind(err, entities.ConfigError) {
			t.Errorf("expected ConfigError, got %v", err)
		}
	})
}

// Package units converts fixed-point on-chain amounts into human quantities
// and display strings.
package units

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultDisplayDecimals is the fraction length used for balances
const DefaultDisplayDecimals = 4

// ParseRaw parses an unsigned integer amount given in decimal or 0x-prefixed hex.
// Negative or malformed input is rejected.
func ParseRaw(raw string) (*big.Int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, false
	}

	base := 10
	if strings.HasPrefix(raw, "0x") || strings.HasPrefix(raw, "0X") {
		raw = raw[2:]
		base = 16
		if raw == "" {
			return new(big.Int), true
		}
	}

	v, ok := new(big.Int).SetString(raw, base)
	if !ok || v.Sign() < 0 {
		return nil, false
	}
	return v, true
}

// IsPositiveRaw reports whether raw parses to an integer greater than zero
func IsPositiveRaw(raw string) bool {
	v, ok := ParseRaw(raw)
	return ok && v.Sign() > 0
}

// HexToDecimal converts a 0x-prefixed quantity into a decimal string
func HexToDecimal(hex string) (string, bool) {
	v, ok := ParseRaw(hex)
	if !ok {
		return "", false
	}
	return v.String(), true
}

// ToQuantity scales a raw balance by 10^-decimals. Malformed input yields zero.
func ToQuantity(raw string, decimals int) decimal.Decimal {
	v, ok := ParseRaw(raw)
	if !ok {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(v, -int32(decimals))
}

// FormatTokenBalance renders a raw balance with at most displayDecimals
// fraction digits. The fraction is truncated, not rounded, and trailing zeros
// are trimmed. A negative displayDecimals is treated as zero.
func FormatTokenBalance(raw string, decimals, displayDecimals int) string {
	if displayDecimals < 0 {
		displayDecimals = 0
	}
	v, ok := ParseRaw(raw)
	if !ok || v.Sign() == 0 {
		return "0"
	}
	if decimals <= 0 {
		return v.String()
	}

	divisor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	whole, frac := new(big.Int).QuoRem(v, divisor, new(big.Int))
	if frac.Sign() == 0 {
		return whole.String()
	}

	fracStr := frac.String()
	if len(fracStr) < decimals {
		fracStr = strings.Repeat("0", decimals-len(fracStr)) + fracStr
	}
	if displayDecimals < len(fracStr) {
		fracStr = fracStr[:displayDecimals]
	}
	fracStr = strings.TrimRight(fracStr, "0")

	if fracStr == "" {
		return whole.String()
	}
	return whole.String() + "." + fracStr
}

// ShortAddress abbreviates an address to its first 6 and last 4 characters
func ShortAddress(address string) string {
	if len(address) < 10 {
		return address
	}
	return address[:6] + "..." + address[len(address)-4:]
}

// FormatPrice renders a USD price; sub-cent prices keep 6 decimals
func FormatPrice(price float64) string {
	if price == 0 {
		return "N/A"
	}
	if price < 0.01 {
		return fmt.Sprintf("$%.6f", price)
	}
	return fmt.Sprintf("$%.2f", price)
}

// FormatGasFee renders gasUsed*gasPrice as a native amount with 6 decimals
func FormatGasFee(gasUsed, gasPrice, symbol string) string {
	used, ok := ParseRaw(gasUsed)
	if !ok {
		return ""
	}
	price, ok := ParseRaw(gasPrice)
	if !ok {
		return ""
	}
	fee := decimal.NewFromBigInt(new(big.Int).Mul(used, price), -18)
	return fee.StringFixed(6) + " " + symbol
}

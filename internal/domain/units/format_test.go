package units

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestFormatTokenBalance(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		decimals int
		display  int
		expected string
	}{
		{name: "one and a half", raw: "1500000000000000000", decimals: 18, display: 4, expected: "1.5"},
		{name: "zero", raw: "0", decimals: 18, display: 4, expected: "0"},
		{name: "empty", raw: "", decimals: 18, display: 4, expected: "0"},
		{name: "whole number", raw: "2000000", decimals: 6, display: 4, expected: "2"},
		{name: "truncates not rounds", raw: "1999999", decimals: 6, display: 4, expected: "1.9999"},
		{name: "leading fraction zeros", raw: "1000000000000001", decimals: 18, display: 4, expected: "0.001"},
		{name: "small fraction", raw: "500000000000000", decimals: 18, display: 4, expected: "0.0005"},
		{name: "zero decimals", raw: "42", decimals: 0, display: 4, expected: "42"},
		{name: "hex input", raw: "0x14d1120d7b160000", decimals: 18, display: 4, expected: "1.5"},
		{name: "malformed", raw: "abc", decimals: 18, display: 4, expected: "0"},
		{name: "negative", raw: "-5", decimals: 0, display: 4, expected: "0"},
		{name: "negative display clamps to whole", raw: "1500000000000000000", decimals: 18, display: -1, expected: "1"},
		{name: "large balance", raw: "123456789000000000000000000", decimals: 18, display: 2, expected: "123456789"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatTokenBalance(tt.raw, tt.decimals, tt.display)
			if got != tt.expected {
				t.Errorf("FormatTokenBalance(%q, %d, %d) = %q, expected %q", tt.raw, tt.decimals, tt.display, got, tt.expected)
			}
		})
	}
}

func TestFormatTokenBalance_Idempotent(t *testing.T) {
	inputs := []struct {
		raw      string
		decimals int
	}{
		{"1500000000000000000", 18},
		{"1999999", 6},
		{"123456789012345678901", 18},
		{"7", 3},
	}

	for _, in := range inputs {
		first := FormatTokenBalance(in.raw, in.decimals, DefaultDisplayDecimals)

		// Re-read the output at display precision and format again.
		q, err := decimal.NewFromString(first)
		if err != nil {
			t.Fatalf("output %q is not a decimal: %v", first, err)
		}
		raw := q.Shift(DefaultDisplayDecimals).BigInt().String()
		second := FormatTokenBalance(raw, DefaultDisplayDecimals, DefaultDisplayDecimals)

		if first != second {
			t.Errorf("not idempotent for %s/%d: %q then %q", in.raw, in.decimals, first, second)
		}
	}
}

func TestToQuantity(t *testing.T) {
	q := ToQuantity("1500000", 6)
	if !q.Equal(decimal.RequireFromString("1.5")) {
		t.Errorf("expected 1.5, got %s", q)
	}

	if !ToQuantity("garbage", 18).IsZero() {
		t.Error("expected zero for malformed input")
	}
}

func TestIsPositiveRaw(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"0x0", false},
		{"0x0000000000000000", false},
		{"0x01", true},
		{"0", false},
		{"1", true},
		{"", false},
		{"0x", false},
		{"not-a-number", false},
		{"0xffffffffffffffffff", true},
	}
	for _, tt := range tests {
		if got := IsPositiveRaw(tt.input); got != tt.expected {
			t.Errorf("IsPositiveRaw(%q) = %v, expected %v", tt.input, got, tt.expected)
		}
	}
}

func TestShortAddress(t *testing.T) {
	got := ShortAddress("0x1234567890abcdef1234567890abcdef12345678")
	if got != "0x1234...5678" {
		t.Errorf("unexpected short address: %s", got)
	}
	if ShortAddress("0x12") != "0x12" {
		t.Error("expected short input unchanged")
	}
}

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		price    float64
		expected string
	}{
		{0, "N/A"},
		{0.001234, "$0.001234"},
		{1.5, "$1.50"},
		{1234.567, "$1234.57"},
	}
	for _, tt := range tests {
		if got := FormatPrice(tt.price); got != tt.expected {
			t.Errorf("FormatPrice(%v) = %q, expected %q", tt.price, got, tt.expected)
		}
	}
}

func TestFormatGasFee(t *testing.T) {
	// 21000 gas at 30 gwei
	got := FormatGasFee("21000", "30000000000", "MATIC")
	if got != "0.000630 MATIC" {
		t.Errorf("unexpected fee: %s", got)
	}
	if FormatGasFee("", "1", "MATIC") != "" {
		t.Error("expected empty fee for missing gas used")
	}
}

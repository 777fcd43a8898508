package entities

import (
	"strings"
	"testing"
)

func TestIsValidAddress(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{name: "lowercase", input: "0x1234567890abcdef1234567890abcdef12345678", expected: true},
		{name: "uppercase hex", input: "0xABCDEF1234567890ABCDEF1234567890ABCDEF12", expected: true},
		{name: "mixed case checksum", input: "0x794a61358D6845594F94dc1DB02A252b5b4814aD", expected: true},
		{name: "too short", input: "0x123", expected: false},
		{name: "too long", input: "0x1234567890abcdef1234567890abcdef123456789", expected: false},
		{name: "missing prefix", input: "1234567890abcdef1234567890abcdef12345678", expected: false},
		{name: "non-hex char", input: "0x1234567890abcdef1234567890abcdef1234567g", expected: false},
		{name: "empty", input: "", expected: false},
		{name: "uppercase prefix", input: "0X1234567890abcdef1234567890abcdef12345678", expected: false},
		{name: "surrounding space", input: " 0x1234567890abcdef1234567890abcdef12345678", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidAddress(tt.input); got != tt.expected {
				t.Errorf("IsValidAddress(%q) = %v, expected %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestValidateAddress(t *testing.T) {
	t.Run("returns validation error for malformed address", func(t *testing.T) {
		err := ValidateAddress("not-an-address")
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if !IsKind(err, ValidationError) {
			t.Errorf("expected ValidationError, got %s", KindOf(err))
		}
	})

	t.Run("accepts any case", func(t *testing.T) {
		addr := "0x" + strings.Repeat("aB", 20)
		if err := ValidateAddress(addr); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestSameAddress(t *testing.T) {
	a := "0x794a61358D6845594F94dc1DB02A252b5b4814aD"
	if !SameAddress(a, strings.ToLower(a)) {
		t.Error("expected addresses to compare equal ignoring case")
	}
	if NormalizeAddress(a) != strings.ToLower(a) {
		t.Errorf("expected lowercase form, got %s", NormalizeAddress(a))
	}
}

package entities

import (
	"regexp"
	"strings"
)

// NativeAddress is the contract address placeholder for the chain's native coin
const NativeAddress = "native"

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// IsValidAddress reports whether s is a 0x-prefixed 40 hex character address.
// Checksum casing is ignored.
func IsValidAddress(s string) bool {
	return addressPattern.MatchString(s)
}

// ValidateAddress returns a ValidationError for malformed addresses
func ValidateAddress(s string) error {
	if !IsValidAddress(s) {
		return NewValidationError("address", "invalid wallet address format")
	}
	return nil
}

// NormalizeAddress returns the canonical lowercase form used for equality
func NormalizeAddress(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// SameAddress compares two addresses case-insensitively
func SameAddress(a, b string) bool {
	return strings.EqualFold(a, b)
}

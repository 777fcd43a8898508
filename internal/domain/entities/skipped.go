package entities

// SkipKind names the kind of record that was dropped
type SkipKind string

const (
	SkipToken       SkipKind = "token"
	SkipNFT         SkipKind = "nft"
	SkipTransaction SkipKind = "transaction"
	SkipPosition    SkipKind = "position"
)

// Skipped records a record dropped during normalization and the reason.
// Normalizers return either a value or a Skipped, never both.
type Skipped struct {
	Kind   SkipKind `json:"kind"`
	Key    string   `json:"key,omitempty"`
	Reason string   `json:"reason"`
}

// Skip builds a Skipped entry
func Skip(kind SkipKind, key, reason string) Skipped {
	return Skipped{Kind: kind, Key: key, Reason: reason}
}

package entities

import "strings"

// NFTItem represents a single non-fungible token owned by a wallet
type NFTItem struct {
	ContractAddress string `json:"contract_address"`
	TokenID         string `json:"token_id"`
	Title           string `json:"title"`
	Description     string `json:"description,omitempty"`
	ImageURI        string `json:"image_uri,omitempty"`
	CollectionName  string `json:"collection_name"`
	TokenStandard   string `json:"token_standard"`
}

// Key returns the identity of the item within a single fetch
func (n NFTItem) Key() string {
	return strings.ToLower(n.ContractAddress) + ":" + n.TokenID
}

// NFTPage is one page of NFTs from the indexer
type NFTPage struct {
	Items       []NFTItem `json:"items"`
	Skipped     []Skipped `json:"skipped,omitempty"`
	NextPageKey string    `json:"next_page_key,omitempty"`
	TotalCount  int       `json:"total_count"`
}

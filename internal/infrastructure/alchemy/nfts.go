package alchemy

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/bimakw/wallet-aggregator/internal/domain/entities"
)

const (
	maxNFTPageSize       = 100
	unknownTokenID       = "unknown"
	unknownCollection    = "Unknown Collection"
	defaultTokenStandard = "ERC721"
)

// RawNFT is an owned NFT as returned by getNFTs. Field names vary across API
// versions; NormalizeNFT resolves them.
type RawNFT struct {
	Contract *struct {
		Address string `json:"address"`
		Name    string `json:"name"`
	} `json:"contract"`
	ContractAddress string `json:"contractAddress"`
	ID              *struct {
		TokenID       string `json:"tokenId"`
		TokenMetadata *struct {
			TokenType string `json:"tokenType"`
		} `json:"tokenMetadata"`
	} `json:"id"`
	TokenID      string      `json:"tokenId"`
	TokenIDSnake string      `json:"token_id"`
	Title        string      `json:"title"`
	Description  interface{} `json:"description"`
	Media        []struct {
		Gateway string `json:"gateway"`
		Raw     string `json:"raw"`
	} `json:"media"`
	Image            string `json:"image"`
	CollectionName   string `json:"collectionName"`
	ContractMetadata *struct {
		Name      string `json:"name"`
		TokenType string `json:"tokenType"`
	} `json:"contractMetadata"`
	TokenType string `json:"tokenType"`
}

type nftsResponse struct {
	OwnedNFTs  []RawNFT `json:"ownedNfts"`
	PageKey    string   `json:"pageKey"`
	TotalCount int      `json:"totalCount"`
}

// NFTs returns one page of NFTs owned by address. An empty pageKey requests
// the first page.
func (c *Client) NFTs(ctx context.Context, address, pageKey string) (*entities.NFTPage, error) {
	endpoint, err := c.endpoint()
	if err != nil {
		return nil, err
	}

	pageSize := c.config.NFTPageSize
	if pageSize <= 0 || pageSize > maxNFTPageSize {
		pageSize = maxNFTPageSize
	}

	query := url.Values{}
	query.Set("owner", address)
	query.Set("pageSize", strconv.Itoa(pageSize))
	query.Set("withMetadata", "true")
	if pageKey != "" {
		query.Set("pageKey", pageKey)
	}

	var resp nftsResponse
	if err := c.http.GetJSON(ctx, endpoint+"/getNFTs", query, &resp); err != nil {
		return nil, fmt.Errorf("failed to get NFTs: %w", err)
	}

	items, skipped := NormalizeNFTs(resp.OwnedNFTs)

	c.logger.Debug("Fetched NFT page",
		zap.String("address", address),
		zap.Int("items", len(items)),
		zap.Int("skipped", len(skipped)),
		zap.Bool("has_more", resp.PageKey != ""),
	)

	return &entities.NFTPage{
		Items:       items,
		Skipped:     skipped,
		NextPageKey: resp.PageKey,
		TotalCount:  resp.TotalCount,
	}, nil
}

// NormalizeNFTs normalizes a page, dropping items without a contract and
// duplicates of an earlier contract+tokenId
func NormalizeNFTs(raws []RawNFT) ([]entities.NFTItem, []entities.Skipped) {
	items := make([]entities.NFTItem, 0, len(raws))
	skipped := make([]entities.Skipped, 0)
	seen := make(map[string]struct{}, len(raws))

	for _, raw := range raws {
		item, skip := NormalizeNFT(raw)
		if skip != nil {
			skipped = append(skipped, *skip)
			continue
		}
		key := item.Key()
		if _, dup := seen[key]; dup {
			skipped = append(skipped, entities.Skip(entities.SkipNFT, key, "duplicate token"))
			continue
		}
		seen[key] = struct{}{}
		items = append(items, item)
	}
	return items, skipped
}

// NormalizeNFT resolves the field-name fallbacks of one NFT record
func NormalizeNFT(raw RawNFT) (entities.NFTItem, *entities.Skipped) {
	tokenID := firstNonEmpty(nftIDTokenID(raw), raw.TokenID, raw.TokenIDSnake, unknownTokenID)

	contract := ""
	if raw.Contract != nil {
		contract = raw.Contract.Address
	}
	contract = firstNonEmpty(contract, raw.ContractAddress)
	if contract == "" {
		skip := entities.Skip(entities.SkipNFT, tokenID, "missing contract address")
		return entities.NFTItem{}, &skip
	}

	image := raw.Image
	if len(raw.Media) > 0 {
		image = firstNonEmpty(raw.Media[0].Gateway, raw.Media[0].Raw, raw.Image)
	}

	collection := ""
	if raw.Contract != nil {
		collection = raw.Contract.Name
	}
	standard := ""
	if raw.ID != nil && raw.ID.TokenMetadata != nil {
		standard = raw.ID.TokenMetadata.TokenType
	}
	if raw.ContractMetadata != nil {
		collection = firstNonEmpty(collection, raw.ContractMetadata.Name)
		standard = firstNonEmpty(standard, raw.ContractMetadata.TokenType)
	}

	return entities.NFTItem{
		ContractAddress: strings.ToLower(contract),
		TokenID:         tokenID,
		Title:           firstNonEmpty(raw.Title, "#"+tokenID),
		Description:     descriptionText(raw.Description),
		ImageURI:        image,
		CollectionName:  firstNonEmpty(collection, raw.CollectionName, unknownCollection),
		TokenStandard:   firstNonEmpty(standard, raw.TokenType, defaultTokenStandard),
	}, nil
}

func nftIDTokenID(raw RawNFT) string {
	if raw.ID == nil {
		return ""
	}
	return raw.ID.TokenID
}

// descriptionText accepts the string or string-list forms of description
func descriptionText(v interface{}) string {
	switch d := v.(type) {
	case string:
		return d
	case []interface{}:
		parts := make([]string, 0, len(d))
		for _, p := range d {
			if s, ok := p.(string); ok && s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "\n")
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

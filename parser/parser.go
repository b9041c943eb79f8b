// Package parser normalizes raw market search items into records.
package parser

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"steam-market-crawler/models"
)

// Placeholders used when optional fields are missing from a raw item.
const (
	UnknownName     = "unknown item"
	UnknownGameName = "unknown game"
	UnknownGameType = "unknown type"
)

type rawItem struct {
	Name             string `json:"name"`
	HashName         string `json:"hash_name"`
	AssetDescription struct {
		Game string `json:"game"`
		Type string `json:"type"`
	} `json:"asset_description"`
}

// Normalizer maps raw market items into canonical records.
type Normalizer struct {
	marketBaseURL string
	appID         int
	itemType      string
	itemSubtype   string
	now           func() time.Time
}

// NewNormalizer builds a normalizer for one crawl target.
func NewNormalizer(marketBaseURL string, appID int, itemType, itemSubtype string) *Normalizer {
	return &Normalizer{
		marketBaseURL: marketBaseURL,
		appID:         appID,
		itemType:      itemType,
		itemSubtype:   itemSubtype,
		now:           time.Now,
	}
}

// Normalize converts one raw item payload into a Record. Missing optional
// fields fall back to placeholders; only a payload that is not a keyed
// structure is rejected, and the caller skips that single item.
func (n *Normalizer) Normalize(raw json.RawMessage) (*models.Record, error) {
	var item rawItem
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, fmt.Errorf("malformed item: %w", err)
	}

	name := item.Name
	if name == "" {
		name = UnknownName
	}
	gameName := item.AssetDescription.Game
	if gameName == "" {
		gameName = UnknownGameName
	}
	gameType := item.AssetDescription.Type
	if gameType == "" {
		gameType = UnknownGameType
	}

	return &models.Record{
		MarketURL: ListingURL(n.marketBaseURL, n.appID, HashName(item.HashName, item.Name)),
		Name:      name,
		Type:      n.itemType,
		Subtype:   n.itemSubtype,
		GameName:  gameName,
		GameType:  gameType,
		FetchTime: n.now().Format(models.TimeLayout),
	}, nil
}

// HashName returns the item identity: the remote-provided market hash name
// when present, otherwise the display name with spaces replaced by
// underscores. The fallback rule is externally visible (it feeds the listing
// URL) and must not change.
func HashName(hashName, displayName string) string {
	if hashName != "" {
		return hashName
	}
	return strings.ReplaceAll(displayName, " ", "_")
}

// ListingURL builds the public market listing URL for a hash name.
func ListingURL(base string, appID int, hashName string) string {
	return fmt.Sprintf("%s%d/%s", base, appID, url.PathEscape(hashName))
}

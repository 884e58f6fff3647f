// Package metadata fetches card metadata from an IPFS gateway, falling back
// to a local JSON directory when the gateway is unreachable.
package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// rarityAddition maps an attribute rarity to the stat bonus it grants.
var rarityAddition = map[string]int{
	"Common":    0,
	"Rare":      1,
	"Epic":      3,
	"Legendary": 5,
}

type Attribute struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}

type Metadata struct {
	Name       string      `json:"name"`
	Addition   int         `json:"addition"`
	Attributes []Attribute `json:"attributes"`
}

// AdditionFromAttributes recomputes the stat bonus from the rarity of each
// attribute. Unknown rarities count as zero.
func AdditionFromAttributes(attrs []Attribute) int {
	addition := 0
	for _, a := range attrs {
		addition += rarityAddition[a.Value]
	}
	return addition
}

type Client struct {
	gateway  string
	localDir string
	http     *http.Client
	log      *zap.Logger
}

func NewClient(gateway, localDir string, log *zap.Logger) *Client {
	return &Client{
		gateway:  gateway,
		localDir: localDir,
		http:     &http.Client{Timeout: 15 * time.Second},
		log:      log,
	}
}

// Fetch loads the metadata document for one card id.
func (c *Client) Fetch(ctx context.Context, nftID string) (Metadata, error) {
	meta, err := c.fetchGateway(ctx, nftID)
	if err == nil {
		return meta, nil
	}
	c.log.Warn("gateway fetch failed, trying local file",
		zap.String("nft", nftID), zap.Error(err))

	meta, localErr := c.fetchLocal(nftID)
	if localErr != nil {
		return Metadata{}, fmt.Errorf("fetch metadata for %s: gateway: %w; local fallback: %v", nftID, err, localErr)
	}
	return meta, nil
}

func (c *Client) fetchGateway(ctx context.Context, nftID string) (Metadata, error) {
	url := fmt.Sprintf("%s/%s.json", c.gateway, nftID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Metadata{}, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Metadata{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Metadata{}, fmt.Errorf("gateway returned %s", resp.Status)
	}

	var meta Metadata
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return Metadata{}, err
	}
	return meta, nil
}

func (c *Client) fetchLocal(nftID string) (Metadata, error) {
	if c.localDir == "" {
		return Metadata{}, fmt.Errorf("no local metadata directory configured")
	}
	data, err := os.ReadFile(filepath.Join(c.localDir, nftID+".json"))
	if err != nil {
		return Metadata{}, err
	}

	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return Metadata{}, err
	}
	return meta, nil
}

package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

// Config aggregates the service configuration, loaded from the environment.
type Config struct {
	Addr           string
	ClientURL      string
	PlayersCSV     string
	IPFSGateway    string
	MetadataDir    string
	StatsRefreshAt string
}

const defaultGateway = "https://ipfs.io/ipfs/bafybeihlluxsxvi2le6kh5josgvsxtynbvwjszbgmy5wgqoxfauymrv6ni"

func Load() (Config, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "5000"
	}
	if strings.ContainsAny(port, " ") {
		return Config{}, fmt.Errorf("invalid PORT value: %q", port)
	}
	addr := port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	cfg := Config{
		Addr:           addr,
		ClientURL:      getEnvOrDefault("CLIENT_URL", "http://localhost:3000"),
		PlayersCSV:     getEnvOrDefault("PLAYERS_CSV", "data/players.csv"),
		IPFSGateway:    strings.TrimRight(getEnvOrDefault("IPFS_GATEWAY", defaultGateway), "/"),
		MetadataDir:    getEnvOrDefault("NFT_METADATA_DIR", "data/nfts"),
		StatsRefreshAt: getEnvOrDefault("STATS_REFRESH_CRON", "0 2 * * *"),
	}

	if _, err := url.Parse(cfg.ClientURL); err != nil {
		return Config{}, fmt.Errorf("invalid CLIENT_URL %q: %w", cfg.ClientURL, err)
	}
	return cfg, nil
}

// OriginPatterns derives the websocket origin allowlist from the client URL.
func (c Config) OriginPatterns() []string {
	u, err := url.Parse(c.ClientURL)
	if err != nil || u.Host == "" {
		return nil
	}
	return []string{u.Host}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config holds crawler configuration.
type Config struct {
	SearchURL     string
	MarketBaseURL string
	AppID         int
	Currency      int

	Query       string
	ItemType    string
	ItemSubtype string

	BatchSize int
	Timeout   time.Duration
	DelayMin  time.Duration
	DelayMax  time.Duration

	OutputFile     string
	CheckpointFile string
	CheckpointKey  string

	APIKey      string
	PostgresDSN string
	UserAgent   string
	MetricsAddr string
	Verbose     bool

	DedupeCacheSize int
}

// DefaultConfig returns the defaults for the Steam Community Market target.
func DefaultConfig() *Config {
	return &Config{
		SearchURL:       "https://steamcommunity.com/market/search/render/",
		MarketBaseURL:   "https://steamcommunity.com/market/listings/",
		AppID:           753,
		Currency:        1,
		Query:           "",
		ItemType:        "trading_card",
		ItemSubtype:     "steam_all_games",
		BatchSize:       50,
		Timeout:         15 * time.Second,
		DelayMin:        10 * time.Second,
		DelayMax:        30 * time.Second,
		OutputFile:      "output/steam_trading_cards.json",
		CheckpointFile:  ".env",
		CheckpointKey:   "LAST_CRAWLED_CARD_PAGE",
		UserAgent:       "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36",
		MetricsAddr:     "",
		DedupeCacheSize: 4096,
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.SearchURL == "" {
		return fmt.Errorf("search URL cannot be empty")
	}
	parsedURL, err := url.Parse(c.SearchURL)
	if err != nil {
		return fmt.Errorf("invalid search URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("search URL must include a host")
	}
	if c.MarketBaseURL == "" {
		return fmt.Errorf("market base URL cannot be empty")
	}
	if c.AppID <= 0 {
		return fmt.Errorf("app id must be positive")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.DelayMin < 0 {
		return fmt.Errorf("delay min cannot be negative")
	}
	if c.DelayMax < c.DelayMin {
		return fmt.Errorf("delay max (%s) cannot be below delay min (%s)", c.DelayMax, c.DelayMin)
	}
	if c.OutputFile == "" {
		return fmt.Errorf("output file cannot be empty")
	}
	if c.CheckpointFile == "" {
		return fmt.Errorf("checkpoint file cannot be empty")
	}
	if c.CheckpointKey == "" {
		return fmt.Errorf("checkpoint key cannot be empty")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if c.DedupeCacheSize <= 0 {
		return fmt.Errorf("dedupe cache size must be positive")
	}
	return nil
}

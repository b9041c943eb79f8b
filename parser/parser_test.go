package parser

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func testNormalizer() *Normalizer {
	n := NewNormalizer("https://steamcommunity.com/market/listings/", 753, "trading_card", "steam_all_games")
	n.now = func() time.Time {
		return time.Date(2025, 11, 4, 13, 9, 13, 500_000_000, time.UTC)
	}
	return n
}

func TestNormalizePrefersHashName(t *testing.T) {
	raw := json.RawMessage(`{
		"name": "Display Name",
		"hash_name": "271590-Display Name",
		"asset_description": {"game": "Grand Theft Auto V", "type": "Trading Card"}
	}`)

	record, err := testNormalizer().Normalize(raw)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if want := "https://steamcommunity.com/market/listings/753/271590-Display%20Name"; record.MarketURL != want {
		t.Fatalf("url=%q, want %q", record.MarketURL, want)
	}
	if record.Name != "Display Name" {
		t.Fatalf("name=%q, want Display Name", record.Name)
	}
	if record.GameName != "Grand Theft Auto V" || record.GameType != "Trading Card" {
		t.Fatalf("game fields = %q/%q", record.GameName, record.GameType)
	}
}

func TestNormalizeFallbackIdentity(t *testing.T) {
	raw := json.RawMessage(`{"name": "Foo Bar"}`)

	record, err := testNormalizer().Normalize(raw)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if !strings.HasSuffix(record.MarketURL, "/753/Foo_Bar") {
		t.Fatalf("fallback identity should be Foo_Bar, got url %q", record.MarketURL)
	}
}

func TestHashName(t *testing.T) {
	tests := []struct {
		name        string
		hashName    string
		displayName string
		want        string
	}{
		{name: "hash name wins", hashName: "12345-Card", displayName: "Card", want: "12345-Card"},
		{name: "fallback substitutes spaces", hashName: "", displayName: "Foo Bar Baz", want: "Foo_Bar_Baz"},
		{name: "both empty", hashName: "", displayName: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HashName(tt.hashName, tt.displayName); got != tt.want {
				t.Fatalf("HashName(%q, %q) = %q, want %q", tt.hashName, tt.displayName, got, tt.want)
			}
		})
	}
}

func TestNormalizePlaceholders(t *testing.T) {
	raw := json.RawMessage(`{"hash_name": "12345-Card"}`)

	record, err := testNormalizer().Normalize(raw)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if record.Name != UnknownName {
		t.Fatalf("name=%q, want placeholder %q", record.Name, UnknownName)
	}
	if record.GameName != UnknownGameName {
		t.Fatalf("game name=%q, want placeholder %q", record.GameName, UnknownGameName)
	}
	if record.GameType != UnknownGameType {
		t.Fatalf("game type=%q, want placeholder %q", record.GameType, UnknownGameType)
	}
}

func TestNormalizeStampsFetchTime(t *testing.T) {
	record, err := testNormalizer().Normalize(json.RawMessage(`{"name": "Card"}`))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	// Second granularity: sub-second part of the clock is dropped.
	if record.FetchTime != "2025-11-04 13:09:13" {
		t.Fatalf("fetch time=%q", record.FetchTime)
	}
}

func TestNormalizeMalformedItem(t *testing.T) {
	for _, raw := range []string{`"just a string"`, `42`, `[1,2,3]`} {
		if _, err := testNormalizer().Normalize(json.RawMessage(raw)); err == nil {
			t.Fatalf("expected error for payload %s", raw)
		}
	}
}

func TestNormalizeAppliesTypeLabels(t *testing.T) {
	record, err := testNormalizer().Normalize(json.RawMessage(`{"name": "Card"}`))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if record.Type != "trading_card" || record.Subtype != "steam_all_games" {
		t.Fatalf("labels = %q/%q", record.Type, record.Subtype)
	}
}

package config

import (
	"strings"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name: "empty search url",
			mutate: func(cfg *Config) {
				cfg.SearchURL = ""
			},
			wantErr: "search URL",
		},
		{
			name: "search url without host",
			mutate: func(cfg *Config) {
				cfg.SearchURL = "http://"
			},
			wantErr: "search URL",
		},
		{
			name: "zero batch size",
			mutate: func(cfg *Config) {
				cfg.BatchSize = 0
			},
			wantErr: "batch size",
		},
		{
			name: "negative timeout",
			mutate: func(cfg *Config) {
				cfg.Timeout = -1 * time.Second
			},
			wantErr: "timeout",
		},
		{
			name: "delay max below min",
			mutate: func(cfg *Config) {
				cfg.DelayMin = 10 * time.Second
				cfg.DelayMax = 5 * time.Second
			},
			wantErr: "delay max",
		},
		{
			name: "empty output file",
			mutate: func(cfg *Config) {
				cfg.OutputFile = ""
			},
			wantErr: "output file",
		},
		{
			name: "empty checkpoint key",
			mutate: func(cfg *Config) {
				cfg.CheckpointKey = ""
			},
			wantErr: "checkpoint key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("CRAWLER_TEST_INT", "42")
	t.Setenv("CRAWLER_TEST_BAD_INT", "abc")
	t.Setenv("CRAWLER_TEST_STR", "hello")
	t.Setenv("CRAWLER_TEST_DUR", "15s")

	if v, ok, err := EnvInt("CRAWLER_TEST_INT"); err != nil || !ok || v != 42 {
		t.Fatalf("EnvInt = (%d, %v, %v), want (42, true, nil)", v, ok, err)
	}
	if _, _, err := EnvInt("CRAWLER_TEST_BAD_INT"); err == nil {
		t.Fatalf("expected parse error for bad int")
	}
	if _, ok, err := EnvInt("CRAWLER_TEST_MISSING"); ok || err != nil {
		t.Fatalf("missing variable should report ok=false, nil error")
	}
	if v, ok := EnvString("CRAWLER_TEST_STR"); !ok || v != "hello" {
		t.Fatalf("EnvString = (%q, %v), want (hello, true)", v, ok)
	}
	if v, ok, err := EnvDuration("CRAWLER_TEST_DUR"); err != nil || !ok || v != 15*time.Second {
		t.Fatalf("EnvDuration = (%v, %v, %v), want (15s, true, nil)", v, ok, err)
	}
}

package cfg

import (
	"path/filepath"
	"testing"
	"time"
)

func TestGetVersion(t *testing.T) {
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}
}

func TestParseDefaults(t *testing.T) {
	cfg, err := parse([]string{})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if cfg.DataDir != "./data" {
		t.Errorf("Expected data dir './data', got '%s'", cfg.DataDir)
	}
	if cfg.SeedsFile != filepath.Join("./data", "seeds.yaml") {
		t.Errorf("Expected seeds file under data dir, got '%s'", cfg.SeedsFile)
	}
	if cfg.OPMLDir != filepath.Join("./data", "opml") {
		t.Errorf("Expected OPML dir under data dir, got '%s'", cfg.OPMLDir)
	}
	if cfg.StateBackend != BackendJSON {
		t.Errorf("Expected state backend '%s', got '%s'", BackendJSON, cfg.StateBackend)
	}
	if cfg.URLPrefix != "/api" {
		t.Errorf("Expected URL prefix '/api', got '%s'", cfg.URLPrefix)
	}
	if cfg.Shards != 5 || cfg.Workers != 20 || cfg.MaxItems != 4000 {
		t.Errorf("Expected 5/20/4000, got %d/%d/%d", cfg.Shards, cfg.Workers, cfg.MaxItems)
	}
	if cfg.DiscoveryTimeout != 12*time.Second || cfg.FetchTimeout != 15*time.Second {
		t.Errorf("Expected 12s/15s timeouts, got %v/%v", cfg.DiscoveryTimeout, cfg.FetchTimeout)
	}
	if cfg.Mode != ModeRun || cfg.Interval != 60 {
		t.Errorf("Expected run mode with 60s interval, got %s/%d", cfg.Mode, cfg.Interval)
	}
	if cfg.VerifyTimeout != 10*time.Second {
		t.Errorf("Expected 10s verify timeout, got %v", cfg.VerifyTimeout)
	}
	if cfg.EnrichLimit != 0 || cfg.MaxRPS != 0 {
		t.Errorf("Expected enrichment and rate limit off, got %d/%v", cfg.EnrichLimit, cfg.MaxRPS)
	}
}

func TestParseFlags(t *testing.T) {
	cfg, err := parse([]string{
		"--data-dir", "/srv/harvest",
		"--settings-file", "/etc/harvest/settings.json",
		"--state-backend", "sqlite",
		"--mode", "serve",
		"--fetch-timeout", "3s",
		"--shards", "3",
		"--debug",
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if cfg.SettingsFile != "/etc/harvest/settings.json" {
		t.Errorf("Expected explicit settings file, got '%s'", cfg.SettingsFile)
	}
	if cfg.DBFile != filepath.Join("/srv/harvest", "harvest.sqlite") {
		t.Errorf("Expected db file under data dir, got '%s'", cfg.DBFile)
	}
	if cfg.StateBackend != BackendSQLite || cfg.Mode != ModeServe {
		t.Errorf("Expected sqlite/serve, got %s/%s", cfg.StateBackend, cfg.Mode)
	}
	if cfg.FetchTimeout != 3*time.Second || cfg.Shards != 3 || !cfg.Debug {
		t.Errorf("Unexpected parsed values: %+v", cfg)
	}
}

func TestParseVerifyMode(t *testing.T) {
	cfg, err := parse([]string{"--mode", "verify", "--verify-timeout", "2s"})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if cfg.Mode != ModeVerify || cfg.VerifyTimeout != 2*time.Second {
		t.Errorf("Expected verify mode with 2s timeout, got %s/%v", cfg.Mode, cfg.VerifyTimeout)
	}
}

func TestParseEnv(t *testing.T) {
	t.Setenv("WORKERS", "7")
	t.Setenv("STATE_BACKEND", "bolt")

	cfg, err := parse([]string{})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if cfg.Workers != 7 {
		t.Errorf("Expected 7 workers, got %d", cfg.Workers)
	}
	if cfg.StateBackend != BackendBolt {
		t.Errorf("Expected bolt backend, got '%s'", cfg.StateBackend)
	}
}

func TestParseInvalid(t *testing.T) {
	cases := [][]string{
		{"--state-backend", "postgres"},
		{"--mode", "daemon"},
		{"--interval", "0"},
		{"--shards", "many"},
	}

	for _, args := range cases {
		if _, err := parse(args); err == nil {
			t.Errorf("Expected error for %v", args)
		}
	}
}

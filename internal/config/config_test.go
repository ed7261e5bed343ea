package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(storeURLEnv, "")
	t.Setenv(adminIDsEnv, "")

	cfg := Load()
	if cfg.Pipeline.DefaultTheme != "Strategy" || cfg.Pipeline.BatchSize != 10 {
		t.Fatalf("unexpected pipeline defaults: %+v", cfg.Pipeline)
	}
	if len(cfg.Pipeline.Themes) != 3 {
		t.Fatalf("expected 3 default themes, got %d", len(cfg.Pipeline.Themes))
	}
	if len(cfg.Sites) == 0 {
		t.Fatal("expected default site list")
	}
	if cfg.Scheduler.IntervalDuration() != 7*24*time.Hour {
		t.Fatalf("unexpected interval: %v", cfg.Scheduler.IntervalDuration())
	}
	if cfg.Pipeline.RecencyWindow() != 7*24*time.Hour {
		t.Fatalf("unexpected recency window: %v", cfg.Pipeline.RecencyWindow())
	}
}

func TestLoadFileMergeAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
store:
  baseUrl: https://files.lightouch.example/v1
  token: file-token
pipeline:
  recencyDays: 14
  themes:
    - name: Leadership
      subThemes: [Culture]
scheduler:
  interval: 24h
  timezone: Europe/Berlin
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(configPathEnv, path)
	t.Setenv(storeURLEnv, "")
	t.Setenv(storeTokenEnv, "env-token")
	t.Setenv(adminIDsEnv, "alice, bob ,")
	t.Setenv(consultantIDsEnv, "")

	cfg := Load()

	// File values win over defaults, env wins over file.
	if cfg.Store.BaseURL != "https://files.lightouch.example/v1" {
		t.Fatalf("unexpected base url: %s", cfg.Store.BaseURL)
	}
	if cfg.Store.Token != "env-token" {
		t.Fatalf("env override lost: %s", cfg.Store.Token)
	}
	if cfg.Pipeline.RecencyDays != 14 || cfg.Pipeline.RecencyWindow() != 14*24*time.Hour {
		t.Fatalf("unexpected recency: %+v", cfg.Pipeline)
	}
	if len(cfg.Pipeline.Themes) != 1 || cfg.Pipeline.Themes[0].Name != "Leadership" {
		t.Fatalf("themes not merged: %+v", cfg.Pipeline.Themes)
	}
	// Untouched sections keep their defaults.
	if cfg.Pipeline.BatchSize != 10 {
		t.Fatalf("default batch size lost: %d", cfg.Pipeline.BatchSize)
	}

	if got := cfg.Access.AdminIDs; len(got) != 2 || got[0] != "alice" || got[1] != "bob" {
		t.Fatalf("admin ids not parsed: %v", got)
	}

	if cfg.Scheduler.IntervalDuration() != 24*time.Hour {
		t.Fatalf("unexpected interval: %v", cfg.Scheduler.IntervalDuration())
	}
	if cfg.Scheduler.Location().String() != "Europe/Berlin" {
		t.Fatalf("unexpected location: %s", cfg.Scheduler.Location())
	}
}

func TestLoadUnreadableFileFallsBack(t *testing.T) {
	t.Setenv(configPathEnv, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv(storeURLEnv, "")
	t.Setenv(storeTokenEnv, "")

	cfg := Load()
	if cfg.Store.BaseURL != "https://content.example.org/v1" {
		t.Fatalf("defaults not applied: %s", cfg.Store.BaseURL)
	}
}

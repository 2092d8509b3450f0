package config

import (
	"os"
	"path/filepath"
	"testing"

	"aviation_intel/pkg/core/intel"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"TRADE_API_URL", "CACHE_ENABLED", "CACHE_TTL_HOURS", "AI_AUGMENTATION_ENABLED"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.TradeURL != defaultTradeURL {
		t.Errorf("TradeURL = %q", cfg.TradeURL)
	}
	if !cfg.CacheEnabled || cfg.CacheTTLHours != defaultCacheTTLHours {
		t.Errorf("cache defaults not applied: %+v", cfg)
	}
	if !cfg.AIEnabled {
		t.Error("AI augmentation defaults to enabled")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CACHE_ENABLED", "false")
	t.Setenv("CACHE_TTL_HOURS", "6")
	t.Setenv("TRADE_API_KEY", "secret")

	cfg := Load()
	if cfg.CacheEnabled {
		t.Error("CACHE_ENABLED=false not honored")
	}
	if cfg.CacheTTLHours != 6 {
		t.Errorf("CacheTTLHours = %d", cfg.CacheTTLHours)
	}
	if cfg.TradeAPIKey != "secret" {
		t.Errorf("TradeAPIKey = %q", cfg.TradeAPIKey)
	}
}

func TestLoadInvalidIntFallsBack(t *testing.T) {
	t.Setenv("CACHE_TTL_HOURS", "not-a-number")
	if cfg := Load(); cfg.CacheTTLHours != defaultCacheTTLHours {
		t.Errorf("CacheTTLHours = %d", cfg.CacheTTLHours)
	}
}

func TestLoadClientSectorsDefault(t *testing.T) {
	cfg := &Config{}
	clients, err := cfg.LoadClientSectors()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(clients) == 0 {
		t.Fatal("default mapping must not be empty")
	}
	if clients["Apex Technology Group"] != intel.SectorTechnology {
		t.Errorf("default mapping wrong: %v", clients)
	}
}

func TestLoadClientSectorsFromHJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clients.hjson")
	// HJSON tolerates comments and unquoted keys.
	content := `{
  # charter clients by sector
  Cisco: technology
  "Blue Harbor Fund": finance
}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := &Config{ClientMapPath: path}
	clients, err := cfg.LoadClientSectors()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if clients["Cisco"] != intel.SectorTechnology || clients["Blue Harbor Fund"] != intel.SectorFinance {
		t.Errorf("parsed mapping wrong: %v", clients)
	}
}

func TestLoadClientSectorsMissingFile(t *testing.T) {
	cfg := &Config{ClientMapPath: filepath.Join(t.TempDir(), "absent.hjson")}
	if _, err := cfg.LoadClientSectors(); err == nil {
		t.Error("missing catalog must error")
	}
}

// Package config loads runtime settings from the environment and optional
// on-disk catalogs. A missing credential never fails the load; the affected
// adapter reports unconfigured at collection time instead.
package config

import (
	"fmt"
	"os"
	"strconv"

	hjson "github.com/hjson/hjson-go/v4"
	"github.com/joho/godotenv"

	"aviation_intel/pkg/core/intel"
)

// Defaults applied when the corresponding variable is unset.
const (
	defaultTradeURL      = "https://api.globaltradealert.org/api/v1/data/"
	defaultMacroURL      = "https://api.stlouisfed.org/fred/series/observations"
	defaultCacheDir      = "cache"
	defaultCacheTTLHours = 24
	defaultOutputDir     = "output"
)

// Config carries every runtime setting for one brief run.
type Config struct {
	NarrativeURL   string
	NarrativeToken string

	TradeURL    string
	TradeAPIKey string

	MacroURL    string
	MacroAPIKey string

	CacheEnabled  bool
	CacheDir      string
	CacheTTLHours int

	AIEnabled bool

	TemplatePath  string // YAML template catalog; empty selects the built-in
	ClientMapPath string // HJSON client → sector mapping; empty selects defaults

	OutputDir   string
	DatabaseURL string // optional run-history store
}

// Load reads .env (when present) and the environment. It never fails on
// missing credentials.
func Load() *Config {
	// A missing .env is fine; the environment may be set directly.
	godotenv.Load()

	return &Config{
		NarrativeURL:   os.Getenv("NARRATIVE_WS_URL"),
		NarrativeToken: os.Getenv("NARRATIVE_API_TOKEN"),

		TradeURL:    envOr("TRADE_API_URL", defaultTradeURL),
		TradeAPIKey: os.Getenv("TRADE_API_KEY"),

		MacroURL:    envOr("FRED_API_URL", defaultMacroURL),
		MacroAPIKey: os.Getenv("FRED_API_KEY"),

		CacheEnabled:  envBool("CACHE_ENABLED", true),
		CacheDir:      envOr("CACHE_DIR", defaultCacheDir),
		CacheTTLHours: envInt("CACHE_TTL_HOURS", defaultCacheTTLHours),

		AIEnabled: envBool("AI_AUGMENTATION_ENABLED", true),

		TemplatePath:  os.Getenv("QUERY_TEMPLATE_PATH"),
		ClientMapPath: os.Getenv("CLIENT_SECTOR_MAP_PATH"),

		OutputDir:   envOr("OUTPUT_DIR", defaultOutputDir),
		DatabaseURL: os.Getenv("DATABASE_URL"),
	}
}

// DefaultClientSectors is the built-in client → sector mapping used when no
// HJSON catalog is configured.
var DefaultClientSectors = map[string]intel.Sector{
	"Meridian Capital Partners": intel.SectorFinance,
	"Apex Technology Group":     intel.SectorTechnology,
	"Sterling Realty Holdings":  intel.SectorRealEstate,
	"Crestview Health Systems":  intel.SectorHealthcare,
	"Summit Energy Resources":   intel.SectorEnergy,
	"Pinnacle Entertainment":    intel.SectorEntertainment,
}

// LoadClientSectors reads the HJSON client catalog, falling back to the
// built-in mapping on an empty path. Unknown sector tags are kept verbatim;
// the sanitizer only uses them to build replacement tokens.
func (c *Config) LoadClientSectors() (map[string]intel.Sector, error) {
	if c.ClientMapPath == "" {
		return DefaultClientSectors, nil
	}

	raw, err := os.ReadFile(c.ClientMapPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read client sector map %s: %w", c.ClientMapPath, err)
	}

	var parsed map[string]string
	if err := hjson.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse client sector map: %w", err)
	}
	if len(parsed) == 0 {
		return nil, fmt.Errorf("client sector map %s is empty", c.ClientMapPath)
	}

	out := make(map[string]intel.Sector, len(parsed))
	for name, sec := range parsed {
		out[name] = intel.Sector(sec)
	}
	return out, nil
}

func envOr(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func envBool(key string, def bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return def
	}
	return parsed
}

func envInt(key string, def int) int {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return def
	}
	return parsed
}

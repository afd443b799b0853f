package config

import (
	"os"
	"strconv"
	"time"
)

// Profile holds the matching parameters for one controller type.
type Profile struct {
	RadiusNM float64
	Window   time.Duration
}

// Config carries all engine settings. Built once at startup and passed by
// value into components so tests can inject alternates.
type Config struct {
	DataURL         string
	TransceiversURL string
	ListenAddr      string

	UpdateInterval      time.Duration // poll cycle
	AggregationInterval time.Duration // summary pass
	SessionTimeout      time.Duration // inactivity before a session is complete

	BoundaryEnabled bool
	BoundaryFile    string
	SectorIndexFile string

	FilterLatencyBudget time.Duration

	// Profiles is keyed by the classifier's type names (GND, TWR, APP,
	// CTR, FSS, DEFAULT).
	Profiles map[string]Profile
}

// DefaultProfiles returns the stock radius/window table. Tower and Center
// values match the published matching heuristics; the default profile is a
// moderate middle ground for unrecognised positions.
func DefaultProfiles() map[string]Profile {
	return map[string]Profile{
		"GND":     {RadiusNM: 10, Window: 60 * time.Second},
		"TWR":     {RadiusNM: 15, Window: 60 * time.Second},
		"APP":     {RadiusNM: 80, Window: 90 * time.Second},
		"CTR":     {RadiusNM: 400, Window: 120 * time.Second},
		"FSS":     {RadiusNM: 1500, Window: 300 * time.Second},
		"DEFAULT": {RadiusNM: 40, Window: 90 * time.Second},
	}
}

// Load reads configuration from the environment, falling back to defaults
// suitable for a local run against the live network feed.
func Load() Config {
	cfg := Config{
		DataURL:             envString("VATSIM_DATA_URL", "https://data.vatsim.net/v3/vatsim-data.json"),
		TransceiversURL:     envString("VATSIM_TRANSCEIVERS_URL", "https://data.vatsim.net/v3/transceivers-data.json"),
		ListenAddr:          envString("LISTEN_ADDR", ":8080"),
		UpdateInterval:      envSeconds("UPDATE_INTERVAL", 60),
		AggregationInterval: envSeconds("AGGREGATION_INTERVAL", 3600),
		SessionTimeout:      envSeconds("SESSION_TIMEOUT", 600),
		BoundaryEnabled:     envBool("BOUNDARY_FILTER_ENABLED", true),
		BoundaryFile:        envString("BOUNDARY_FILE", "data/boundary.json"),
		SectorIndexFile:     envString("SECTOR_INDEX_FILE", "data/sectors.json"),
		FilterLatencyBudget: envMillis("FILTER_LATENCY_BUDGET_MS", 10),
		Profiles:            DefaultProfiles(),
	}

	for name, p := range cfg.Profiles {
		p.RadiusNM = envFloat("RADIUS_"+name+"_NM", p.RadiusNM)
		p.Window = envSeconds("WINDOW_"+name+"_SEC", int(p.Window/time.Second))
		cfg.Profiles[name] = p
	}

	return cfg
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envSeconds(key string, def int) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return time.Duration(def) * time.Second
}

func envMillis(key string, def int) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Millisecond
		}
	}
	return time.Duration(def) * time.Millisecond
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			return f
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

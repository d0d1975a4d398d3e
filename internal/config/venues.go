package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"
)

// VenueRateLimit describes a venue's REST rate limit budget.
type VenueRateLimit struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// VenueInfo describes one tradeable venue from the venues catalogue.
type VenueInfo struct {
	Name      string         `yaml:"name"`
	RESTURL   string         `yaml:"rest_url"`
	WSURL     string         `yaml:"ws_url"`
	HasPaper  bool           `yaml:"has_paper"`
	IsDEX     bool           `yaml:"is_dex"`
	RateLimit VenueRateLimit `yaml:"rate_limit"`
}

// Venues is the parsed venue catalogue, keyed by venue name.
type Venues map[string]VenueInfo

// Get looks up a venue by name.
func (v Venues) Get(name string) (VenueInfo, bool) {
	info, ok := v[name]
	return info, ok
}

type venuesFile struct {
	Venues []VenueInfo `yaml:"venues"`
}

// LoadVenues reads a venues.yaml catalogue file.
func LoadVenues(path string) (Venues, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read venues file: %w", err)
	}

	var parsed venuesFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse venues file: %w", err)
	}

	out := make(Venues, len(parsed.Venues))
	for _, v := range parsed.Venues {
		out[v.Name] = v
	}
	return out, nil
}

// Credentials holds a venue's API key/secret pair.
type Credentials struct {
	APIKey string
	Secret string
}

// LoadExchangeCredentials looks up venue-specific credentials from the
// environment using the pattern <VENUE>_API_KEY / <VENUE>_API_SECRET,
// falling back to EXCHANGE_API_KEY / EXCHANGE_API_SECRET. Returns nil if
// either the key or the secret is missing for the venue.
func LoadExchangeCredentials(venue string) *Credentials {
	prefix := strings.ToUpper(strings.ReplaceAll(venue, "-", "_"))

	key := os.Getenv(prefix + "_API_KEY")
	secret := os.Getenv(prefix + "_API_SECRET")
	if key == "" {
		key = os.Getenv("EXCHANGE_API_KEY")
	}
	if secret == "" {
		secret = os.Getenv("EXCHANGE_API_SECRET")
	}
	if key == "" || secret == "" {
		return nil
	}
	return &Credentials{APIKey: key, Secret: secret}
}

// JitterBounds returns the [min, max] bounds (base ± 10%) for a jittered
// sleep, mirroring the original bot's jitter_sleep helper.
func JitterBounds(base time.Duration) (time.Duration, time.Duration) {
	min := base - base/10
	max := base + base/10
	return min, max
}

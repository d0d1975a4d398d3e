// Package config defines the strategy configuration for the market-making
// engine. Config is loaded from a YAML file (default: configs/config.yaml)
// with sensitive fields overridable via MMBOT_* environment variables. A
// separate venues catalogue (Venues) is loaded from its own YAML file via
// LoadVenues.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level strategy configuration.
type Config struct {
	DryRun      bool            `mapstructure:"dry_run"`
	VenuesFile  string          `mapstructure:"venues_file"`
	Symbols     []SymbolConfig  `mapstructure:"symbols"`
	Quote       QuoteConfig     `mapstructure:"quote"`
	Risk        RiskConfig      `mapstructure:"risk"`
	Hedge       HedgeConfig     `mapstructure:"hedge"`
	Basis       BasisConfig     `mapstructure:"basis"`
	Storage     StorageConfig   `mapstructure:"storage"`
	Metrics     MetricsConfig   `mapstructure:"metrics"`
	Logging     LoggingConfig   `mapstructure:"logging"`
	Dashboard   DashboardConfig `mapstructure:"dashboard"`
}

// SymbolConfig describes one venue+symbol pair the engine trades.
type SymbolConfig struct {
	Name                string  `mapstructure:"name"`
	Venue               string  `mapstructure:"venue"`
	TickSize            float64 `mapstructure:"tick_size"`
	LotSize             float64 `mapstructure:"lot_size"`
	MaxPosition         float64 `mapstructure:"max_position"`
	MaxOrderNotional    float64 `mapstructure:"max_order_notional"`
	MaxCancelsPerMinute int     `mapstructure:"max_cancels_per_minute"`
	MaxOrders           int     `mapstructure:"max_orders"`
	AccountNotionalCap  float64 `mapstructure:"account_notional_cap"`
	IsPerp              bool    `mapstructure:"is_perp"`
	MakerFeeBps         float64 `mapstructure:"maker_fee_bps"`
	TakerFeeBps         float64 `mapstructure:"taker_fee_bps"`
}

// QuoteConfig tunes the Avellaneda-Stoikov quoting model.
//
//   - Gamma: risk-aversion parameter. Higher = tighter spread, less inventory risk.
//   - HorizonSeconds: time horizon T used in the reservation-price formula.
//   - Kappa: order arrival-rate parameter. Higher kappa = more aggressive quotes.
//   - MinSpread: spread floor, in price units.
//   - SkewAlpha: weight on inventory in the skew term.
//   - RefreshInterval: how often the quoter recomputes and reconciles quotes.
type QuoteConfig struct {
	Gamma           float64       `mapstructure:"gamma"`
	HorizonSeconds  float64       `mapstructure:"horizon_seconds"`
	Kappa           float64       `mapstructure:"kappa"`
	MinSpread       float64       `mapstructure:"min_spread"`
	SkewAlpha       float64       `mapstructure:"skew_alpha"`
	OrderSize       float64       `mapstructure:"order_size"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	StaleBookTimeout time.Duration `mapstructure:"stale_book_timeout"`
}

// RiskConfig sets account-wide hard limits.
type RiskConfig struct {
	MaxDrawdown         float64       `mapstructure:"max_drawdown"`
	MaxDailyLoss        float64       `mapstructure:"max_daily_loss"`
	MaxInventoryNotional float64      `mapstructure:"max_inventory_notional"`
	MaxOpenOrders       int           `mapstructure:"max_open_orders"`
	KillSwitchThreshold int           `mapstructure:"kill_switch_threshold"`
	CooldownAfterKill   time.Duration `mapstructure:"cooldown_after_kill"`
	OrphanTimeout       time.Duration `mapstructure:"orphan_timeout"`
}

// HedgeConfig tunes the residual-inventory hedger.
type HedgeConfig struct {
	Enabled             bool          `mapstructure:"enabled"`
	RebalanceThreshold  float64       `mapstructure:"rebalance_threshold"`
	HedgeRatio          float64       `mapstructure:"hedge_ratio"`
	MaxNotional         float64       `mapstructure:"max_notional"`
	Cooldown            time.Duration `mapstructure:"cooldown"`
	TWAPSlices          int           `mapstructure:"twap_slices"`
	TWAPInterval        time.Duration `mapstructure:"twap_interval"`
}

// BasisConfig tunes the perp-spot basis/funding capture overlay.
type BasisConfig struct {
	Enabled          bool    `mapstructure:"enabled"`
	MaxNotional      float64 `mapstructure:"max_notional"`
	FundingThreshold float64 `mapstructure:"funding_threshold"`
}

// StorageConfig selects and configures the persistence backend.
type StorageConfig struct {
	Backend string `mapstructure:"backend"` // "sqlite" or "clickhouse"
	DSN     string `mapstructure:"dsn"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DashboardConfig controls the web dashboard/WS server.
type DashboardConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Load reads config from a YAML file with env var overrides.
// Sensitive fields use env vars named VENUE_API_KEY / VENUE_API_SECRET,
// resolved per-venue by LoadExchangeCredentials when a live connector is built.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("MMBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if dr := os.Getenv("MMBOT_DRY_RUN"); dr == "true" || dr == "1" {
		cfg.DryRun = true
	}

	return &cfg, nil
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	if len(c.Symbols) == 0 {
		return fmt.Errorf("at least one symbol must be configured")
	}
	seen := make(map[string]bool, len(c.Symbols))
	for _, s := range c.Symbols {
		if s.Name == "" || s.Venue == "" {
			return fmt.Errorf("symbol entries require name and venue")
		}
		key := s.Venue + ":" + s.Name
		if seen[key] {
			return fmt.Errorf("duplicate symbol configured: %s", key)
		}
		seen[key] = true
		if s.TickSize <= 0 {
			return fmt.Errorf("symbol %s: tick_size must be > 0", s.Name)
		}
		if s.MaxPosition <= 0 {
			return fmt.Errorf("symbol %s: max_position must be > 0", s.Name)
		}
	}
	if c.Quote.Gamma <= 0 {
		return fmt.Errorf("quote.gamma must be > 0")
	}
	if c.Quote.OrderSize <= 0 {
		return fmt.Errorf("quote.order_size must be > 0")
	}
	if c.Risk.MaxInventoryNotional <= 0 {
		return fmt.Errorf("risk.max_inventory_notional must be > 0")
	}
	if c.Risk.KillSwitchThreshold <= 0 {
		return fmt.Errorf("risk.kill_switch_threshold must be > 0")
	}
	if c.Storage.Backend != "" && c.Storage.Backend != "sqlite" && c.Storage.Backend != "clickhouse" {
		return fmt.Errorf("storage.backend must be sqlite or clickhouse, got %q", c.Storage.Backend)
	}
	return nil
}

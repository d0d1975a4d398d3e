package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

const defaultConfigTemplate = `dry_run: true
venues_file: venues.yaml
symbols:
  - name: BTC-USDT
    venue: paper
    tick_size: 0.5
    lot_size: 0.001
    max_position: 0.5
    max_order_notional: 5000
    max_cancels_per_minute: 30
    max_orders: 4
    account_notional_cap: 20000
    maker_fee_bps: 1
    taker_fee_bps: 5
quote:
  gamma: 0.1
  horizon_seconds: 1.0
  kappa: 1.5
  min_spread: 1.0
  skew_alpha: 0.5
  order_size: 0.001
  refresh_interval: 1s
  stale_book_timeout: 5s
risk:
  max_drawdown: 2000
  max_daily_loss: 1000
  max_inventory_notional: 20000
  max_open_orders: 20
  kill_switch_threshold: 2000
  cooldown_after_kill: 5m
  orphan_timeout: 10s
hedge:
  enabled: false
  hedge_ratio: 1.0
basis:
  enabled: false
storage:
  backend: sqlite
  dsn: mmbot.db
metrics:
  enabled: true
  host: 0.0.0.0
  port: 9090
logging:
  level: info
  format: text
dashboard:
  enabled: true
  port: 8080
`

const defaultVenuesTemplate = `venues:
  - name: paper
    rest_url: ""
    ws_url: ""
    has_paper: true
    is_dex: false
    rate_limit:
      requests_per_second: 10
      burst: 20
`

func newQuickstartCmd() *cobra.Command {
	var initOnly bool

	cmd := &cobra.Command{
		Use:   "quickstart",
		Short: "Scaffold a user config and venues catalogue, then start the engine in the config's dry_run mode",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := ensureUserFiles(cfgPath)
			if err != nil {
				return err
			}
			if initOnly {
				fmt.Println("Configuration initialized. Update API credentials before running live.")
				return nil
			}
			return runEngine(path, false)
		},
	}
	cmd.Flags().BoolVar(&initOnly, "init-only", false, "generate configuration files and exit without starting the bot")
	return cmd
}

// ensureUserFiles creates a strategy config and venues catalogue at
// path's directory if they do not already exist, and returns the
// strategy config path to use.
func ensureUserFiles(path string) (string, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.WriteFile(path, []byte(defaultConfigTemplate), 0o644); err != nil {
			return "", fmt.Errorf("write config: %w", err)
		}
		fmt.Printf("Created strategy config at %s\n", path)
	} else {
		fmt.Printf("Using existing strategy config at %s\n", path)
	}

	venuesPath := filepath.Join(dir, "venues.yaml")
	if _, err := os.Stat(venuesPath); os.IsNotExist(err) {
		if err := os.WriteFile(venuesPath, []byte(defaultVenuesTemplate), 0o644); err != nil {
			return "", fmt.Errorf("write venues: %w", err)
		}
		fmt.Printf("Copied venue catalogue to %s\n", venuesPath)
	}

	return path, nil
}

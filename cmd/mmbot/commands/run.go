package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mm-engine/mmbot/internal/api"
	"github.com/mm-engine/mmbot/internal/config"
	"github.com/mm-engine/mmbot/internal/engine"
)

func newRunCmd() *cobra.Command {
	var live bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the market-making engine (paper by default, --live for real orders)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEngine(cfgPath, live)
		},
	}
	cmd.Flags().BoolVar(&live, "live", false, "place real orders instead of paper simulation")
	return cmd
}

func runEngine(path string, live bool) error {
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if live {
		cfg.DryRun = false
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := newLogger(cfg.Logging.Level, cfg.Logging.Format)

	var venues config.Venues
	if cfg.VenuesFile != "" {
		venuesPath := cfg.VenuesFile
		if !filepath.IsAbs(venuesPath) {
			venuesPath = filepath.Join(filepath.Dir(path), venuesPath)
		}
		venues, err = config.LoadVenues(venuesPath)
		if err != nil {
			return fmt.Errorf("load venues: %w", err)
		}
	}

	eng, err := engine.New(*cfg, venues, logger)
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}

	var apiServer *api.Server
	if cfg.Dashboard.Enabled {
		apiServer = api.NewServer(cfg.Dashboard, eng, *cfg, logger)
		go func() {
			if err := apiServer.Start(); err != nil {
				logger.Error("dashboard server failed", "error", err)
			}
		}()
		logger.Info("dashboard started", "url", fmt.Sprintf("http://localhost:%d", cfg.Dashboard.Port))
	}

	if cfg.Metrics.Enabled {
		go serveMetrics(eng, cfg.Metrics, logger)
	}

	ctx, cancel := context.WithCancel(context.Background())
	eng.Start(ctx)

	if cfg.DryRun {
		logger.Warn("DRY-RUN MODE — no real orders will be placed")
	}
	logger.Info("mmbot started", "symbols", len(cfg.Symbols), "dry_run", cfg.DryRun)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received shutdown signal", "signal", sig.String())

	cancel()
	if apiServer != nil {
		if err := apiServer.Stop(); err != nil {
			logger.Error("failed to stop dashboard", "error", err)
		}
	}
	eng.Stop()
	return nil
}

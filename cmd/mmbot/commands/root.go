// Package commands implements the mmbot CLI subcommands using cobra.
package commands

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var cfgPath string

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mmbot",
		Short: "A multi-venue crypto market-making engine",
		Long:  "mmbot quotes two-sided markets with an Avellaneda-Stoikov model, manages inventory risk, hedges residual exposure, and captures perp-spot basis.",
	}

	root.PersistentFlags().StringVar(&cfgPath, "config", "configs/config.yaml", "path to the strategy config file")

	root.AddCommand(newRunCmd())
	root.AddCommand(newBacktestCmd())
	root.AddCommand(newQuickstartCmd())

	return root
}

func newLogger(level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(level)}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

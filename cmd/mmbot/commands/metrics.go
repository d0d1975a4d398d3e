package commands

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mm-engine/mmbot/internal/config"
	"github.com/mm-engine/mmbot/internal/engine"
)

func serveMetrics(eng *engine.Engine, cfg config.MetricsConfig, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", eng.MetricsCollector().Handler())

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	logger.Info("metrics server started", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("metrics server failed", "error", err)
	}
}

// Package metrics exposes engine state as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mm-engine/mmbot/pkg/types"
)

// Collector owns the Prometheus metric vectors for every tracked
// symbol and updates them from MetricsSnapshot values.
type Collector struct {
	registry *prometheus.Registry

	pnlRealized    *prometheus.GaugeVec
	pnlUnrealized  *prometheus.GaugeVec
	inventory      *prometheus.GaugeVec
	spreadTarget   *prometheus.GaugeVec
	fillRate       *prometheus.GaugeVec
	fundingAccrual *prometheus.GaugeVec
	hedgeNotional  *prometheus.GaugeVec
	errorRate      *prometheus.CounterVec
}

// NewCollector registers the engine's metric vectors on a fresh
// registry.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	gauge := func(name, help string) *prometheus.GaugeVec {
		v := prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "mmbot",
			Name:      name,
			Help:      help,
		}, []string{"symbol"})
		registry.MustRegister(v)
		return v
	}

	c := &Collector{
		registry:       registry,
		pnlRealized:    gauge("pnl_realized", "Realized PnL per symbol."),
		pnlUnrealized:  gauge("pnl_unrealized", "Unrealized PnL per symbol."),
		inventory:      gauge("inventory", "Signed inventory per symbol."),
		spreadTarget:   gauge("spread_target", "Target quoted spread per symbol."),
		fillRate:       gauge("fill_rate", "Ratio of filled to posted notional (EWMA) per symbol."),
		fundingAccrual: gauge("funding_accrual", "Cumulative funding accrual per symbol."),
		hedgeNotional:  gauge("hedge_notional", "Most recent hedge notional per symbol."),
		errorRate: func() *prometheus.CounterVec {
			v := prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "mmbot",
				Name:      "errors_total",
				Help:      "Total errors encountered per symbol.",
			}, []string{"symbol"})
			registry.MustRegister(v)
			return v
		}(),
	}
	return c
}

// Observe records a metrics snapshot for one symbol.
func (c *Collector) Observe(snap types.MetricsSnapshot) {
	c.pnlRealized.WithLabelValues(snap.Symbol).Set(snap.PnLRealized)
	c.pnlUnrealized.WithLabelValues(snap.Symbol).Set(snap.PnLUnrealized)
	c.inventory.WithLabelValues(snap.Symbol).Set(snap.Inventory)
	c.spreadTarget.WithLabelValues(snap.Symbol).Set(snap.SpreadTarget)
	c.fillRate.WithLabelValues(snap.Symbol).Set(snap.FillRate)
	c.fundingAccrual.WithLabelValues(snap.Symbol).Set(snap.FundingAccrual)
	c.hedgeNotional.WithLabelValues(snap.Symbol).Set(snap.HedgeNotional)
}

// IncError bumps the error counter for a symbol (use "" for
// engine-wide errors not tied to a symbol).
func (c *Collector) IncError(symbol string) {
	c.errorRate.WithLabelValues(symbol).Inc()
}

// Handler returns the HTTP handler that serves this collector's
// metrics in Prometheus text exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Package metrics exports backtest activity as Prometheus series.
package metrics

import (
	"net/http"
	"time"

	"SignalTradeBot/internal/operations/backtest"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "signaltradebot"

// BacktestMetrics implements backtest.Observer.
type BacktestMetrics struct {
	// Labels: symbol, direction, reason
	TradesTotal *prometheus.CounterVec
	// Labels: symbol, direction
	TradePnL *prometheus.HistogramVec
	// Labels: symbol
	SkippedBarsTotal *prometheus.CounterVec
	// Labels: symbol
	RunsTotal *prometheus.CounterVec
	// Labels: symbol
	RunDuration *prometheus.HistogramVec
	// Labels: symbol
	FinalCapital *prometheus.GaugeVec
}

var _ backtest.Observer = (*BacktestMetrics)(nil)

// New registers the backtest series on reg.
func New(reg prometheus.Registerer) *BacktestMetrics {
	f := promauto.With(reg)
	return &BacktestMetrics{
		TradesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "trades_total",
			Help:      "Closed simulated trades by symbol, direction and exit reason",
		}, []string{"symbol", "direction", "reason"}),
		TradePnL: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "trade_pnl_percent",
			Help:      "Trade P/L as a percent of capital at entry",
			Buckets:   []float64{-5, -2, -1, -0.5, 0, 0.5, 1, 2, 5},
		}, []string{"symbol", "direction"}),
		SkippedBarsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "skipped_bars_total",
			Help:      "Bars skipped because the bar was invalid or the collaborator was unavailable",
		}, []string{"symbol"}),
		RunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "runs_total",
			Help:      "Completed backtest runs",
		}, []string{"symbol"}),
		RunDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "run_duration_seconds",
			Help:      "Wall time of one backtest run",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8), // 1ms to ~16s
		}, []string{"symbol"}),
		FinalCapital: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "final_capital",
			Help:      "Capital at the end of the latest run",
		}, []string{"symbol"}),
	}
}

func (m *BacktestMetrics) TradeClosed(symbol string, t backtest.Trade) {
	dir := string(t.Direction)
	m.TradesTotal.WithLabelValues(symbol, dir, t.ExitReason).Inc()
	m.TradePnL.WithLabelValues(symbol, dir).Observe(t.PnLPercent)
}

func (m *BacktestMetrics) BarSkipped(symbol string) {
	m.SkippedBarsTotal.WithLabelValues(symbol).Inc()
}

func (m *BacktestMetrics) RunFinished(symbol string, r *backtest.Result, elapsed time.Duration) {
	m.RunsTotal.WithLabelValues(symbol).Inc()
	m.RunDuration.WithLabelValues(symbol).Observe(elapsed.Seconds())
	if r != nil {
		m.FinalCapital.WithLabelValues(symbol).Set(r.FinalCapital)
	}
}

// Handler serves the series registered on g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

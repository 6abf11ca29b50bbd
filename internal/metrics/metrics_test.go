package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"SignalTradeBot/internal/models"
	"SignalTradeBot/internal/operations/backtest"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMetrics(t *testing.T) (*BacktestMetrics, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	return New(reg), reg
}

func TestTradeClosed(t *testing.T) {
	m, _ := newTestMetrics(t)

	trade := backtest.Trade{ExitReason: models.ExitTakeProfit, PnLPercent: 1.5}
	trade.Direction = models.DirectionLong
	m.TradeClosed("BTCUSDT", trade)
	m.TradeClosed("BTCUSDT", trade)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.TradesTotal.WithLabelValues("BTCUSDT", "LONG", models.ExitTakeProfit)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.TradePnL))
}

func TestBarSkippedAndRunFinished(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.BarSkipped("ETHUSDT")
	m.BarSkipped("ETHUSDT")
	m.RunFinished("ETHUSDT", &backtest.Result{FinalCapital: 10250}, 30*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.SkippedBarsTotal.WithLabelValues("ETHUSDT")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("ETHUSDT")))
	assert.Equal(t, 10250.0, testutil.ToFloat64(m.FinalCapital.WithLabelValues("ETHUSDT")))
}

func TestHandlerExposesSeries(t *testing.T) {
	m, reg := newTestMetrics(t)
	m.BarSkipped("SOLUSDT")

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `signaltradebot_backtest_skipped_bars_total{symbol="SOLUSDT"} 1`))
}

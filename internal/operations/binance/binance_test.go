package binance

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"SignalTradeBot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kline(openMs int64, o, h, l, c string) string {
	return fmt.Sprintf(`[%d,"%s","%s","%s","%s","12.5",%d,"1000.0",42,"6.0","500.0","0"]`, openMs, o, h, l, c, openMs+86399999)
}

func testClient(t *testing.T, handler http.HandlerFunc) *BinanceClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewBinanceClient("", "").WithBaseURL(srv.URL)
	c.backoff = time.Millisecond
	return c
}

func TestBarsRetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/fapi/v1/klines", r.URL.Path)
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"code":-1001,"msg":"internal error"}`)
			return
		}
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		assert.Equal(t, "1w", r.URL.Query().Get("interval"))
		fmt.Fprintf(w, "[%s,%s]",
			kline(day.UnixMilli(), "100", "110", "95", "105"),
			kline(day.AddDate(0, 0, 7).UnixMilli(), "105", "bad", "101", "108"))
	})

	bars, err := c.Bars(context.Background(), "BTCUSDT", models.PriceTimeFrame1w, day, day.AddDate(0, 1, 0))
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, int32(2), calls.Load())

	assert.Equal(t, day, bars[0].OpenTime)
	assert.Equal(t, models.PriceTimeFrame1w, bars[0].TimeFrame)
	assert.Equal(t, 110.0, bars[0].High)
	assert.Equal(t, 105.0, bars[0].Close)
	assert.Equal(t, int64(42), bars[0].TradeCount)
	assert.True(t, math.IsNaN(bars[1].High))
}

func TestBarsGivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, `{"code":-1000,"msg":"unavailable"}`)
	})

	_, err := c.Bars(context.Background(), "ETHUSDT", models.PriceTimeFrame1d, time.Time{}, time.Time{})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "after 4 attempts"))
	assert.Equal(t, int32(maxRetries+1), calls.Load())
}

func TestBarsEmpty(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "[]")
	})

	_, err := c.Bars(context.Background(), "ETHUSDT", models.PriceTimeFrame1d, time.Time{}, time.Time{})
	assert.ErrorIs(t, err, models.ErrNoData)
}

func TestBarsUnsupportedInterval(t *testing.T) {
	c := NewBinanceClient("", "")

	_, err := c.Bars(context.Background(), "ETHUSDT", "3d", time.Time{}, time.Time{})
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestBarsWithoutStartFetchesLatestPage(t *testing.T) {
	var calls atomic.Int32
	to := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		q := r.URL.Query()
		assert.False(t, q.Has("startTime"))
		assert.Equal(t, fmt.Sprint(to.UnixMilli()), q.Get("endTime"))
		assert.Equal(t, fmt.Sprint(maxKlines), q.Get("limit"))
		fmt.Fprintf(w, "[%s]", kline(to.AddDate(0, 0, -1).UnixMilli(), "100", "110", "95", "105"))
	})

	bars, err := c.Bars(context.Background(), "BTCUSDT", models.PriceTimeFrame1d, time.Time{}, to)
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, int32(1), calls.Load())
}

package influx

import (
	"context"
	"testing"
	"time"

	"SignalTradeBot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFluxQuery(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	q, err := fluxQuery("financial-data", "stock_prices", "EURUSD=X", from, to)
	require.NoError(t, err)
	assert.Contains(t, q, `from(bucket: "financial-data")`)
	assert.Contains(t, q, "range(start: 2024-01-01T00:00:00Z, stop: 2024-07-01T00:00:00Z)")
	assert.Contains(t, q, `r.ticker == "EURUSD=X"`)
	assert.Contains(t, q, "pivot(")

	open, err := fluxQuery("b", "m", "AAPL", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Contains(t, open, "range(start: 0, stop: now())")
}

func TestFluxQueryRejectsInjection(t *testing.T) {
	for _, s := range []string{"", `AAPL") |> drop(`, "aapl", "TOOLONGSYMBOL123"} {
		_, err := fluxQuery("b", "m", s, time.Time{}, time.Time{})
		assert.ErrorIs(t, err, models.ErrInvalidInput, s)
	}
}

func TestBarFromValues(t *testing.T) {
	at := time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC)

	bar, ok := barFromValues("AAPL", "1d", at, map[string]any{
		"open": 180.0, "high": 185.5, "low": 179.0, "close": 184.0, "volume": int64(5000),
	})
	require.True(t, ok)
	assert.Equal(t, at, bar.OpenTime)
	assert.Equal(t, 185.5, bar.High)
	assert.Equal(t, 5000.0, bar.Volume)

	_, ok = barFromValues("AAPL", "1d", at, map[string]any{"open": 1.0, "high": 2.0, "low": 0.5})
	assert.False(t, ok)
}

func TestBarsRejectsOtherIntervals(t *testing.T) {
	src := NewSource(Config{URL: "http://localhost:8086", Token: "t", Org: "o", Bucket: "b"})
	defer src.Close()

	_, err := src.Bars(context.Background(), "AAPL", models.PriceTimeFrame1h, time.Time{}, time.Time{})
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

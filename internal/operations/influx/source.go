// Package influx reads OHLC history for forex and equity symbols from
// InfluxDB.
package influx

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"SignalTradeBot/internal/models"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
)

// symbolPattern also admits the "=X" suffix used by forex pairs.
var symbolPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9.=\-]{0,11}$`)

type Config struct {
	URL         string
	Token       string
	Org         string
	Bucket      string
	Measurement string
	Interval    string // resolution of the stored series
}

// Source serves bars stored as one point per bar with open, high, low,
// close and volume fields and a ticker tag.
type Source struct {
	client influxdb2.Client
	query  api.QueryAPI
	cfg    Config
}

func NewSource(cfg Config) *Source {
	if cfg.Measurement == "" {
		cfg.Measurement = "stock_prices"
	}
	if cfg.Interval == "" {
		cfg.Interval = models.PriceTimeFrame1d
	}
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &Source{
		client: client,
		query:  client.QueryAPI(cfg.Org),
		cfg:    cfg,
	}
}

func (s *Source) Close() {
	s.client.Close()
}

func (s *Source) Bars(ctx context.Context, symbol, interval string, from, to time.Time) ([]models.Price, error) {
	if interval != s.cfg.Interval {
		return nil, fmt.Errorf("%w: influx source stores %s bars, %s requested", models.ErrInvalidInput, s.cfg.Interval, interval)
	}
	q, err := fluxQuery(s.cfg.Bucket, s.cfg.Measurement, symbol, from, to)
	if err != nil {
		return nil, err
	}

	slog.Info("fetching OHLC data from InfluxDB", "symbol", symbol, "start", from.Format(time.DateOnly), "end", to.Format(time.DateOnly))

	result, err := s.query.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("influx query for %s: %w", symbol, err)
	}
	defer result.Close()

	var bars []models.Price
	for result.Next() {
		rec := result.Record()
		if bar, ok := barFromValues(symbol, interval, rec.Time(), rec.Values()); ok {
			bars = append(bars, bar)
		}
	}
	if result.Err() != nil {
		return nil, fmt.Errorf("reading influx results for %s: %w", symbol, result.Err())
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: %s between %s and %s", models.ErrNoData, symbol, from.Format(time.DateOnly), to.Format(time.DateOnly))
	}

	slog.Info("fetched OHLC data", "symbol", symbol, "points", len(bars))
	return bars, nil
}

func fluxQuery(bucket, measurement, symbol string, from, to time.Time) (string, error) {
	if !symbolPattern.MatchString(symbol) {
		return "", fmt.Errorf("%w: invalid symbol %q", models.ErrInvalidInput, symbol)
	}
	start := "0"
	if !from.IsZero() {
		start = from.UTC().Format(time.RFC3339)
	}
	stop := "now()"
	if !to.IsZero() {
		stop = to.UTC().Format(time.RFC3339)
	}

	return fmt.Sprintf(`from(bucket: "%s")
  |> range(start: %s, stop: %s)
  |> filter(fn: (r) => r._measurement == "%s")
  |> filter(fn: (r) => r.ticker == "%s")
  |> pivot(rowKey:["_time"], columnKey: ["_field"], valueColumn: "_value")
  |> sort(columns: ["_time"], desc: false)`, bucket, start, stop, measurement, symbol), nil
}

// barFromValues maps one pivoted row to a bar. Rows missing a price field
// are dropped; a missing volume is zero.
func barFromValues(symbol, interval string, at time.Time, values map[string]any) (models.Price, bool) {
	bar := models.Price{Symbol: symbol, TimeFrame: interval, OpenTime: at.UTC(), CloseTime: at.UTC()}
	fields := []struct {
		key string
		dst *float64
	}{
		{"open", &bar.Open},
		{"high", &bar.High},
		{"low", &bar.Low},
		{"close", &bar.Close},
	}
	for _, f := range fields {
		v, ok := number(values[f.key])
		if !ok {
			return models.Price{}, false
		}
		*f.dst = v
	}
	bar.Volume, _ = number(values["volume"])
	return bar, true
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

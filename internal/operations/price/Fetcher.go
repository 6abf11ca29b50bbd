package price

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"SignalTradeBot/internal/models"
)

// Source is anything that can serve bars for a range.
type Source interface {
	Bars(ctx context.Context, symbol, interval string, from, to time.Time) ([]models.Price, error)
}

// Store is where fetched bars are recorded.
type Store interface {
	Upsert(ctx context.Context, prices []models.Price) error
	GetLatestPriceByTimeFrame(ctx context.Context, symbol, timeFrame string) (*models.Price, error)
}

// PriceFetcher copies history from a source into the store, resuming after
// the latest recorded bar.
type PriceFetcher struct {
	source  Source
	store   Store
	symbols []string
	now     func() time.Time
}

func NewPriceFetcher(source Source, store Store, symbols []string) *PriceFetcher {
	return &PriceFetcher{
		source:  source,
		store:   store,
		symbols: symbols,
		now:     time.Now,
	}
}

// SyncResult counts the bars recorded for one symbol and timeframe.
type SyncResult struct {
	Symbol    string
	TimeFrame string
	Bars      int
	Err       error
}

// Sync fetches up to days of history per symbol. Failures are reported per
// symbol and do not stop the remaining symbols.
func (f *PriceFetcher) Sync(ctx context.Context, timeframe string, days int) []SyncResult {
	results := make([]SyncResult, 0, len(f.symbols))
	for _, symbol := range f.symbols {
		if ctx.Err() != nil {
			break
		}
		n, err := f.SyncSymbol(ctx, symbol, timeframe, days)
		if err != nil {
			slog.Error("price sync failed", "symbol", symbol, "timeframe", timeframe, "error", err)
		}
		results = append(results, SyncResult{Symbol: symbol, TimeFrame: timeframe, Bars: n, Err: err})
	}
	return results
}

func (f *PriceFetcher) SyncSymbol(ctx context.Context, symbol, timeframe string, days int) (int, error) {
	end := f.now().UTC()
	start := end.AddDate(0, 0, -days)

	latest, err := f.store.GetLatestPriceByTimeFrame(ctx, symbol, timeframe)
	if err != nil {
		return 0, fmt.Errorf("latest %s %s bar: %w", symbol, timeframe, err)
	}
	if latest != nil && latest.OpenTime.After(start) {
		// re-fetch the latest bar, it may have been recorded before it closed
		start = latest.OpenTime
	}

	prices, err := f.source.Bars(ctx, symbol, timeframe, start, end)
	if errors.Is(err, models.ErrNoData) {
		slog.Info("no new bars", "symbol", symbol, "timeframe", timeframe)
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	if err := f.store.Upsert(ctx, prices); err != nil {
		return 0, fmt.Errorf("record %s %s bars: %w", symbol, timeframe, err)
	}

	slog.Info("recorded bars",
		"symbol", symbol,
		"timeframe", timeframe,
		"count", len(prices),
		"from", start.Format(time.DateTime),
		"to", end.Format(time.DateTime))

	return len(prices), nil
}

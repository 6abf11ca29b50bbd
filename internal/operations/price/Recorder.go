package price

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"SignalTradeBot/internal/models"
)

var tickIntervals = map[string]time.Duration{
	models.PriceTimeFrame5m:  5 * time.Minute,
	models.PriceTimeFrame15m: 15 * time.Minute,
	models.PriceTimeFrame1h:  time.Hour,
	models.PriceTimeFrame4h:  4 * time.Hour,
	models.PriceTimeFrame1d:  24 * time.Hour,
}

// PriceRecorder keeps the store current by syncing each timeframe on its own
// ticker.
type PriceRecorder struct {
	fetcher *PriceFetcher
}

func NewPriceRecorder(fetcher *PriceFetcher) *PriceRecorder {
	return &PriceRecorder{fetcher: fetcher}
}

// StartRecording blocks until ctx is done.
func (r *PriceRecorder) StartRecording(ctx context.Context, timeframes []string) {
	var wg sync.WaitGroup
	for _, tf := range timeframes {
		interval, ok := tickIntervals[tf]
		if !ok {
			slog.Warn("no recording interval for timeframe", "timeframe", tf)
			continue
		}
		wg.Add(1)
		go func(tf string, interval time.Duration) {
			defer wg.Done()
			r.recordTimeframe(ctx, tf, interval)
		}(tf, interval)
	}
	wg.Wait()
}

func (r *PriceRecorder) recordTimeframe(ctx context.Context, timeframe string, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("starting price recording", "timeframe", timeframe, "every", interval)

	for {
		select {
		case <-ctx.Done():
			slog.Info("stopping price recording", "timeframe", timeframe)
			return
		case <-ticker.C:
			r.fetcher.Sync(ctx, timeframe, 1)
		}
	}
}

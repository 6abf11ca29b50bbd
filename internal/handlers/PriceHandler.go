package handlers

import (
	"context"
	"errors"
	"log/slog"

	"SignalTradeBot/internal/operations/price"
)

type PriceHandler struct {
	priceFetcher  *price.PriceFetcher
	priceRecorder *price.PriceRecorder
}

func NewPriceHandler(source price.Source, store price.Store, symbols []string) *PriceHandler {
	fetcher := price.NewPriceFetcher(source, store, symbols)
	return &PriceHandler{
		priceFetcher:  fetcher,
		priceRecorder: price.NewPriceRecorder(fetcher),
	}
}

// Backfill records days of history for every timeframe. It fails only when
// every symbol of every timeframe failed.
func (h *PriceHandler) Backfill(ctx context.Context, timeframes []string, days int) ([]price.SyncResult, error) {
	var all []price.SyncResult
	var errs []error
	for _, tf := range timeframes {
		slog.Info("fetching historical data", "timeframe", tf, "days", days)
		for _, r := range h.priceFetcher.Sync(ctx, tf, days) {
			all = append(all, r)
			if r.Err != nil {
				errs = append(errs, r.Err)
			}
		}
	}
	if len(all) > 0 && len(errs) == len(all) {
		return all, errors.Join(errs...)
	}
	return all, ctx.Err()
}

// Follow keeps recording new bars until ctx is done.
func (h *PriceHandler) Follow(ctx context.Context, timeframes []string) {
	h.priceRecorder.StartRecording(ctx, timeframes)
}

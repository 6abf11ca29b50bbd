package binance

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"SignalTradeBot/internal/models"

	"github.com/adshao/go-binance/v2/futures"
	"golang.org/x/time/rate"
)

const (
	maxKlines  = 1500 // futures klines page limit
	maxRetries = 3
)

// intervals maps bar intervals to Binance kline intervals.
var intervals = map[string]string{
	models.PriceTimeFrame5m:  "5m",
	models.PriceTimeFrame15m: "15m",
	models.PriceTimeFrame1h:  "1h",
	models.PriceTimeFrame4h:  "4h",
	models.PriceTimeFrame1d:  "1d",
	models.PriceTimeFrame1w:  "1w",
}

type BinanceClient struct {
	client      *futures.Client
	rateLimiter *rate.Limiter
	backoff     time.Duration
}

func NewBinanceClient(apiKey, secretKey string) *BinanceClient {
	// Create custom HTTP client with timeouts
	httpClient := &http.Client{
		Timeout: time.Second * 10,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	futuresClient := futures.NewClient(apiKey, secretKey)
	futuresClient.HTTPClient = httpClient

	// 10 requests per second with burst of 20
	limiter := rate.NewLimiter(rate.Limit(10), 20)

	return &BinanceClient{
		client:      futuresClient,
		rateLimiter: limiter,
		backoff:     100 * time.Millisecond,
	}
}

// WithBaseURL points the client at another futures endpoint, such as the
// testnet.
func (c *BinanceClient) WithBaseURL(url string) *BinanceClient {
	c.client.BaseURL = url
	return c
}

// GetKlines fetches one page of klines, retrying with exponential backoff.
func (c *BinanceClient) GetKlines(ctx context.Context, symbol, interval string, startTime, endTime int64) ([]*futures.Kline, error) {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}

		svc := c.client.NewKlinesService().
			Symbol(symbol).
			Interval(interval).
			Limit(maxKlines)
		if startTime > 0 {
			svc = svc.StartTime(startTime)
		}
		if endTime > 0 {
			svc = svc.EndTime(endTime)
		}

		klines, err := svc.Do(ctx)
		if err == nil {
			return klines, nil
		}
		lastErr = err

		if attempt == maxRetries {
			break
		}

		waitTime := time.Duration(math.Pow(2, float64(attempt))) * c.backoff
		slog.Warn("kline request failed, retrying",
			"symbol", symbol, "interval", interval, "attempt", attempt+1, "wait", waitTime, "error", err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(waitTime):
		}
	}

	return nil, fmt.Errorf("klines %s %s after %d attempts: %w", symbol, interval, maxRetries+1, lastErr)
}

// Bars pages through klines for [from, to]; a zero to means now. With a
// zero from no start time is sent, so Binance returns only the latest page
// of up to 1500 klines ending at to.
func (c *BinanceClient) Bars(ctx context.Context, symbol, interval string, from, to time.Time) ([]models.Price, error) {
	bi, ok := intervals[interval]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported interval %q", models.ErrInvalidInput, interval)
	}
	if to.IsZero() {
		to = time.Now()
	}
	end := to.UnixMilli()
	start := int64(0)
	if !from.IsZero() {
		start = from.UnixMilli()
	}

	var out []models.Price
	for {
		klines, err := c.GetKlines(ctx, symbol, bi, start, end)
		if err != nil {
			return nil, err
		}
		for _, k := range klines {
			out = append(out, toPrice(symbol, interval, k))
		}

		slog.Debug("fetched klines", "symbol", symbol, "interval", interval, "count", len(klines),
			"from", time.UnixMilli(start).UTC().Format(time.DateTime))

		if len(klines) < maxKlines {
			break
		}
		next := klines[len(klines)-1].OpenTime + 1
		if next > end || next <= start {
			break
		}
		start = next
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s %s", models.ErrNoData, symbol, interval)
	}
	return out, nil
}

func toPrice(symbol, interval string, k *futures.Kline) models.Price {
	return models.Price{
		Symbol:     symbol,
		TimeFrame:  interval,
		OpenTime:   time.UnixMilli(k.OpenTime).UTC(),
		CloseTime:  time.UnixMilli(k.CloseTime).UTC(),
		Open:       parseFloat(k.Open),
		High:       parseFloat(k.High),
		Low:        parseFloat(k.Low),
		Close:      parseFloat(k.Close),
		Volume:     parseFloat(k.Volume),
		TradeCount: k.TradeNum,
	}
}

// parseFloat maps unparsable values to NaN so the engine rejects the bar
// instead of trading on a zero price.
func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		slog.Warn("unparsable kline value", "value", s, "error", err)
		return math.NaN()
	}
	return f
}

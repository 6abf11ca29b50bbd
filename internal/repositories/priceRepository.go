package repositories

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"SignalTradeBot/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const batchSize = 500

type PriceRepository struct {
	db *gorm.DB
}

// NewPriceRepository creates a new instance of PriceRepository
func NewPriceRepository(db *gorm.DB) *PriceRepository {
	return &PriceRepository{db: db}
}

// Upsert stores bars, replacing OHLCV values of bars already recorded for
// the same symbol, timeframe and open time.
func (r *PriceRepository) Upsert(ctx context.Context, prices []models.Price) error {
	if len(prices) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(upsertClause()).
		CreateInBatches(prices, batchSize).Error
}

func upsertClause() clause.OnConflict {
	return clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}, {Name: "time_frame"}, {Name: "open_time"}},
		DoUpdates: clause.AssignmentColumns([]string{"close_time", "open", "high", "low", "close", "volume", "trade_count"}),
	}
}

// GetPricesByTimeFrame gets price data for a specific symbol and timeframe
func (r *PriceRepository) GetPricesByTimeFrame(ctx context.Context, symbol, timeFrame string, start, end time.Time) ([]models.Price, error) {
	if symbol == "" || timeFrame == "" {
		return nil, fmt.Errorf("%w: symbol and timeframe are required", models.ErrInvalidInput)
	}

	var prices []models.Price
	err := r.rangeQuery(r.db.WithContext(ctx), symbol, timeFrame, start, end).Find(&prices).Error
	if err != nil {
		return nil, fmt.Errorf("load %s %s bars: %w", symbol, timeFrame, err)
	}

	slog.Debug("loaded bars",
		"symbol", symbol,
		"timeframe", timeFrame,
		"count", len(prices),
		"from", start.Format(time.DateTime),
		"to", end.Format(time.DateTime))

	return prices, nil
}

// rangeQuery selects bars in [start, end]; a zero bound is open.
func (r *PriceRepository) rangeQuery(tx *gorm.DB, symbol, timeFrame string, start, end time.Time) *gorm.DB {
	q := tx.Model(&models.Price{}).Where("symbol = ? AND time_frame = ?", symbol, timeFrame)
	if !start.IsZero() {
		q = q.Where("open_time >= ?", start)
	}
	if !end.IsZero() {
		q = q.Where("open_time <= ?", end)
	}
	return q.Order("open_time ASC")
}

// Bars serves recorded history to the backtest engine. An empty range is
// reported as models.ErrNoData.
func (r *PriceRepository) Bars(ctx context.Context, symbol, interval string, from, to time.Time) ([]models.Price, error) {
	prices, err := r.GetPricesByTimeFrame(ctx, symbol, interval, from, to)
	if err != nil {
		return nil, err
	}
	if len(prices) == 0 {
		return nil, fmt.Errorf("%w: %s %s", models.ErrNoData, symbol, interval)
	}
	return prices, nil
}

// GetLatestPriceByTimeFrame gets the most recent price for a symbol and timeframe
func (r *PriceRepository) GetLatestPriceByTimeFrame(ctx context.Context, symbol, timeFrame string) (*models.Price, error) {
	if symbol == "" || timeFrame == "" {
		return nil, fmt.Errorf("%w: symbol and timeframe are required", models.ErrInvalidInput)
	}

	var price models.Price
	err := r.db.WithContext(ctx).
		Where("symbol = ? AND time_frame = ?", symbol, timeFrame).
		Order("open_time DESC").
		First(&price).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &price, err
}

// CountByTimeFrame returns the number of bars recorded for symbol and timeframe.
func (r *PriceRepository) CountByTimeFrame(ctx context.Context, symbol, timeFrame string) (int64, error) {
	var n int64
	err := countQuery(r.db.WithContext(ctx), symbol, timeFrame).Count(&n).Error
	return n, err
}

func countQuery(tx *gorm.DB, symbol, timeFrame string) *gorm.DB {
	return tx.Model(&models.Price{}).Where("symbol = ? AND time_frame = ?", symbol, timeFrame)
}

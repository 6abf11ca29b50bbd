package models

import (
	"time"
)

// Price is one OHLCV bar. The backtest engine, risk calibrator and indicator
// services all consume bars in this shape.
type Price struct {
	ID         uint      `gorm:"primaryKey" json:"-"`
	Symbol     string    `gorm:"uniqueIndex:idx_prices_symbol_tf_open;not null" json:"symbol"`
	TimeFrame  string    `gorm:"uniqueIndex:idx_prices_symbol_tf_open;not null" json:"timeFrame"`
	OpenTime   time.Time `gorm:"uniqueIndex:idx_prices_symbol_tf_open;not null" json:"openTime"`
	CloseTime  time.Time `gorm:"index" json:"closeTime"`
	Open       float64   `gorm:"type:decimal(20,8)" json:"open"`
	Close      float64   `gorm:"type:decimal(20,8)" json:"close"`
	High       float64   `gorm:"type:decimal(20,8)" json:"high"`
	Low        float64   `gorm:"type:decimal(20,8)" json:"low"`
	Volume     float64   `gorm:"type:decimal(20,8)" json:"volume"`
	TradeCount int64     `json:"tradeCount"`
}

const (
	PriceTimeFrame5m  = "5m"
	PriceTimeFrame15m = "15m"
	PriceTimeFrame1h  = "1h"
	PriceTimeFrame4h  = "4h"
	PriceTimeFrame1d  = "1d"
	PriceTimeFrame1w  = "1wk"
)

// TableName sets the table name for Price model
func (Price) TableName() string {
	return "prices"
}

// Closes extracts the closing prices of a bar series.
func Closes(prices []Price) []float64 {
	out := make([]float64, len(prices))
	for i, p := range prices {
		out[i] = p.Close
	}
	return out
}

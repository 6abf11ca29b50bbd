package models

import "time"

// Direction is the side of an entry plan or position.
type Direction string

const (
	DirectionLong    Direction = "LONG"
	DirectionShort   Direction = "SHORT"
	DirectionNoTrade Direction = "NO TRADE"
)

const (
	ExitStopLoss    = "STOP_LOSS"
	ExitTakeProfit  = "TAKE_PROFIT"
	ExitEndOfPeriod = "END_OF_PERIOD"
)

// BacktestRun is the persisted summary of one simulation.
type BacktestRun struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)"`
	Symbol    string    `gorm:"index;not null"`
	TimeFrame string    `gorm:"not null"`
	StartTime time.Time `gorm:"index"`
	EndTime   time.Time `gorm:"index"`

	InitialCapital float64  `gorm:"type:decimal(20,8);not null"`
	FinalCapital   float64  `gorm:"type:decimal(20,8);not null"`
	TotalTrades    int      `gorm:"not null"`
	WinRate        float64  `gorm:"type:decimal(10,4)"`
	ProfitFactor   *float64 `gorm:"type:decimal(20,8)"`
	SharpeRatio    float64  `gorm:"type:decimal(20,8)"`
	MaxDrawdown    float64  `gorm:"type:decimal(10,4)"`
	Message        string

	CreatedAt time.Time `gorm:"autoCreateTime"`

	Trades []Trade        `gorm:"foreignKey:RunID"`
	Equity []EquitySample `gorm:"foreignKey:RunID"`
}

// Trade is a closed simulated position.
type Trade struct {
	ID     uint   `gorm:"primaryKey"`
	RunID  string `gorm:"index;not null;type:varchar(36)"`
	Symbol string `gorm:"index;not null"`
	Side   string `gorm:"not null"`

	EntryTime  time.Time `gorm:"index;not null"`
	EntryPrice float64   `gorm:"type:decimal(20,8);not null"`
	ExitTime   time.Time `gorm:"index;not null"`
	ExitPrice  float64   `gorm:"type:decimal(20,8);not null"`
	ExitReason string    `gorm:"not null"`

	StopLossPrice   float64 `gorm:"type:decimal(20,8);not null"`
	TakeProfitPrice float64 `gorm:"type:decimal(20,8);not null"`
	Size            float64 `gorm:"type:decimal(20,8);not null"`
	RiskAmount      float64 `gorm:"type:decimal(20,8)"`
	CapitalAtEntry  float64 `gorm:"type:decimal(20,8)"`

	PnL          float64 `gorm:"type:decimal(20,8)"`
	PnLPercent   float64 `gorm:"type:decimal(20,8)"`
	FinalCapital float64 `gorm:"type:decimal(20,8)"`

	Signal       string
	SignalScore  int
	Confidence   float64  `gorm:"type:decimal(10,4)"`
	MLDirection  string
	MLConfidence *float64 `gorm:"type:decimal(10,4)"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// EquitySample is one point of a run's equity curve.
type EquitySample struct {
	ID        uint      `gorm:"primaryKey"`
	RunID     string    `gorm:"index;not null;type:varchar(36)"`
	Seq       int       `gorm:"not null"`
	Timestamp time.Time `gorm:"not null"`
	Capital   float64   `gorm:"type:decimal(20,8);not null"`
}

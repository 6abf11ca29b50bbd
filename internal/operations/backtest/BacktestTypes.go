package backtest

import (
	"context"
	"fmt"
	"time"

	"SignalTradeBot/internal/models"
	"SignalTradeBot/internal/services/analysis"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

const (
	DefaultCapital     = 10000.0
	DefaultRiskPercent = 1.0
	DefaultLookback    = 250
	progressEvery      = 50
)

// Config is the per-run simulation setup.
type Config struct {
	Symbol         string    `json:"symbol" validate:"required"`
	Interval       string    `json:"interval" validate:"required"`
	InitialCapital float64   `json:"initial_capital" validate:"gt=0"`
	RiskPercent    float64   `json:"risk_percent" validate:"gt=0,lte=100"`
	Lookback       int       `json:"lookback" validate:"gte=0"` // bars handed to the collaborator, 0 = default
	From           time.Time `json:"from"`
	To             time.Time `json:"to"`
}

// NewConfig creates default config
func NewConfig(symbol, interval string) Config {
	return Config{
		Symbol:         symbol,
		Interval:       interval,
		InitialCapital: DefaultCapital,
		RiskPercent:    DefaultRiskPercent,
		Lookback:       DefaultLookback,
	}
}

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: backtest config: %v", models.ErrInvalidInput, err)
	}
	return nil
}

// Snapshot is everything the collaborator knows about one bar window.
type Snapshot struct {
	Indicators analysis.IndicatorBundle   `json:"indicators"`
	Sentiment  float64                    `json:"sentiment"`
	Patterns   []analysis.PatternEvidence `json:"patterns"`
	Prediction *analysis.Prediction       `json:"prediction,omitempty"`
}

// Collaborator supplies indicators, sentiment, patterns and an optional ML
// prediction for a trailing bar window. A nil snapshot or an error makes the
// bar non-actionable.
type Collaborator interface {
	Evaluate(ctx context.Context, window []models.Price) (*Snapshot, error)
}

// BarSource loads bars for a symbol and interval in [from, to].
type BarSource interface {
	Bars(ctx context.Context, symbol, interval string, from, to time.Time) ([]models.Price, error)
}

// Observer receives engine events. Implementations must not block.
type Observer interface {
	TradeClosed(symbol string, t Trade)
	BarSkipped(symbol string)
	RunFinished(symbol string, r *Result, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) TradeClosed(string, Trade) {}
func (nopObserver) BarSkipped(string) {}
func (nopObserver) RunFinished(string, *Result, time.Duration) {}

// Position is the open position owned by a run.
type Position struct {
	Symbol         string                       `json:"symbol"`
	Direction      models.Direction             `json:"direction"`
	EntryDate      time.Time                    `json:"entry_date"`
	EntryPrice     float64                      `json:"entry_price"`
	StopLoss       float64                      `json:"stop_loss"`
	TakeProfit     float64                      `json:"take_profit"`
	StopMethod     string                       `json:"stop_method"`
	PositionSize   float64                      `json:"position_size"`
	RiskAmount     float64                      `json:"risk_amount"`
	CapitalAtEntry float64                      `json:"capital_at_entry"`
	Signal         analysis.SignalClass         `json:"signal"`
	SignalScore    int                          `json:"signal_score"`
	SignalStrength float64                      `json:"signal_strength"`
	EntryScore     int                          `json:"score"`
	MLDirection    analysis.PredictionDirection `json:"ml_prediction,omitempty"`
	MLConfidence   *float64                     `json:"ml_confidence,omitempty"`
}

// Trade is a closed position.
type Trade struct {
	Position
	ExitDate     time.Time `json:"exit_date"`
	ExitPrice    float64   `json:"exit_price"`
	ExitReason   string    `json:"exit_reason"`
	PnL          float64   `json:"pnl"`
	PnLPercent   float64   `json:"pnl_percent"` // of capital at entry
	FinalCapital float64   `json:"final_capital"`
}

// EquityPoint is one capital sample.
type EquityPoint struct {
	Timestamp time.Time `json:"date"`
	Capital   float64   `json:"capital"`
}

// Result is the outcome of one run. A run that could not load data carries
// an empty trade log and a Message instead of an error.
type Result struct {
	RunID          string        `json:"run_id"`
	Symbol         string        `json:"symbol"`
	Interval       string        `json:"interval"`
	InitialCapital float64       `json:"initial_capital"`
	FinalCapital   float64       `json:"final_capital"`
	Trades         []Trade       `json:"trades"`
	EquityCurve    []EquityPoint `json:"equity_curve"`
	BarsProcessed  int           `json:"bars_processed"`
	SkippedBars    int           `json:"skipped_bars"`
	Message        string        `json:"message,omitempty"`
}

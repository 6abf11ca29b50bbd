package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"SignalTradeBot/internal/models"
	"SignalTradeBot/internal/operations/backtest"
	"SignalTradeBot/internal/services/analysis"
	"SignalTradeBot/internal/services/sizing"
	"SignalTradeBot/internal/services/strategy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func uptrend(symbol string, n int) []models.Price {
	out := make([]models.Price, n)
	for i := range out {
		c := 100 + float64(i)
		out[i] = models.Price{Symbol: symbol, TimeFrame: "1d", OpenTime: start.AddDate(0, 0, i), Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 1000}
	}
	return out
}

type mapSource map[string][]models.Price

func (m mapSource) Bars(_ context.Context, symbol, _ string, _, _ time.Time) ([]models.Price, error) {
	bars, ok := m[symbol]
	if !ok {
		return nil, models.ErrNoData
	}
	return bars, nil
}

// bullishAt fires a strong bullish snapshot on the bar at index 120.
type bullishAt struct{}

func (bullishAt) Evaluate(_ context.Context, window []models.Price) (*backtest.Snapshot, error) {
	if window[len(window)-1].OpenTime.Equal(start.AddDate(0, 0, 120)) {
		return &backtest.Snapshot{
			Indicators: analysis.IndicatorBundle{RSI: analysis.Value(25), StochK: analysis.Value(15), StochD: analysis.Value(15), MFI: analysis.Value(15)},
			Patterns:   []analysis.PatternEvidence{{Name: "Hammer", Bias: analysis.PatternBullish, Strength: 8}},
		}, nil
	}
	return &backtest.Snapshot{Indicators: analysis.IndicatorBundle{RSI: analysis.Value(50)}}, nil
}

type memoryStore struct {
	mu   sync.Mutex
	runs []*models.BacktestRun
	err  error
}

func (s *memoryStore) Create(_ context.Context, run *models.BacktestRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.runs = append(s.runs, run)
	return nil
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBacktestHandlerRunsSymbolsIndependently(t *testing.T) {
	src := mapSource{"AAA": uptrend("AAA", 150), "BBB": uptrend("BBB", 150)}
	store := &memoryStore{}
	h := NewBacktestHandler(backtest.NewEngine(bullishAt{}, backtest.WithLogger(quiet())), src, store)

	out, err := h.Run(context.Background(), BacktestRequest{
		Symbols: []string{"AAA", "BBB", "MISSING"}, Interval: "1d", Capital: 10000, RiskPercent: 1,
	})
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.Equal(t, "AAA", out[0].Result.Symbol)
	assert.Len(t, out[0].Result.Trades, 1)
	assert.Len(t, out[1].Result.Trades, 1)
	assert.Equal(t, out[0].Result.FinalCapital, out[1].Result.FinalCapital)
	assert.NotEqual(t, out[0].Result.RunID, out[1].Result.RunID)

	assert.Empty(t, out[2].Result.Trades)
	assert.Contains(t, out[2].Result.Message, "data fetch failed")
	assert.Zero(t, out[2].Report.TotalTrades)

	assert.Len(t, store.runs, 3)
}

func TestBacktestHandlerErrors(t *testing.T) {
	engine := backtest.NewEngine(bullishAt{}, backtest.WithLogger(quiet()))
	src := mapSource{"AAA": uptrend("AAA", 150)}

	_, err := NewBacktestHandler(engine, src, nil).Run(context.Background(), BacktestRequest{Interval: "1d", Capital: 1, RiskPercent: 1})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = NewBacktestHandler(engine, src, nil).Run(context.Background(), BacktestRequest{
		Symbols: []string{"AAA"}, Interval: "1d", Capital: -5, RiskPercent: 1,
	})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	store := &memoryStore{err: errors.New("db down")}
	_, err = NewBacktestHandler(engine, src, store).Run(context.Background(), BacktestRequest{
		Symbols: []string{"AAA"}, Interval: "1d", Capital: 10000, RiskPercent: 1,
	})
	assert.ErrorContains(t, err, "db down")
}

func TestStrategyHandlerEvaluate(t *testing.T) {
	src := mapSource{"AAA": uptrend("AAA", 121)}
	h := NewStrategyHandler(src, bullishAt{}, strategy.NewEntryPolicy(strategy.DefaultPolicyTable()))

	rep, err := h.Evaluate(context.Background(), "AAA", "1d", sizing.Account{Capital: 10000, RiskPercent: 1, Leverage: 1})
	require.NoError(t, err)

	assert.Equal(t, analysis.StrongBuy, rep.Signal.Class)
	assert.True(t, rep.Decision.Enter)
	assert.Equal(t, models.DirectionLong, rep.Plan.Direction)
	assert.InDelta(t, 216, rep.Plan.StopLoss, 1e-9)
	require.NotNil(t, rep.Sizing)
	assert.InDelta(t, 25, rep.Sizing.PositionSize, 1e-9)

	_, err = h.Evaluate(context.Background(), "AAA", "1d", sizing.Account{Capital: 0, RiskPercent: 1, Leverage: 1})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	all := h.EvaluateAll(context.Background(), []string{"AAA", "MISSING"}, "1d", sizing.Account{Capital: 10000, RiskPercent: 1, Leverage: 1})
	assert.Len(t, all, 1)
}

type emptySnapshot struct{}

func (emptySnapshot) Evaluate(context.Context, []models.Price) (*backtest.Snapshot, error) {
	return nil, nil
}

func TestStrategyHandlerMissingData(t *testing.T) {
	acct := sizing.Account{Capital: 10000, RiskPercent: 1, Leverage: 1}
	policy := strategy.NewEntryPolicy(strategy.DefaultPolicyTable())

	h := NewStrategyHandler(mapSource{"AAA": uptrend("AAA", 121)}, emptySnapshot{}, policy)
	_, err := h.Evaluate(context.Background(), "AAA", "1d", acct)
	assert.ErrorIs(t, err, models.ErrNoData)

	h = NewStrategyHandler(mapSource{"AAA": {}}, bullishAt{}, policy)
	_, err = h.Evaluate(context.Background(), "AAA", "1d", acct)
	assert.ErrorIs(t, err, models.ErrNoData)

	assert.Empty(t, h.EvaluateAll(context.Background(), []string{"AAA"}, "1d", acct))
}

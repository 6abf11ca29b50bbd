package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"SignalTradeBot/internal/models"
	"SignalTradeBot/internal/operations/backtest"

	"golang.org/x/sync/errgroup"
)

const maxParallelRuns = 4

// RunStore persists finished runs.
type RunStore interface {
	Create(ctx context.Context, run *models.BacktestRun) error
}

// Outcome is one symbol's run and its report.
type Outcome struct {
	Result *backtest.Result `json:"result"`
	Report backtest.Report  `json:"report"`
}

// BacktestRequest describes a batch of independent runs sharing account
// parameters.
type BacktestRequest struct {
	Symbols     []string
	Interval    string
	From, To    time.Time
	Capital     float64
	RiskPercent float64
}

// BacktestHandler runs one simulation per symbol in parallel.
type BacktestHandler struct {
	engine *backtest.Engine
	source backtest.BarSource
	store  RunStore // optional
}

func NewBacktestHandler(engine *backtest.Engine, source backtest.BarSource, store RunStore) *BacktestHandler {
	return &BacktestHandler{
		engine: engine,
		source: source,
		store:  store,
	}
}

// Run returns outcomes in request order. Invalid parameters and persistence
// failures are errors; data problems are reported in each Result.Message.
func (h *BacktestHandler) Run(ctx context.Context, req BacktestRequest) ([]Outcome, error) {
	if len(req.Symbols) == 0 {
		return nil, fmt.Errorf("%w: no symbols", models.ErrInvalidInput)
	}

	outcomes := make([]Outcome, len(req.Symbols))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelRuns)

	for i, symbol := range req.Symbols {
		g.Go(func() error {
			cfg := backtest.NewConfig(symbol, req.Interval)
			cfg.InitialCapital = req.Capital
			cfg.RiskPercent = req.RiskPercent
			cfg.From, cfg.To = req.From, req.To

			res, err := h.engine.RunFromSource(gCtx, cfg, h.source)
			if err != nil {
				return fmt.Errorf("backtest %s: %w", symbol, err)
			}
			rep := backtest.Analyze(res.InitialCapital, res.Trades, res.EquityCurve)
			outcomes[i] = Outcome{Result: res, Report: rep}

			if h.store == nil {
				return nil
			}
			if err := h.store.Create(gCtx, res.Record(rep)); err != nil {
				return fmt.Errorf("store run %s for %s: %w", res.RunID, symbol, err)
			}
			slog.Info("stored backtest run", "run", res.RunID, "symbol", symbol, "trades", len(res.Trades))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return outcomes, err
	}
	return outcomes, nil
}

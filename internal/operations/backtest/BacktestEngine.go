package backtest

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"SignalTradeBot/internal/models"
	"SignalTradeBot/internal/services/analysis"
	"SignalTradeBot/internal/services/risk"
	"SignalTradeBot/internal/services/sizing"
	"SignalTradeBot/internal/services/strategy"

	"github.com/google/uuid"
)

const (
	fallbackStop   = 0.03
	fallbackTarget = 0.06
)

// Engine walks a bar sequence and simulates one position at a time. The
// engine holds only shared, stateless components; every Run keeps its own
// capital, position and trade log, so independent runs may share an Engine.
type Engine struct {
	collaborator Collaborator
	scorer       *analysis.Scorer
	calibrator   *risk.Calibrator
	sizer        *sizing.Sizer
	policy       *strategy.EntryPolicy
	observer     Observer
	logger       *slog.Logger
}

type Option func(*Engine)

func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observer = o
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

func WithPolicy(p *strategy.EntryPolicy) Option {
	return func(e *Engine) {
		if p != nil {
			e.policy = p
		}
	}
}

func NewEngine(collaborator Collaborator, opts ...Option) *Engine {
	e := &Engine{
		collaborator: collaborator,
		scorer:       analysis.NewScorer(),
		calibrator:   risk.NewCalibrator(),
		sizer:        sizing.NewSizer(),
		policy:       strategy.NewEntryPolicy(strategy.DefaultPolicyTable()),
		observer:     nopObserver{},
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// run is the mutable state of a single simulation.
type run struct {
	cfg     Config
	capital float64
	open    *Position
	result  *Result
}

func newRun(cfg Config, start time.Time) *run {
	return &run{
		cfg:     cfg,
		capital: cfg.InitialCapital,
		result: &Result{
			RunID:          uuid.NewString(),
			Symbol:         cfg.Symbol,
			Interval:       cfg.Interval,
			InitialCapital: cfg.InitialCapital,
			FinalCapital:   cfg.InitialCapital,
			Trades:         []Trade{},
			EquityCurve:    []EquityPoint{{Timestamp: start, Capital: cfg.InitialCapital}},
		},
	}
}

// RunFromSource loads bars from src and runs the simulation. A failed or
// empty fetch yields an empty Result with a diagnostic message.
func (e *Engine) RunFromSource(ctx context.Context, cfg Config, src BarSource) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	bars, err := src.Bars(ctx, cfg.Symbol, cfg.Interval, cfg.From, cfg.To)
	if err != nil {
		e.logger.Error("bar fetch failed", "symbol", cfg.Symbol, "interval", cfg.Interval, "error", err)
		return e.failed(cfg, fmt.Sprintf("data fetch failed for %s: %v", cfg.Symbol, err)), nil
	}
	if len(bars) == 0 {
		e.logger.Warn("no bars available", "symbol", cfg.Symbol, "interval", cfg.Interval)
		return e.failed(cfg, fmt.Sprintf("no data available for %s", cfg.Symbol)), nil
	}
	return e.Run(ctx, cfg, bars)
}

func (e *Engine) failed(cfg Config, msg string) *Result {
	r := newRun(cfg, cfg.From).result
	r.Message = msg
	e.observer.RunFinished(cfg.Symbol, r, 0)
	return r
}

// Run simulates cfg over bars. Only invalid configuration is an error; a
// cancelled context ends the run as if the data ended at the last bar seen.
func (e *Engine) Run(ctx context.Context, cfg Config, bars []models.Price) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return e.failed(cfg, fmt.Sprintf("no data available for %s", cfg.Symbol)), nil
	}
	if cfg.Lookback == 0 {
		cfg.Lookback = DefaultLookback
	}

	if !sort.SliceIsSorted(bars, func(i, j int) bool { return bars[i].OpenTime.Before(bars[j].OpenTime) }) {
		sorted := make([]models.Price, len(bars))
		copy(sorted, bars)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].OpenTime.Before(sorted[j].OpenTime) })
		bars = sorted
	}

	began := time.Now()
	r := newRun(cfg, bars[0].OpenTime)
	warmUp := e.policy.WarmUp(cfg.Interval)

	e.logger.Info("backtest started",
		"run", r.result.RunID, "symbol", cfg.Symbol, "interval", cfg.Interval,
		"bars", len(bars), "warm_up", warmUp, "capital", cfg.InitialCapital, "risk_percent", cfg.RiskPercent)

	if len(bars) <= warmUp {
		r.result.Message = fmt.Sprintf("insufficient history: %d bars, warm-up needs %d", len(bars), warmUp)
	}

	// lastValid is the most recent bar that passed validation; an open
	// position is force-closed there, never on a skipped bar.
	lastValid := -1
	for i := warmUp; i < len(bars); i++ {
		if ctx.Err() != nil {
			e.logger.Warn("backtest cancelled", "run", r.result.RunID, "symbol", cfg.Symbol, "at", i)
			break
		}
		bar := bars[i]
		r.result.BarsProcessed++

		if !validBar(bar) {
			e.logger.Warn("invalid bar skipped", "symbol", cfg.Symbol, "time", bar.OpenTime,
				"high", bar.High, "low", bar.Low, "close", bar.Close)
			e.skip(r)
			continue
		}
		lastValid = i

		if r.open != nil {
			e.checkExit(r, bar)
		} else {
			e.evaluateEntry(ctx, r, bars[max(0, i+1-cfg.Lookback):i+1])
		}

		if i%progressEvery == 0 {
			e.logger.Info("backtest progress",
				"symbol", cfg.Symbol,
				"progress", fmt.Sprintf("%.1f%%", float64(i)/float64(len(bars))*100),
				"trades", len(r.result.Trades),
				"capital", r.capital)
		}
	}

	if r.open != nil && lastValid >= 0 {
		final := bars[lastValid]
		e.closePosition(r, final.OpenTime, final.Close, models.ExitEndOfPeriod)
	}

	r.result.FinalCapital = r.capital
	elapsed := time.Since(began)
	e.logger.Info("backtest complete",
		"run", r.result.RunID, "symbol", cfg.Symbol, "trades", len(r.result.Trades),
		"final_capital", r.capital, "skipped_bars", r.result.SkippedBars, "elapsed", elapsed)
	e.observer.RunFinished(cfg.Symbol, r.result, elapsed)

	return r.result, nil
}

func validBar(b models.Price) bool {
	for _, v := range []float64{b.Open, b.High, b.Low, b.Close} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return b.Close > 0 && b.High >= b.Low
}

func (e *Engine) skip(r *run) {
	r.result.SkippedBars++
	e.observer.BarSkipped(r.cfg.Symbol)
}

// checkExit closes the open position when the bar touches its stop or
// target. The stop is checked first, so a bar touching both exits at the
// stop.
func (e *Engine) checkExit(r *run, bar models.Price) {
	p := r.open
	switch p.Direction {
	case models.DirectionLong:
		if bar.Low <= p.StopLoss {
			e.closePosition(r, bar.OpenTime, p.StopLoss, models.ExitStopLoss)
		} else if bar.High >= p.TakeProfit {
			e.closePosition(r, bar.OpenTime, p.TakeProfit, models.ExitTakeProfit)
		}
	case models.DirectionShort:
		if bar.High >= p.StopLoss {
			e.closePosition(r, bar.OpenTime, p.StopLoss, models.ExitStopLoss)
		} else if bar.Low <= p.TakeProfit {
			e.closePosition(r, bar.OpenTime, p.TakeProfit, models.ExitTakeProfit)
		}
	}
}

func (e *Engine) evaluateEntry(ctx context.Context, r *run, window []models.Price) {
	bar := window[len(window)-1]

	snap, err := e.collaborator.Evaluate(ctx, window)
	if err != nil || snap == nil {
		e.logger.Debug("collaborator unavailable, holding", "symbol", r.cfg.Symbol, "time", bar.OpenTime, "error", err)
		e.skip(r)
		return
	}

	sig := e.scorer.Score(snap.Indicators, snap.Sentiment)
	decision := e.policy.Decide(r.cfg.Interval, sig, snap.Patterns, snap.Prediction)
	if !decision.Enter {
		return
	}

	plan := e.calibrator.Calibrate(window, decision.Direction, snap.Patterns)
	if !plan.Tradeable() {
		plan = fallbackPlan(decision.Direction, bar.Close)
	}

	size, err := e.sizer.Size(r.capital, r.cfg.RiskPercent, plan.EntryPrice, plan.StopLoss)
	if err != nil {
		e.logger.Warn("position sizing rejected", "symbol", r.cfg.Symbol, "time", bar.OpenTime, "error", err)
		return
	}

	p := &Position{
		Symbol:         r.cfg.Symbol,
		Direction:      plan.Direction,
		EntryDate:      bar.OpenTime,
		EntryPrice:     plan.EntryPrice,
		StopLoss:       plan.StopLoss,
		TakeProfit:     plan.TakeProfit,
		StopMethod:     plan.StopMethod,
		PositionSize:   size.PositionSize,
		RiskAmount:     size.RiskAmount,
		CapitalAtEntry: r.capital,
		Signal:         sig.Class,
		SignalScore:    sig.Score,
		SignalStrength: sig.Strength,
		EntryScore:     decision.Score,
	}
	if ml := snap.Prediction; ml != nil {
		p.MLDirection = ml.Direction
		conf := ml.Confidence
		p.MLConfidence = &conf
	}
	r.open = p

	e.logger.Info("position opened",
		"symbol", p.Symbol, "direction", p.Direction, "time", p.EntryDate,
		"entry", p.EntryPrice, "stop", p.StopLoss, "target", p.TakeProfit,
		"size", p.PositionSize, "signal", p.Signal, "strength", p.SignalStrength, "score", p.EntryScore)
}

// fallbackPlan is the fixed 3% stop / 6% target used when price structure
// gives no plan.
func fallbackPlan(direction models.Direction, entry float64) risk.EntryPlan {
	plan := risk.EntryPlan{
		Direction:  direction,
		EntryPrice: entry,
		StopMethod: "fallback",
	}
	if direction == models.DirectionShort {
		plan.StopLoss = entry * (1 + fallbackStop)
		plan.TakeProfit = entry * (1 - fallbackTarget)
	} else {
		plan.StopLoss = entry * (1 - fallbackStop)
		plan.TakeProfit = entry * (1 + fallbackTarget)
	}
	return plan
}

func (e *Engine) closePosition(r *run, at time.Time, price float64, reason string) {
	p := r.open
	change := (price - p.EntryPrice) / p.EntryPrice
	if p.Direction == models.DirectionShort {
		change = -change
	}
	pnl := p.PositionSize * change
	r.capital += pnl

	t := Trade{
		Position:     *p,
		ExitDate:     at,
		ExitPrice:    price,
		ExitReason:   reason,
		PnL:          pnl,
		FinalCapital: r.capital,
	}
	if p.CapitalAtEntry != 0 {
		t.PnLPercent = pnl / p.CapitalAtEntry * 100
	}

	r.result.Trades = append(r.result.Trades, t)
	r.result.EquityCurve = append(r.result.EquityCurve, EquityPoint{Timestamp: at, Capital: r.capital})
	r.open = nil

	e.logger.Info("position closed",
		"symbol", p.Symbol, "direction", p.Direction, "reason", reason,
		"exit", price, "pnl", pnl, "capital", r.capital)
	e.observer.TradeClosed(p.Symbol, t)
}

package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"SignalTradeBot/internal/models"
	"SignalTradeBot/internal/operations/backtest"
	"SignalTradeBot/internal/services/analysis"
	"SignalTradeBot/internal/services/risk"
	"SignalTradeBot/internal/services/sizing"
	"SignalTradeBot/internal/services/strategy"
)

// SignalReport is the live view of one symbol.
type SignalReport struct {
	Symbol    string                     `json:"symbol"`
	Interval  string                     `json:"interval"`
	AsOf      time.Time                  `json:"as_of"`
	Price     float64                    `json:"price"`
	Signal    analysis.Signal            `json:"signal"`
	Sentiment float64                    `json:"sentiment"`
	Patterns  []analysis.PatternEvidence `json:"patterns"`
	Decision  strategy.EntryDecision     `json:"decision"`
	Plan      risk.EntryPlan             `json:"plan"`
	Sizing    *sizing.Sizing             `json:"sizing,omitempty"`
}

// StrategyHandler evaluates the latest bars of each symbol the same way the
// backtest engine evaluates a bar.
type StrategyHandler struct {
	source       backtest.BarSource
	collaborator backtest.Collaborator
	scorer       *analysis.Scorer
	policy       *strategy.EntryPolicy
	calibrator   *risk.Calibrator
	sizer        *sizing.Sizer
	lookback     int
}

func NewStrategyHandler(source backtest.BarSource, collaborator backtest.Collaborator, policy *strategy.EntryPolicy) *StrategyHandler {
	return &StrategyHandler{
		source:       source,
		collaborator: collaborator,
		scorer:       analysis.NewScorer(),
		policy:       policy,
		calibrator:   risk.NewCalibrator(),
		sizer:        sizing.NewSizer(),
		lookback:     backtest.DefaultLookback,
	}
}

// Evaluate scores symbol on its most recent bars and, when a direction
// exists, plans and sizes the entry for the given account.
func (h *StrategyHandler) Evaluate(ctx context.Context, symbol, interval string, account sizing.Account) (*SignalReport, error) {
	if err := account.Validate(); err != nil {
		return nil, err
	}

	bars, err := h.source.Bars(ctx, symbol, interval, time.Time{}, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("bars for %s: %w", symbol, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("bars for %s: %w", symbol, models.ErrNoData)
	}
	if len(bars) > h.lookback {
		bars = bars[len(bars)-h.lookback:]
	}

	snap, err := h.collaborator.Evaluate(ctx, bars)
	if err != nil {
		return nil, fmt.Errorf("evaluate %s: %w", symbol, err)
	}
	if snap == nil {
		return nil, fmt.Errorf("evaluate %s: no snapshot: %w", symbol, models.ErrNoData)
	}

	last := bars[len(bars)-1]
	rep := &SignalReport{
		Symbol:    symbol,
		Interval:  interval,
		AsOf:      last.OpenTime,
		Price:     last.Close,
		Signal:    h.scorer.Score(snap.Indicators, snap.Sentiment),
		Sentiment: snap.Sentiment,
		Patterns:  snap.Patterns,
	}
	rep.Decision = h.policy.Decide(interval, rep.Signal, snap.Patterns, snap.Prediction)
	rep.Plan = h.calibrator.Calibrate(bars, rep.Decision.Direction, snap.Patterns)

	if rep.Plan.Tradeable() {
		s, err := h.sizer.Size(account.Capital, account.RiskPercent, rep.Plan.EntryPrice, rep.Plan.StopLoss)
		if err != nil {
			slog.Warn("sizing failed", "symbol", symbol, "error", err)
		} else {
			rep.Sizing = &s
		}
	}

	slog.Info("signal evaluated",
		"symbol", symbol, "interval", interval, "signal", rep.Signal.Class,
		"score", rep.Signal.Score, "enter", rep.Decision.Enter, "direction", rep.Plan.Direction)

	return rep, nil
}

// EvaluateAll evaluates each symbol, skipping those that fail.
func (h *StrategyHandler) EvaluateAll(ctx context.Context, symbols []string, interval string, account sizing.Account) []*SignalReport {
	out := make([]*SignalReport, 0, len(symbols))
	for _, symbol := range symbols {
		rep, err := h.Evaluate(ctx, symbol, interval, account)
		if err != nil {
			slog.Error("signal evaluation failed", "symbol", symbol, "error", err)
			continue
		}
		out = append(out, rep)
	}
	return out
}

package backtest

import (
	"SignalTradeBot/internal/models"
)

// Record converts a finished run and its report into the persisted form.
func (r *Result) Record(rep Report) *models.BacktestRun {
	run := &models.BacktestRun{
		ID:             r.RunID,
		Symbol:         r.Symbol,
		TimeFrame:      r.Interval,
		InitialCapital: r.InitialCapital,
		FinalCapital:   r.FinalCapital,
		TotalTrades:    rep.TotalTrades,
		WinRate:        rep.WinRate,
		ProfitFactor:   rep.ProfitFactor,
		SharpeRatio:    rep.SharpeRatio,
		MaxDrawdown:    rep.MaxDrawdown,
		Message:        r.Message,
		Trades:         make([]models.Trade, 0, len(r.Trades)),
		Equity:         make([]models.EquitySample, 0, len(r.EquityCurve)),
	}
	if n := len(r.EquityCurve); n > 0 {
		run.StartTime = r.EquityCurve[0].Timestamp
		run.EndTime = r.EquityCurve[n-1].Timestamp
	}

	for _, t := range r.Trades {
		run.Trades = append(run.Trades, models.Trade{
			RunID:           r.RunID,
			Symbol:          t.Symbol,
			Side:            string(t.Direction),
			EntryTime:       t.EntryDate,
			EntryPrice:      t.EntryPrice,
			ExitTime:        t.ExitDate,
			ExitPrice:       t.ExitPrice,
			ExitReason:      t.ExitReason,
			StopLossPrice:   t.StopLoss,
			TakeProfitPrice: t.TakeProfit,
			Size:            t.PositionSize,
			RiskAmount:      t.RiskAmount,
			CapitalAtEntry:  t.CapitalAtEntry,
			PnL:             t.PnL,
			PnLPercent:      t.PnLPercent,
			FinalCapital:    t.FinalCapital,
			Signal:          string(t.Signal),
			SignalScore:     t.SignalScore,
			Confidence:      t.SignalStrength,
			MLDirection:     string(t.MLDirection),
			MLConfidence:    t.MLConfidence,
		})
	}
	for i, p := range r.EquityCurve {
		run.Equity = append(run.Equity, models.EquitySample{
			RunID:     r.RunID,
			Seq:       i,
			Timestamp: p.Timestamp,
			Capital:   p.Capital,
		})
	}
	return run
}

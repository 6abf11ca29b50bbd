package backtest

import (
	"fmt"
	"math"
	"sort"
)

const tradingDays = 252

// Report summarises a finished run.
type Report struct {
	TotalTrades   int         `json:"total_trades"`
	WinningTrades int         `json:"winning_trades"`
	LosingTrades  int         `json:"losing_trades"`
	WinRate       float64     `json:"win_rate"` // percent
	GrossProfit   float64     `json:"gross_profit"`
	GrossLoss     float64     `json:"gross_loss"` // positive
	AverageWin    float64     `json:"avg_win"`
	AverageLoss   float64     `json:"avg_loss"`
	ProfitFactor  *float64    `json:"profit_factor"`
	NoLosses      bool        `json:"no_losses,omitempty"`
	SharpeRatio   float64     `json:"sharpe_ratio"`
	MaxDrawdown   float64     `json:"max_drawdown"` // percent, positive
	TotalReturn   float64     `json:"total_return"` // percent
	FinalCapital  float64     `json:"final_capital"`
	ByExitReason  []ExitStats `json:"by_exit_reason"`
}

// ExitStats aggregates the trades that closed for one reason.
type ExitStats struct {
	Reason     string  `json:"reason"`
	Count      int     `json:"count"`
	AveragePnL float64 `json:"avg_pnl"`
}

// ProfitFactorText renders the profit factor, or "no losses" when every
// closed trade won.
func (r Report) ProfitFactorText() string {
	if r.ProfitFactor == nil {
		if r.NoLosses && r.WinningTrades > 0 {
			return "no losses"
		}
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *r.ProfitFactor)
}

// Analyze derives the performance report from a trade log and equity curve.
// It reads its inputs only, so repeated calls return equal reports.
func Analyze(initialCapital float64, trades []Trade, curve []EquityPoint) Report {
	rep := Report{
		TotalTrades:  len(trades),
		FinalCapital: initialCapital,
		ByExitReason: []ExitStats{},
	}
	if n := len(curve); n > 0 {
		rep.FinalCapital = curve[n-1].Capital
	} else if n := len(trades); n > 0 {
		rep.FinalCapital = trades[n-1].FinalCapital
	}
	if initialCapital > 0 {
		rep.TotalReturn = (rep.FinalCapital - initialCapital) / initialCapital * 100
	}

	byReason := map[string]*ExitStats{}
	for _, t := range trades {
		switch {
		case t.PnL > 0:
			rep.WinningTrades++
			rep.GrossProfit += t.PnL
		case t.PnL < 0:
			rep.LosingTrades++
			rep.GrossLoss -= t.PnL
		}

		s, ok := byReason[t.ExitReason]
		if !ok {
			s = &ExitStats{Reason: t.ExitReason}
			byReason[t.ExitReason] = s
		}
		s.Count++
		s.AveragePnL += t.PnL
	}

	if rep.TotalTrades > 0 {
		rep.WinRate = float64(rep.WinningTrades) / float64(rep.TotalTrades) * 100
	}
	if rep.WinningTrades > 0 {
		rep.AverageWin = rep.GrossProfit / float64(rep.WinningTrades)
	}
	if rep.LosingTrades > 0 {
		rep.AverageLoss = rep.GrossLoss / float64(rep.LosingTrades)
	}
	if rep.GrossLoss > 0 {
		pf := rep.GrossProfit / rep.GrossLoss
		rep.ProfitFactor = &pf
	} else {
		rep.NoLosses = true
	}

	for _, s := range byReason {
		s.AveragePnL /= float64(s.Count)
		rep.ByExitReason = append(rep.ByExitReason, *s)
	}
	sort.Slice(rep.ByExitReason, func(i, j int) bool {
		return rep.ByExitReason[i].Reason < rep.ByExitReason[j].Reason
	})

	rep.MaxDrawdown = maxDrawdown(initialCapital, curve)
	rep.SharpeRatio = sharpe(curve)
	return rep
}

func maxDrawdown(initialCapital float64, curve []EquityPoint) float64 {
	peak := initialCapital
	worst := 0.0
	for _, p := range curve {
		if p.Capital > peak {
			peak = p.Capital
		}
		if peak <= 0 {
			continue
		}
		if dd := (peak - p.Capital) / peak; dd > worst {
			worst = dd
		}
	}
	return worst * 100
}

// sharpe annualises the per-sample returns of the equity curve as if each
// sample were one trading day.
func sharpe(curve []EquityPoint) float64 {
	if len(curve) < 3 {
		return 0
	}

	returns := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Capital
		if prev == 0 {
			continue
		}
		returns = append(returns, (curve[i].Capital-prev)/prev)
	}
	if len(returns) < 2 {
		return 0
	}

	avg := 0.0
	for _, r := range returns {
		avg += r
	}
	avg /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		variance += math.Pow(r-avg, 2)
	}
	variance /= float64(len(returns) - 1)
	stdDev := math.Sqrt(variance)
	if stdDev == 0 {
		return 0
	}
	return avg / stdDev * math.Sqrt(tradingDays)
}

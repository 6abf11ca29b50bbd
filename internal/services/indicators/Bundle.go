package indicators

import (
	"SignalTradeBot/internal/models"
	"SignalTradeBot/internal/services/analysis"
)

// BundleBuilder computes the indicator snapshot the scorer consumes. Values
// that need more history than the window holds are left unset.
type BundleBuilder struct {
	ema    *EMAService
	rsi    *RSIService
	macd   *MACDService
	bbands *BBandsService
}

func NewBundleBuilder() *BundleBuilder {
	return &BundleBuilder{
		ema:    NewEMAService(),
		rsi:    NewRSIService(),
		macd:   NewMACDService(),
		bbands: NewBBandsService(),
	}
}

func (b *BundleBuilder) Build(prices []models.Price) analysis.IndicatorBundle {
	var out analysis.IndicatorBundle
	if len(prices) == 0 {
		return out
	}
	closes := models.Closes(prices)
	out.Close = analysis.Value(last(closes))

	if v, ok := b.rsi.Last(closes, 14); ok {
		out.RSI = analysis.Value(v)
	}
	if v, ok := WilliamsR(prices, 14); ok {
		out.WilliamsR = analysis.Value(v)
	}
	if k, d, ok := Stochastic(prices, 14, 3, 3); ok {
		out.StochK, out.StochD = analysis.Value(k), analysis.Value(d)
	}
	if v, ok := ROC(closes, 12); ok {
		out.ROC = analysis.Value(v)
	}

	if m := b.macd.Calculate(closes, 12, 26, 9); m != nil {
		out.MACD = analysis.Value(last(m.MACD))
		out.MACDSignal = analysis.Value(last(m.Signal))
	}
	if adx, plus, minus, ok := ADX(prices, 14); ok {
		out.ADX = analysis.Value(adx)
		out.PlusDI, out.MinusDI = analysis.Value(plus), analysis.Value(minus)
	}
	if v, ok := b.ema.SMA(closes, 20); ok {
		out.SMA20 = analysis.Value(v)
	}
	if v, ok := b.ema.SMA(closes, 50); ok {
		out.SMA50 = analysis.Value(v)
	}
	if v, ok := b.ema.SMA(closes, 200); ok {
		out.SMA200 = analysis.Value(v)
	}
	if a, s, ok := Ichimoku(prices); ok {
		out.IchimokuSpanA, out.IchimokuSpanB = analysis.Value(a), analysis.Value(s)
	}

	if v, ok := MFI(prices, 14); ok {
		out.MFI = analysis.Value(v)
	}
	if v, ok := CMF(prices, 20); ok {
		out.CMF = analysis.Value(v)
	}
	if v, ok := VWAP(prices); ok {
		out.VWAP = analysis.Value(v)
	}

	if bb, ok := b.bbands.CalculateOne(closes, 20, 2); ok {
		out.BBUpper = analysis.Value(bb.Upper)
		out.BBMiddle = analysis.Value(bb.Middle)
		out.BBLower = analysis.Value(bb.Lower)
	}
	if len(prices) >= 14 {
		out.ATR = analysis.Value(ATR(prices, 14))
	}
	if f382, f618, ok := Fibonacci(prices, 50); ok {
		out.Fib382, out.Fib618 = analysis.Value(f382), analysis.Value(f618)
	}

	return out
}

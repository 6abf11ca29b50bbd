package indicators

import (
	"math"

	"SignalTradeBot/internal/models"
)

// ADX returns the latest average directional index with +DI and -DI. All
// smoothing uses simple rolling means.
func ADX(prices []models.Price, period int) (adx, plusDI, minusDI float64, ok bool) {
	n := len(prices)
	if period <= 0 || n < 2*period-1 {
		return 0, 0, 0, false
	}

	tr := TrueRange(prices)
	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	for i := 1; i < n; i++ {
		up := prices[i].High - prices[i-1].High
		down := prices[i-1].Low - prices[i].Low
		if up > down && up > 0 {
			plusDM[i] = up
		}
		if down > up && down > 0 {
			minusDM[i] = down
		}
	}

	dx := make([]float64, 0, period)
	for i := n - period; i < n; i++ {
		from := i - period + 1
		atr := mean(tr[from : i+1])
		if atr == 0 {
			return 0, 0, 0, false
		}
		plusDI = 100 * mean(plusDM[from:i+1]) / atr
		minusDI = 100 * mean(minusDM[from:i+1]) / atr
		if sum := plusDI + minusDI; sum > 0 {
			dx = append(dx, 100*math.Abs(plusDI-minusDI)/sum)
		} else {
			dx = append(dx, 0)
		}
	}

	return mean(dx), plusDI, minusDI, true
}

const (
	ichimokuConversion = 9
	ichimokuBase       = 26
	ichimokuSpanB      = 52
	ichimokuShift      = 26
)

func midpoint(prices []models.Price) float64 {
	return (highestHigh(prices) + lowestLow(prices)) / 2
}

// Ichimoku returns the leading spans A and B plotted at the latest bar,
// i.e. computed 26 bars earlier.
func Ichimoku(prices []models.Price) (spanA, spanB float64, ok bool) {
	at := len(prices) - 1 - ichimokuShift
	if at < ichimokuSpanB-1 {
		return 0, 0, false
	}
	window := func(period int) []models.Price {
		return prices[at-period+1 : at+1]
	}

	conversion := midpoint(window(ichimokuConversion))
	base := midpoint(window(ichimokuBase))
	return (conversion + base) / 2, midpoint(window(ichimokuSpanB)), true
}

package indicators

import (
	"math"

	"SignalTradeBot/internal/models"
)

// PivotLevels are classic floor pivots.
type PivotLevels struct {
	Pivot       float64 `json:"pivot"`
	Resistance1 float64 `json:"resistance_1"`
	Resistance2 float64 `json:"resistance_2"`
	Support1    float64 `json:"support_1"`
	Support2    float64 `json:"support_2"`
}

// Pivots computes pivot levels from the high, low and mean close of the
// last lookback bars.
func Pivots(prices []models.Price, lookback int) PivotLevels {
	if len(prices) == 0 {
		return PivotLevels{}
	}
	window := tail(prices, lookback)

	high, low := highestHigh(window), lowestLow(window)
	closes := models.Closes(window)
	pivot := (high + low + mean(closes)) / 3

	return PivotLevels{
		Pivot:       pivot,
		Resistance1: 2*pivot - low,
		Resistance2: pivot + (high - low),
		Support1:    2*pivot - high,
		Support2:    pivot - (high - low),
	}
}

// SwingLow is the lowest low of the last lookback bars.
func SwingLow(prices []models.Price, lookback int) float64 {
	return lowestLow(tail(prices, lookback))
}

// SwingHigh is the highest high of the last lookback bars.
func SwingHigh(prices []models.Price, lookback int) float64 {
	return highestHigh(tail(prices, lookback))
}

// NearestSupport returns the highest 5-bar pivot low below price within the
// last lookback bars.
func NearestSupport(prices []models.Price, price float64, lookback int) (float64, bool) {
	window := tail(prices, lookback)
	best, found := math.Inf(-1), false
	for i := 2; i < len(window)-2; i++ {
		l := window[i].Low
		if l < window[i-1].Low && l < window[i-2].Low && l < window[i+1].Low && l < window[i+2].Low {
			if l < price && l > best {
				best, found = l, true
			}
		}
	}
	return best, found
}

// NearestResistance returns the lowest 5-bar pivot high above price within
// the last lookback bars.
func NearestResistance(prices []models.Price, price float64, lookback int) (float64, bool) {
	window := tail(prices, lookback)
	best, found := math.Inf(1), false
	for i := 2; i < len(window)-2; i++ {
		h := window[i].High
		if h > window[i-1].High && h > window[i-2].High && h > window[i+1].High && h > window[i+2].High {
			if h > price && h < best {
				best, found = h, true
			}
		}
	}
	return best, found
}

// Fibonacci returns the 38.2% and 61.8% retracements of the last period bars'
// range, measured down from the high.
func Fibonacci(prices []models.Price, period int) (fib382, fib618 float64, ok bool) {
	if period <= 0 || len(prices) < period {
		return 0, 0, false
	}
	window := tail(prices, period)
	high, low := highestHigh(window), lowestLow(window)
	diff := high - low
	return high - 0.382*diff, high - 0.618*diff, true
}

func tail(prices []models.Price, n int) []models.Price {
	if n <= 0 || n >= len(prices) {
		return prices
	}
	return prices[len(prices)-n:]
}

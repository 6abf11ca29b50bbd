package indicators

import (
	"math"

	"SignalTradeBot/internal/models"
)

// TrueRange returns the per-bar true range. The first bar has no previous
// close and uses its own high-low range.
func TrueRange(prices []models.Price) []float64 {
	tr := make([]float64, len(prices))
	for i, p := range prices {
		r := p.High - p.Low
		if i > 0 {
			prev := prices[i-1].Close
			r = math.Max(r, math.Max(math.Abs(p.High-prev), math.Abs(p.Low-prev)))
		}
		tr[i] = r
	}
	return tr
}

// ATR is the simple mean of the last period true ranges. With fewer bars
// than period it falls back to the last bar's high-low range.
func ATR(prices []models.Price, period int) float64 {
	if len(prices) == 0 {
		return 0
	}
	if period <= 0 || len(prices) < period {
		p := prices[len(prices)-1]
		return p.High - p.Low
	}
	tr := TrueRange(prices)
	return mean(tr[len(tr)-period:])
}

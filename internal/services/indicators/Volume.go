package indicators

import "SignalTradeBot/internal/models"

func typicalPrice(p models.Price) float64 {
	return (p.High + p.Low + p.Close) / 3
}

// MFI returns the latest money flow index over period bars.
func MFI(prices []models.Price, period int) (float64, bool) {
	if period <= 0 || len(prices) < period+1 {
		return 0, false
	}

	var positive, negative float64
	for i := len(prices) - period; i < len(prices); i++ {
		tp, prev := typicalPrice(prices[i]), typicalPrice(prices[i-1])
		flow := tp * prices[i].Volume
		switch {
		case tp > prev:
			positive += flow
		case tp < prev:
			negative += flow
		}
	}

	if negative == 0 {
		if positive == 0 {
			return 0, false
		}
		return 100, true
	}
	return 100 - 100/(1+positive/negative), true
}

// CMF returns the Chaikin money flow over period bars.
func CMF(prices []models.Price, period int) (float64, bool) {
	if period <= 0 || len(prices) < period {
		return 0, false
	}

	var flow, volume float64
	for _, p := range prices[len(prices)-period:] {
		rng := p.High - p.Low
		if rng == 0 {
			continue
		}
		multiplier := ((p.Close - p.Low) - (p.High - p.Close)) / rng
		flow += multiplier * p.Volume
		volume += p.Volume
	}

	if volume == 0 {
		return 0, false
	}
	return flow / volume, true
}

// VWAP returns the cumulative volume weighted average price of the series.
func VWAP(prices []models.Price) (float64, bool) {
	var pv, volume float64
	for _, p := range prices {
		pv += typicalPrice(p) * p.Volume
		volume += p.Volume
	}
	if volume == 0 {
		return 0, false
	}
	return pv / volume, true
}

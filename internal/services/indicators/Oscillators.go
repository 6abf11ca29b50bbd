package indicators

import "SignalTradeBot/internal/models"

func highestHigh(prices []models.Price) float64 {
	h := prices[0].High
	for _, p := range prices[1:] {
		if p.High > h {
			h = p.High
		}
	}
	return h
}

func lowestLow(prices []models.Price) float64 {
	l := prices[0].Low
	for _, p := range prices[1:] {
		if p.Low < l {
			l = p.Low
		}
	}
	return l
}

// rawK returns the unsmoothed %K for the bar at index i.
func rawK(prices []models.Price, i, period int) (float64, bool) {
	window := prices[i-period+1 : i+1]
	hh, ll := highestHigh(window), lowestLow(window)
	if hh == ll {
		return 0, false
	}
	return 100 * (prices[i].Close - ll) / (hh - ll), true
}

// Stochastic returns the latest smoothed %K and %D.
func Stochastic(prices []models.Price, period, smoothK, smoothD int) (k, d float64, ok bool) {
	need := period + smoothK + smoothD - 2
	if period <= 0 || smoothK <= 0 || smoothD <= 0 || len(prices) < need {
		return 0, 0, false
	}

	// %K series over the bars %D needs.
	ks := make([]float64, 0, smoothD)
	for j := len(prices) - smoothD; j < len(prices); j++ {
		raw := make([]float64, 0, smoothK)
		for i := j - smoothK + 1; i <= j; i++ {
			v, valid := rawK(prices, i, period)
			if !valid {
				return 0, 0, false
			}
			raw = append(raw, v)
		}
		ks = append(ks, mean(raw))
	}

	return last(ks), mean(ks), true
}

// WilliamsR returns the latest Williams %R in [-100, 0].
func WilliamsR(prices []models.Price, period int) (float64, bool) {
	if period <= 0 || len(prices) < period {
		return 0, false
	}
	window := prices[len(prices)-period:]
	hh, ll := highestHigh(window), lowestLow(window)
	if hh == ll {
		return 0, false
	}
	return -100 * (hh - window[len(window)-1].Close) / (hh - ll), true
}

// ROC returns the percent change over period bars.
func ROC(closes []float64, period int) (float64, bool) {
	if period <= 0 || len(closes) <= period {
		return 0, false
	}
	base := closes[len(closes)-1-period]
	if base == 0 {
		return 0, false
	}
	return (last(closes) - base) / base * 100, true
}

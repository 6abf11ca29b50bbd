package indicators

import "math"

type BBandsService struct{}

type BBands struct {
	Upper  float64
	Middle float64
	Lower  float64
	Width  float64 // Volatility indicator
}

func NewBBandsService() *BBandsService {
	return &BBandsService{}
}

// CalculateOne calculates Bollinger Bands over the last period prices.
func (s *BBandsService) CalculateOne(prices []float64, period int, deviations float64) (BBands, bool) {
	if !s.ValidatePeriod(prices, period) {
		return BBands{}, false
	}

	window := prices[len(prices)-period:]
	middle := mean(window)

	squareSum := 0.0
	for _, price := range window {
		diff := price - middle
		squareSum += diff * diff
	}
	stdDev := math.Sqrt(squareSum / float64(period))

	b := BBands{
		Upper:  middle + (deviations * stdDev),
		Middle: middle,
		Lower:  middle - (deviations * stdDev),
	}
	if middle != 0 {
		b.Width = (b.Upper - b.Lower) / middle
	}
	return b, true
}

// ValidatePeriod checks if we have enough data
func (s *BBandsService) ValidatePeriod(prices []float64, period int) bool {
	return len(prices) >= period && period > 0
}

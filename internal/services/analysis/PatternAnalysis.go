package analysis

import (
	"math"

	"SignalTradeBot/internal/models"
)

// PatternNeutral marks indecision patterns. They are reported but never
// counted toward either side.
const PatternNeutral PatternBias = "neutral"

const (
	patternWindow  = 10
	engulfingRatio = 1.2
	dojiBodyPct    = 5.0
)

type PatternAnalyzer struct {
	window int
}

func NewPatternAnalyzer() *PatternAnalyzer {
	return &PatternAnalyzer{
		window: patternWindow,
	}
}

// Analyze scans the most recent candles and returns every pattern found.
// Fewer than ten candles yields no evidence.
func (a *PatternAnalyzer) Analyze(candles []models.Price) []PatternEvidence {
	if len(candles) < a.window {
		return nil
	}
	recent := candles[len(candles)-a.window:]

	c2 := recent[len(recent)-3]
	c1 := recent[len(recent)-2]
	c0 := recent[len(recent)-1]

	var found []PatternEvidence
	found = append(found, a.checkEngulfing(c1, c0)...)
	found = append(found, a.checkDoji(c0)...)
	found = append(found, a.checkHammer(c0)...)
	found = append(found, a.checkShootingStar(c0)...)
	found = append(found, a.checkStar(c2, c1, c0)...)
	found = append(found, a.checkThreeBar(c2, c1, c0)...)
	found = append(found, a.checkHarami(c1, c0)...)
	found = append(found, a.checkPiercing(c1, c0)...)
	return found
}

func body(c models.Price) float64 {
	return math.Abs(c.Close - c.Open)
}

func upperWick(c models.Price) float64 {
	return c.High - math.Max(c.Open, c.Close)
}

func lowerWick(c models.Price) float64 {
	return math.Min(c.Open, c.Close) - c.Low
}

func green(c models.Price) bool { return c.Close > c.Open }
func red(c models.Price) bool   { return c.Close < c.Open }

func (a *PatternAnalyzer) checkEngulfing(prev, curr models.Price) []PatternEvidence {
	var out []PatternEvidence
	larger := body(curr) > body(prev)*engulfingRatio

	if red(prev) && green(curr) && curr.Open < prev.Close && curr.Close > prev.Open && larger {
		out = append(out, PatternEvidence{Name: "Bullish Engulfing", Bias: PatternBullish, Strength: 8})
	}
	if green(prev) && red(curr) && curr.Open > prev.Close && curr.Close < prev.Open && larger {
		out = append(out, PatternEvidence{Name: "Bearish Engulfing", Bias: PatternBearish, Strength: 8})
	}
	return out
}

func (a *PatternAnalyzer) checkDoji(c models.Price) []PatternEvidence {
	rng := c.High - c.Low
	if rng <= 0 {
		return nil
	}
	if body(c)/rng*100 < dojiBodyPct {
		return []PatternEvidence{{Name: "Doji", Bias: PatternNeutral, Strength: 6}}
	}
	return nil
}

// checkHammer covers the hammer and the inverted hammer; both lean bullish.
func (a *PatternAnalyzer) checkHammer(c models.Price) []PatternEvidence {
	b := body(c)
	if b <= 0 {
		return nil
	}
	var out []PatternEvidence
	if lowerWick(c) > b*2 && upperWick(c) < b*0.3 {
		out = append(out, PatternEvidence{Name: "Hammer", Bias: PatternBullish, Strength: 7})
	}
	if upperWick(c) > b*2 && lowerWick(c) < b*0.3 {
		out = append(out, PatternEvidence{Name: "Inverted Hammer", Bias: PatternBullish, Strength: 6})
	}
	return out
}

func (a *PatternAnalyzer) checkShootingStar(c models.Price) []PatternEvidence {
	if upperWick(c) > body(c)*2 && lowerWick(c) < body(c)*0.3 && red(c) {
		return []PatternEvidence{{Name: "Shooting Star", Bias: PatternBearish, Strength: 7}}
	}
	return nil
}

func (a *PatternAnalyzer) checkStar(first, star, last models.Price) []PatternEvidence {
	var out []PatternEvidence
	mid := first.Open/2 + first.Close/2
	small := body(star) < body(first)*0.3

	if red(first) && small && green(last) && last.Close > mid {
		out = append(out, PatternEvidence{Name: "Morning Star", Bias: PatternBullish, Strength: 9})
	}
	if green(first) && small && red(last) && last.Close < mid {
		out = append(out, PatternEvidence{Name: "Evening Star", Bias: PatternBearish, Strength: 9})
	}
	return out
}

// checkThreeBar detects three white soldiers and three black crows.
func (a *PatternAnalyzer) checkThreeBar(c2, c1, c0 models.Price) []PatternEvidence {
	var out []PatternEvidence
	if green(c2) && green(c1) && green(c0) && c1.Close > c2.Close && c0.Close > c1.Close {
		out = append(out, PatternEvidence{Name: "Three White Soldiers", Bias: PatternBullish, Strength: 9})
	}
	if red(c2) && red(c1) && red(c0) && c1.Close < c2.Close && c0.Close < c1.Close {
		out = append(out, PatternEvidence{Name: "Three Black Crows", Bias: PatternBearish, Strength: 9})
	}
	return out
}

func (a *PatternAnalyzer) checkHarami(prev, curr models.Price) []PatternEvidence {
	var out []PatternEvidence
	if red(prev) && green(curr) && curr.Open > prev.Close && curr.Close < prev.Open {
		out = append(out, PatternEvidence{Name: "Bullish Harami", Bias: PatternBullish, Strength: 7})
	}
	if green(prev) && red(curr) && curr.Open < prev.Close && curr.Close > prev.Open {
		out = append(out, PatternEvidence{Name: "Bearish Harami", Bias: PatternBearish, Strength: 7})
	}
	return out
}

// checkPiercing detects the piercing line and dark cloud cover gap patterns.
func (a *PatternAnalyzer) checkPiercing(prev, curr models.Price) []PatternEvidence {
	var out []PatternEvidence
	mid := (prev.Open + prev.Close) / 2

	if red(prev) && green(curr) && curr.Open < prev.Low && curr.Close > mid && curr.Close < prev.Open {
		out = append(out, PatternEvidence{Name: "Piercing Line", Bias: PatternBullish, Strength: 8})
	}
	if green(prev) && red(curr) && curr.Open > prev.High && curr.Close < mid && curr.Close > prev.Open {
		out = append(out, PatternEvidence{Name: "Dark Cloud Cover", Bias: PatternBearish, Strength: 8})
	}
	return out
}

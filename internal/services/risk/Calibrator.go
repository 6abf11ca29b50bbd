package risk

import (
	"fmt"
	"math"
	"strings"

	"SignalTradeBot/internal/models"
	"SignalTradeBot/internal/services/analysis"
	"SignalTradeBot/internal/services/indicators"
)

const (
	MinBars = 20

	atrPeriod     = 14
	swingLookback = 20
	levelLookback = 50
	pivotLookback = 20
	swingBuffer   = 0.02
	tolerance     = 0.01 // fraction of entry used to attribute a stop to a method
)

// Calibrator derives stop-loss, take-profit and key levels from price
// structure. It holds only settings and is safe for concurrent use.
type Calibrator struct {
	maxAdverse         float64 // 30%
	rewardRatio        float64 // 1:2
	longTargetCap      float64 // entry x3.0
	shortTargetFloor   float64 // entry x0.33
	minPatternStrength int
}

func NewCalibrator() *Calibrator {
	return &Calibrator{
		maxAdverse:         0.30,
		rewardRatio:        2,
		longTargetCap:      3.0,
		shortTargetFloor:   0.33,
		minPatternStrength: 7,
	}
}

// Calibrate builds an EntryPlan for direction from the trailing bars. Short
// history, a weak pattern majority or a NO TRADE direction produce a NO
// TRADE plan rather than an error.
func (c *Calibrator) Calibrate(bars []models.Price, direction models.Direction, evidence []analysis.PatternEvidence) EntryPlan {
	if len(bars) < MinBars {
		return noTrade(fmt.Sprintf("Insufficient history: need at least %d bars, have %d", MinBars, len(bars)))
	}
	if direction != models.DirectionLong && direction != models.DirectionShort {
		return noTrade("No directional bias")
	}
	if !c.patternsAgree(direction, evidence) {
		return noTrade("Insufficient pattern strength - wait for clearer signal")
	}

	entry := bars[len(bars)-1].Close
	if entry <= 0 {
		return noTrade(fmt.Sprintf("Invalid entry price %.5f", entry))
	}

	var stop candidate
	var target float64
	if direction == models.DirectionLong {
		stop = c.stopLong(bars, entry)
		target = math.Min(entry+c.rewardRatio*(entry-stop.value), entry*c.longTargetCap)
	} else {
		stop = c.stopShort(bars, entry)
		target = math.Max(entry-c.rewardRatio*(stop.value-entry), entry*c.shortTargetFloor)
	}

	risk := math.Abs(entry - stop.value)
	reward := math.Abs(target - entry)
	rr := 0.0
	if risk > 0 {
		rr = reward / risk
	}
	conf := grade(rr)
	levels := indicators.Pivots(bars, pivotLookback)

	return EntryPlan{
		Direction:              direction,
		EntryPrice:             entry,
		StopLoss:               stop.value,
		TakeProfit:             target,
		RiskReward:             rr,
		RiskPercent:            risk / entry * 100,
		PotentialProfitPercent: reward / entry * 100,
		StopMethod:             stop.method,
		StopReasoning:          c.stopReasoning(bars, entry, stop.value, direction),
		TakeProfitReasoning:    takeProfitReasoning(entry, reward, rr),
		Confidence:             conf,
		Recommendation:         recommendation(conf, direction, evidence),
		KeyLevels:              &levels,
	}
}

func (c *Calibrator) patternsAgree(direction models.Direction, evidence []analysis.PatternEvidence) bool {
	bull, bear := analysis.PatternStrength(evidence)
	if direction == models.DirectionLong {
		return bull > bear && bull >= c.minPatternStrength
	}
	return bear > bull && bear >= c.minPatternStrength
}

// stopLong picks the highest candidate below entry, floored at the maximum
// adverse excursion.
func (c *Calibrator) stopLong(bars []models.Price, entry float64) candidate {
	floor := entry * (1 - c.maxAdverse)
	candidates := []candidate{
		{entry - 2*indicators.ATR(bars, atrPeriod), MethodATR},
		{indicators.SwingLow(bars, swingLookback) * (1 - swingBuffer), MethodSwing},
		{floor, MethodFixed},
	}
	if s, ok := indicators.NearestSupport(bars, entry, levelLookback); ok {
		candidates = append(candidates, candidate{s * (1 - swingBuffer), MethodSupport})
	}

	best := candidate{floor, MethodFixed}
	for _, cand := range candidates {
		if cand.value >= entry {
			continue
		}
		if cand.value > best.value {
			best = cand
		}
	}
	return best
}

// stopShort picks the lowest candidate above entry, capped at the maximum
// adverse excursion.
func (c *Calibrator) stopShort(bars []models.Price, entry float64) candidate {
	ceiling := entry * (1 + c.maxAdverse)
	candidates := []candidate{
		{entry + 2*indicators.ATR(bars, atrPeriod), MethodATR},
		{indicators.SwingHigh(bars, swingLookback) * (1 + swingBuffer), MethodSwing},
		{ceiling, MethodFixed},
	}
	if r, ok := indicators.NearestResistance(bars, entry, levelLookback); ok {
		candidates = append(candidates, candidate{r * (1 + swingBuffer), MethodResistance})
	}

	best := candidate{ceiling, MethodFixed}
	for _, cand := range candidates {
		if cand.value <= entry {
			continue
		}
		if cand.value < best.value {
			best = cand
		}
	}
	return best
}

// stopReasoning names every method whose level lies within the tolerance
// band of the chosen stop.
func (c *Calibrator) stopReasoning(bars []models.Price, entry, stop float64, direction models.Direction) string {
	band := tolerance * entry
	near := func(level float64) bool { return math.Abs(stop-level) < band }
	atr := indicators.ATR(bars, atrPeriod)

	var reasons []string
	if direction == models.DirectionLong {
		if near(entry - 2*atr) {
			reasons = append(reasons, fmt.Sprintf("Based on 2x ATR (%.2f)", atr))
		}
		if s, ok := indicators.NearestSupport(bars, entry, levelLookback); ok && near(s*(1-swingBuffer)) {
			reasons = append(reasons, fmt.Sprintf("Below support level at %.2f", s))
		}
		if low := indicators.SwingLow(bars, swingLookback); near(low * (1 - swingBuffer)) {
			reasons = append(reasons, fmt.Sprintf("Below recent swing low at %.2f", low))
		}
	} else {
		if near(entry + 2*atr) {
			reasons = append(reasons, fmt.Sprintf("Based on 2x ATR (%.2f)", atr))
		}
		if r, ok := indicators.NearestResistance(bars, entry, levelLookback); ok && near(r*(1+swingBuffer)) {
			reasons = append(reasons, fmt.Sprintf("Above resistance at %.2f", r))
		}
		if high := indicators.SwingHigh(bars, swingLookback); near(high * (1 + swingBuffer)) {
			reasons = append(reasons, fmt.Sprintf("Above recent swing high at %.2f", high))
		}
	}

	if len(reasons) == 0 {
		reasons = append(reasons, fmt.Sprintf("Conservative %.1f%% stop loss", math.Abs(stop-entry)/entry*100))
	}
	return strings.Join(reasons, " | ")
}

func takeProfitReasoning(entry, reward, rr float64) string {
	basis := "Based on market volatility"
	if rr >= 2 {
		basis = "Conservative 2:1 minimum target"
	}
	return strings.Join([]string{
		fmt.Sprintf("1:%.1f Risk/Reward ratio", rr),
		fmt.Sprintf("%.1f%% profit target", reward/entry*100),
		basis,
	}, " | ")
}

func grade(rr float64) Confidence {
	switch {
	case rr >= 2:
		return ConfidenceHigh
	case rr >= 1.5:
		return ConfidenceMedium
	}
	return ConfidenceLow
}

func recommendation(conf Confidence, direction models.Direction, evidence []analysis.PatternEvidence) string {
	text := fmt.Sprintf("%s confidence %s setup", conf, direction)
	var names []string
	for _, e := range evidence {
		if len(names) == 2 {
			break
		}
		names = append(names, e.Name)
	}
	if len(names) > 0 {
		text += " based on " + strings.Join(names, ", ")
	}
	return text
}

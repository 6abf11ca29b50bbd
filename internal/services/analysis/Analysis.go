package analysis

import (
	"fmt"
	"math"
)

const (
	MaxScore   = 15 // score at which strength saturates
	MaxReasons = 10

	StrongThreshold = 6
	SignalThreshold = 2
)

// Vote is the side a rule counts toward when it fires.
type Vote int

const (
	VoteNone Vote = iota
	VoteBuy
	VoteSell
)

// RuleResult is the contribution of one rule.
type RuleResult struct {
	Delta  int
	Vote   Vote
	Reason string
}

// Rule evaluates one indicator family. ok is false when the rule cannot
// evaluate or does not fire; such a rule contributes nothing.
type Rule struct {
	Name string
	Eval func(b IndicatorBundle, sentiment float64) (res RuleResult, ok bool)
}

// Scorer folds an ordered rule catalogue into a Signal. It holds no state
// and is safe for concurrent use.
type Scorer struct {
	rules []Rule
}

func NewScorer() *Scorer {
	return &Scorer{rules: DefaultRules()}
}

// DefaultRules returns the catalogue in reporting order: momentum, trend,
// volume, volatility, Fibonacci, sentiment.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "rsi", Eval: rsiRule},
		{Name: "williams_r", Eval: williamsRule},
		{Name: "stochastic", Eval: stochasticRule},
		{Name: "roc", Eval: rocRule},
		{Name: "macd", Eval: macdRule},
		{Name: "adx", Eval: adxRule},
		{Name: "moving_averages", Eval: movingAverageRule},
		{Name: "psar", Eval: psarRule},
		{Name: "supertrend", Eval: supertrendRule},
		{Name: "ichimoku", Eval: ichimokuRule},
		{Name: "mfi", Eval: mfiRule},
		{Name: "cmf", Eval: cmfRule},
		{Name: "vwap", Eval: vwapRule},
		{Name: "bollinger", Eval: bollingerRule},
		{Name: "fibonacci", Eval: fibonacciRule},
		{Name: "sentiment", Eval: sentimentRule},
	}
}

// Score converts an indicator bundle plus a sentiment scalar into a Signal.
func (s *Scorer) Score(b IndicatorBundle, sentiment float64) Signal {
	if b.IsEmpty() {
		return Signal{
			Class:   Hold,
			Reasons: []string{"Insufficient data"},
		}
	}

	score, buys, sells := 0, 0, 0
	reasons := make([]string, 0, MaxReasons)
	for _, rule := range s.rules {
		res, ok := rule.Eval(b, sentiment)
		if !ok {
			continue
		}
		score += res.Delta
		switch res.Vote {
		case VoteBuy:
			buys++
		case VoteSell:
			sells++
		}
		if res.Reason != "" {
			reasons = append(reasons, res.Reason)
		}
	}

	if len(reasons) > MaxReasons {
		reasons = reasons[:MaxReasons]
	}

	return Signal{
		Class:     classify(score, buys, sells),
		Score:     clampScore(score),
		Strength:  strength(score),
		Reasons:   reasons,
		BuyVotes:  buys,
		SellVotes: sells,
	}
}

func classify(score, buys, sells int) SignalClass {
	switch {
	case score >= StrongThreshold && buys > sells:
		return StrongBuy
	case score >= SignalThreshold && buys > sells:
		return Buy
	case score <= -StrongThreshold && sells > buys:
		return StrongSell
	case score <= -SignalThreshold && sells > buys:
		return Sell
	}
	return Hold
}

func strength(score int) float64 {
	v := math.Min(100, math.Abs(float64(score))/MaxScore*100)
	return math.Round(v*100) / 100
}

func clampScore(score int) int {
	if score > MaxScore {
		return MaxScore
	}
	if score < -MaxScore {
		return -MaxScore
	}
	return score
}

func buy(delta int, format string, args ...any) (RuleResult, bool) {
	return RuleResult{Delta: delta, Vote: VoteBuy, Reason: fmt.Sprintf(format, args...)}, true
}

func sell(delta int, format string, args ...any) (RuleResult, bool) {
	return RuleResult{Delta: -delta, Vote: VoteSell, Reason: fmt.Sprintf(format, args...)}, true
}

func none() (RuleResult, bool) {
	return RuleResult{}, false
}

// Momentum

func rsiRule(b IndicatorBundle, _ float64) (RuleResult, bool) {
	if b.RSI == nil {
		return none()
	}
	rsi := *b.RSI
	switch {
	case rsi < 30:
		return buy(2, "RSI oversold (%.2f)", rsi)
	case rsi < 40:
		return buy(1, "RSI near oversold (%.2f)", rsi)
	case rsi > 70:
		return sell(2, "RSI overbought (%.2f)", rsi)
	case rsi > 60:
		return sell(1, "RSI near overbought (%.2f)", rsi)
	}
	return none()
}

func williamsRule(b IndicatorBundle, _ float64) (RuleResult, bool) {
	if b.WilliamsR == nil {
		return none()
	}
	wr := *b.WilliamsR
	switch {
	case wr < -80:
		return buy(1, "Williams %%R oversold (%.2f)", wr)
	case wr > -20:
		return sell(1, "Williams %%R overbought (%.2f)", wr)
	}
	return none()
}

func stochasticRule(b IndicatorBundle, _ float64) (RuleResult, bool) {
	if b.StochK == nil || b.StochD == nil {
		return none()
	}
	k, d := *b.StochK, *b.StochD
	switch {
	case k < 20 && d < 20:
		return buy(2, "Stochastic oversold (K:%.2f, D:%.2f)", k, d)
	case k > 80 && d > 80:
		return sell(2, "Stochastic overbought (K:%.2f, D:%.2f)", k, d)
	case k > d && k < 50:
		return buy(1, "Stochastic bullish crossover")
	case k < d && k > 50:
		return sell(1, "Stochastic bearish crossover")
	}
	return none()
}

func rocRule(b IndicatorBundle, _ float64) (RuleResult, bool) {
	if b.ROC == nil {
		return none()
	}
	roc := *b.ROC
	switch {
	case roc > 5:
		return buy(1, "Strong positive momentum (ROC: %.2f%%)", roc)
	case roc < -5:
		return sell(1, "Strong negative momentum (ROC: %.2f%%)", roc)
	}
	return none()
}

// Trend

func macdRule(b IndicatorBundle, _ float64) (RuleResult, bool) {
	if b.MACD == nil || b.MACDSignal == nil {
		return none()
	}
	macd, signal := *b.MACD, *b.MACDSignal
	switch {
	case macd > signal && macd > 0:
		return buy(2, "MACD bullish (MACD: %.2f > Signal: %.2f)", macd, signal)
	case macd < signal && macd < 0:
		return sell(2, "MACD bearish (MACD: %.2f < Signal: %.2f)", macd, signal)
	}
	return none()
}

func adxRule(b IndicatorBundle, _ float64) (RuleResult, bool) {
	if b.ADX == nil || b.PlusDI == nil || b.MinusDI == nil {
		return none()
	}
	adx := *b.ADX
	if adx <= 25 {
		return none()
	}
	if *b.PlusDI > *b.MinusDI {
		return buy(2, "Strong uptrend (ADX: %.2f, +DI > -DI)", adx)
	}
	return sell(2, "Strong downtrend (ADX: %.2f, -DI > +DI)", adx)
}

func movingAverageRule(b IndicatorBundle, _ float64) (RuleResult, bool) {
	if b.Close == nil || b.SMA20 == nil || b.SMA50 == nil || b.SMA200 == nil {
		return none()
	}
	c, s20, s50, s200 := *b.Close, *b.SMA20, *b.SMA50, *b.SMA200
	switch {
	case c > s20 && s20 > s50 && s50 > s200:
		return buy(3, "Golden alignment: Price > SMA20 > SMA50 > SMA200")
	case c < s20 && s20 < s50 && s50 < s200:
		return sell(3, "Death alignment: Price < SMA20 < SMA50 < SMA200")
	case s50 > s200 && c > s50:
		return buy(2, "Price above golden cross (SMA50 > SMA200)")
	case s50 < s200 && c < s50:
		return sell(2, "Price below death cross (SMA50 < SMA200)")
	}
	return none()
}

func psarRule(b IndicatorBundle, _ float64) (RuleResult, bool) {
	if b.Close == nil || b.PSAR == nil {
		return none()
	}
	if *b.Close > *b.PSAR {
		return buy(1, "Price above Parabolic SAR (%.2f)", *b.PSAR)
	}
	return sell(1, "Price below Parabolic SAR (%.2f)", *b.PSAR)
}

func supertrendRule(b IndicatorBundle, _ float64) (RuleResult, bool) {
	if b.Supertrend == nil || b.SupertrendDirection == nil {
		return none()
	}
	switch *b.SupertrendDirection {
	case 1:
		return buy(2, "Supertrend uptrend (ST: %.2f)", *b.Supertrend)
	case -1:
		return sell(2, "Supertrend downtrend (ST: %.2f)", *b.Supertrend)
	}
	return none()
}

func ichimokuRule(b IndicatorBundle, _ float64) (RuleResult, bool) {
	if b.Close == nil || b.IchimokuSpanA == nil || b.IchimokuSpanB == nil {
		return none()
	}
	top := math.Max(*b.IchimokuSpanA, *b.IchimokuSpanB)
	bottom := math.Min(*b.IchimokuSpanA, *b.IchimokuSpanB)
	switch {
	case *b.Close > top:
		return buy(2, "Price above Ichimoku cloud (bullish)")
	case *b.Close < bottom:
		return sell(2, "Price below Ichimoku cloud (bearish)")
	}
	return none()
}

// Volume

func mfiRule(b IndicatorBundle, _ float64) (RuleResult, bool) {
	if b.MFI == nil {
		return none()
	}
	mfi := *b.MFI
	switch {
	case mfi < 20:
		return buy(2, "MFI oversold (%.2f) - buying pressure", mfi)
	case mfi > 80:
		return sell(2, "MFI overbought (%.2f) - selling pressure", mfi)
	}
	return none()
}

func cmfRule(b IndicatorBundle, _ float64) (RuleResult, bool) {
	if b.CMF == nil {
		return none()
	}
	cmf := *b.CMF
	switch {
	case cmf > 0.1:
		return buy(1, "Positive money flow (CMF: %.2f)", cmf)
	case cmf < -0.1:
		return sell(1, "Negative money flow (CMF: %.2f)", cmf)
	}
	return none()
}

func vwapRule(b IndicatorBundle, _ float64) (RuleResult, bool) {
	if b.Close == nil || b.VWAP == nil {
		return none()
	}
	if *b.Close > *b.VWAP {
		return buy(1, "Price above VWAP (%.2f)", *b.VWAP)
	}
	return sell(1, "Price below VWAP (%.2f)", *b.VWAP)
}

// Volatility

// bollingerRule scores band touches with a vote. The middle-band position
// moves the score without voting; price exactly on the middle band counts
// as below it.
func bollingerRule(b IndicatorBundle, _ float64) (RuleResult, bool) {
	if b.Close == nil || b.BBUpper == nil || b.BBMiddle == nil || b.BBLower == nil {
		return none()
	}
	c := *b.Close
	switch {
	case c <= *b.BBLower:
		return buy(2, "Price at lower Bollinger Band (%.2f)", *b.BBLower)
	case c >= *b.BBUpper:
		return sell(2, "Price at upper Bollinger Band (%.2f)", *b.BBUpper)
	case c > *b.BBMiddle:
		return RuleResult{Delta: 1, Reason: "Price above BB middle"}, true
	}
	return RuleResult{Delta: -1, Reason: "Price below BB middle"}, true
}

func fibonacciRule(b IndicatorBundle, _ float64) (RuleResult, bool) {
	if b.Close == nil || b.Fib618 == nil || b.Fib382 == nil || *b.Close == 0 {
		return none()
	}
	if math.Abs(*b.Close-*b.Fib618)/math.Abs(*b.Close) < 0.01 {
		return RuleResult{Delta: 1, Reason: fmt.Sprintf("Near Fibonacci 61.8%% support (%.2f)", *b.Fib618)}, true
	}
	return none()
}

func sentimentRule(_ IndicatorBundle, s float64) (RuleResult, bool) {
	switch {
	case s > 0.5:
		return buy(2, "Positive market sentiment (%.2f)", s)
	case s < -0.5:
		return sell(2, "Negative market sentiment (%.2f)", s)
	case s > 0.2:
		return buy(1, "Slightly positive sentiment (%.2f)", s)
	case s < -0.2:
		return sell(1, "Slightly negative sentiment (%.2f)", s)
	}
	return none()
}

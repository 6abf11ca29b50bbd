package analysis

// SignalClass is the discrete output of the scorer.
type SignalClass string

const (
	StrongBuy  SignalClass = "STRONG BUY"
	Buy        SignalClass = "BUY"
	Hold       SignalClass = "HOLD"
	Sell       SignalClass = "SELL"
	StrongSell SignalClass = "STRONG SELL"
)

// IsBuy reports whether the class is BUY or STRONG BUY.
func (c SignalClass) IsBuy() bool {
	return c == Buy || c == StrongBuy
}

// IsSell reports whether the class is SELL or STRONG SELL.
func (c SignalClass) IsSell() bool {
	return c == Sell || c == StrongSell
}

// Signal is the scored view of one indicator bundle
type Signal struct {
	Class     SignalClass `json:"signal"`
	Score     int         `json:"score"`    // clamped to [-MaxScore, MaxScore]
	Strength  float64     `json:"strength"` // 0-100
	Reasons   []string    `json:"reasons"`
	BuyVotes  int         `json:"buyVotes"`
	SellVotes int         `json:"sellVotes"`
}

// IndicatorBundle is a snapshot of pre-computed indicator values for one bar
// window. A nil field means the value is unavailable and its rule does not vote.
type IndicatorBundle struct {
	Close *float64 `json:"close,omitempty"`

	// Momentum
	RSI       *float64 `json:"rsi,omitempty"`
	WilliamsR *float64 `json:"williamsR,omitempty"`
	StochK    *float64 `json:"stochK,omitempty"`
	StochD    *float64 `json:"stochD,omitempty"`
	ROC       *float64 `json:"roc,omitempty"`

	// Trend
	MACD                *float64 `json:"macd,omitempty"`
	MACDSignal          *float64 `json:"macdSignal,omitempty"`
	ADX                 *float64 `json:"adx,omitempty"`
	PlusDI              *float64 `json:"plusDI,omitempty"`
	MinusDI             *float64 `json:"minusDI,omitempty"`
	SMA20               *float64 `json:"sma20,omitempty"`
	SMA50               *float64 `json:"sma50,omitempty"`
	SMA200              *float64 `json:"sma200,omitempty"`
	PSAR                *float64 `json:"psar,omitempty"`
	Supertrend          *float64 `json:"supertrend,omitempty"`
	SupertrendDirection *int     `json:"supertrendDirection,omitempty"`
	IchimokuSpanA       *float64 `json:"ichimokuSpanA,omitempty"`
	IchimokuSpanB       *float64 `json:"ichimokuSpanB,omitempty"`

	// Volume
	MFI  *float64 `json:"mfi,omitempty"`
	CMF  *float64 `json:"cmf,omitempty"`
	VWAP *float64 `json:"vwap,omitempty"`

	// Volatility
	BBUpper  *float64 `json:"bbUpper,omitempty"`
	BBMiddle *float64 `json:"bbMiddle,omitempty"`
	BBLower  *float64 `json:"bbLower,omitempty"`
	ATR      *float64 `json:"atr,omitempty"`

	// Fibonacci retracements
	Fib382 *float64 `json:"fib382,omitempty"`
	Fib618 *float64 `json:"fib618,omitempty"`
}

// IsEmpty reports whether no indicator value is present.
func (b IndicatorBundle) IsEmpty() bool {
	return b == IndicatorBundle{}
}

// Value returns a pointer to v for building bundles.
func Value(v float64) *float64 {
	return &v
}

// Trend returns a pointer to a supertrend direction.
func Trend(d int) *int {
	return &d
}

// PatternBias is the direction implied by a detected candle pattern.
type PatternBias string

const (
	PatternBullish PatternBias = "bullish"
	PatternBearish PatternBias = "bearish"
)

// PatternEvidence is one detected candlestick pattern with an integer strength
type PatternEvidence struct {
	Name     string      `json:"name"`
	Bias     PatternBias `json:"type"`
	Strength int         `json:"strength"`
}

// PatternStrength sums evidence strength per side.
func PatternStrength(evidence []PatternEvidence) (bullish, bearish int) {
	for _, e := range evidence {
		switch e.Bias {
		case PatternBullish:
			bullish += e.Strength
		case PatternBearish:
			bearish += e.Strength
		}
	}
	return bullish, bearish
}

// PredictionDirection is the direction reported by an external predictor.
type PredictionDirection string

const (
	PredictionBullish PredictionDirection = "BULLISH"
	PredictionBearish PredictionDirection = "BEARISH"
	PredictionNeutral PredictionDirection = "NEUTRAL"
)

// Prediction is an opaque ML direction forecast.
type Prediction struct {
	Direction  PredictionDirection `json:"direction"`
	Confidence float64             `json:"confidence"` // percent, 0-100
}

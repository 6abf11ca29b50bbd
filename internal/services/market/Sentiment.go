package market

import (
	"hash/fnv"
	"strings"
)

// SentimentSource scores market mood for a symbol in [-1, 1].
type SentimentSource interface {
	Sentiment(symbol string) float64
}

// StaticSentiment returns configured scores, and Default for anything else.
type StaticSentiment struct {
	Scores  map[string]float64
	Default float64
}

func (s StaticSentiment) Sentiment(symbol string) float64 {
	if v, ok := s.Scores[symbol]; ok {
		return v
	}
	return s.Default
}

// KeywordSentiment is a deterministic stand-in for a news sentiment feed:
// each symbol maps to a fixed score derived from its name, within ±0.3 for
// crypto and ±0.2 for forex pairs.
type KeywordSentiment struct{}

func (KeywordSentiment) Sentiment(symbol string) float64 {
	h := fnv.New32a()
	h.Write([]byte(symbol))
	unit := float64(h.Sum32()%10001)/10000*2 - 1 // [-1, 1]

	spread := 0.3
	if IsForex(symbol) {
		spread = 0.2
	}
	return unit * spread
}

// IsForex reports whether symbol is a forex pair quote such as "EURUSD=X".
func IsForex(symbol string) bool {
	return strings.HasSuffix(strings.ToUpper(symbol), "=X")
}

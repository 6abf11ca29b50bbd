package strategy

import (
	"testing"

	"SignalTradeBot/internal/models"
	"SignalTradeBot/internal/services/analysis"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pattern = []analysis.PatternEvidence{{Name: "Hammer", Bias: analysis.PatternBullish, Strength: 7}}

func TestPolicyTableDefaults(t *testing.T) {
	table := DefaultPolicyTable()

	assert.Equal(t, Thresholds{SignalStrength: 50, MLConfidence: 75, RequirePatterns: true, WarmUp: 200}, table.For(models.PriceTimeFrame4h))
	assert.Equal(t, Thresholds{SignalStrength: 20, MLConfidence: 55, WarmUp: 100}, table.For(models.PriceTimeFrame1d))
	assert.Equal(t, Thresholds{SignalStrength: 15, MLConfidence: 50, WarmUp: 20}, table.For(models.PriceTimeFrame1w))
	assert.NoError(t, table.Validate())
}

func TestPolicyTableValidate(t *testing.T) {
	table := DefaultPolicyTable()
	table.Intervals["1d"] = Thresholds{SignalStrength: 120}

	assert.ErrorIs(t, table.Validate(), models.ErrInvalidInput)
}

func TestDecide(t *testing.T) {
	buy := analysis.Signal{Class: analysis.Buy, Strength: 40}
	weakBuy := analysis.Signal{Class: analysis.Buy, Strength: 10}
	sell := analysis.Signal{Class: analysis.StrongSell, Strength: 60}
	hold := analysis.Signal{Class: analysis.Hold, Strength: 90}
	bearishML := &analysis.Prediction{Direction: analysis.PredictionBearish, Confidence: 80}
	neutralML := &analysis.Prediction{Direction: analysis.PredictionNeutral, Confidence: 99}
	bullishML := &analysis.Prediction{Direction: analysis.PredictionBullish, Confidence: 80}

	tests := []struct {
		name      string
		interval  string
		signal    analysis.Signal
		evidence  []analysis.PatternEvidence
		ml        *analysis.Prediction
		enter     bool
		direction models.Direction
		score     int
	}{
		{"daily signal and patterns", "1d", buy, pattern, nil, true, models.DirectionLong, 2},
		{"daily signal alone", "1d", buy, nil, nil, false, models.DirectionLong, 1},
		{"daily weak signal", "1d", weakBuy, pattern, nil, false, models.DirectionNoTrade, 1},
		{"daily signal and ml", "1d", sell, nil, bearishML, true, models.DirectionShort, 2},
		{"opposing ml does not count", "1d", buy, pattern, bearishML, true, models.DirectionLong, 2},
		{"opposing ml cannot complete the rule", "1d", buy, nil, bearishML, false, models.DirectionLong, 1},
		{"agreeing ml counts", "1d", buy, nil, bullishML, true, models.DirectionLong, 2},
		{"ml supplies direction", "1d", hold, pattern, bearishML, true, models.DirectionShort, 2},
		{"neutral ml does not count", "1d", hold, pattern, neutralML, false, models.DirectionNoTrade, 1},
		{"intraday requires patterns", "4h", sell, nil, bearishML, false, models.DirectionShort, 2},
		{"intraday strength threshold", "1h", buy, pattern, nil, false, models.DirectionNoTrade, 1},
		{"intraday full house", "1h", sell, pattern, bearishML, true, models.DirectionShort, 3},
		{"weekly relaxed", "1wk", analysis.Signal{Class: analysis.Sell, Strength: 15}, pattern, nil, true, models.DirectionShort, 2},
	}

	policy := NewEntryPolicy(DefaultPolicyTable())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := policy.Decide(tt.interval, tt.signal, tt.evidence, tt.ml)
			assert.Equal(t, tt.enter, d.Enter)
			assert.Equal(t, tt.direction, d.Direction)
			assert.Equal(t, tt.score, d.Score)
			if tt.ml != nil && d.SignalValid && d.MLValid {
				assert.Equal(t, tt.direction, d.Direction, "counted ml must agree with the signal")
			}
			if !tt.enter {
				require.NotEmpty(t, d.Reason)
			}
		})
	}
}

func TestWarmUp(t *testing.T) {
	policy := NewEntryPolicy(DefaultPolicyTable())

	assert.Equal(t, 100, policy.WarmUp("1d"))
	assert.Equal(t, 20, policy.WarmUp("1wk"))
	assert.Equal(t, 200, policy.WarmUp("15m"))
}

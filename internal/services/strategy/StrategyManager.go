package strategy

import (
	"SignalTradeBot/internal/models"
	"SignalTradeBot/internal/services/analysis"
)

const requiredConditions = 2

// EntryPolicy applies the 2-of-3 entry rule: signal strength, pattern
// evidence and ML agreement.
type EntryPolicy struct {
	table PolicyTable
}

func NewEntryPolicy(table PolicyTable) *EntryPolicy {
	return &EntryPolicy{table: table}
}

func (p *EntryPolicy) Table() PolicyTable {
	return p.table
}

// WarmUp is the number of leading bars skipped for interval.
func (p *EntryPolicy) WarmUp(interval string) int {
	return p.table.For(interval).WarmUp
}

// Decide evaluates the entry rule. Direction comes from the signal when it
// qualifies, otherwise from the ML prediction. A prediction opposing a
// qualified signal does not count as a condition.
func (p *EntryPolicy) Decide(interval string, sig analysis.Signal, evidence []analysis.PatternEvidence, ml *analysis.Prediction) EntryDecision {
	th := p.table.For(interval)
	d := EntryDecision{Direction: models.DirectionNoTrade}

	// Condition 1: signal class with enough strength
	if sig.Strength >= th.SignalStrength {
		switch {
		case sig.Class.IsBuy():
			d.SignalValid, d.Direction = true, models.DirectionLong
		case sig.Class.IsSell():
			d.SignalValid, d.Direction = true, models.DirectionShort
		}
	}
	if d.SignalValid {
		d.Score++
	}

	// Condition 2: any pattern evidence
	d.PatternsPresent = len(evidence) > 0
	if d.PatternsPresent {
		d.Score++
	}

	// Condition 3: ML direction above confidence, agreeing with the signal
	// when one qualified
	if ml != nil && ml.Confidence >= th.MLConfidence {
		var mlDir models.Direction
		switch ml.Direction {
		case analysis.PredictionBullish:
			mlDir = models.DirectionLong
		case analysis.PredictionBearish:
			mlDir = models.DirectionShort
		}
		if mlDir != "" && (!d.SignalValid || mlDir == d.Direction) {
			d.MLValid = true
			d.Score++
			if d.Direction == models.DirectionNoTrade {
				d.Direction = mlDir
			}
		}
	}

	switch {
	case th.RequirePatterns && !d.PatternsPresent:
		d.Reason = "pattern evidence required"
	case d.Direction == models.DirectionNoTrade:
		d.Reason = "no directional condition"
	case d.Score < requiredConditions:
		d.Reason = "fewer than 2 conditions met"
	default:
		d.Enter = true
	}
	return d
}

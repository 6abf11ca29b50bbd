package strategy

import (
	"fmt"

	"SignalTradeBot/internal/models"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Thresholds is one row of the entry policy table.
type Thresholds struct {
	SignalStrength  float64 `yaml:"signal_strength" json:"signal_strength" validate:"gte=0,lte=100"`
	MLConfidence    float64 `yaml:"ml_confidence" json:"ml_confidence" validate:"gte=0,lte=100"`
	RequirePatterns bool    `yaml:"require_patterns" json:"require_patterns"`
	WarmUp          int     `yaml:"warm_up" json:"warm_up" validate:"gte=0"`
}

// PolicyTable maps a bar interval to its entry thresholds. Intervals not
// listed use Default.
type PolicyTable struct {
	Default   Thresholds            `yaml:"default" json:"default"`
	Intervals map[string]Thresholds `yaml:"intervals" json:"intervals" validate:"dive"`
}

// DefaultPolicyTable is strict for intraday bars and relaxes for daily and
// weekly bars.
func DefaultPolicyTable() PolicyTable {
	return PolicyTable{
		Default: Thresholds{SignalStrength: 50, MLConfidence: 75, RequirePatterns: true, WarmUp: 200},
		Intervals: map[string]Thresholds{
			models.PriceTimeFrame1d: {SignalStrength: 20, MLConfidence: 55, WarmUp: 100},
			models.PriceTimeFrame1w: {SignalStrength: 15, MLConfidence: 50, WarmUp: 20},
		},
	}
}

// For returns the thresholds for interval.
func (t PolicyTable) For(interval string) Thresholds {
	if th, ok := t.Intervals[interval]; ok {
		return th
	}
	return t.Default
}

func (t PolicyTable) Validate() error {
	if err := validate.Struct(t); err != nil {
		return fmt.Errorf("%w: policy table: %v", models.ErrInvalidInput, err)
	}
	return nil
}

// EntryDecision records which of the three entry conditions held.
type EntryDecision struct {
	Enter           bool             `json:"enter"`
	Direction       models.Direction `json:"direction"`
	Score           int              `json:"score"`
	SignalValid     bool             `json:"signal_valid"`
	PatternsPresent bool             `json:"patterns_present"`
	MLValid         bool             `json:"ml_valid"`
	Reason          string           `json:"reason,omitempty"`
}

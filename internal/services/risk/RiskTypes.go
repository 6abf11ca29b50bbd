package risk

import (
	"SignalTradeBot/internal/models"
	"SignalTradeBot/internal/services/indicators"
)

// Confidence grades the reward/risk ratio of a plan.
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

// Stop candidate methods
const (
	MethodATR        = "atr"
	MethodSwing      = "swing"
	MethodFixed      = "fixed_percent"
	MethodSupport    = "support"
	MethodResistance = "resistance"
)

// EntryPlan is the calibrated entry, stop and target for one direction.
// A NO TRADE plan carries only the direction and the recommendation.
type EntryPlan struct {
	Direction              models.Direction        `json:"trade_type"`
	EntryPrice             float64                 `json:"entry_price,omitempty"`
	StopLoss               float64                 `json:"stop_loss,omitempty"`
	TakeProfit             float64                 `json:"take_profit,omitempty"`
	RiskReward             float64                 `json:"risk_reward_ratio,omitempty"`
	RiskPercent            float64                 `json:"risk_percent,omitempty"`
	PotentialProfitPercent float64                 `json:"potential_profit_percent,omitempty"`
	StopMethod             string                  `json:"stop_method,omitempty"`
	StopReasoning          string                  `json:"stop_loss_reasoning,omitempty"`
	TakeProfitReasoning    string                  `json:"take_profit_reasoning,omitempty"`
	Confidence             Confidence              `json:"confidence,omitempty"`
	Recommendation         string                  `json:"recommendation"`
	KeyLevels              *indicators.PivotLevels `json:"key_levels,omitempty"`
}

// Tradeable reports whether the plan carries price levels.
func (p EntryPlan) Tradeable() bool {
	return p.Direction == models.DirectionLong || p.Direction == models.DirectionShort
}

func noTrade(reason string) EntryPlan {
	return EntryPlan{
		Direction:      models.DirectionNoTrade,
		Recommendation: reason,
	}
}

// candidate is a tagged stop level.
type candidate struct {
	value  float64
	method string
}

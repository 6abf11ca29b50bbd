package sizing

import (
	"fmt"
	"math"

	"SignalTradeBot/internal/models"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Account holds the account parameters shared by sizing and margin math.
type Account struct {
	Capital     float64 `json:"capital" validate:"gt=0"`
	RiskPercent float64 `json:"risk_percent" validate:"gt=0,lte=100"`
	Leverage    int     `json:"leverage" validate:"gte=1"`
}

// Validate reports invalid account parameters as ErrInvalidInput.
func (a Account) Validate() error {
	if err := validate.Struct(a); err != nil {
		return fmt.Errorf("%w: account: %v", models.ErrInvalidInput, err)
	}
	return nil
}

// Sizing is the notional position size and the capital put at risk.
type Sizing struct {
	PositionSize float64 `json:"position_size"`
	RiskAmount   float64 `json:"risk_amount"`
	Capped       bool    `json:"capped"`
	Degenerate   bool    `json:"degenerate"` // stop equal to entry
}

type Sizer struct {
	maxFraction float64 // of capital, notional
}

func NewSizer() *Sizer {
	return &Sizer{maxFraction: 0.10}
}

// Size derives position size from the risk budget and the stop distance.
// The result never exceeds capital x 10% notional.
func (s *Sizer) Size(capital, riskPercent, entry, stop float64) (Sizing, error) {
	switch {
	case capital <= 0 || math.IsNaN(capital):
		return Sizing{}, fmt.Errorf("%w: capital must be positive, got %v", models.ErrInvalidInput, capital)
	case !(riskPercent > 0 && riskPercent <= 100):
		return Sizing{}, fmt.Errorf("%w: risk percent must be in (0,100], got %v", models.ErrInvalidInput, riskPercent)
	case entry <= 0 || math.IsNaN(entry):
		return Sizing{}, fmt.Errorf("%w: entry price must be positive, got %v", models.ErrInvalidInput, entry)
	}

	limit := capital * s.maxFraction
	out := Sizing{RiskAmount: capital * riskPercent / 100}

	distance := math.Abs(entry - stop)
	if distance == 0 {
		out.PositionSize = limit
		out.Degenerate = true
	} else {
		out.PositionSize = out.RiskAmount / distance
	}

	if out.PositionSize > limit {
		out.PositionSize = limit
		out.Capped = true
	}
	return out, nil
}

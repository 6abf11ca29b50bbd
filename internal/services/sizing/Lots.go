package sizing

import (
	"fmt"
	"strings"

	"SignalTradeBot/internal/models"
)

const (
	StandardLot = 100000
	MiniLot     = 10000
	MicroLot    = 1000

	marginBuffer = 1.2
)

var jpyPairs = []string{"USDJPY", "EURJPY", "GBPJPY", "AUDJPY", "NZDJPY", "CADJPY", "CHFJPY"}

// IsJPYPair reports whether the pair is quoted to two decimals. A trailing
// "=X" quote suffix is ignored.
func IsJPYPair(pair string) bool {
	clean := strings.ToUpper(strings.TrimSuffix(pair, "=X"))
	for _, p := range jpyPairs {
		if strings.Contains(clean, p) {
			return true
		}
	}
	return false
}

// PipSize is 0.01 for JPY pairs and 0.0001 otherwise.
func PipSize(pair string) float64 {
	if IsJPYPair(pair) {
		return 0.01
	}
	return 0.0001
}

// PipValue is the approximate account-currency value of one pip on one
// standard lot.
func PipValue(pair string) float64 {
	if IsJPYPair(pair) {
		return 9.0
	}
	return 10.0
}

// StopPips converts a price distance into pips for pair.
func StopPips(pair string, entry, stop float64) float64 {
	d := entry - stop
	if d < 0 {
		d = -d
	}
	return d / PipSize(pair)
}

type LotSize struct {
	Pair           string  `json:"pair"`
	RiskAmount     float64 `json:"risk_amount"`
	StopPips       float64 `json:"stop_loss_pips"`
	StandardLots   float64 `json:"standard_lots"`
	MiniLots       float64 `json:"mini_lots"`
	MicroLots      float64 `json:"micro_lots"`
	Units          float64 `json:"units"`
	PositionValue  float64 `json:"position_value"`
	LeverageNeeded float64 `json:"leverage_required"`
	RiskPerPip     float64 `json:"risk_per_pip"`
	PipValue       float64 `json:"pip_value_per_standard_lot"`
}

type Margin struct {
	Lots           float64 `json:"lot_size"`
	PositionValue  float64 `json:"position_value"`
	Leverage       int     `json:"leverage"`
	MarginRequired float64 `json:"margin_required"`
	FreeMargin     float64 `json:"free_margin_needed"`
}

type ProfitLoss struct {
	Pips          float64 `json:"pip_difference"`
	ProfitLoss    float64 `json:"profit_loss"`
	ReturnPercent float64 `json:"percentage_return"`
}

// LotCalculator sizes forex positions in lots from a pip stop distance.
type LotCalculator struct{}

func NewLotCalculator() *LotCalculator {
	return &LotCalculator{}
}

func (l *LotCalculator) Lots(account Account, stopPips float64, pair string) (LotSize, error) {
	if err := account.Validate(); err != nil {
		return LotSize{}, err
	}
	if stopPips <= 0 {
		return LotSize{}, fmt.Errorf("%w: stop loss must be greater than 0 pips", models.ErrInvalidInput)
	}

	risk := account.Capital * account.RiskPercent / 100
	pipValue := PipValue(pair)
	standard := risk / (pipValue * stopPips)
	value := standard * StandardLot

	return LotSize{
		Pair:           pair,
		RiskAmount:     risk,
		StopPips:       stopPips,
		StandardLots:   standard,
		MiniLots:       standard * 10,
		MicroLots:      standard * 100,
		Units:          value,
		PositionValue:  value,
		LeverageNeeded: value / account.Capital,
		RiskPerPip:     risk / stopPips,
		PipValue:       pipValue,
	}, nil
}

// Margin returns the margin a position needs at leverage, with a 20% free
// margin buffer.
func (l *LotCalculator) Margin(lots float64, leverage int) (Margin, error) {
	if leverage < 1 {
		return Margin{}, fmt.Errorf("%w: leverage must be at least 1, got %d", models.ErrInvalidInput, leverage)
	}
	value := lots * StandardLot
	required := value / float64(leverage)
	return Margin{
		Lots:           lots,
		PositionValue:  value,
		Leverage:       leverage,
		MarginRequired: required,
		FreeMargin:     required * marginBuffer,
	}, nil
}

// ProfitLoss values a closed lot position in account currency.
func (l *LotCalculator) ProfitLoss(lots, entry, exit float64, pair string, direction models.Direction) ProfitLoss {
	pips := (exit - entry) / PipSize(pair)
	if direction == models.DirectionShort {
		pips = -pips
	}
	pl := lots * pips * PipValue(pair)

	out := ProfitLoss{Pips: pips, ProfitLoss: pl}
	if value := lots * StandardLot; value > 0 {
		out.ReturnPercent = pl / value * 100
	}
	return out
}

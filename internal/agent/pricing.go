package agent

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// PricingInput carries the market signals for one product. Unknown or empty
// signals count as "normal".
type PricingInput struct {
	CurrentPrice decimal.Decimal `json:"currentPrice" validate:"required"`
	Demand       string          `json:"demand" validate:"omitempty,oneof=low normal high"`
	Competition  string          `json:"competition" validate:"omitempty,oneof=low normal high"`
	Seasonality  string          `json:"seasonality" validate:"omitempty,oneof=off-season normal peak"`
}

type PricingFactors struct {
	Demand      string `json:"demand"`
	Competition string `json:"competition"`
	Seasonality string `json:"seasonality"`
}

type PricingSuggestion struct {
	CurrentPrice   decimal.Decimal `json:"currentPrice"`
	OptimizedPrice decimal.Decimal `json:"optimizedPrice"`
	Change         string          `json:"change"`
	Factors        PricingFactors  `json:"factors"`
}

var (
	demandAdjust      = map[string]string{"high": "0.10", "low": "-0.10"}
	competitionAdjust = map[string]string{"low": "0.05", "high": "-0.05"}
	seasonalityAdjust = map[string]string{"peak": "0.08", "off-season": "-0.08"}

	maxSwing = decimal.RequireFromString("0.20")
	hundred  = decimal.NewFromInt(100)
)

// SuggestPrice adjusts the current price by the market signals and clamps the
// result to within 20% of the current price.
func SuggestPrice(in PricingInput) (PricingSuggestion, error) {
	if !in.CurrentPrice.IsPositive() {
		return PricingSuggestion{}, fmt.Errorf("current price must be positive")
	}
	factors := PricingFactors{
		Demand:      normalizeSignal(in.Demand),
		Competition: normalizeSignal(in.Competition),
		Seasonality: normalizeSignal(in.Seasonality),
	}

	multiplier := decimal.NewFromInt(1).
		Add(adjustment(demandAdjust, factors.Demand)).
		Add(adjustment(competitionAdjust, factors.Competition)).
		Add(adjustment(seasonalityAdjust, factors.Seasonality))

	price := in.CurrentPrice
	optimized := price.Mul(multiplier).Round(2)
	floor := price.Mul(decimal.NewFromInt(1).Sub(maxSwing))
	ceiling := price.Mul(decimal.NewFromInt(1).Add(maxSwing))
	optimized = decimal.Max(floor, decimal.Min(ceiling, optimized))

	change := optimized.Sub(price).Div(price).Mul(hundred)
	return PricingSuggestion{
		CurrentPrice:   price,
		OptimizedPrice: optimized,
		Change:         change.StringFixed(2) + "%",
		Factors:        factors,
	}, nil
}

func normalizeSignal(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return "normal"
	}
	return v
}

func adjustment(table map[string]string, signal string) decimal.Decimal {
	if v, ok := table[signal]; ok {
		return decimal.RequireFromString(v)
	}
	return decimal.Zero
}

package quote

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseOptionalDecimal normalizes an optional form field into a decimal at
// the boundary between UI text inputs and the calculator. Empty, unparseable,
// or negative input becomes zero so the calculation core never sees a string
// or a null.
func ParseOptionalDecimal(raw string) decimal.Decimal {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return decimal.Zero
	}
	value, err := decimal.NewFromString(trimmed)
	if err != nil || value.IsNegative() {
		return decimal.Zero
	}
	return value
}

// ParseParameters normalizes the four optional quote parameters from raw form
// strings. Missing or invalid fields default to zero, never to an error.
func ParseParameters(laborCost, overheadPct, profitMarginPct, commissionPct string) Parameters {
	return Parameters{
		LaborCost:              ParseOptionalDecimal(laborCost),
		OverheadPercentage:     ParseOptionalDecimal(overheadPct),
		ProfitMarginPercentage: ParseOptionalDecimal(profitMarginPct),
		CommissionPercentage:   ParseOptionalDecimal(commissionPct),
	}
}

func parseQuantity(raw string) (int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, &ValidationError{Field: "quantity", Reason: "required"}
	}
	qty, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, &ValidationError{Field: "quantity", Reason: "must be an integer"}
	}
	if qty < 0 {
		return 0, &ValidationError{Field: "quantity", Reason: "must be zero or greater"}
	}
	return qty, nil
}

func parseUnitCost(raw string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return decimal.Zero, &ValidationError{Field: "unit_cost", Reason: "required"}
	}
	cost, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, &ValidationError{Field: "unit_cost", Reason: "must be a number"}
	}
	if cost.IsNegative() {
		return decimal.Zero, &ValidationError{Field: "unit_cost", Reason: "must be zero or greater"}
	}
	return cost, nil
}

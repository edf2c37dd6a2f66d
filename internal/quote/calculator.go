package quote

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Parameters are the labor and percentage inputs of a quote. Zero values are
// valid and mean "no markup". CommissionPercentage only applies to the sales
// variant and is ignored by Calculate.
type Parameters struct {
	LaborCost              decimal.Decimal `json:"labor_cost"`
	OverheadPercentage     decimal.Decimal `json:"overhead_percentage"`
	ProfitMarginPercentage decimal.Decimal `json:"profit_margin_percentage"`
	CommissionPercentage   decimal.Decimal `json:"commission_percentage"`
}

// Breakdown is the full price decomposition of one quote. Every amount
// carries full precision; rounding to cents happens only when rendering.
type Breakdown struct {
	MaterialsSubtotal decimal.Decimal `json:"materials_subtotal"`
	LaborCost         decimal.Decimal `json:"labor_cost"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	OverheadAmount    decimal.Decimal `json:"overhead_amount"`
	CostWithOverhead  decimal.Decimal `json:"cost_with_overhead"`
	ProfitAmount      decimal.Decimal `json:"profit_amount"`
	FinalQuote        decimal.Decimal `json:"final_quote"`
}

// SalesBreakdown extends Breakdown with the commission split of the sales
// variant.
type SalesBreakdown struct {
	Breakdown
	CommissionAmount decimal.Decimal `json:"commission_amount"`
	NetProfit        decimal.Decimal `json:"net_profit"`
}

// Calculate turns a materials subtotal and parameters into a full breakdown.
// The step order is fixed: overhead applies to materials plus labor, and the
// profit margin applies on top of overhead. Calculate is a pure function and
// never fails for non-negative numeric inputs.
func Calculate(materialsSubtotal decimal.Decimal, params Parameters) Breakdown {
	subtotal := materialsSubtotal.Add(params.LaborCost)
	overheadAmount := subtotal.Mul(params.OverheadPercentage.Div(hundred))
	costWithOverhead := subtotal.Add(overheadAmount)
	profitAmount := costWithOverhead.Mul(params.ProfitMarginPercentage.Div(hundred))
	finalQuote := costWithOverhead.Add(profitAmount)

	return Breakdown{
		MaterialsSubtotal: materialsSubtotal,
		LaborCost:         params.LaborCost,
		Subtotal:          subtotal,
		OverheadAmount:    overheadAmount,
		CostWithOverhead:  costWithOverhead,
		ProfitAmount:      profitAmount,
		FinalQuote:        finalQuote,
	}
}

// CalculateSales runs Calculate and splits the final quote into a commission
// amount and the remaining net profit.
func CalculateSales(materialsSubtotal decimal.Decimal, params Parameters) SalesBreakdown {
	base := Calculate(materialsSubtotal, params)
	commission := base.FinalQuote.Mul(params.CommissionPercentage.Div(hundred))

	return SalesBreakdown{
		Breakdown:        base,
		CommissionAmount: commission,
		NetProfit:        base.FinalQuote.Sub(commission),
	}
}

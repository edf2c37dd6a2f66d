package quote

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// TestCalculateWorkedExample pins the exact breakdown for materials 11000,
// labor 2500, overhead 15%, margin 20%. Every intermediate must match to two
// decimals.
func TestCalculateWorkedExample(t *testing.T) {
	breakdown := Calculate(dec("11000"), Parameters{
		LaborCost:              dec("2500"),
		OverheadPercentage:     dec("15"),
		ProfitMarginPercentage: dec("20"),
	})

	checks := []struct {
		name string
		got  decimal.Decimal
		want string
	}{
		{"subtotal", breakdown.Subtotal, "13500.00"},
		{"overhead amount", breakdown.OverheadAmount, "2025.00"},
		{"cost with overhead", breakdown.CostWithOverhead, "15525.00"},
		{"profit amount", breakdown.ProfitAmount, "3105.00"},
		{"final quote", breakdown.FinalQuote, "18630.00"},
	}
	for _, check := range checks {
		if got := check.got.StringFixed(2); got != check.want {
			t.Fatalf("%s: expected %s, got %s", check.name, check.want, got)
		}
	}
}

func TestCalculateZeroParameterIdentity(t *testing.T) {
	materials := dec("4321.87")
	breakdown := Calculate(materials, Parameters{})

	if !breakdown.FinalQuote.Equal(materials) {
		t.Fatalf("expected final quote %s with zero parameters, got %s", materials, breakdown.FinalQuote)
	}
	if !breakdown.OverheadAmount.IsZero() || !breakdown.ProfitAmount.IsZero() {
		t.Fatalf("expected zero overhead and profit amounts")
	}
}

func TestCalculateIsDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 200; i++ {
		materials := decimal.New(int64(rng.Intn(10_000_000)), -2)
		params := Parameters{
			LaborCost:              decimal.New(int64(rng.Intn(1_000_000)), -2),
			OverheadPercentage:     decimal.New(int64(rng.Intn(10_000)), -2),
			ProfitMarginPercentage: decimal.New(int64(rng.Intn(10_000)), -2),
		}

		first := Calculate(materials, params)
		second := Calculate(materials, params)
		if !first.FinalQuote.Equal(second.FinalQuote) || first.FinalQuote.String() != second.FinalQuote.String() {
			t.Fatalf("calculate is not deterministic for materials=%s params=%+v", materials, params)
		}
	}
}

// TestCalculateMonotonicity checks that raising any single input never lowers
// the final quote.
func TestCalculateMonotonicity(t *testing.T) {
	rng := rand.New(rand.NewSource(99))

	for i := 0; i < 200; i++ {
		materials := decimal.New(int64(rng.Intn(1_000_000)), -2)
		params := Parameters{
			LaborCost:              decimal.New(int64(rng.Intn(100_000)), -2),
			OverheadPercentage:     decimal.New(int64(rng.Intn(5_000)), -2),
			ProfitMarginPercentage: decimal.New(int64(rng.Intn(5_000)), -2),
		}
		bump := decimal.New(int64(rng.Intn(10_000)+1), -2)
		base := Calculate(materials, params).FinalQuote

		higherLabor := params
		higherLabor.LaborCost = params.LaborCost.Add(bump)
		if Calculate(materials, higherLabor).FinalQuote.LessThan(base) {
			t.Fatalf("raising labor cost lowered the final quote (params=%+v bump=%s)", params, bump)
		}

		higherOverhead := params
		higherOverhead.OverheadPercentage = params.OverheadPercentage.Add(bump)
		if Calculate(materials, higherOverhead).FinalQuote.LessThan(base) {
			t.Fatalf("raising overhead lowered the final quote (params=%+v bump=%s)", params, bump)
		}

		higherMargin := params
		higherMargin.ProfitMarginPercentage = params.ProfitMarginPercentage.Add(bump)
		if Calculate(materials, higherMargin).FinalQuote.LessThan(base) {
			t.Fatalf("raising profit margin lowered the final quote (params=%+v bump=%s)", params, bump)
		}
	}
}

// TestCommissionSplitIsExact checks netProfit + commissionAmount == finalQuote
// across the whole commission range.
func TestCommissionSplitIsExact(t *testing.T) {
	rng := rand.New(rand.NewSource(13))

	for i := 0; i < 200; i++ {
		materials := decimal.New(int64(rng.Intn(1_000_000)), -2)
		params := Parameters{
			LaborCost:              decimal.New(int64(rng.Intn(100_000)), -2),
			OverheadPercentage:     decimal.New(int64(rng.Intn(5_000)), -2),
			ProfitMarginPercentage: decimal.New(int64(rng.Intn(5_000)), -2),
			CommissionPercentage:   decimal.New(int64(rng.Intn(10_001)), -2),
		}

		sales := CalculateSales(materials, params)
		sum := sales.NetProfit.Add(sales.CommissionAmount)
		if !sum.Equal(sales.FinalQuote) {
			t.Fatalf("netProfit %s + commission %s != finalQuote %s", sales.NetProfit, sales.CommissionAmount, sales.FinalQuote)
		}
	}
}

func TestCalculateSalesCommissionAmounts(t *testing.T) {
	// finalQuote 1000 with 10% commission splits into 100 / 900.
	sales := CalculateSales(dec("1000"), Parameters{CommissionPercentage: dec("10")})

	if got := sales.CommissionAmount.StringFixed(2); got != "100.00" {
		t.Fatalf("expected commission 100.00, got %s", got)
	}
	if got := sales.NetProfit.StringFixed(2); got != "900.00" {
		t.Fatalf("expected net profit 900.00, got %s", got)
	}
}

// TestNoIntermediateRounding uses inputs where rounding overhead before the
// margin step would change the result.
func TestNoIntermediateRounding(t *testing.T) {
	// subtotal 10.01, overhead 3.333% -> 0.3336333. Rounding that to 0.33
	// before the margin step would yield 11.06; the unrounded chain gives
	// (10.01 * 1.03333) * 1.07 = 11.067687631 -> 11.07.
	breakdown := Calculate(dec("10.01"), Parameters{
		OverheadPercentage:     dec("3.333"),
		ProfitMarginPercentage: dec("7"),
	})

	if got := breakdown.FinalQuote.StringFixed(2); got != "11.07" {
		t.Fatalf("expected final quote 11.07, got %s", got)
	}

	rounded := breakdown.OverheadAmount.Round(2)
	if breakdown.OverheadAmount.Equal(rounded) {
		t.Fatalf("test inputs should produce an unrounded overhead amount, got %s", breakdown.OverheadAmount)
	}
}

package quote

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
)

func TestAddItemComputesExtendedCost(t *testing.T) {
	ledger := NewLedger()

	item, err := ledger.AddItem("Design Hours", "40", "75")
	if err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	if got := item.ExtendedCost().String(); got != "3000" {
		t.Fatalf("expected extended cost 3000, got %s", got)
	}
	if got := ledger.MaterialsSubtotal().String(); got != "3000" {
		t.Fatalf("expected materials subtotal 3000, got %s", got)
	}
}

func TestAddItemValidation(t *testing.T) {
	cases := []struct {
		name        string
		description string
		quantity    string
		unitCost    string
		wantField   string
	}{
		{"missing description", "", "2", "10", "description"},
		{"blank description", "   ", "2", "10", "description"},
		{"missing quantity", "Paint", "", "10", "quantity"},
		{"non-numeric quantity", "Paint", "two", "10", "quantity"},
		{"fractional quantity", "Paint", "2.5", "10", "quantity"},
		{"negative quantity", "Paint", "-1", "10", "quantity"},
		{"missing unit cost", "Paint", "2", "", "unit_cost"},
		{"non-numeric unit cost", "Paint", "2", "ten", "unit_cost"},
		{"negative unit cost", "Paint", "2", "-0.5", "unit_cost"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ledger := NewLedger()
			_, err := ledger.AddItem(tc.description, tc.quantity, tc.unitCost)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if verr.Field != tc.wantField {
				t.Fatalf("expected field %q, got %q", tc.wantField, verr.Field)
			}
			if ledger.Len() != 0 {
				t.Fatalf("ledger must be unchanged after rejected add")
			}
		})
	}
}

func TestRemoveItemIsIdempotent(t *testing.T) {
	ledger := NewLedger()
	item, err := ledger.AddItem("Cabling", "3", "12.50")
	if err != nil {
		t.Fatalf("add item failed: %v", err)
	}

	ledger.RemoveItem(item.ID)
	if ledger.Len() != 0 {
		t.Fatalf("expected empty ledger after remove")
	}

	// A second remove of the same id, or of an unknown id, is a no-op.
	ledger.RemoveItem(item.ID)
	ledger.RemoveItem("no-such-id")
	if ledger.Len() != 0 {
		t.Fatalf("expected ledger to stay empty")
	}
}

func TestUpdatesRecomputeExtendedCost(t *testing.T) {
	ledger := NewLedger()
	item, err := ledger.AddItem("Development Hours", "80", "100")
	if err != nil {
		t.Fatalf("add item failed: %v", err)
	}

	if err := ledger.UpdateQuantity(item.ID, 90); err != nil {
		t.Fatalf("update quantity failed: %v", err)
	}
	if got := ledger.MaterialsSubtotal().String(); got != "9000" {
		t.Fatalf("expected subtotal 9000 after quantity update, got %s", got)
	}

	if err := ledger.UpdateUnitCost(item.ID, decimal.RequireFromString("110.50")); err != nil {
		t.Fatalf("update unit cost failed: %v", err)
	}
	if got := ledger.MaterialsSubtotal().String(); got != "9945" {
		t.Fatalf("expected subtotal 9945 after unit cost update, got %s", got)
	}
}

func TestUpdatesRejectNegativeValues(t *testing.T) {
	ledger := NewLedger()
	item, err := ledger.AddItem("Fixtures", "4", "25")
	if err != nil {
		t.Fatalf("add item failed: %v", err)
	}

	if err := ledger.UpdateQuantity(item.ID, -1); err == nil {
		t.Fatalf("expected negative quantity to be rejected")
	}
	if err := ledger.UpdateUnitCost(item.ID, decimal.NewFromInt(-5)); err == nil {
		t.Fatalf("expected negative unit cost to be rejected")
	}
	if got := ledger.MaterialsSubtotal().String(); got != "100" {
		t.Fatalf("rejected updates must not change the ledger, got subtotal %s", got)
	}
}

func TestUpdateUnknownIDIsNoOp(t *testing.T) {
	ledger := NewLedger()
	if _, err := ledger.AddItem("Panels", "2", "40"); err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	if err := ledger.UpdateQuantity("no-such-id", 7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ledger.MaterialsSubtotal().String(); got != "80" {
		t.Fatalf("expected subtotal unchanged at 80, got %s", got)
	}
}

func TestMaterialsSubtotalIdempotentRead(t *testing.T) {
	ledger := NewLedger()
	if _, err := ledger.AddItem("Timber", "12", "8.75"); err != nil {
		t.Fatalf("add item failed: %v", err)
	}

	first := ledger.MaterialsSubtotal()
	second := ledger.MaterialsSubtotal()
	if !first.Equal(second) {
		t.Fatalf("two reads without mutation differ: %s vs %s", first, second)
	}
}

// TestMaterialsSubtotalAdditivity drives the ledger through random sequences
// of add, update, and remove operations and checks after each step that the
// subtotal equals the sum of the extended costs of the surviving items.
func TestMaterialsSubtotalAdditivity(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 50; run++ {
		ledger := NewLedger()

		for step := 0; step < 60; step++ {
			switch op := rng.Intn(4); {
			case op == 0 || ledger.Len() == 0:
				qty := rng.Intn(50)
				cost := fmt.Sprintf("%d.%02d", rng.Intn(500), rng.Intn(100))
				if _, err := ledger.AddItem(fmt.Sprintf("item-%d-%d", run, step), fmt.Sprintf("%d", qty), cost); err != nil {
					t.Fatalf("add item failed: %v", err)
				}
			case op == 1:
				items := ledger.Items()
				target := items[rng.Intn(len(items))]
				if err := ledger.UpdateQuantity(target.ID, rng.Intn(80)); err != nil {
					t.Fatalf("update quantity failed: %v", err)
				}
			case op == 2:
				items := ledger.Items()
				target := items[rng.Intn(len(items))]
				cost := decimal.New(int64(rng.Intn(100000)), -2)
				if err := ledger.UpdateUnitCost(target.ID, cost); err != nil {
					t.Fatalf("update unit cost failed: %v", err)
				}
			default:
				items := ledger.Items()
				ledger.RemoveItem(items[rng.Intn(len(items))].ID)
			}

			want := decimal.Zero
			for _, item := range ledger.Items() {
				want = want.Add(item.ExtendedCost())
			}
			if got := ledger.MaterialsSubtotal(); !got.Equal(want) {
				t.Fatalf("run %d step %d: subtotal %s != sum of extended costs %s", run, step, got, want)
			}
		}
	}
}

func TestClearEmptiesLedger(t *testing.T) {
	ledger := NewLedger()
	for i := 0; i < 3; i++ {
		if _, err := ledger.AddItem(fmt.Sprintf("row %d", i), "1", "9.99"); err != nil {
			t.Fatalf("add item failed: %v", err)
		}
	}

	ledger.Clear()
	if ledger.Len() != 0 {
		t.Fatalf("expected empty ledger after clear")
	}
	if !ledger.MaterialsSubtotal().IsZero() {
		t.Fatalf("expected zero subtotal after clear")
	}
}

func TestItemsReturnsCopyInInsertionOrder(t *testing.T) {
	ledger := NewLedger()
	first, _ := ledger.AddItem("first", "1", "1")
	second, _ := ledger.AddItem("second", "1", "1")

	items := ledger.Items()
	if items[0].ID != first.ID || items[1].ID != second.ID {
		t.Fatalf("expected insertion order to be preserved")
	}

	// Mutating the returned slice must not affect the ledger.
	items[0].Quantity = 999
	if got := ledger.Items()[0].Quantity; got != 1 {
		t.Fatalf("expected ledger to be isolated from returned slice, got quantity %d", got)
	}
}

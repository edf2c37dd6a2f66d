package quote

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ValidationError reports a rejected field on an item or estimate form.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// LineItem is one cost row in a working ledger. The extended cost is always
// derived from Quantity and UnitCost, never stored alongside them.
type LineItem struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
}

// ExtendedCost returns quantity times unit cost for this item.
func (li LineItem) ExtendedCost() decimal.Decimal {
	return li.UnitCost.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Ledger holds the unsaved cost items of the estimate currently being built.
// Insertion order is display order. A Ledger is not safe for concurrent use;
// all mutations happen on the request handling path.
type Ledger struct {
	items []LineItem
}

func NewLedger() *Ledger {
	return &Ledger{items: make([]LineItem, 0, 8)}
}

// AddItem parses the raw form fields and appends a new line item. All three
// fields are required: quantity must parse as a non-negative integer and
// unit cost as a non-negative decimal. No other item is reordered.
func (l *Ledger) AddItem(description, quantity, unitCost string) (LineItem, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return LineItem{}, &ValidationError{Field: "description", Reason: "required"}
	}

	qty, err := parseQuantity(quantity)
	if err != nil {
		return LineItem{}, err
	}
	cost, err := parseUnitCost(unitCost)
	if err != nil {
		return LineItem{}, err
	}

	item := LineItem{
		ID:          uuid.NewString(),
		Description: description,
		Quantity:    qty,
		UnitCost:    cost,
	}
	l.items = append(l.items, item)
	return item, nil
}

// RemoveItem deletes the item with the given id. Removing an unknown id is a
// no-op, matching the forgiving delete semantics of the UI.
func (l *Ledger) RemoveItem(id string) {
	for i, item := range l.items {
		if item.ID == id {
			l.items = append(l.items[:i], l.items[i+1:]...)
			return
		}
	}
}

// UpdateQuantity replaces the quantity of one item in place. Negative values
// are rejected; an unknown id is a no-op.
func (l *Ledger) UpdateQuantity(id string, quantity int) error {
	if quantity < 0 {
		return &ValidationError{Field: "quantity", Reason: "must be zero or greater"}
	}
	for i := range l.items {
		if l.items[i].ID == id {
			l.items[i].Quantity = quantity
			return nil
		}
	}
	return nil
}

// UpdateUnitCost replaces the unit cost of one item in place. Negative values
// are rejected; an unknown id is a no-op.
func (l *Ledger) UpdateUnitCost(id string, unitCost decimal.Decimal) error {
	if unitCost.IsNegative() {
		return &ValidationError{Field: "unit_cost", Reason: "must be zero or greater"}
	}
	for i := range l.items {
		if l.items[i].ID == id {
			l.items[i].UnitCost = unitCost
			return nil
		}
	}
	return nil
}

// MaterialsSubtotal sums the extended cost of every item. It is recomputed
// on every call rather than cached across mutations.
func (l *Ledger) MaterialsSubtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range l.items {
		total = total.Add(item.ExtendedCost())
	}
	return total
}

// Items returns a copy of the current items in insertion order.
func (l *Ledger) Items() []LineItem {
	out := make([]LineItem, len(l.items))
	copy(out, l.items)
	return out
}

func (l *Ledger) Len() int {
	return len(l.items)
}

// Clear empties the ledger. Called after a successful save.
func (l *Ledger) Clear() {
	l.items = l.items[:0]
}

package estimate

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tijara/backend/internal/cache"
	"tijara/backend/internal/quote"
)

// Item is a frozen copy of one ledger line at save time. Unlike the working
// ledger, the extended cost is stored: the snapshot must stay correct even
// though it will never be recomputed.
type Item struct {
	ID           string          `json:"id"`
	Description  string          `json:"description"`
	Quantity     int             `json:"quantity"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	ExtendedCost decimal.Decimal `json:"extended_cost"`
}

// Totals carries the derived amounts captured when the estimate was saved.
// Commission fields are only set for sales estimates.
type Totals struct {
	MaterialsSubtotal decimal.Decimal  `json:"materials_subtotal"`
	Subtotal          decimal.Decimal  `json:"subtotal"`
	OverheadAmount    decimal.Decimal  `json:"overhead_amount"`
	CostWithOverhead  decimal.Decimal  `json:"cost_with_overhead"`
	ProfitAmount      decimal.Decimal  `json:"profit_amount"`
	FinalQuote        decimal.Decimal  `json:"final_quote"`
	CommissionAmount  *decimal.Decimal `json:"commission_amount,omitempty"`
	NetProfit         *decimal.Decimal `json:"net_profit,omitempty"`
}

// Estimate is an immutable snapshot of a saved quote: the items, the
// parameters, and the calculator output at save time. It holds no live
// reference to the working ledger, so later edits or a ledger clear cannot
// change it.
type Estimate struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Items       []Item           `json:"items"`
	Parameters  quote.Parameters `json:"parameters"`
	Totals      Totals           `json:"totals"`
	CreatedAt   time.Time        `json:"created_at"`
}

// envelope is the persisted shape of the repository list: the data plus the
// epoch-millis write time used for the staleness rule.
type envelope struct {
	Data      []Estimate `json:"data"`
	Timestamp int64      `json:"timestamp"`
}

// Repository is an append-only list of saved estimates. A repository built
// with a non-empty key persists its list through the estimate store and
// discards entries older than the TTL on load. The persisted list is a soft
// cache: losing it is a staleness rule, not a data-loss condition.
type Repository struct {
	mu             sync.Mutex
	estimates      []Estimate
	store          cache.EstimateStore
	key            string
	ttl            time.Duration
	withCommission bool
	restored       bool
}

// New builds a repository. An empty key disables persistence (the costing
// page); withCommission enables the sales commission split on save.
func New(store cache.EstimateStore, key string, ttl time.Duration, withCommission bool) *Repository {
	if store == nil {
		store = cache.NoopEstimateStore{}
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Repository{
		store:          store,
		key:            key,
		ttl:            ttl,
		withCommission: withCommission,
		restored:       key == "",
	}
}

// Save validates the form, runs the calculator over the ledger snapshot, and
// appends a new immutable Estimate. The repository is unchanged when
// validation fails.
func (r *Repository) Save(ctx context.Context, name, description string, ledger *quote.Ledger, params quote.Parameters) (Estimate, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Estimate{}, &quote.ValidationError{Field: "name", Reason: "required"}
	}
	if ledger == nil || ledger.Len() == 0 {
		return Estimate{}, &quote.ValidationError{Field: "items", Reason: "at least one item required"}
	}

	materials := ledger.MaterialsSubtotal()
	totals := Totals{}
	if r.withCommission {
		sales := quote.CalculateSales(materials, params)
		totals = totalsFromBreakdown(sales.Breakdown)
		commission := sales.CommissionAmount
		netProfit := sales.NetProfit
		totals.CommissionAmount = &commission
		totals.NetProfit = &netProfit
	} else {
		totals = totalsFromBreakdown(quote.Calculate(materials, params))
	}

	saved := Estimate{
		ID:          uuid.NewString(),
		Name:        name,
		Description: strings.TrimSpace(description),
		Items:       freezeItems(ledger.Items()),
		Parameters:  params,
		Totals:      totals,
		CreatedAt:   time.Now().UTC(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.restore(ctx); err != nil {
		log.Printf("[estimate] WARN: failed to restore persisted estimates: %v", err)
	}
	r.estimates = append(r.estimates, saved)
	r.persist(ctx)

	return saved, nil
}

// List returns the saved estimates in insertion order, oldest first.
func (r *Repository) List(ctx context.Context) ([]Estimate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.restore(ctx); err != nil {
		log.Printf("[estimate] WARN: failed to restore persisted estimates: %v", err)
	}

	out := make([]Estimate, len(r.estimates))
	copy(out, r.estimates)
	return out, nil
}

// restore loads the persisted list once per process. Entries whose timestamp
// is older than the TTL are treated as empty and the stored entry is cleared.
// Callers must hold r.mu.
func (r *Repository) restore(ctx context.Context) error {
	if r.restored {
		return nil
	}
	r.restored = true

	payload, found, err := r.store.Get(ctx, r.key)
	if err != nil || !found {
		return err
	}

	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		_ = r.store.Delete(ctx, r.key)
		return err
	}

	if time.Since(time.UnixMilli(env.Timestamp)) > r.ttl {
		_ = r.store.Delete(ctx, r.key)
		return nil
	}

	r.estimates = env.Data
	return nil
}

// persist writes the whole list back under the key. Callers must hold r.mu.
func (r *Repository) persist(ctx context.Context) {
	if r.key == "" {
		return
	}

	payload, err := json.Marshal(envelope{Data: r.estimates, Timestamp: time.Now().UnixMilli()})
	if err != nil {
		log.Printf("[estimate] WARN: failed to marshal estimates: %v", err)
		return
	}
	if err := r.store.Set(ctx, r.key, payload, r.ttl); err != nil {
		log.Printf("[estimate] WARN: failed to persist estimates: %v", err)
	}
}

func totalsFromBreakdown(b quote.Breakdown) Totals {
	return Totals{
		MaterialsSubtotal: b.MaterialsSubtotal,
		Subtotal:          b.Subtotal,
		OverheadAmount:    b.OverheadAmount,
		CostWithOverhead:  b.CostWithOverhead,
		ProfitAmount:      b.ProfitAmount,
		FinalQuote:        b.FinalQuote,
	}
}

func freezeItems(items []quote.LineItem) []Item {
	frozen := make([]Item, 0, len(items))
	for _, item := range items {
		frozen = append(frozen, Item{
			ID:           item.ID,
			Description:  item.Description,
			Quantity:     item.Quantity,
			UnitCost:     item.UnitCost,
			ExtendedCost: item.ExtendedCost(),
		})
	}
	return frozen
}

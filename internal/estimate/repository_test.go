package estimate

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"tijara/backend/internal/cache"
	"tijara/backend/internal/quote"
)

// fakeStore is an in-memory EstimateStore that records deletes so tests can
// assert the stale-entry clearing behavior.
type fakeStore struct {
	mu      sync.Mutex
	entries map[string][]byte
	deleted []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: make(map[string][]byte)}
}

func (f *fakeStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	payload, ok := f.entries[key]
	return payload, ok, nil
}

func (f *fakeStore) Set(_ context.Context, key string, payload []byte, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[key] = payload
	return nil
}

func (f *fakeStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func buildLedger(t *testing.T, rows ...[3]string) *quote.Ledger {
	t.Helper()
	ledger := quote.NewLedger()
	for _, row := range rows {
		if _, err := ledger.AddItem(row[0], row[1], row[2]); err != nil {
			t.Fatalf("add item %v: %v", row, err)
		}
	}
	return ledger
}

func TestSaveRequiresName(t *testing.T) {
	repo := New(cache.NoopEstimateStore{}, "", 0, false)
	ledger := buildLedger(t, [3]string{"Design Hours", "40", "75"})

	_, err := repo.Save(context.Background(), "", "desc", ledger, quote.Parameters{})
	var verr *quote.ValidationError
	if !errors.As(err, &verr) || verr.Field != "name" {
		t.Fatalf("expected name validation error, got %v", err)
	}

	list, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("repository must be unchanged after failed save, got %d estimates", len(list))
	}
}

func TestSaveRequiresItems(t *testing.T) {
	repo := New(cache.NoopEstimateStore{}, "", 0, false)

	_, err := repo.Save(context.Background(), "Empty Project", "", quote.NewLedger(), quote.Parameters{})
	var verr *quote.ValidationError
	if !errors.As(err, &verr) || verr.Field != "items" {
		t.Fatalf("expected items validation error, got %v", err)
	}
}

func TestSaveFreezesLedgerSnapshot(t *testing.T) {
	repo := New(cache.NoopEstimateStore{}, "", 0, false)
	ledger := buildLedger(t,
		[3]string{"Design Hours", "40", "75"},
		[3]string{"Development Hours", "80", "100"},
	)

	saved, err := repo.Save(context.Background(), "Website Project", "full build", ledger, quote.ParseParameters("2500", "15", "20", ""))
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	// materials 11000 + labor 2500 = 13500; *1.15 = 15525; *1.2 = 18630.
	if got := saved.Totals.FinalQuote.StringFixed(2); got != "18630.00" {
		t.Fatalf("unexpected final quote %s", got)
	}
	if len(saved.Items) != 2 || saved.Items[0].Description != "Design Hours" {
		t.Fatalf("unexpected frozen items: %+v", saved.Items)
	}
}

func TestSaveSnapshotSurvivesLedgerClear(t *testing.T) {
	repo := New(cache.NoopEstimateStore{}, "", 0, false)
	ledger := buildLedger(t, [3]string{"Design Hours", "40", "75"})

	saved, err := repo.Save(context.Background(), "Snapshot Project", "", ledger, quote.Parameters{})
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	ledger.Clear()

	list, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected one estimate, got %d", len(list))
	}
	got := list[0]
	if got.ID != saved.ID || len(got.Items) != 1 {
		t.Fatalf("snapshot changed after ledger clear: %+v", got)
	}
	if got.Items[0].ExtendedCost.String() != "3000" {
		t.Fatalf("expected frozen extended cost 3000, got %s", got.Items[0].ExtendedCost)
	}
}

func TestListPreservesInsertionOrder(t *testing.T) {
	repo := New(cache.NoopEstimateStore{}, "", 0, false)

	for _, name := range []string{"first", "second", "third"} {
		ledger := buildLedger(t, [3]string{"row", "1", "10"})
		if _, err := repo.Save(context.Background(), name, "", ledger, quote.Parameters{}); err != nil {
			t.Fatalf("save %s failed: %v", name, err)
		}
	}

	list, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 3 || list[0].Name != "first" || list[2].Name != "third" {
		t.Fatalf("expected oldest-first order, got %+v", list)
	}
}

func TestSalesVariantComputesCommissionSplit(t *testing.T) {
	repo := New(newFakeStore(), "sales:estimates", 24*time.Hour, true)
	ledger := buildLedger(t, [3]string{"Gadget", "10", "100"})

	saved, err := repo.Save(context.Background(), "Bulk Sale", "", ledger, quote.ParseParameters("", "", "", "10"))
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if saved.Totals.CommissionAmount == nil || saved.Totals.NetProfit == nil {
		t.Fatalf("expected commission split on sales estimate")
	}
	if got := saved.Totals.CommissionAmount.StringFixed(2); got != "100.00" {
		t.Fatalf("expected commission 100.00, got %s", got)
	}
	if got := saved.Totals.NetProfit.StringFixed(2); got != "900.00" {
		t.Fatalf("expected net profit 900.00, got %s", got)
	}
}

func TestCostingVariantHasNoCommissionFields(t *testing.T) {
	repo := New(cache.NoopEstimateStore{}, "", 0, false)
	ledger := buildLedger(t, [3]string{"Hours", "1", "500"})

	saved, err := repo.Save(context.Background(), "Plain Estimate", "", ledger, quote.ParseParameters("", "", "", "10"))
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if saved.Totals.CommissionAmount != nil || saved.Totals.NetProfit != nil {
		t.Fatalf("costing estimates must not carry commission fields")
	}
}

func TestSavePersistsEnvelope(t *testing.T) {
	store := newFakeStore()
	repo := New(store, "sales:estimates", 24*time.Hour, true)
	ledger := buildLedger(t, [3]string{"Gadget", "2", "50"})

	if _, err := repo.Save(context.Background(), "Persisted Sale", "", ledger, quote.Parameters{}); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	payload, found, _ := store.Get(context.Background(), "sales:estimates")
	if !found {
		t.Fatalf("expected persisted envelope")
	}

	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if len(env.Data) != 1 || env.Data[0].Name != "Persisted Sale" {
		t.Fatalf("unexpected envelope data: %+v", env.Data)
	}
	if age := time.Since(time.UnixMilli(env.Timestamp)); age < 0 || age > time.Minute {
		t.Fatalf("unexpected envelope timestamp: %d", env.Timestamp)
	}
}

func TestFreshEnvelopeIsRestored(t *testing.T) {
	store := newFakeStore()
	seed := New(store, "sales:estimates", 24*time.Hour, true)
	ledger := buildLedger(t, [3]string{"Gadget", "1", "10"})
	if _, err := seed.Save(context.Background(), "Earlier Sale", "", ledger, quote.Parameters{}); err != nil {
		t.Fatalf("seed save failed: %v", err)
	}

	// A new repository over the same store sees the persisted list.
	repo := New(store, "sales:estimates", 24*time.Hour, true)
	list, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 1 || list[0].Name != "Earlier Sale" {
		t.Fatalf("expected restored estimate, got %+v", list)
	}
}

func TestStaleEnvelopeIsDiscardedAndCleared(t *testing.T) {
	store := newFakeStore()

	stale, err := json.Marshal(envelope{
		Data:      []Estimate{{ID: "old", Name: "Stale Sale"}},
		Timestamp: time.Now().Add(-25 * time.Hour).UnixMilli(),
	})
	if err != nil {
		t.Fatalf("marshal stale envelope: %v", err)
	}
	if err := store.Set(context.Background(), "sales:estimates", stale, 24*time.Hour); err != nil {
		t.Fatalf("seed stale envelope: %v", err)
	}

	repo := New(store, "sales:estimates", 24*time.Hour, true)
	list, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty list from stale cache, got %+v", list)
	}

	if _, found, _ := store.Get(context.Background(), "sales:estimates"); found {
		t.Fatalf("expected stale entry to be cleared")
	}
	if len(store.deleted) != 1 || store.deleted[0] != "sales:estimates" {
		t.Fatalf("expected one delete of the stale key, got %v", store.deleted)
	}
}

func TestCorruptEnvelopeIsCleared(t *testing.T) {
	store := newFakeStore()
	if err := store.Set(context.Background(), "sales:estimates", []byte("{not json"), 24*time.Hour); err != nil {
		t.Fatalf("seed corrupt envelope: %v", err)
	}

	repo := New(store, "sales:estimates", 24*time.Hour, true)
	list, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty list from corrupt cache")
	}
	if _, found, _ := store.Get(context.Background(), "sales:estimates"); found {
		t.Fatalf("expected corrupt entry to be cleared")
	}
}

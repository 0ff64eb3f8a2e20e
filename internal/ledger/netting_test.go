package ledger

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

// fakeDebtStore is an in-memory DebtStore for exercising the netting logic
// without a database.
type fakeDebtStore struct {
	debts map[string]float64
}

func newFakeDebtStore() *fakeDebtStore {
	return &fakeDebtStore{debts: make(map[string]float64)}
}

func key(groupID, debtorID, creditorID int64) string {
	return fmt.Sprintf("%d:%d:%d", groupID, debtorID, creditorID)
}

func (f *fakeDebtStore) GetForUpdate(_ context.Context, groupID, debtorID, creditorID int64) (*Debt, error) {
	amount, ok := f.debts[key(groupID, debtorID, creditorID)]
	if !ok {
		return nil, nil
	}
	return &Debt{GroupID: groupID, DebtorID: debtorID, CreditorID: creditorID, Amount: amount}, nil
}

func (f *fakeDebtStore) Insert(_ context.Context, groupID, debtorID, creditorID int64, amount float64) error {
	f.debts[key(groupID, debtorID, creditorID)] = amount
	return nil
}

func (f *fakeDebtStore) SetAmount(_ context.Context, groupID, debtorID, creditorID int64, amount float64) error {
	f.debts[key(groupID, debtorID, creditorID)] = amount
	return nil
}

func (f *fakeDebtStore) Delete(_ context.Context, groupID, debtorID, creditorID int64) error {
	delete(f.debts, key(groupID, debtorID, creditorID))
	return nil
}

func (f *fakeDebtStore) amount(t *testing.T, groupID, debtorID, creditorID int64) float64 {
	t.Helper()
	return f.debts[key(groupID, debtorID, creditorID)]
}

func (f *fakeDebtStore) has(groupID, debtorID, creditorID int64) bool {
	_, ok := f.debts[key(groupID, debtorID, creditorID)]
	return ok
}

// checkOneDirection fails if both directions of a pair carry a row.
func checkOneDirection(t *testing.T, f *fakeDebtStore, groupID, a, b int64) {
	t.Helper()
	if f.has(groupID, a, b) && f.has(groupID, b, a) {
		t.Fatalf("both directions present for pair (%d, %d)", a, b)
	}
	for k, v := range f.debts {
		if v <= 0 {
			t.Fatalf("non-positive debt %s = %.2f", k, v)
		}
	}
}

func TestApply_NewDebt(t *testing.T) {
	store := newFakeDebtStore()
	ctx := context.Background()

	if err := Apply(ctx, store, 1, 2, 3, 25); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got := store.amount(t, 1, 2, 3); got != 25 {
		t.Errorf("debt = %.2f, want 25", got)
	}
	checkOneDirection(t, store, 1, 2, 3)
}

func TestApply_BumpsExistingDebt(t *testing.T) {
	store := newFakeDebtStore()
	ctx := context.Background()

	if err := Apply(ctx, store, 1, 2, 3, 25); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if err := Apply(ctx, store, 1, 2, 3, 10.50); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got := store.amount(t, 1, 2, 3); got != 35.50 {
		t.Errorf("debt = %.2f, want 35.50", got)
	}
	checkOneDirection(t, store, 1, 2, 3)
}

func TestApply_NetsAgainstReverse(t *testing.T) {
	tests := []struct {
		name        string
		existing    float64 // user 3 owes user 2
		apply       float64 // user 2 now owes user 3
		wantForward float64 // remaining 2 -> 3, zero means no row
		wantReverse float64 // remaining 3 -> 2, zero means no row
	}{
		{"reverse shrinks", 50, 20, 0, 30},
		{"exact cancel leaves no rows", 50, 50, 0, 0},
		{"remainder flips direction", 50, 80, 30, 0},
		{"sub-epsilon remainder drops", 50, 50.005, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeDebtStore()
			ctx := context.Background()

			if err := Apply(ctx, store, 1, 3, 2, tt.existing); err != nil {
				t.Fatalf("seed: %v", err)
			}
			if err := Apply(ctx, store, 1, 2, 3, tt.apply); err != nil {
				t.Fatalf("Apply: %v", err)
			}

			checkOneDirection(t, store, 1, 2, 3)
			if got := store.amount(t, 1, 2, 3); got != tt.wantForward {
				t.Errorf("forward = %.2f, want %.2f", got, tt.wantForward)
			}
			if got := store.amount(t, 1, 3, 2); got != tt.wantReverse {
				t.Errorf("reverse = %.2f, want %.2f", got, tt.wantReverse)
			}
		})
	}
}

func TestApply_NoOps(t *testing.T) {
	store := newFakeDebtStore()
	ctx := context.Background()

	if err := Apply(ctx, store, 1, 2, 2, 25); err != nil {
		t.Fatalf("self-debt: %v", err)
	}
	if err := Apply(ctx, store, 1, 2, 3, 0); err != nil {
		t.Fatalf("zero amount: %v", err)
	}
	if err := Apply(ctx, store, 1, 2, 3, -5); err != nil {
		t.Fatalf("negative amount: %v", err)
	}
	if len(store.debts) != 0 {
		t.Errorf("no-op calls wrote %d rows", len(store.debts))
	}
}

func TestApply_IsolatedPerGroup(t *testing.T) {
	store := newFakeDebtStore()
	ctx := context.Background()

	if err := Apply(ctx, store, 1, 2, 3, 40); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if err := Apply(ctx, store, 2, 3, 2, 15); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if got := store.amount(t, 1, 2, 3); got != 40 {
		t.Errorf("group 1 debt = %.2f, want 40", got)
	}
	if got := store.amount(t, 2, 3, 2); got != 15 {
		t.Errorf("group 2 debt = %.2f, want 15", got)
	}
}

func TestReverse_UndoesApply(t *testing.T) {
	store := newFakeDebtStore()
	ctx := context.Background()

	if err := Apply(ctx, store, 1, 2, 3, 60); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if err := Reverse(ctx, store, 1, 2, 3, 60); err != nil {
		t.Fatalf("Reverse: %v", err)
	}
	if len(store.debts) != 0 {
		t.Errorf("round trip left %d rows", len(store.debts))
	}
}

func TestReverse_PartialLeavesBalance(t *testing.T) {
	store := newFakeDebtStore()
	ctx := context.Background()

	if err := Apply(ctx, store, 1, 2, 3, 60); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if err := Reverse(ctx, store, 1, 2, 3, 25); err != nil {
		t.Fatalf("Reverse: %v", err)
	}
	if got := store.amount(t, 1, 2, 3); got != 35 {
		t.Errorf("debt = %.2f, want 35", got)
	}
	checkOneDirection(t, store, 1, 2, 3)
}

// Three members, expenses posted in both directions; the ledger must end up
// with exactly the pairwise net amounts.
func TestApply_ThreeMemberScenario(t *testing.T) {
	store := newFakeDebtStore()
	ctx := context.Background()

	// A=1 pays 30 split with B=2 (B's share 10); B owes A 10.
	if err := Apply(ctx, store, 1, 2, 1, 10); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	// A pays 90 split with C=3 (C's share 30); C owes A 30.
	if err := Apply(ctx, store, 1, 3, 1, 30); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	// B pays 60 split with C (C's share 20); C owes B 20.
	if err := Apply(ctx, store, 1, 3, 2, 20); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if got := store.amount(t, 1, 2, 1); got != 10 {
		t.Errorf("B owes A %.2f, want 10", got)
	}
	if got := store.amount(t, 1, 3, 1); got != 30 {
		t.Errorf("C owes A %.2f, want 30", got)
	}
	if got := store.amount(t, 1, 3, 2); got != 20 {
		t.Errorf("C owes B %.2f, want 20", got)
	}
	if len(store.debts) != 3 {
		t.Errorf("ledger has %d rows, want 3", len(store.debts))
	}
}

func TestSettle(t *testing.T) {
	tests := []struct {
		name          string
		debt          float64
		amount        float64
		wantRemaining float64
		wantErr       error
		wantDeleted   bool
	}{
		{name: "partial settlement", debt: 40, amount: 15, wantRemaining: 25},
		{name: "full settlement deletes the row", debt: 40, amount: 40, wantRemaining: 0, wantDeleted: true},
		{name: "overpay within tolerance settles fully", debt: 40, amount: 40.005, wantRemaining: 0, wantDeleted: true},
		{name: "overpay beyond tolerance rejected", debt: 40, amount: 41, wantErr: ErrInvalidAmount},
		{name: "residual below tolerance deletes the row", debt: 40, amount: 39.995, wantRemaining: 0, wantDeleted: true},
		{name: "zero amount rejected", debt: 40, amount: 0, wantErr: ErrInvalidAmount},
		{name: "negative amount rejected", debt: 40, amount: -5, wantErr: ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeDebtStore()
			ctx := context.Background()

			if err := store.Insert(ctx, 1, 2, 3, tt.debt); err != nil {
				t.Fatalf("seed: %v", err)
			}

			remaining, err := settle(ctx, store, 1, 2, 3, tt.amount)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("settle: got err %v, want %v", err, tt.wantErr)
				}
				if got := store.amount(t, 1, 2, 3); got != tt.debt {
					t.Errorf("failed settle changed debt to %.2f", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("settle: %v", err)
			}
			if remaining != tt.wantRemaining {
				t.Errorf("remaining = %.2f, want %.2f", remaining, tt.wantRemaining)
			}
			if tt.wantDeleted && store.has(1, 2, 3) {
				t.Errorf("row still present after full settlement")
			}
			if !tt.wantDeleted && store.amount(t, 1, 2, 3) != tt.wantRemaining {
				t.Errorf("stored amount = %.2f, want %.2f", store.amount(t, 1, 2, 3), tt.wantRemaining)
			}
		})
	}
}

func TestSettle_NoDebt(t *testing.T) {
	store := newFakeDebtStore()

	_, err := settle(context.Background(), store, 1, 2, 3, 10)
	if !errors.Is(err, ErrDebtNotFound) {
		t.Errorf("settle without debt: got %v, want ErrDebtNotFound", err)
	}
}

func TestSettle_WrongDirection(t *testing.T) {
	store := newFakeDebtStore()
	ctx := context.Background()

	// 3 owes 2; settling 2 -> 3 must not touch it.
	if err := store.Insert(ctx, 1, 3, 2, 40); err != nil {
		t.Fatalf("seed: %v", err)
	}

	_, err := settle(ctx, store, 1, 2, 3, 10)
	if !errors.Is(err, ErrDebtNotFound) {
		t.Errorf("got %v, want ErrDebtNotFound", err)
	}
	if got := store.amount(t, 1, 3, 2); got != 40 {
		t.Errorf("reverse debt changed to %.2f", got)
	}
}

package ledger

import (
	"context"
	"errors"
)

// Common errors
var (
	ErrDebtNotFound  = errors.New("debt not found")
	ErrInvalidAmount = errors.New("amount must be positive and not exceed the outstanding debt")
	ErrGroupNotFound = errors.New("group not found")
	ErrNotMember     = errors.New("user is not a member of this group")
)

// Apply records that debtor additionally owes creditor the given amount,
// netting against any opposing debt so that at most one direction exists per
// pair. A member never owes themself, so debtor == creditor is a no-op, as is
// a non-positive amount.
//
// The invariant holds after every call, not just eventually: the pair ends up
// with either a single positive row or no row at all.
func Apply(ctx context.Context, store DebtStore, groupID, debtorID, creditorID int64, amount float64) error {
	if debtorID == creditorID || amount <= 0 {
		return nil
	}

	forward, reverse, err := lockPair(ctx, store, groupID, debtorID, creditorID)
	if err != nil {
		return err
	}

	switch {
	case forward != nil:
		return store.SetAmount(ctx, groupID, debtorID, creditorID, roundToTwo(forward.Amount+amount))

	case reverse == nil:
		return store.Insert(ctx, groupID, debtorID, creditorID, roundToTwo(amount))

	case reverse.Amount > amount:
		return store.SetAmount(ctx, groupID, creditorID, debtorID, roundToTwo(reverse.Amount-amount))

	default:
		// Reverse debt is consumed entirely; any remainder flips direction.
		// An exact cancel leaves neither row.
		if err := store.Delete(ctx, groupID, creditorID, debtorID); err != nil {
			return err
		}
		if remainder := roundToTwo(amount - reverse.Amount); remainder > Epsilon {
			return store.Insert(ctx, groupID, debtorID, creditorID, remainder)
		}
		return nil
	}
}

// Reverse decreases what debtor owes creditor by amount. The ledger has no
// notion of undo, only of net position, so reversing an obligation is the
// same netting operation with the roles swapped.
func Reverse(ctx context.Context, store DebtStore, groupID, debtorID, creditorID int64, amount float64) error {
	return Apply(ctx, store, groupID, creditorID, debtorID, amount)
}

// settle reduces the forward debt by amount. Returns the remaining balance,
// zero when the row is deleted. Amounts within Epsilon of the full balance
// settle completely; anything beyond that is rejected.
func settle(ctx context.Context, store DebtStore, groupID, debtorID, creditorID int64, amount float64) (float64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	debt, err := store.GetForUpdate(ctx, groupID, debtorID, creditorID)
	if err != nil {
		return 0, err
	}
	if debt == nil {
		return 0, ErrDebtNotFound
	}
	if amount > debt.Amount+Epsilon {
		return 0, ErrInvalidAmount
	}

	remaining := roundToTwo(debt.Amount - amount)
	if remaining <= Epsilon {
		if err := store.Delete(ctx, groupID, debtorID, creditorID); err != nil {
			return 0, err
		}
		return 0, nil
	}

	if err := store.SetAmount(ctx, groupID, debtorID, creditorID, remaining); err != nil {
		return 0, err
	}
	return remaining, nil
}

// lockPair locks both directions of a pair before reading either, always in
// (lower id, higher id) order so concurrent writers on the same pair
// serialize behind the locks instead of deadlocking.
func lockPair(ctx context.Context, store DebtStore, groupID, debtorID, creditorID int64) (forward, reverse *Debt, err error) {
	lo, hi := debtorID, creditorID
	if lo > hi {
		lo, hi = hi, lo
	}

	loDebt, err := store.GetForUpdate(ctx, groupID, lo, hi)
	if err != nil {
		return nil, nil, err
	}
	hiDebt, err := store.GetForUpdate(ctx, groupID, hi, lo)
	if err != nil {
		return nil, nil, err
	}

	if debtorID == lo {
		return loDebt, hiDebt, nil
	}
	return hiDebt, loDebt, nil
}

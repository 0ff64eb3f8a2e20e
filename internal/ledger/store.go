package ledger

import "context"

// DebtStore is the transactional view of the debts table that the netting
// logic runs against. Implementations must guarantee that GetForUpdate
// excludes other writers of the same (group, debtor, creditor) row until the
// surrounding transaction ends; the postgres implementation uses
// SELECT ... FOR UPDATE, the test fake a mutex held for the whole operation.
type DebtStore interface {
	// GetForUpdate returns the debt for the ordered pair, locking it for the
	// rest of the transaction. Returns (nil, nil) when no row exists.
	GetForUpdate(ctx context.Context, groupID, debtorID, creditorID int64) (*Debt, error)

	// Insert creates a new debt row. amount must be positive.
	Insert(ctx context.Context, groupID, debtorID, creditorID int64, amount float64) error

	// SetAmount overwrites the amount of an existing row.
	SetAmount(ctx context.Context, groupID, debtorID, creditorID int64, amount float64) error

	// Delete removes the row for the ordered pair.
	Delete(ctx context.Context, groupID, debtorID, creditorID int64) error
}

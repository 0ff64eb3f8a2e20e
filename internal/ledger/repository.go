package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/malmutairi/divvy/internal/database"
)

// debtStore is the postgres implementation of DebtStore, bound to a single
// transaction.
type debtStore struct {
	q database.Querier
}

// NewDebtStore returns a DebtStore bound to q, which must be the transaction
// the caller's mutation runs in.
func NewDebtStore(q database.Querier) DebtStore {
	return &debtStore{q: q}
}

func (s *debtStore) GetForUpdate(ctx context.Context, groupID, debtorID, creditorID int64) (*Debt, error) {
	query := `
		SELECT id, group_id, debtor_id, creditor_id, amount, updated_at
		FROM debts
		WHERE group_id = $1 AND debtor_id = $2 AND creditor_id = $3
		FOR UPDATE
	`

	debt := &Debt{}
	err := s.q.QueryRowContext(ctx, query, groupID, debtorID, creditorID).Scan(
		&debt.ID,
		&debt.GroupID,
		&debt.DebtorID,
		&debt.CreditorID,
		&debt.Amount,
		&debt.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lock debt: %w", err)
	}

	return debt, nil
}

func (s *debtStore) Insert(ctx context.Context, groupID, debtorID, creditorID int64, amount float64) error {
	query := `
		INSERT INTO debts (group_id, debtor_id, creditor_id, amount)
		VALUES ($1, $2, $3, $4)
	`

	if _, err := s.q.ExecContext(ctx, query, groupID, debtorID, creditorID, amount); err != nil {
		return fmt.Errorf("failed to insert debt: %w", err)
	}
	return nil
}

func (s *debtStore) SetAmount(ctx context.Context, groupID, debtorID, creditorID int64, amount float64) error {
	query := `
		UPDATE debts
		SET amount = $4, updated_at = NOW()
		WHERE group_id = $1 AND debtor_id = $2 AND creditor_id = $3
	`

	if _, err := s.q.ExecContext(ctx, query, groupID, debtorID, creditorID, amount); err != nil {
		return fmt.Errorf("failed to update debt: %w", err)
	}
	return nil
}

func (s *debtStore) Delete(ctx context.Context, groupID, debtorID, creditorID int64) error {
	query := `DELETE FROM debts WHERE group_id = $1 AND debtor_id = $2 AND creditor_id = $3`

	if _, err := s.q.ExecContext(ctx, query, groupID, debtorID, creditorID); err != nil {
		return fmt.Errorf("failed to delete debt: %w", err)
	}
	return nil
}

// Repository handles debt reads and settlement audit rows
type Repository struct {
	db *database.DB
}

// NewRepository creates a new ledger repository
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// ListByGroup retrieves all debts in a group above the settlement tolerance
func (r *Repository) ListByGroup(ctx context.Context, groupID int64) ([]*Debt, error) {
	query := `
		SELECT d.id, d.group_id, d.debtor_id, d.creditor_id, d.amount, d.updated_at,
		       u1.username AS debtor_username, u2.username AS creditor_username
		FROM debts d
		JOIN users u1 ON d.debtor_id = u1.id
		JOIN users u2 ON d.creditor_id = u2.id
		WHERE d.group_id = $1 AND d.amount > $2
		ORDER BY d.amount DESC
	`

	rows, err := r.db.QueryContext(ctx, query, groupID, Epsilon)
	if err != nil {
		return nil, fmt.Errorf("failed to list debts: %w", err)
	}
	defer rows.Close()

	var debts []*Debt
	for rows.Next() {
		debt := &Debt{}
		if err := rows.Scan(
			&debt.ID,
			&debt.GroupID,
			&debt.DebtorID,
			&debt.CreditorID,
			&debt.Amount,
			&debt.UpdatedAt,
			&debt.DebtorUsername,
			&debt.CreditorUsername,
		); err != nil {
			return nil, fmt.Errorf("failed to scan debt: %w", err)
		}
		debts = append(debts, debt)
	}

	return debts, rows.Err()
}

// NetPosition sums what the user owes and is owed within a single group
func (r *Repository) NetPosition(ctx context.Context, groupID, userID int64) (*NetPosition, error) {
	query := `
		SELECT
			COALESCE(SUM(CASE WHEN debtor_id = $2 THEN amount ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN creditor_id = $2 THEN amount ELSE 0 END), 0)
		FROM debts
		WHERE group_id = $1
	`

	position := &NetPosition{}
	if err := r.db.QueryRowContext(ctx, query, groupID, userID).Scan(&position.Owed, &position.OwedTo); err != nil {
		return nil, fmt.Errorf("failed to get net position: %w", err)
	}

	return position, nil
}

// Summary aggregates the user's position across all groups they have debts in
func (r *Repository) Summary(ctx context.Context, userID int64) (*Summary, error) {
	query := `
		SELECT g.id, g.name,
		       COALESCE(SUM(CASE WHEN d.debtor_id = $1 THEN d.amount ELSE 0 END), 0) AS owed,
		       COALESCE(SUM(CASE WHEN d.creditor_id = $1 THEN d.amount ELSE 0 END), 0) AS owed_to
		FROM debts d
		JOIN groups g ON d.group_id = g.id
		WHERE d.debtor_id = $1 OR d.creditor_id = $1
		GROUP BY g.id, g.name
		ORDER BY g.name
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get debt summary: %w", err)
	}
	defer rows.Close()

	summary := &Summary{}
	for rows.Next() {
		var gp GroupPosition
		if err := rows.Scan(&gp.GroupID, &gp.GroupName, &gp.Owed, &gp.OwedTo); err != nil {
			return nil, fmt.Errorf("failed to scan group position: %w", err)
		}
		summary.TotalOwed += gp.Owed
		summary.TotalOwedTo += gp.OwedTo
		summary.Groups = append(summary.Groups, gp)
	}

	summary.TotalOwed = roundToTwo(summary.TotalOwed)
	summary.TotalOwedTo = roundToTwo(summary.TotalOwedTo)
	return summary, rows.Err()
}

// CreateSettlement records a settlement audit row inside the caller's
// transaction
func (r *Repository) CreateSettlement(ctx context.Context, q database.Querier, reference string, groupID, payerID, receiverID int64, amount float64) (*Settlement, error) {
	query := `
		INSERT INTO settlements (reference, group_id, payer_id, receiver_id, amount)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, reference, group_id, payer_id, receiver_id, amount, created_at
	`

	settlement := &Settlement{}
	err := q.QueryRowContext(ctx, query, reference, groupID, payerID, receiverID, amount).Scan(
		&settlement.ID,
		&settlement.Reference,
		&settlement.GroupID,
		&settlement.PayerID,
		&settlement.ReceiverID,
		&settlement.Amount,
		&settlement.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create settlement: %w", err)
	}

	return settlement, nil
}

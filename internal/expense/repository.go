package expense

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/malmutairi/divvy/internal/database"
)

// Repository handles expense data persistence
type Repository struct {
	db *database.DB
}

// NewRepository creates a new expense repository
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// CreateExpense inserts a new expense inside the caller's transaction
func (r *Repository) CreateExpense(ctx context.Context, q database.Querier, payerID int64, req *CreateExpenseRequest, expenseDate time.Time) (*Expense, error) {
	query := `
		INSERT INTO expenses (group_id, paid_by, amount, description, category, expense_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, group_id, paid_by, amount, description, category, expense_date, created_at
	`

	expense := &Expense{}
	err := q.QueryRowContext(ctx, query, req.GroupID, payerID, req.Amount, req.Description, req.Category, expenseDate).Scan(
		&expense.ID,
		&expense.GroupID,
		&expense.PaidBy,
		&expense.Amount,
		&expense.Description,
		&expense.Category,
		&expense.ExpenseDate,
		&expense.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create expense: %w", err)
	}

	return expense, nil
}

// CreateSplit inserts one share of an expense inside the caller's
// transaction. The payer's own share is stored settled.
func (r *Repository) CreateSplit(ctx context.Context, q database.Querier, expenseID, userID int64, amount float64, settled bool) (*Split, error) {
	query := `
		INSERT INTO expense_splits (expense_id, user_id, amount, settled)
		VALUES ($1, $2, $3, $4)
		RETURNING id, expense_id, user_id, amount, settled
	`

	split := &Split{}
	err := q.QueryRowContext(ctx, query, expenseID, userID, amount, settled).Scan(
		&split.ID,
		&split.ExpenseID,
		&split.UserID,
		&split.Amount,
		&split.Settled,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create split: %w", err)
	}

	return split, nil
}

// GetExpenseByID retrieves an expense by its ID
func (r *Repository) GetExpenseByID(ctx context.Context, id int64) (*Expense, error) {
	query := `
		SELECT e.id, e.group_id, e.paid_by, e.amount, e.description, e.category,
		       e.expense_date, e.created_at, u.username
		FROM expenses e
		JOIN users u ON e.paid_by = u.id
		WHERE e.id = $1
	`

	expense := &Expense{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&expense.ID,
		&expense.GroupID,
		&expense.PaidBy,
		&expense.Amount,
		&expense.Description,
		&expense.Category,
		&expense.ExpenseDate,
		&expense.CreatedAt,
		&expense.PayerUsername,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	return expense, nil
}

// GetExpenseForUpdate locks and retrieves an expense inside the caller's
// transaction.
func (r *Repository) GetExpenseForUpdate(ctx context.Context, q database.Querier, id int64) (*Expense, error) {
	query := `
		SELECT id, group_id, paid_by, amount, description, category, expense_date, created_at
		FROM expenses
		WHERE id = $1
		FOR UPDATE
	`

	expense := &Expense{}
	err := q.QueryRowContext(ctx, query, id).Scan(
		&expense.ID,
		&expense.GroupID,
		&expense.PaidBy,
		&expense.Amount,
		&expense.Description,
		&expense.Category,
		&expense.ExpenseDate,
		&expense.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lock expense: %w", err)
	}

	return expense, nil
}

// GetSplitsByExpenseID retrieves all shares of an expense. Accepts a Querier
// so deletion can re-read shares inside its transaction.
func (r *Repository) GetSplitsByExpenseID(ctx context.Context, q database.Querier, expenseID int64) ([]*Split, error) {
	query := `
		SELECT s.id, s.expense_id, s.user_id, s.amount, s.settled, u.username
		FROM expense_splits s
		JOIN users u ON s.user_id = u.id
		WHERE s.expense_id = $1
		ORDER BY s.id
	`

	rows, err := q.QueryContext(ctx, query, expenseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get splits: %w", err)
	}
	defer rows.Close()

	var splits []*Split
	for rows.Next() {
		split := &Split{}
		if err := rows.Scan(
			&split.ID,
			&split.ExpenseID,
			&split.UserID,
			&split.Amount,
			&split.Settled,
			&split.Username,
		); err != nil {
			return nil, fmt.Errorf("failed to scan split: %w", err)
		}
		splits = append(splits, split)
	}

	return splits, rows.Err()
}

// ListExpensesByGroupID retrieves expenses for a group, newest first
func (r *Repository) ListExpensesByGroupID(ctx context.Context, groupID int64, limit, offset int) ([]*Expense, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM expenses WHERE group_id = $1`
	if err := r.db.QueryRowContext(ctx, countQuery, groupID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count expenses: %w", err)
	}

	query := `
		SELECT e.id, e.group_id, e.paid_by, e.amount, e.description, e.category,
		       e.expense_date, e.created_at, u.username
		FROM expenses e
		JOIN users u ON e.paid_by = u.id
		WHERE e.group_id = $1
		ORDER BY e.expense_date DESC, e.created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, groupID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*Expense
	for rows.Next() {
		expense := &Expense{}
		if err := rows.Scan(
			&expense.ID,
			&expense.GroupID,
			&expense.PaidBy,
			&expense.Amount,
			&expense.Description,
			&expense.Category,
			&expense.ExpenseDate,
			&expense.CreatedAt,
			&expense.PayerUsername,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, expense)
	}

	return expenses, total, rows.Err()
}

// DeleteExpense removes an expense inside the caller's transaction; shares
// cascade.
func (r *Repository) DeleteExpense(ctx context.Context, q database.Querier, id int64) error {
	result, err := q.ExecContext(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrExpenseNotFound
	}

	return nil
}

package expense

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/malmutairi/divvy/internal/database"
	"github.com/malmutairi/divvy/internal/expense/split"
	"github.com/malmutairi/divvy/internal/ledger"
)

// Common errors
var (
	ErrExpenseNotFound = errors.New("expense not found")
	ErrGroupNotFound   = errors.New("group not found")
	ErrNotMember       = errors.New("user is not a member of this group")
	ErrSplitNonMember  = errors.New("all split participants must be group members")
	ErrNotPayerOrAdmin = errors.New("only the payer or a group admin can delete an expense")
	ErrInvalidAmount   = errors.New("expense amount must be positive")
	ErrInvalidDate     = errors.New("expense date must be YYYY-MM-DD")
)

// Membership answers group membership questions. Backed by the group
// repository in production.
type Membership interface {
	GroupExists(ctx context.Context, groupID int64) (bool, error)
	IsMember(ctx context.Context, groupID, userID int64) (bool, error)
	IsAdmin(ctx context.Context, groupID, userID int64) (bool, error)
	MemberIDs(ctx context.Context, groupID int64, userIDs []int64) ([]int64, error)
}

// ActivityLog records a group activity row inside the caller's transaction.
type ActivityLog interface {
	Record(ctx context.Context, q database.Querier, groupID, userID int64, activityType, description string) error
}

// Service handles expense business logic. Posting and deleting an expense
// update the debt ledger in the same transaction as the expense rows, so the
// ledger never drifts from the expense history.
type Service struct {
	db           *database.DB
	repo         *Repository
	members      Membership
	activities   ActivityLog
	splitFactory *split.Factory
}

// NewService creates a new expense service with dependencies injected
func NewService(db *database.DB, repo *Repository, members Membership, activities ActivityLog, splitFactory *split.Factory) *Service {
	return &Service{
		db:           db,
		repo:         repo,
		members:      members,
		activities:   activities,
		splitFactory: splitFactory,
	}
}

// CreateExpense records a new expense and folds each non-payer share into the
// group's debt ledger. All validation happens before any row is written.
func (s *Service) CreateExpense(ctx context.Context, payerID int64, req *CreateExpenseRequest) (*ExpenseWithSplits, error) {
	exists, err := s.members.GroupExists(ctx, req.GroupID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrGroupNotFound
	}

	isMember, err := s.members.IsMember(ctx, req.GroupID, payerID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, ErrNotMember
	}

	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	strategy, err := s.splitFactory.CreateFromString(req.SplitType)
	if err != nil {
		return nil, err
	}

	inputs := make([]split.Input, len(req.Participants))
	userIDs := make([]int64, len(req.Participants))
	for i, p := range req.Participants {
		inputs[i] = p.ToSplitInput()
		userIDs[i] = p.UserID
	}

	shares, err := strategy.Calculate(req.Amount, inputs)
	if err != nil {
		return nil, err
	}

	memberIDs, err := s.members.MemberIDs(ctx, req.GroupID, userIDs)
	if err != nil {
		return nil, err
	}
	if len(memberIDs) != len(userIDs) {
		return nil, ErrSplitNonMember
	}

	expenseDate := time.Now()
	if req.ExpenseDate != nil {
		expenseDate, err = time.Parse("2006-01-02", *req.ExpenseDate)
		if err != nil {
			return nil, ErrInvalidDate
		}
	}

	result := &ExpenseWithSplits{}
	err = s.db.RunInTx(ctx, func(tx *sql.Tx) error {
		expense, err := s.repo.CreateExpense(ctx, tx, payerID, req, expenseDate)
		if err != nil {
			return err
		}
		result.Expense = expense

		debts := ledger.NewDebtStore(tx)
		result.Splits = make([]*Split, len(shares))
		for i, share := range shares {
			created, err := s.repo.CreateSplit(ctx, tx, expense.ID, share.UserID, share.Amount, share.UserID == payerID)
			if err != nil {
				return err
			}
			result.Splits[i] = created

			if share.UserID == payerID {
				continue
			}
			if err := ledger.Apply(ctx, debts, req.GroupID, share.UserID, payerID, share.Amount); err != nil {
				return err
			}
		}

		return s.activities.Record(ctx, tx, req.GroupID, payerID, "expense_added",
			fmt.Sprintf("added expense %q for %.2f", req.Description, req.Amount))
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// GetExpenseByID retrieves an expense with its shares, visible to group
// members only.
func (s *Service) GetExpenseByID(ctx context.Context, requesterID, id int64) (*ExpenseWithSplits, error) {
	expense, err := s.repo.GetExpenseByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if expense == nil {
		return nil, ErrExpenseNotFound
	}

	isMember, err := s.members.IsMember(ctx, expense.GroupID, requesterID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, ErrNotMember
	}

	splits, err := s.repo.GetSplitsByExpenseID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}

	return &ExpenseWithSplits{Expense: expense, Splits: splits}, nil
}

// ListExpensesByGroupID retrieves expenses for a group, visible to members
// only.
func (s *Service) ListExpensesByGroupID(ctx context.Context, requesterID, groupID int64, page, perPage int) ([]*Expense, int, error) {
	exists, err := s.members.GroupExists(ctx, groupID)
	if err != nil {
		return nil, 0, err
	}
	if !exists {
		return nil, 0, ErrGroupNotFound
	}

	isMember, err := s.members.IsMember(ctx, groupID, requesterID)
	if err != nil {
		return nil, 0, err
	}
	if !isMember {
		return nil, 0, ErrNotMember
	}

	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	offset := (page - 1) * perPage
	return s.repo.ListExpensesByGroupID(ctx, groupID, perPage, offset)
}

// DeleteExpense removes an expense and backs its shares out of the debt
// ledger, atomically. Only the payer or a group admin may delete.
func (s *Service) DeleteExpense(ctx context.Context, requesterID, id int64) error {
	existing, err := s.repo.GetExpenseByID(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrExpenseNotFound
	}

	if existing.PaidBy != requesterID {
		isAdmin, err := s.members.IsAdmin(ctx, existing.GroupID, requesterID)
		if err != nil {
			return err
		}
		if !isAdmin {
			return ErrNotPayerOrAdmin
		}
	}

	return s.db.RunInTx(ctx, func(tx *sql.Tx) error {
		// Re-read under lock; the pre-check ran outside the transaction.
		expense, err := s.repo.GetExpenseForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if expense == nil {
			return ErrExpenseNotFound
		}

		splits, err := s.repo.GetSplitsByExpenseID(ctx, tx, id)
		if err != nil {
			return err
		}

		debts := ledger.NewDebtStore(tx)
		for _, share := range splits {
			if share.UserID == expense.PaidBy {
				continue
			}
			if err := ledger.Reverse(ctx, debts, expense.GroupID, share.UserID, expense.PaidBy, share.Amount); err != nil {
				return err
			}
		}

		if err := s.repo.DeleteExpense(ctx, tx, id); err != nil {
			return err
		}

		return s.activities.Record(ctx, tx, expense.GroupID, requesterID, "expense_deleted",
			fmt.Sprintf("deleted expense %q for %.2f", expense.Description, expense.Amount))
	})
}

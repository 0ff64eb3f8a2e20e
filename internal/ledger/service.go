package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/malmutairi/divvy/internal/database"
)

// Membership answers group membership questions. Backed by the group
// repository in production.
type Membership interface {
	IsMember(ctx context.Context, groupID, userID int64) (bool, error)
	GroupExists(ctx context.Context, groupID int64) (bool, error)
}

// ActivityLog records a group activity row inside the caller's transaction.
type ActivityLog interface {
	Record(ctx context.Context, q database.Querier, groupID, userID int64, activityType, description string) error
}

// Service owns every mutation path of the debts table, so the netting
// invariant is enforced in one place.
type Service struct {
	db         *database.DB
	repo       *Repository
	members    Membership
	activities ActivityLog
}

// NewService creates a new ledger service with dependencies injected
func NewService(db *database.DB, repo *Repository, members Membership, activities ActivityLog) *Service {
	return &Service{
		db:         db,
		repo:       repo,
		members:    members,
		activities: activities,
	}
}

// Settle applies a repayment from the requester to the creditor. Only the
// debtor may settle their own debt. Returns the remaining balance, zero when
// the debt is fully settled.
func (s *Service) Settle(ctx context.Context, requesterID int64, req *SettleRequest) (*SettleResult, error) {
	isMember, err := s.members.IsMember(ctx, req.GroupID, requesterID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, ErrNotMember
	}

	result := &SettleResult{Reference: uuid.NewString()}
	err = s.db.RunInTx(ctx, func(tx *sql.Tx) error {
		remaining, err := settle(ctx, NewDebtStore(tx), req.GroupID, requesterID, req.CreditorID, req.Amount)
		if err != nil {
			return err
		}
		result.Remaining = remaining

		if _, err := s.repo.CreateSettlement(ctx, tx, result.Reference, req.GroupID, requesterID, req.CreditorID, req.Amount); err != nil {
			return err
		}

		return s.activities.Record(ctx, tx, req.GroupID, requesterID, "debt_settled",
			fmt.Sprintf("settled %.2f towards user %d", req.Amount, req.CreditorID))
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// ListDebts retrieves the outstanding debts of a group, visible to members
// only.
func (s *Service) ListDebts(ctx context.Context, requesterID, groupID int64) ([]*Debt, error) {
	exists, err := s.members.GroupExists(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrGroupNotFound
	}

	isMember, err := s.members.IsMember(ctx, groupID, requesterID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, ErrNotMember
	}

	return s.repo.ListByGroup(ctx, groupID)
}

// NetPosition returns how much the user owes and is owed within a group.
// A plain committed read: good enough for a dashboard figure, not for
// settlement decisions, which re-read under their own locks.
func (s *Service) NetPosition(ctx context.Context, groupID, userID int64) (*NetPosition, error) {
	return s.repo.NetPosition(ctx, groupID, userID)
}

// Summary aggregates the user's net position across all their groups.
func (s *Service) Summary(ctx context.Context, userID int64) (*Summary, error) {
	return s.repo.Summary(ctx, userID)
}

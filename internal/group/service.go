package group

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/malmutairi/divvy/internal/database"
)

// Common errors
var (
	ErrGroupNotFound       = errors.New("group not found")
	ErrMemberNotFound      = errors.New("member not found")
	ErrMemberAlreadyExists = errors.New("user is already a member of this group")
	ErrNotMember           = errors.New("user is not a member of this group")
	ErrNotAdmin            = errors.New("only group admins can perform this action")
	ErrLastAdmin           = errors.New("a group must retain at least one admin")
)

// ActivityLog records a group activity row inside the caller's transaction.
type ActivityLog interface {
	Record(ctx context.Context, q database.Querier, groupID, userID int64, activityType, description string) error
}

// Service handles group business logic
type Service struct {
	db         *database.DB
	repo       *Repository
	activities ActivityLog
}

// NewService creates a new group service
func NewService(db *database.DB, repo *Repository, activities ActivityLog) *Service {
	return &Service{db: db, repo: repo, activities: activities}
}

// Create creates a new group and adds the creator as admin, atomically.
func (s *Service) Create(ctx context.Context, creatorID int64, req *CreateGroupRequest) (*Group, error) {
	var group *Group
	err := s.db.RunInTx(ctx, func(tx *sql.Tx) error {
		created, err := s.repo.Create(ctx, tx, creatorID, req)
		if err != nil {
			return err
		}
		group = created
		return s.repo.addMemberTx(ctx, tx, group.ID, creatorID, MemberRoleAdmin)
	})
	if err != nil {
		return nil, err
	}

	return group, nil
}

// GetByID retrieves a group with its members, visible to members only.
func (s *Service) GetByID(ctx context.Context, requesterID, id int64) (*Group, []*GroupMember, error) {
	group, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if group == nil {
		return nil, nil, ErrGroupNotFound
	}

	isMember, err := s.repo.IsMember(ctx, id, requesterID)
	if err != nil {
		return nil, nil, err
	}
	if !isMember {
		return nil, nil, ErrNotMember
	}

	members, err := s.repo.GetMembers(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	return group, members, nil
}

// ListByUserID retrieves all groups for a user
func (s *Service) ListByUserID(ctx context.Context, userID int64, page, perPage int) ([]*Group, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	offset := (page - 1) * perPage
	return s.repo.ListByUserID(ctx, userID, perPage, offset)
}

// Update modifies an existing group; admins only.
func (s *Service) Update(ctx context.Context, requesterID, id int64, req *UpdateGroupRequest) (*Group, error) {
	if err := s.requireAdmin(ctx, id, requesterID); err != nil {
		return nil, err
	}

	group, err := s.repo.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, ErrGroupNotFound
	}
	return group, nil
}

// Delete removes a group and everything it owns; admins only.
func (s *Service) Delete(ctx context.Context, requesterID, id int64) error {
	if err := s.requireAdmin(ctx, id, requesterID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// AddMember adds a user to a group; admins only.
func (s *Service) AddMember(ctx context.Context, requesterID, groupID int64, req *AddMemberRequest) (*GroupMember, error) {
	if err := s.requireAdmin(ctx, groupID, requesterID); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetMember(ctx, groupID, req.UserID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrMemberAlreadyExists
	}

	member, err := s.repo.AddMember(ctx, groupID, req.UserID, req.Role)
	if err != nil {
		return nil, err
	}

	s.activities.Record(ctx, s.db, groupID, requesterID, "member_added",
		fmt.Sprintf("added user %d", req.UserID))

	return member, nil
}

// GetMembers retrieves all members of a group, visible to members only.
func (s *Service) GetMembers(ctx context.Context, requesterID, groupID int64) ([]*GroupMember, error) {
	exists, err := s.repo.GroupExists(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrGroupNotFound
	}

	isMember, err := s.repo.IsMember(ctx, groupID, requesterID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, ErrNotMember
	}

	return s.repo.GetMembers(ctx, groupID)
}

// UpdateMemberRole changes a member's role; admins only. Demoting the only
// admin is rejected.
func (s *Service) UpdateMemberRole(ctx context.Context, requesterID, groupID, userID int64, role MemberRole) (*GroupMember, error) {
	if err := s.requireAdmin(ctx, groupID, requesterID); err != nil {
		return nil, err
	}

	if role != MemberRoleAdmin {
		if err := s.checkNotLastAdmin(ctx, groupID, userID); err != nil {
			return nil, err
		}
	}

	member, err := s.repo.UpdateMemberRole(ctx, groupID, userID, role)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrMemberNotFound
	}
	return member, nil
}

// RemoveMember removes a user from a group; admins only. Removing the only
// admin is rejected.
func (s *Service) RemoveMember(ctx context.Context, requesterID, groupID, userID int64) error {
	if err := s.requireAdmin(ctx, groupID, requesterID); err != nil {
		return err
	}

	if err := s.checkNotLastAdmin(ctx, groupID, userID); err != nil {
		return err
	}

	if err := s.repo.RemoveMember(ctx, groupID, userID); err != nil {
		return err
	}

	s.activities.Record(ctx, s.db, groupID, requesterID, "member_removed",
		fmt.Sprintf("removed user %d", userID))

	return nil
}

// requireAdmin verifies the group exists and the requester is an admin of it.
func (s *Service) requireAdmin(ctx context.Context, groupID, requesterID int64) error {
	exists, err := s.repo.GroupExists(ctx, groupID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrGroupNotFound
	}

	isAdmin, err := s.repo.IsAdmin(ctx, groupID, requesterID)
	if err != nil {
		return err
	}
	if !isAdmin {
		return ErrNotAdmin
	}
	return nil
}

// checkNotLastAdmin rejects removing or demoting the group's only admin.
func (s *Service) checkNotLastAdmin(ctx context.Context, groupID, userID int64) error {
	member, err := s.repo.GetMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if member == nil {
		return ErrMemberNotFound
	}
	if member.Role != MemberRoleAdmin {
		return nil
	}

	admins, err := s.repo.CountAdmins(ctx, groupID)
	if err != nil {
		return err
	}
	if admins <= 1 {
		return ErrLastAdmin
	}
	return nil
}

package activity

import (
	"context"
	"errors"
)

// Common errors
var (
	ErrGroupNotFound = errors.New("group not found")
	ErrNotMember     = errors.New("user is not a member of this group")
)

// Membership answers group membership questions. Backed by the group
// repository in production.
type Membership interface {
	GroupExists(ctx context.Context, groupID int64) (bool, error)
	IsMember(ctx context.Context, groupID, userID int64) (bool, error)
}

// Service handles activity business logic
type Service struct {
	repo    *Repository
	members Membership
}

// NewService creates a new activity service
func NewService(repo *Repository, members Membership) *Service {
	return &Service{repo: repo, members: members}
}

// ListByGroup retrieves a group's activity trail, visible to members only
func (s *Service) ListByGroup(ctx context.Context, requesterID, groupID int64, page, perPage int) ([]*Activity, int, error) {
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
	return s.repo.ListByGroup(ctx, groupID, perPage, offset)
}

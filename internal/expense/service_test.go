package expense

import (
	"context"
	"errors"
	"testing"

	"github.com/malmutairi/divvy/internal/expense/split"
)

// fakeMembership is a canned membership oracle for validation tests.
type fakeMembership struct {
	groups  map[int64]bool
	members map[int64][]int64
	admins  map[int64][]int64
}

func (f *fakeMembership) GroupExists(_ context.Context, groupID int64) (bool, error) {
	return f.groups[groupID], nil
}

func (f *fakeMembership) IsMember(_ context.Context, groupID, userID int64) (bool, error) {
	for _, id := range f.members[groupID] {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeMembership) IsAdmin(_ context.Context, groupID, userID int64) (bool, error) {
	for _, id := range f.admins[groupID] {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeMembership) MemberIDs(ctx context.Context, groupID int64, userIDs []int64) ([]int64, error) {
	var ids []int64
	for _, id := range userIDs {
		if ok, _ := f.IsMember(ctx, groupID, id); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func newTestService() *Service {
	members := &fakeMembership{
		groups:  map[int64]bool{1: true},
		members: map[int64][]int64{1: {10, 20, 30}},
		admins:  map[int64][]int64{1: {10}},
	}
	// db, repo and activities stay nil: these tests exercise the validation
	// paths that run before anything touches the database.
	return NewService(nil, nil, members, nil, split.NewFactory())
}

func ptr(v float64) *float64 { return &v }

func TestCreateExpense_Validation(t *testing.T) {
	tests := []struct {
		name    string
		payerID int64
		req     *CreateExpenseRequest
		wantErr error
	}{
		{
			name:    "unknown group",
			payerID: 10,
			req: &CreateExpenseRequest{
				GroupID: 99, Description: "dinner", Amount: 60, SplitType: "EVEN",
				Participants: []*Participant{{UserID: 10}, {UserID: 20}},
			},
			wantErr: ErrGroupNotFound,
		},
		{
			name:    "payer outside the group",
			payerID: 99,
			req: &CreateExpenseRequest{
				GroupID: 1, Description: "dinner", Amount: 60, SplitType: "EVEN",
				Participants: []*Participant{{UserID: 10}, {UserID: 20}},
			},
			wantErr: ErrNotMember,
		},
		{
			name:    "non-positive amount",
			payerID: 10,
			req: &CreateExpenseRequest{
				GroupID: 1, Description: "dinner", Amount: 0, SplitType: "EVEN",
				Participants: []*Participant{{UserID: 10}, {UserID: 20}},
			},
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "unknown split type",
			payerID: 10,
			req: &CreateExpenseRequest{
				GroupID: 1, Description: "dinner", Amount: 60, SplitType: "RANDOM",
				Participants: []*Participant{{UserID: 10}, {UserID: 20}},
			},
			wantErr: split.ErrUnknownType,
		},
		{
			name:    "no participants",
			payerID: 10,
			req: &CreateExpenseRequest{
				GroupID: 1, Description: "dinner", Amount: 60, SplitType: "EVEN",
			},
			wantErr: split.ErrNoParticipants,
		},
		{
			name:    "participant outside the group",
			payerID: 10,
			req: &CreateExpenseRequest{
				GroupID: 1, Description: "dinner", Amount: 60, SplitType: "EVEN",
				Participants: []*Participant{{UserID: 10}, {UserID: 55}},
			},
			wantErr: ErrSplitNonMember,
		},
		{
			name:    "exact amounts off by more than a cent",
			payerID: 10,
			req: &CreateExpenseRequest{
				GroupID: 1, Description: "dinner", Amount: 60, SplitType: "EXACT",
				Participants: []*Participant{
					{UserID: 10, Amount: ptr(30)},
					{UserID: 20, Amount: ptr(20)},
				},
			},
			wantErr: split.ErrExactSum,
		},
		{
			name:    "malformed expense date",
			payerID: 10,
			req: &CreateExpenseRequest{
				GroupID: 1, Description: "dinner", Amount: 60, SplitType: "EVEN",
				ExpenseDate:  strPtr("13/01/2026"),
				Participants: []*Participant{{UserID: 10}, {UserID: 20}},
			},
			wantErr: ErrInvalidDate,
		},
	}

	s := newTestService()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.CreateExpense(context.Background(), tt.payerID, tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("CreateExpense: got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func strPtr(s string) *string { return &s }

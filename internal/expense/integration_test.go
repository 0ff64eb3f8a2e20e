package expense

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/malmutairi/divvy/internal/activity"
	"github.com/malmutairi/divvy/internal/database"
	"github.com/malmutairi/divvy/internal/expense/split"
	"github.com/malmutairi/divvy/internal/group"
	"github.com/malmutairi/divvy/internal/ledger"
)

func testDB(t *testing.T) *database.DB {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := database.Open(url, 3*time.Second)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	_, err = db.Exec(`TRUNCATE activities, settlements, debts, expense_splits, expenses, group_members, groups, users RESTART IDENTITY CASCADE`)
	if err != nil {
		t.Fatalf("failed to truncate: %v", err)
	}

	return db
}

// testEnv wires the expense service against real group and activity
// repositories plus a seeded three-member group.
type testEnv struct {
	db      *database.DB
	svc     *Service
	ledger  *ledger.Repository
	groupID int64
	a, b, c int64
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	db := testDB(t)
	ctx := context.Background()

	groupRepo := group.NewRepository(db)
	activityRepo := activity.NewRepository(db)
	svc := NewService(db, NewRepository(db), groupRepo, activityRepo, split.NewFactory())

	users := make([]int64, 3)
	for i, name := range []string{"alice", "bob", "carol"} {
		err := db.QueryRowContext(ctx,
			`INSERT INTO users (username, email) VALUES ($1, $2) RETURNING id`,
			name, name+"@example.com").Scan(&users[i])
		if err != nil {
			t.Fatalf("seed user %s: %v", name, err)
		}
	}

	var groupID int64
	err := db.QueryRowContext(ctx,
		`INSERT INTO groups (name, created_by) VALUES ('trip', $1) RETURNING id`,
		users[0]).Scan(&groupID)
	if err != nil {
		t.Fatalf("seed group: %v", err)
	}
	for i, id := range users {
		role := "MEMBER"
		if i == 0 {
			role = "ADMIN"
		}
		if _, err := db.ExecContext(ctx,
			`INSERT INTO group_members (group_id, user_id, role) VALUES ($1, $2, $3)`,
			groupID, id, role); err != nil {
			t.Fatalf("seed member: %v", err)
		}
	}

	return &testEnv{
		db:      db,
		svc:     svc,
		ledger:  ledger.NewRepository(db),
		groupID: groupID,
		a:       users[0],
		b:       users[1],
		c:       users[2],
	}
}

func (e *testEnv) debtAmount(t *testing.T, debtorID, creditorID int64) float64 {
	t.Helper()
	debts, err := e.ledger.ListByGroup(context.Background(), e.groupID)
	if err != nil {
		t.Fatalf("ListByGroup: %v", err)
	}
	for _, d := range debts {
		if d.DebtorID == debtorID && d.CreditorID == creditorID {
			return d.Amount
		}
	}
	return 0
}

func TestIntegration_PostExpenseUpdatesLedger(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	result, err := e.svc.CreateExpense(ctx, e.a, &CreateExpenseRequest{
		GroupID:     e.groupID,
		Description: "groceries",
		Amount:      90,
		SplitType:   "EVEN",
		Participants: []*Participant{
			{UserID: e.a}, {UserID: e.b}, {UserID: e.c},
		},
	})
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}
	if len(result.Splits) != 3 {
		t.Fatalf("got %d splits, want 3", len(result.Splits))
	}

	if got := e.debtAmount(t, e.b, e.a); got != 30 {
		t.Errorf("b owes a %.2f, want 30", got)
	}
	if got := e.debtAmount(t, e.c, e.a); got != 30 {
		t.Errorf("c owes a %.2f, want 30", got)
	}
	if got := e.debtAmount(t, e.a, e.b); got != 0 {
		t.Errorf("a owes b %.2f, want 0", got)
	}
}

func TestIntegration_DeleteExpenseRoundTrip(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	result, err := e.svc.CreateExpense(ctx, e.a, &CreateExpenseRequest{
		GroupID:     e.groupID,
		Description: "dinner",
		Amount:      60,
		SplitType:   "EXACT",
		Participants: []*Participant{
			{UserID: e.a, Amount: ptr(20)},
			{UserID: e.b, Amount: ptr(25)},
			{UserID: e.c, Amount: ptr(15)},
		},
	})
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}

	if err := e.svc.DeleteExpense(ctx, e.a, result.Expense.ID); err != nil {
		t.Fatalf("DeleteExpense: %v", err)
	}

	debts, err := e.ledger.ListByGroup(ctx, e.groupID)
	if err != nil {
		t.Fatalf("ListByGroup: %v", err)
	}
	if len(debts) != 0 {
		t.Errorf("round trip left %d debts", len(debts))
	}

	if _, err := e.svc.GetExpenseByID(ctx, e.a, result.Expense.ID); !errors.Is(err, ErrExpenseNotFound) {
		t.Errorf("deleted expense still readable: %v", err)
	}

	var orphans int
	if err := e.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM expense_splits WHERE expense_id = $1`, result.Expense.ID).Scan(&orphans); err != nil {
		t.Fatalf("count splits: %v", err)
	}
	if orphans != 0 {
		t.Errorf("%d orphaned splits after delete", orphans)
	}
}

func TestIntegration_DeleteAuthorization(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	result, err := e.svc.CreateExpense(ctx, e.b, &CreateExpenseRequest{
		GroupID:     e.groupID,
		Description: "taxi",
		Amount:      30,
		SplitType:   "EVEN",
		Participants: []*Participant{
			{UserID: e.b}, {UserID: e.c},
		},
	})
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}

	// Carol is neither the payer nor an admin.
	if err := e.svc.DeleteExpense(ctx, e.c, result.Expense.ID); !errors.Is(err, ErrNotPayerOrAdmin) {
		t.Errorf("got %v, want ErrNotPayerOrAdmin", err)
	}

	// Alice is the group admin, not the payer.
	if err := e.svc.DeleteExpense(ctx, e.a, result.Expense.ID); err != nil {
		t.Errorf("admin delete failed: %v", err)
	}
}

// Concurrent expense posts on the same debtor/creditor pair must not lose
// ledger updates; losers of the insert race retry on contention.
func TestIntegration_ConcurrentPostsNoLostUpdate(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	const posts = 6
	var wg sync.WaitGroup
	errs := make(chan error, posts)

	for i := 0; i < posts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := &CreateExpenseRequest{
				GroupID:     e.groupID,
				Description: "coffee",
				Amount:      10,
				SplitType:   "EVEN",
				Participants: []*Participant{
					{UserID: e.a}, {UserID: e.b},
				},
			}
			for attempt := 0; attempt < 10; attempt++ {
				_, err := e.svc.CreateExpense(ctx, e.a, req)
				if err == nil {
					return
				}
				if errors.Is(err, database.ErrContention) {
					time.Sleep(10 * time.Millisecond)
					continue
				}
				errs <- err
				return
			}
			errs <- errors.New("poster exhausted retries")
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("poster failed: %v", err)
	}

	if got := e.debtAmount(t, e.b, e.a); got != posts*5 {
		t.Errorf("final debt = %.2f, want %d", got, posts*5)
	}
}

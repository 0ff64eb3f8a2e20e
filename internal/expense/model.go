package expense

import (
	"time"

	"github.com/malmutairi/divvy/internal/expense/split"
)

// Expense represents a shared expense paid by one member of a group
type Expense struct {
	ID          int64     `json:"id"`
	GroupID     int64     `json:"group_id"`
	PaidBy      int64     `json:"paid_by"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
	Category    *string   `json:"category,omitempty"`
	ExpenseDate time.Time `json:"expense_date"`
	CreatedAt   time.Time `json:"created_at"`

	// Populated via JOIN
	PayerUsername string `json:"payer_username,omitempty"`
}

// Split is one participant's share of an expense
type Split struct {
	ID        int64   `json:"id"`
	ExpenseID int64   `json:"expense_id"`
	UserID    int64   `json:"user_id"`
	Amount    float64 `json:"amount"`
	Settled   bool    `json:"settled"`

	// Populated via JOIN
	Username string `json:"username,omitempty"`
}

// ExpenseWithSplits combines an expense with its shares
type ExpenseWithSplits struct {
	Expense *Expense
	Splits  []*Split
}

// Participant is one member of a requested split
type Participant struct {
	UserID     int64    `json:"user_id"`
	Percentage *float64 `json:"percentage,omitempty"` // PERCENTAGE only
	Amount     *float64 `json:"amount,omitempty"`     // EXACT only
}

// ToSplitInput converts to the split package's input type
func (p *Participant) ToSplitInput() split.Input {
	return split.Input{
		UserID:     p.UserID,
		Percentage: p.Percentage,
		Amount:     p.Amount,
	}
}

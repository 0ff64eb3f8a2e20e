package ledger

import (
	"math"
	"time"
)

// Epsilon is the canonical currency tolerance. Amounts within Epsilon of zero
// are treated as settled; no debt row is ever persisted at or below it.
const Epsilon = 0.01

// Debt is the net amount a debtor owes a creditor within a group. For any
// ordered pair at most one row exists, and for any unordered pair at most one
// direction exists; opposing obligations are always netted into a single row.
type Debt struct {
	ID         int64     `json:"id"`
	GroupID    int64     `json:"group_id"`
	DebtorID   int64     `json:"debtor_id"`
	CreditorID int64     `json:"creditor_id"`
	Amount     float64   `json:"amount"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Populated from JOIN
	DebtorUsername   string `json:"debtor_username,omitempty"`
	CreditorUsername string `json:"creditor_username,omitempty"`
}

// Settlement is the audit record of a repayment applied against a debt.
type Settlement struct {
	ID         int64     `json:"id"`
	Reference  string    `json:"reference"`
	GroupID    int64     `json:"group_id"`
	PayerID    int64     `json:"payer_id"`
	ReceiverID int64     `json:"receiver_id"`
	Amount     float64   `json:"amount"`
	CreatedAt  time.Time `json:"created_at"`
}

// NetPosition is a member's standing within a single group.
type NetPosition struct {
	Owed   float64 `json:"owed"`
	OwedTo float64 `json:"owed_to"`
}

// GroupPosition is a member's standing within one group of their summary.
type GroupPosition struct {
	GroupID   int64   `json:"group_id"`
	GroupName string  `json:"group_name"`
	Owed      float64 `json:"owed"`
	OwedTo    float64 `json:"owed_to"`
}

// Summary aggregates a user's position across every group they belong to.
type Summary struct {
	TotalOwed   float64         `json:"total_owed"`
	TotalOwedTo float64         `json:"total_owed_to"`
	Groups      []GroupPosition `json:"groups"`
}

// roundToTwo rounds to currency scale so repeated netting doesn't drift.
func roundToTwo(value float64) float64 {
	return math.Round(value*100) / 100
}

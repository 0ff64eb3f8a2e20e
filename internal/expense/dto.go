package expense

// CreateExpenseRequest represents the request to create an expense
type CreateExpenseRequest struct {
	GroupID      int64          `json:"group_id" validate:"required"`
	Description  string         `json:"description" validate:"required,min=1,max=255"`
	Amount       float64        `json:"amount" validate:"required,gt=0"`
	Category     *string        `json:"category,omitempty"`
	ExpenseDate  *string        `json:"expense_date,omitempty"` // YYYY-MM-DD, defaults to today
	SplitType    string         `json:"split_type" validate:"required,oneof=EVEN PERCENTAGE EXACT"`
	Participants []*Participant `json:"participants" validate:"required,min=1"`
}

// ExpenseResponse represents the response for an expense
type ExpenseResponse struct {
	ID            int64            `json:"id"`
	GroupID       int64            `json:"group_id"`
	PaidBy        int64            `json:"paid_by"`
	PayerUsername string           `json:"payer_username,omitempty"`
	Amount        float64          `json:"amount"`
	Description   string           `json:"description"`
	Category      *string          `json:"category,omitempty"`
	ExpenseDate   string           `json:"expense_date"`
	CreatedAt     string           `json:"created_at"`
	Splits        []*SplitResponse `json:"splits,omitempty"`
}

// SplitResponse represents one share in an expense response
type SplitResponse struct {
	ID       int64   `json:"id"`
	UserID   int64   `json:"user_id"`
	Username string  `json:"username,omitempty"`
	Amount   float64 `json:"amount"`
	Settled  bool    `json:"settled"`
}

// ToResponse converts an Expense model to an ExpenseResponse DTO
func (e *Expense) ToResponse() *ExpenseResponse {
	return &ExpenseResponse{
		ID:            e.ID,
		GroupID:       e.GroupID,
		PaidBy:        e.PaidBy,
		PayerUsername: e.PayerUsername,
		Amount:        e.Amount,
		Description:   e.Description,
		Category:      e.Category,
		ExpenseDate:   e.ExpenseDate.Format("2006-01-02"),
		CreatedAt:     e.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

// ToResponse converts a Split model to a SplitResponse DTO
func (s *Split) ToResponse() *SplitResponse {
	return &SplitResponse{
		ID:       s.ID,
		UserID:   s.UserID,
		Username: s.Username,
		Amount:   s.Amount,
		Settled:  s.Settled,
	}
}

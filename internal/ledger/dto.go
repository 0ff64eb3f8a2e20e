package ledger

// SettleRequest represents the request to settle a debt. The debtor is always
// the authenticated requester.
type SettleRequest struct {
	GroupID    int64   `json:"group_id" validate:"required"`
	CreditorID int64   `json:"creditor_id" validate:"required"`
	Amount     float64 `json:"amount" validate:"required,gt=0"`
}

// SettleResult is the outcome of a settlement
type SettleResult struct {
	Reference string  `json:"reference"`
	Remaining float64 `json:"remaining"`
}

// DebtResponse represents a debt in API responses
type DebtResponse struct {
	DebtorID         int64   `json:"debtor_id"`
	DebtorUsername   string  `json:"debtor_username,omitempty"`
	CreditorID       int64   `json:"creditor_id"`
	CreditorUsername string  `json:"creditor_username,omitempty"`
	Amount           float64 `json:"amount"`
}

// ToResponse converts a Debt model to a DebtResponse DTO
func (d *Debt) ToResponse() *DebtResponse {
	return &DebtResponse{
		DebtorID:         d.DebtorID,
		DebtorUsername:   d.DebtorUsername,
		CreditorID:       d.CreditorID,
		CreditorUsername: d.CreditorUsername,
		Amount:           d.Amount,
	}
}

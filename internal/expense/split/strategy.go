package split

import (
	"errors"
	"fmt"
	"math"
)

// Type identifies a split strategy
type Type string

const (
	TypeEven       Type = "EVEN"
	TypePercentage Type = "PERCENTAGE"
	TypeExact      Type = "EXACT"
)

// Epsilon bounds the acceptable rounding drift when validating that split
// amounts or percentages add up.
const Epsilon = 0.01

// Input is one participant in a requested split
type Input struct {
	UserID     int64    `json:"user_id"`
	Percentage *float64 `json:"percentage,omitempty"` // PERCENTAGE only
	Amount     *float64 `json:"amount,omitempty"`     // EXACT only
}

// Output is the computed share for a single participant, payer included
type Output struct {
	UserID int64   `json:"user_id"`
	Amount float64 `json:"amount"`
}

// Strategy computes participant shares for an expense. The returned shares
// include the payer's own share and sum to the total within Epsilon.
type Strategy interface {
	Calculate(total float64, participants []Input) ([]Output, error)
	Validate(total float64, participants []Input) error
	Type() Type
}

// Common errors
var (
	ErrNoParticipants       = errors.New("at least one participant is required")
	ErrNegativeAmount       = errors.New("amounts cannot be negative")
	ErrPercentageSum        = errors.New("percentages must sum to 100")
	ErrExactSum             = errors.New("exact amounts must sum to the expense total")
	ErrMissingPercentage    = errors.New("percentage value required for all participants")
	ErrMissingExactAmount   = errors.New("exact amount required for all participants")
	ErrPercentageOutOfRange = errors.New("percentage must be between 0 and 100")
	ErrDuplicateParticipant = errors.New("duplicate participant in split")
	ErrUnknownType          = errors.New("unknown split type")
)

// Factory creates split strategies by type
type Factory struct{}

// NewFactory creates a new strategy factory
func NewFactory() *Factory {
	return &Factory{}
}

// Create returns the strategy implementation for the given type
func (f *Factory) Create(t Type) (Strategy, error) {
	switch t {
	case TypeEven:
		return &EvenStrategy{}, nil
	case TypePercentage:
		return &PercentageStrategy{}, nil
	case TypeExact:
		return &ExactStrategy{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, t)
	}
}

// CreateFromString resolves a strategy from a request-supplied string
func (f *Factory) CreateFromString(t string) (Strategy, error) {
	return f.Create(Type(t))
}

func roundToTwo(v float64) float64 {
	return math.Round(v*100) / 100
}

// checkParticipants runs the validations shared by every strategy
func checkParticipants(total float64, participants []Input) error {
	if len(participants) == 0 {
		return ErrNoParticipants
	}
	if total < 0 {
		return ErrNegativeAmount
	}
	seen := make(map[int64]bool, len(participants))
	for _, p := range participants {
		if seen[p.UserID] {
			return ErrDuplicateParticipant
		}
		seen[p.UserID] = true
	}
	return nil
}

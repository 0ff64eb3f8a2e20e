package split

import "math"

// ExactStrategy uses caller-supplied amounts that must sum to the total
type ExactStrategy struct{}

// Type returns the split type identifier
func (s *ExactStrategy) Type() Type {
	return TypeExact
}

// Validate checks that every participant carries an amount and that the
// amounts sum to the total within Epsilon.
func (s *ExactStrategy) Validate(total float64, participants []Input) error {
	if err := checkParticipants(total, participants); err != nil {
		return err
	}

	var sum float64
	for _, p := range participants {
		if p.Amount == nil {
			return ErrMissingExactAmount
		}
		if *p.Amount < 0 {
			return ErrNegativeAmount
		}
		sum += *p.Amount
	}

	if math.Abs(sum-total) > Epsilon {
		return ErrExactSum
	}
	return nil
}

// Calculate returns the specified amounts rounded to cents
func (s *ExactStrategy) Calculate(total float64, participants []Input) ([]Output, error) {
	if err := s.Validate(total, participants); err != nil {
		return nil, err
	}

	outputs := make([]Output, len(participants))
	for i, p := range participants {
		outputs[i] = Output{UserID: p.UserID, Amount: roundToTwo(*p.Amount)}
	}

	return outputs, nil
}

package split

import "math"

// PercentageStrategy divides the total by caller-supplied percentages
type PercentageStrategy struct{}

// Type returns the split type identifier
func (s *PercentageStrategy) Type() Type {
	return TypePercentage
}

// Validate checks that every participant carries a percentage in [0, 100]
// and that the percentages sum to 100 within Epsilon.
func (s *PercentageStrategy) Validate(total float64, participants []Input) error {
	if err := checkParticipants(total, participants); err != nil {
		return err
	}

	var sum float64
	for _, p := range participants {
		if p.Percentage == nil {
			return ErrMissingPercentage
		}
		if *p.Percentage < 0 || *p.Percentage > 100 {
			return ErrPercentageOutOfRange
		}
		sum += *p.Percentage
	}

	if math.Abs(sum-100) > Epsilon {
		return ErrPercentageSum
	}
	return nil
}

// Calculate assigns each participant their percentage of the total. Any
// rounding remainder lands on the last participant so the shares sum exactly
// to the total.
func (s *PercentageStrategy) Calculate(total float64, participants []Input) ([]Output, error) {
	if err := s.Validate(total, participants); err != nil {
		return nil, err
	}

	outputs := make([]Output, len(participants))
	var distributed float64
	for i, p := range participants {
		amount := roundToTwo(total * (*p.Percentage) / 100)
		distributed += amount
		outputs[i] = Output{UserID: p.UserID, Amount: amount}
	}

	remainder := roundToTwo(total - distributed)
	if remainder != 0 {
		last := len(outputs) - 1
		outputs[last].Amount = roundToTwo(outputs[last].Amount + remainder)
	}

	return outputs, nil
}

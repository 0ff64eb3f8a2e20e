package split

// EvenStrategy divides the total equally among all participants
type EvenStrategy struct{}

// Type returns the split type identifier
func (s *EvenStrategy) Type() Type {
	return TypeEven
}

// Validate checks the inputs for an even split
func (s *EvenStrategy) Validate(total float64, participants []Input) error {
	return checkParticipants(total, participants)
}

// Calculate assigns each participant an equal share. Any rounding remainder
// lands on the first participant so the shares sum exactly to the total.
func (s *EvenStrategy) Calculate(total float64, participants []Input) ([]Output, error) {
	if err := s.Validate(total, participants); err != nil {
		return nil, err
	}

	share := roundToTwo(total / float64(len(participants)))
	remainder := roundToTwo(total - share*float64(len(participants)))

	outputs := make([]Output, len(participants))
	for i, p := range participants {
		amount := share
		if i == 0 {
			amount = roundToTwo(amount + remainder)
		}
		outputs[i] = Output{UserID: p.UserID, Amount: amount}
	}

	return outputs, nil
}

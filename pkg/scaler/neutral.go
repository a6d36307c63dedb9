package scaler

// Neutral is a piecewise linear scaler for inputs whose rest position
// is not the middle of the raw range, e.g. a stick that rests at 550
// on a 0..1023 range. The neutral input maps onto the middle of the
// output range.
type Neutral[T Number] struct {
	neutral    float64
	neutralOut float64
	low, high  *Linear[T]
}

// NewNeutral creates a Neutral scaler.
func NewNeutral[T Number](inMin, inMax, neutral float64, outMin, outMax T) (*Neutral[T], error) {
	mid := float64(outMin) + (float64(outMax)-float64(outMin))/2
	s := &Neutral[T]{
		neutral:    neutral,
		neutralOut: mid,
		low:        NewLinear[T](),
		high:       NewLinear[T](),
	}
	// neutral must lie strictly inside the input range.
	if err := s.low.Configure(inMin, neutral, outMin, T(mid)); err != nil {
		return nil, err
	}
	if err := s.high.Configure(neutral, inMax, T(mid), outMax); err != nil {
		return nil, err
	}
	return s, nil
}

// Scale implements Scaler.
func (s *Neutral[T]) Scale(raw uint16) (T, error) {
	if float64(raw) <= s.neutral {
		return s.low.Scale(raw)
	}
	return s.high.Scale(raw)
}

// DeScale implements Scaler.
func (s *Neutral[T]) DeScale(value T) (uint16, error) {
	if float64(value) <= s.neutralOut {
		return s.low.DeScale(value)
	}
	return s.high.DeScale(value)
}

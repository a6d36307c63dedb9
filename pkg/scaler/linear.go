package scaler

import "math"

// Linear maps [inMin, inMax] onto [outMin, outMax] and back.
// It is the identity until configured.
type Linear[T Number] struct {
	inMin, inMax   float64
	outMin, outMax T
	active         bool
	policy         Policy
}

// NewLinear creates an inactive Linear scaler. The rounding policy
// is fixed here from T.
func NewLinear[T Number]() *Linear[T] {
	return &Linear[T]{policy: PolicyOf[T]()}
}

// NewLinearWith creates and configures a Linear scaler.
func NewLinearWith[T Number](inMin, inMax float64, outMin, outMax T) (*Linear[T], error) {
	s := NewLinear[T]()
	return s, s.Configure(inMin, inMax, outMin, outMax)
}

// Configure stores the bounds and activates the scaler.
// ErrInvalidRange is returned if inMin == inMax, and the scaler
// refuses to convert until reconfigured.
func (s *Linear[T]) Configure(inMin, inMax float64, outMin, outMax T) error {
	s.inMin, s.inMax = inMin, inMax
	s.outMin, s.outMax = outMin, outMax
	s.active = true
	if inMin == inMax {
		return ErrInvalidRange
	}
	return nil
}

// SetActive enables or disables scaling.
func (s *Linear[T]) SetActive(active bool) {
	s.active = active
}

// Active indicates if scaling is enabled.
func (s *Linear[T]) Active() bool {
	return s.active
}

// Policy returns the rounding policy.
func (s *Linear[T]) Policy() Policy {
	return s.policy
}

// InMax returns the upper bound of the raw range.
func (s *Linear[T]) InMax() float64 {
	return s.inMax
}

// OutMax returns the upper bound of the output range.
func (s *Linear[T]) OutMax() T {
	return s.outMax
}

// Scale implements Scaler.
func (s *Linear[T]) Scale(raw uint16) (T, error) {
	if !s.active {
		return T(raw), nil
	}
	if s.inMin == s.inMax {
		return 0, ErrInvalidRange
	}
	if s.outMin == s.outMax {
		return 0, nil
	}
	outMin, outMax := float64(s.outMin), float64(s.outMax)
	r := (float64(raw)-s.inMin)*(outMax-outMin)/(s.inMax-s.inMin) + outMin
	return T(s.policy.apply(r)), nil
}

// DeScale implements Scaler.
func (s *Linear[T]) DeScale(value T) (uint16, error) {
	if !s.active {
		return rawFrom(float64(value)), nil
	}
	if s.inMin == s.inMax {
		return 0, ErrInvalidRange
	}
	if s.outMin == s.outMax {
		return 0, nil
	}
	outMin, outMax := float64(s.outMin), float64(s.outMax)
	r := (float64(value)-outMin)*(s.inMax-s.inMin)/(outMax-outMin) + s.inMin
	return rawFrom(math.Round(r)), nil
}

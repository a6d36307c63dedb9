// Package scaler maps raw receiver samples into application value ranges.
package scaler

import (
	"errors"
	"math"
)

// ErrInvalidRange indicates the input range of a scaler is empty (inMin == inMax).
var ErrInvalidRange = errors.New("invalid range: input min equals input max")

// Number is the set of output types a scaler can produce.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Scaler converts between raw samples and application values.
type Scaler[T Number] interface {
	// Scale maps a raw sample into the output range.
	Scale(raw uint16) (T, error)
	// DeScale maps an application value back into a raw sample.
	DeScale(value T) (uint16, error)
}

// Policy defines how scaled values are rounded.
type Policy int

const (
	// RoundNearest rounds to the nearest integer, used for integral types.
	RoundNearest Policy = iota
	// NoRounding passes the real-valued result through.
	NoRounding
)

// String implements fmt.Stringer.
func (p Policy) String() string {
	if p == NoRounding {
		return "none"
	}
	return "nearest"
}

// PolicyOf derives the rounding policy from the capability of T
// to hold a fractional value.
func PolicyOf[T Number]() Policy {
	half := 0.5
	if T(half) != 0 {
		return NoRounding
	}
	return RoundNearest
}

func (p Policy) apply(v float64) float64 {
	if p == RoundNearest {
		return math.Round(v)
	}
	return v
}

// rawFrom converts a real value into a raw sample, clamped to uint16.
func rawFrom(v float64) uint16 {
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= math.MaxUint16:
		return math.MaxUint16
	}
	return uint16(v)
}

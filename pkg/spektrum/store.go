package spektrum

import (
	"github.com/golang/glog"

	"github.com/robotalks/spektrum.go/pkg/scaler"
)

// Store holds the raw samples of all channels and converts
// them through a scaler on access.
type Store[T scaler.Number] struct {
	raw    [MaxChannels]uint16
	max    uint16
	scaler scaler.Scaler[T]
}

// NewStore creates a Store with an inactive linear scaler, limited
// to the extended format's raw range.
func NewStore[T scaler.Number]() *Store[T] {
	return &Store[T]{max: FormatExtended.MaxValue(), scaler: scaler.NewLinear[T]()}
}

// Max gets the largest raw sample SetValue stores.
func (s *Store[T]) Max() uint16 {
	return s.max
}

// SetMax limits the raw samples stored by SetValue, usually to
// Format.MaxValue.
func (s *Store[T]) SetMax(max uint16) {
	s.max = max
}

// Scaler returns the active scaler.
func (s *Store[T]) Scaler() scaler.Scaler[T] {
	return s.scaler
}

// SetScaler replaces the active scaler.
func (s *Store[T]) SetScaler(sc scaler.Scaler[T]) {
	s.scaler = sc
}

// Raw gets the raw sample of a channel.
func (s *Store[T]) Raw(ch Channel) (uint16, error) {
	if !ch.IsValid() {
		return 0, ErrInvalidChannel
	}
	return s.raw[ch], nil
}

// SetRaw sets the raw sample of a channel.
func (s *Store[T]) SetRaw(ch Channel, v uint16) error {
	if !ch.IsValid() {
		return ErrInvalidChannel
	}
	s.raw[ch] = v
	return nil
}

// RawValues returns a copy of all raw samples.
func (s *Store[T]) RawValues() [MaxChannels]uint16 {
	return s.raw
}

// Apply stores decoded samples. Later samples overwrite earlier
// ones of the same channel.
func (s *Store[T]) Apply(samples []Sample) {
	for _, smp := range samples {
		if smp.Channel.IsValid() {
			s.raw[smp.Channel] = smp.Value
		}
	}
}

// Value gets the scaled value of a channel.
func (s *Store[T]) Value(ch Channel) (T, error) {
	if !ch.IsValid() {
		return 0, ErrInvalidChannel
	}
	return s.scaler.Scale(s.raw[ch])
}

// SetValue de-scales an application value into the channel. The raw
// sample is clamped to Max, so it never wraps when encoded.
func (s *Store[T]) SetValue(ch Channel, v T) error {
	if !ch.IsValid() {
		return ErrInvalidChannel
	}
	raw, err := s.scaler.DeScale(v)
	if err != nil {
		return err
	}
	if raw > s.max {
		glog.V(3).Infof("channel %s: raw %d clamped to %d", ch, raw, s.max)
		raw = s.max
	}
	s.raw[ch] = raw
	return nil
}

// Values returns the scaled values of all channels. The first
// scaling error is returned.
func (s *Store[T]) Values() (vals [MaxChannels]T, err error) {
	for n, raw := range s.raw {
		if vals[n], err = s.scaler.Scale(raw); err != nil {
			return
		}
	}
	return
}

// Samples returns the raw samples of channels [from, to).
func (s *Store[T]) Samples(from, to Channel) []Sample {
	samples := make([]Sample, 0, to-from)
	for ch := from; ch < to && ch < MaxChannels; ch++ {
		samples = append(samples, Sample{Channel: ch, Value: s.raw[ch]})
	}
	return samples
}

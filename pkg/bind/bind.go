// Package bind drives the bind pulses which put a satellite receiver
// into one of its bind modes.
package bind

import (
	"context"
	"errors"
	"time"

	"github.com/golang/glog"
)

// Pin is a digital line.
type Pin interface {
	// Out configures the line as an output driven to the level.
	Out(high bool) error
	// In releases the line as an input.
	In() error
}

// Timing of the bind sequence.
type Timing struct {
	// PowerUpDelay keeps the receiver off before power is applied.
	PowerUpDelay time.Duration
	// Preamble is the delay between power up and the first pulse.
	Preamble time.Duration
	// HalfPeriod is the length of both the high and the low phase of a pulse.
	HalfPeriod time.Duration
	// Settle is the delay before the data line is released.
	Settle time.Duration
}

// DefaultTiming fits the receivers, pulses must start within 200ms
// after power up.
var DefaultTiming = Timing{
	PowerUpDelay: 2 * time.Second,
	Preamble:     50 * time.Millisecond,
	HalfPeriod:   100 * time.Microsecond,
	Settle:       500 * time.Millisecond,
}

// ErrNoDataPin indicates the sequencer has no data line.
var ErrNoDataPin = errors.New("data pin not configured")

// Sequencer implements spektrum.BindSequencer on two pins. Power may be
// nil if the receiver power isn't switchable, the receiver must be
// powered up right before Bind then.
type Sequencer struct {
	Power  Pin
	Data   Pin
	Timing Timing
	// Sleep waits for a duration, Sleep is used if nil.
	Sleep func(ctx context.Context, d time.Duration) error
}

// NewSequencer creates a Sequencer with DefaultTiming.
func NewSequencer(power, data Pin) *Sequencer {
	return &Sequencer{Power: power, Data: data, Timing: DefaultTiming}
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *Sequencer) sleep(ctx context.Context, d time.Duration) error {
	if s.Sleep != nil {
		return s.Sleep(ctx, d)
	}
	return Sleep(ctx, d)
}

// Bind power cycles the receiver and sends the falling pulses.
// The data line is released as an input afterwards, also on failure.
func (s *Sequencer) Bind(ctx context.Context, pulses int) (err error) {
	if s.Data == nil {
		return ErrNoDataPin
	}
	defer func() {
		if e := s.Data.In(); e != nil && err == nil {
			err = e
		}
	}()
	if err = s.Data.Out(false); err != nil {
		return
	}
	if s.Power != nil {
		if err = s.Power.Out(false); err != nil {
			return
		}
	}
	if err = s.Data.Out(true); err != nil {
		return
	}
	if s.Power != nil {
		glog.Infof("bind: receiver off for %s", s.Timing.PowerUpDelay)
		if err = s.sleep(ctx, s.Timing.PowerUpDelay); err != nil {
			return
		}
		if err = s.Power.Out(true); err != nil {
			return
		}
	}
	if err = s.sleep(ctx, s.Timing.Preamble); err != nil {
		return
	}
	glog.Infof("bind: sending %d pulses", pulses)
	for n := 0; n < pulses; n++ {
		if err = s.Data.Out(true); err != nil {
			return
		}
		if err = s.sleep(ctx, s.Timing.HalfPeriod); err != nil {
			return
		}
		if err = s.Data.Out(false); err != nil {
			return
		}
		if err = s.sleep(ctx, s.Timing.HalfPeriod); err != nil {
			return
		}
	}
	return s.sleep(ctx, s.Timing.Settle)
}

package spektrum

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/spektrum.go/pkg/scaler"
)

// DefaultLogEvery is the default sampling interval of frame statistics.
const DefaultLogEvery = 1000

// auxFirst is the first channel sent in the auxiliary frame.
const auxFirst = Channel(SlotCount)

// ErrInvalidBindMode indicates an undefined bind mode.
var ErrInvalidBindMode = errors.New("invalid bind mode")

// Stats counts frames processed by a Satellite.
type Stats struct {
	Frames         uint64
	Success        uint64
	Fail           uint64
	Sent           uint64
	SkippedBytes   uint64
	UnknownSystems uint64
}

// Satellite is a session with a satellite receiver. It owns the channel
// store, the codec configuration and the connection tracker.
// It's not safe for concurrent use.
type Satellite[T scaler.Number] struct {
	// LogEvery logs statistics every n frames, 0 disables.
	LogEvery uint64

	store      *Store[T]
	linear     *scaler.Linear[T]
	outRange   *[2]T
	neutral    *float64 // fraction of the raw range
	tracker    Tracker
	codec      Codec
	bindMode   BindMode
	system     System
	fades      uint16
	processAll bool
	sendAux    bool
	stats      Stats
}

// New creates a Satellite in the default bind mode.
func New[T scaler.Number]() *Satellite[T] {
	s := &Satellite[T]{
		LogEvery: DefaultLogEvery,
		store:    NewStore[T](),
		linear:   scaler.NewLinear[T](),
		codec:    Codec{SwapBytes: hostSwapsBytes},
	}
	s.store.SetScaler(s.linear)
	s.SetBindMode(DefaultBindMode)
	return s
}

// Tracker exposes the connection tracker.
func (s *Satellite[T]) Tracker() *Tracker {
	return &s.tracker
}

// Status gets the connection status.
func (s *Satellite[T]) Status() Status {
	return s.tracker.Status()
}

// IsConnected reports if a valid frame arrived within timeout.
func (s *Satellite[T]) IsConnected(timeout time.Duration) bool {
	return s.tracker.IsConnected(timeout)
}

// Stats returns the frame counters.
func (s *Satellite[T]) Stats() Stats {
	return s.stats
}

// BindMode gets the bind mode.
func (s *Satellite[T]) BindMode() BindMode {
	return s.bindMode
}

// SetBindMode sets the system, format and header layout from the mode.
// It doesn't touch the receiver.
func (s *Satellite[T]) SetBindMode(mode BindMode) error {
	if !mode.IsValid() {
		return ErrInvalidBindMode
	}
	s.bindMode = mode
	s.codec.Internal = mode.Internal()
	s.SetSystem(mode.System())
	glog.V(1).Infof("bind mode %s: internal=%v system=%s", mode, s.codec.Internal, s.system)
	return nil
}

// System gets the current system.
func (s *Satellite[T]) System() System {
	return s.system
}

// SetSystem sets the system and its slot format.
func (s *Satellite[T]) SetSystem(sys System) {
	s.system = sys
	format := sys.Format()
	s.store.SetMax(format.MaxValue())
	if format != s.codec.Format {
		s.codec.Format = format
		s.applyRange()
	}
}

// Format gets the slot format.
func (s *Satellite[T]) Format() Format {
	return s.codec.Format
}

// IsInternal indicates the receiver reports its system in the header.
func (s *Satellite[T]) IsInternal() bool {
	return s.codec.Internal
}

// IsValidSystem checks a system reported by the receiver. The system
// has no meaning in external modes.
func (s *Satellite[T]) IsValidSystem(sys byte) bool {
	if !s.codec.Internal {
		return true
	}
	return System(sys).IsKnown()
}

// SwapBytes indicates slots are byte-swapped after a native read.
func (s *Satellite[T]) SwapBytes() bool {
	return s.codec.SwapBytes
}

// SwitchEndianness toggles slot byte swapping.
func (s *Satellite[T]) SwitchEndianness() {
	s.codec.SwapBytes = !s.codec.SwapBytes
}

// Fades gets the fades counter from the last frame.
func (s *Satellite[T]) Fades() uint16 {
	return s.fades
}

// SetProcessAllData selects decoding every buffered frame instead
// of only the latest one.
func (s *Satellite[T]) SetProcessAllData(all bool) {
	s.processAll = all
}

// ProcessAllData indicates every buffered frame is decoded.
func (s *Satellite[T]) ProcessAllData() bool {
	return s.processAll
}

// Poll runs one poll cycle: reads what the transport has buffered and
// decodes the latest frame, or all of them if ProcessAllData is set.
// It returns the number of frames decoded.
func (s *Satellite[T]) Poll(t Transport) (int, error) {
	avail, err := t.Available()
	if err != nil || avail < FrameSize {
		return 0, err
	}
	if !s.processAll && avail > FrameSize {
		skip := avail - FrameSize
		glog.V(2).Infof("skipping %d stale bytes", skip)
		n, err := io.CopyN(io.Discard, t, int64(skip))
		s.stats.SkippedBytes += uint64(n)
		if err != nil {
			return 0, s.readFailed(err)
		}
		avail = FrameSize
	}
	var buf [FrameSize]byte
	frames := 0
	for ; avail >= FrameSize; avail -= FrameSize {
		if _, err := io.ReadFull(t, buf[:]); err != nil {
			return frames, s.readFailed(err)
		}
		if err := s.ParseFrame(buf[:]); err != nil {
			return frames, err
		}
		frames++
	}
	return frames, nil
}

func (s *Satellite[T]) readFailed(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		s.stats.Fail++
		glog.Warning("incomplete frame dropped")
		return ErrShortRead
	}
	return err
}

// ParseFrame decodes a frame into the channel store. In internal mode,
// a different valid system reported by the receiver is adopted. An
// unknown system is rejected, the channel data is applied anyway but
// the frame doesn't count as valid.
func (s *Satellite[T]) ParseFrame(b []byte) error {
	f, err := s.codec.Decode(b)
	if err != nil {
		return err
	}
	valid := true
	if f.HasSystem && f.System != s.system {
		if s.IsValidSystem(byte(f.System)) {
			glog.Infof("receiver reports system %s, was %s", f.System, s.system)
			prev := s.codec.Format
			s.SetSystem(f.System)
			if s.codec.Format != prev {
				f, _ = s.codec.Decode(b)
			}
		} else {
			valid = false
			s.stats.UnknownSystems++
			glog.Warning(&UnknownSystemError{System: f.System, Kept: s.system})
		}
	}
	s.fades = f.Fades
	s.store.Apply(f.Samples)
	s.tracker.FrameReceived(valid)
	s.logFrame(valid)
	return nil
}

func (s *Satellite[T]) logFrame(valid bool) {
	if valid {
		s.stats.Success++
	} else {
		s.stats.Fail++
	}
	if s.LogEvery > 0 && s.stats.Frames%s.LogEvery == 0 {
		glog.Infof("frames=%d success=%d fail=%d skipped=%d status=%s connected=%v",
			s.stats.Frames, s.stats.Success, s.stats.Fail, s.stats.SkippedBytes,
			s.tracker.Status(), s.tracker.IsConnected(DefaultTimeout))
	}
	s.stats.Frames++
}

// Scaler gets the scaler used by the channel store.
func (s *Satellite[T]) Scaler() scaler.Scaler[T] {
	return s.store.Scaler()
}

// SetScaler replaces the scaler. A range set by SetChannelValueRange
// or SetChannelValueRangeNeutral is forgotten, so sc is not rebuilt
// when the format changes.
func (s *Satellite[T]) SetScaler(sc scaler.Scaler[T]) {
	s.outRange, s.neutral = nil, nil
	s.store.SetScaler(sc)
}

// SetChannelValueRange sets the application range of channel values.
// The raw range follows the format, including after a system change.
func (s *Satellite[T]) SetChannelValueRange(min, max T) error {
	s.outRange, s.neutral = &[2]T{min, max}, nil
	s.store.SetScaler(s.linear)
	return s.applyRange()
}

// SetChannelValueRangeNeutral sets the application range split at the
// raw neutral input of the current format, which maps onto the middle
// of the range. After a format change the neutral keeps its position
// relative to the raw range.
func (s *Satellite[T]) SetChannelValueRangeNeutral(neutral float64, min, max T) error {
	inMax := float64(s.codec.Format.MaxValue())
	sc, err := scaler.NewNeutral(0, inMax, neutral, min, max)
	if err != nil {
		return err
	}
	frac := neutral / inMax
	s.outRange, s.neutral = &[2]T{min, max}, &frac
	s.store.SetScaler(sc)
	return nil
}

func (s *Satellite[T]) applyRange() error {
	if s.outRange == nil {
		return nil
	}
	inMax := float64(s.codec.Format.MaxValue())
	if s.neutral == nil {
		return s.linear.Configure(0, inMax, s.outRange[0], s.outRange[1])
	}
	sc, err := scaler.NewNeutral(0, inMax, math.Round(*s.neutral*inMax), s.outRange[0], s.outRange[1])
	if err != nil {
		return err
	}
	s.store.SetScaler(sc)
	return nil
}

// ChannelValue gets the scaled value of a channel.
func (s *Satellite[T]) ChannelValue(ch Channel) (T, error) {
	return s.store.Value(ch)
}

// SetChannelValue stores a value to be sent. The raw sample is clamped
// to the format's range. Writing an auxiliary channel enables sending
// the auxiliary frame.
func (s *Satellite[T]) SetChannelValue(ch Channel, v T) error {
	if err := s.store.SetValue(ch, v); err != nil {
		return err
	}
	if ch >= auxFirst {
		s.sendAux = true
	}
	return nil
}

// ChannelValues gets the scaled values of all channels.
func (s *Satellite[T]) ChannelValues() ([MaxChannels]T, error) {
	return s.store.Values()
}

// RawValues gets the raw samples of all channels.
func (s *Satellite[T]) RawValues() [MaxChannels]uint16 {
	return s.store.RawValues()
}

// ChannelName gets the name of a channel.
func (s *Satellite[T]) ChannelName(ch Channel) string {
	return ch.String()
}

// Throttle gets the throttle value.
func (s *Satellite[T]) Throttle() (T, error) { return s.ChannelValue(Throttle) }

// Aileron gets the aileron value.
func (s *Satellite[T]) Aileron() (T, error) { return s.ChannelValue(Aileron) }

// Elevator gets the elevator value.
func (s *Satellite[T]) Elevator() (T, error) { return s.ChannelValue(Elevator) }

// Rudder gets the rudder value.
func (s *Satellite[T]) Rudder() (T, error) { return s.ChannelValue(Rudder) }

// Gear gets the gear value.
func (s *Satellite[T]) Gear() (T, error) { return s.ChannelValue(Gear) }

// Aux1 gets the auxiliary channel 1 value.
func (s *Satellite[T]) Aux1() (T, error) { return s.ChannelValue(Aux1) }

// Aux2 gets the auxiliary channel 2 value.
func (s *Satellite[T]) Aux2() (T, error) { return s.ChannelValue(Aux2) }

// Aux3 gets the auxiliary channel 3 value.
func (s *Satellite[T]) Aux3() (T, error) { return s.ChannelValue(Aux3) }

// Aux4 gets the auxiliary channel 4 value.
func (s *Satellite[T]) Aux4() (T, error) { return s.ChannelValue(Aux4) }

// Aux5 gets the auxiliary channel 5 value.
func (s *Satellite[T]) Aux5() (T, error) { return s.ChannelValue(Aux5) }

// Aux6 gets the auxiliary channel 6 value.
func (s *Satellite[T]) Aux6() (T, error) { return s.ChannelValue(Aux6) }

// Aux7 gets the auxiliary channel 7 value.
func (s *Satellite[T]) Aux7() (T, error) { return s.ChannelValue(Aux7) }

// SetThrottle sets the throttle value.
func (s *Satellite[T]) SetThrottle(v T) error { return s.SetChannelValue(Throttle, v) }

// SetAileron sets the aileron value.
func (s *Satellite[T]) SetAileron(v T) error { return s.SetChannelValue(Aileron, v) }

// SetElevator sets the elevator value.
func (s *Satellite[T]) SetElevator(v T) error { return s.SetChannelValue(Elevator, v) }

// SetRudder sets the rudder value.
func (s *Satellite[T]) SetRudder(v T) error { return s.SetChannelValue(Rudder, v) }

// SetGear sets the gear value.
func (s *Satellite[T]) SetGear(v T) error { return s.SetChannelValue(Gear, v) }

// SetAux1 sets the auxiliary channel 1 value.
func (s *Satellite[T]) SetAux1(v T) error { return s.SetChannelValue(Aux1, v) }

// SetAux2 sets the auxiliary channel 2 value.
func (s *Satellite[T]) SetAux2(v T) error { return s.SetChannelValue(Aux2, v) }

// SetAux3 sets the auxiliary channel 3 value.
func (s *Satellite[T]) SetAux3(v T) error { return s.SetChannelValue(Aux3, v) }

// SetAux4 sets the auxiliary channel 4 value.
func (s *Satellite[T]) SetAux4(v T) error { return s.SetChannelValue(Aux4, v) }

// SetAux5 sets the auxiliary channel 5 value.
func (s *Satellite[T]) SetAux5(v T) error { return s.SetChannelValue(Aux5, v) }

// SetAux6 sets the auxiliary channel 6 value.
func (s *Satellite[T]) SetAux6(v T) error { return s.SetChannelValue(Aux6, v) }

// SetAux7 sets the auxiliary channel 7 value.
func (s *Satellite[T]) SetAux7(v T) error { return s.SetChannelValue(Aux7, v) }

// SendBuffer encodes the primary channels, or the auxiliary channels
// if aux is set, into a frame.
func (s *Satellite[T]) SendBuffer(aux bool) [FrameSize]byte {
	from, to := Throttle, auxFirst
	if aux {
		from, to = auxFirst, MaxChannels
	}
	return s.codec.Encode(Frame{
		Header: Header{
			Fades:     s.fades,
			System:    s.system,
			HasSystem: s.codec.Internal,
		},
		Samples: s.store.Samples(from, to),
	})
}

// SendData writes the primary frame, followed by the auxiliary frame
// once any auxiliary channel was written.
func (s *Satellite[T]) SendData(t Transport) error {
	if s.LogEvery > 0 && s.stats.Sent%s.LogEvery == 0 {
		glog.Infof("sending frames: sent=%d aux=%v", s.stats.Sent, s.sendAux)
	}
	buf := s.SendBuffer(false)
	if _, err := t.Write(buf[:]); err != nil {
		return err
	}
	if s.sendAux {
		buf = s.SendBuffer(true)
		if _, err := t.Write(buf[:]); err != nil {
			return err
		}
	}
	s.stats.Sent++
	return t.Flush()
}

// SendText writes a text line and flushes.
func (s *Satellite[T]) SendText(t Transport, line string) error {
	if _, err := io.WriteString(t, line); err != nil {
		return err
	}
	return t.Flush()
}

// TextLine formats the scaled channel values as a text line.
func (s *Satellite[T]) TextLine(tc TextCodec) (string, error) {
	vals, err := s.store.Values()
	if err != nil {
		return "", err
	}
	fs := make([]float64, len(vals))
	for n, v := range vals {
		fs[n] = float64(v)
	}
	return tc.Format(fs), nil
}

// ApplyTextLine parses a text line into channel values. It returns false
// if no field could be read.
func (s *Satellite[T]) ApplyTextLine(tc TextCodec, line string) (bool, error) {
	vals, ok := tc.Parse(line)
	round := scaler.PolicyOf[T]() == scaler.RoundNearest
	for n, v := range vals {
		if n >= MaxChannels {
			break
		}
		if round {
			v = math.Round(v)
		}
		if err := s.SetChannelValue(Channel(n), T(v)); err != nil {
			return ok, err
		}
	}
	return ok, nil
}

// StartBinding puts the tracker into Binding and sends the pulses of
// the bind mode. Binding ends with the first valid frame or EndBinding.
func (s *Satellite[T]) StartBinding(ctx context.Context, seq BindSequencer) error {
	if !s.tracker.StartBinding() {
		return fmt.Errorf("cannot bind while %s", s.tracker.Status())
	}
	glog.Infof("binding %s with %d pulses", s.bindMode, s.bindMode.Pulses())
	if err := seq.Bind(ctx, s.bindMode.Pulses()); err != nil {
		s.tracker.EndBinding()
		return err
	}
	return nil
}

// EndBinding leaves Binding.
func (s *Satellite[T]) EndBinding() bool {
	return s.tracker.EndBinding()
}

// WaitForData polls the transport every interval until data is available.
func (s *Satellite[T]) WaitForData(ctx context.Context, t Transport, interval time.Duration) error {
	glog.V(1).Info("waiting for data")
	for {
		n, err := t.Available()
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

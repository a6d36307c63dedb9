package spektrum

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func frames(frames ...[]byte) []byte {
	var b []byte
	for _, f := range frames {
		b = append(b, f...)
	}
	return b
}

// extSlot packs an extended slot.
func extSlot(ch Channel, v uint16) uint16 {
	return uint16(ch)<<11 | v
}

type shortTransport struct {
	*BufferTransport
	claim int
}

func (t *shortTransport) Available() (int, error) {
	return t.claim, nil
}

type testSequencer struct {
	pulses []int
	err    error
}

func (s *testSequencer) Bind(ctx context.Context, pulses int) error {
	s.pulses = append(s.pulses, pulses)
	return s.err
}

func TestSatelliteDefaults(t *testing.T) {
	s := New[int]()
	require.Equal(t, DefaultBindMode, s.BindMode())
	require.Equal(t, DSMX_11ms_2048, s.System())
	require.Equal(t, FormatExtended, s.Format())
	require.True(t, s.IsInternal())
	require.Equal(t, hostSwapsBytes, s.SwapBytes())
	require.False(t, s.ProcessAllData())
	require.Equal(t, NotConnected, s.Status())
	require.Equal(t, "Aux4", s.ChannelName(Aux4))

	s.SwitchEndianness()
	require.Equal(t, !hostSwapsBytes, s.SwapBytes())
}

func TestSatelliteBindModes(t *testing.T) {
	testCases := []struct {
		mode     BindMode
		system   System
		format   Format
		internal bool
	}{
		{InternalDSM2_22ms, DSM2_22ms_1024, FormatCompact, true},
		{ExternalDSM2_22ms, DSM2_22ms_1024, FormatCompact, false},
		{InternalDSM2_11ms, DSM2_11ms_2048, FormatExtended, true},
		{ExternalDSM2_11ms, DSM2_11ms_2048, FormatExtended, false},
		{InternalDSMX_22ms, DSMX_22ms_2048, FormatExtended, true},
		{ExternalDSMX_22ms, DSMX_22ms_2048, FormatExtended, false},
		{InternalDSMX_11ms, DSMX_11ms_2048, FormatExtended, true},
		{ExternalDSMX_11ms, DSMX_11ms_2048, FormatExtended, false},
	}
	s := New[int]()
	for _, tc := range testCases {
		t.Run(tc.mode.String(), func(t *testing.T) {
			for n := 0; n < 2; n++ {
				require.NoError(t, s.SetBindMode(tc.mode))
				require.Equal(t, tc.system, s.System())
				require.Equal(t, tc.format, s.Format())
				require.Equal(t, tc.internal, s.IsInternal())
				require.Equal(t, int(tc.mode), tc.mode.Pulses())
			}
			mode, err := ParseBindMode(tc.mode.String())
			require.NoError(t, err)
			require.Equal(t, tc.mode, mode)
		})
	}
	require.Equal(t, ErrInvalidBindMode, s.SetBindMode(2))
	require.Equal(t, ErrInvalidBindMode, s.SetBindMode(11))
	require.Equal(t, ExternalDSMX_11ms, s.BindMode())
}

func TestSatelliteIsValidSystem(t *testing.T) {
	s := New[int]()
	for _, sys := range []byte{0x01, 0x12, 0xa2, 0xb2} {
		require.True(t, s.IsValidSystem(sys))
	}
	for _, sys := range []byte{0x00, 0x02, 0x55, 0xff} {
		require.False(t, s.IsValidSystem(sys))
	}
	require.NoError(t, s.SetBindMode(ExternalDSMX_22ms))
	require.True(t, s.IsValidSystem(0x55))
}

func TestSatellitePollDiscardsStale(t *testing.T) {
	s := New[int]()
	tr := NewBufferTransport(frames(
		wire(0, 0xb2, extSlot(Throttle, 10)),
		wire(0, 0xb2, extSlot(Throttle, 20)),
		wire(0, 0xb2, extSlot(Throttle, 30)),
	))
	n, err := s.Poll(tr)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, uint16(30), s.RawValues()[Throttle])
	require.Equal(t, uint64(32), s.Stats().SkippedBytes)
	require.Equal(t, uint64(1), s.Stats().Frames)

	avail, _ := tr.Available()
	require.Zero(t, avail)
	n, err = s.Poll(tr)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestSatellitePollProcessAll(t *testing.T) {
	s := New[int]()
	s.SetProcessAllData(true)
	tr := NewBufferTransport(frames(
		wire(0, 0xb2, extSlot(Throttle, 10), extSlot(Rudder, 1)),
		wire(0, 0xb2, extSlot(Throttle, 20)),
		wire(0, 0xb2, extSlot(Throttle, 30)),
		[]byte{1, 2, 3, 4},
	))
	n, err := s.Poll(tr)
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Equal(t, uint16(30), s.RawValues()[Throttle])
	require.Equal(t, uint16(1), s.RawValues()[Rudder])
	require.Equal(t, uint64(3), s.Stats().Success)
	avail, _ := tr.Available()
	require.Equal(t, 4, avail)
}

func TestSatellitePollResyncsOnTrailingFrame(t *testing.T) {
	s := New[int]()
	tr := NewBufferTransport(frames([]byte{0xb2, 0x33, 0x44}, wire(0, 0xb2, extSlot(Gear, 1500))))
	n, err := s.Poll(tr)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, uint16(1500), s.RawValues()[Gear])
}

func TestSatellitePollShortRead(t *testing.T) {
	s := New[int]()
	tr := &shortTransport{BufferTransport: NewBufferTransport(make([]byte, 10)), claim: FrameSize}
	n, err := s.Poll(tr)
	require.Equal(t, ErrShortRead, err)
	require.Zero(t, n)
	require.Equal(t, uint64(1), s.Stats().Fail)
	require.Equal(t, NotConnected, s.Status())

	tr = &shortTransport{BufferTransport: NewBufferTransport(make([]byte, 10)), claim: 40}
	_, err = s.Poll(tr)
	require.Equal(t, ErrShortRead, err)
}

func TestSatelliteAdoptsSystem(t *testing.T) {
	s := New[int]()
	require.NoError(t, s.ParseFrame(wire(5, 0x01, 0x0401)))
	require.Equal(t, DSM2_22ms_1024, s.System())
	require.Equal(t, FormatCompact, s.Format())
	require.Equal(t, uint16(1), s.RawValues()[Aileron])
	require.Equal(t, uint16(5), s.Fades())
	require.Equal(t, Receiving, s.Status())

	require.NoError(t, s.ParseFrame(wire(6, 0xa2, extSlot(Elevator, 2000))))
	require.Equal(t, DSMX_22ms_2048, s.System())
	require.Equal(t, FormatExtended, s.Format())
	require.Equal(t, uint16(2000), s.RawValues()[Elevator])
	require.Equal(t, uint64(0), s.Stats().UnknownSystems)
}

func TestSatelliteRejectsUnknownSystem(t *testing.T) {
	now := time.Unix(50, 0)
	s := New[int]()
	s.Tracker().Now = func() time.Time { return now }
	require.NoError(t, s.ParseFrame(wire(1, 0x55, extSlot(Aux2, 77))))
	require.Equal(t, DSMX_11ms_2048, s.System())
	require.Equal(t, uint16(77), s.RawValues()[Aux2])
	require.Equal(t, NotConnected, s.Status())
	require.False(t, s.IsConnected(DefaultTimeout))
	require.Equal(t, uint64(1), s.Stats().UnknownSystems)
	require.Equal(t, uint64(1), s.Stats().Fail)

	err := &UnknownSystemError{System: 0x55, Kept: DSMX_11ms_2048}
	require.Equal(t, "unknown system 0x55, keeping DSMX/11ms/2048", err.Error())
}

func TestSatelliteExternalHeader(t *testing.T) {
	s := New[int]()
	require.NoError(t, s.SetBindMode(ExternalDSM2_22ms))
	require.NoError(t, s.ParseFrame(wire(0x01, 0x02, 0x0401)))
	require.Equal(t, uint16(0x0102), s.Fades())
	require.Equal(t, DSM2_22ms_1024, s.System())
	require.Equal(t, uint16(1), s.RawValues()[Aileron])
	require.Equal(t, Receiving, s.Status())
}

func TestSatelliteLiveness(t *testing.T) {
	now := time.Unix(50, 0)
	s := New[int]()
	s.Tracker().Now = func() time.Time { return now }
	require.False(t, s.IsConnected(DefaultTimeout))
	require.NoError(t, s.ParseFrame(wire(0, 0xb2)))
	require.True(t, s.IsConnected(DefaultTimeout))
	now = now.Add(1500 * time.Millisecond)
	require.False(t, s.IsConnected(DefaultTimeout))
	require.Equal(t, Receiving, s.Status())
	require.NoError(t, s.ParseFrame(wire(0, 0xb2)))
	require.True(t, s.IsConnected(DefaultTimeout))
}

func TestSatelliteValueRange(t *testing.T) {
	s := New[int]()
	v, err := s.Throttle()
	require.NoError(t, err)
	require.Zero(t, v)

	require.NoError(t, s.SetChannelValueRange(0, 100))
	require.NoError(t, s.ParseFrame(wire(0, 0xb2, extSlot(Throttle, 2047), extSlot(Aileron, 1024))))
	v, err = s.Throttle()
	require.NoError(t, err)
	require.Equal(t, 100, v)
	v, err = s.Aileron()
	require.NoError(t, err)
	require.Equal(t, 50, v)

	s.SetSystem(DSM2_22ms_1024)
	require.NoError(t, s.SetElevator(100))
	require.Equal(t, uint16(1023), s.RawValues()[Elevator])

	require.NoError(t, s.SetChannelValueRange(5, 5))
	v, err = s.Elevator()
	require.NoError(t, err)
	require.Zero(t, v)
}

func TestSatelliteInvalidChannel(t *testing.T) {
	s := New[float64]()
	_, err := s.ChannelValue(MaxChannels)
	require.Equal(t, ErrInvalidChannel, err)
	require.Equal(t, ErrInvalidChannel, s.SetChannelValue(-1, 1))
}

func TestSatelliteSendData(t *testing.T) {
	s := New[uint16]()
	tr := NewBufferTransport(nil)
	require.NoError(t, s.SetThrottle(1500))
	require.NoError(t, s.SetGear(300))
	require.NoError(t, s.SendData(tr))
	out := tr.Written()
	require.Len(t, out, FrameSize)
	require.Equal(t, byte(DSMX_11ms_2048), out[1])

	c := NewCodec(FormatExtended, true)
	f, err := c.Decode(out)
	require.NoError(t, err)
	require.Len(t, f.Samples, SlotCount)
	require.Equal(t, Sample{Throttle, 1500}, f.Samples[Throttle])
	require.Equal(t, Sample{Gear, 300}, f.Samples[Gear])

	require.NoError(t, s.SetAux5(42))
	require.NoError(t, s.SendData(tr))
	out = tr.Written()
	require.Len(t, out, 2*FrameSize)
	f, err = c.Decode(out[FrameSize:])
	require.NoError(t, err)
	require.Equal(t, []Sample{{Aux3, 0}, {Aux4, 0}, {Aux5, 42}, {Aux6, 0}, {Aux7, 0}}, f.Samples)
	require.Equal(t, uint64(2), s.Stats().Sent)

	buf := s.SendBuffer(true)
	require.Equal(t, out[FrameSize:], buf[:])
}

func TestSatelliteSendText(t *testing.T) {
	s := New[float64]()
	require.NoError(t, s.SetChannelValueRange(-1, 1))
	tr := NewBufferTransport(nil)
	ok, err := s.ApplyTextLine(TextCodec{}, "1,-1,0.5\n")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint16(2047), s.RawValues()[Throttle])
	require.Equal(t, uint16(0), s.RawValues()[Aileron])

	line, err := s.TextLine(TextCodec{Delimiter: ';'})
	require.NoError(t, err)
	require.NoError(t, s.SendText(tr, line))
	require.Equal(t, line, string(tr.Written()))
	vals, ok := TextCodec{Delimiter: ';'}.Parse(line)
	require.True(t, ok)
	require.Len(t, vals, MaxChannels)
	require.Equal(t, 1.0, vals[Throttle])
}

func TestSatelliteBinding(t *testing.T) {
	s := New[int]()
	seq := &testSequencer{}
	require.NoError(t, s.SetBindMode(InternalDSMX_22ms))
	require.NoError(t, s.StartBinding(context.Background(), seq))
	require.Equal(t, []int{7}, seq.pulses)
	require.Equal(t, Binding, s.Status())
	require.Error(t, s.StartBinding(context.Background(), seq))

	require.NoError(t, s.ParseFrame(wire(0, 0xa2)))
	require.Equal(t, Receiving, s.Status())
	require.False(t, s.EndBinding())

	s = New[int]()
	seq.err = errors.New("gpio")
	require.Equal(t, seq.err, s.StartBinding(context.Background(), seq))
	require.Equal(t, NotConnected, s.Status())
}

func TestSatelliteWaitForData(t *testing.T) {
	s := New[int]()
	tr := NewBufferTransport(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Equal(t, context.Canceled, s.WaitForData(ctx, tr, time.Millisecond))

	go func() {
		time.Sleep(5 * time.Millisecond)
		tr.Inject([]byte{1})
	}()
	require.NoError(t, s.WaitForData(context.Background(), tr, time.Millisecond))
}

func TestSatelliteNamedAccessors(t *testing.T) {
	s := New[int]()
	setters := []func(int) error{
		s.SetThrottle, s.SetAileron, s.SetElevator, s.SetRudder, s.SetGear,
		s.SetAux1, s.SetAux2, s.SetAux3, s.SetAux4, s.SetAux5, s.SetAux6, s.SetAux7,
	}
	getters := []func() (int, error){
		s.Throttle, s.Aileron, s.Elevator, s.Rudder, s.Gear,
		s.Aux1, s.Aux2, s.Aux3, s.Aux4, s.Aux5, s.Aux6, s.Aux7,
	}
	for n := range setters {
		require.NoError(t, setters[n](n+100))
	}
	for n, get := range getters {
		v, err := get()
		require.NoError(t, err)
		require.Equal(t, n+100, v, Channel(n).String())
		require.Equal(t, n+100, int(s.RawValues()[n]))
	}
	require.Equal(t, "Elevator", s.ChannelName(Elevator))
	require.Equal(t, "Aux7", s.ChannelName(Aux7))
	require.Equal(t, "Channel(12)", s.ChannelName(12))
}

func TestSatelliteClampsOverRange(t *testing.T) {
	sent := func(send func(Transport) error, format Format) Sample {
		tr := NewBufferTransport(nil)
		require.NoError(t, send(tr))
		f, err := NewCodec(format, true).Decode(tr.Written())
		require.NoError(t, err)
		return f.Samples[Throttle]
	}

	scaled := New[float64]()
	require.NoError(t, scaled.SetChannelValueRange(-1, 1))
	require.NoError(t, scaled.SetThrottle(1.01))
	require.Equal(t, uint16(2047), scaled.RawValues()[Throttle])
	require.Equal(t, Sample{Throttle, 2047}, sent(scaled.SendData, FormatExtended))

	raw := New[int]()
	require.NoError(t, raw.SetThrottle(3000))
	require.Equal(t, uint16(2047), raw.RawValues()[Throttle])
	require.Equal(t, Sample{Throttle, 2047}, sent(raw.SendData, FormatExtended))

	require.NoError(t, raw.SetBindMode(InternalDSM2_22ms))
	require.NoError(t, raw.SetThrottle(3000))
	require.Equal(t, uint16(1023), raw.RawValues()[Throttle])
	require.Equal(t, Sample{Throttle, 1023}, sent(raw.SendData, FormatCompact))
}

func TestSatelliteNeutralRangeFollowsFormat(t *testing.T) {
	value := func(s *Satellite[float64], ch Channel) float64 {
		v, err := s.ChannelValue(ch)
		require.NoError(t, err)
		return v
	}

	s := New[float64]()
	require.NoError(t, s.SetBindMode(InternalDSM2_22ms))
	require.Error(t, s.SetChannelValueRangeNeutral(0, -1, 1))
	require.NoError(t, s.SetChannelValueRangeNeutral(600, -1, 1))
	require.NoError(t, s.ParseFrame(wire(0, 0x01, 0x03FF, 0x0400|600)))
	require.InDelta(t, 1.0, value(s, Throttle), 1e-9)
	require.InDelta(t, 0.0, value(s, Aileron), 1e-9)

	require.NoError(t, s.ParseFrame(wire(0, 0xb2,
		extSlot(Throttle, 2047), extSlot(Aileron, 0), extSlot(Elevator, 1201))))
	require.Equal(t, FormatExtended, s.Format())
	require.InDelta(t, 1.0, value(s, Throttle), 1e-9)
	require.InDelta(t, -1.0, value(s, Aileron), 1e-9)
	require.InDelta(t, 0.0, value(s, Elevator), 1e-9)

	require.NoError(t, s.SetChannelValueRange(-1, 1))
	s.SetSystem(DSM2_22ms_1024)
	require.NoError(t, s.ParseFrame(wire(0, 0x01, 0x03FF)))
	require.InDelta(t, 1.0, value(s, Throttle), 1e-9)
}

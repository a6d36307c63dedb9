package daemon

import (
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/spektrum.go/pkg/framework"
	"github.com/robotalks/spektrum.go/pkg/msgs"
	"github.com/robotalks/spektrum.go/pkg/spektrum"
	"github.com/robotalks/spektrum.go/pkg/telemetry"
)

type recorder struct {
	msgs []fx.Message
}

func (r *recorder) Publish(ctx context.Context, msg fx.Message) error {
	r.msgs = append(r.msgs, msg)
	return nil
}

func (r *recorder) take() []fx.Message {
	out := r.msgs
	r.msgs = nil
	return out
}

type fakeBinder struct {
	pulses []int
	err    error
}

func (b *fakeBinder) Bind(ctx context.Context, pulses int) error {
	b.pulses = append(b.pulses, pulses)
	return b.err
}

type fakeCommand struct {
	msg   fx.Message
	reply fx.Message
}

func (c *fakeCommand) Msg() fx.Message { return c.msg }

func (c *fakeCommand) Done(reply fx.Message) error {
	c.reply = reply
	return nil
}

func commandMsg(cmd *fakeCommand) *telemetry.CommandMsg {
	return &telemetry.CommandMsg{Command: cmd}
}

// frame builds an internal DSMX 11ms frame with extended slots.
func frame(fades byte, slots ...uint16) []byte {
	b := make([]byte, spektrum.FrameSize)
	b[0], b[1] = fades, byte(spektrum.DSMX_11ms_2048)
	for n := 0; n < spektrum.SlotCount; n++ {
		v := uint16(0xffff)
		if n < len(slots) {
			v = slots[n]
		}
		binary.BigEndian.PutUint16(b[spektrum.HeaderSize+n*2:], v)
	}
	return b
}

type testEnv struct {
	ctl   *Controller
	loop  *fx.Loop
	trans *spektrum.BufferTransport
	pub   *recorder
	now   time.Time
	err   error
}

func newTestEnv(t *testing.T) *testEnv {
	conf := NewConfig()
	conf.BindMode = spektrum.InternalDSMX_11ms.String()
	sat, err := conf.NewSatellite()
	require.NoError(t, err)

	e := &testEnv{
		trans: spektrum.NewBufferTransport(nil),
		pub:   &recorder{},
		now:   time.Unix(1000, 0),
	}
	sat.Tracker().Now = func() time.Time { return e.now }
	e.ctl = conf.NewController(sat, e.trans, e.pub)
	e.loop = fx.NewLoop()
	e.loop.Now = func() time.Time { return e.now }
	e.loop.AddController(fx.PrLvSense, fx.ControlFunc(func(cc fx.ControlContext) error {
		e.err = e.ctl.Control(cc)
		return e.err
	}))
	return e
}

func (e *testEnv) iterate() {
	e.loop.Iterate(context.Background())
}

func TestControllerPublishesFrames(t *testing.T) {
	e := newTestEnv(t)
	e.iterate()
	require.NoError(t, e.err)
	pubs := e.pub.take()
	require.Len(t, pubs, 1)
	status := pubs[0].(*msgs.ReceiverStatus)
	require.Equal(t, spektrum.NotConnected.String(), status.Status)
	require.False(t, status.Connected)

	e.trans.Inject(frame(3, 0x0000|2047, 0x0800|0))
	e.now = e.now.Add(10 * time.Millisecond)
	e.iterate()
	require.NoError(t, e.err)
	pubs = e.pub.take()
	require.Len(t, pubs, 2)
	ev := pubs[0].(*msgs.ChannelFrame)
	require.Equal(t, uint32(spektrum.DSMX_11ms_2048), ev.System)
	require.Equal(t, uint32(3), ev.Fades)
	require.Equal(t, e.now.UnixNano(), ev.Timestamp)
	require.Len(t, ev.Raw, spektrum.MaxChannels)
	require.Equal(t, uint32(2047), ev.Raw[spektrum.Throttle])
	require.Equal(t, 1.0, ev.Values[spektrum.Throttle])
	require.Equal(t, -1.0, ev.Values[spektrum.Aileron])
	status = pubs[1].(*msgs.ReceiverStatus)
	require.Equal(t, spektrum.Receiving.String(), status.Status)
	require.True(t, status.Connected)
	require.Equal(t, uint64(1), status.Success)

	// unchanged status isn't published until the interval elapses
	e.trans.Inject(frame(4))
	e.now = e.now.Add(10 * time.Millisecond)
	e.iterate()
	pubs = e.pub.take()
	require.Len(t, pubs, 1)
	require.IsType(t, &msgs.ChannelFrame{}, pubs[0])

	e.now = e.now.Add(time.Second)
	e.iterate()
	pubs = e.pub.take()
	require.Len(t, pubs, 1)
	status = pubs[0].(*msgs.ReceiverStatus)
	require.False(t, status.Connected)
}

func TestControllerPartialFrame(t *testing.T) {
	e := newTestEnv(t)
	e.ctl.Sat.SetProcessAllData(true)
	b := frame(1)
	e.trans.Inject(b[:10])
	e.iterate()
	require.NoError(t, e.err)
	require.Equal(t, uint64(0), e.ctl.Sat.Stats().Frames)

	e.trans.Inject(b[10:])
	e.iterate()
	require.NoError(t, e.err)
	require.Equal(t, uint64(1), e.ctl.Sat.Stats().Frames)
}

func TestControllerOutput(t *testing.T) {
	e := newTestEnv(t)
	e.iterate()
	require.Empty(t, e.trans.Written())

	e.ctl.Output = true
	e.iterate()
	require.Len(t, e.trans.Written(), spektrum.FrameSize)
	require.Equal(t, uint64(1), e.ctl.Sat.Stats().Sent)
}

func TestControllerSetChannels(t *testing.T) {
	testCases := []struct {
		name  string
		cmd   *msgs.SetChannels
		ok    bool
		bytes int
	}{
		{"set", &msgs.SetChannels{Channels: []uint32{0, 3}, Values: []float64{1, -1}}, true, 0},
		{"send", &msgs.SetChannels{Channels: []uint32{1}, Values: []float64{0}, Send: true}, true, spektrum.FrameSize},
		{"send aux", &msgs.SetChannels{Channels: []uint32{9}, Values: []float64{1}, Send: true}, true, 2 * spektrum.FrameSize},
		{"mismatch", &msgs.SetChannels{Channels: []uint32{0, 1}, Values: []float64{1}}, false, 0},
		{"invalid channel", &msgs.SetChannels{Channels: []uint32{12}, Values: []float64{1}}, false, 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestEnv(t)
			cmd := &fakeCommand{msg: tc.cmd}
			e.loop.PostMessage(commandMsg(cmd))
			e.iterate()
			require.NoError(t, e.err)
			if tc.ok {
				require.IsType(t, &msgs.CommandOK{}, cmd.reply)
				for n, ch := range tc.cmd.Channels {
					v, err := e.ctl.Sat.ChannelValue(spektrum.Channel(ch))
					require.NoError(t, err)
					require.InDelta(t, tc.cmd.Values[n], v, 0.001)
				}
			} else {
				require.IsType(t, &msgs.CommandErr{}, cmd.reply)
			}
			require.Len(t, e.trans.Written(), tc.bytes)
		})
	}
}

func TestControllerBind(t *testing.T) {
	e := newTestEnv(t)
	cmd := &fakeCommand{msg: &msgs.Bind{}}
	e.loop.PostMessage(commandMsg(cmd))
	e.iterate()
	require.IsType(t, &msgs.CommandErr{}, cmd.reply)
	require.Equal(t, ErrBindUnsupported.Error(), cmd.reply.(*msgs.CommandErr).Message)

	binder := &fakeBinder{}
	e.ctl.Binder = binder
	cmd = &fakeCommand{msg: &msgs.Bind{Mode: spektrum.InternalDSM2_22ms.String()}}
	e.loop.PostMessage(commandMsg(cmd))
	e.iterate()
	require.IsType(t, &msgs.CommandOK{}, cmd.reply)
	require.Equal(t, []int{spektrum.InternalDSM2_22ms.Pulses()}, binder.pulses)
	require.Equal(t, spektrum.Binding, e.ctl.Sat.Status())
	require.Equal(t, spektrum.InternalDSM2_22ms, e.ctl.Sat.BindMode())

	cmd = &fakeCommand{msg: &msgs.Bind{}}
	e.loop.PostMessage(commandMsg(cmd))
	e.iterate()
	require.IsType(t, &msgs.CommandErr{}, cmd.reply)

	e.ctl.Sat.EndBinding()
	binder.err = errors.New("gpio")
	cmd = &fakeCommand{msg: &msgs.Bind{Mode: "bogus"}}
	e.loop.PostMessage(commandMsg(cmd))
	e.iterate()
	require.IsType(t, &msgs.CommandErr{}, cmd.reply)
	require.Len(t, binder.pulses, 1)

	cmd = &fakeCommand{msg: &msgs.Bind{}}
	e.loop.PostMessage(commandMsg(cmd))
	e.iterate()
	require.Equal(t, "gpio", cmd.reply.(*msgs.CommandErr).Message)
	require.Equal(t, spektrum.NotConnected, e.ctl.Sat.Status())
}

func TestConfigLoadFile(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "satd.yaml")
	require.NoError(t, os.WriteFile(fn, []byte(`
serial:
  device: /dev/ttyS1
bindMode: external-dsm2-22ms
processAll: true
swapBytes: false
rangeMin: 1000
rangeMax: 2000
interval: 20ms
mqttUrl: tcp://broker:1883
record:
  path: /tmp/events.log
  maxSizeMB: 8
`), 0644))

	conf := NewConfig()
	require.NoError(t, conf.LoadFile(fn))
	require.Equal(t, "/dev/ttyS1", conf.Serial.Device)
	require.Equal(t, Default().Serial.BaudRate, conf.Serial.BaudRate)
	require.Equal(t, "external-dsm2-22ms", conf.BindMode)
	require.True(t, conf.ProcessAll)
	require.NotNil(t, conf.SwapBytes)
	require.False(t, *conf.SwapBytes)
	require.Equal(t, 20*time.Millisecond, conf.Interval)
	require.Equal(t, Default().StatusInterval, conf.StatusInterval)
	require.Equal(t, "tcp://broker:1883", conf.MQTTURL)
	require.Equal(t, "/tmp/events.log", conf.Record.Path)
	require.Equal(t, 8, conf.Record.MaxSizeMB)

	sat, err := conf.NewSatellite()
	require.NoError(t, err)
	require.Equal(t, spektrum.ExternalDSM2_22ms, sat.BindMode())
	require.False(t, sat.IsInternal())
	require.True(t, sat.ProcessAllData())
	require.False(t, sat.SwapBytes())
	require.NoError(t, sat.SetChannelValue(spektrum.Throttle, 2000))
	require.Equal(t, uint16(1023), sat.RawValues()[spektrum.Throttle])

	require.Error(t, conf.LoadFile(filepath.Join(t.TempDir(), "missing.yaml")))
}

func TestConfigNewSatellite(t *testing.T) {
	testCases := []struct {
		name   string
		modify func(*Config)
		ok     bool
		max    float64
	}{
		{"default", func(c *Config) {}, true, 1},
		{"raw", func(c *Config) { c.RangeMin, c.RangeMax = 0, 0 }, true, 2047},
		{"neutral", func(c *Config) { c.RangeMin, c.RangeMax, c.Neutral = 0, 100, 1024 }, true, 100},
		{"neutral after system change", func(c *Config) {
			c.BindMode = spektrum.InternalDSM2_22ms.String()
			c.RangeMin, c.RangeMax, c.Neutral = 0, 100, 600
		}, true, 100},
		{"bad neutral", func(c *Config) { c.Neutral = 2047 }, false, 0},
		{"bad mode", func(c *Config) { c.BindMode = "dsm3" }, false, 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			conf := NewConfig()
			conf.BindMode = spektrum.InternalDSMX_11ms.String()
			tc.modify(conf)
			sat, err := conf.NewSatellite()
			if !tc.ok {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NoError(t, sat.ParseFrame(frame(0, 2047)))
			v, err := sat.Throttle()
			require.NoError(t, err)
			require.InDelta(t, tc.max, v, 0.001)
		})
	}
}

func TestConfigNewSequencer(t *testing.T) {
	conf := NewConfig()
	seq, err := conf.NewSequencer()
	require.NoError(t, err)
	require.Nil(t, seq)
}

func TestConfigName(t *testing.T) {
	conf := NewConfig()
	conf.ReceiverID = "r1"
	require.Equal(t, "spektrum/r1", conf.Name())
}

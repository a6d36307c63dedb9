// Package daemon runs a receiver session in the control loop and
// connects it to telemetry publishers.
package daemon

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/spektrum.go/pkg/framework"
	"github.com/robotalks/spektrum.go/pkg/msgs"
	"github.com/robotalks/spektrum.go/pkg/spektrum"
	"github.com/robotalks/spektrum.go/pkg/telemetry"
)

// ErrBindUnsupported indicates no bind sequencer is configured.
var ErrBindUnsupported = errors.New("binding not supported")

// Controller polls the receiver once per iteration, publishes decoded
// frames and status, and executes remote commands. All accesses to
// the session happen in the loop goroutine.
type Controller struct {
	Sat       *spektrum.Satellite[float64]
	Transport spektrum.Transport
	Publisher telemetry.Publisher
	Binder    spektrum.BindSequencer

	Timeout        time.Duration
	StatusInterval time.Duration
	// Output sends the channel values every iteration.
	Output bool

	lastStatus   msgs.ReceiverStatus
	lastStatusAt time.Time
}

// NewController creates a Controller.
func NewController(sat *spektrum.Satellite[float64], t spektrum.Transport, pub telemetry.Publisher) *Controller {
	return &Controller{
		Sat:            sat,
		Transport:      t,
		Publisher:      pub,
		Timeout:        spektrum.DefaultTimeout,
		StatusInterval: time.Second,
	}
}

// NewController creates a Controller using the config.
func (c *Config) NewController(sat *spektrum.Satellite[float64], t spektrum.Transport, pub telemetry.Publisher) *Controller {
	ctl := NewController(sat, t, pub)
	ctl.Timeout = c.Timeout
	ctl.StatusInterval = c.StatusInterval
	ctl.Output = c.Output
	return ctl
}

// AddToLoop implements LoopAdder.
func (c *Controller) AddToLoop(loop *fx.Loop) {
	loop.AddController(fx.PrLvSense, c)
}

// Control implements Controller.
func (c *Controller) Control(cc fx.ControlContext) error {
	var errs fx.AggregatedError
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mc fx.MessageProcessingContext) {
		if cmd, ok := mc.CurrentMessage().(*telemetry.CommandMsg); ok {
			if reply, handled := c.handleCommand(cc, cmd.Command.Msg()); handled {
				mc.MessageTaken()
				errs.Add(cmd.Command.Done(reply))
			}
		}
	}))

	n, err := c.Sat.Poll(c.Transport)
	switch {
	case err == spektrum.ErrShortRead:
		glog.Warning(err)
	case err != nil:
		return errs.Add(err).Aggregate()
	}
	if n > 0 {
		errs.Add(c.publish(cc, c.FrameEvent(cc.Time())))
	}

	status := c.StatusEvent()
	if c.statusChanged(status) || cc.Time().Sub(c.lastStatusAt) >= c.StatusInterval {
		c.lastStatus, c.lastStatusAt = *status, cc.Time()
		errs.Add(c.publish(cc, status))
	}

	if c.Output {
		errs.Add(c.Sat.SendData(c.Transport))
	}
	return errs.Aggregate()
}

func (c *Controller) publish(cc fx.ControlContext, msg fx.Message) error {
	if c.Publisher == nil {
		return nil
	}
	return c.Publisher.Publish(cc.Context(), msg)
}

func (c *Controller) statusChanged(status *msgs.ReceiverStatus) bool {
	return status.Status != c.lastStatus.Status ||
		status.Connected != c.lastStatus.Connected ||
		status.System != c.lastStatus.System
}

// FrameEvent creates the event of the current channel values.
func (c *Controller) FrameEvent(at time.Time) *msgs.ChannelFrame {
	ev := &msgs.ChannelFrame{
		System:    uint32(c.Sat.System()),
		Fades:     uint32(c.Sat.Fades()),
		Timestamp: at.UnixNano(),
	}
	for _, raw := range c.Sat.RawValues() {
		ev.Raw = append(ev.Raw, uint32(raw))
	}
	if vals, err := c.Sat.ChannelValues(); err == nil {
		ev.Values = vals[:]
	}
	return ev
}

// StatusEvent creates the event of the connection status.
func (c *Controller) StatusEvent() *msgs.ReceiverStatus {
	stats := c.Sat.Stats()
	return &msgs.ReceiverStatus{
		Status:         c.Sat.Status().String(),
		Connected:      c.Sat.IsConnected(c.Timeout),
		System:         uint32(c.Sat.System()),
		BindMode:       c.Sat.BindMode().String(),
		Frames:         stats.Frames,
		Success:        stats.Success,
		Fail:           stats.Fail,
		Sent:           stats.Sent,
		UnknownSystems: stats.UnknownSystems,
	}
}

func (c *Controller) handleCommand(cc fx.ControlContext, msg fx.Message) (fx.Message, bool) {
	var err error
	switch m := msg.(type) {
	case *msgs.SetChannels:
		err = c.setChannels(m)
	case *msgs.Bind:
		err = c.bind(cc, m)
	default:
		return nil, false
	}
	if err != nil {
		glog.Warningf("%T failed: %v", msg, err)
		return msgs.NewCommandErr(err), true
	}
	return &msgs.CommandOK{}, true
}

func (c *Controller) setChannels(m *msgs.SetChannels) error {
	if len(m.Channels) != len(m.Values) {
		return fmt.Errorf("%d channels with %d values", len(m.Channels), len(m.Values))
	}
	for n, ch := range m.Channels {
		if err := c.Sat.SetChannelValue(spektrum.Channel(ch), m.Values[n]); err != nil {
			return fmt.Errorf("channel %d: %w", ch, err)
		}
	}
	if m.Send {
		return c.Sat.SendData(c.Transport)
	}
	return nil
}

func (c *Controller) bind(cc fx.ControlContext, m *msgs.Bind) error {
	if c.Binder == nil {
		return ErrBindUnsupported
	}
	if m.Mode != "" {
		mode, err := spektrum.ParseBindMode(m.Mode)
		if err != nil {
			return err
		}
		if err = c.Sat.SetBindMode(mode); err != nil {
			return err
		}
	}
	return c.Sat.StartBinding(cc.Context(), c.Binder)
}

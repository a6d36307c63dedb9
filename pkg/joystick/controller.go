// Package joystick drives channel values from a joystick and sends
// them to a receiver port as frames.
package joystick

import (
	"context"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/spektrum.go/pkg/framework"
	"github.com/robotalks/spektrum.go/pkg/joystick/device"
	"github.com/robotalks/spektrum.go/pkg/joystick/msgs"
	"github.com/robotalks/spektrum.go/pkg/spektrum"
	"github.com/robotalks/spektrum.go/pkg/telemetry"
)

// Controller maps joystick events onto channel values and sends a
// frame every iteration while a joystick is open.
type Controller struct {
	Sat         *spektrum.Satellite[float64]
	Transport   spektrum.Transport
	Publisher   telemetry.Publisher
	PortName    string
	DeviceIndex int
	Verbose     bool
	Axes        []AxisMapping
	Buttons     []ButtonMapping

	// OpenDevice opens the joystick, device.Open or device.DetectAndOpen
	// according to DeviceIndex if nil.
	OpenDevice func() (device.Device, error)

	eventCh     chan device.Event
	device      device.Device
	deviceTimer <-chan time.Time

	active        bool
	toggles       map[int]bool
	status        msgs.JoystickStatus
	statusChanged bool
}

// NewController creates a Controller.
func NewController(sat *spektrum.Satellite[float64], t spektrum.Transport) *Controller {
	return &Controller{
		Sat:           sat,
		Transport:     t,
		DeviceIndex:   defaultConfig.DeviceIndex,
		Verbose:       defaultConfig.Verbose,
		Axes:          defaultConfig.Axes,
		Buttons:       defaultConfig.Buttons,
		toggles:       make(map[int]bool),
		statusChanged: true,
	}
}

// AddToLoop implements LoopAdder.
func (c *Controller) AddToLoop(loop *fx.Loop) {
	loop.AddController(fx.PrLvControl, c)
	loop.AddController(fx.PrLvIdle, fx.ControlFunc(c.notifyStatusChange))
}

func (c *Controller) open() (device.Device, error) {
	if c.OpenDevice != nil {
		return c.OpenDevice()
	}
	if c.DeviceIndex >= 0 {
		return device.Open(c.DeviceIndex)
	}
	glog.V(1).Info("detecting joystick")
	return device.DetectAndOpen(0)
}

// Run implements Runnable.
func (c *Controller) Run(ctx context.Context) error {
	defer func() {
		if c.device != nil {
			c.device.Close()
		}
	}()
	loopCtl := fx.LoopCtlFrom(ctx)
	c.deviceTimer = time.After(0)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.deviceTimer:
			c.deviceTimer = nil
			js, err := c.open()
			if err != nil || js == nil {
				if err != nil {
					glog.V(1).Infof("open joystick: %v", err)
				}
				c.deviceTimer = time.After(time.Second)
				continue
			}
			glog.Infof("joystick %d %q opened, %d axes %d buttons",
				js.Index(), js.Name(), js.AxisCount(), js.ButtonCount())
			c.device, c.eventCh = js, make(chan device.Event, 1)
			go c.pollJoystick()
			loopCtl.PostMessage(&statusMsg{device: &msgs.JoystickDevice{
				Index: uint32(js.Index()),
				Name:  js.Name(),
			}})
		case ev, ok := <-c.eventCh:
			if ok {
				loopCtl.PostMessage(&eventMsg{event: ev})
			} else {
				loopCtl.PostMessage(&statusMsg{lost: true})
				c.device.Close()
				c.device, c.eventCh = nil, nil
				c.deviceTimer = time.After(time.Second)
			}
			loopCtl.TriggerNext()
		}
	}
}

func (c *Controller) pollJoystick() {
	dev, ch := c.device, c.eventCh
	defer close(ch)
	for {
		ev, err := dev.ReadEvent()
		if err != nil {
			glog.Warningf("joystick read error: %v", err)
			return
		}
		if c.Verbose {
			var prefix string
			if ev.IsInit() {
				prefix = "[INIT] "
			}
			switch evt := ev.(type) {
			case device.AxisEvent:
				glog.Infof(prefix+"axis %d: %d", evt.Index(), evt.Value())
			case device.ButtonEvent:
				glog.Infof(prefix+"button %d: %v", evt.Index(), evt.Pressed())
			}
		}
		ch <- ev
	}
}

// Control implements Controller.
func (c *Controller) Control(cc fx.ControlContext) error {
	var errs fx.AggregatedError
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
		switch msg := mctx.CurrentMessage().(type) {
		case *eventMsg:
			mctx.MessageTaken()
			errs.Add(c.handleEvent(msg.event))
		case *statusMsg:
			mctx.MessageTaken()
			if msg.lost {
				glog.Warning("joystick lost, failsafe")
				c.status.Device, c.active = nil, false
				errs.Add(c.failsafe(), c.Sat.SendData(c.Transport))
			} else {
				c.status.Device, c.active = msg.device, true
			}
			c.statusChanged = true
		}
	}))
	if c.active {
		errs.Add(c.Sat.SendData(c.Transport))
	}
	return errs.Aggregate()
}

func (c *Controller) handleEvent(ev device.Event) error {
	switch evt := ev.(type) {
	case device.AxisEvent:
		for _, m := range c.Axes {
			if m.Axis == evt.Index() {
				v := float64(evt.Value()) / device.AxisMax
				if m.Invert {
					v = -v
				}
				return c.Sat.SetChannelValue(m.Channel, v)
			}
		}
	case device.ButtonEvent:
		for _, m := range c.Buttons {
			if m.Button != evt.Index() {
				continue
			}
			on := evt.Pressed()
			if m.Toggle {
				if !on || evt.IsInit() {
					return nil
				}
				on = !c.toggles[m.Button]
				c.toggles[m.Button] = on
			}
			v := -1.0
			if on {
				v = 1
			}
			return c.Sat.SetChannelValue(m.Channel, v)
		}
	}
	return nil
}

func (c *Controller) failsafe() error {
	var errs fx.AggregatedError
	for _, m := range c.Axes {
		errs.Add(c.Sat.SetChannelValue(m.Channel, m.Failsafe))
	}
	return errs.Aggregate()
}

func (c *Controller) notifyStatusChange(cc fx.ControlContext) error {
	changed := c.statusChanged
	c.statusChanged = false
	if !changed || c.Publisher == nil {
		return nil
	}
	c.status.Port = c.PortName
	c.status.Sent = c.Sat.Stats().Sent
	status := c.status
	return c.Publisher.Publish(cc.Context(), &status)
}

type statusMsg struct {
	device *msgs.JoystickDevice
	lost   bool
}

func (m *statusMsg) NewMessage() fx.Message { return &statusMsg{} }

type eventMsg struct {
	event device.Event
}

func (m *eventMsg) NewMessage() fx.Message { return &eventMsg{} }

package device

import (
	"errors"
	"io"
)

// AxisMax is the absolute maximum of an axis value.
const AxisMax = 32767

// ErrUnsupported indicates joysticks are not supported on the platform.
var ErrUnsupported = errors.New("joystick not supported")

// Event defines the base event interface.
type Event interface {
	// IsInit indicates this is the init state.
	IsInit() bool
	// Index returns either Axis or Button index.
	Index() int
}

// AxisEvent represents the change on an axis.
type AxisEvent interface {
	Event
	// Value is in [-AxisMax, AxisMax].
	Value() int
}

// ButtonEvent represents the change on a button.
type ButtonEvent interface {
	Event
	Pressed() bool
}

// Device represents an opened joystick.
type Device interface {
	io.Closer
	// Index returns the index of the device on the system.
	Index() int
	// Name returns the name of the device.
	Name() string
	// AxisCount returns the number of Axis on the device.
	AxisCount() int
	// ButtonCount returns the number of buttons on the device.
	ButtonCount() int
	// ReadEvent reads one event from the device.
	ReadEvent() (Event, error)
}

type event struct {
	index int
	init  bool
}

func (e event) IsInit() bool { return e.init }
func (e event) Index() int   { return e.index }

type axisEvent struct {
	event
	value int
}

func (e axisEvent) Value() int { return e.value }

type buttonEvent struct {
	event
	pressed bool
}

func (e buttonEvent) Pressed() bool { return e.pressed }

// NewAxisEvent creates an AxisEvent, the value is clamped to the axis range.
func NewAxisEvent(index, value int) AxisEvent {
	if value > AxisMax {
		value = AxisMax
	} else if value < -AxisMax {
		value = -AxisMax
	}
	return axisEvent{event: event{index: index}, value: value}
}

// NewButtonEvent creates a ButtonEvent.
func NewButtonEvent(index int, pressed bool) ButtonEvent {
	return buttonEvent{event: event{index: index}, pressed: pressed}
}

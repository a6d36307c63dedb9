package spektrum

import (
	"fmt"
	"strings"
)

// Channel identifies one of the logical channel slots.
type Channel int

// Channels
const (
	Throttle Channel = iota
	Aileron
	Elevator
	Rudder
	Gear
	Aux1
	Aux2
	Aux3
	Aux4
	Aux5
	Aux6
	Aux7
)

// MaxChannels is the number of logical channels.
const MaxChannels = 12

var channelNames = [MaxChannels]string{
	"Throttle",
	"Aileron",
	"Elevator",
	"Rudder",
	"Gear",
	"Aux1",
	"Aux2",
	"Aux3",
	"Aux4",
	"Aux5",
	"Aux6",
	"Aux7",
}

// IsValid checks the channel is in range.
func (c Channel) IsValid() bool {
	return c >= 0 && c < MaxChannels
}

// String implements fmt.Stringer.
func (c Channel) String() string {
	if !c.IsValid() {
		return fmt.Sprintf("Channel(%d)", int(c))
	}
	return channelNames[c]
}

// Format is the bit layout of a channel slot.
type Format int

const (
	// FormatCompact uses a 6-bit channel ID and a 10-bit value.
	FormatCompact Format = iota
	// FormatExtended uses a 4-bit channel ID and an 11-bit value.
	FormatExtended
)

// Masks returns the channel ID mask, value mask and channel ID shift.
func (f Format) Masks() (chanID, value uint16, shift uint) {
	if f == FormatCompact {
		return 0xFC00, 0x03FF, 10
	}
	return 0x7800, 0x07FF, 11
}

// MaxValue is the largest raw sample of the format.
func (f Format) MaxValue() uint16 {
	_, mask, _ := f.Masks()
	return mask
}

// String implements fmt.Stringer.
func (f Format) String() string {
	if f == FormatCompact {
		return "1024"
	}
	return "2048"
}

// System is the protocol variant and frame rate reported by the receiver.
type System byte

// Known systems.
const (
	DSM2_22ms_1024 System = 0x01
	DSM2_11ms_2048 System = 0x12
	DSMX_22ms_2048 System = 0xa2
	DSMX_11ms_2048 System = 0xb2
)

// IsKnown checks if the system is one of the supported ones.
func (s System) IsKnown() bool {
	switch s {
	case DSM2_22ms_1024, DSM2_11ms_2048, DSMX_22ms_2048, DSMX_11ms_2048:
		return true
	}
	return false
}

// Format returns the slot layout used by the system.
func (s System) Format() Format {
	if s == DSM2_22ms_1024 {
		return FormatCompact
	}
	return FormatExtended
}

// String implements fmt.Stringer.
func (s System) String() string {
	switch s {
	case DSM2_22ms_1024:
		return "DSM2/22ms/1024"
	case DSM2_11ms_2048:
		return "DSM2/11ms/2048"
	case DSMX_22ms_2048:
		return "DSMX/22ms/2048"
	case DSMX_11ms_2048:
		return "DSMX/11ms/2048"
	}
	return fmt.Sprintf("System(0x%02x)", byte(s))
}

// BindMode selects how the receiver binds. The value is the number
// of falling pulses sent to the receiver to enter the mode.
type BindMode int

// Bind modes.
const (
	InternalDSM2_22ms BindMode = 3
	ExternalDSM2_22ms BindMode = 4
	InternalDSM2_11ms BindMode = 5
	ExternalDSM2_11ms BindMode = 6
	InternalDSMX_22ms BindMode = 7
	ExternalDSMX_22ms BindMode = 8
	InternalDSMX_11ms BindMode = 9
	ExternalDSMX_11ms BindMode = 10

	// DefaultBindMode is the recommended mode.
	DefaultBindMode = InternalDSMX_11ms
)

var bindModeNames = map[BindMode]string{
	InternalDSM2_22ms: "internal-dsm2-22ms",
	ExternalDSM2_22ms: "external-dsm2-22ms",
	InternalDSM2_11ms: "internal-dsm2-11ms",
	ExternalDSM2_11ms: "external-dsm2-11ms",
	InternalDSMX_22ms: "internal-dsmx-22ms",
	ExternalDSMX_22ms: "external-dsmx-22ms",
	InternalDSMX_11ms: "internal-dsmx-11ms",
	ExternalDSMX_11ms: "external-dsmx-11ms",
}

// IsValid checks the mode is defined.
func (m BindMode) IsValid() bool {
	return m >= InternalDSM2_22ms && m <= ExternalDSMX_11ms
}

// Pulses is the number of bind pulses.
func (m BindMode) Pulses() int {
	return int(m)
}

// Internal indicates the receiver reports its own system byte.
// Internal modes have odd pulse counts.
func (m BindMode) Internal() bool {
	return m.IsValid() && m%2 == 1
}

// System returns the system selected by the mode.
func (m BindMode) System() System {
	switch m {
	case InternalDSM2_22ms, ExternalDSM2_22ms:
		return DSM2_22ms_1024
	case InternalDSM2_11ms, ExternalDSM2_11ms:
		return DSM2_11ms_2048
	case InternalDSMX_22ms, ExternalDSMX_22ms:
		return DSMX_22ms_2048
	}
	return DSMX_11ms_2048
}

// String implements fmt.Stringer.
func (m BindMode) String() string {
	if name, ok := bindModeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("BindMode(%d)", int(m))
}

// ParseBindMode parses the name returned by BindMode.String.
func ParseBindMode(s string) (BindMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for mode, name := range bindModeNames {
		if name == s {
			return mode, nil
		}
	}
	return 0, fmt.Errorf("unknown bind mode %q", s)
}

// BindModes lists all modes in pulse order.
func BindModes() []BindMode {
	modes := make([]BindMode, 0, len(bindModeNames))
	for m := InternalDSM2_22ms; m <= ExternalDSMX_11ms; m++ {
		modes = append(modes, m)
	}
	return modes
}

// Status is the connection status.
type Status int

// Statuses
const (
	NotConnected Status = iota
	Binding
	Receiving
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case NotConnected:
		return "not-connected"
	case Binding:
		return "binding"
	case Receiving:
		return "receiving"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

package joystick

import (
	"flag"

	"github.com/robotalks/spektrum.go/pkg/spektrum"
)

// AxisMapping maps a joystick axis onto a channel. Axis values are
// normalized to [-1, 1].
type AxisMapping struct {
	Axis    int              `yaml:"axis"`
	Channel spektrum.Channel `yaml:"channel"`
	Invert  bool             `yaml:"invert"`
	// Failsafe is the value when the joystick is lost.
	Failsafe float64 `yaml:"failsafe"`
}

// ButtonMapping maps a button onto a channel which is 1 when the button
// is pressed and -1 otherwise. A toggle flips on each press.
type ButtonMapping struct {
	Button  int              `yaml:"button"`
	Channel spektrum.Channel `yaml:"channel"`
	Toggle  bool             `yaml:"toggle"`
}

// Config defines the configurations for the controller.
type Config struct {
	DeviceIndex int             `yaml:"deviceIndex"`
	Verbose     bool            `yaml:"verbose"`
	Axes        []AxisMapping   `yaml:"axes"`
	Buttons     []ButtonMapping `yaml:"buttons"`
}

var defaultConfig = Config{
	DeviceIndex: -1,
	Axes: []AxisMapping{
		{Axis: 0, Channel: spektrum.Rudder},
		{Axis: 1, Channel: spektrum.Throttle, Invert: true, Failsafe: -1},
		{Axis: 3, Channel: spektrum.Aileron},
		{Axis: 4, Channel: spektrum.Elevator, Invert: true},
	},
	Buttons: []ButtonMapping{
		{Button: 0, Channel: spektrum.Gear, Toggle: true},
		{Button: 1, Channel: spektrum.Aux1, Toggle: true},
	},
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.IntVar(&defaultConfig.DeviceIndex, "joystick", defaultConfig.DeviceIndex, "Joystick index, -1 for auto detection.")
	flag.BoolVar(&defaultConfig.Verbose, "verbose", defaultConfig.Verbose, "Print Joystick events.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// NewController creates a controller using the config.
func (c *Config) NewController(sat *spektrum.Satellite[float64], t spektrum.Transport) *Controller {
	ctl := NewController(sat, t)
	ctl.DeviceIndex = c.DeviceIndex
	ctl.Verbose = c.Verbose
	ctl.Axes = c.Axes
	ctl.Buttons = c.Buttons
	return ctl
}

package serialport

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"go.bug.st/serial"
)

// Config defines the serial settings.
type Config struct {
	Device   string `yaml:"device"`
	BaudRate int    `yaml:"baudRate"`
	Parity   string `yaml:"parity"`
	StopBits string `yaml:"stopBits"`
}

var defaultConfig = Config{
	BaudRate: DefaultBaudRate,
	Parity:   "none",
	StopBits: "one",
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Device, "serial-device", defaultConfig.Device, "Serial device of the receiver.")
	flag.IntVar(&defaultConfig.BaudRate, "serial-baud", defaultConfig.BaudRate, "Serial baud rate.")
	flag.StringVar(&defaultConfig.Parity, "serial-parity", defaultConfig.Parity, "Parity [none|odd|even|mark|space].")
	flag.StringVar(&defaultConfig.StopBits, "serial-stop-bits", defaultConfig.StopBits, "Stop bits [one|one-point-five|two].")
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

// Mode converts the settings.
func (c *Config) Mode() (*serial.Mode, error) {
	mode := DefaultMode
	if c.BaudRate > 0 {
		mode.BaudRate = c.BaudRate
	}
	switch strings.ToLower(c.Parity) {
	case "", "none":
	case "odd":
		mode.Parity = serial.OddParity
	case "even":
		mode.Parity = serial.EvenParity
	case "mark":
		mode.Parity = serial.MarkParity
	case "space":
		mode.Parity = serial.SpaceParity
	default:
		return nil, fmt.Errorf("invalid parity %q", c.Parity)
	}
	switch strings.ToLower(c.StopBits) {
	case "", "one":
	case "one-point-five":
		mode.StopBits = serial.OnePointFiveStopBits
	case "two":
		mode.StopBits = serial.TwoStopBits
	default:
		return nil, fmt.Errorf("invalid stop bits %q", c.StopBits)
	}
	return &mode, nil
}

// Open opens the configured device.
func (c *Config) Open() (*Port, error) {
	if c.Device == "" {
		return nil, fmt.Errorf("serial device not specified")
	}
	mode, err := c.Mode()
	if err != nil {
		return nil, err
	}
	return Open(c.Device, mode)
}

func init() {
	if dev := os.Getenv("SAT_DEVICE"); dev != "" {
		defaultConfig.Device = dev
	}
}

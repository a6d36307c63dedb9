package daemon

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/robotalks/spektrum.go/pkg/bind"
	"github.com/robotalks/spektrum.go/pkg/env"
	"github.com/robotalks/spektrum.go/pkg/serialport"
	"github.com/robotalks/spektrum.go/pkg/spektrum"
	"github.com/robotalks/spektrum.go/pkg/telemetry"
	"github.com/robotalks/spektrum.go/pkg/telemetry/mqtt"
	"github.com/robotalks/spektrum.go/pkg/telemetry/stream"
	"github.com/robotalks/spektrum.go/pkg/telemetry/websocket"
)

// Config defines the configurations of the daemon.
type Config struct {
	Serial     serialport.Config `yaml:"serial"`
	BindMode   string            `yaml:"bindMode"`
	ProcessAll bool              `yaml:"processAll"`
	SwapBytes  *bool             `yaml:"swapBytes"`
	LogEvery   uint64            `yaml:"logEvery"`

	// RangeMin and RangeMax set the channel value range, raw values
	// are used if equal.
	RangeMin float64 `yaml:"rangeMin"`
	RangeMax float64 `yaml:"rangeMax"`
	// Neutral is the raw neutral input, the range is split there if set.
	Neutral float64 `yaml:"neutral"`

	Interval       time.Duration `yaml:"interval"`
	Timeout        time.Duration `yaml:"timeout"`
	StatusInterval time.Duration `yaml:"statusInterval"`
	Output         bool          `yaml:"output"`

	PowerPin int `yaml:"powerPin"`
	DataPin  int `yaml:"dataPin"`

	ReceiverID string            `yaml:"receiverId"`
	MQTTURL    string            `yaml:"mqttUrl"`
	Listen     string            `yaml:"listen"`
	Record     stream.FileConfig `yaml:"record"`
	Capture    stream.FileConfig `yaml:"capture"`
}

var defaultConfig = Config{
	Serial:         *serialport.NewConfig(),
	BindMode:       spektrum.DefaultBindMode.String(),
	LogEvery:       spektrum.DefaultLogEvery,
	RangeMin:       -1,
	RangeMax:       1,
	Interval:       10 * time.Millisecond,
	Timeout:        spektrum.DefaultTimeout,
	StatusInterval: time.Second,
	PowerPin:       -1,
	DataPin:        -1,
	Record:         stream.FileConfig{MaxSizeMB: 64, MaxBackups: 4},
	Capture:        stream.FileConfig{MaxSizeMB: 64, MaxBackups: 2},
}

// SetupFlags sets command line flags.
func SetupFlags() {
	c := &defaultConfig
	flag.StringVar(&c.Serial.Device, "device", c.Serial.Device, "Serial device of the receiver.")
	flag.IntVar(&c.Serial.BaudRate, "baud", c.Serial.BaudRate, "Serial baud rate.")
	flag.StringVar(&c.BindMode, "bind-mode", c.BindMode, "Bind mode, e.g. internal-dsmx-11ms.")
	flag.BoolVar(&c.ProcessAll, "process-all", c.ProcessAll, "Decode every buffered frame instead of the latest.")
	flag.Uint64Var(&c.LogEvery, "log-every", c.LogEvery, "Log statistics every n frames, 0 to disable.")
	flag.Float64Var(&c.RangeMin, "range-min", c.RangeMin, "Minimum channel value.")
	flag.Float64Var(&c.RangeMax, "range-max", c.RangeMax, "Maximum channel value.")
	flag.Float64Var(&c.Neutral, "neutral", c.Neutral, "Raw neutral input, 0 for the middle of the range.")
	flag.DurationVar(&c.Interval, "interval", c.Interval, "Poll interval.")
	flag.DurationVar(&c.Timeout, "timeout", c.Timeout, "Connection timeout.")
	flag.DurationVar(&c.StatusInterval, "status-interval", c.StatusInterval, "Status publishing interval.")
	flag.BoolVar(&c.Output, "output", c.Output, "Send channel values to the receiver port every iteration.")
	flag.IntVar(&c.PowerPin, "power-pin", c.PowerPin, "GPIO powering the receiver, -1 if not switchable.")
	flag.IntVar(&c.DataPin, "data-pin", c.DataPin, "GPIO on the receiver data line for binding, -1 to disable.")
	flag.StringVar(&c.ReceiverID, "id", c.ReceiverID, "Receiver ID, derived from the machine ID if empty.")
	flag.StringVar(&c.MQTTURL, "mqtt", c.MQTTURL, "MQTT broker URL.")
	flag.StringVar(&c.Listen, "listen", c.Listen, "Websocket listen address.")
	flag.StringVar(&c.Record.Path, "record", c.Record.Path, "Record events to the file.")
	flag.StringVar(&c.Capture.Path, "capture", c.Capture.Path, "Capture raw serial input to the file.")
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

// LoadFile overlays the settings from a YAML file.
func (c *Config) LoadFile(fn string) error {
	f, err := os.Open(fn)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := yaml.NewDecoder(f).Decode(c); err != nil && err != io.EOF {
		return fmt.Errorf("%s: %w", fn, err)
	}
	return nil
}

// Name is the receiver name used in topics.
func (c *Config) Name() string {
	id := c.ReceiverID
	if id == "" {
		id = env.ReceiverID()
	}
	return "spektrum/" + id
}

// NewSatellite creates the receiver session.
func (c *Config) NewSatellite() (*spektrum.Satellite[float64], error) {
	mode, err := spektrum.ParseBindMode(c.BindMode)
	if err != nil {
		return nil, err
	}
	sat := spektrum.New[float64]()
	if err := sat.SetBindMode(mode); err != nil {
		return nil, err
	}
	sat.SetProcessAllData(c.ProcessAll)
	sat.LogEvery = c.LogEvery
	if c.SwapBytes != nil && *c.SwapBytes != sat.SwapBytes() {
		sat.SwitchEndianness()
	}
	switch {
	case c.RangeMin == c.RangeMax:
	case c.Neutral > 0:
		if err := sat.SetChannelValueRangeNeutral(c.Neutral, c.RangeMin, c.RangeMax); err != nil {
			return nil, fmt.Errorf("neutral %v: %w", c.Neutral, err)
		}
	default:
		if err := sat.SetChannelValueRange(c.RangeMin, c.RangeMax); err != nil {
			return nil, err
		}
	}
	return sat, nil
}

// NewSequencer creates the bind sequencer, nil if no data pin is set.
func (c *Config) NewSequencer() (*bind.Sequencer, error) {
	if c.DataPin < 0 {
		return nil, nil
	}
	data, err := bind.NewSysfsPin(c.DataPin)
	if err != nil {
		return nil, err
	}
	seq := bind.NewSequencer(nil, data)
	if c.PowerPin >= 0 {
		power, err := bind.NewSysfsPin(c.PowerPin)
		if err != nil {
			return nil, err
		}
		seq.Power = power
	}
	return seq, nil
}

// NewPublishers creates the configured publishers. Closers must be
// closed after the loop stops.
func (c *Config) NewPublishers() (*telemetry.PublisherMux, []io.Closer, error) {
	mux := &telemetry.PublisherMux{}
	var closers []io.Closer
	if c.MQTTURL != "" {
		pub, err := mqtt.NewPublisher(c.MQTTURL, c.Name(), mqtt.Meta{
			Description: "spektrum satellite receiver",
			BindMode:    c.BindMode,
		})
		if err != nil {
			return nil, nil, err
		}
		mux.Add(pub)
	}
	if c.Listen != "" {
		mux.Add(websocket.NewHub(c.Listen))
	}
	if c.Record.Path != "" {
		rec := stream.NewRecorder(stream.NewRotatingFile(c.Record))
		mux.Add(rec)
		closers = append(closers, rec)
	}
	return mux, closers, nil
}

// OpenSerial opens the receiver port, with raw capture if configured.
func (c *Config) OpenSerial() (*serialport.Port, io.Closer, error) {
	port, err := c.Serial.Open()
	if err != nil {
		return nil, nil, err
	}
	if c.Capture.Path == "" {
		return port, nil, nil
	}
	capture := stream.NewRotatingFile(c.Capture)
	port.SetTee(capture)
	return port, capture, nil
}

func init() {
	if url := os.Getenv("SAT_MQTT_URL"); url != "" {
		defaultConfig.MQTTURL = url
	}
}

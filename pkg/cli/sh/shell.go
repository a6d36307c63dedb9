package sh

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/spektrum.go/pkg/daemon"
	"github.com/robotalks/spektrum.go/pkg/serialport"
	"github.com/robotalks/spektrum.go/pkg/spektrum"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoOpen    bool

	Shell   *ishell.Shell
	Config  *daemon.Config
	Session *Session
}

// Session is an opened receiver port.
type Session struct {
	Device string
	Port   *serialport.Port
	Sat    *spektrum.Satellite[float64]
	Binder spektrum.BindSequencer

	capture io.Closer
}

// Close closes the port and the capture file.
func (s *Session) Close() error {
	err := s.Port.Close()
	if s.capture != nil {
		s.capture.Close()
	}
	return err
}

const (
	shellKey     = "$shell"
	closedPrompt = "[none] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&PortsCmd,
		&OpenCmd,
		&CloseCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *daemon.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:  ishell.New(),
		Config: conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(closedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeOpen wraps command func requires an opened port.
func MustBeOpen(fn func(c *ishell.Context, s *Session)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		sess := ShellFrom(c).Session
		if sess == nil {
			c.Err(fmt.Errorf("port not open"))
			return
		}
		fn(c, sess)
	}
}

// Print prints v as JSON in JSON mode, or the text otherwise.
func Print(c *ishell.Context, v interface{}, text string) {
	if ShellFrom(c).OutputJSON {
		out, err := json.Marshal(v)
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(string(out))
		return
	}
	c.Println(text)
}

// WithAutoOpen sets AutoOpen.
func (s *Shell) WithAutoOpen(en bool) *Shell {
	s.AutoOpen = en
	return s
}

// Open opens the receiver port, replacing the current one.
func (s *Shell) Open(device string) error {
	conf := *s.Config
	if device != "" {
		conf.Serial.Device = device
	}
	sat, err := conf.NewSatellite()
	if err != nil {
		return err
	}
	sess := &Session{Device: conf.Serial.Device, Sat: sat}
	seq, err := conf.NewSequencer()
	if err != nil {
		return err
	}
	if seq != nil {
		sess.Binder = seq
	}
	if sess.Port, sess.capture, err = conf.OpenSerial(); err != nil {
		return err
	}
	s.Close()
	s.Session = sess
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", sess.Device))
	return nil
}

// Close closes current port.
func (s *Shell) Close() {
	if s.Session != nil {
		s.Session.Close()
		s.Session = nil
		s.Shell.SetPrompt(closedPrompt)
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.AutoOpen && s.Config.Serial.Device != "" {
		if s.Interactive {
			s.Shell.Printf("Opening %s ...\n", s.Config.Serial.Device)
		}
		if err := s.Open(""); err != nil {
			log.Fatalf("open %q failed: %v", s.Config.Serial.Device, err)
		}
	}
	defer s.Close()

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

// ParseChannel accepts a channel number or name, e.g. "2" or "elevator".
func ParseChannel(str string) (spektrum.Channel, error) {
	if n, err := strconv.Atoi(str); err == nil {
		if ch := spektrum.Channel(n); ch.IsValid() {
			return ch, nil
		}
		return 0, spektrum.ErrInvalidChannel
	}
	for ch := spektrum.Throttle; ch < spektrum.MaxChannels; ch++ {
		if strings.EqualFold(ch.String(), str) {
			return ch, nil
		}
	}
	return 0, fmt.Errorf("unknown channel %q", str)
}

var (
	// PortsCmd lists serial ports.
	PortsCmd = ishell.Cmd{
		Name:    "ports",
		Aliases: []string{"list", "l"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ports, err := serialport.Ports()
			if err != nil {
				c.Err(err)
				return
			}
			if len(ports) == 0 {
				// in case ports is nil, make it empty slice.
				ports = []string{}
			}
			Print(c, ports, strings.Join(ports, "\n"))
		},
	}

	// OpenCmd opens a receiver port.
	OpenCmd = ishell.Cmd{
		Name:    "open",
		Aliases: []string{"o"},
		Help:    "[DEVICE]",
		Func: func(c *ishell.Context) {
			var device string
			if len(c.Args) > 0 {
				device = c.Args[0]
			}
			if err := ShellFrom(c).Open(device); err != nil {
				c.Err(err)
			}
		},
	}

	// CloseCmd closes current port.
	CloseCmd = ishell.Cmd{
		Name:    "close",
		Aliases: []string{"c"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Close()
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(daemon.Default()).WithAutoOpen(true).Run(flag.Args()...)
}

package satellite

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/spektrum.go/pkg/cli/sh"
	fx "github.com/robotalks/spektrum.go/pkg/framework"
	"github.com/robotalks/spektrum.go/pkg/msgs"
	"github.com/robotalks/spektrum.go/pkg/spektrum"
	"github.com/robotalks/spektrum.go/pkg/telemetry/stream"
)

// Status is the printable session status.
type Status struct {
	Status    string         `json:"status"`
	Connected bool           `json:"connected"`
	BindMode  string         `json:"bind-mode"`
	System    string         `json:"system"`
	Format    string         `json:"format"`
	SwapBytes bool           `json:"swap-bytes"`
	Fades     uint16         `json:"fades"`
	Stats     spektrum.Stats `json:"stats"`
}

// StatusOf collects the status of a session.
func StatusOf(sat *spektrum.Satellite[float64], timeout time.Duration) *Status {
	return &Status{
		Status:    sat.Status().String(),
		Connected: sat.IsConnected(timeout),
		BindMode:  sat.BindMode().String(),
		System:    sat.System().String(),
		Format:    sat.Format().String(),
		SwapBytes: sat.SwapBytes(),
		Fades:     sat.Fades(),
		Stats:     sat.Stats(),
	}
}

// String formats the status for display.
func (s *Status) String() string {
	return fmt.Sprintf("%s connected=%v mode=%s system=%s format=%s swap=%v fades=%d\n"+
		"frames=%d success=%d fail=%d sent=%d skipped=%d unknown-systems=%d",
		s.Status, s.Connected, s.BindMode, s.System, s.Format, s.SwapBytes, s.Fades,
		s.Stats.Frames, s.Stats.Success, s.Stats.Fail, s.Stats.Sent,
		s.Stats.SkippedBytes, s.Stats.UnknownSystems)
}

// FormatChannels prints one line per channel with raw and scaled values.
func FormatChannels(sat *spektrum.Satellite[float64]) (string, error) {
	vals, err := sat.ChannelValues()
	if err != nil {
		return "", err
	}
	raw := sat.RawValues()
	lines := make([]string, 0, spektrum.MaxChannels)
	for ch := spektrum.Throttle; ch < spektrum.MaxChannels; ch++ {
		lines = append(lines, fmt.Sprintf("%-8s %4d %8.3f", sat.ChannelName(ch), raw[ch], vals[ch]))
	}
	return strings.Join(lines, "\n"), nil
}

func parseFloats(args ...string) ([]float64, error) {
	vals := make([]float64, len(args))
	for n, arg := range args {
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return nil, fmt.Errorf("Invalid number %q: %v", arg, err)
		}
		vals[n] = v
	}
	return vals, nil
}

var (
	// ModeCmd shows or sets the bind mode.
	ModeCmd = ishell.Cmd{
		Name:    "mode",
		Aliases: []string{"m"},
		Help:    "[MODE]",
		Func: sh.MustBeOpen(func(c *ishell.Context, s *sh.Session) {
			if len(c.Args) == 0 {
				modes := spektrum.BindModes()
				names := make([]string, len(modes))
				for n, mode := range modes {
					names[n] = mode.String()
					if mode == s.Sat.BindMode() {
						names[n] += " *"
					}
				}
				sh.Print(c, s.Sat.BindMode().String(), strings.Join(names, "\n"))
				return
			}
			mode, err := spektrum.ParseBindMode(c.Args[0])
			if err == nil {
				err = s.Sat.SetBindMode(mode)
			}
			if err != nil {
				c.Err(err)
			}
		}),
	}

	// BindCmd sends the bind pulses of the current mode.
	BindCmd = ishell.Cmd{
		Name:    "bind",
		Aliases: []string{"b"},
		Help:    "[TIMEOUT]",
		Func: sh.MustBeOpen(func(c *ishell.Context, s *sh.Session) {
			if s.Binder == nil {
				c.Err(fmt.Errorf("no data pin configured"))
				return
			}
			timeout := 30 * time.Second
			if len(c.Args) > 0 {
				d, err := time.ParseDuration(c.Args[0])
				if err != nil {
					c.Err(fmt.Errorf("Invalid TIMEOUT: %v", err))
					return
				}
				timeout = d
			}
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			if err := s.Sat.StartBinding(ctx, s.Binder); err != nil {
				c.Err(err)
				return
			}
			c.Println("Binding, waiting for data ...")
			if err := s.Sat.WaitForData(ctx, s.Port, 10*time.Millisecond); err != nil {
				s.Sat.EndBinding()
				c.Err(err)
				return
			}
			c.Println("OK")
		}),
	}

	// StatusCmd prints the session status.
	StatusCmd = ishell.Cmd{
		Name:    "status",
		Aliases: []string{"st"},
		Help:    "",
		Func: sh.MustBeOpen(func(c *ishell.Context, s *sh.Session) {
			st := StatusOf(s.Sat, ShellTimeout(c))
			sh.Print(c, st, st.String())
		}),
	}

	// ChannelsCmd prints channel values.
	ChannelsCmd = ishell.Cmd{
		Name:    "channels",
		Aliases: []string{"ch"},
		Help:    "",
		Func: sh.MustBeOpen(func(c *ishell.Context, s *sh.Session) {
			text, err := FormatChannels(s.Sat)
			if err != nil {
				c.Err(err)
				return
			}
			vals, _ := s.Sat.ChannelValues()
			sh.Print(c, vals, text)
		}),
	}

	// RangeCmd sets the channel value range.
	RangeCmd = ishell.Cmd{
		Name:    "range",
		Aliases: []string{"r"},
		Help:    "MIN MAX",
		Func: sh.MustBeOpen(func(c *ishell.Context, s *sh.Session) {
			if len(c.Args) < 2 {
				c.Err(fmt.Errorf("MIN MAX required"))
				return
			}
			vals, err := parseFloats(c.Args[:2]...)
			if err == nil {
				err = s.Sat.SetChannelValueRange(vals[0], vals[1])
			}
			if err != nil {
				c.Err(err)
			}
		}),
	}

	// SetCmd sets channel values.
	SetCmd = ishell.Cmd{
		Name:    "set",
		Aliases: []string{"s"},
		Help:    "CHANNEL VALUE [CHANNEL VALUE]...",
		Func: sh.MustBeOpen(func(c *ishell.Context, s *sh.Session) {
			if len(c.Args) < 2 || len(c.Args)%2 != 0 {
				c.Err(fmt.Errorf("CHANNEL VALUE pairs required"))
				return
			}
			for n := 0; n < len(c.Args); n += 2 {
				ch, err := sh.ParseChannel(c.Args[n])
				if err != nil {
					c.Err(err)
					return
				}
				vals, err := parseFloats(c.Args[n+1])
				if err == nil {
					err = s.Sat.SetChannelValue(ch, vals[0])
				}
				if err != nil {
					c.Err(err)
					return
				}
			}
		}),
	}

	// SendCmd sends channel values as frames, or a text line.
	SendCmd = ishell.Cmd{
		Name:    "send",
		Aliases: []string{"tx"},
		Help:    "[text]",
		Func: sh.MustBeOpen(func(c *ishell.Context, s *sh.Session) {
			var err error
			if len(c.Args) > 0 && c.Args[0] == "text" {
				var line string
				if line, err = s.Sat.TextLine(spektrum.TextCodec{}); err == nil {
					err = s.Sat.SendText(s.Port, line)
				}
			} else {
				err = s.Sat.SendData(s.Port)
			}
			if err != nil {
				c.Err(err)
			}
		}),
	}

	// PollCmd polls the port.
	PollCmd = ishell.Cmd{
		Name:    "poll",
		Aliases: []string{"p"},
		Help:    "[COUNT] [INTERVAL]",
		Func: sh.MustBeOpen(func(c *ishell.Context, s *sh.Session) {
			count, interval := 1, 22*time.Millisecond
			if len(c.Args) > 0 {
				n, err := strconv.Atoi(c.Args[0])
				if err != nil {
					c.Err(fmt.Errorf("Invalid COUNT: %v", err))
					return
				}
				count = n
			}
			if len(c.Args) > 1 {
				d, err := time.ParseDuration(c.Args[1])
				if err != nil {
					c.Err(fmt.Errorf("Invalid INTERVAL: %v", err))
					return
				}
				interval = d
			}
			for n := 0; n < count; n++ {
				if n > 0 {
					time.Sleep(interval)
				}
				frames, err := s.Sat.Poll(s.Port)
				if err != nil && err != spektrum.ErrShortRead {
					c.Err(err)
					return
				}
				if frames == 0 {
					continue
				}
				line, err := s.Sat.TextLine(spektrum.TextCodec{})
				if err != nil {
					c.Err(err)
					return
				}
				c.Print(line)
			}
		}),
	}

	// SwapCmd switches the byte order of slots.
	SwapCmd = ishell.Cmd{
		Name: "swap",
		Help: "",
		Func: sh.MustBeOpen(func(c *ishell.Context, s *sh.Session) {
			s.Sat.SwitchEndianness()
			c.Printf("swap bytes: %v\n", s.Sat.SwapBytes())
		}),
	}

	// ReplayCmd prints the events of a recording.
	ReplayCmd = ishell.Cmd{
		Name: "replay",
		Help: "FILE",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("FILE required"))
				return
			}
			err := stream.ReplayFile(c.Args[0], func(typed *msgs.Typed, msg fx.Message) error {
				sh.Print(c, msg, fmt.Sprintf("%08x %s", typed.TypeId,
					msg.(msgs.SerializableMessage).Serializable().String()))
				return nil
			})
			if err != nil {
				c.Err(err)
			}
		},
	}
)

// ShellTimeout is the connection timeout configured for the shell.
func ShellTimeout(c *ishell.Context) time.Duration {
	return sh.ShellFrom(c).Config.Timeout
}

func init() {
	sh.AddCmds(
		&ModeCmd,
		&BindCmd,
		&StatusCmd,
		&ChannelsCmd,
		&RangeCmd,
		&SetCmd,
		&SendCmd,
		&PollCmd,
		&SwapCmd,
		&ReplayCmd,
	)
}

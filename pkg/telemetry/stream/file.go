package stream

import (
	"context"
	"io"
	"os"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"

	fx "github.com/robotalks/spektrum.go/pkg/framework"
	"github.com/robotalks/spektrum.go/pkg/msgs"
)

// FileConfig configures a rotating file.
type FileConfig struct {
	Path       string `yaml:"path"`
	MaxSizeMB  int    `yaml:"maxSizeMB"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
	MaxBackups int    `yaml:"maxBackups"`
	Compress   bool   `yaml:"compress"`
}

// NewRotatingFile creates a file which is rotated once it grows
// beyond MaxSizeMB.
func NewRotatingFile(conf FileConfig) io.WriteCloser {
	return &lumberjack.Logger{
		Filename:   conf.Path,
		MaxSize:    conf.MaxSizeMB,
		MaxAge:     conf.MaxAgeDays,
		MaxBackups: conf.MaxBackups,
		Compress:   conf.Compress,
	}
}

// Recorder writes published events to a stream.
type Recorder struct {
	w    io.WriteCloser
	rw   *ReadWriter
	lock sync.Mutex
}

// NewRecorder creates a Recorder on w.
func NewRecorder(w io.WriteCloser) *Recorder {
	return &Recorder{w: w, rw: New(struct {
		io.Reader
		io.Writer
	}{Writer: w})}
}

// Publish implements telemetry.Publisher.
func (r *Recorder) Publish(ctx context.Context, msg fx.Message) error {
	typed, err := msgs.TypedFrom(msg)
	if err != nil {
		return err
	}
	pkt, err := typed.Encode()
	if err != nil {
		return err
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.rw.WritePacket(pkt)
}

// Close implements io.Closer.
func (r *Recorder) Close() error {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.w.Close()
}

// Replay reads recorded messages and calls fn for each until the
// end of the stream.
func Replay(r io.Reader, fn func(*msgs.Typed, fx.Message) error) error {
	rw := New(struct {
		io.Reader
		io.Writer
	}{Reader: r})
	for {
		pkt, err := rw.ReadPacket()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		typed, err := msgs.DecodeTyped(pkt)
		if err != nil {
			return err
		}
		msg, err := typed.Decode()
		if err != nil {
			return err
		}
		if err = fn(typed, msg); err != nil {
			return err
		}
	}
}

// ReplayFile replays a recorded file.
func ReplayFile(fn string, handler func(*msgs.Typed, fx.Message) error) error {
	f, err := os.Open(fn)
	if err != nil {
		return err
	}
	defer f.Close()
	return Replay(f, handler)
}

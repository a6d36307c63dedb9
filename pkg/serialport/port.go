// Package serialport provides a spektrum.Transport over a UART.
package serialport

import (
	"bytes"
	"errors"
	"io"
	"sync"

	"github.com/golang/glog"
	"go.bug.st/serial"
)

// DefaultBaudRate is the rate of satellite receivers.
const DefaultBaudRate = 125000

// DefaultMode is 125000 8N1.
var DefaultMode = serial.Mode{
	BaudRate: DefaultBaudRate,
	DataBits: 8,
	Parity:   serial.NoParity,
	StopBits: serial.OneStopBit,
}

const readSize = 256

// DefaultMaxBuffered bounds the received bytes nobody reads, it holds
// 256 frames.
const DefaultMaxBuffered = 4096

// ErrClosed is returned after the port is closed.
var ErrClosed = errors.New("port closed")

// Drainer waits until all written bytes are transmitted.
type Drainer interface {
	Drain() error
}

// Port buffers the bytes received on a connection, so the number
// of readable bytes is known without blocking.
type Port struct {
	conn io.ReadWriteCloser
	tee  io.Writer
	buf  bytes.Buffer
	max  int
	err  error
	lock sync.Mutex
	cond *sync.Cond
	done chan struct{}
}

// Open opens a serial device.
func Open(device string, mode *serial.Mode) (*Port, error) {
	if mode == nil {
		m := DefaultMode
		mode = &m
	}
	conn, err := serial.Open(device, mode)
	if err != nil {
		return nil, err
	}
	glog.Infof("serial %s opened at %d baud", device, mode.BaudRate)
	return New(conn), nil
}

// New starts buffering the connection.
func New(conn io.ReadWriteCloser) *Port {
	p := &Port{conn: conn, max: DefaultMaxBuffered, done: make(chan struct{})}
	p.cond = sync.NewCond(&p.lock)
	go p.receive()
	return p
}

func (p *Port) receive() {
	defer close(p.done)
	b := make([]byte, readSize)
	for {
		n, err := p.conn.Read(b)
		p.lock.Lock()
		if n > 0 {
			p.buf.Write(b[:n])
			if over := p.buf.Len() - p.max; over > 0 {
				// stale input is dropped first.
				p.buf.Next(over)
				glog.V(2).Infof("serial buffer full, dropped %d bytes", over)
			}
			if p.tee != nil {
				if _, e := p.tee.Write(b[:n]); e != nil {
					glog.Warningf("serial tee: %v", e)
				}
			}
		}
		if err != nil {
			p.err = err
		}
		p.cond.Broadcast()
		p.lock.Unlock()
		if err != nil {
			glog.V(1).Infof("serial receiver stopped: %v", err)
			return
		}
	}
}

// SetMaxBuffered sets the number of received bytes kept, the oldest
// bytes are dropped beyond it.
func (p *Port) SetMaxBuffered(max int) {
	p.lock.Lock()
	p.max = max
	p.lock.Unlock()
}

// SetTee sets a writer receiving a copy of every received byte.
func (p *Port) SetTee(w io.Writer) {
	p.lock.Lock()
	p.tee = w
	p.lock.Unlock()
}

// Available implements spektrum.Transport. The receive error is
// returned once buffered bytes are consumed.
func (p *Port) Available() (int, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	if n := p.buf.Len(); n > 0 || p.err == nil {
		return n, nil
	}
	return 0, p.err
}

// Read blocks until bytes are buffered.
func (p *Port) Read(b []byte) (int, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	for p.buf.Len() == 0 {
		if p.err != nil {
			return 0, p.err
		}
		p.cond.Wait()
	}
	return p.buf.Read(b)
}

// Write implements io.Writer.
func (p *Port) Write(b []byte) (int, error) {
	return p.conn.Write(b)
}

// Flush drains the output if the connection supports it.
func (p *Port) Flush() error {
	if d, ok := p.conn.(Drainer); ok {
		return d.Drain()
	}
	return nil
}

// Reset discards the buffered input.
func (p *Port) Reset() {
	p.lock.Lock()
	p.buf.Reset()
	p.lock.Unlock()
}

// Close closes the connection and waits for the receiver to stop.
func (p *Port) Close() error {
	err := p.conn.Close()
	<-p.done
	return err
}

// Ports lists the serial devices.
func Ports() ([]string, error) {
	return serial.GetPortsList()
}

package serialport

import (
	"bytes"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
)

type drainConn struct {
	net.Conn
	drained int
}

func (c *drainConn) Drain() error {
	c.drained++
	return nil
}

func TestPortBuffersInput(t *testing.T) {
	local, remote := net.Pipe()
	p := New(local)
	var tee bytes.Buffer
	p.SetTee(&tee)

	frame := bytes.Repeat([]byte{0xa5}, 16)
	go remote.Write(frame)
	b := make([]byte, 16)
	_, err := io.ReadFull(p, b)
	require.NoError(t, err)
	require.Equal(t, frame, b)
	n, err := p.Available()
	require.NoError(t, err)
	require.Zero(t, n)

	out := make(chan []byte)
	go func() {
		b := make([]byte, 3)
		io.ReadFull(remote, b)
		out <- b
	}()
	n, err = p.Write([]byte{1, 2, 3})
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Equal(t, []byte{1, 2, 3}, <-out)
	require.NoError(t, p.Flush())

	require.NoError(t, p.Close())
	_, err = p.Available()
	require.Equal(t, io.ErrClosedPipe, err)
	_, err = p.Read(b)
	require.Equal(t, io.ErrClosedPipe, err)
	require.Equal(t, frame, tee.Bytes())
	remote.Close()
}

func TestPortDropsOldestBytes(t *testing.T) {
	local, remote := net.Pipe()
	p := New(local)
	p.SetMaxBuffered(32)

	in := make([]byte, 40)
	for n := range in {
		in[n] = byte(n)
	}
	_, err := remote.Write(in)
	require.NoError(t, err)

	deadline := time.Now().Add(time.Second)
	n, err := p.Available()
	for ; n != 32 && err == nil && time.Now().Before(deadline); n, err = p.Available() {
		time.Sleep(time.Millisecond)
	}
	require.NoError(t, err)
	require.Equal(t, 32, n)
	b := make([]byte, 32)
	_, err = io.ReadFull(p, b)
	require.NoError(t, err)
	require.Equal(t, in[8:], b)

	remote.Close()
	require.NoError(t, p.Close())
}

func TestPortFlushDrains(t *testing.T) {
	local, remote := net.Pipe()
	conn := &drainConn{Conn: local}
	p := New(conn)
	require.NoError(t, p.Flush())
	require.Equal(t, 1, conn.drained)
	remote.Close()
	require.NoError(t, p.Close())
}

func TestConfigMode(t *testing.T) {
	conf := NewConfig()
	mode, err := conf.Mode()
	require.NoError(t, err)
	require.Equal(t, DefaultMode, *mode)
	require.Equal(t, 125000, mode.BaudRate)

	conf.BaudRate = 115200
	conf.Parity = "Even"
	conf.StopBits = "two"
	mode, err = conf.Mode()
	require.NoError(t, err)
	require.Equal(t, serial.Mode{BaudRate: 115200, DataBits: 8, Parity: serial.EvenParity, StopBits: serial.TwoStopBits}, *mode)

	conf.Parity = "bogus"
	_, err = conf.Mode()
	require.Error(t, err)

	conf = NewConfig()
	conf.Device = ""
	_, err = conf.Open()
	require.Error(t, err)
}

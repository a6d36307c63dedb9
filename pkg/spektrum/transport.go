package spektrum

import (
	"bytes"
	"context"
	"io"
	"sync"
)

// Transport is the byte link to the receiver.
type Transport interface {
	io.ReadWriter
	// Available returns the number of bytes which can be read without blocking.
	Available() (int, error)
	// Flush waits until written bytes are transmitted.
	Flush() error
}

// BindSequencer drives the bind pulses on the receiver lines.
type BindSequencer interface {
	Bind(ctx context.Context, pulses int) error
}

// BufferTransport is an in-memory Transport. Bytes injected with
// Inject are read back, written bytes are collected in Written.
type BufferTransport struct {
	in      bytes.Buffer
	written bytes.Buffer
	lock    sync.Mutex
}

// NewBufferTransport creates a BufferTransport with initial input.
func NewBufferTransport(in []byte) *BufferTransport {
	t := &BufferTransport{}
	t.in.Write(in)
	return t
}

// Inject appends bytes to be read.
func (t *BufferTransport) Inject(p []byte) {
	t.lock.Lock()
	t.in.Write(p)
	t.lock.Unlock()
}

// Available implements Transport.
func (t *BufferTransport) Available() (int, error) {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.in.Len(), nil
}

// Read implements io.Reader.
func (t *BufferTransport) Read(p []byte) (int, error) {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.in.Read(p)
}

// Write implements io.Writer.
func (t *BufferTransport) Write(p []byte) (int, error) {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.written.Write(p)
}

// Flush implements Transport.
func (t *BufferTransport) Flush() error {
	return nil
}

// Written returns and clears the written bytes.
func (t *BufferTransport) Written() []byte {
	t.lock.Lock()
	defer t.lock.Unlock()
	b := append([]byte(nil), t.written.Bytes()...)
	t.written.Reset()
	return b
}

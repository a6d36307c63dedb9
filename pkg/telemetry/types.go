// Package telemetry carries receiver events to remote peers and
// commands back into the control loop.
package telemetry

import (
	"context"

	fx "github.com/robotalks/spektrum.go/pkg/framework"
)

// PacketReader reads whole packets.
type PacketReader interface {
	ReadPacket() ([]byte, error)
}

// PacketWriter writes whole packets.
type PacketWriter interface {
	WritePacket([]byte) error
}

// PacketReadWriter reads and writes packets.
type PacketReadWriter interface {
	PacketReader
	PacketWriter
}

// Publisher sends events to peers.
type Publisher interface {
	Publish(context.Context, fx.Message) error
}

// Command is a received command waiting for its reply.
type Command interface {
	Msg() fx.Message
	Done(reply fx.Message) error
}

// CommandMsg posts a Command to the loop.
type CommandMsg struct {
	Command Command
}

// NewMessage implements Message.
func (m *CommandMsg) NewMessage() fx.Message { return &CommandMsg{} }

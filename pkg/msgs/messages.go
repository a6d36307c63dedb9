package msgs

import (
	"github.com/golang/protobuf/proto"

	fx "github.com/robotalks/spektrum.go/pkg/framework"
)

// Type IDs
const (
	CommandOKTypeID  uint32 = TypeIDMaskReply | 0x0000
	CommandErrTypeID uint32 = TypeIDMaskReply | 0x0001

	ChannelFrameTypeID   uint32 = GroupReceiver | TypeIDKindEvent | 0x0001
	ReceiverStatusTypeID uint32 = GroupReceiver | TypeIDKindEvent | 0x0002
	SetChannelsTypeID    uint32 = GroupReceiver | 0x0001
	BindTypeID           uint32 = GroupReceiver | 0x0002
)

// CommandOK is the reply of a successful command.
type CommandOK struct {
}

// NewMessage implements Message.
func (m *CommandOK) NewMessage() fx.Message { return &CommandOK{} }

// TypeID implements SerializableMessage.
func (m *CommandOK) TypeID() uint32 { return CommandOKTypeID }

// Serializable implements SerializableMessage.
func (m *CommandOK) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *CommandOK) ProtoMessage() {}

// Reset implements proto.Message.
func (m *CommandOK) Reset() { *m = CommandOK{} }

// String implements proto.Message.
func (m *CommandOK) String() string { return proto.CompactTextString(m) }

// CommandErr is the reply of a failed command.
type CommandErr struct {
	Message string `protobuf:"bytes,1,opt,name=message,proto3" json:"message,omitempty"`
}

// NewCommandErr creates a CommandErr from an error.
func NewCommandErr(err error) *CommandErr {
	return &CommandErr{Message: err.Error()}
}

// NewMessage implements Message.
func (m *CommandErr) NewMessage() fx.Message { return &CommandErr{} }

// TypeID implements SerializableMessage.
func (m *CommandErr) TypeID() uint32 { return CommandErrTypeID }

// Serializable implements SerializableMessage.
func (m *CommandErr) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *CommandErr) ProtoMessage() {}

// Reset implements proto.Message.
func (m *CommandErr) Reset() { *m = CommandErr{} }

// String implements proto.Message.
func (m *CommandErr) String() string { return proto.CompactTextString(m) }

// Error implements error.
func (m *CommandErr) Error() string { return m.Message }

// ChannelFrame is the event of a decoded frame.
type ChannelFrame struct {
	System uint32    `protobuf:"varint,1,opt,name=system,proto3" json:"system,omitempty"`
	Fades  uint32    `protobuf:"varint,2,opt,name=fades,proto3" json:"fades,omitempty"`
	Raw    []uint32  `protobuf:"varint,3,rep,packed,name=raw,proto3" json:"raw,omitempty"`
	Values []float64 `protobuf:"fixed64,4,rep,packed,name=values,proto3" json:"values,omitempty"`
	// Timestamp is in unix nanoseconds.
	Timestamp int64 `protobuf:"varint,5,opt,name=timestamp,proto3" json:"timestamp,omitempty"`
}

// NewMessage implements Message.
func (m *ChannelFrame) NewMessage() fx.Message { return &ChannelFrame{} }

// TypeID implements SerializableMessage.
func (m *ChannelFrame) TypeID() uint32 { return ChannelFrameTypeID }

// Serializable implements SerializableMessage.
func (m *ChannelFrame) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *ChannelFrame) ProtoMessage() {}

// Reset implements proto.Message.
func (m *ChannelFrame) Reset() { *m = ChannelFrame{} }

// String implements proto.Message.
func (m *ChannelFrame) String() string { return proto.CompactTextString(m) }

// ReceiverStatus is the event of the connection status and counters.
type ReceiverStatus struct {
	Status         string `protobuf:"bytes,1,opt,name=status,proto3" json:"status,omitempty"`
	Connected      bool   `protobuf:"varint,2,opt,name=connected,proto3" json:"connected,omitempty"`
	System         uint32 `protobuf:"varint,3,opt,name=system,proto3" json:"system,omitempty"`
	BindMode       string `protobuf:"bytes,4,opt,name=bind_mode,json=bindMode,proto3" json:"bind_mode,omitempty"`
	Frames         uint64 `protobuf:"varint,5,opt,name=frames,proto3" json:"frames,omitempty"`
	Success        uint64 `protobuf:"varint,6,opt,name=success,proto3" json:"success,omitempty"`
	Fail           uint64 `protobuf:"varint,7,opt,name=fail,proto3" json:"fail,omitempty"`
	Sent           uint64 `protobuf:"varint,8,opt,name=sent,proto3" json:"sent,omitempty"`
	UnknownSystems uint64 `protobuf:"varint,9,opt,name=unknown_systems,json=unknownSystems,proto3" json:"unknown_systems,omitempty"`
}

// NewMessage implements Message.
func (m *ReceiverStatus) NewMessage() fx.Message { return &ReceiverStatus{} }

// TypeID implements SerializableMessage.
func (m *ReceiverStatus) TypeID() uint32 { return ReceiverStatusTypeID }

// Serializable implements SerializableMessage.
func (m *ReceiverStatus) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *ReceiverStatus) ProtoMessage() {}

// Reset implements proto.Message.
func (m *ReceiverStatus) Reset() { *m = ReceiverStatus{} }

// String implements proto.Message.
func (m *ReceiverStatus) String() string { return proto.CompactTextString(m) }

// SetChannels sets channel values and optionally sends them.
// Channels and Values are paired by index.
type SetChannels struct {
	Channels []uint32  `protobuf:"varint,1,rep,packed,name=channels,proto3" json:"channels,omitempty"`
	Values   []float64 `protobuf:"fixed64,2,rep,packed,name=values,proto3" json:"values,omitempty"`
	Send     bool      `protobuf:"varint,3,opt,name=send,proto3" json:"send,omitempty"`
}

// NewMessage implements Message.
func (m *SetChannels) NewMessage() fx.Message { return &SetChannels{} }

// TypeID implements SerializableMessage.
func (m *SetChannels) TypeID() uint32 { return SetChannelsTypeID }

// Serializable implements SerializableMessage.
func (m *SetChannels) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *SetChannels) ProtoMessage() {}

// Reset implements proto.Message.
func (m *SetChannels) Reset() { *m = SetChannels{} }

// String implements proto.Message.
func (m *SetChannels) String() string { return proto.CompactTextString(m) }

// Bind puts the receiver into a bind mode, the current mode if empty.
type Bind struct {
	Mode string `protobuf:"bytes,1,opt,name=mode,proto3" json:"mode,omitempty"`
}

// NewMessage implements Message.
func (m *Bind) NewMessage() fx.Message { return &Bind{} }

// TypeID implements SerializableMessage.
func (m *Bind) TypeID() uint32 { return BindTypeID }

// Serializable implements SerializableMessage.
func (m *Bind) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *Bind) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Bind) Reset() { *m = Bind{} }

// String implements proto.Message.
func (m *Bind) String() string { return proto.CompactTextString(m) }

func init() {
	Register(
		(*CommandOK)(nil),
		(*CommandErr)(nil),
		(*ChannelFrame)(nil),
		(*ReceiverStatus)(nil),
		(*SetChannels)(nil),
		(*Bind)(nil),
	)
}

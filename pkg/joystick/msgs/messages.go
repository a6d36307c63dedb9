package msgs

import (
	"github.com/golang/protobuf/proto"

	fx "github.com/robotalks/spektrum.go/pkg/framework"
	"github.com/robotalks/spektrum.go/pkg/msgs"
)

// JoystickStatus is an Event message reflect Joystick status.
type JoystickStatus struct {
	Device *JoystickDevice `protobuf:"bytes,1,opt,name=device,proto3" json:"device,omitempty"`
	// Port is the serial device frames are sent to.
	Port string `protobuf:"bytes,2,opt,name=port,proto3" json:"port,omitempty"`
	Sent uint64 `protobuf:"varint,3,opt,name=sent,proto3" json:"sent,omitempty"`
}

// NewMessage implements Message.
func (m *JoystickStatus) NewMessage() fx.Message { return &JoystickStatus{} }

// TypeID implements SerializableMessage.
func (m *JoystickStatus) TypeID() uint32 { return JoystickStatusEventTypeID }

// Serializable implements SerializableMessage.
func (m *JoystickStatus) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *JoystickStatus) ProtoMessage() {}

// Reset implements proto.Message.
func (m *JoystickStatus) Reset() { *m = JoystickStatus{} }

// String implements proto.Message.
func (m *JoystickStatus) String() string { return proto.CompactTextString(m) }

// JoystickDevice provides information of joystick device.
type JoystickDevice struct {
	Index uint32 `protobuf:"varint,1,opt,name=index,proto3" json:"index,omitempty"`
	Name  string `protobuf:"bytes,2,opt,name=name,proto3" json:"name,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *JoystickDevice) ProtoMessage() {}

// Reset implements proto.Message.
func (m *JoystickDevice) Reset() { *m = JoystickDevice{} }

// String implements proto.Message.
func (m *JoystickDevice) String() string { return proto.CompactTextString(m) }

// GroupJoystick defines the joystick group.
const GroupJoystick uint32 = 0x00020000

// TypeIDs
const (
	JoystickStatusEventTypeID uint32 = GroupJoystick | msgs.TypeIDKindEvent | 0x0000
)

func init() {
	msgs.Register((*JoystickStatus)(nil))
}

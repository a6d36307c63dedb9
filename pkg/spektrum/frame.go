package spektrum

import (
	"encoding/binary"
	"io"
)

// Frame layout
const (
	// FrameSize is the size of a frame on the wire.
	FrameSize = 16
	// HeaderSize is the size of the frame header.
	HeaderSize = 2
	// SlotCount is the number of channel slots in a frame.
	SlotCount = (FrameSize - HeaderSize) / 2

	// unusedSlot decodes to an out-of-range channel in both formats.
	unusedSlot uint16 = 0xffff
)

// hostSwapsBytes is true when a native 16-bit read differs from the
// big-endian wire order.
var hostSwapsBytes = binary.NativeEndian.Uint16([]byte{0, 1}) != 1

// Header is the frame header.
type Header struct {
	Fades uint16
	// System is only present on internal bind modes.
	System    System
	HasSystem bool
}

// Sample is a raw value of a channel.
type Sample struct {
	Channel Channel
	Value   uint16
}

// Frame is a decoded frame.
type Frame struct {
	Header
	Samples []Sample
}

// Codec decodes and encodes frames.
type Codec struct {
	Format   Format
	Internal bool
	// SwapBytes swaps each slot after a native 16-bit read, which
	// is needed to get the big-endian wire order on little-endian hosts.
	SwapBytes bool
}

// NewCodec creates a Codec with byte swapping set for the host.
func NewCodec(format Format, internal bool) Codec {
	return Codec{Format: format, Internal: internal, SwapBytes: hostSwapsBytes}
}

func (c Codec) readSlot(b []byte) uint16 {
	v := binary.NativeEndian.Uint16(b)
	if c.SwapBytes {
		v = v<<8 | v>>8
	}
	return v
}

func (c Codec) writeSlot(b []byte, v uint16) {
	if c.SwapBytes {
		v = v<<8 | v>>8
	}
	binary.NativeEndian.PutUint16(b, v)
}

// Decode decodes a frame from the first FrameSize bytes.
// Slots with an out-of-range channel are dropped, Decode only fails
// with ErrShortBuffer.
func (c Codec) Decode(b []byte) (f Frame, err error) {
	if len(b) < FrameSize {
		return f, ErrShortBuffer
	}
	if c.Internal {
		f.Fades = uint16(b[0])
		f.System, f.HasSystem = System(b[1]), true
	} else {
		f.Fades = binary.BigEndian.Uint16(b[0:HeaderSize])
	}
	chanMask, valueMask, shift := c.Format.Masks()
	f.Samples = make([]Sample, 0, SlotCount)
	for i := 0; i < SlotCount; i++ {
		off := HeaderSize + i*2
		slot := c.readSlot(b[off : off+2])
		ch := Channel((slot & chanMask) >> shift)
		if !ch.IsValid() {
			continue
		}
		f.Samples = append(f.Samples, Sample{Channel: ch, Value: slot & valueMask})
	}
	return
}

// Encode encodes a frame. At most SlotCount samples are packed, the
// remaining ones are ignored, so are samples with invalid channels.
// Unused slots are filled with a value no decoder accepts.
func (c Codec) Encode(f Frame) (b [FrameSize]byte) {
	if c.Internal {
		b[0], b[1] = byte(f.Fades), byte(f.System)
	} else {
		binary.BigEndian.PutUint16(b[0:HeaderSize], f.Fades)
	}
	_, valueMask, shift := c.Format.Masks()
	n := 0
	for _, s := range f.Samples {
		if n >= SlotCount {
			break
		}
		if !s.Channel.IsValid() {
			continue
		}
		off := HeaderSize + n*2
		c.writeSlot(b[off:off+2], uint16(s.Channel)<<shift|s.Value&valueMask)
		n++
	}
	for ; n < SlotCount; n++ {
		off := HeaderSize + n*2
		c.writeSlot(b[off:off+2], unusedSlot)
	}
	return
}

// WriteTo encodes the frame and writes it.
func (c Codec) WriteTo(w io.Writer, f Frame) (int, error) {
	b := c.Encode(f)
	return w.Write(b[:])
}

package spektrum

import (
	"errors"
	"fmt"
)

var (
	// ErrShortBuffer indicates fewer bytes than a frame were given to Decode.
	ErrShortBuffer = errors.New("short buffer")
	// ErrShortRead indicates the transport delivered less than a full frame.
	// The frame is dropped, it's not fatal.
	ErrShortRead = errors.New("short read")
	// ErrInvalidChannel indicates a channel outside the logical slots.
	ErrInvalidChannel = errors.New("invalid channel")
)

// UnknownSystemError is reported when the receiver announces a system
// which is not supported. The previous system is kept.
type UnknownSystemError struct {
	System System
	Kept   System
}

// Error implements error.
func (e *UnknownSystemError) Error() string {
	return fmt.Sprintf("unknown system 0x%02x, keeping %s", byte(e.System), e.Kept)
}

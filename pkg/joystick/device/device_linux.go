//go:build linux

package device

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"syscall"
	"unsafe"
)

type device struct {
	file        *os.File
	index       int
	name        string
	axisCount   uint8
	buttonCount uint8
}

// Path is the device file of a joystick.
func Path(index int) string {
	return fmt.Sprintf("/dev/input/js%d", index)
}

// Open opens the device with specified index.
func Open(index int) (Device, error) {
	f, err := os.OpenFile(Path(index), os.O_RDONLY, 0666)
	if err != nil {
		return nil, err
	}
	d := &device{file: f, index: index}

	var name [256]byte
	for _, req := range []struct {
		code uint
		ptr  unsafe.Pointer
	}{
		{iocGAXES, unsafe.Pointer(&d.axisCount)},
		{iocGBUTTONS, unsafe.Pointer(&d.buttonCount)},
		{iocGNAME, unsafe.Pointer(&name)},
	} {
		if errno := d.ioctl(req.code, req.ptr); errno != 0 {
			d.file.Close()
			return nil, fmt.Errorf("%s: %w", Path(index), errno)
		}
	}
	if pos := bytes.IndexByte(name[:], 0); pos >= 0 {
		d.name = string(name[:pos])
	} else {
		d.name = string(name[:])
	}
	return d, nil
}

// DetectAndOpen opens the first available device from startIndex,
// nil if there's none.
func DetectAndOpen(startIndex int) (Device, error) {
	for index := startIndex; index < 256; index++ {
		d, err := Open(index)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		return d, nil
	}
	return nil, nil
}

func (d *device) Close() error     { return d.file.Close() }
func (d *device) Index() int       { return d.index }
func (d *device) Name() string     { return d.name }
func (d *device) AxisCount() int   { return int(d.axisCount) }
func (d *device) ButtonCount() int { return int(d.buttonCount) }

// ReadEvent implements Device. Unknown event types are skipped.
func (d *device) ReadEvent() (Event, error) {
	var buf [8]byte
	for {
		if _, err := io.ReadFull(d.file, buf[:]); err != nil {
			return nil, err
		}
		if ev := decodeEvent(buf); ev != nil {
			return ev, nil
		}
	}
}

// decodeEvent parses struct js_event: time u32, value s16, type u8, number u8.
func decodeEvent(buf [8]byte) Event {
	value := int(int16(binary.LittleEndian.Uint16(buf[4:6])))
	typ, num := buf[6], int(buf[7])
	base := event{index: num, init: typ&evINIT != 0}
	switch typ &^ evINIT {
	case evBTN:
		return buttonEvent{event: base, pressed: value != 0}
	case evAXIS:
		return axisEvent{event: base, value: value}
	}
	return nil
}

const (
	iocGAXES    uint = 0x80016a11
	iocGBUTTONS uint = 0x80016a12
	iocGNAME    uint = 0x81006a13

	evINIT uint8 = 0x80
	evBTN  uint8 = 0x01
	evAXIS uint8 = 0x02
)

func (d *device) ioctl(req uint, ptr unsafe.Pointer) syscall.Errno {
	_, _, err := syscall.Syscall(syscall.SYS_IOCTL, d.file.Fd(), uintptr(req), uintptr(ptr))
	return err
}

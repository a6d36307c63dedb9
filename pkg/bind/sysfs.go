package bind

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// DefaultSysfsRoot is where the kernel exposes legacy GPIO lines.
const DefaultSysfsRoot = "/sys/class/gpio"

// SysfsPin is a GPIO line driven through the sysfs interface.
type SysfsPin struct {
	Root string
	Num  int
}

// NewSysfsPin exports the line if needed.
func NewSysfsPin(num int) (*SysfsPin, error) {
	p := &SysfsPin{Root: DefaultSysfsRoot, Num: num}
	return p, p.Export()
}

func (p *SysfsPin) dir() string {
	return filepath.Join(p.Root, "gpio"+strconv.Itoa(p.Num))
}

// Export makes the line available.
func (p *SysfsPin) Export() error {
	if _, err := os.Stat(p.dir()); err == nil {
		return nil
	}
	if err := p.write(filepath.Join(p.Root, "export"), strconv.Itoa(p.Num)); err != nil {
		return err
	}
	// udev may need a moment to fix the permissions
	for n := 0; n < 10; n++ {
		if _, err := os.Stat(filepath.Join(p.dir(), "direction")); err == nil {
			return nil
		}
		time.Sleep(10 * time.Millisecond)
	}
	return fmt.Errorf("gpio %d not exported", p.Num)
}

// Out implements Pin.
func (p *SysfsPin) Out(high bool) error {
	dir := "low"
	if high {
		dir = "high"
	}
	return p.write(filepath.Join(p.dir(), "direction"), dir)
}

// In implements Pin.
func (p *SysfsPin) In() error {
	return p.write(filepath.Join(p.dir(), "direction"), "in")
}

func (p *SysfsPin) write(fn, val string) error {
	if err := os.WriteFile(fn, []byte(val), 0644); err != nil {
		return fmt.Errorf("gpio %d: %w", p.Num, err)
	}
	return nil
}

package regmap

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BertoldVdb/twi-tools/twi"
)

// Layout gives the data-space addresses of the TWI registers on one MCU
// family.
type Layout struct {
	Name string

	BaudRate int
	Status   int
	Data     int
	Control  int
}

var (
	LayoutATmega328P = Layout{Name: "atmega328p", BaudRate: 0xB8, Status: 0xB9, Data: 0xBB, Control: 0xBC}
	LayoutATmega16   = Layout{Name: "atmega16", BaudRate: 0x20, Status: 0x21, Data: 0x23, Control: 0x56}
)

var ErrorUnknownLayout = errors.New("Unknown register layout")

func Layouts() []Layout {
	return []Layout{LayoutATmega328P, LayoutATmega16}
}

func LayoutByName(name string) (Layout, error) {
	for _, m := range Layouts() {
		if strings.EqualFold(m.Name, name) {
			return m, nil
		}
	}
	return Layout{}, fmt.Errorf("%w: %s", ErrorUnknownLayout, name)
}

func (l Layout) Address(reg twi.Register) int {
	switch reg {
	case twi.RegControl:
		return l.Control
	case twi.RegStatus:
		return l.Status
	case twi.RegData:
		return l.Data
	case twi.RegBaudRate:
		return l.BaudRate
	}
	return -1
}

// Register is the inverse of Address.
func (l Layout) Register(addr int) (twi.Register, bool) {
	for _, reg := range []twi.Register{twi.RegControl, twi.RegStatus, twi.RegData, twi.RegBaudRate} {
		if l.Address(reg) == addr {
			return reg, true
		}
	}
	return 0, false
}

// Span returns the lowest register address and the size of the block
// covering all four registers.
func (l Layout) Span() (int, int) {
	low, high := l.Control, l.Control
	for _, m := range []int{l.Status, l.Data, l.BaudRate} {
		if m < low {
			low = m
		}
		if m > high {
			high = m
		}
	}
	return low, high - low + 1
}

// Window implements twi.Registers on top of a memory region holding the
// target's data space. The first access error is kept and returned by Err;
// from then on reads return zero and writes are dropped until ClearErr.
type Window struct {
	region MemoryRegion
	layout Layout
	err    error
}

func NewWindow(region MemoryRegion, layout Layout) *Window {
	return &Window{
		region: region,
		layout: layout,
	}
}

func (w *Window) ReadRegister(reg twi.Register) byte {
	if w.err != nil {
		return 0
	}

	value, err := ReadByte(w.region, w.layout.Address(reg))
	if err != nil {
		w.err = fmt.Errorf("read %s: %w", reg, err)
		return 0
	}
	return value
}

func (w *Window) WriteRegister(reg twi.Register, value byte) {
	if w.err != nil {
		return
	}

	if err := WriteByte(w.region, w.layout.Address(reg), value); err != nil {
		w.err = fmt.Errorf("write %s: %w", reg, err)
	}
}

func (w *Window) Err() error {
	return w.err
}

func (w *Window) ClearErr() {
	w.err = nil
}

func (w *Window) Layout() Layout {
	return w.layout
}

// registerRegion exposes a register set as a data-space region, so a
// simulated controller can be inspected like a remote one.
type registerRegion struct {
	regs   twi.Registers
	layout Layout
	name   RegionName
	length int
}

// NewRegisterRegion maps regs into a region of length bytes at the addresses
// given by layout. Other addresses read as zero and ignore writes.
func NewRegisterRegion(name RegionName, regs twi.Registers, layout Layout, length int) MemoryRegion {
	return registerRegion{
		regs:   regs,
		layout: layout,
		name:   name,
		length: length,
	}
}

func (r registerRegion) GetName() RegionName {
	return r.name
}

func (r registerRegion) GetLength() int {
	return r.length
}

func (r registerRegion) GetParent() (MemoryRegion, int) {
	return nil, 0
}

func (r registerRegion) GetAlignment() int {
	return 1
}

func (r registerRegion) Access(write bool, addr int, buf []byte) (int, error) {
	if addr >= r.length {
		return 0, nil
	}
	if addr+len(buf) > r.length {
		buf = buf[:r.length-addr]
	}

	for i := range buf {
		reg, ok := r.layout.Register(addr + i)
		switch {
		case !ok && !write:
			buf[i] = 0
		case !ok:
		case write:
			r.regs.WriteRegister(reg, buf[i])
		default:
			buf[i] = r.regs.ReadRegister(reg)
		}
	}

	return len(buf), nil
}

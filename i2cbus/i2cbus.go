// Package i2cbus presents a twi.Bus as the I2C interface used by the
// tinygo.org/x/drivers device drivers.
package i2cbus

import (
	"errors"
	"sync"

	"github.com/BertoldVdb/twi-tools/twi"
	"tinygo.org/x/drivers"
)

var (
	ErrorNoDevice      = errors.New("No device acknowledged the address")
	ErrorAddressRange  = errors.New("Only 7-bit addresses are supported")
	ErrorWriteNotAcked = errors.New("Device did not acknowledge written data")
)

// Bus serializes whole transactions on a twi.Bus.
type Bus struct {
	mu  sync.Mutex
	bus *twi.Bus
}

var _ drivers.I2C = (*Bus)(nil)

func New(bus *twi.Bus) *Bus {
	return &Bus{bus: bus}
}

// Tx writes w and then reads len(r) bytes from the device at addr, with a
// repeated START between the two phases. Either phase may be empty. The bus
// is released with a STOP on every path except a START that never
// completed.
func (b *Bus) Tx(addr uint16, w, r []byte) error {
	if addr > 0x7F {
		return ErrorAddressRange
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	err := b.bus.Start()
	if errors.Is(err, twi.ErrorTimeout) {
		return err
	}
	if err == nil {
		err = b.transfer(byte(addr), w, r)
	}
	if stopErr := b.bus.Stop(); err == nil {
		err = stopErr
	}
	return err
}

func (b *Bus) transfer(addr byte, w, r []byte) error {
	started := false

	if len(w) > 0 || len(r) == 0 {
		if err := b.address(addr<<1, twi.StatusMTSlaAck); err != nil {
			return err
		}
		for _, m := range w {
			if err := b.bus.SendByteExpect(m, twi.StatusMTDataAck); err != nil {
				if errors.Is(err, twi.ErrorUnexpectedStatus) {
					return ErrorWriteNotAcked
				}
				return err
			}
		}
		started = true
	}

	if len(r) == 0 {
		return nil
	}

	if started {
		if err := b.bus.Restart(); err != nil {
			return err
		}
	}
	if err := b.address(addr<<1|1, twi.StatusMRSlaAck); err != nil {
		return err
	}

	for i := range r {
		var err error
		if i < len(r)-1 {
			r[i], err = b.bus.ReadByteWithAck()
		} else {
			r[i], err = b.bus.ReadByteWithoutAck()
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (b *Bus) address(sla byte, want twi.Status) error {
	err := b.bus.SendByteExpect(sla, want)
	var se *twi.StatusError
	if errors.As(err, &se) && (se.Observed == twi.StatusMTSlaNack || se.Observed == twi.StatusMRSlaNack) {
		return ErrorNoDevice
	}
	return err
}

// ReadRegister reads len(buf) bytes starting at register reg.
func (b *Bus) ReadRegister(addr uint8, reg uint8, buf []byte) error {
	return b.Tx(uint16(addr), []byte{reg}, buf)
}

// WriteRegister writes buf starting at register reg.
func (b *Bus) WriteRegister(addr uint8, reg uint8, buf []byte) error {
	w := make([]byte, 0, len(buf)+1)
	w = append(w, reg)
	w = append(w, buf...)
	return b.Tx(uint16(addr), w, nil)
}

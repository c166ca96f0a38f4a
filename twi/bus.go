package twi

import (
	"errors"
	"fmt"
)

type LogFunc func(level int, format string, param ...interface{})

type Config struct {
	// SystemClockHz is the CPU clock feeding the TWI bit-rate generator.
	SystemClockHz uint32

	LogFunc LogFunc
}

// Bus is a polled TWI master. It holds no lock: only one transaction may be
// in flight, and callers sharing a Bus must serialize access themselves.
type Bus struct {
	regs   Registers
	config Config

	frequency uint32
	timeout   uint32
}

// errorLatch is implemented by register windows that reach the hardware
// through a transport that can fail.
type errorLatch interface {
	Err() error
}

// New returns a bus on top of regs. Initialize must be called before any
// checked operation: an uninitialized bus has a timeout of zero polls.
func New(regs Registers, config Config) *Bus {
	return &Bus{
		regs:   regs,
		config: config,
	}
}

func (b *Bus) log(level int, format string, param ...interface{}) {
	if b.config.LogFunc != nil {
		b.config.LogFunc(level, format, param...)
	}
}

// BaudRateValue computes TWBR for the requested SCL frequency with the
// prescaler at 1: SCL = clock / (16 + 2*TWBR).
func BaudRateValue(clockHz uint32, busHz uint32) (byte, error) {
	if busHz == 0 || clockHz/busHz < 16 {
		return 0, ErrorInvalidFrequency
	}

	twbr := (clockHz/busHz - 16) / 2
	if twbr > 0xFF {
		return 0, ErrorInvalidFrequency
	}

	return byte(twbr), nil
}

// Initialize programs the bit-rate generator and derives the poll timeout
// from the ratio of system clock to bus clock. Invalid frequencies leave
// the bus untouched.
func (b *Bus) Initialize(busFrequencyHz uint32) error {
	twbr, err := BaudRateValue(b.config.SystemClockHz, busFrequencyHz)
	if err != nil {
		b.log(2, "Rejected bus frequency %d Hz with %d Hz system clock", busFrequencyHz, b.config.SystemClockHz)
		return err
	}

	b.timeout = b.config.SystemClockHz / busFrequencyHz
	b.frequency = busFrequencyHz

	b.regs.WriteRegister(RegStatus, 0)
	b.regs.WriteRegister(RegBaudRate, twbr)

	b.log(1, "Bus at %d Hz: TWBR=%d, timeout %d polls", busFrequencyHz, twbr, b.timeout)
	return nil
}

func (b *Bus) Timeout() uint32 {
	return b.timeout
}

func (b *Bus) Frequency() uint32 {
	return b.frequency
}

// Status reads the protocol state code.
func (b *Bus) Status() Status {
	return StatusFromRegister(b.regs.ReadRegister(RegStatus))
}

// waitControl polls the control register until done reports true. Each read
// counts as one iteration; after timeout+1 reads the wait is abandoned.
func (b *Bus) waitControl(done func(control byte) bool) error {
	for i := uint32(0); ; i++ {
		if done(b.regs.ReadRegister(RegControl)) {
			return nil
		}
		if i >= b.timeout {
			return ErrorTimeout
		}
	}
}

func interruptSet(control byte) bool {
	return control&TWINT != 0
}

func stopCleared(control byte) bool {
	return control&TWSTO == 0
}

func (b *Bus) expect(want Status) error {
	if s := b.Status(); s != want {
		return &StatusError{Observed: s, Expected: want}
	}
	return nil
}

// result finishes a checked operation. A transport failure of the register
// window takes precedence, since it is what caused any timeout or bogus status.
func (b *Bus) result(op string, err error) error {
	if latch, ok := b.regs.(errorLatch); ok {
		if lerr := latch.Err(); lerr != nil {
			err = lerr
		}
	}
	if err == nil {
		return nil
	}

	var se *StatusError
	if errors.As(err, &se) {
		if se.Op == "" {
			se.Op = op
		}
	} else {
		err = fmt.Errorf("%s: %w", op, err)
	}

	b.log(2, "%v", err)
	return err
}

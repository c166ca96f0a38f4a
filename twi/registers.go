package twi

import "fmt"

// Register names one of the four TWI registers.
type Register int

const (
	RegControl Register = iota
	RegStatus
	RegData
	RegBaudRate
)

func (r Register) String() string {
	switch r {
	case RegControl:
		return "TWCR"
	case RegStatus:
		return "TWSR"
	case RegData:
		return "TWDR"
	case RegBaudRate:
		return "TWBR"
	}
	return fmt.Sprintf("Register(%d)", int(r))
}

// Registers gives access to the controller registers. Accesses behave like
// memory-mapped IO: they cannot fail and every read observes the hardware.
type Registers interface {
	ReadRegister(reg Register) byte
	WriteRegister(reg Register, value byte)
}

// Control register bits.
const (
	TWIE  byte = 1 << 0
	TWEN  byte = 1 << 2
	TWWC  byte = 1 << 3
	TWSTO byte = 1 << 4
	TWSTA byte = 1 << 5
	TWEA  byte = 1 << 6
	TWINT byte = 1 << 7
)

// Status register prescaler bits.
const (
	TWPS0 byte = 1 << 0
	TWPS1 byte = 1 << 1
)

// Status is the protocol state code from the status register, with the
// prescaler bits masked out.
type Status byte

const StatusMask byte = 0xF8

const (
	StatusBusError   Status = 0x00
	StatusStart      Status = 0x08
	StatusRepStart   Status = 0x10
	StatusMTSlaAck   Status = 0x18
	StatusMTSlaNack  Status = 0x20
	StatusMTDataAck  Status = 0x28
	StatusMTDataNack Status = 0x30
	StatusArbLost    Status = 0x38
	StatusMRSlaAck   Status = 0x40
	StatusMRSlaNack  Status = 0x48
	StatusMRDataAck  Status = 0x50
	StatusMRDataNack Status = 0x58
	StatusNoInfo     Status = 0xF8
)

var statusNames = map[Status]string{
	StatusBusError:   "bus error",
	StatusStart:      "START transmitted",
	StatusRepStart:   "repeated START transmitted",
	StatusMTSlaAck:   "SLA+W transmitted, ACK received",
	StatusMTSlaNack:  "SLA+W transmitted, NACK received",
	StatusMTDataAck:  "data transmitted, ACK received",
	StatusMTDataNack: "data transmitted, NACK received",
	StatusArbLost:    "arbitration lost",
	StatusMRSlaAck:   "SLA+R transmitted, ACK received",
	StatusMRSlaNack:  "SLA+R transmitted, NACK received",
	StatusMRDataAck:  "data received, ACK returned",
	StatusMRDataNack: "data received, NACK returned",
	StatusNoInfo:     "no state information",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return fmt.Sprintf("0x%02x (%s)", byte(s), name)
	}
	return fmt.Sprintf("0x%02x", byte(s))
}

// StatusFromRegister strips the prescaler bits from a raw status register value.
func StatusFromRegister(value byte) Status {
	return Status(value & StatusMask)
}

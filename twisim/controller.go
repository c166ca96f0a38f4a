// Package twisim simulates an AVR TWI controller in master mode together
// with the slaves attached to its bus.
package twisim

import (
	"github.com/BertoldVdb/twi-tools/twi"
)

type LogFunc func(level int, format string, param ...interface{})

type Config struct {
	// Latency is the number of control register reads after which a started
	// action completes. Zero completes it before the next read.
	Latency int

	// Stuck keeps every action pending forever, like a bus with SCL held low.
	Stuck bool

	LogFunc LogFunc
}

// Device is a slave on the simulated bus.
type Device interface {
	// Select is called when the device's address is transmitted. The return
	// value is the ACK bit.
	Select(read bool) bool
	// Write receives a data byte from the master and returns the ACK bit.
	Write(value byte) bool
	// Read supplies the next byte; ack is what the master answers.
	Read(ack bool) byte
	// Stop is called when the master ends the transaction.
	Stop()
}

type OpKind int

const (
	OpRead OpKind = iota
	OpWrite
)

// Op is one register access made by the master.
type Op struct {
	Kind  OpKind
	Reg   twi.Register
	Value byte
}

type busState int

const (
	stateIdle busState = iota
	stateAddress
	stateTransmit
	stateReceive
)

type Controller struct {
	config  Config
	devices map[byte]Device

	control   byte
	status    twi.Status
	prescaler byte
	data      byte
	baud      byte

	state    busState
	selected Device

	pending       int
	pendingStatus twi.Status
	pendingStop   bool
	injected      []twi.Status

	ops          []Op
	controlReads int
}

func New(config Config) *Controller {
	return &Controller{
		config:  config,
		devices: make(map[byte]Device),
		status:  twi.StatusNoInfo,
		pending: -1,
	}
}

func (c *Controller) log(level int, format string, param ...interface{}) {
	if c.config.LogFunc != nil {
		c.config.LogFunc(level, format, param...)
	}
}

// Attach places dev on the bus at the 7-bit address addr.
func (c *Controller) Attach(addr byte, dev Device) {
	c.devices[addr&0x7F] = dev
}

// InjectStatus makes the next completed action report s instead of the
// status the protocol would produce. Calls queue up.
func (c *Controller) InjectStatus(s twi.Status) {
	c.injected = append(c.injected, s)
}

func (c *Controller) SetStuck(stuck bool) {
	c.config.Stuck = stuck
}

func (c *Controller) Ops() []Op {
	return c.ops
}

// Writes returns only the register writes, in order.
func (c *Controller) Writes() []Op {
	var result []Op
	for _, m := range c.ops {
		if m.Kind == OpWrite {
			result = append(result, m)
		}
	}
	return result
}

func (c *Controller) ControlReads() int {
	return c.controlReads
}

func (c *Controller) ResetOps() {
	c.ops = nil
	c.controlReads = 0
}

func (c *Controller) ReadRegister(reg twi.Register) byte {
	var value byte

	switch reg {
	case twi.RegControl:
		c.controlReads++
		if c.pending > 0 {
			c.pending--
			if c.pending == 0 {
				c.complete()
			}
		}
		value = c.control
	case twi.RegStatus:
		value = byte(c.status) | c.prescaler
	case twi.RegData:
		value = c.data
	case twi.RegBaudRate:
		value = c.baud
	}

	c.ops = append(c.ops, Op{Kind: OpRead, Reg: reg, Value: value})
	return value
}

func (c *Controller) WriteRegister(reg twi.Register, value byte) {
	c.ops = append(c.ops, Op{Kind: OpWrite, Reg: reg, Value: value})

	switch reg {
	case twi.RegControl:
		c.writeControl(value)
	case twi.RegStatus:
		c.prescaler = value & (twi.TWPS0 | twi.TWPS1)
	case twi.RegData:
		c.data = value
	case twi.RegBaudRate:
		c.baud = value
	}
}

func (c *Controller) writeControl(value byte) {
	if value&twi.TWINT == 0 {
		c.control = value | c.control&twi.TWINT
		return
	}

	/* TWINT is cleared by writing a one to it */
	c.control = value &^ twi.TWINT
	if value&twi.TWEN == 0 {
		return
	}

	switch {
	case value&twi.TWSTO != 0:
		c.stop()
	case value&twi.TWSTA != 0:
		c.start()
	case c.state == stateAddress:
		c.address()
	case c.state == stateTransmit:
		c.transmit()
	case c.state == stateReceive:
		c.receive(value&twi.TWEA != 0)
	default:
		c.log(2, "Transfer requested on idle bus")
	}
}

func (c *Controller) start() {
	s := twi.StatusStart
	if c.state != stateIdle {
		s = twi.StatusRepStart
	}
	c.state = stateAddress
	c.selected = nil
	c.log(3, "Start: %s", s)
	c.schedule(s, false)
}

func (c *Controller) stop() {
	if c.selected != nil {
		c.selected.Stop()
	}
	c.state = stateIdle
	c.selected = nil
	c.log(3, "Stop")
	c.schedule(twi.StatusNoInfo, true)
}

func (c *Controller) address() {
	addr := c.data >> 1
	read := c.data&1 != 0

	dev, ok := c.devices[addr]
	ack := ok && dev.Select(read)

	var s twi.Status
	switch {
	case read && ack:
		s = twi.StatusMRSlaAck
		c.state = stateReceive
	case read:
		s = twi.StatusMRSlaNack
		c.state = stateTransmit
	case ack:
		s = twi.StatusMTSlaAck
		c.state = stateTransmit
	default:
		s = twi.StatusMTSlaNack
		c.state = stateTransmit
	}

	if ack {
		c.selected = dev
	} else {
		c.selected = nil
	}

	c.log(3, "Address %02x: %s", addr, s)
	c.schedule(s, false)
}

func (c *Controller) transmit() {
	s := twi.StatusMTDataNack
	if c.selected != nil && c.selected.Write(c.data) {
		s = twi.StatusMTDataAck
	}
	c.log(3, "Transmit %02x: %s", c.data, s)
	c.schedule(s, false)
}

func (c *Controller) receive(ack bool) {
	c.data = c.selected.Read(ack)

	s := twi.StatusMRDataNack
	if ack {
		s = twi.StatusMRDataAck
	}
	c.log(3, "Receive %02x: %s", c.data, s)
	c.schedule(s, false)
}

func (c *Controller) schedule(s twi.Status, stop bool) {
	if len(c.injected) > 0 {
		s = c.injected[0]
		c.injected = c.injected[1:]
	}

	c.pendingStatus = s
	c.pendingStop = stop
	if stop {
		c.control |= twi.TWSTO
	}

	if c.config.Stuck {
		c.pending = -1
		return
	}

	c.pending = c.config.Latency
	if c.pending == 0 {
		c.complete()
	}
}

func (c *Controller) complete() {
	c.pending = -1
	c.status = c.pendingStatus

	if c.pendingStop {
		c.control &^= twi.TWSTO
		return
	}
	c.control |= twi.TWINT
}

package twi

// Unchecked issues the same register sequences as the Bus methods but
// polls without a bound and never looks at the status register. If the
// controller never completes an operation, the call never returns. Only
// use it where bus health is already established, e.g. right after a
// checked Start succeeded.
type Unchecked struct {
	regs Registers
}

func (b *Bus) Unchecked() Unchecked {
	return Unchecked{regs: b.regs}
}

func (u Unchecked) waitInterrupt() {
	for u.regs.ReadRegister(RegControl)&TWINT == 0 {
	}
}

func (u Unchecked) Start() {
	u.regs.WriteRegister(RegControl, TWINT|TWSTA|TWEN)
	u.waitInterrupt()
}

// Restart is Start issued inside a transaction.
func (u Unchecked) Restart() {
	u.Start()
}

func (u Unchecked) Stop() {
	u.regs.WriteRegister(RegControl, TWINT|TWSTO|TWEN)
	for u.regs.ReadRegister(RegControl)&TWSTO != 0 {
	}
}

func (u Unchecked) SendByte(value byte) {
	u.regs.WriteRegister(RegData, value)
	u.regs.WriteRegister(RegControl, TWINT|TWEN)
	u.waitInterrupt()
}

func (u Unchecked) ReadByteWithAck() byte {
	u.regs.WriteRegister(RegControl, TWINT|TWEA|TWEN)
	u.waitInterrupt()
	return u.regs.ReadRegister(RegData)
}

func (u Unchecked) ReadByteWithoutAck() byte {
	u.regs.WriteRegister(RegControl, TWINT|TWEN)
	u.waitInterrupt()
	return u.regs.ReadRegister(RegData)
}

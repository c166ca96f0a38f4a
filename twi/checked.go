package twi

// Start transmits a START condition.
func (b *Bus) Start() error {
	return b.result("start", b.start(StatusStart))
}

// Restart transmits a repeated START inside a transaction. A controller
// that never completes the condition reports ErrorTimeout.
func (b *Bus) Restart() error {
	return b.result("restart", b.start(StatusRepStart))
}

func (b *Bus) start(want Status) error {
	b.regs.WriteRegister(RegControl, TWINT|TWSTA|TWEN)
	if err := b.waitControl(interruptSet); err != nil {
		return err
	}
	return b.expect(want)
}

// Stop transmits a STOP condition and waits for the controller to release
// the bus. No status is available afterwards.
func (b *Bus) Stop() error {
	b.regs.WriteRegister(RegControl, TWINT|TWSTO|TWEN)
	return b.result("stop", b.waitControl(stopCleared))
}

// SendByte shifts out one byte. Only completion is checked; use
// SendByteExpect or Status to look at the acknowledgement.
func (b *Bus) SendByte(value byte) error {
	return b.result("send", b.send(value))
}

// SendByteExpect shifts out one byte and requires the controller to end in
// state want, e.g. StatusMTSlaAck after an address byte.
func (b *Bus) SendByteExpect(value byte, want Status) error {
	err := b.send(value)
	if err == nil {
		err = b.expect(want)
	}
	return b.result("send", err)
}

func (b *Bus) send(value byte) error {
	b.regs.WriteRegister(RegData, value)
	b.regs.WriteRegister(RegControl, TWINT|TWEN)
	return b.waitControl(interruptSet)
}

// ReadByteWithAck receives a byte and acknowledges it, asking the slave
// for more.
func (b *Bus) ReadByteWithAck() (byte, error) {
	return b.receive("read ack", TWINT|TWEA|TWEN, StatusMRDataAck)
}

// ReadByteWithoutAck receives the final byte of a read and answers NACK.
func (b *Bus) ReadByteWithoutAck() (byte, error) {
	return b.receive("read nack", TWINT|TWEN, StatusMRDataNack)
}

func (b *Bus) receive(op string, control byte, want Status) (byte, error) {
	b.regs.WriteRegister(RegControl, control)

	err := b.waitControl(interruptSet)
	if err == nil {
		err = b.expect(want)
	}
	if err := b.result(op, err); err != nil {
		return 0, err
	}

	return b.regs.ReadRegister(RegData), nil
}

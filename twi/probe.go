package twi

// CheckDeviceByAddress addresses a 7-bit slave for writing and reports
// whether it acknowledged. The bus is always released with a STOP, whatever
// the outcome.
func (b *Bus) CheckDeviceByAddress(addr byte) bool {
	err := b.Start()
	if err == nil {
		err = b.SendByteExpect(addr<<1, StatusMTSlaAck)
	}

	b.Stop()

	if err != nil {
		b.log(2, "No device at %02x: %v", addr, err)
		return false
	}
	return true
}

// Scan probes every 7-bit address in [first, last] and returns the ones that
// acknowledged.
func (b *Bus) Scan(first byte, last byte) []byte {
	if last > 0x7F {
		last = 0x7F
	}

	var found []byte
	for addr := int(first); addr <= int(last); addr++ {
		if b.CheckDeviceByAddress(byte(addr)) {
			found = append(found, byte(addr))
		}
	}
	return found
}

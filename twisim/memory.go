package twisim

// Memory is a slave with 256 byte-wide registers behind an auto-incrementing
// pointer, laid out like a 24C02 EEPROM or most sensors: the first byte of a
// write transfer sets the pointer, further bytes are stored, reads continue
// from the pointer.
type Memory struct {
	Data [256]byte

	pointer     byte
	wantPointer bool
	lastAck     bool
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Select(read bool) bool {
	m.wantPointer = !read
	return true
}

func (m *Memory) Write(value byte) bool {
	if m.wantPointer {
		m.pointer = value
		m.wantPointer = false
		return true
	}

	m.Data[m.pointer] = value
	m.pointer++
	return true
}

func (m *Memory) Read(ack bool) byte {
	value := m.Data[m.pointer]
	m.pointer++
	m.lastAck = ack
	return value
}

func (m *Memory) Stop() {
	m.wantPointer = false
}

func (m *Memory) Pointer() byte {
	return m.pointer
}

// LastAck reports what the master answered to the most recent read.
func (m *Memory) LastAck() bool {
	return m.lastAck
}

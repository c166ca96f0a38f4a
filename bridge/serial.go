package bridge

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/BertoldVdb/twi-tools/regmap"
	"github.com/sigurn/crc16"
	"github.com/tarm/serial"
)

const (
	serialHeaderLen  = 4
	serialMaxPayload = 16

	/* Zero byte reads tolerated while waiting for a reply */
	serialIdleReads = 3
)

var crcTable = crc16.MakeTable(crc16.CRC16_XMODEM)

type SerialConfig struct {
	Device      string
	Baud        int
	ReadTimeout time.Duration

	// Length of the exposed data space, 64K when zero.
	Length int

	LogFunc LogFunc
}

// Serial talks to the monitor with CRC protected frames:
//
//	command, address high, address low, count, payload..., CRC-16/XMODEM
//
// Write requests carry count payload bytes, read replies carry them.
// Replies echo the four header bytes.
type Serial struct {
	rw     io.ReadWriter
	config SerialConfig
}

// OpenSerial opens the serial port named in config.
func OpenSerial(config SerialConfig) (*Serial, error) {
	if config.Baud == 0 {
		config.Baud = 115200
	}
	if config.ReadTimeout == 0 {
		config.ReadTimeout = 500 * time.Millisecond
	}

	port, err := serial.OpenPort(&serial.Config{
		Name:        config.Device,
		Baud:        config.Baud,
		ReadTimeout: config.ReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", config.Device, err)
	}

	return NewSerial(port, config), nil
}

// NewSerial runs the protocol on an already open stream.
func NewSerial(rw io.ReadWriter, config SerialConfig) *Serial {
	if config.Length == 0 {
		config.Length = 0x10000
	}
	return &Serial{
		rw:     rw,
		config: config,
	}
}

func (s *Serial) log(level int, format string, param ...interface{}) {
	if s.config.LogFunc != nil {
		s.config.LogFunc(level, format, param...)
	}
}

func (s *Serial) Close() error {
	if c, ok := s.rw.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func appendCRC(frame []byte) []byte {
	var sum [2]byte
	binary.BigEndian.PutUint16(sum[:], crc16.Checksum(frame, crcTable))
	return append(frame, sum[:]...)
}

func (s *Serial) readFull(buf []byte) error {
	idle := 0
	for len(buf) > 0 {
		n, err := s.rw.Read(buf)
		if n == 0 && errors.Is(err, io.EOF) {
			/* tarm/serial reports an expired read timeout as EOF */
			err = nil
		}
		if err != nil {
			return err
		}
		if n == 0 {
			idle++
			if idle >= serialIdleReads {
				return ErrorTimeout
			}
			continue
		}
		idle = 0
		buf = buf[n:]
	}
	return nil
}

func (s *Serial) exec(write bool, addr int, buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	if len(buf) > serialMaxPayload {
		buf = buf[:serialMaxPayload]
	}

	header := []byte{CommandRead, byte(addr >> 8), byte(addr), byte(len(buf))}
	if write {
		header[0] = CommandWrite
	}

	frame := append([]byte{}, header...)
	if write {
		frame = append(frame, buf...)
	}
	frame = appendCRC(frame)

	s.log(3, "SerialOut: %s", hex.EncodeToString(frame))
	if _, err := s.rw.Write(frame); err != nil {
		return 0, err
	}

	replyLen := serialHeaderLen + 2
	if !write {
		replyLen += len(buf)
	}
	reply := make([]byte, replyLen)
	if err := s.readFull(reply); err != nil {
		return 0, err
	}
	s.log(3, "SerialIn:  %s", hex.EncodeToString(reply))

	body := reply[:len(reply)-2]
	if crc16.Checksum(body, crcTable) != binary.BigEndian.Uint16(reply[len(reply)-2:]) {
		return 0, ErrorChecksum
	}
	for i := range header {
		if body[i] != header[i] {
			return 0, ErrorInvalidResponse
		}
	}

	if !write {
		copy(buf, body[serialHeaderLen:])
	}
	return len(buf), nil
}

// Region exposes the target data space.
func (s *Serial) Region(name regmap.RegionName) regmap.MemoryRegion {
	return regmap.WrapCompleteIO(serialRegion{serial: s, name: name})
}

type serialRegion struct {
	serial *Serial
	name   regmap.RegionName
}

func (r serialRegion) GetName() regmap.RegionName {
	return r.name
}

func (r serialRegion) GetLength() int {
	return r.serial.config.Length
}

func (r serialRegion) GetParent() (regmap.MemoryRegion, int) {
	return nil, 0
}

func (r serialRegion) GetAlignment() int {
	return 1
}

func (r serialRegion) Access(write bool, addr int, buf []byte) (int, error) {
	length := r.GetLength()
	if addr >= length {
		return 0, nil
	}
	if addr+len(buf) > length {
		buf = buf[:length-addr]
	}

	return r.serial.exec(write, addr, buf)
}

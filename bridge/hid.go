// Package bridge reaches the data space of a target MCU running a small
// monitor firmware, over USB HID feature reports or a serial line.
package bridge

import (
	"bytes"
	"encoding/hex"

	"github.com/BertoldVdb/twi-tools/gohid"
	"github.com/BertoldVdb/twi-tools/regmap"
)

type LogFunc func(level int, format string, param ...interface{})

const (
	CommandRead  byte = 0xb5
	CommandWrite byte = 0xb6

	hidReportLen  = 9
	hidHeaderLen  = 4
	hidMaxPayload = hidReportLen - hidHeaderLen
)

type HIDConfig struct {
	// Length of the exposed data space, 64K when zero.
	Length int

	LogFunc LogFunc
}

// HID talks to the monitor through 9 byte feature reports:
// report ID 0, command, address high, address low, then the byte to write
// or the number of bytes to read (at most 5). The monitor answers with the
// same header followed by the read data.
type HID struct {
	dev    gohid.HIDDevice
	config HIDConfig
}

func NewHID(dev gohid.HIDDevice, config HIDConfig) *HID {
	if config.Length == 0 {
		config.Length = 0x10000
	}
	return &HID{
		dev:    dev,
		config: config,
	}
}

func (h *HID) log(level int, format string, param ...interface{}) {
	if h.config.LogFunc != nil {
		h.config.LogFunc(level, format, param...)
	}
}

func (h *HID) exchangeReport(out [hidReportLen]byte) ([hidReportLen]byte, error) {
	var in [hidReportLen]byte

	h.log(3, "HIDOut: %s", hex.EncodeToString(out[:]))

	if _, err := h.dev.SendFeatureReport(out[:]); err != nil {
		return in, err
	}

	if _, err := h.dev.GetFeatureReport(in[:]); err != nil {
		return in, err
	}

	h.log(3, "HIDIn:  %s", hex.EncodeToString(in[:]))

	if !bytes.Equal(out[:hidHeaderLen], in[:hidHeaderLen]) {
		return in, ErrorInvalidResponse
	}
	return in, nil
}

func (h *HID) exec(write bool, addr int, buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	maxPayload := hidMaxPayload
	if write {
		maxPayload = 1
	}
	if len(buf) > maxPayload {
		buf = buf[:maxPayload]
	}

	var out [hidReportLen]byte
	if write {
		out[1] = CommandWrite
		out[hidHeaderLen] = buf[0]
	} else {
		out[1] = CommandRead
		out[hidHeaderLen] = byte(len(buf))
	}
	out[2] = byte(addr >> 8)
	out[3] = byte(addr)

	in, err := h.exchangeReport(out)
	if err != nil {
		return 0, err
	}

	if !write {
		copy(buf, in[hidHeaderLen:])
	}
	return len(buf), nil
}

// Region exposes the target data space.
func (h *HID) Region(name regmap.RegionName) regmap.MemoryRegion {
	return regmap.WrapCompleteIO(hidRegion{hid: h, name: name})
}

func (h *HID) Close() error {
	return h.dev.Close()
}

type hidRegion struct {
	hid  *HID
	name regmap.RegionName
}

func (r hidRegion) GetName() regmap.RegionName {
	return r.name
}

func (r hidRegion) GetLength() int {
	return r.hid.config.Length
}

func (r hidRegion) GetParent() (regmap.MemoryRegion, int) {
	return nil, 0
}

func (r hidRegion) GetAlignment() int {
	return 1
}

func (r hidRegion) Access(write bool, addr int, buf []byte) (int, error) {
	length := r.GetLength()
	if addr >= length {
		return 0, nil
	}
	if addr+len(buf) > length {
		buf = buf[:length-addr]
	}

	return r.hid.exec(write, addr, buf)
}

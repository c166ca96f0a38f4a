package regmap

import (
	"errors"
	"testing"

	"github.com/BertoldVdb/twi-tools/twi"
	"github.com/BertoldVdb/twi-tools/twisim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyRegion fails every access after the first ok ones.
type flakyRegion struct {
	*RAM
	ok  int
	err error
}

func (f *flakyRegion) Access(write bool, addr int, buf []byte) (int, error) {
	if f.ok == 0 {
		return 0, f.err
	}
	f.ok--
	return f.RAM.Access(write, addr, buf)
}

// trickleRegion moves one byte per access.
type trickleRegion struct {
	*RAM
	calls int
}

func (t *trickleRegion) Access(write bool, addr int, buf []byte) (int, error) {
	t.calls++
	if len(buf) > 1 {
		buf = buf[:1]
	}
	return t.RAM.Access(write, addr, buf)
}

func TestLayoutByName(t *testing.T) {
	l, err := LayoutByName("ATmega328P")
	require.NoError(t, err)
	assert.Equal(t, LayoutATmega328P, l)

	_, err = LayoutByName("attiny85")
	assert.ErrorIs(t, err, ErrorUnknownLayout)
}

func TestLayoutSpan(t *testing.T) {
	low, size := LayoutATmega328P.Span()
	assert.Equal(t, 0xB8, low)
	assert.Equal(t, 5, size)

	low, size = LayoutATmega16.Span()
	assert.Equal(t, 0x20, low)
	assert.Equal(t, 0x37, size)

	reg, ok := LayoutATmega16.Register(0x56)
	assert.True(t, ok)
	assert.Equal(t, twi.RegControl, reg)

	_, ok = LayoutATmega16.Register(0x22)
	assert.False(t, ok)
}

func TestWindowAddresses(t *testing.T) {
	ram := NewRAM("RAM", 0x100)
	w := NewWindow(ram, LayoutATmega328P)

	w.WriteRegister(twi.RegBaudRate, 72)
	w.WriteRegister(twi.RegData, 0xA2)
	w.WriteRegister(twi.RegControl, twi.TWINT|twi.TWEN)
	ram.Data[0xB9] = 0x18 | twi.TWPS0

	assert.Equal(t, byte(72), ram.Data[0xB8])
	assert.Equal(t, byte(0xA2), ram.Data[0xBB])
	assert.Equal(t, twi.TWINT|twi.TWEN, ram.Data[0xBC])
	assert.Equal(t, twi.StatusMTSlaAck, twi.StatusFromRegister(w.ReadRegister(twi.RegStatus)))
	assert.NoError(t, w.Err())
}

func TestWindowLatchesErrors(t *testing.T) {
	linkDown := errors.New("link down")
	region := &flakyRegion{RAM: NewRAM("RAM", 0x100), ok: 2, err: linkDown}
	w := NewWindow(region, LayoutATmega328P)

	bus := twi.New(w, twi.Config{SystemClockHz: 16000000})
	require.NoError(t, bus.Initialize(100000))

	err := bus.Start()
	require.ErrorIs(t, err, linkDown)
	assert.NotErrorIs(t, err, twi.ErrorTimeout)
	assert.ErrorIs(t, w.Err(), linkDown)

	/* Stop would otherwise succeed, as a failed read looks like TWSTO cleared */
	assert.ErrorIs(t, bus.Stop(), linkDown)

	region.ok = 10
	w.ClearErr()
	assert.NoError(t, w.Err())
	w.WriteRegister(twi.RegData, 0x55)
	assert.Equal(t, byte(0x55), region.Data[0xBB])
}

func TestBusThroughRegisterRegion(t *testing.T) {
	sim := twisim.New(twisim.Config{Latency: 2})
	mem := twisim.NewMemory()
	mem.Data[3] = 0x99
	sim.Attach(0x68, mem)

	region := NewRegisterRegion("TWI", sim, LayoutATmega16, 0x60)
	w := NewWindow(region, LayoutATmega16)
	bus := twi.New(w, twi.Config{SystemClockHz: 8000000})
	require.NoError(t, bus.Initialize(400000))

	var baud [1]byte
	_, err := region.Access(false, 0x20, baud[:])
	require.NoError(t, err)
	assert.Equal(t, byte(2), baud[0])

	assert.True(t, bus.CheckDeviceByAddress(0x68))
	assert.False(t, bus.CheckDeviceByAddress(0x69))

	require.NoError(t, bus.Start())
	require.NoError(t, bus.SendByteExpect(0x68<<1, twi.StatusMTSlaAck))
	require.NoError(t, bus.SendByte(3))
	require.NoError(t, bus.Restart())
	require.NoError(t, bus.SendByteExpect(0x68<<1|1, twi.StatusMRSlaAck))
	value, err := bus.ReadByteWithoutAck()
	require.NoError(t, err)
	assert.Equal(t, byte(0x99), value)
	require.NoError(t, bus.Stop())
}

func TestRegisterRegionUnmapped(t *testing.T) {
	sim := twisim.New(twisim.Config{})
	region := NewRegisterRegion("TWI", sim, LayoutATmega328P, 0x100)

	buf := []byte{1, 2, 3}
	n, err := region.Access(false, 0x10, buf)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []byte{0, 0, 0}, buf)

	n, err = region.Access(true, 0xB8, []byte{12, 0, 0, 0x5A})
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, byte(12), sim.ReadRegister(twi.RegBaudRate))
	assert.Equal(t, byte(0x5A), sim.ReadRegister(twi.RegData))

	n, err = region.Access(false, 0x100, buf)
	assert.NoError(t, err)
	assert.Zero(t, n)
}

func TestCompleteIO(t *testing.T) {
	trickle := &trickleRegion{RAM: NewRAM("RAM", 16)}
	copy(trickle.Data, "0123456789abcdef")

	region := WrapCompleteIO(trickle)
	buf := make([]byte, 6)
	n, err := region.Access(false, 4, buf)
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.Equal(t, "456789", string(buf))
	assert.Equal(t, 6, trickle.calls)
}

func TestPartial(t *testing.T) {
	ram := NewRAM("RAM", 0x100)
	outer := WrapPartial("IO", ram, 0x20, 0xE0)
	inner := WrapPartial("TWI", outer, 0x98, 5)

	require.NoError(t, WriteByte(inner, 4, 0x84))
	assert.Equal(t, byte(0x84), ram.Data[0xBC])

	n, err := inner.Access(false, 3, make([]byte, 4))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = ReadByte(inner, 5)
	assert.ErrorIs(t, err, ErrorShortIO)

	root, addr := RecursiveGetParentAddress(inner, 4)
	assert.Equal(t, RegionName("RAM"), root.GetName())
	assert.Equal(t, 0xBC, addr)
}

package twi_test

import (
	"testing"

	"github.com/BertoldVdb/twi-tools/twi"
	"github.com/BertoldVdb/twi-tools/twisim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var stopWrite = twisim.Op{Kind: twisim.OpWrite, Reg: twi.RegControl, Value: twi.TWINT | twi.TWSTO | twi.TWEN}

func lastWrite(t *testing.T, sim *twisim.Controller) twisim.Op {
	writes := sim.Writes()
	require.NotEmpty(t, writes)
	return writes[len(writes)-1]
}

func TestCheckDeviceByAddress(t *testing.T) {
	bus, sim := newTestBus(t, twisim.Config{Latency: 1}, 100000)
	sim.Attach(0x50, twisim.NewMemory())

	assert.True(t, bus.CheckDeviceByAddress(0x50))
	assert.Equal(t, stopWrite, lastWrite(t, sim))
	assert.Contains(t, sim.Writes(), twisim.Op{Kind: twisim.OpWrite, Reg: twi.RegData, Value: 0xA0})

	sim.ResetOps()
	assert.False(t, bus.CheckDeviceByAddress(0x51))
	assert.Equal(t, stopWrite, lastWrite(t, sim))
}

func TestCheckDeviceStopsAfterFailedStart(t *testing.T) {
	bus, sim := newTestBus(t, twisim.Config{}, 100000)
	sim.Attach(0x50, twisim.NewMemory())
	sim.InjectStatus(twi.StatusBusError)

	assert.False(t, bus.CheckDeviceByAddress(0x50))
	assert.Equal(t, stopWrite, lastWrite(t, sim))

	/* No address byte was sent */
	for _, m := range sim.Writes() {
		assert.NotEqual(t, twi.RegData, m.Reg)
	}
}

func TestCheckDeviceStopsAfterTimeout(t *testing.T) {
	bus, sim := newTestBus(t, twisim.Config{Stuck: true}, 100000)
	sim.Attach(0x50, twisim.NewMemory())

	assert.False(t, bus.CheckDeviceByAddress(0x50))
	assert.Equal(t, stopWrite, lastWrite(t, sim))
}

func TestScan(t *testing.T) {
	bus, sim := newTestBus(t, twisim.Config{}, 400000)
	sim.Attach(0x1D, twisim.NewMemory())
	sim.Attach(0x50, twisim.NewMemory())
	sim.Attach(0x68, twisim.NewMemory())

	assert.Equal(t, []byte{0x1D, 0x50, 0x68}, bus.Scan(0x00, 0xFF))
	assert.Equal(t, []byte{0x50}, bus.Scan(0x20, 0x60))
	assert.Empty(t, bus.Scan(0x69, 0x7F))
}

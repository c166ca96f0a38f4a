package twi_test

import (
	"errors"
	"testing"

	"github.com/BertoldVdb/twi-tools/twi"
	"github.com/BertoldVdb/twi-tools/twisim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testClock = 16000000

func newTestBus(t *testing.T, config twisim.Config, freq uint32) (*twi.Bus, *twisim.Controller) {
	sim := twisim.New(config)
	bus := twi.New(sim, twi.Config{SystemClockHz: testClock})
	if freq > 0 {
		require.NoError(t, bus.Initialize(freq))
	}
	sim.ResetOps()
	return bus, sim
}

func TestInitialize(t *testing.T) {
	testCases := []struct {
		clock   uint32
		freq    uint32
		timeout uint32
		twbr    byte
	}{
		{16000000, 100000, 160, 72},
		{16000000, 400000, 40, 12},
		{16000000, 1000000, 16, 0},
		{16000000, 50000, 320, 152},
		{8000000, 100000, 80, 32},
		{20000000, 400000, 50, 17},
	}

	for _, tc := range testCases {
		sim := twisim.New(twisim.Config{})
		bus := twi.New(sim, twi.Config{SystemClockHz: tc.clock})

		require.NoError(t, bus.Initialize(tc.freq))
		assert.Equal(t, tc.timeout, bus.Timeout(), "timeout for %d Hz", tc.freq)
		assert.Equal(t, tc.freq, bus.Frequency())

		assert.Equal(t, []twisim.Op{
			{Kind: twisim.OpWrite, Reg: twi.RegStatus, Value: 0},
			{Kind: twisim.OpWrite, Reg: twi.RegBaudRate, Value: tc.twbr},
		}, sim.Writes(), "registers for %d Hz", tc.freq)

		twbr, err := twi.BaudRateValue(tc.clock, tc.freq)
		require.NoError(t, err)
		assert.Equal(t, tc.twbr, twbr)
	}
}

func TestInitializeRejectsFrequency(t *testing.T) {
	for _, freq := range []uint32{0, 1000001, 2000000, 10000} {
		sim := twisim.New(twisim.Config{})
		bus := twi.New(sim, twi.Config{SystemClockHz: testClock})

		err := bus.Initialize(freq)
		assert.ErrorIs(t, err, twi.ErrorInvalidFrequency, "frequency %d", freq)
		assert.Zero(t, bus.Timeout())
		assert.Empty(t, sim.Ops())
	}
}

func TestStartTimeout(t *testing.T) {
	bus, sim := newTestBus(t, twisim.Config{Stuck: true}, 100000)

	err := bus.Start()
	require.ErrorIs(t, err, twi.ErrorTimeout)
	assert.Equal(t, int(bus.Timeout())+1, sim.ControlReads())
}

func TestStartUninitialized(t *testing.T) {
	bus, sim := newTestBus(t, twisim.Config{Latency: 2}, 0)

	require.ErrorIs(t, bus.Start(), twi.ErrorTimeout)
	assert.Equal(t, 1, sim.ControlReads())
}

func TestStartLatencyBound(t *testing.T) {
	/* 1 MHz bus on a 16 MHz clock gives a timeout of 16 polls */
	bus, sim := newTestBus(t, twisim.Config{Latency: 17}, 1000000)
	require.Equal(t, uint32(16), bus.Timeout())
	require.NoError(t, bus.Start())
	assert.Equal(t, 17, sim.ControlReads())

	bus, sim = newTestBus(t, twisim.Config{Latency: 18}, 1000000)
	require.ErrorIs(t, bus.Start(), twi.ErrorTimeout)
	assert.Equal(t, 17, sim.ControlReads())
}

func TestStart(t *testing.T) {
	bus, sim := newTestBus(t, twisim.Config{Latency: 3}, 100000)

	require.NoError(t, bus.Start())
	assert.Equal(t, twi.StatusStart, bus.Status())
	assert.Equal(t, []twisim.Op{
		{Kind: twisim.OpWrite, Reg: twi.RegControl, Value: twi.TWINT | twi.TWSTA | twi.TWEN},
	}, sim.Writes())
}

func TestStartUnexpectedStatus(t *testing.T) {
	bus, sim := newTestBus(t, twisim.Config{}, 100000)
	sim.InjectStatus(twi.StatusBusError)

	err := bus.Start()
	require.ErrorIs(t, err, twi.ErrorUnexpectedStatus)
	assert.NotErrorIs(t, err, twi.ErrorTimeout)

	var se *twi.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "start", se.Op)
	assert.Equal(t, twi.StatusBusError, se.Observed)
	assert.Equal(t, twi.StatusStart, se.Expected)
	assert.Equal(t, 1, sim.ControlReads())
}

func TestStop(t *testing.T) {
	bus, sim := newTestBus(t, twisim.Config{Latency: 4}, 100000)

	require.NoError(t, bus.Start())
	require.NoError(t, bus.Stop())

	writes := sim.Writes()
	assert.Equal(t, twisim.Op{Kind: twisim.OpWrite, Reg: twi.RegControl, Value: twi.TWINT | twi.TWSTO | twi.TWEN}, writes[len(writes)-1])

	sim.SetStuck(true)
	sim.ResetOps()
	require.ErrorIs(t, bus.Stop(), twi.ErrorTimeout)
	assert.Equal(t, int(bus.Timeout())+1, sim.ControlReads())
}

func TestRestart(t *testing.T) {
	bus, sim := newTestBus(t, twisim.Config{}, 100000)
	sim.Attach(0x50, twisim.NewMemory())

	require.NoError(t, bus.Start())
	require.NoError(t, bus.SendByteExpect(0xA0, twi.StatusMTSlaAck))
	require.NoError(t, bus.Restart())
	assert.Equal(t, twi.StatusRepStart, bus.Status())
	require.NoError(t, bus.Stop())

	/* On an idle bus the controller reports a plain START */
	err := bus.Restart()
	var se *twi.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "restart", se.Op)
	assert.Equal(t, twi.StatusStart, se.Observed)
	assert.Equal(t, twi.StatusRepStart, se.Expected)
}

func TestRestartPropagatesTimeout(t *testing.T) {
	bus, sim := newTestBus(t, twisim.Config{}, 100000)

	require.NoError(t, bus.Start())
	sim.SetStuck(true)

	err := bus.Restart()
	require.ErrorIs(t, err, twi.ErrorTimeout)
	assert.NotErrorIs(t, err, twi.ErrorUnexpectedStatus)
}

func TestSendByteTimeout(t *testing.T) {
	bus, sim := newTestBus(t, twisim.Config{}, 400000)
	require.NoError(t, bus.Start())

	sim.SetStuck(true)
	sim.ResetOps()
	require.ErrorIs(t, bus.SendByte(0x42), twi.ErrorTimeout)
	assert.Equal(t, 41, sim.ControlReads())
}

func TestSendByteDoesNotCheckAck(t *testing.T) {
	bus, _ := newTestBus(t, twisim.Config{}, 100000)

	require.NoError(t, bus.Start())
	require.NoError(t, bus.SendByte(0xA0))
	assert.Equal(t, twi.StatusMTSlaNack, bus.Status())

	err := bus.SendByteExpect(0x00, twi.StatusMTDataAck)
	assert.ErrorIs(t, err, twi.ErrorUnexpectedStatus)
}

func TestReadByteTimeout(t *testing.T) {
	reads := map[string]func(*twi.Bus) (byte, error){
		"ack":  (*twi.Bus).ReadByteWithAck,
		"nack": (*twi.Bus).ReadByteWithoutAck,
	}

	for name, read := range reads {
		bus, sim := newTestBus(t, twisim.Config{}, 100000)
		sim.Attach(0x50, twisim.NewMemory())
		require.NoError(t, bus.Start(), name)
		require.NoError(t, bus.SendByteExpect(0xA1, twi.StatusMRSlaAck), name)

		sim.SetStuck(true)
		sim.ResetOps()

		value, err := read(bus)
		assert.ErrorIs(t, err, twi.ErrorTimeout, name)
		assert.Equal(t, byte(0), value, name)
		assert.Equal(t, 161, sim.ControlReads(), name)

		for _, m := range sim.Ops() {
			assert.NotEqual(t, twisim.Op{Kind: twisim.OpRead, Reg: twi.RegData, Value: m.Value}, m, name)
		}
	}
}

func TestReadByteStatus(t *testing.T) {
	bus, sim := newTestBus(t, twisim.Config{}, 100000)
	mem := twisim.NewMemory()
	mem.Data[0] = 0x5A
	sim.Attach(0x50, mem)

	require.NoError(t, bus.Start())
	require.NoError(t, bus.SendByteExpect(0xA1, twi.StatusMRSlaAck))

	sim.InjectStatus(twi.StatusMRDataNack)
	_, err := bus.ReadByteWithAck()
	var se *twi.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, twi.StatusMRDataAck, se.Expected)

	sim.InjectStatus(twi.StatusArbLost)
	_, err = bus.ReadByteWithoutAck()
	require.ErrorIs(t, err, twi.ErrorUnexpectedStatus)
}

func TestRoundTrip(t *testing.T) {
	bus, sim := newTestBus(t, twisim.Config{Latency: 2}, 100000)
	mem := twisim.NewMemory()
	mem.Data[0x10] = 0xDE
	mem.Data[0x11] = 0xAD
	sim.Attach(0xA2>>1, mem)

	require.NoError(t, bus.Start())
	assert.Equal(t, twi.StatusStart, bus.Status())

	require.NoError(t, bus.SendByte(0xA2))
	assert.Equal(t, twi.StatusMTSlaAck, bus.Status())

	require.NoError(t, bus.SendByte(0x10))
	assert.Equal(t, twi.StatusMTDataAck, bus.Status())

	require.NoError(t, bus.Restart())
	assert.Equal(t, twi.StatusRepStart, bus.Status())

	require.NoError(t, bus.SendByte(0xA3))
	assert.Equal(t, twi.StatusMRSlaAck, bus.Status())

	first, err := bus.ReadByteWithAck()
	require.NoError(t, err)
	assert.Equal(t, byte(0xDE), first)
	assert.True(t, mem.LastAck())

	second, err := bus.ReadByteWithoutAck()
	require.NoError(t, err)
	assert.Equal(t, byte(0xAD), second)
	assert.False(t, mem.LastAck())

	require.NoError(t, bus.Stop())
	assert.Equal(t, byte(0x12), mem.Pointer())
}

func TestFailuresAreLogged(t *testing.T) {
	var levels []int
	sim := twisim.New(twisim.Config{Stuck: true})
	bus := twi.New(sim, twi.Config{
		SystemClockHz: testClock,
		LogFunc: func(level int, format string, param ...interface{}) {
			levels = append(levels, level)
		},
	})

	require.NoError(t, bus.Initialize(100000))
	require.Error(t, bus.Start())
	assert.Equal(t, []int{1, 2}, levels)
}

package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/BertoldVdb/twi-tools/bridge"
	"github.com/BertoldVdb/twi-tools/regmap"
	"github.com/BertoldVdb/twi-tools/twi"
	"github.com/BertoldVdb/twi-tools/twisim"
	"github.com/alecthomas/kong"
)

type Context struct {
	bus    *twi.Bus
	regs   *regmap.Window
	region regmap.MemoryRegion
	layout regmap.Layout
}

var CLI struct {
	Backend  string `optional help:"Where the TWI controller lives: sim, hid or serial." default:"sim"`
	Layout   string `optional help:"Register layout of the target MCU." default:"atmega328p"`
	CPUHz    int    `optional name:"cpu-hz" help:"System clock of the target in Hz." default:"16000000"`
	Freq     int    `optional help:"Bus frequency in Hz." default:"100000"`
	NoInit   bool   `optional help:"Do not program the bit-rate generator. Checked operations time out immediately."`
	LogLevel int    `optional help:"Higher values give more output."`

	VID     int    `optional type:"hex" help:"The USB Vendor ID of the HID bridge."`
	PID     int    `optional type:"hex" help:"The USB Product ID of the HID bridge."`
	Serial  string `optional help:"The USB Serial of the HID bridge."`
	RawPath string `optional help:"The USB Device Path of the HID bridge."`

	Port string `optional help:"Serial port of the serial bridge."`
	Baud int    `optional help:"Baud rate of the serial bridge." default:"115200"`

	SimDevice  []string `optional name:"sim-device" help:"Address of a simulated memory device, may be repeated." default:"0x50"`
	SimLatency int      `optional help:"Control register polls before a simulated operation completes." default:"4"`
	SimStuck   bool     `optional help:"Simulate a bus whose operations never complete."`

	ListDev ListHIDCmd `cmd help:"List HID devices."`

	Regs     RegsCmd     `cmd help:"Show and decode the TWI registers."`
	RegWrite RegWriteCmd `cmd name:"reg-write" help:"Write a TWI register."`
	Dump     DumpCmd     `cmd help:"Read and dump target memory."`
	Status   StatusCmd   `cmd help:"Show the bus configuration and status code."`

	I2CScan     I2CScan     `cmd name:"i2c-scan" help:"Scan I2C bus and show discovered devices."`
	I2CProbe    I2CProbe    `cmd name:"i2c-probe" help:"Check whether a device answers at an address."`
	I2CTransfer I2CTransfer `cmd name:"i2c-txfr" help:"Perform I2C transfer."`
	I2CSeq      I2CSeq      `cmd name:"i2c-seq" help:"Run a sequence of bus primitives."`
}

func logFunc(level int, format string, param ...interface{}) {
	if level > CLI.LogLevel {
		return
	}
	str := fmt.Sprintf(format, param...)
	fmt.Printf("TWI(%d): %s\n", level, str)
}

func parseAddr(s string) (byte, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 7)
	if err != nil {
		return 0, fmt.Errorf("invalid device address %q: %w", s, err)
	}
	return byte(v), nil
}

func openBackend(layout regmap.Layout) (regmap.MemoryRegion, io.Closer, error) {
	switch CLI.Backend {
	case "sim":
		sim := twisim.New(twisim.Config{
			Latency: CLI.SimLatency,
			Stuck:   CLI.SimStuck,
			LogFunc: logFunc,
		})
		for _, m := range CLI.SimDevice {
			addr, err := parseAddr(m)
			if err != nil {
				return nil, nil, err
			}
			sim.Attach(addr, twisim.NewMemory())
		}
		return regmap.NewRegisterRegion("DATA", sim, layout, 0x100), nil, nil

	case "hid":
		dev, err := OpenDevice()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open HID bridge: %w", err)
		}
		return bridge.NewHID(dev, bridge.HIDConfig{LogFunc: logFunc}).Region("DATA"), dev, nil

	case "serial":
		s, err := bridge.OpenSerial(bridge.SerialConfig{
			Device:  CLI.Port,
			Baud:    CLI.Baud,
			LogFunc: logFunc,
		})
		if err != nil {
			return nil, nil, err
		}
		return s.Region("DATA"), s, nil
	}

	return nil, nil, fmt.Errorf("unknown backend %q", CLI.Backend)
}

func main() {
	k, err := kong.New(&CLI,
		kong.NamedMapper("int", intMapper{}),
		kong.NamedMapper("hex", intMapper{base: 16}))
	if err != nil {
		fmt.Println(err)
		return
	}

	ctx, err := k.Parse(os.Args[1:])
	if err != nil {
		fmt.Println(err)
		return
	}

	c := &Context{}
	if ctx.Command() != "list-dev" {
		c.layout, err = regmap.LayoutByName(CLI.Layout)
		if err != nil {
			fmt.Println(err)
			return
		}

		region, closer, err := openBackend(c.layout)
		if err != nil {
			fmt.Println("Failed to open backend", err)
			return
		}
		if closer != nil {
			defer closer.Close()
		}

		c.region = region
		c.regs = regmap.NewWindow(region, c.layout)
		c.bus = twi.New(c.regs, twi.Config{
			SystemClockHz: uint32(CLI.CPUHz),
			LogFunc:       logFunc,
		})

		if !CLI.NoInit {
			if err := c.bus.Initialize(uint32(CLI.Freq)); err != nil {
				fmt.Println("Failed to initialize bus", err)
				return
			}
			if err := c.regs.Err(); err != nil {
				fmt.Println("Failed to initialize bus", err)
				return
			}
		}
	}

	err = ctx.Run(c)
	ctx.FatalIfErrorf(err)
}

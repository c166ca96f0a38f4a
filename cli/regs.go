package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BertoldVdb/twi-tools/regmap"
	"github.com/BertoldVdb/twi-tools/twi"
	"github.com/fatih/color"
	"github.com/inancgumus/screen"
)

var controlBits = []struct {
	mask byte
	name string
}{
	{twi.TWINT, "TWINT"},
	{twi.TWEA, "TWEA"},
	{twi.TWSTA, "TWSTA"},
	{twi.TWSTO, "TWSTO"},
	{twi.TWWC, "TWWC"},
	{twi.TWEN, "TWEN"},
	{twi.TWIE, "TWIE"},
}

func decodeRegister(reg twi.Register, value byte) string {
	switch reg {
	case twi.RegControl:
		var set []string
		for _, m := range controlBits {
			if value&m.mask != 0 {
				set = append(set, m.name)
			}
		}
		return strings.Join(set, " ")

	case twi.RegStatus:
		return fmt.Sprintf("%s, prescaler %d", twi.StatusFromRegister(value), 1<<(2*(value&3)))

	case twi.RegBaudRate:
		return fmt.Sprintf("SCL %d Hz with prescaler 1", uint32(CLI.CPUHz)/(16+2*uint32(value)))
	}
	return ""
}

// registerLine shows reg at offset inside block, addressed in the root
// region it belongs to.
func registerLine(block regmap.MemoryRegion, offset int, reg twi.Register, value byte) string {
	root, addr := regmap.RecursiveGetParentAddress(block, offset)
	return fmt.Sprintf("%-9s| %4s.%04X |   0x%02x | %s", reg, root.GetName(), addr, value, decodeRegister(reg, value))
}

type RegsCmd struct {
	Loop bool `optional help:"Redraw continuously and mark registers that changed since the previous iteration."`
}

func (l *RegsCmd) Run(c *Context) error {
	low, size := c.layout.Span()
	block := regmap.WrapPartial("TWI", c.region, low, size)

	changed := color.New(color.FgRed)

	var oldBuf []byte
	for {
		startTime := time.Now()

		buf := make([]byte, size)
		if _, err := block.Access(false, 0, buf); err != nil {
			return fmt.Errorf("Read error: %s", err.Error())
		}

		mark := make([]bool, size)
		if oldBuf != nil {
			for i, m := range oldBuf {
				mark[i] = m != buf[i]
			}
		}

		if l.Loop {
			screen.Clear()
			screen.MoveTopLeft()
		}

		fmt.Printf("Register | Address   |  Value | (%s)\n", c.layout.Name)
		for _, reg := range []twi.Register{twi.RegControl, twi.RegStatus, twi.RegData, twi.RegBaudRate} {
			offset := c.layout.Address(reg) - low
			line := registerLine(block, offset, reg, buf[offset])
			if mark[offset] {
				changed.Println(line)
			} else {
				fmt.Println(line)
			}
		}

		if size > 4 {
			fmt.Println()
			fmt.Print(hexdump(low, buf, mark))
		}

		oldBuf = buf

		if !l.Loop {
			break
		}
		d := time.Now().Sub(startTime)
		td := 200 * time.Millisecond
		if d < td {
			time.Sleep(td - d)
		}
	}

	return nil
}

type RegWriteCmd struct {
	Reg   string `arg name:"reg" help:"Register to write: TWCR, TWSR, TWDR or TWBR."`
	Value int    `arg name:"value" help:"Value to write." type:"int"`
}

func (w *RegWriteCmd) Run(c *Context) error {
	for _, reg := range []twi.Register{twi.RegControl, twi.RegStatus, twi.RegData, twi.RegBaudRate} {
		if strings.EqualFold(reg.String(), w.Reg) {
			c.regs.WriteRegister(reg, byte(w.Value))
			return c.regs.Err()
		}
	}
	return fmt.Errorf("Unknown register %q", w.Reg)
}

type StatusCmd struct {
}

func (s *StatusCmd) Run(c *Context) error {
	status := c.bus.Status()
	if err := c.regs.Err(); err != nil {
		return err
	}

	fmt.Printf("Layout:    %s\n", c.layout.Name)
	fmt.Printf("Clock:     %d Hz\n", CLI.CPUHz)
	if c.bus.Frequency() > 0 {
		fmt.Printf("Bus:       %d Hz\n", c.bus.Frequency())
	} else {
		fmt.Printf("Bus:       not initialized\n")
	}
	fmt.Printf("Timeout:   %d polls\n", c.bus.Timeout())
	fmt.Printf("Status:    %s\n", status)
	return nil
}

type DumpCmd struct {
	Filename string `optional help:"File to write dump to."`

	Addr   int `arg name:"addr" help:"Data space address to start at." type:"int"`
	Amount int `arg name:"amount" help:"Number of bytes to read." optional default:"256"`
}

func (l *DumpCmd) Run(c *Context) error {
	if l.Amount <= 0 {
		return errors.New("Amount must be positive")
	}

	buf := make([]byte, l.Amount)
	n, err := c.region.Access(false, l.Addr, buf)
	if err != nil {
		return fmt.Errorf("Read error: %s", err.Error())
	}
	buf = buf[:n]

	if l.Filename != "" {
		return os.WriteFile(l.Filename, buf, 0644)
	}

	fmt.Println(hexdump(l.Addr, buf, nil))
	return nil
}

package main

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/BertoldVdb/twi-tools/i2cbus"
	"github.com/fatih/color"
)

type I2CScan struct {
}

func (l *I2CScan) Run(c *Context) error {
	found := color.New(color.FgGreen)

	fmt.Printf("Detected I2C devices:\r\n   ")
	for i := 0; i < 16; i++ {
		fmt.Printf("%02X ", i)
	}
	for i := byte(0); i < 0x80; i++ {
		ok := c.bus.CheckDeviceByAddress(i)
		if err := c.regs.Err(); err != nil {
			fmt.Println()
			return err
		}

		if i&15 == 0 {
			fmt.Printf("\r\n%02x ", i)
		}

		if ok {
			found.Printf("%02X ", i)
		} else {
			fmt.Printf("-- ")
		}
	}
	fmt.Println()
	return nil
}

type I2CProbe struct {
	Addr int `arg name:"addr" help:"I2C device address" type:"int"`
}

func (l *I2CProbe) Run(c *Context) error {
	if l.Addr < 0 || l.Addr > 0x7F {
		return i2cbus.ErrorAddressRange
	}

	ok := c.bus.CheckDeviceByAddress(byte(l.Addr))
	if err := c.regs.Err(); err != nil {
		return err
	}

	if ok {
		fmt.Printf("Device %02X: present\n", l.Addr)
	} else {
		fmt.Printf("Device %02X: absent\n", l.Addr)
	}
	return nil
}

type I2CTransfer struct {
	Addr int `arg name:"addr" help:"I2C device address" type:"int"`

	Write string `optional help:"Hex string to write to device"`
	Read  int    `optional help:"Number of bytes to read back"`
}

func (l *I2CTransfer) Run(c *Context) error {
	if l.Addr < 0 || l.Addr > 0x7F {
		return i2cbus.ErrorAddressRange
	}

	wrBuf, err := hex.DecodeString(l.Write)
	if err != nil {
		return err
	}

	rdBuf := make([]byte, l.Read)
	if err := i2cbus.New(c.bus).Tx(uint16(l.Addr), wrBuf, rdBuf); err != nil {
		return err
	}

	if len(rdBuf) > 0 {
		fmt.Println(hexdump(0, rdBuf, nil))
	}
	return nil
}

type I2CSeq struct {
	Unchecked bool `optional help:"Use the unchecked primitives. These wait forever for a bus that does not respond."`

	Steps []string `arg name:"steps" help:"S=start, R=repeated start, P=stop, r+=read with ACK, r-=read with NACK, a hex byte is sent."`
}

func (l *I2CSeq) Run(c *Context) error {
	for _, step := range l.Steps {
		var err error
		if l.Unchecked {
			err = l.runUnchecked(c, step)
		} else {
			err = l.runChecked(c, step)
		}
		if err == nil {
			err = c.regs.Err()
		}
		if err != nil {
			return fmt.Errorf("%s: %w", step, err)
		}
	}
	return nil
}

func parseSendStep(step string) (byte, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(step), "0x"), 16, 8)
	if err != nil {
		return 0, fmt.Errorf("Invalid sequence step %q", step)
	}
	return byte(v), nil
}

func (l *I2CSeq) runChecked(c *Context, step string) error {
	var err error
	switch step {
	case "S":
		err = c.bus.Start()
	case "R":
		err = c.bus.Restart()
	case "P":
		err = c.bus.Stop()
	case "r+", "r-":
		var value byte
		if step == "r+" {
			value, err = c.bus.ReadByteWithAck()
		} else {
			value, err = c.bus.ReadByteWithoutAck()
		}
		if err == nil {
			fmt.Printf("%-4s -> 0x%02x\n", step, value)
			return nil
		}
	default:
		var value byte
		if value, err = parseSendStep(step); err != nil {
			return err
		}
		err = c.bus.SendByte(value)
	}
	if err != nil {
		return err
	}

	fmt.Printf("%-4s ok, status %s\n", step, c.bus.Status())
	return nil
}

func (l *I2CSeq) runUnchecked(c *Context, step string) error {
	u := c.bus.Unchecked()
	switch step {
	case "S":
		u.Start()
	case "R":
		u.Restart()
	case "P":
		u.Stop()
	case "r+":
		fmt.Printf("%-4s -> 0x%02x\n", step, u.ReadByteWithAck())
		return nil
	case "r-":
		fmt.Printf("%-4s -> 0x%02x\n", step, u.ReadByteWithoutAck())
		return nil
	default:
		value, err := parseSendStep(step)
		if err != nil {
			return err
		}
		u.SendByte(value)
	}

	fmt.Printf("%-4s done, status %s\n", step, c.bus.Status())
	return nil
}

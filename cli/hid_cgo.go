// +build !puregohid

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/BertoldVdb/twi-tools/gohid"
	"github.com/sstallion/go-hid"
)

func SearchDevice(foundHandler func(info *hid.DeviceInfo) error) error {
	if err := hid.Init(); err != nil {
		return err
	}

	return hid.Enumerate(uint16(CLI.VID), uint16(CLI.PID), func(info *hid.DeviceInfo) error {
		if CLI.Serial != "" && info.SerialNbr != CLI.Serial {
			return nil
		}
		if CLI.RawPath != "" && info.Path != CLI.RawPath {
			return nil
		}

		return foundHandler(info)
	})
}

var errFound = errors.New("Found")

func OpenDevice() (gohid.HIDDevice, error) {
	var dev *hid.Device
	err := SearchDevice(func(info *hid.DeviceInfo) error {
		d, err := hid.Open(info.VendorID, info.ProductID, info.SerialNbr)
		if err == nil {
			dev = d
			return errFound
		}
		return err
	})
	if dev != nil {
		return hidSession{HIDDevice: dev, exit: hid.Exit}, nil
	}
	if err == nil {
		err = os.ErrNotExist
	}

	hid.Exit()
	return nil, err
}

type ListHIDCmd struct {
}

func (l *ListHIDCmd) Run(c *Context) error {
	defer hid.Exit()

	return SearchDevice(func(info *hid.DeviceInfo) error {
		fmt.Printf("%s: ID %04x:%04x %s %s\n",
			info.Path, info.VendorID, info.ProductID, info.MfrStr, info.ProductStr)
		fmt.Println("Device Information:")
		fmt.Printf("\tPath         %s\n", info.Path)
		fmt.Printf("\tSerialNbr    %s\n", info.SerialNbr)
		fmt.Printf("\tReleaseNbr   %x.%x\n", info.ReleaseNbr>>8, info.ReleaseNbr&0xff)
		fmt.Printf("\tUsagePage    %#x\n", info.UsagePage)
		fmt.Printf("\tInterfaceNbr %d\n", info.InterfaceNbr)
		fmt.Println()

		return nil
	})
}

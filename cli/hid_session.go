package main

import "github.com/BertoldVdb/twi-tools/gohid"

// hidSession ties the lifetime of a HID library to the device opened with
// it.
type hidSession struct {
	gohid.HIDDevice
	exit func() error
}

func (s hidSession) Close() error {
	err := s.HIDDevice.Close()
	if exitErr := s.exit(); err == nil {
		err = exitErr
	}
	return err
}

// +build puregohid

package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/BertoldVdb/twi-tools/gohid"
)

func OpenDevice() (gohid.HIDDevice, error) {
	if CLI.RawPath == "" {
		return nil, errors.New("--raw-path must be specified when using pure GO HID")
	}

	return gohid.OpenHID(CLI.RawPath)
}

type ListHIDCmd struct {
}

// Without hidapi there is no descriptor information, only the raw nodes.
func (l *ListHIDCmd) Run(c *Context) error {
	nodes, err := filepath.Glob("/dev/hidraw*")
	if err != nil {
		return err
	}
	for _, m := range nodes {
		fmt.Println(m)
	}
	return nil
}

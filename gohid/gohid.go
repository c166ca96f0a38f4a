// Package gohid opens Linux hidraw nodes without cgo.
package gohid

import "errors"

// HIDDevice is the part of a HID device the bridge needs. It is satisfied
// by *hid.Device from github.com/sstallion/go-hid as well as by Hidraw.
type HIDDevice interface {
	GetFeatureReport(b []byte) (int, error)
	SendFeatureReport(b []byte) (int, error)
	Close() error
}

var (
	ErrorTooLong     = errors.New("Transfer is too long")
	ErrorUnsupported = errors.New("hidraw is not available on this platform")
)

func OpenHID(path string) (HIDDevice, error) {
	return openHIDInternal(path)
}

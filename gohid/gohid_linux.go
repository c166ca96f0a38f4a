//go:build linux
// +build linux

package gohid

import (
	"fmt"
	"os"
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	/* HIDIOCSFEATURE(0) and HIDIOCGFEATURE(0), the length goes in bits 16..29 */
	hidiocSFeature = 0xC0004806
	hidiocGFeature = 0xC0004807

	maxReportLen = 256
)

type Hidraw struct {
	dev *os.File
}

func openHIDInternal(path string) (HIDDevice, error) {
	dev, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}

	return &Hidraw{
		dev: dev,
	}, nil
}

func (h *Hidraw) ioctl(name string, request uint32, buf *[maxReportLen]byte, length int) error {
	_, _, errno := unix.Syscall(
		unix.SYS_IOCTL,
		h.dev.Fd(),
		uintptr(request|uint32(length)<<16),
		uintptr(unsafe.Pointer(buf)),
	)
	runtime.KeepAlive(buf)

	if errno != 0 {
		return os.NewSyscallError(name, fmt.Errorf("errno %d", int(errno)))
	}
	return nil
}

func (h *Hidraw) SendFeatureReport(b []byte) (int, error) {
	var tmp [maxReportLen]byte
	if len(b) > len(tmp) {
		return 0, ErrorTooLong
	}

	copy(tmp[:], b)
	if err := h.ioctl("SendFeatureReport", hidiocSFeature, &tmp, len(b)); err != nil {
		return 0, err
	}
	return len(b), nil
}

func (h *Hidraw) GetFeatureReport(b []byte) (int, error) {
	var tmp [maxReportLen]byte
	if len(b) > len(tmp) {
		return 0, ErrorTooLong
	}

	/* The first byte selects the report ID */
	copy(tmp[:1], b)
	if err := h.ioctl("GetFeatureReport", hidiocGFeature, &tmp, len(b)); err != nil {
		return 0, err
	}
	return copy(b, tmp[:]), nil
}

func (h *Hidraw) Close() error {
	return h.dev.Close()
}

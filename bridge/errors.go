package bridge

import "errors"

var (
	ErrorInvalidResponse = errors.New("Received invalid response")
	ErrorChecksum        = errors.New("Frame checksum mismatch")
	ErrorTimeout         = errors.New("The target did not answer in time")
)

package twi

import (
	"errors"
	"fmt"
)

var (
	ErrorTimeout          = errors.New("The bus did not respond in time")
	ErrorUnexpectedStatus = errors.New("Unexpected bus status")
	ErrorInvalidFrequency = errors.New("Bus frequency out of range")
)

// StatusError reports that the controller finished an operation in a
// different protocol state than the operation requires.
type StatusError struct {
	Op       string
	Observed Status
	Expected Status
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %s, expected %s", e.Op, e.Observed, e.Expected)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrorUnexpectedStatus
}

package main

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/alecthomas/kong"
)

// intMapper parses integers in the given base, or with a C style prefix
// when base is zero.
type intMapper struct {
	base int
}

func (h intMapper) Decode(ctx *kong.DecodeContext, target reflect.Value) error {
	var value string
	if err := ctx.Scan.PopValueInto("int", &value); err != nil {
		return err
	}

	i, err := strconv.ParseInt(value, h.base, 64)
	if err != nil {
		return fmt.Errorf("invalid number %q: %w", value, err)
	}
	if target.OverflowInt(i) {
		return fmt.Errorf("number %q out of range", value)
	}

	target.SetInt(i)
	return nil
}

package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

const hexdumpWidth = 16

// hexdump formats data space bytes, printing marked bytes in red.
func hexdump(offset int, data []byte, mark []bool) string {
	var result strings.Builder
	red := color.New(color.FgRed)

	for line := 0; line < len(data); line += hexdumpWidth {
		end := line + hexdumpWidth
		if end > len(data) {
			end = len(data)
		}

		var workHex, workAscii strings.Builder
		for i := line; i < line+hexdumpWidth; i++ {
			if i >= end {
				workHex.WriteString("   ")
				workAscii.WriteByte(' ')
			} else {
				m := data[i]
				p := func(format string, a ...interface{}) string { return fmt.Sprintf(format, a...) }
				if mark != nil && mark[i] {
					p = red.Sprintf
				}

				workHex.WriteString(p("%02x ", m))
				if m < 32 || m > 126 {
					m = '.'
				}
				workAscii.WriteString(p("%c", m))
			}
			if i%8 == 7 {
				workHex.WriteByte(' ')
			}
		}

		fmt.Fprintf(&result, "%04x  %s|%s|\n", offset+line, workHex.String(), workAscii.String())
	}

	return result.String()
}

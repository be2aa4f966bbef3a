package main

import (
	"fmt"
	"strconv"
	"strings"
)

// parseHexBytes parses whitespace-separated two-digit hexadecimal tokens
// ("01 a0 ff") into bytes. Length limits are the remote write's problem.
func parseHexBytes(tokens []string) ([]byte, error) {
	data := make([]byte, 0, len(tokens))
	for _, tok := range tokens {
		for _, field := range strings.Fields(tok) {
			if len(field) != 2 {
				return nil, fmt.Errorf("invalid hex byte %q: want two hex digits", field)
			}
			b, err := strconv.ParseUint(field, 16, 8)
			if err != nil {
				return nil, fmt.Errorf("invalid hex byte %q: %w", field, err)
			}
			data = append(data, byte(b))
		}
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("no hex bytes given")
	}
	return data, nil
}

// hexDump renders bytes as "0x01 02 ff  (.,~)": hex pairs followed by the
// printable-ASCII projection with dots for control bytes.
func hexDump(data []byte) string {
	var sb strings.Builder
	sb.WriteString("0x")
	for i, b := range data {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02x", b)
	}
	sb.WriteString("  (")
	for _, b := range data {
		if b >= 32 && b < 127 {
			sb.WriteByte(b)
		} else {
			sb.WriteByte('.')
		}
	}
	sb.WriteByte(')')
	return sb.String()
}

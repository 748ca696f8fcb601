package css

import (
	"fmt"
	"strings"
)

// EscapeStringLiteral escapes arbitrary text for embedding inside a
// double-quoted host-language string literal. Backslashes and double quotes
// get a backslash prefix, the common control characters use their short
// escapes and any other C0 byte is emitted as \uXXXX. Unescaping the result
// reproduces the input byte for byte.
func EscapeStringLiteral(s string) string {
	// Fast path: nothing to escape.
	if !strings.ContainsAny(s, "\"\\\n\r\t") && !hasControl(s) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(&b, `\u%04x`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}

func hasControl(s string) bool {
	for _, r := range s {
		if r < 0x20 {
			return true
		}
	}
	return false
}

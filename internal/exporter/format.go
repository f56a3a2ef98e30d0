package exporter

import "strings"

// escapeCell applies the CSV quoting rule: a cell is wrapped in double
// quotes, with embedded quotes doubled, if and only if it contains a
// comma, a double quote, or a line break. All other cells pass through
// untouched, including the empty string for null cells.
//
// encoding/csv is deliberately not used here: its writer also quotes
// fields with a leading space, which changes the wire format this
// encoder is contracted to produce.
func escapeCell(s string) string {
	if !strings.ContainsAny(s, ",\"\r\n") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		if s[i] == '"' {
			b.WriteByte('"')
		}
		b.WriteByte(s[i])
	}
	b.WriteByte('"')
	return b.String()
}

package geo

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// FixMojibake repairs UTF-8 text that was decoded as Latin-1 somewhere
// upstream ("ZÃ¼rich" becomes "Zürich"). Strings that do not round-trip
// cleanly are returned unchanged.
func FixMojibake(s string) string {
	if !strings.ContainsAny(s, "ÃÂ") {
		return s
	}
	raw, err := charmap.ISO8859_1.NewEncoder().String(s)
	if err != nil || !utf8.ValidString(raw) {
		return s
	}
	return raw
}

// CleanAttribute trims the padding shapefile DBF fields carry.
func CleanAttribute(s string) string {
	return strings.TrimSpace(strings.TrimRight(s, "\x00"))
}

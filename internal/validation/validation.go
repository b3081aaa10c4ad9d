package validation

import (
	"errors"
	"strings"
	"unicode"
)

// ErrValueEmpty is returned when a control value is empty or whitespace-only after trim.
var ErrValueEmpty = errors.New("value is required")

// ErrValueTooLong is returned when a control value exceeds the maximum length.
var ErrValueTooLong = errors.New("value too long")

// ErrValueInvalidChars is returned when a value contains characters that could
// break out of an upstream query (quotes, brackets, semicolons).
var ErrValueInvalidChars = errors.New("value contains invalid characters")

// ErrInvalidCountryCode is returned for anything but a two-letter ISO 3166-1 code.
var ErrInvalidCountryCode = errors.New("invalid country code")

// ValidateToken trims the input, enforces maxLen (in runes) and restricts it to
// letters, digits, '_' and '-'. Used for OSM tag values and API endpoint ids
// before they reach an upstream query.
func ValidateToken(input string, maxLen int) (string, error) {
	s := strings.TrimSpace(input)
	r := []rune(s)
	if len(r) == 0 {
		return "", ErrValueEmpty
	}
	if maxLen > 0 && len(r) > maxLen {
		return "", ErrValueTooLong
	}
	for _, c := range r {
		if !isAllowedTokenRune(c) {
			return "", ErrValueInvalidChars
		}
	}
	return s, nil
}

func isAllowedTokenRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return true
	}
	switch r {
	case '_', '-':
		return true
	}
	return false
}

// ValidateCountryCode trims and upper-cases s and checks it is two ASCII letters.
func ValidateCountryCode(s string) (string, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) != 2 {
		return "", ErrInvalidCountryCode
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return "", ErrInvalidCountryCode
		}
	}
	return s, nil
}

// Choice returns value when it is one of options, otherwise def. Control
// callbacks never fail on an unknown selection; they fall back to the default.
func Choice(value string, options []string, def string) string {
	for _, o := range options {
		if o == value {
			return value
		}
	}
	return def
}

// Subset keeps the values that are in options, preserving order and dropping duplicates.
func Subset(values, options []string) []string {
	allowed := make(map[string]bool, len(options))
	for _, o := range options {
		allowed[o] = true
	}
	var out []string
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		if allowed[v] && !seen[v] {
			out = append(out, v)
			seen[v] = true
		}
	}
	return out
}

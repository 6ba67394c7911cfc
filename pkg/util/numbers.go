package util

import (
	"regexp"
	"strconv"
	"strings"
)

var numberPattern = regexp.MustCompile(`(\d+(\.\d+)?)`)

// CleanNumeric strips currency symbols, commas and any other character that
// is not a digit, decimal point or minus sign.
func CleanNumeric(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ParseNumber converts a price field to float64. Accepts numbers and
// currency-formatted strings like "$6,100.50". Returns (v, true) if any
// worked.
func ParseNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		cleaned := CleanNumeric(n)
		if cleaned == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// ExtractNumber pulls the first decimal number out of free text, e.g.
// "resistance at 6055.5 looks firm" -> 6055.5.
func ExtractNumber(s string) (float64, bool) {
	m := numberPattern.FindString(s)
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// FormatPrice renders a price with no trailing zeros, matching the shortest
// round-trip representation.
func FormatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

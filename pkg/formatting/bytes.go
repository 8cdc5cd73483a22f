// Package formatting parses and renders human-oriented value formats:
// byte sizes for config limits and JSON bodies embedded in model output.
package formatting

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

var units = []string{
	"B", "KB", "MB",
	"GB", "TB", "PB",
	"EB", "ZB", "YB",
}

var bytesPattern = regexp.MustCompile(`^(\d+\.?\d*)\s*([A-Za-z]*)$`)

// FormatBytes renders n with the largest base-1024 unit that keeps the
// value above 1. Negative precision clamps to zero.
func FormatBytes(n int64, precision int) string {
	if n == 0 {
		return "0 B"
	}
	if precision < 0 {
		precision = 0
	}

	f := float64(n)
	exp := int(math.Floor(math.Log(f) / math.Log(1024)))
	if exp >= len(units) {
		exp = len(units) - 1
	}

	scaled := f / math.Pow(1024, float64(exp))
	return strconv.FormatFloat(scaled, 'f', precision, 64) + " " + units[exp]
}

// ParseBytes reads a size like "50MB" or "1.5 GB" into a byte count.
// Units run B through YB, base 1024, case-insensitive, with an optional
// space before the unit. A bare number counts as bytes.
func ParseBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty byte size string")
	}

	m := bytesPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid byte size: %q", s)
	}

	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid byte size number: %w", err)
	}

	unit := strings.ToUpper(m[2])
	if unit == "" {
		return int64(value), nil
	}

	exp := slices.Index(units, unit)
	if exp == -1 {
		return 0, fmt.Errorf("unknown byte size unit: %q", unit)
	}
	return int64(value * math.Pow(1024, float64(exp))), nil
}

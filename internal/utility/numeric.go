package utility

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// numericPattern accepts decimal numeric strings: surrounding whitespace,
// an optional sign, digits with an optional fraction, an optional exponent.
var numericPattern = regexp.MustCompile(
	`^[ \t\n\r\v\f]*[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?[ \t\n\r\v\f]*$`)

const numericSpace = " \t\n\r\v\f"

// IsNumeric reports whether s is a numeric string.
func IsNumeric(s string) bool {
	return numericPattern.MatchString(s)
}

// LooseEqual compares a and b as numbers when both are numeric strings and
// byte-for-byte otherwise, so "604800" equals "604800.0".
func LooseEqual(a, b string) bool {
	if IsNumeric(a) && IsNumeric(b) {
		x, errA := strconv.ParseFloat(strings.Trim(a, numericSpace), 64)
		y, errB := strconv.ParseFloat(strings.Trim(b, numericSpace), 64)
		if errA == nil && errB == nil {
			return x == y
		}
	}
	return a == b
}

// ToSeconds converts a numeric string to an integer. Fractions truncate
// toward zero and out-of-range values saturate. Non-numeric input yields 0.
func ToSeconds(s string) int {
	if !IsNumeric(s) {
		return 0
	}
	s = strings.Trim(s, numericSpace)

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return int(n)
	} else if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
		if strings.HasPrefix(s, "-") {
			return math.MinInt
		}
		return math.MaxInt
	}

	f, _ := strconv.ParseFloat(s, 64)
	switch {
	case f >= math.MaxInt:
		return math.MaxInt
	case f <= math.MinInt:
		return math.MinInt
	}
	return int(f)
}

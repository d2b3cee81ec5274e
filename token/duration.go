package tokenkit

import (
	"strconv"
	"time"
)

// ParseExpiry parses a relative time expression: an optionally signed
// decimal integer with an optional unit suffix s, m, h, d, or w. A bare
// integer means seconds, so "90", "90s", and "-1" are all valid while
// "soon" and "1.5h" are not.
func ParseExpiry(expr string) (time.Duration, error) {
	if expr == "" {
		return 0, NewError(KindInvalidDuration, "empty duration expression")
	}
	unit := time.Second
	digits := expr
	switch expr[len(expr)-1] {
	case 's':
		digits = expr[:len(expr)-1]
	case 'm':
		unit = time.Minute
		digits = expr[:len(expr)-1]
	case 'h':
		unit = time.Hour
		digits = expr[:len(expr)-1]
	case 'd':
		unit = 24 * time.Hour
		digits = expr[:len(expr)-1]
	case 'w':
		unit = 7 * 24 * time.Hour
		digits = expr[:len(expr)-1]
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, Errorf(KindInvalidDuration, "malformed duration expression %q", expr)
	}
	return time.Duration(n) * unit, nil
}

package tokenkit

import (
	"testing"
	"time"
)

func TestParseExpiry(t *testing.T) {
	cases := []struct {
		expr string
		want time.Duration
	}{
		{"3600", 3600 * time.Second},
		{"90", 90 * time.Second},
		{"90s", 90 * time.Second},
		{"15m", 15 * time.Minute},
		{"2h", 2 * time.Hour},
		{"2d", 48 * time.Hour},
		{"1w", 7 * 24 * time.Hour},
		{"-1", -time.Second},
		{"-30m", -30 * time.Minute},
		{"0", 0},
	}
	for _, tc := range cases {
		got, err := ParseExpiry(tc.expr)
		if err != nil {
			t.Errorf("ParseExpiry(%q) returned error: %v", tc.expr, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseExpiry(%q) = %v, want %v", tc.expr, got, tc.want)
		}
	}
}

func TestParseExpiryRejectsMalformed(t *testing.T) {
	for _, expr := range []string{"", "soon", "1.5h", "h", "10x", "--5", "1 h"} {
		_, err := ParseExpiry(expr)
		if err == nil {
			t.Errorf("ParseExpiry(%q) should have failed", expr)
			continue
		}
		if !IsKind(err, KindInvalidDuration) {
			t.Errorf("ParseExpiry(%q) kind = %q, want %q", expr, KindOf(err), KindInvalidDuration)
		}
	}
}

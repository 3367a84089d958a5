package derivation_test

import (
	"math"
	"testing"

	"github.com/tbnobed/tdmedia-sub001/internal/domain/derivation"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name    string
		seconds float64
		want    string
	}{
		{name: "zero", seconds: 0, want: "00:00:00"},
		{name: "sub-second floors to zero", seconds: 0.9, want: "00:00:00"},
		{name: "typical clip", seconds: 131.48, want: "00:02:11"},
		{name: "just under an hour", seconds: 3599, want: "00:59:59"},
		{name: "exactly an hour", seconds: 3600, want: "01:00:00"},
		{name: "just under a day", seconds: 86399, want: "23:59:59"},
		{name: "beyond a day keeps counting hours", seconds: 90000, want: "25:00:00"},
		{name: "negative", seconds: -5, want: "00:00:00"},
		{name: "NaN", seconds: math.NaN(), want: "00:00:00"},
		{name: "positive infinity", seconds: math.Inf(1), want: "00:00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := derivation.FormatDuration(tt.seconds); got != tt.want {
				t.Errorf("FormatDuration(%v) = %q, want %q", tt.seconds, got, tt.want)
			}
		})
	}
}

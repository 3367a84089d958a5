package derivation

import (
	"fmt"
	"math"
)

// ZeroDurationLabel is what a failed or impossible probe degrades to. The
// label is display metadata, never used for playback decisions.
const ZeroDurationLabel = "00:00:00"

// FormatDuration renders seconds as an HH:MM:SS label, flooring fractional
// seconds. Anything unusable collapses to the zero label.
func FormatDuration(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds <= 0 {
		return ZeroDurationLabel
	}
	total := int(seconds)
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
}

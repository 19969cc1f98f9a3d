package analytics

import (
	"fmt"
	"math"
)

// FormatScore renders a PTS score with one decimal, rounding half away
// from zero. Values are stored unrounded; rounding happens only here.
func FormatScore(v float64) string {
	return fmt.Sprintf("%.1f", math.Round(v*10)/10)
}

// FormatPercent renders a 0..1 rate as a one-decimal percentage.
func FormatPercent(rate float64) string {
	return FormatScore(rate*100) + "%"
}

// FormatDelta renders a signed contribution with an explicit sign, as shown
// on force-plot bars.
func FormatDelta(v float64) string {
	if v >= 0 {
		return "+" + FormatScore(v)
	}
	return FormatScore(v)
}

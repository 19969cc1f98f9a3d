package ui

import (
	"fmt"
	"strings"
)

// partialBlocks maps eighths (1..7) to left-aligned partial block glyphs.
var partialBlocks = [...]rune{'▏', '▎', '▍', '▌', '▋', '▊', '▉'}

// RenderSparkline draws a single-line horizontal bar filling frac of width.
// The output is plain text with exactly width runes and no newlines; callers
// apply color. Values outside [0,1] are clamped, and any non-zero fraction
// renders at least one visible eighth.
func RenderSparkline(frac float64, width int) string {
	if width <= 0 {
		return ""
	}
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}

	eighths := int(frac*float64(width)*8 + 0.5)
	if frac > 0 && eighths == 0 {
		eighths = 1
	}
	if eighths > width*8 {
		eighths = width * 8
	}

	full := eighths / 8
	rem := eighths % 8

	var b strings.Builder
	b.Grow(width * 3)
	for i := 0; i < full; i++ {
		b.WriteRune('█')
	}
	if rem > 0 && full < width {
		b.WriteRune(partialBlocks[rem-1])
		full++
	}
	for i := full; i < width; i++ {
		b.WriteRune('░')
	}
	return b.String()
}

// RenderHistogramRow renders one "range  bar  count" line of the PTS
// distribution. The bar scales against max so the fullest bucket spans the
// whole bar width.
func RenderHistogramRow(label string, count, max, barWidth int) string {
	frac := 0.0
	if max > 0 {
		frac = float64(count) / float64(max)
	}
	return fmt.Sprintf("%-7s %s %4d", label, RenderSparkline(frac, barWidth), count)
}

// RenderForceBar draws a signed contribution as a bar growing out of a
// center axis: negative values extend left, positive right. The output is
// exactly width runes (width is forced odd so the axis sits in the middle).
// maxAbs is the largest absolute contribution in the set being drawn.
func RenderForceBar(contribution, maxAbs float64, width int) string {
	if width <= 0 {
		return ""
	}
	if width%2 == 0 {
		width--
	}
	if width < 3 {
		return "│"
	}
	half := (width - 1) / 2

	frac := 0.0
	if maxAbs > 0 {
		frac = contribution / maxAbs
	}
	if frac > 1 {
		frac = 1
	}
	if frac < -1 {
		frac = -1
	}

	n := int(frac*float64(half) + copysignHalf(frac))
	if n == 0 && frac != 0 {
		if frac > 0 {
			n = 1
		} else {
			n = -1
		}
	}

	left := strings.Repeat(" ", half)
	right := strings.Repeat(" ", half)
	if n > 0 {
		right = strings.Repeat("█", n) + strings.Repeat(" ", half-n)
	} else if n < 0 {
		left = strings.Repeat(" ", half+n) + strings.Repeat("█", -n)
	}
	return left + "│" + right
}

// copysignHalf rounds toward the sign of f when truncating to int.
func copysignHalf(f float64) float64 {
	if f < 0 {
		return -0.5
	}
	return 0.5
}

// Truncate shortens s to max runes, replacing the tail with an ellipsis.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	return string(r[:max-1]) + "…"
}

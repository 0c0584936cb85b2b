// Package quantity formats rates, weights and times for display.
package quantity

import (
	"math"
	"strconv"

	"github.com/dustin/go-humanize"
)

// Format rounds v to digits decimals and drops trailing zeros. A non-zero
// value that would round to zero keeps digits significant digits instead.
func Format(v float64, digits int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	scale := math.Pow10(digits)
	rounded := math.Round(v*scale) / scale
	if rounded == 0 && v != 0 {
		return strconv.FormatFloat(v, 'g', digits, 64)
	}
	// FtoaWithDigits truncates, so it only ever sees the rounded value.
	return humanize.FtoaWithDigits(rounded, digits)
}

// SI formats v with an SI prefix, such as "2.5 MW" for 2.5e6 and "W".
func SI(v float64, digits int, unit string) string {
	value, prefix := humanize.ComputeSI(v)
	return Format(value, digits) + " " + prefix + unit
}

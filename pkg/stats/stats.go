// Package stats computes aggregate statistics over gridded numeric data that
// may contain missing values.
//
// A value is missing when it is NaN or infinite. Every finite value is valid,
// including large-magnitude sentinels such as -999 that older grid formats
// used to mark gaps. Statistics of a sequence with no valid values are NaN.
// All standard deviation calculations use population stddev (÷n, not ÷(n−1)).
package stats

import (
	"math"
	"slices"
)

// Well-known quantile fractions.
const (
	QuantileMin    = 0.0
	QuantileMedian = 0.5
	QuantileMax    = 1.0
)

// IsValid reports whether x is a usable data value, i.e. neither NaN nor ±Inf.
func IsValid(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// validSubset copies the valid values of values into a new slice,
// so callers may reorder the result freely.
func validSubset(values []float64) []float64 {
	valid := make([]float64, 0, len(values))

	for _, v := range values {
		if IsValid(v) {
			valid = append(valid, v)
		}
	}

	return valid
}

// countMissing returns the number of values that fail IsValid.
func countMissing(values []float64) int {
	var missing int

	for _, v := range values {
		if !IsValid(v) {
			missing++
		}
	}

	return missing
}

func sum(values []float64) float64 {
	var total float64

	for _, v := range values {
		total += v
	}

	return total
}

func mean(values []float64) float64 {
	return sum(values) / float64(len(values))
}

// stdDev returns the population standard deviation of a non-empty slice.
func stdDev(values []float64) float64 {
	avg := mean(values)

	var sumSq float64

	for _, v := range values {
		diff := v - avg
		sumSq += diff * diff
	}

	return math.Sqrt(sumSq / float64(len(values)))
}

// interpolate returns the fraction-th quantile of sorted by linear
// interpolation between the order statistics around fraction*(n-1).
// Fractions below 0 or above 1 clamp to the extremes.
func interpolate(sorted []float64, fraction float64) float64 {
	n := len(sorted)
	if n == 0 || math.IsNaN(fraction) {
		return math.NaN()
	}

	if fraction <= 0 {
		return sorted[0]
	}

	if fraction >= 1 {
		return sorted[n-1]
	}

	pos := fraction * float64(n-1)

	lower := int(math.Floor(pos))
	upper := int(math.Ceil(pos))

	return sorted[lower] + (pos-float64(lower))*(sorted[upper]-sorted[lower])
}

// quantileOf sorts valid in place and returns its fraction-th quantile.
func quantileOf(valid []float64, fraction float64) float64 {
	slices.Sort(valid)

	return interpolate(valid, fraction)
}

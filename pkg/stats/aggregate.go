package stats

import (
	"math"
	"slices"
)

// CalcStatistic computes stat over the valid values of values.
//
// The result is NaN when no value is valid. Median is the 0.5 quantile;
// Quantile takes its fraction from [WithQuantile] and fails with
// [ErrQuantileRequired] without it. Unknown fails with [ErrUnknownStatistic].
// values is not modified.
func CalcStatistic(values []float64, stat Statistic, opts ...Option) (float64, error) {
	fraction, err := newOptions(opts).fractionFor(stat)
	if err != nil {
		return math.NaN(), err
	}

	return compute(validSubset(values), stat, fraction), nil
}

// compute evaluates a pre-checked statistic over a private slice of valid values.
func compute(valid []float64, stat Statistic, fraction float64) float64 {
	if len(valid) == 0 {
		return math.NaN()
	}

	switch stat {
	case Mean:
		return mean(valid)
	case Min:
		return slices.Min(valid)
	case Max:
		return slices.Max(valid)
	case Sum:
		return sum(valid)
	case Std:
		return stdDev(valid)
	case Median, Quantile:
		return quantileOf(valid, fraction)
	case Unknown:
		return math.NaN()
	}

	return math.NaN()
}

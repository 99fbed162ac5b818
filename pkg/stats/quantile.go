package stats

// CalcQuantile returns the fraction-th quantile of the valid values of values,
// interpolating linearly between order statistics. Fraction 0 is the minimum,
// 0.5 the median and 1 the maximum. The result is NaN when values is empty or
// holds only missing values. values is not modified.
func CalcQuantile(values []float64, fraction float64) float64 {
	return quantileOf(validSubset(values), fraction)
}

// MedianOf returns the 0.5 quantile of the valid values of values.
func MedianOf(values []float64) float64 {
	return CalcQuantile(values, QuantileMedian)
}

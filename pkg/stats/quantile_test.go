package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalcQuantile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    []float64
		fraction float64
		expected float64
	}{
		{name: "min", input: []float64{0, 1, 2}, fraction: 0, expected: 0},
		{name: "median", input: []float64{0, 1, 2}, fraction: 0.5, expected: 1},
		{name: "max", input: []float64{0, 1, 2}, fraction: 1, expected: 2},
		{name: "nan_excluded_max", input: []float64{0, nan, 2}, fraction: 1, expected: 2},
		{name: "nan_excluded_min", input: []float64{0, nan, 2}, fraction: 0, expected: 0},
		{name: "nan_excluded_median", input: []float64{0, nan, 2}, fraction: 0.5, expected: 1},
		{name: "even_median_averages", input: []float64{4, 1, 3, 2}, fraction: 0.5, expected: 2.5},
		{name: "unsorted_input", input: []float64{9, 1, 5, 3, 7}, fraction: 0.5, expected: 5},
		{name: "interpolated", input: []float64{10, 20}, fraction: 0.9, expected: 19},
		{name: "single_value", input: []float64{7}, fraction: 0.3, expected: 7},
		{name: "sentinel_is_data", input: []float64{-999, 0, math.Inf(1)}, fraction: 0, expected: -999},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.InDelta(t, tt.expected, CalcQuantile(tt.input, tt.fraction), 1e-12)
		})
	}
}

func TestCalcQuantile_MatchesValidSubset(t *testing.T) {
	t.Parallel()

	for _, fraction := range []float64{0, 0.5, 1} {
		assert.InDelta(t,
			CalcQuantile([]float64{0, 2}, fraction),
			CalcQuantile([]float64{0, nan, 2}, fraction),
			0)
	}
}

func TestCalcQuantile_NoValidValuesIsNaN(t *testing.T) {
	t.Parallel()

	assert.True(t, math.IsNaN(CalcQuantile([]float64{nan, nan, nan}, 0.5)))
	assert.True(t, math.IsNaN(CalcQuantile([]float64{nan}, 0.5)))
	assert.True(t, math.IsNaN(CalcQuantile([]float64{math.Inf(1), math.Inf(-1)}, 0)))
}

func TestCalcQuantile_InfiniteFractionClamps(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 7.0, CalcQuantile([]float64{7}, math.Inf(1)), 0)
	assert.InDelta(t, 7.0, CalcQuantile([]float64{math.NaN(), 7}, math.Inf(-1)), 0)
	assert.InDelta(t, 3.0, CalcQuantile([]float64{1, 2, 3}, math.Inf(1)), 0)
}

func TestCalcQuantile_EmptySequenceIsNaN(t *testing.T) {
	t.Parallel()

	assert.True(t, math.IsNaN(CalcQuantile([]float64{}, 0.5)))
	assert.True(t, math.IsNaN(CalcQuantile(nil, 0)))
	assert.True(t, math.IsNaN(CalcQuantile(nil, 1)))
}

func TestCalcQuantile_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	input := []float64{3, 2, 1}
	CalcQuantile(input, 0.5)

	assert.Equal(t, []float64{3, 2, 1}, input)
}

func TestMedianOf(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 2.0, MedianOf([]float64{3, 1, nan, 2}), 0)
}

package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var nan = math.NaN()

func TestCalcStatistic_Mean(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    []float64
		expected float64
	}{
		{name: "all_valid", input: []float64{0, 1, 2}, expected: 1},
		{name: "trailing_nan", input: []float64{0, 1, nan}, expected: 0.5},
		{name: "surrounded_by_nan", input: []float64{nan, 1, nan}, expected: 1},
		{name: "infinities_ignored", input: []float64{math.Inf(1), 4, math.Inf(-1), 2}, expected: 3},
		{name: "sentinel_is_data", input: []float64{-999, 1}, expected: -499},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := CalcStatistic(tt.input, Mean)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, got, 1e-12)
		})
	}
}

func TestCalcStatistic_NoValidValuesIsNaN(t *testing.T) {
	t.Parallel()

	inputs := map[string][]float64{
		"empty":       {},
		"nil":         nil,
		"all_nan":     {nan, nan, nan},
		"all_missing": {nan, math.Inf(1), math.Inf(-1)},
	}

	for name, input := range inputs {
		for _, stat := range Statistics() {
			got, err := CalcStatistic(input, stat, WithQuantile(0.3))
			require.NoError(t, err, "%s/%s", name, stat)
			assert.True(t, math.IsNaN(got), "%s/%s = %v", name, stat, got)
		}
	}
}

func TestCalcStatistic_AllStatistics(t *testing.T) {
	t.Parallel()

	input := []float64{4, nan, 2, 8, math.Inf(1), 6}

	tests := []struct {
		stat     Statistic
		opts     []Option
		expected float64
	}{
		{stat: Mean, expected: 5},
		{stat: Min, expected: 2},
		{stat: Max, expected: 8},
		{stat: Sum, expected: 20},
		{stat: Median, expected: 5},
		{stat: Std, expected: math.Sqrt(5)},
		{stat: Quantile, opts: []Option{WithQuantile(0)}, expected: 2},
		{stat: Quantile, opts: []Option{WithQuantile(1)}, expected: 8},
		{stat: Quantile, opts: []Option{WithQuantile(0.25)}, expected: 3.5},
	}

	for _, tt := range tests {
		t.Run(tt.stat.String(), func(t *testing.T) {
			t.Parallel()

			got, err := CalcStatistic(input, tt.stat, tt.opts...)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, got, 1e-12)
		})
	}
}

func TestCalcStatistic_SentinelParticipates(t *testing.T) {
	t.Parallel()

	input := []float64{-999, 1, 2}

	got, err := CalcStatistic(input, Min)
	require.NoError(t, err)
	assert.InDelta(t, -999.0, got, 0)

	got, err = CalcStatistic(input, Sum)
	require.NoError(t, err)
	assert.InDelta(t, -996.0, got, 0)
}

func TestCalcStatistic_SingleValueStdIsZero(t *testing.T) {
	t.Parallel()

	got, err := CalcStatistic([]float64{nan, 7}, Std)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, got, 0)
}

func TestCalcStatistic_UnknownIsError(t *testing.T) {
	t.Parallel()

	got, err := CalcStatistic([]float64{1, 2, 3}, Unknown)
	require.ErrorIs(t, err, ErrUnknownStatistic)
	assert.True(t, math.IsNaN(got))

	_, err = CalcStatistic(nil, Statistic(-3))
	require.ErrorIs(t, err, ErrUnknownStatistic)
}

func TestCalcStatistic_QuantileNeedsFraction(t *testing.T) {
	t.Parallel()

	_, err := CalcStatistic([]float64{1, 2, 3}, Quantile)
	require.ErrorIs(t, err, ErrQuantileRequired)

	// Median carries its own fraction and ignores WithQuantile.
	got, err := CalcStatistic([]float64{1, 2, 3}, Median, WithQuantile(1))
	require.NoError(t, err)
	assert.InDelta(t, 2.0, got, 0)
}

func TestCalcStatistic_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	input := []float64{3, nan, 1, 2}

	_, err := CalcStatistic(input, Median)
	require.NoError(t, err)

	assert.InDelta(t, 3.0, input[0], 0)
	assert.True(t, math.IsNaN(input[1]))
	assert.InDelta(t, 1.0, input[2], 0)
	assert.InDelta(t, 2.0, input[3], 0)
}

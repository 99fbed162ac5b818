package stats

import (
	"errors"
	"fmt"
)

// Statistic identifies an aggregate that CalcStatistic can compute.
type Statistic int

// The supported statistics. Unknown is the result of a failed lookup and is
// never computable.
const (
	Unknown Statistic = iota
	Mean
	Min
	Max
	Median
	Quantile
	Std
	Sum
)

// Sentinel errors returned by the aggregator.
var (
	// ErrUnknownStatistic indicates a statistic outside the supported set.
	ErrUnknownStatistic = errors.New("unknown statistic")
	// ErrQuantileRequired indicates a Quantile request without a fraction.
	ErrQuantileRequired = errors.New("quantile statistic requires a fraction")
)

var (
	statisticNames = map[Statistic]string{
		Mean:     "mean",
		Min:      "min",
		Max:      "max",
		Median:   "median",
		Quantile: "quantile",
		Std:      "std",
		Sum:      "sum",
	}

	statisticsByName = map[string]Statistic{
		"mean":     Mean,
		"min":      Min,
		"max":      Max,
		"median":   Median,
		"quantile": Quantile,
		"std":      Std,
		"sum":      Sum,
	}
)

// GetStatistic maps a canonical, case-sensitive name to its Statistic.
// Unrecognized names, including the empty string, map to Unknown.
func GetStatistic(name string) Statistic {
	if stat, ok := statisticsByName[name]; ok {
		return stat
	}

	return Unknown
}

// Statistics returns every computable statistic in declaration order.
func Statistics() []Statistic {
	return []Statistic{Mean, Min, Max, Median, Quantile, Std, Sum}
}

// IsValid reports whether the statistic can be computed.
func (s Statistic) IsValid() bool {
	_, ok := statisticNames[s]

	return ok
}

// String returns the canonical name, or "unknown".
func (s Statistic) String() string {
	if name, ok := statisticNames[s]; ok {
		return name
	}

	return "unknown"
}

// MarshalText implements [encoding.TextMarshaler].
func (s Statistic) MarshalText() ([]byte, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStatistic, int(s))
	}

	return []byte(s.String()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (s *Statistic) UnmarshalText(text []byte) error {
	stat := GetStatistic(string(text))
	if stat == Unknown {
		return fmt.Errorf("%w: %q", ErrUnknownStatistic, text)
	}

	*s = stat

	return nil
}

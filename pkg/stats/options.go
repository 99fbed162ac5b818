package stats

import "fmt"

// Option configures a single aggregator or grid call.
type Option func(*options)

type options struct {
	quantile    float64
	hasQuantile bool
	workers     int
}

// WithQuantile sets the fraction used by the Quantile statistic.
func WithQuantile(fraction float64) Option {
	return func(o *options) {
		o.quantile = fraction
		o.hasQuantile = true
	}
}

// WithWorkers lets grid operations spread rows over up to n goroutines.
// Values below 2 keep the computation on the calling goroutine.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

func newOptions(opts []Option) options {
	var o options

	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// fractionFor resolves the quantile fraction a statistic needs and rejects
// statistics that cannot be computed.
func (o options) fractionFor(stat Statistic) (float64, error) {
	switch stat {
	case Mean, Min, Max, Std, Sum:
		return 0, nil
	case Median:
		return QuantileMedian, nil
	case Quantile:
		if !o.hasQuantile {
			return 0, ErrQuantileRequired
		}

		return o.quantile, nil
	case Unknown:
		return 0, fmt.Errorf("%w: %s", ErrUnknownStatistic, stat)
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnknownStatistic, int(stat))
	}
}

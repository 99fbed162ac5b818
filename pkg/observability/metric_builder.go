package observability

import (
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/metric"
)

const metricNamespace = "gridstat"

// durationBucketBoundaries covers 100µs to 30s: single-sequence statistics
// finish in microseconds, large grids in seconds.
var durationBucketBoundaries = []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30}

// metricBuilder creates instruments named gridstat.<scope>.<suffix> and keeps
// the first creation error, so a batch needs a single check.
type metricBuilder struct {
	meter metric.Meter
	err   error
	scope string
}

func newMetricBuilder(mt metric.Meter, scope string) *metricBuilder {
	return &metricBuilder{meter: mt, scope: scope}
}

// MetricName returns the full instrument name for suffix under scope,
// e.g. MetricName(LayerHTTP, "requests.total").
func MetricName[S ~string](scope S, suffix string) string {
	return strings.Join([]string{metricNamespace, string(scope), suffix}, ".")
}

func (b *metricBuilder) counter(suffix, desc, unit string) metric.Int64Counter {
	name := MetricName(b.scope, suffix)

	c, err := b.meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
	b.setErr(name, err)

	return c
}

// seconds creates a duration histogram bucketed for kernel latencies.
func (b *metricBuilder) seconds(suffix, desc string) metric.Float64Histogram {
	name := MetricName(b.scope, suffix)

	h, err := b.meter.Float64Histogram(name,
		metric.WithDescription(desc),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	b.setErr(name, err)

	return h
}

func (b *metricBuilder) upDownCounter(suffix, desc, unit string) metric.Int64UpDownCounter {
	name := MetricName(b.scope, suffix)

	c, err := b.meter.Int64UpDownCounter(name, metric.WithDescription(desc), metric.WithUnit(unit))
	b.setErr(name, err)

	return c
}

func (b *metricBuilder) setErr(name string, err error) {
	if err != nil && b.err == nil {
		b.err = fmt.Errorf("create %s: %w", name, err)
	}
}

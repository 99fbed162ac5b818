package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	kernelScope = "kernel"

	metricComputationsTotal = "computations.total"
	metricRowsTotal         = "rows.total"
	metricValuesTotal       = "values.total"
	metricMissingTotal      = "missing.total"

	attrOperation = "operation"
	attrStatistic = "statistic"
)

// KernelMetrics counts the work done by the statistics kernel.
type KernelMetrics struct {
	computations metric.Int64Counter
	rows         metric.Int64Counter
	values       metric.Int64Counter
	missing      metric.Int64Counter
}

// Computation describes one kernel call, decoupled from kernel types.
type Computation struct {
	Operation string
	Statistic string
	Rows      int
	Values    int
	Missing   int
}

// NewKernelMetrics creates kernel metric instruments from the given meter.
func NewKernelMetrics(mt metric.Meter) (*KernelMetrics, error) {
	b := newMetricBuilder(mt, kernelScope)

	km := &KernelMetrics{
		computations: b.counter(metricComputationsTotal, "Kernel computations by operation and statistic", "{computation}"),
		rows:         b.counter(metricRowsTotal, "Rows processed", "{row}"),
		values:       b.counter(metricValuesTotal, "Values scanned", "{value}"),
		missing:      b.counter(metricMissingTotal, "Missing values encountered", "{value}"),
	}

	if b.err != nil {
		return nil, b.err
	}

	return km, nil
}

// Record adds one computation. Safe to call on a nil receiver.
func (km *KernelMetrics) Record(ctx context.Context, c Computation) {
	if km == nil {
		return
	}

	opAttr := attribute.String(attrOperation, c.Operation)

	km.computations.Add(ctx, 1, metric.WithAttributes(opAttr, attribute.String(attrStatistic, c.Statistic)))
	km.rows.Add(ctx, int64(c.Rows), metric.WithAttributes(opAttr))
	km.values.Add(ctx, int64(c.Values), metric.WithAttributes(opAttr))
	km.missing.Add(ctx, int64(c.Missing), metric.WithAttributes(opAttr))
}

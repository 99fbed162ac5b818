package observability

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Layer names the part of gridstat a REDMetrics instance measures. Each layer
// gets its own instruments so a request passing through the HTTP or MCP front
// end and then the compute service is counted once per layer.
type Layer string

const (
	// LayerHTTP measures HTTP routes.
	LayerHTTP Layer = "http"
	// LayerMCP measures MCP tool calls.
	LayerMCP Layer = "mcp"
	// LayerCompute measures service operations.
	LayerCompute Layer = "compute"
)

// ErrEmptyLayer is returned by NewREDMetrics for an unnamed layer.
var ErrEmptyLayer = errors.New("metrics layer must not be empty")

const (
	metricRequestsTotal    = "requests.total"
	metricRequestDuration  = "request.duration.seconds"
	metricErrorsTotal      = "errors.total"
	metricInflightRequests = "inflight.requests"

	attrOp     = "op"
	attrStatus = "status"

	// StatusOK marks a successful operation.
	StatusOK = "ok"
	// StatusError marks a failed operation.
	StatusError = "error"
)

// REDMetrics holds the OTel instruments for Rate, Error, Duration metrics.
type REDMetrics struct {
	requestsTotal    metric.Int64Counter
	requestDuration  metric.Float64Histogram
	errorsTotal      metric.Int64Counter
	inflightRequests metric.Int64UpDownCounter
}

// NewREDMetrics creates RED metric instruments for layer from the given meter.
// Instruments are named gridstat.<layer>.requests.total and so on.
func NewREDMetrics(mt metric.Meter, layer Layer) (*REDMetrics, error) {
	if layer == "" {
		return nil, ErrEmptyLayer
	}

	b := newMetricBuilder(mt, string(layer))

	red := &REDMetrics{
		requestsTotal:    b.counter(metricRequestsTotal, "Total number of requests", "{request}"),
		requestDuration:  b.seconds(metricRequestDuration, "Request duration in seconds"),
		errorsTotal:      b.counter(metricErrorsTotal, "Total number of errors", "{error}"),
		inflightRequests: b.upDownCounter(metricInflightRequests, "Number of in-flight requests", "{request}"),
	}

	if b.err != nil {
		return nil, b.err
	}

	return red, nil
}

// RecordRequest records a completed request with its operation, status, and duration.
// Safe to call on a nil receiver.
func (rm *REDMetrics) RecordRequest(ctx context.Context, op, status string, duration time.Duration) {
	if rm == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrOp, op),
		attribute.String(attrStatus, status),
	)

	rm.requestsTotal.Add(ctx, 1, attrs)
	rm.requestDuration.Record(ctx, duration.Seconds(), attrs)

	if status == StatusError {
		rm.errorsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrOp, op)))
	}
}

// TrackInflight increments the in-flight gauge and returns a function to decrement it.
func (rm *REDMetrics) TrackInflight(ctx context.Context, op string) func() {
	if rm == nil {
		return func() {}
	}

	attrs := metric.WithAttributes(attribute.String(attrOp, op))
	rm.inflightRequests.Add(ctx, 1, attrs)

	return func() {
		rm.inflightRequests.Add(ctx, -1, attrs)
	}
}

// StatusOf maps an operation error to a status label.
func StatusOf(err error) string {
	if err != nil {
		return StatusError
	}

	return StatusOK
}

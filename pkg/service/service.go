// Package service runs statistics requests against the kernel with tracing,
// metrics and logging around every call. The CLI, HTTP server and MCP tools
// all go through it.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/gridstat/pkg/clock"
	"github.com/Sumatoshi-tech/gridstat/pkg/gridio"
	"github.com/Sumatoshi-tech/gridstat/pkg/observability"
	"github.com/Sumatoshi-tech/gridstat/pkg/stats"
)

// Operation names, used as span suffixes and metric labels.
const (
	OpStatistic = "statistic"
	OpQuantile  = "quantile"
	OpMissing   = "missing"
)

const spanPrefix = "gridstat."

// Sentinel errors.
var (
	ErrNoInput         = errors.New("request has neither values nor grid")
	ErrInvalidQuantile = errors.New("quantile must be within [0, 1]")
)

// Deps holds injectable dependencies. Zero-value fields use defaults.
type Deps struct {
	// Logger is an optional structured logger. Nil discards logs.
	Logger *slog.Logger

	// Tracer is an optional tracer. Nil uses a no-op tracer.
	Tracer trace.Tracer

	// RED records one request per operation. Use a LayerCompute instance
	// distinct from any HTTP or MCP front end. Nil disables it.
	RED *observability.REDMetrics

	// Kernel records values scanned and missing. Nil disables it.
	Kernel *observability.KernelMetrics
}

// Defaults apply when a request omits the statistic or quantile.
type Defaults struct {
	Statistic stats.Statistic
	Quantile  float64
	// Workers bounds per-row parallelism. Zero means GOMAXPROCS.
	Workers int
}

// Service executes statistics requests.
type Service struct {
	logger   *slog.Logger
	tracer   trace.Tracer
	red      *observability.REDMetrics
	kernel   *observability.KernelMetrics
	defaults Defaults
}

// New creates a Service.
func New(deps Deps, defaults Defaults) *Service {
	svc := &Service{
		logger:   deps.Logger,
		tracer:   deps.Tracer,
		red:      deps.RED,
		kernel:   deps.Kernel,
		defaults: defaults,
	}

	if svc.logger == nil {
		svc.logger = slog.New(slog.DiscardHandler)
	}

	if svc.tracer == nil {
		svc.tracer = nooptrace.NewTracerProvider().Tracer("")
	}

	if svc.defaults.Workers <= 0 {
		svc.defaults.Workers = runtime.GOMAXPROCS(0)
	}

	if !svc.defaults.Statistic.IsValid() {
		svc.defaults.Statistic = stats.Mean
	}

	return svc
}

// Defaults returns the effective defaults.
func (s *Service) Defaults() Defaults {
	return s.defaults
}

// Statistic computes the requested statistic over a sequence, or per row over a grid.
func (s *Service) Statistic(ctx context.Context, req *gridio.Request) (*gridio.Result, error) {
	name := req.Statistic
	if name == "" {
		name = s.defaults.Statistic.String()
	}

	stat := stats.GetStatistic(name)
	if stat == stats.Unknown {
		return nil, fmt.Errorf("%w: %q", stats.ErrUnknownStatistic, name)
	}

	var fraction *float64

	if stat == stats.Quantile {
		f, err := s.fraction(req)
		if err != nil {
			return nil, err
		}

		fraction = &f
	}

	return s.run(ctx, OpStatistic, stat.String(), req, func(res *gridio.Result) error {
		res.Statistic = stat.String()
		res.Quantile = fraction

		opts := s.options(fraction)

		if req.Shape() == gridio.ShapeGrid {
			rows, err := stats.CalcStatisticGrid(req.Grid.Grid(), stat, opts...)
			if err != nil {
				return err
			}

			res.Rows = rows

			return nil
		}

		value, err := stats.CalcStatistic(req.Values, stat, opts...)
		if err != nil {
			return err
		}

		res.Value = valuePtr(value)

		return nil
	})
}

// Quantile computes the quantile at the request fraction over a sequence,
// or per row over a grid.
func (s *Service) Quantile(ctx context.Context, req *gridio.Request) (*gridio.Result, error) {
	fraction, err := s.fraction(req)
	if err != nil {
		return nil, err
	}

	return s.run(ctx, OpQuantile, stats.Quantile.String(), req, func(res *gridio.Result) error {
		res.Quantile = &fraction

		if req.Shape() == gridio.ShapeGrid {
			res.Rows = stats.CalcQuantileGrid(req.Grid.Grid(), fraction, stats.WithWorkers(s.defaults.Workers))

			return nil
		}

		res.Value = valuePtr(stats.CalcQuantile(req.Values, fraction))

		return nil
	})
}

// Missing counts missing values. A sequence counts as a one-row grid.
func (s *Service) Missing(ctx context.Context, req *gridio.Request) (*gridio.Result, error) {
	return s.run(ctx, OpMissing, "", req, func(*gridio.Result) error {
		return nil
	})
}

// run validates the input, counts cells and missing values, and wraps compute
// in a span with RED and kernel metrics.
func (s *Service) run(
	ctx context.Context,
	op, statistic string,
	req *gridio.Request,
	compute func(*gridio.Result) error,
) (*gridio.Result, error) {
	shape := req.Shape()
	if shape == gridio.ShapeNone {
		return nil, ErrNoInput
	}

	ctx, span := s.tracer.Start(ctx, spanPrefix+op,
		trace.WithAttributes(
			attribute.String("gridstat.operation", op),
			attribute.String("gridstat.shape", shape.String()),
		),
	)
	defer span.End()

	decInflight := s.red.TrackInflight(ctx, op)
	defer decInflight()

	watch := clock.Start()

	grid := req.KernelGrid()
	res := &gridio.Result{
		Operation: op,
		Shape:     shape.String(),
		Cells:     grid.Cells(),
		Missing:   stats.NumMissingValues(grid, stats.WithWorkers(s.defaults.Workers)),
	}

	err := compute(res)

	s.red.RecordRequest(ctx, op, observability.StatusOf(err), watch.Elapsed())

	span.SetAttributes(
		attribute.Int("gridstat.rows", len(grid)),
		attribute.Int("gridstat.cells", res.Cells),
		attribute.Int("gridstat.missing", res.Missing),
	)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	computation := observability.Computation{
		Operation: op,
		Statistic: statistic,
		Rows:      len(grid),
		Values:    res.Cells,
		Missing:   res.Missing,
	}

	s.kernel.Record(ctx, computation)

	s.logger.DebugContext(ctx, "computed",
		"computation", computation,
		"shape", res.Shape,
		"seconds", watch.Seconds(),
	)

	return res, nil
}

func (s *Service) fraction(req *gridio.Request) (float64, error) {
	fraction := s.defaults.Quantile
	if req.Quantile != nil {
		fraction = *req.Quantile
	}

	if !(fraction >= 0 && fraction <= 1) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidQuantile, fraction)
	}

	return fraction, nil
}

func (s *Service) options(fraction *float64) []stats.Option {
	opts := []stats.Option{stats.WithWorkers(s.defaults.Workers)}
	if fraction != nil {
		opts = append(opts, stats.WithQuantile(*fraction))
	}

	return opts
}

func valuePtr(f float64) *gridio.Value {
	v := gridio.Value(f)

	return &v
}

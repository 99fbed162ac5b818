package gridio

import (
	"github.com/Sumatoshi-tech/gridstat/pkg/stats"
)

// Shape identifies the kind of input a request carries.
type Shape int

// Request shapes.
const (
	ShapeNone Shape = iota
	ShapeSequence
	ShapeGrid
)

// String returns the shape name.
func (s Shape) String() string {
	switch s {
	case ShapeSequence:
		return "sequence"
	case ShapeGrid:
		return "grid"
	case ShapeNone:
		return "none"
	}

	return "none"
}

// Request is a statistics request: an optional statistic and quantile
// fraction plus either a sequence or a grid.
type Request struct {
	Quantile  *float64 `json:"quantile,omitempty"  yaml:"quantile,omitempty"`
	Statistic string   `json:"statistic,omitempty" yaml:"statistic,omitempty"`
	Values    Values   `json:"values,omitempty"    yaml:"values,omitempty"`
	Grid      Rows     `json:"grid,omitempty"      yaml:"grid,omitempty"`
}

// Shape reports whether the request carries a sequence, a grid, or nothing.
func (r *Request) Shape() Shape {
	switch {
	case r.Grid != nil:
		return ShapeGrid
	case r.Values != nil:
		return ShapeSequence
	default:
		return ShapeNone
	}
}

// KernelGrid returns the request input as a grid. A sequence becomes a single row.
func (r *Request) KernelGrid() stats.Grid {
	switch r.Shape() {
	case ShapeGrid:
		return r.Grid.Grid()
	case ShapeSequence:
		return stats.Grid{r.Values}
	case ShapeNone:
		return nil
	}

	return nil
}

// Result is the outcome of one statistics request.
// Value is set for sequence input, Rows (one value per row) for grid input.
type Result struct {
	Value     *Value   `json:"value,omitempty"     yaml:"value,omitempty"`
	Quantile  *float64 `json:"quantile,omitempty"  yaml:"quantile,omitempty"`
	Operation string   `json:"operation"           yaml:"operation"`
	Statistic string   `json:"statistic,omitempty" yaml:"statistic,omitempty"`
	Shape     string   `json:"shape"               yaml:"shape"`
	Rows      Values   `json:"rows,omitempty"      yaml:"rows,omitempty"`
	Cells     int      `json:"cells"               yaml:"cells"`
	Missing   int      `json:"missing"             yaml:"missing"`
}

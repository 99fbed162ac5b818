// Package render formats statistics results for the terminal.
package render

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Sumatoshi-tech/gridstat/pkg/gridio"
	"github.com/Sumatoshi-tech/gridstat/pkg/stats"
)

const percentageValue = 100

// Renderer draws results as text and tables.
type Renderer struct {
	header  *color.Color
	missing *color.Color
	value   *color.Color
}

// New creates a Renderer. With useColor false no escape codes are emitted.
func New(useColor bool) *Renderer {
	r := &Renderer{
		header:  color.New(color.Bold),
		missing: color.New(color.FgYellow),
		value:   color.New(color.FgGreen),
	}

	for _, c := range []*color.Color{r.header, r.missing, r.value} {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	return r
}

// FormatValue prints a float with NaN and infinities spelled out.
func FormatValue(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "+Inf"
	case math.IsInf(f, -1):
		return "-Inf"
	default:
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
}

// Result renders a summary line followed by the value or a per-row table.
func (r *Renderer) Result(res *gridio.Result) string {
	var sb strings.Builder

	sb.WriteString(r.header.Sprint(strings.ToUpper(res.Operation)))

	if res.Statistic != "" {
		sb.WriteString(" " + res.Statistic)
	}

	if res.Quantile != nil {
		sb.WriteString(" q=" + FormatValue(*res.Quantile))
	}

	sb.WriteString("\n")
	fmt.Fprintf(&sb, "shape: %s | cells: %s | missing: %s\n",
		res.Shape, humanize.Comma(int64(res.Cells)), r.missingSummary(res))

	switch {
	case res.Value != nil:
		fmt.Fprintf(&sb, "value: %s\n", r.cell(float64(*res.Value)))
	case res.Rows != nil:
		sb.WriteString(r.rowsTable(res.Rows))
		sb.WriteString("\n")
	}

	return sb.String()
}

// Statistics renders the computable statistic names, one per line.
func (r *Renderer) Statistics(list []stats.Statistic) string {
	tbl := newTable()
	tbl.AppendHeader(table.Row{r.header.Sprint("statistic")})

	for _, stat := range list {
		tbl.AppendRow(table.Row{stat.String()})
	}

	return tbl.Render() + "\n"
}

func (r *Renderer) rowsTable(rows []float64) string {
	tbl := newTable()
	tbl.AppendHeader(table.Row{r.header.Sprint("row"), r.header.Sprint("value")})

	for i, f := range rows {
		tbl.AppendRow(table.Row{i, r.cell(f)})
	}

	tbl.AppendFooter(table.Row{"rows", humanize.Comma(int64(len(rows)))})

	return tbl.Render()
}

func (r *Renderer) cell(f float64) string {
	if !stats.IsValid(f) {
		return r.missing.Sprint(FormatValue(f))
	}

	return r.value.Sprint(FormatValue(f))
}

func (r *Renderer) missingSummary(res *gridio.Result) string {
	count := humanize.Comma(int64(res.Missing))
	if res.Cells == 0 {
		return count
	}

	share := float64(res.Missing) / float64(res.Cells) * percentageValue

	return fmt.Sprintf("%s (%.1f%%)", count, share)
}

func newTable() table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.SeparateColumns = false
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Options.SeparateHeader = false

	return tbl
}

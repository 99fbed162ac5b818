package render

import (
	"errors"
	"fmt"
	"io"

	"github.com/Sumatoshi-tech/gridstat/pkg/gridio"
)

// Output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// ErrUnknownFormat is returned for output formats other than table, json and yaml.
var ErrUnknownFormat = errors.New("unknown output format")

// WriteResult writes res to w as a table, JSON or YAML.
func (r *Renderer) WriteResult(w io.Writer, format string, res *gridio.Result) error {
	if format == FormatTable {
		_, err := io.WriteString(w, r.Result(res))

		return err
	}

	return encode(w, format, res)
}

// WriteValue writes an arbitrary value as JSON or YAML, or via text for tables.
func WriteValue(w io.Writer, format string, v any, text string) error {
	if format == FormatTable {
		_, err := io.WriteString(w, text)

		return err
	}

	return encode(w, format, v)
}

func encode(w io.Writer, format string, v any) error {
	switch format {
	case FormatJSON:
		return gridio.Encode(w, gridio.FormatJSON, v)
	case FormatYAML:
		return gridio.Encode(w, gridio.FormatYAML, v)
	}

	return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

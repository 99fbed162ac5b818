package gridio

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/gridstat/pkg/stats"
)

// ErrInvalidValue is returned for array elements that are neither numbers,
// null, nor a NaN/Inf string.
var ErrInvalidValue = errors.New("invalid value")

var jsonNull = []byte("null")

// Value is a single float that encodes NaN as null and infinities as "+Inf"/"-Inf".
type Value float64

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	return appendValue(nil, float64(v)), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	f, err := parseJSONValue(data)
	if err != nil {
		return err
	}

	*v = Value(f)

	return nil
}

// Values is a sequence of floats with missing-aware encoding.
// A nil Values means "absent"; an empty non-nil one is an empty sequence.
type Values []float64

// MarshalJSON implements json.Marshaler.
func (v Values) MarshalJSON() ([]byte, error) {
	if v == nil {
		return jsonNull, nil
	}

	buf := make([]byte, 0, len(v)*8+2)
	buf = append(buf, '[')

	for i, f := range v {
		if i > 0 {
			buf = append(buf, ',')
		}

		buf = appendValue(buf, f)
	}

	return append(buf, ']'), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Values) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), jsonNull) {
		return nil
	}

	var raw []json.RawMessage

	unmarshalErr := json.Unmarshal(data, &raw)
	if unmarshalErr != nil {
		return fmt.Errorf("decode sequence: %w", unmarshalErr)
	}

	out := make(Values, len(raw))

	for i, item := range raw {
		f, err := parseJSONValue(item)
		if err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}

		out[i] = f
	}

	*v = out

	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler. Null elements decode as NaN.
func (v *Values) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode {
		return fmt.Errorf("%w: line %d: expected a sequence", ErrInvalidValue, node.Line)
	}

	out := make(Values, len(node.Content))

	for i, item := range node.Content {
		f, err := parseYAMLValue(item)
		if err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}

		out[i] = f
	}

	*v = out

	return nil
}

// Rows is a grid with missing-aware encoding.
type Rows []Values

// Grid views the rows as a kernel grid without copying values.
func (r Rows) Grid() stats.Grid {
	grid := make(stats.Grid, len(r))
	for i, row := range r {
		grid[i] = row
	}

	return grid
}

// RowsOf wraps a kernel grid for encoding.
func RowsOf(grid stats.Grid) Rows {
	rows := make(Rows, len(grid))
	for i, row := range grid {
		rows[i] = row
	}

	return rows
}

func appendValue(buf []byte, f float64) []byte {
	switch {
	case math.IsNaN(f):
		return append(buf, jsonNull...)
	case math.IsInf(f, 1):
		return append(buf, `"+Inf"`...)
	case math.IsInf(f, -1):
		return append(buf, `"-Inf"`...)
	default:
		return strconv.AppendFloat(buf, f, 'g', -1, 64)
	}
}

func parseJSONValue(data []byte) (float64, error) {
	data = bytes.TrimSpace(data)

	if bytes.Equal(data, jsonNull) {
		return math.NaN(), nil
	}

	if len(data) > 0 && data[0] == '"' {
		var text string

		unmarshalErr := json.Unmarshal(data, &text)
		if unmarshalErr != nil {
			return 0, fmt.Errorf("%w: %s", ErrInvalidValue, data)
		}

		return parseSpecial(text)
	}

	var f float64

	unmarshalErr := json.Unmarshal(data, &f)
	if unmarshalErr != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidValue, data)
	}

	return f, nil
}

func parseYAMLValue(node *yaml.Node) (float64, error) {
	if node.Kind != yaml.ScalarNode {
		return 0, fmt.Errorf("%w: line %d: expected a scalar", ErrInvalidValue, node.Line)
	}

	switch node.ShortTag() {
	case "!!null":
		return math.NaN(), nil
	case "!!str":
		return parseSpecial(node.Value)
	}

	var f float64

	decodeErr := node.Decode(&f)
	if decodeErr != nil {
		return 0, fmt.Errorf("%w: line %d: %q", ErrInvalidValue, node.Line, node.Value)
	}

	return f, nil
}

// parseSpecial accepts only the NaN and infinity spellings; numeric strings are rejected.
func parseSpecial(text string) (float64, error) {
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || stats.IsValid(f) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidValue, text)
	}

	return f, nil
}

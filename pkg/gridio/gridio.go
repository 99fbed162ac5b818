// Package gridio decodes statistics requests and encodes results.
//
// Input is JSON or YAML, optionally lz4-compressed. A document is either a
// request object ({statistic, quantile, values | grid}) or a bare array: a
// 1-D array is a sequence, a 2-D array is a grid. Missing values travel as
// null (JSON and YAML), "NaN"/"Inf" strings (JSON) or .nan/.inf (YAML).
package gridio

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/pierrec/lz4/v4"
	"gopkg.in/yaml.v3"
)

// Format is a document encoding.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

const lz4Ext = ".lz4"

// Sentinel errors.
var (
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrEmptyDocument     = errors.New("empty document")
	ErrUnexpectedInput   = errors.New("expected a request object or an array")
)

// ParseFormat resolves a format name. The empty string yields FormatJSON.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
}

// DetectFormat picks the format and compression from a file name.
// Unknown extensions fall back to JSON.
func DetectFormat(path string) (format Format, compressed bool) {
	name := strings.ToLower(path)

	if strings.HasSuffix(name, lz4Ext) {
		compressed = true
		name = strings.TrimSuffix(name, lz4Ext)
	}

	switch filepath.Ext(name) {
	case ".yaml", ".yml":
		return FormatYAML, compressed
	default:
		return FormatJSON, compressed
	}
}

// Decompress wraps r with an lz4 frame reader.
func Decompress(r io.Reader) io.Reader {
	return lz4.NewReader(r)
}

// ReadFile decodes a request from path. An empty format is detected from
// the extension; a ".lz4" suffix is always decompressed.
func ReadFile(path string, format Format) (*Request, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	detected, compressed := DetectFormat(path)
	if format == "" {
		format = detected
	}

	var reader io.Reader = file
	if compressed {
		reader = Decompress(file)
	}

	return Decode(reader, format)
}

// Decode reads a whole document from r and decodes it as a request.
func Decode(r io.Reader, format Format) (*Request, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	switch format {
	case FormatJSON, "":
		return DecodeJSON(data)
	case FormatYAML:
		return DecodeYAML(data)
	}

	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

// DecodeJSON decodes a JSON request object or bare array.
// Request objects are validated against the embedded schema first.
func DecodeJSON(data []byte) (*Request, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, ErrEmptyDocument
	}

	var req Request

	switch data[0] {
	case '{':
		validateErr := ValidateRequest(data)
		if validateErr != nil {
			return nil, validateErr
		}

		unmarshalErr := json.Unmarshal(data, &req)
		if unmarshalErr != nil {
			return nil, fmt.Errorf("decode request: %w", unmarshalErr)
		}
	case '[':
		var unmarshalErr error
		if isNestedArray(data) {
			unmarshalErr = json.Unmarshal(data, &req.Grid)
		} else {
			unmarshalErr = json.Unmarshal(data, &req.Values)
		}

		if unmarshalErr != nil {
			return nil, fmt.Errorf("decode array: %w", unmarshalErr)
		}
	default:
		return nil, ErrUnexpectedInput
	}

	return &req, nil
}

// DecodeYAML decodes a YAML document by normalizing it to JSON, so YAML
// requests go through the same schema validation as JSON ones.
func DecodeYAML(data []byte) (*Request, error) {
	var doc any

	unmarshalErr := yaml.Unmarshal(data, &doc)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("decode yaml: %w", unmarshalErr)
	}

	if doc == nil {
		return nil, ErrEmptyDocument
	}

	normalized, err := json.Marshal(jsonCompatible(doc))
	if err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}

	return DecodeJSON(normalized)
}

// Encode writes v to w in the given format.
func Encode(w io.Writer, format Format, v any) error {
	switch format {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		encodeErr := enc.Encode(v)
		if encodeErr != nil {
			return fmt.Errorf("encode json: %w", encodeErr)
		}

		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)

		encodeErr := enc.Encode(v)
		if encodeErr != nil {
			return fmt.Errorf("encode yaml: %w", encodeErr)
		}

		return enc.Close()
	}

	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

// isNestedArray reports whether the first element of a JSON array is itself an array.
func isNestedArray(data []byte) bool {
	rest := bytes.TrimSpace(data[1:])

	return len(rest) > 0 && rest[0] == '['
}

// jsonCompatible replaces non-finite floats with their string spellings and
// stringifies map keys so the YAML tree can be marshaled as JSON.
func jsonCompatible(node any) any {
	switch typed := node.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, value := range typed {
			out[key] = jsonCompatible(value)
		}

		return out
	case map[any]any:
		out := make(map[string]any, len(typed))
		for key, value := range typed {
			out[fmt.Sprint(key)] = jsonCompatible(value)
		}

		return out
	case []any:
		out := make([]any, len(typed))
		for i, value := range typed {
			out[i] = jsonCompatible(value)
		}

		return out
	case float64:
		switch {
		case math.IsNaN(typed):
			return "NaN"
		case math.IsInf(typed, 1):
			return "+Inf"
		case math.IsInf(typed, -1):
			return "-Inf"
		}

		return typed
	default:
		return node
	}
}

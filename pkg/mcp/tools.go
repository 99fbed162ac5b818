package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/gridstat/pkg/gridio"
)

// Tool name constants.
const (
	ToolNameStatistic = "gridstat_statistic"
	ToolNameQuantile  = "gridstat_quantile"
	ToolNameMissing   = "gridstat_missing"
)

// Input types (auto-generate JSON schemas via struct tags).

// StatisticInput is the input schema for the gridstat_statistic tool.
type StatisticInput struct {
	Quantile  *float64 `json:"quantile,omitempty" jsonschema:"quantile fraction in [0, 1], used by the quantile statistic"`
	Statistic string   `json:"statistic"          jsonschema:"statistic name: mean, min, max, median, quantile, std or sum"`
	Values    []any    `json:"values,omitempty"   jsonschema:"sequence of numbers; null, NaN or Inf mark missing values"`
	Grid      [][]any  `json:"grid,omitempty"     jsonschema:"grid rows; the statistic is computed per row"`
}

// QuantileInput is the input schema for the gridstat_quantile tool.
type QuantileInput struct {
	Quantile float64 `json:"quantile"         jsonschema:"quantile fraction in [0, 1]"`
	Values   []any   `json:"values,omitempty" jsonschema:"sequence of numbers; null, NaN or Inf mark missing values"`
	Grid     [][]any `json:"grid,omitempty"   jsonschema:"grid rows; the quantile is computed per row"`
}

// MissingInput is the input schema for the gridstat_missing tool.
type MissingInput struct {
	Values []any   `json:"values,omitempty" jsonschema:"sequence of numbers"`
	Grid   [][]any `json:"grid,omitempty"   jsonschema:"grid rows"`
}

// Output type (used as structured output for generic AddTool).

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

func (s *Server) handleStatistic(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input StatisticInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	req, err := buildRequest(input.Statistic, input.Quantile, input.Values, input.Grid)
	if err != nil {
		return errorResult(err)
	}

	res, err := s.svc.Statistic(ctx, req)
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(res)
}

func (s *Server) handleQuantile(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input QuantileInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	req, err := buildRequest("", &input.Quantile, input.Values, input.Grid)
	if err != nil {
		return errorResult(err)
	}

	res, err := s.svc.Quantile(ctx, req)
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(res)
}

func (s *Server) handleMissing(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input MissingInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	req, err := buildRequest("", nil, input.Values, input.Grid)
	if err != nil {
		return errorResult(err)
	}

	res, err := s.svc.Missing(ctx, req)
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(res)
}

// buildRequest re-encodes tool arguments as a request object so they pass
// the same schema validation and missing-value decoding as HTTP input.
func buildRequest(statistic string, quantile *float64, values []any, grid [][]any) (*gridio.Request, error) {
	doc := make(map[string]any, 4)

	if statistic != "" {
		doc["statistic"] = statistic
	}

	if quantile != nil {
		doc["quantile"] = *quantile
	}

	if values != nil {
		doc["values"] = values
	}

	if grid != nil {
		doc["grid"] = grid
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode arguments: %w", err)
	}

	return gridio.DecodeJSON(data)
}

// Result helpers.

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, ToolOutput{Data: value}, nil
}

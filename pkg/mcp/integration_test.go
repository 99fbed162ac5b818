package mcp_test

import (
	"context"
	"encoding/json"
	"math"
	"testing"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/Sumatoshi-tech/gridstat/pkg/mcp"
	"github.com/Sumatoshi-tech/gridstat/pkg/observability"
)

func connect(t *testing.T, srv *mcp.Server) *mcpsdk.ClientSession {
	t.Helper()

	clientTransport, serverTransport := mcpsdk.NewInMemoryTransports()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)

	serverDone := make(chan error, 1)

	go func() {
		serverDone <- srv.RunWithTransport(ctx, serverTransport)
	}()

	client := mcpsdk.NewClient(&mcpsdk.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}, nil)

	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = session.Close()

		cancel()
		<-serverDone
	})

	return session
}

func callTool(t *testing.T, session *mcpsdk.ClientSession, name string, args map[string]any) *mcpsdk.CallToolResult {
	t.Helper()

	result, err := session.CallTool(context.Background(), &mcpsdk.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	require.NoError(t, err)
	require.NotNil(t, result)

	return result
}

func decodeText(t *testing.T, result *mcpsdk.CallToolResult) map[string]any {
	t.Helper()

	require.NotEmpty(t, result.Content)

	text, ok := result.Content[0].(*mcpsdk.TextContent)
	require.True(t, ok)

	var decoded map[string]any

	require.NoError(t, json.Unmarshal([]byte(text.Text), &decoded))

	return decoded
}

func TestMCPServer_InMemoryTransport_ToolsList(t *testing.T) {
	t.Parallel()

	session := connect(t, mcp.NewServer(mcp.ServerDeps{}))

	toolsResult, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	toolNames := make([]string, 0, len(toolsResult.Tools))
	for _, tool := range toolsResult.Tools {
		toolNames = append(toolNames, tool.Name)
		assert.NotNil(t, tool.InputSchema, "tool %s missing input schema", tool.Name)
	}

	assert.ElementsMatch(t, []string{mcp.ToolNameStatistic, mcp.ToolNameQuantile, mcp.ToolNameMissing}, toolNames)
}

func TestMCPServer_CallStatistic(t *testing.T) {
	t.Parallel()

	session := connect(t, mcp.NewServer(mcp.ServerDeps{}))

	result := callTool(t, session, mcp.ToolNameStatistic, map[string]any{
		"statistic": "std",
		"values":    []any{2, 4, 4, 4, 5, 5, 7, 9, nil, "NaN"},
	})
	require.False(t, result.IsError)

	decoded := decodeText(t, result)
	assert.InDelta(t, 2.0, decoded["value"], 1e-12)
	assert.InDelta(t, 2.0, decoded["missing"], 0)
}

func TestMCPServer_CallStatistic_Grid(t *testing.T) {
	t.Parallel()

	session := connect(t, mcp.NewServer(mcp.ServerDeps{}))

	result := callTool(t, session, mcp.ToolNameStatistic, map[string]any{
		"statistic": "mean",
		"grid":      []any{[]any{1, 3}, []any{nil}},
	})
	require.False(t, result.IsError)

	decoded := decodeText(t, result)
	assert.Equal(t, []any{2.0, nil}, decoded["rows"])
}

func TestMCPServer_CallQuantile(t *testing.T) {
	t.Parallel()

	session := connect(t, mcp.NewServer(mcp.ServerDeps{}))

	result := callTool(t, session, mcp.ToolNameQuantile, map[string]any{
		"quantile": 0.5,
		"values":   []any{-999, 1, 3},
	})
	require.False(t, result.IsError)

	decoded := decodeText(t, result)
	assert.InDelta(t, 1.0, decoded["value"], 0)
}

func TestMCPServer_CallMissing(t *testing.T) {
	t.Parallel()

	session := connect(t, mcp.NewServer(mcp.ServerDeps{}))

	result := callTool(t, session, mcp.ToolNameMissing, map[string]any{
		"grid": []any{[]any{nil, 1}, []any{"-Inf"}, []any{}},
	})
	require.False(t, result.IsError)

	decoded := decodeText(t, result)
	assert.InDelta(t, 2.0, decoded["missing"], 0)
}

func TestMCPServer_ToolErrors(t *testing.T) {
	t.Parallel()

	session := connect(t, mcp.NewServer(mcp.ServerDeps{}))

	tests := []struct {
		name string
		tool string
		args map[string]any
	}{
		{name: "unknown_statistic", tool: mcp.ToolNameStatistic, args: map[string]any{"statistic": "Mean", "values": []any{1}}},
		{name: "quantile_range", tool: mcp.ToolNameQuantile, args: map[string]any{"quantile": 1.5, "values": []any{1}}},
		{name: "no_input", tool: mcp.ToolNameMissing, args: map[string]any{}},
		{name: "bad_value", tool: mcp.ToolNameMissing, args: map[string]any{"values": []any{"x"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := callTool(t, session, tt.tool, tt.args)
			assert.True(t, result.IsError)
		})
	}
}

func TestMCPServer_MetricsAndTracing(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	red, err := observability.NewREDMetrics(mp.Meter("test"), observability.LayerMCP)
	require.NoError(t, err)

	tp := sdktrace.NewTracerProvider(sdktrace.WithSampler(sdktrace.AlwaysSample()))

	session := connect(t, mcp.NewServer(mcp.ServerDeps{Metrics: red, Tracer: tp.Tracer("test")}))

	result := callTool(t, session, mcp.ToolNameStatistic, map[string]any{
		"statistic": "sum",
		"values":    []any{1, 2, math.MaxInt32},
	})
	require.False(t, result.IsError)

	last, ok := result.Content[len(result.Content)-1].(*mcpsdk.TextContent)
	require.True(t, ok)
	assert.Contains(t, last.Text, "trace_id=")

	var rm metricdata.ResourceMetrics

	require.NoError(t, reader.Collect(context.Background(), &rm))

	found := false

	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name == "gridstat.mcp.requests.total" {
				found = true
			}
		}
	}

	assert.True(t, found)
}

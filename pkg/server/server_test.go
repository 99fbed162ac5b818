package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Sumatoshi-tech/gridstat/pkg/observability"
	"github.com/Sumatoshi-tech/gridstat/pkg/server"
	"github.com/Sumatoshi-tech/gridstat/pkg/service"
	"github.com/Sumatoshi-tech/gridstat/pkg/stats"
)

func newTestServer(t *testing.T, opts server.Options, deps server.Deps) *httptest.Server {
	t.Helper()

	svc := service.New(service.Deps{}, service.Defaults{Statistic: stats.Mean, Quantile: 0.5})
	ts := httptest.NewServer(server.New(svc, deps, opts).Handler())
	t.Cleanup(ts.Close)

	return ts
}

func post(t *testing.T, ts *httptest.Server, path, contentType, body string) (int, map[string]any) {
	t.Helper()

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, ts.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", contentType)

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)

	defer resp.Body.Close()

	var decoded map[string]any

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))

	return resp.StatusCode, decoded
}

func get(t *testing.T, ts *httptest.Server, path string) (int, string) {
	t.Helper()

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, ts.URL+path, http.NoBody)
	require.NoError(t, err)

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, string(body)
}

func TestStatisticEndpoint(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, server.Options{}, server.Deps{})

	tests := []struct {
		name  string
		body  string
		value any
	}{
		{name: "mean", body: `{"statistic": "mean", "values": [1, 2, 3, null]}`, value: 2.0},
		{name: "default_statistic", body: `[2, 4]`, value: 3.0},
		{name: "all_missing", body: `{"statistic": "max", "values": [null, "NaN", "+Inf"]}`, value: nil},
		{name: "sentinel_valid", body: `{"statistic": "min", "values": [-999, 5]}`, value: -999.0},
		{name: "quantile", body: `{"statistic": "quantile", "quantile": 0.25, "values": [0, 1, 2, 3, 4]}`, value: 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			status, body := post(t, ts, server.PathStatistic, "application/json", tt.body)
			require.Equal(t, http.StatusOK, status, body)

			value, ok := body["value"]
			require.True(t, ok)
			assert.Equal(t, tt.value, value)
		})
	}
}

func TestStatisticEndpoint_Grid(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, server.Options{}, server.Deps{})

	status, body := post(t, ts, server.PathStatistic, "application/json",
		`{"statistic": "sum", "grid": [[1, 2], [null], [3, "-Inf", 4]]}`)
	require.Equal(t, http.StatusOK, status)

	assert.Equal(t, []any{3.0, nil, 7.0}, body["rows"])
	assert.InDelta(t, 2.0, body["missing"], 0)
	assert.InDelta(t, 6.0, body["cells"], 0)
}

func TestQuantileEndpoint_YAML(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, server.Options{}, server.Deps{})

	status, body := post(t, ts, server.PathQuantile, "application/yaml", "quantile: 1\nvalues: [3, .nan, 9, 1]\n")
	require.Equal(t, http.StatusOK, status)

	assert.InDelta(t, 9.0, body["value"], 0)
}

func TestMissingEndpoint(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, server.Options{}, server.Deps{})

	status, body := post(t, ts, server.PathMissing, "application/json", `{"grid": [[null, 1], ["Inf"], []]}`)
	require.Equal(t, http.StatusOK, status)

	assert.InDelta(t, 2.0, body["missing"], 0)
}

func TestBadRequests(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, server.Options{}, server.Deps{})

	tests := []struct {
		name string
		path string
		body string
	}{
		{name: "unknown_statistic", path: server.PathStatistic, body: `{"statistic": "average", "values": [1]}`},
		{name: "schema", path: server.PathStatistic, body: `{"values": [1], "bogus": 1}`},
		{name: "quantile_range", path: server.PathQuantile, body: `{"quantile": 2, "values": [1]}`},
		{name: "no_input", path: server.PathMissing, body: `{}`},
		{name: "malformed", path: server.PathMissing, body: `{"grid": [[1,]]}`},
		{name: "empty", path: server.PathQuantile, body: ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			status, body := post(t, ts, tt.path, "application/json", tt.body)

			assert.Equal(t, http.StatusBadRequest, status)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestBodyLimit(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, server.Options{BodyLimit: 16}, server.Deps{})

	status, body := post(t, ts, server.PathStatistic, "application/json", `{"values": [1, 2, 3, 4, 5, 6, 7, 8]}`)

	assert.Equal(t, http.StatusRequestEntityTooLarge, status)
	assert.Contains(t, body["error"], "16 bytes")
}

func TestMethodNotAllowed(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, server.Options{}, server.Deps{})

	status, _ := get(t, ts, server.PathStatistic)
	assert.Equal(t, http.StatusMethodNotAllowed, status)
}

func TestInfoEndpoints(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, server.Options{}, server.Deps{
		MetricsHandler: http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(rw, "# metrics")
		}),
	})

	status, body := get(t, ts, server.PathStatistics)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"statistics": ["mean", "min", "max", "median", "quantile", "std", "sum"]}`, body)

	status, body = get(t, ts, server.PathVersion)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `"version"`)

	status, body = get(t, ts, server.PathHealth)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status": "ok"}`, body)

	status, body = get(t, ts, server.PathReady)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status": "ok", "checks": {"request_schema": "ok", "server": "ok"}}`, body)

	status, body = get(t, ts, server.PathMetrics)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "# metrics", body)
}

func TestMetricsRouteAbsentWithoutHandler(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, server.Options{}, server.Deps{})

	status, _ := get(t, ts, server.PathMetrics)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestServe_StopsOnCancel(t *testing.T) {
	t.Parallel()

	svc := service.New(service.Deps{}, service.Defaults{})
	srv := server.New(svc, server.Deps{}, server.Options{ShutdownTimeout: time.Second})

	var lc net.ListenConfig

	listener, err := lc.Listen(context.Background(), "tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)

	go func() {
		done <- srv.Serve(ctx, listener)
	}()

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, server.PathReady, http.NoBody))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), server.ErrDraining.Error())
}

func TestReadyEndpoint_FailingCheck(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, server.Options{}, server.Deps{
		ReadyChecks: []observability.ReadyCheck{{
			Name:  "warmup",
			Check: func(context.Context) error { return errors.New("grid cache cold") },
		}},
	})

	status, body := get(t, ts, server.PathReady)
	require.Equal(t, http.StatusServiceUnavailable, status)
	assert.JSONEq(t,
		`{"status": "unavailable", "checks": {"request_schema": "ok", "server": "ok", "warmup": "grid cache cold"}}`,
		body)

	status, _ = get(t, ts, server.PathHealth)
	assert.Equal(t, http.StatusOK, status)
}

func TestMetrics_OneCountPerLayer(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test")

	httpRED, err := observability.NewREDMetrics(meter, observability.LayerHTTP)
	require.NoError(t, err)

	computeRED, err := observability.NewREDMetrics(meter, observability.LayerCompute)
	require.NoError(t, err)

	svc := service.New(service.Deps{RED: computeRED}, service.Defaults{Statistic: stats.Mean, Quantile: 0.5})
	handler := server.New(svc, server.Deps{RED: httpRED}, server.Options{}).Handler()

	req := httptest.NewRequest(http.MethodPost, server.PathQuantile, strings.NewReader(`{"quantile": 0.5, "values": [1, 2, 3]}`))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var rm metricdata.ResourceMetrics

	require.NoError(t, reader.Collect(context.Background(), &rm))

	totals := map[string]int64{}

	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			data, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}

			for _, dp := range data.DataPoints {
				totals[m.Name] += dp.Value
			}
		}
	}

	assert.Equal(t, int64(1), totals["gridstat.http.requests.total"])
	assert.Equal(t, int64(1), totals["gridstat.compute.requests.total"])
	assert.Equal(t, int64(0), totals["gridstat.http.inflight.requests"])
	assert.Equal(t, int64(0), totals["gridstat.compute.inflight.requests"])
}

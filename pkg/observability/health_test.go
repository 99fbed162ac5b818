package observability_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/gridstat/pkg/observability"
)

type healthBody struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func serveHealth(t *testing.T, handler http.Handler) (int, healthBody) {
	t.Helper()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body healthBody

	err := json.Unmarshal(rec.Body.Bytes(), &body)
	require.NoError(t, err)

	return rec.Code, body
}

func TestHealthHandler_ReturnsOK(t *testing.T) {
	t.Parallel()

	code, body := serveHealth(t, observability.HealthHandler())
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body.Status)
	assert.Empty(t, body.Checks)
}

func TestReadyHandler(t *testing.T) {
	t.Parallel()

	pass := observability.ReadyCheck{Name: "schema", Check: func(context.Context) error { return nil }}
	fail := observability.ReadyCheck{Name: "server", Check: func(context.Context) error { return errors.New("draining") }}

	tests := []struct {
		name   string
		checks []observability.ReadyCheck
		code   int
		status string
		report map[string]string
	}{
		{name: "no_checks", code: http.StatusOK, status: "ok"},
		{
			name:   "all_pass",
			checks: []observability.ReadyCheck{pass},
			code:   http.StatusOK,
			status: "ok",
			report: map[string]string{"schema": "ok"},
		},
		{
			name:   "one_fails",
			checks: []observability.ReadyCheck{pass, fail},
			code:   http.StatusServiceUnavailable,
			status: "unavailable",
			report: map[string]string{"schema": "ok", "server": "draining"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			code, body := serveHealth(t, observability.ReadyHandler(tt.checks...))
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.status, body.Status)

			if tt.report == nil {
				assert.Empty(t, body.Checks)

				return
			}

			assert.Equal(t, tt.report, body.Checks)
		})
	}
}

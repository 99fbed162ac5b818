package observability

import (
	"context"
	"encoding/json"
	"net/http"
)

const (
	healthStatusOK          = "ok"
	healthStatusUnavailable = "unavailable"
)

// ReadyCheck is one named readiness condition. Check returns nil when ready.
type ReadyCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// healthReport is the /healthz and /readyz body. Checks maps each readiness
// check name to "ok" or its error text.
type healthReport struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// HealthHandler returns an [http.Handler] for liveness checks at /healthz.
// It always returns HTTP 200 with {"status":"ok"}.
func HealthHandler() http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		writeReport(rw, http.StatusOK, healthReport{Status: healthStatusOK})
	})
}

// ReadyHandler returns an [http.Handler] for readiness at /readyz. Every check
// runs on each request and is listed in the body; any failure yields 503.
func ReadyHandler(checks ...ReadyCheck) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, hr *http.Request) {
		report := healthReport{Status: healthStatusOK}
		code := http.StatusOK

		if len(checks) > 0 {
			report.Checks = make(map[string]string, len(checks))
		}

		for _, check := range checks {
			err := check.Check(hr.Context())
			if err != nil {
				report.Checks[check.Name] = err.Error()
				report.Status = healthStatusUnavailable
				code = http.StatusServiceUnavailable

				continue
			}

			report.Checks[check.Name] = healthStatusOK
		}

		writeReport(rw, code, report)
	})
}

func writeReport(rw http.ResponseWriter, code int, report healthReport) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(code)

	_ = json.NewEncoder(rw).Encode(report)
}

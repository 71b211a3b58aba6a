package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/bobmcallan/stockmatrix/internal/common"
	"github.com/bobmcallan/stockmatrix/internal/metrics"
)

func TestRecoveryMiddleware_Returns500(t *testing.T) {
	handler := recoveryMiddleware(common.NewSilentLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/stock", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Internal server error") {
		t.Errorf("Unexpected body: %s", rr.Body.String())
	}
}

func TestCorsMiddleware_Preflight(t *testing.T) {
	called := false
	handler := corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodOptions, "/api/stock", nil))

	if rr.Code != http.StatusNoContent {
		t.Errorf("Expected 204, got %d", rr.Code)
	}
	if called {
		t.Error("Preflight should not reach the handler")
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("Missing Access-Control-Allow-Origin")
	}
	if !strings.Contains(rr.Header().Get("Access-Control-Expose-Headers"), "Content-Disposition") {
		t.Error("Content-Disposition should be exposed for exports")
	}
}

func TestCorrelationIDMiddleware_PreservesRequestID(t *testing.T) {
	handler := correlationIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "abc123")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if got := rr.Header().Get("X-Correlation-ID"); got != "abc123" {
		t.Errorf("Expected abc123, got %s", got)
	}
}

func TestCorrelationIDMiddleware_Generates(t *testing.T) {
	handler := correlationIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if got := rr.Header().Get("X-Correlation-ID"); len(got) != 8 {
		t.Errorf("Expected 8-char generated ID, got %q", got)
	}
}

func TestLoggingMiddleware_LogsAndRecords(t *testing.T) {
	var buf bytes.Buffer
	logger := common.NewLoggerWithOutput("info", &buf)
	m := metrics.New()

	handler := loggingMiddleware(logger, m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusNotFound, "no data")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/stock", nil))

	if !strings.Contains(buf.String(), `"status":404`) {
		t.Errorf("Expected 4xx request to be logged at info, got: %s", buf.String())
	}
	if got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/api/stock", "404")); got != 1 {
		t.Errorf("Expected 1 recorded request, got %v", got)
	}
}

func TestLoggingMiddleware_SuccessAtTrace(t *testing.T) {
	var buf bytes.Buffer
	logger := common.NewLoggerWithOutput("info", &buf)

	handler := loggingMiddleware(logger, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if buf.Len() != 0 {
		t.Errorf("Expected no output for 2xx at info level, got: %s", buf.String())
	}
}

func TestRouteLabel(t *testing.T) {
	if routeLabel("/api/stock") != "/api/stock" {
		t.Error("Expected registered route to be kept")
	}
	if routeLabel("/api/stock/TCS") != "other" {
		t.Error("Expected unknown path to collapse to other")
	}
}

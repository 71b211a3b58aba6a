package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClientIP_RemoteAddr(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/stock", nil)
	req.RemoteAddr = "203.0.113.7:51234"
	req.Header.Set("X-Forwarded-For", "198.51.100.1")

	if got := ClientIP(req, false); got != "203.0.113.7" {
		t.Errorf("Expected 203.0.113.7, got %s", got)
	}
}

func TestClientIP_TrustedForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/stock", nil)
	req.RemoteAddr = "10.0.0.2:8080"
	req.Header.Set("X-Forwarded-For", " 198.51.100.1 , 10.0.0.1")

	if got := ClientIP(req, true); got != "198.51.100.1" {
		t.Errorf("Expected 198.51.100.1, got %s", got)
	}
}

func TestClientIP_TrustedWithoutHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/stock", nil)
	req.RemoteAddr = "[2001:db8::1]:443"

	if got := ClientIP(req, true); got != "2001:db8::1" {
		t.Errorf("Expected 2001:db8::1, got %s", got)
	}
}

func TestClientIP_UnparseableRemoteAddr(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/stock", nil)
	req.RemoteAddr = "pipe"

	if got := ClientIP(req, false); got != "pipe" {
		t.Errorf("Expected raw RemoteAddr, got %s", got)
	}
}

func TestDecodeJSON_EmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/stock", nil)
	rr := httptest.NewRecorder()

	var v StockRequest
	if DecodeJSON(rr, req, &v) {
		t.Fatal("Expected DecodeJSON to fail on empty body")
	}
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rr.Code)
	}
}

func TestDecodeJSON_Valid(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/stock", strings.NewReader(`{"symbol":"INFY","format":"csv"}`))
	rr := httptest.NewRecorder()

	var v StockRequest
	if !DecodeJSON(rr, req, &v) {
		t.Fatalf("DecodeJSON failed: %s", rr.Body.String())
	}
	if v.Symbol != "INFY" || v.Format != "csv" {
		t.Errorf("Unexpected decode result: %+v", v)
	}
}

func TestRequireMethod_SetsAllow(t *testing.T) {
	req := httptest.NewRequest(http.MethodDelete, "/api/health", nil)
	rr := httptest.NewRecorder()

	if RequireMethod(rr, req, http.MethodGet, http.MethodHead) {
		t.Fatal("Expected RequireMethod to reject DELETE")
	}
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", rr.Code)
	}
	if allow := rr.Header().Get("Allow"); allow != "GET, HEAD" {
		t.Errorf("Expected Allow: GET, HEAD, got %q", allow)
	}
}

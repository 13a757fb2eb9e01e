package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"github.com/R3E-Network/bizhub/internal/logging"
)

func TestTracingMiddleware(t *testing.T) {
	var seen string
	handler := NewTracingMiddleware().Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.GetTraceID(r.Context())
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(TraceHeader, "trace-abc")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if seen != "trace-abc" || rec.Header().Get(TraceHeader) != "trace-abc" {
		t.Fatalf("trace id not propagated: ctx=%q header=%q", seen, rec.Header().Get(TraceHeader))
	}

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set(TraceHeader, strings.Repeat("x", maxTraceIDLen+1))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if seen == "" || len(seen) > maxTraceIDLen {
		t.Fatalf("oversized trace id must be replaced, got %q", seen)
	}
}

func TestLoggingMiddlewareCapturesStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithOutput("test", "debug", "json", &buf)

	router := mux.NewRouter()
	router.Use(MetricsMiddleware(), LoggingMiddleware(logger))
	router.HandleFunc("/customers/{customer}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/customers/9", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("Status code = %d, want 404", rec.Code)
	}
	if !strings.Contains(buf.String(), `"status":404`) {
		t.Fatalf("log line missing status: %s", buf.String())
	}
}

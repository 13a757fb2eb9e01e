package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCORSMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name      string
		allowed   []string
		origin    string
		method    string
		wantAllow string
		wantCreds string
		wantCode  int
	}{
		{"exact match", []string{"https://app.example.com"}, "https://app.example.com", "GET", "https://app.example.com", "true", http.StatusOK},
		{"wildcard subdomain", []string{"*.example.com"}, "https://admin.example.com", "GET", "https://admin.example.com", "true", http.StatusOK},
		{"suffix lookalike", []string{"*.example.com"}, "https://evilexample.com", "GET", "", "", http.StatusOK},
		{"allow all without credentials", []string{"*"}, "https://evil.example", "GET", "*", "", http.StatusOK},
		{"explicit origin beside allow all", []string{"*", "https://app.example.com"}, "https://app.example.com", "GET", "https://app.example.com", "true", http.StatusOK},
		{"not allowed", []string{"https://app.example.com"}, "https://other.test", "GET", "", "", http.StatusOK},
		{"preflight", []string{"*"}, "https://anything.test", "OPTIONS", "*", "", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewCORSMiddleware(tt.allowed).Handler(next)
			req := httptest.NewRequest(tt.method, "/api/customers", nil)
			req.Header.Set("Origin", tt.origin)
			if tt.method == http.MethodOptions {
				req.Header.Set("Access-Control-Request-Method", "POST")
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantAllow {
				t.Errorf("Allow-Origin = %q, want %q", got, tt.wantAllow)
			}
			if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != tt.wantCreds {
				t.Errorf("Allow-Credentials = %q, want %q", got, tt.wantCreds)
			}
			if rec.Code != tt.wantCode {
				t.Errorf("Status code = %d, want %d", rec.Code, tt.wantCode)
			}
		})
	}
}

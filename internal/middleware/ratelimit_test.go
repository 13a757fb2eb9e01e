package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/R3E-Network/bizhub/internal/logging"
)

func TestRateLimiter_LimitsPerKey(t *testing.T) {
	rl := NewRateLimiter(1, 2, testLogger())
	handler := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(remote, user string) int {
		req := httptest.NewRequest("GET", "/api/customers", nil)
		req.RemoteAddr = remote
		if user != "" {
			req = req.WithContext(logging.WithUserID(req.Context(), user))
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 2; i++ {
		if code := do("10.0.0.1:1234", ""); code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i, code)
		}
	}
	if code := do("10.0.0.1:5678", ""); code != http.StatusTooManyRequests {
		t.Fatalf("third request from same IP: status = %d, want 429", code)
	}
	if code := do("10.0.0.1:1234", "42"); code != http.StatusOK {
		t.Fatalf("authenticated user has own bucket: status = %d", code)
	}
}

func TestRateLimiter_CleanupRemovesIdle(t *testing.T) {
	rl := NewRateLimiter(10, 10, testLogger())
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.getLimiter("old")
	now = now.Add(11 * time.Minute)
	rl.getLimiter("fresh")

	if removed := rl.Cleanup(); removed != 1 {
		t.Fatalf("Cleanup() removed %d, want 1", removed)
	}
	if _, ok := rl.limiters["fresh"]; !ok {
		t.Fatal("fresh limiter must survive")
	}
}

func TestRateLimiter_StartStop(t *testing.T) {
	rl := NewRateLimiter(10, 10, testLogger())
	rl.interval = time.Millisecond

	if err := rl.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := rl.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if err := NewRateLimiter(1, 1, nil).Stop(ctx); err != nil {
		t.Fatalf("Stop() before Start() = %v", err)
	}
}

func TestClientIP(t *testing.T) {
	cases := map[string]string{
		"10.0.0.1:80":   "10.0.0.1",
		"[::1]:8080":    "[::1]",
		"no-port":       "no-port",
		"[fe80::1%lo0]": "[fe80::1%lo0]",
	}
	for in, want := range cases {
		req := httptest.NewRequest("GET", "/", nil)
		req.RemoteAddr = in
		if got := clientIP(req); got != want {
			t.Errorf("clientIP(%q) = %q, want %q", in, got, want)
		}
	}
}

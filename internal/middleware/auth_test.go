package middleware

import (
	"crypto/rand"
	"crypto/rsa"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/R3E-Network/bizhub/internal/app/tenant"
	"github.com/R3E-Network/bizhub/internal/logging"
)

var testSecret = []byte("test-secret-with-enough-bytes-32!")

func testLogger() *logging.Logger {
	return logging.NewWithOutput("test", "error", "json", io.Discard)
}

func generateTestKeys(t *testing.T) (*rsa.PrivateKey, *rsa.PublicKey) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("Failed to generate RSA key: %v", err)
	}
	return privateKey, &privateKey.PublicKey
}

func generateRSAToken(t *testing.T, privateKey *rsa.PrivateKey, userID, tenantID int64, expired bool) string {
	claims := &Claims{
		UserID:   userID,
		TenantID: tenantID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	if expired {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-1 * time.Hour))
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(privateKey)
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return tokenString
}

func signTestToken(t *testing.T, userID, tenantID int64) string {
	token, err := SignToken(testSecret, userID, tenantID, "admin", time.Hour)
	if err != nil {
		t.Fatalf("SignToken() error = %v", err)
	}
	return token
}

// captureIdentity returns a handler recording the identity it saw.
func captureIdentity(got *tenant.Identity, ok *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got, *ok = tenant.IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestNewAuthMiddleware(t *testing.T) {
	middleware := NewAuthMiddleware(testSecret, testLogger(), []string{"/healthz", "/metrics"})

	if len(middleware.skipPaths) != 2 || !middleware.skipPaths["/healthz"] {
		t.Errorf("skipPaths = %v", middleware.skipPaths)
	}
	if middleware.cookieName != DefaultCookieName {
		t.Errorf("cookieName = %q, want %q", middleware.cookieName, DefaultCookieName)
	}
	if middleware.WithCookie("").cookieName != DefaultCookieName {
		t.Error("empty cookie name must keep the default")
	}
}

func TestAuthMiddleware_AnonymousPassesThrough(t *testing.T) {
	var got tenant.Identity
	var ok bool
	handler := NewAuthMiddleware(testSecret, testLogger(), nil).Handler(captureIdentity(&got, &ok))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/customers", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Status code = %d, want %d", rec.Code, http.StatusOK)
	}
	if ok {
		t.Fatalf("anonymous request must carry no identity, got %+v", got)
	}
}

func TestAuthMiddleware_BearerToken(t *testing.T) {
	var got tenant.Identity
	var ok bool
	var userID, tenantID string
	handler := NewAuthMiddleware(testSecret, testLogger(), nil).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = tenant.IdentityFromContext(r.Context())
		userID = GetUserID(r.Context())
		tenantID = logging.GetTenantID(r.Context())
	}))

	req := httptest.NewRequest("GET", "/api/customers", nil)
	req.Header.Set("Authorization", "Bearer "+signTestToken(t, 7, 3))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if !ok || got.UserID != 7 || got.TenantID != 3 || got.Role != "admin" {
		t.Fatalf("identity = %+v ok=%v", got, ok)
	}
	if userID != "7" || tenantID != "3" {
		t.Fatalf("log context user=%q tenant=%q", userID, tenantID)
	}
}

func TestAuthMiddleware_CookieToken(t *testing.T) {
	var got tenant.Identity
	var ok bool
	handler := NewAuthMiddleware(testSecret, testLogger(), nil).WithCookie("session_token").Handler(captureIdentity(&got, &ok))

	req := httptest.NewRequest("GET", "/customers", nil)
	req.AddCookie(&http.Cookie{Name: "session_token", Value: signTestToken(t, 9, 4)})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if !ok || got.TenantID != 4 {
		t.Fatalf("identity = %+v ok=%v", got, ok)
	}
}

func TestAuthMiddleware_SkipPaths(t *testing.T) {
	handler := NewAuthMiddleware(testSecret, testLogger(), []string{"/healthz"}).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/healthz", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Status code = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestAuthMiddleware_RejectsBadTokens(t *testing.T) {
	privateKey, publicKey := generateTestKeys(t)
	otherKey, _ := generateTestKeys(t)

	hmacToken := signTestToken(t, 1, 1)
	noUser, err := SignToken(testSecret, 0, 1, "", time.Hour)
	if err != nil {
		t.Fatalf("SignToken() error = %v", err)
	}

	tests := []struct {
		name   string
		key    interface{}
		header string
	}{
		{"no bearer prefix", testSecret, "token123"},
		{"wrong prefix", testSecret, "Basic token123"},
		{"empty token", testSecret, "Bearer "},
		{"garbage", testSecret, "Bearer invalid.token.here"},
		{"wrong secret", []byte("another-secret-another-secret-00"), "Bearer " + hmacToken},
		{"missing user", testSecret, "Bearer " + noUser},
		{"expired rsa", publicKey, "Bearer " + generateRSAToken(t, privateKey, 1, 1, true)},
		{"wrong rsa key", publicKey, "Bearer " + generateRSAToken(t, otherKey, 1, 1, false)},
		{"hmac against rsa key", publicKey, "Bearer " + hmacToken},
		{"rsa against hmac key", testSecret, "Bearer " + generateRSAToken(t, privateKey, 1, 1, false)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := NewAuthMiddleware(tt.key, testLogger(), nil).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))

			req := httptest.NewRequest("GET", "/api/test", nil)
			req.Header.Set("Authorization", tt.header)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("Status code = %d, want %d", rec.Code, http.StatusUnauthorized)
			}
			if called {
				t.Error("next handler must not run")
			}
		})
	}
}

func TestAuthMiddleware_RSAToken(t *testing.T) {
	privateKey, publicKey := generateTestKeys(t)
	var got tenant.Identity
	var ok bool
	handler := NewAuthMiddleware(publicKey, testLogger(), nil).Handler(captureIdentity(&got, &ok))

	req := httptest.NewRequest("GET", "/api/test", nil)
	req.Header.Set("Authorization", "Bearer "+generateRSAToken(t, privateKey, 5, 6, false))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || !ok || got.UserID != 5 || got.TenantID != 6 {
		t.Fatalf("status=%d identity=%+v ok=%v", rec.Code, got, ok)
	}
}

func TestAuthMiddleware_PreservesTraceID(t *testing.T) {
	var capturedTraceID string
	handler := NewAuthMiddleware(testSecret, testLogger(), nil).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedTraceID = logging.GetTraceID(r.Context())
	}))

	req := httptest.NewRequest("GET", "/api/test", nil)
	req = req.WithContext(logging.WithTraceID(req.Context(), "trace-456"))
	req.Header.Set("Authorization", "Bearer "+signTestToken(t, 1, 1))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if capturedTraceID != "trace-456" {
		t.Errorf("Trace ID = %v, want trace-456", capturedTraceID)
	}
}

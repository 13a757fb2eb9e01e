// Package middleware provides HTTP middleware for the bizhub server
package middleware

import (
	"context"
	"crypto/rsa"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/R3E-Network/bizhub/internal/app/tenant"
	"github.com/R3E-Network/bizhub/internal/errors"
	internalhttputil "github.com/R3E-Network/bizhub/internal/httputil"
	"github.com/R3E-Network/bizhub/internal/logging"
)

// DefaultCookieName is the cookie consulted when no Authorization header
// is present.
const DefaultCookieName = "bizhub_token"

// Claims represents JWT claims
type Claims struct {
	UserID   int64  `json:"user_id"`
	TenantID int64  `json:"tenant_id,omitempty"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Identity converts the claims to the tenant identity.
func (c *Claims) Identity() tenant.Identity {
	return tenant.Identity{UserID: c.UserID, TenantID: c.TenantID, Role: c.Role}
}

// AuthMiddleware provides JWT authentication. The verification key is
// either an HMAC secret ([]byte) or an *rsa.PublicKey.
//
// A request without a token continues anonymously; handlers resolve the
// tenant and reject it themselves. A token that is present but invalid is
// rejected here.
type AuthMiddleware struct {
	key        interface{}
	logger     *logging.Logger
	skipPaths  map[string]bool
	cookieName string
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(key interface{}, logger *logging.Logger, skipPaths []string) *AuthMiddleware {
	skip := make(map[string]bool)
	for _, path := range skipPaths {
		skip[path] = true
	}

	if logger == nil {
		logger = logging.NewDefault("auth")
	}

	return &AuthMiddleware{
		key:        key,
		logger:     logger,
		skipPaths:  skip,
		cookieName: DefaultCookieName,
	}
}

// WithCookie sets the name of the cookie carrying the token.
func (m *AuthMiddleware) WithCookie(name string) *AuthMiddleware {
	if name != "" {
		m.cookieName = name
	}
	return m
}

// Handler returns the middleware handler
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.skipPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		tokenString, err := m.extractToken(r)
		if err != nil {
			m.respondError(w, r, err)
			return
		}
		if tokenString == "" {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := m.validateToken(tokenString)
		if err != nil {
			m.logger.WithContext(r.Context()).WithError(err).Warn("Token validation failed")
			m.respondError(w, r, err)
			return
		}

		ctx := tenant.WithIdentity(r.Context(), claims.Identity())
		ctx = logging.WithUserID(ctx, strconv.FormatInt(claims.UserID, 10))
		if claims.TenantID != 0 {
			ctx = logging.WithTenantID(ctx, strconv.FormatInt(claims.TenantID, 10))
		}
		if claims.Role != "" {
			ctx = logging.WithRole(ctx, claims.Role)
		}

		m.logger.WithContext(ctx).Debug("Authentication successful")

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractToken reads the bearer header, falling back to the cookie.
func (m *AuthMiddleware) extractToken(r *http.Request) (string, error) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			return "", errors.Unauthorized("Invalid Authorization header format")
		}
		return strings.TrimSpace(parts[1]), nil
	}
	if c, err := r.Cookie(m.cookieName); err == nil {
		return c.Value, nil
	}
	return "", nil
}

// validateToken validates a JWT token and returns claims
func (m *AuthMiddleware) validateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		switch m.key.(type) {
		case []byte:
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.InvalidToken(nil).WithDetails("method", token.Header["alg"])
			}
		case *rsa.PublicKey:
			if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
				return nil, errors.InvalidToken(nil).WithDetails("method", token.Header["alg"])
			}
		default:
			return nil, errors.InvalidToken(nil).WithDetails("reason", "no verification key")
		}
		return m.key, nil
	})

	if err != nil {
		return nil, errors.InvalidToken(err)
	}

	if !token.Valid {
		return nil, errors.InvalidToken(nil)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || claims.UserID == 0 {
		return nil, errors.InvalidToken(nil).WithDetails("reason", "invalid claims")
	}

	return claims, nil
}

// respondError sends an error response
func (m *AuthMiddleware) respondError(w http.ResponseWriter, r *http.Request, err error) {
	internalhttputil.WriteServiceError(w, r, err)

	status := http.StatusInternalServerError
	if serviceErr := errors.GetServiceError(err); serviceErr != nil {
		status = serviceErr.HTTPStatus
	}
	m.logger.WithContext(r.Context()).WithError(err).WithFields(map[string]interface{}{
		"path":   r.URL.Path,
		"method": r.Method,
		"status": status,
	}).Warn("Authentication failed")
}

// SignToken issues an HS256 token for the given user and tenant.
func SignToken(secret []byte, userID, tenantID int64, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:   userID,
		TenantID: tenantID,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// GetUserID extracts user ID from context
func GetUserID(ctx context.Context) string {
	return logging.GetUserID(ctx)
}

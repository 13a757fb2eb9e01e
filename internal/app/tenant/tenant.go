// Package tenant resolves the tenant scope of a request.
package tenant

import (
	"context"
	"errors"
	"strconv"
)

// NotFoundMessage is the fixed user-facing message returned when a request
// has no resolvable tenant.
const NotFoundMessage = "Tenant não encontrado."

var (
	// ErrUnauthenticated is returned when no identity is present.
	ErrUnauthenticated = errors.New("tenant: unauthenticated")
	// ErrTenantMissing is returned when the identity has no tenant.
	ErrTenantMissing = errors.New("tenant: identity has no tenant")
)

// Identity is the authenticated principal as reported by the identity
// provider.
type Identity struct {
	UserID   int64
	TenantID int64
	Role     string
}

// IdentitySource looks up the authenticated identity of the current request.
type IdentitySource interface {
	CurrentUser(ctx context.Context) (Identity, bool)
}

// IdentitySourceFunc adapts a function to IdentitySource.
type IdentitySourceFunc func(ctx context.Context) (Identity, bool)

// CurrentUser implements IdentitySource.
func (f IdentitySourceFunc) CurrentUser(ctx context.Context) (Identity, bool) {
	return f(ctx)
}

// Context is the tenant scope of one request. It is a value and is never
// mutated after resolution.
type Context struct {
	TenantID int64
	UserID   int64
}

// Owns reports whether a record with tenantID belongs to this scope.
func (c Context) Owns(tenantID int64) bool {
	return c.TenantID != 0 && c.TenantID == tenantID
}

// TenantKey returns the tenant id as a string, for logs and labels.
func (c Context) TenantKey() string {
	return strconv.FormatInt(c.TenantID, 10)
}

// Resolve derives the tenant scope from src.
func Resolve(ctx context.Context, src IdentitySource) (Context, error) {
	if src == nil {
		return Context{}, ErrUnauthenticated
	}
	id, ok := src.CurrentUser(ctx)
	if !ok || id.UserID == 0 {
		return Context{}, ErrUnauthenticated
	}
	if id.TenantID == 0 {
		return Context{}, ErrTenantMissing
	}
	return Context{TenantID: id.TenantID, UserID: id.UserID}, nil
}

type identityKey struct{}

// WithIdentity stores an authenticated identity in ctx. Only the
// authentication middleware should call this.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity stored by WithIdentity.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// ContextSource is the IdentitySource backed by WithIdentity.
var ContextSource IdentitySource = IdentitySourceFunc(IdentityFromContext)

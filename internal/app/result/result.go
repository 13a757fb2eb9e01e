// Package result defines the uniform outcome returned by every domain
// operation.
//
// A Result is either a success carrying an optional payload or a failure
// carrying a message and optional per-field errors. Both may carry
// descriptive tags (action, entity, entity id) used for audit logging and
// navigation hints used when the response is a page redirect. Results are
// immutable once built.
package result

import "net/http"

// Kind classifies a failure.
type Kind int

const (
	// KindNone marks a successful result.
	KindNone Kind = iota
	// KindValidation is caller-supplied input that failed validation.
	KindValidation
	// KindNotFound is a referenced entity that does not exist.
	KindNotFound
	// KindForbidden is an entity that exists but belongs to another tenant.
	KindForbidden
	// KindOperation is a generic business-rule rejection.
	KindOperation
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindOperation:
		return "operation"
	default:
		return "unknown"
	}
}

// Status returns the HTTP status used for failures of kind k in the data
// format. Validation-shaped failures map to 422, everything generic to 400.
func Status(k Kind) int {
	switch k {
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusBadRequest
	}
}

// Result is the outcome of a domain operation. The zero value is a failure
// with an empty message; use Success or Failure to build one.
type Result struct {
	ok       bool
	payload  any
	message  string
	errors   map[string]string
	kind     Kind
	action   string
	entity   string
	entityID int64
	target   string
	params   map[string]string
}

// Option attaches optional descriptive data to a Result.
type Option func(*Result)

// WithAction tags the result with an audit action name.
func WithAction(action string) Option {
	return func(r *Result) { r.action = action }
}

// WithEntity tags the result with the affected entity and its id. An id of
// zero means no specific record.
func WithEntity(entity string, id int64) Option {
	return func(r *Result) {
		r.entity = entity
		r.entityID = id
	}
}

// WithRedirect sets the page navigation target. target is either a named
// route or a path.
func WithRedirect(target string, params map[string]string) Option {
	return func(r *Result) {
		r.target = target
		r.params = copyStrings(params)
	}
}

// WithErrors attaches per-field errors. Ignored on success.
func WithErrors(errs map[string]string) Option {
	return func(r *Result) {
		if r.ok {
			return
		}
		r.errors = copyStrings(errs)
	}
}

// WithKind sets the failure kind. Ignored on success.
func WithKind(kind Kind) Option {
	return func(r *Result) {
		if r.ok || kind == KindNone {
			return
		}
		r.kind = kind
	}
}

// Success builds a successful result carrying payload.
func Success(payload any, opts ...Option) Result {
	r := Result{ok: true, payload: payload, kind: KindNone}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// Failure builds a failed result. The kind defaults to KindOperation.
func Failure(message string, opts ...Option) Result {
	r := Result{ok: false, message: message, kind: KindOperation}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// Validation builds a validation failure with per-field errors.
func Validation(message string, errs map[string]string, opts ...Option) Result {
	return Failure(message, append([]Option{WithKind(KindValidation), WithErrors(errs)}, opts...)...)
}

// NotFound builds a not-found failure.
func NotFound(message string, opts ...Option) Result {
	return Failure(message, append([]Option{WithKind(KindNotFound)}, opts...)...)
}

// Forbidden builds a failure for a record owned by another tenant.
func Forbidden(message string, opts ...Option) Result {
	return Failure(message, append([]Option{WithKind(KindForbidden)}, opts...)...)
}

// IsSuccess reports whether the operation succeeded.
func (r Result) IsSuccess() bool { return r.ok }

// Data returns the success payload, or nil for a failure.
func (r Result) Data() any {
	if !r.ok {
		return nil
	}
	return r.payload
}

// Message returns the failure message, or "" for a success.
func (r Result) Message() string {
	if r.ok {
		return ""
	}
	return r.message
}

// Error is an alias of Message.
func (r Result) Error() string { return r.Message() }

// Errors returns a copy of the per-field errors, or nil.
func (r Result) Errors() map[string]string {
	if r.ok {
		return nil
	}
	return copyStrings(r.errors)
}

// Kind returns the failure kind, KindNone for a success.
func (r Result) Kind() Kind {
	if r.ok {
		return KindNone
	}
	return r.kind
}

// Action returns the audit action tag.
func (r Result) Action() string { return r.action }

// Entity returns the entity tag.
func (r Result) Entity() string { return r.entity }

// EntityID returns the entity id tag, zero when absent.
func (r Result) EntityID() int64 { return r.entityID }

// RedirectTarget returns the navigation target, "" when absent.
func (r Result) RedirectTarget() string { return r.target }

// RedirectParameters returns a copy of the navigation parameters.
func (r Result) RedirectParameters() map[string]string { return copyStrings(r.params) }

func copyStrings(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

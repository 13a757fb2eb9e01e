// Package app composes bizhub: it opens storage, builds the domain
// services, the audit trail and the HTTP surface from a config.Config, and
// manages the lifecycle of everything that needs starting or closing.
//
// Request flow:
//
//	tracing -> cors -> router -> auth -> rate limit -> metrics -> logging -> handler
//
// Handlers resolve the tenant, call exactly one service operation and hand
// the result to respond.Mapper, which records the audit entry and picks the
// response shape.
package app

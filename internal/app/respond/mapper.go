// Package respond turns operation results into transport-level outcomes.
//
// A handler negotiates the response format once, resolves the tenant,
// calls one domain operation and hands the result to a Mapper. The Mapper
// picks a Redirect, Page or Envelope and appends exactly one audit entry;
// the Writer serialises that outcome onto the wire.
package respond

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/R3E-Network/bizhub/internal/app/audit"
	"github.com/R3E-Network/bizhub/internal/app/metrics"
	"github.com/R3E-Network/bizhub/internal/app/result"
	"github.com/R3E-Network/bizhub/internal/app/tenant"
	"github.com/R3E-Network/bizhub/internal/logging"
)

// DefaultSuccessMessage is used when a request names no success message.
const DefaultSuccessMessage = "Operação realizada com sucesso."

// Messages are the user-facing texts of one operation.
type Messages struct {
	Success string
	Error   string
}

// Request is the explicit per-request context handed to the mapper.
type Request struct {
	Tenant        tenant.Context
	TraceID       string
	Format        Format
	Messages      Messages
	SuccessStatus int
	Input         url.Values
	Metadata      map[string]any
}

// Mapper maps results to outcomes and records the audit side effect.
type Mapper struct {
	recorder audit.Recorder
	log      *logging.Logger
}

// NewMapper creates a mapper. A nil recorder disables auditing.
func NewMapper(recorder audit.Recorder, log *logging.Logger) *Mapper {
	if log == nil {
		log = logging.NewDefault("respond")
	}
	return &Mapper{recorder: recorder, log: log}
}

// Map converts res into a redirect (page) or an envelope (data).
func (m *Mapper) Map(ctx context.Context, req Request, res result.Result) Outcome {
	out := Build(req, res)
	m.finish(ctx, req, res)
	return out
}

// Render is Map for read pages: a successful page request renders tmpl
// with the result payload instead of redirecting.
func (m *Mapper) Render(ctx context.Context, req Request, res result.Result, tmpl string) Outcome {
	var out Outcome
	if req.Format == FormatPage && res.IsSuccess() {
		out = Page{Template: tmpl, Status: http.StatusOK, Data: res.Data()}
	} else {
		out = Build(req, res)
	}
	m.finish(ctx, req, res)
	return out
}

// Build is the pure part of Map. It has no side effects, so the same
// request and result always produce the same outcome.
func Build(req Request, res result.Result) Outcome {
	if req.Format == FormatData {
		return buildEnvelope(req, res)
	}
	return buildRedirect(req, res)
}

func buildEnvelope(req Request, res result.Result) Envelope {
	if res.IsSuccess() {
		status := req.SuccessStatus
		if status < 200 || status > 299 {
			status = http.StatusOK
		}
		return Envelope{Status: status, Body: Body{
			Success: true,
			Data:    res.Data(),
			Message: successMessage(req),
		}}
	}

	message := req.Messages.Error
	if message == "" {
		message = res.Message()
	}
	return Envelope{Status: result.Status(res.Kind()), Body: Body{
		Success: false,
		Error:   res.Message(),
		Message: message,
		Errors:  res.Errors(),
	}}
}

func buildRedirect(req Request, res result.Result) Redirect {
	target := res.RedirectTarget()
	if target == "" {
		target = Back
	}
	out := Redirect{Target: target, Params: res.RedirectParameters()}
	if res.IsSuccess() {
		out.Flash.Success = successMessage(req)
		return out
	}
	out.Flash.Error = res.Message()
	out.OldInput = cloneValues(req.Input)
	out.Errors = res.Errors()
	return out
}

// TenantMissing is the fixed response for a request without a tenant. It
// involves no operation result and writes no audit entry.
func TenantMissing(format Format) Outcome {
	if format == FormatData {
		return Envelope{Status: http.StatusForbidden, Body: Body{
			Success: false,
			Error:   tenant.NotFoundMessage,
			Message: tenant.NotFoundMessage,
		}}
	}
	return Redirect{Target: Back, Flash: Flash{Error: tenant.NotFoundMessage}}
}

func successMessage(req Request) string {
	if req.Messages.Success != "" {
		return req.Messages.Success
	}
	return DefaultSuccessMessage
}

func (m *Mapper) finish(ctx context.Context, req Request, res result.Result) {
	metrics.RecordOperation(res.Entity(), req.Format.String(), res.IsSuccess())
	m.record(ctx, Entry(req, res))
}

// Entry builds the audit entry describing res.
func Entry(req Request, res result.Result) audit.Entry {
	entry := audit.Entry{
		Entity:   res.Entity(),
		EntityID: res.EntityID(),
		TenantID: req.Tenant.TenantID,
		UserID:   req.Tenant.UserID,
		TraceID:  req.TraceID,
		Metadata: make(map[string]any, len(req.Metadata)+2),
	}
	for k, v := range req.Metadata {
		entry.Metadata[k] = v
	}

	if res.IsSuccess() {
		entry.Action = res.Action()
		if entry.Action == "" {
			entry.Action = audit.ActionSuccess
		}
		entry.Outcome = audit.OutcomeSuccess
		return entry
	}

	entry.Action = audit.ActionError
	entry.Outcome = audit.OutcomeFailure
	entry.Metadata["error"] = res.Message()
	if action := res.Action(); action != "" {
		entry.Metadata["attempted_action"] = action
	}
	if errs := res.Errors(); len(errs) > 0 {
		entry.Metadata["errors"] = errs
	}
	return entry
}

// record never lets the audit write affect the response.
func (m *Mapper) record(ctx context.Context, entry audit.Entry) {
	if m.recorder == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			metrics.RecordAuditFailure()
			m.log.WithContext(ctx).
				WithField("action", entry.Action).
				WithField("panic", fmt.Sprint(r)).
				Warn("audit recorder panicked")
		}
	}()
	if err := m.recorder.Record(ctx, entry); err != nil {
		metrics.RecordAuditFailure()
		m.log.WithContext(ctx).
			WithError(err).
			WithField("action", entry.Action).
			Warn("audit write failed")
	}
}

func cloneValues(in url.Values) url.Values {
	if len(in) == 0 {
		return nil
	}
	out := make(url.Values, len(in))
	for k, v := range in {
		out[k] = append([]string(nil), v...)
	}
	return out
}

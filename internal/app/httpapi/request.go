package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/gorilla/schema"

	"github.com/R3E-Network/bizhub/internal/app/metrics"
	"github.com/R3E-Network/bizhub/internal/app/respond"
	"github.com/R3E-Network/bizhub/internal/app/result"
	"github.com/R3E-Network/bizhub/internal/app/tenant"
	"github.com/R3E-Network/bizhub/internal/app/validation"
	svcerrors "github.com/R3E-Network/bizhub/internal/errors"
	"github.com/R3E-Network/bizhub/internal/httputil"
	"github.com/R3E-Network/bizhub/internal/logging"
)

const msgInvalidValue = "Valor inválido."

// op holds the per-route texts and status of one operation.
type op struct {
	success string
	failure string
	status  int
}

// begin negotiates the format and resolves the tenant. When it returns
// false the fixed tenant-missing response has already been written and
// no service may be called.
func (h *handler) begin(w http.ResponseWriter, r *http.Request, o op) (respond.Request, bool) {
	format := respond.Negotiate(r)
	tc, err := tenant.Resolve(r.Context(), tenant.ContextSource)
	if err != nil {
		metrics.RecordTenantRejection(format.String())
		h.log.WithContext(r.Context()).WithError(err).WithField("path", r.URL.Path).Warn("request rejected without tenant")
		h.write(w, r, respond.TenantMissing(format))
		return respond.Request{}, false
	}
	return respond.Request{
		Tenant:        tc,
		TraceID:       logging.GetTraceID(r.Context()),
		Format:        format,
		Messages:      respond.Messages{Success: o.success, Error: o.failure},
		SuccessStatus: o.status,
		Metadata: map[string]any{
			"method": r.Method,
			"path":   r.URL.Path,
		},
	}, true
}

// decode reads the request body into dst: JSON bodies strictly, forms
// through the schema decoder. Form input is kept on req so a failed page
// submission can be refilled. When it returns false a response has been
// written.
func (h *handler) decode(w http.ResponseWriter, r *http.Request, req *respond.Request, dst any) bool {
	if !isForm(r) {
		if err := httputil.DecodeJSON(r, dst); err != nil {
			h.fail(w, r, req.Format, err)
			return false
		}
		return true
	}

	if err := r.ParseForm(); err != nil {
		h.fail(w, r, req.Format, svcerrors.BadRequest("Não foi possível ler o formulário.", err))
		return false
	}
	req.Input = r.PostForm
	if err := h.forms.Decode(dst, r.PostForm); err != nil {
		var multi schema.MultiError
		if !errors.As(err, &multi) {
			h.fail(w, r, req.Format, svcerrors.BadRequest("Não foi possível ler o formulário.", err))
			return false
		}
		fields := make(map[string]string, len(multi))
		for field := range multi {
			fields[field] = msgInvalidValue
		}
		h.respond(w, r, *req, result.Validation(validation.FailureMessage, fields))
		return false
	}
	return true
}

// respond maps res and writes the outcome.
func (h *handler) respond(w http.ResponseWriter, r *http.Request, req respond.Request, res result.Result) {
	h.write(w, r, h.mapper.Map(r.Context(), req, res))
}

// render is respond for read pages backed by tmpl.
func (h *handler) render(w http.ResponseWriter, r *http.Request, req respond.Request, res result.Result, tmpl string) {
	h.write(w, r, h.mapper.Render(r.Context(), req, res, tmpl))
}

func (h *handler) write(w http.ResponseWriter, r *http.Request, out respond.Outcome) {
	if err := h.writer.Write(w, r, out); err != nil {
		h.log.WithContext(r.Context()).WithError(err).Warn("response write failed")
	}
}

func (h *handler) fail(w http.ResponseWriter, r *http.Request, format respond.Format, err error) {
	if werr := h.writer.Fail(w, r, format, err); werr != nil {
		h.log.WithContext(r.Context()).WithError(werr).Warn("response write failed")
	}
}

// pathID reads a numeric route variable. The route patterns only admit
// digits; an out-of-range value yields 0, which no record uses.
func pathID(r *http.Request, name string) int64 {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// limitParam reads ?limit= clamped to [1, max].
func limitParam(r *http.Request, def, max int) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}

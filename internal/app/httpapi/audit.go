package httpapi

import (
	"net/http"

	"github.com/R3E-Network/bizhub/internal/app/audit"
	"github.com/R3E-Network/bizhub/internal/app/respond"
	svcerrors "github.com/R3E-Network/bizhub/internal/errors"
)

// listAudit serves the tenant's recent audit entries, newest first. It
// reads the audit trail directly and is not itself audited.
func (h *handler) listAudit(w http.ResponseWriter, r *http.Request) {
	req, ok := h.begin(w, r, op{})
	if !ok {
		return
	}
	entries, err := h.audit.Recent(r.Context(), req.Tenant.TenantID, limitParam(r, 50, 500))
	if err != nil {
		h.log.WithContext(r.Context()).WithError(err).Error("audit read failed")
		h.fail(w, r, req.Format, svcerrors.Internal("Não foi possível carregar o histórico.", err))
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	if req.Format == respond.FormatPage {
		h.write(w, r, respond.Page{Template: "audit/index", Status: http.StatusOK, Data: entries})
		return
	}
	h.write(w, r, respond.Envelope{
		Status: http.StatusOK,
		Body:   respond.Body{Success: true, Data: entries, Message: respond.DefaultSuccessMessage},
	})
}

package httpapi

import (
	"net/http"

	"github.com/R3E-Network/bizhub/internal/app/services/addresses"
)

func (h *handler) listAddresses(w http.ResponseWriter, r *http.Request) {
	req, ok := h.begin(w, r, op{})
	if !ok {
		return
	}
	h.render(w, r, req, h.svc.Addresses.List(r.Context(), req.Tenant, pathID(r, "customer")), "addresses/index")
}

func (h *handler) createAddress(w http.ResponseWriter, r *http.Request) {
	req, ok := h.begin(w, r, op{
		success: "Endereço criado com sucesso.",
		failure: "Erro ao criar endereço.",
		status:  http.StatusCreated,
	})
	if !ok {
		return
	}
	var in addresses.Input
	if !h.decode(w, r, &req, &in) {
		return
	}
	h.respond(w, r, req, h.svc.Addresses.Create(r.Context(), req.Tenant, pathID(r, "customer"), in))
}

func (h *handler) updateAddress(w http.ResponseWriter, r *http.Request) {
	req, ok := h.begin(w, r, op{
		success: "Endereço atualizado com sucesso.",
		failure: "Erro ao atualizar endereço.",
	})
	if !ok {
		return
	}
	var in addresses.Input
	if !h.decode(w, r, &req, &in) {
		return
	}
	h.respond(w, r, req, h.svc.Addresses.Update(r.Context(), req.Tenant, pathID(r, "customer"), pathID(r, "address"), in))
}

func (h *handler) deleteAddress(w http.ResponseWriter, r *http.Request) {
	req, ok := h.begin(w, r, op{
		success: "Endereço excluído com sucesso.",
		failure: "Erro ao excluir endereço.",
	})
	if !ok {
		return
	}
	h.respond(w, r, req, h.svc.Addresses.Delete(r.Context(), req.Tenant, pathID(r, "customer"), pathID(r, "address")))
}

func (h *handler) setPrimaryAddress(w http.ResponseWriter, r *http.Request) {
	req, ok := h.begin(w, r, op{
		success: "Endereço principal definido.",
		failure: "Erro ao definir endereço principal.",
	})
	if !ok {
		return
	}
	h.respond(w, r, req, h.svc.Addresses.SetPrimary(r.Context(), req.Tenant, pathID(r, "customer"), pathID(r, "address")))
}

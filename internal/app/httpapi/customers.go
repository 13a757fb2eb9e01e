package httpapi

import (
	"net/http"

	"github.com/R3E-Network/bizhub/internal/app/services/customers"
)

func (h *handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	req, ok := h.begin(w, r, op{})
	if !ok {
		return
	}
	h.render(w, r, req, h.svc.Customers.List(r.Context(), req.Tenant), "customers/index")
}

func (h *handler) searchCustomers(w http.ResponseWriter, r *http.Request) {
	req, ok := h.begin(w, r, op{})
	if !ok {
		return
	}
	h.render(w, r, req, h.svc.Customers.Search(r.Context(), req.Tenant, r.URL.Query().Get("q")), "customers/index")
}

func (h *handler) showCustomer(w http.ResponseWriter, r *http.Request) {
	req, ok := h.begin(w, r, op{})
	if !ok {
		return
	}
	h.render(w, r, req, h.svc.Customers.Show(r.Context(), req.Tenant, pathID(r, "customer")), "customers/show")
}

func (h *handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	req, ok := h.begin(w, r, op{
		success: "Cliente criado com sucesso.",
		failure: "Erro ao criar cliente.",
		status:  http.StatusCreated,
	})
	if !ok {
		return
	}
	var in customers.Input
	if !h.decode(w, r, &req, &in) {
		return
	}
	h.respond(w, r, req, h.svc.Customers.Create(r.Context(), req.Tenant, in))
}

func (h *handler) updateCustomer(w http.ResponseWriter, r *http.Request) {
	req, ok := h.begin(w, r, op{
		success: "Cliente atualizado com sucesso.",
		failure: "Erro ao atualizar cliente.",
	})
	if !ok {
		return
	}
	var in customers.Input
	if !h.decode(w, r, &req, &in) {
		return
	}
	h.respond(w, r, req, h.svc.Customers.Update(r.Context(), req.Tenant, pathID(r, "customer"), in))
}

func (h *handler) deleteCustomer(w http.ResponseWriter, r *http.Request) {
	req, ok := h.begin(w, r, op{
		success: "Cliente excluído com sucesso.",
		failure: "Erro ao excluir cliente.",
	})
	if !ok {
		return
	}
	h.respond(w, r, req, h.svc.Customers.Delete(r.Context(), req.Tenant, pathID(r, "customer")))
}

package httpapi

import (
	"net/http"

	"github.com/R3E-Network/bizhub/internal/app/services/categories"
)

func (h *handler) listCategories(w http.ResponseWriter, r *http.Request) {
	req, ok := h.begin(w, r, op{})
	if !ok {
		return
	}
	h.render(w, r, req, h.svc.Categories.List(r.Context(), req.Tenant), "categories/index")
}

func (h *handler) showCategory(w http.ResponseWriter, r *http.Request) {
	req, ok := h.begin(w, r, op{})
	if !ok {
		return
	}
	h.render(w, r, req, h.svc.Categories.Find(r.Context(), req.Tenant, pathID(r, "category")), "categories/show")
}

func (h *handler) createCategory(w http.ResponseWriter, r *http.Request) {
	req, ok := h.begin(w, r, op{
		success: "Categoria criada com sucesso.",
		failure: "Erro ao criar categoria.",
		status:  http.StatusCreated,
	})
	if !ok {
		return
	}
	var in categories.Input
	if !h.decode(w, r, &req, &in) {
		return
	}
	h.respond(w, r, req, h.svc.Categories.Create(r.Context(), req.Tenant, in))
}

func (h *handler) updateCategory(w http.ResponseWriter, r *http.Request) {
	req, ok := h.begin(w, r, op{
		success: "Categoria atualizada com sucesso.",
		failure: "Erro ao atualizar categoria.",
	})
	if !ok {
		return
	}
	var in categories.Input
	if !h.decode(w, r, &req, &in) {
		return
	}
	h.respond(w, r, req, h.svc.Categories.Update(r.Context(), req.Tenant, pathID(r, "category"), in))
}

func (h *handler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	req, ok := h.begin(w, r, op{
		success: "Categoria excluída com sucesso.",
		failure: "Erro ao excluir categoria.",
	})
	if !ok {
		return
	}
	h.respond(w, r, req, h.svc.Categories.Delete(r.Context(), req.Tenant, pathID(r, "category")))
}

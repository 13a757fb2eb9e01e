package httpapi

import (
	"net/http"

	"github.com/R3E-Network/bizhub/internal/app/services/inventory"
	"github.com/R3E-Network/bizhub/internal/app/services/products"
)

func (h *handler) listProducts(w http.ResponseWriter, r *http.Request) {
	req, ok := h.begin(w, r, op{})
	if !ok {
		return
	}
	h.render(w, r, req, h.svc.Products.List(r.Context(), req.Tenant), "products/index")
}

func (h *handler) searchProducts(w http.ResponseWriter, r *http.Request) {
	req, ok := h.begin(w, r, op{})
	if !ok {
		return
	}
	h.render(w, r, req, h.svc.Products.Search(r.Context(), req.Tenant, r.URL.Query().Get("q")), "products/index")
}

func (h *handler) showProduct(w http.ResponseWriter, r *http.Request) {
	req, ok := h.begin(w, r, op{})
	if !ok {
		return
	}
	h.render(w, r, req, h.svc.Products.Find(r.Context(), req.Tenant, pathID(r, "product")), "products/show")
}

func (h *handler) createProduct(w http.ResponseWriter, r *http.Request) {
	req, ok := h.begin(w, r, op{
		success: "Produto criado com sucesso.",
		failure: "Erro ao criar produto.",
		status:  http.StatusCreated,
	})
	if !ok {
		return
	}
	var in products.Input
	if !h.decode(w, r, &req, &in) {
		return
	}
	h.respond(w, r, req, h.svc.Products.Create(r.Context(), req.Tenant, in))
}

func (h *handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	req, ok := h.begin(w, r, op{
		success: "Produto atualizado com sucesso.",
		failure: "Erro ao atualizar produto.",
	})
	if !ok {
		return
	}
	var in products.Input
	if !h.decode(w, r, &req, &in) {
		return
	}
	h.respond(w, r, req, h.svc.Products.Update(r.Context(), req.Tenant, pathID(r, "product"), in))
}

func (h *handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	req, ok := h.begin(w, r, op{
		success: "Produto excluído com sucesso.",
		failure: "Erro ao excluir produto.",
	})
	if !ok {
		return
	}
	h.respond(w, r, req, h.svc.Products.Delete(r.Context(), req.Tenant, pathID(r, "product")))
}

func (h *handler) listMovements(w http.ResponseWriter, r *http.Request) {
	req, ok := h.begin(w, r, op{})
	if !ok {
		return
	}
	h.render(w, r, req, h.svc.Inventory.Movements(r.Context(), req.Tenant, pathID(r, "product")), "products/stock")
}

func (h *handler) adjustStock(w http.ResponseWriter, r *http.Request) {
	req, ok := h.begin(w, r, op{
		success: "Estoque atualizado com sucesso.",
		failure: "Erro ao atualizar estoque.",
		status:  http.StatusCreated,
	})
	if !ok {
		return
	}
	var in inventory.Input
	if !h.decode(w, r, &req, &in) {
		return
	}
	h.respond(w, r, req, h.svc.Inventory.Adjust(r.Context(), req.Tenant, pathID(r, "product"), in))
}

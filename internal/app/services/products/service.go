package products

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/R3E-Network/bizhub/internal/app/domain/product"
	"github.com/R3E-Network/bizhub/internal/app/result"
	"github.com/R3E-Network/bizhub/internal/app/storage"
	"github.com/R3E-Network/bizhub/internal/app/tenant"
	"github.com/R3E-Network/bizhub/internal/app/validation"
	"github.com/R3E-Network/bizhub/internal/logging"
)

// Entity is the audit entity name of products.
const Entity = "products"

const (
	// MsgSKUTaken is returned when another product of the tenant already
	// uses the SKU.
	MsgSKUTaken = "SKU já existe"

	msgNotFound        = "Produto não encontrado."
	msgForbidden       = "Você não tem permissão para acessar este produto."
	msgInvalidCategory = "A categoria informada é inválida."
	msgFailed          = "Não foi possível concluir a operação com o produto."
)

// Input is the writable part of a product. Stock is changed through the
// inventory service only.
type Input struct {
	CategoryID  int64  `json:"category_id" validate:"gte=0"`
	Name        string `json:"name" validate:"required,max=255"`
	SKU         string `json:"sku" validate:"required,max=64"`
	Description string `json:"description" validate:"omitempty,max=2000"`
	PriceCents  int64  `json:"price_cents" validate:"gte=0"`
	Active      *bool  `json:"active"`
}

func (in *Input) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.SKU = strings.ToUpper(strings.TrimSpace(in.SKU))
	in.Description = strings.TrimSpace(in.Description)
}

// Service manages a tenant's product catalogue.
type Service struct {
	store      storage.ProductStore
	categories storage.CategoryStore
	log        *logging.Logger
}

// New constructs a product service.
func New(store storage.ProductStore, categories storage.CategoryStore, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("products")
	}
	return &Service{store: store, categories: categories, log: log}
}

func showParams(id int64) map[string]string {
	return map[string]string{"product": strconv.FormatInt(id, 10)}
}

// Owned loads a product and checks it belongs to the tenant.
func (s *Service) Owned(ctx context.Context, tc tenant.Context, id int64) (product.Product, result.Result, bool) {
	p, err := s.store.GetProduct(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return product.Product{}, result.NotFound(msgNotFound, result.WithEntity(Entity, id)), false
	}
	if err != nil {
		return product.Product{}, s.fail(ctx, "load", id, err), false
	}
	if !tc.Owns(p.TenantID) {
		return product.Product{}, result.Forbidden(msgForbidden, result.WithEntity(Entity, id)), false
	}
	return p, result.Result{}, true
}

// List returns the tenant's products.
func (s *Service) List(ctx context.Context, tc tenant.Context) result.Result {
	list, err := s.store.ListProducts(ctx, tc.TenantID)
	if err != nil {
		return s.fail(ctx, "list", 0, err)
	}
	return result.Success(list, result.WithEntity(Entity, 0))
}

// Search matches the query against name and SKU.
func (s *Service) Search(ctx context.Context, tc tenant.Context, query string) result.Result {
	list, err := s.store.SearchProducts(ctx, tc.TenantID, query)
	if err != nil {
		return s.fail(ctx, "search", 0, err)
	}
	return result.Success(list, result.WithEntity(Entity, 0))
}

// Find returns one product.
func (s *Service) Find(ctx context.Context, tc tenant.Context, id int64) result.Result {
	p, res, ok := s.Owned(ctx, tc, id)
	if !ok {
		return res
	}
	return result.Success(p, result.WithEntity(Entity, id))
}

// Create adds a product. Products are active unless stated otherwise.
func (s *Service) Create(ctx context.Context, tc tenant.Context, in Input) result.Result {
	if res, ok := s.prepare(ctx, tc, 0, &in, "create_product"); !ok {
		return res
	}
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	created, err := s.store.CreateProduct(ctx, product.Product{
		TenantID:    tc.TenantID,
		CategoryID:  in.CategoryID,
		Name:        in.Name,
		SKU:         in.SKU,
		Description: in.Description,
		PriceCents:  in.PriceCents,
		Active:      active,
	})
	if err != nil {
		return s.fail(ctx, "create", 0, err)
	}
	s.log.WithField("product_id", created.ID).
		WithField("sku", created.SKU).
		WithField("tenant_id", tc.TenantID).
		Info("product created")
	return result.Success(created,
		result.WithAction("create_product"),
		result.WithEntity(Entity, created.ID),
		result.WithRedirect("products.show", showParams(created.ID)),
	)
}

// Update replaces the writable fields of a product. A nil Active keeps the
// current state.
func (s *Service) Update(ctx context.Context, tc tenant.Context, id int64, in Input) result.Result {
	p, res, ok := s.Owned(ctx, tc, id)
	if !ok {
		return res
	}
	if res, ok := s.prepare(ctx, tc, id, &in, "update_product"); !ok {
		return res
	}
	p.CategoryID, p.Name, p.SKU = in.CategoryID, in.Name, in.SKU
	p.Description, p.PriceCents = in.Description, in.PriceCents
	if in.Active != nil {
		p.Active = *in.Active
	}
	updated, err := s.store.UpdateProduct(ctx, p)
	if err != nil {
		return s.fail(ctx, "update", id, err)
	}
	return result.Success(updated,
		result.WithAction("update_product"),
		result.WithEntity(Entity, id),
		result.WithRedirect("products.show", showParams(id)),
	)
}

// Delete removes a product and its stock history.
func (s *Service) Delete(ctx context.Context, tc tenant.Context, id int64) result.Result {
	if _, res, ok := s.Owned(ctx, tc, id); !ok {
		return res
	}
	if err := s.store.DeleteProduct(ctx, id); err != nil {
		return s.fail(ctx, "delete", id, err)
	}
	return result.Success(nil,
		result.WithAction("delete_product"),
		result.WithEntity(Entity, id),
		result.WithRedirect("products.index", nil),
	)
}

func (s *Service) prepare(ctx context.Context, tc tenant.Context, id int64, in *Input, action string) (result.Result, bool) {
	in.normalize()
	opts := []result.Option{result.WithAction(action), result.WithEntity(Entity, id)}
	if res, ok := validation.Check(*in, opts...); !ok {
		return res, false
	}

	if in.CategoryID != 0 && s.categories != nil {
		c, err := s.categories.GetCategory(ctx, in.CategoryID)
		switch {
		case errors.Is(err, storage.ErrNotFound) || (err == nil && !tc.Owns(c.TenantID)):
			return result.Validation(msgInvalidCategory, map[string]string{"category_id": msgInvalidCategory}, opts...), false
		case err != nil:
			return s.fail(ctx, "check category", id, err), false
		}
	}

	existing, err := s.store.GetProductBySKU(ctx, tc.TenantID, in.SKU)
	switch {
	case err == nil && existing.ID != id:
		return result.Validation(MsgSKUTaken, map[string]string{"sku": MsgSKUTaken}, opts...), false
	case err != nil && !errors.Is(err, storage.ErrNotFound):
		return s.fail(ctx, "check sku", id, err), false
	}
	return result.Result{}, true
}

func (s *Service) fail(ctx context.Context, op string, id int64, err error) result.Result {
	s.log.WithContext(ctx).
		WithError(err).
		WithField("product_id", id).
		Errorf("product %s failed", op)
	return result.Failure(msgFailed, result.WithEntity(Entity, id))
}

package categories

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"github.com/R3E-Network/bizhub/internal/app/domain/category"
	"github.com/R3E-Network/bizhub/internal/app/result"
	"github.com/R3E-Network/bizhub/internal/app/storage"
	"github.com/R3E-Network/bizhub/internal/app/tenant"
	"github.com/R3E-Network/bizhub/internal/app/validation"
	"github.com/R3E-Network/bizhub/internal/logging"
)

// Entity is the audit entity name of categories.
const Entity = "categories"

const (
	// MsgSlugTaken is returned when another category of the tenant already
	// uses the slug.
	MsgSlugTaken = "Slug já existe"

	msgNotFound   = "Categoria não encontrada."
	msgForbidden  = "Você não tem permissão para acessar esta categoria."
	msgInUse      = "Não é possível excluir uma categoria com produtos vinculados."
	msgFailed     = "Não foi possível concluir a operação com a categoria."
	msgNameNoSlug = "O nome informado não gera um slug válido."
)

// Input is the writable part of a category.
type Input struct {
	Name        string `json:"name" validate:"required,max=120"`
	Slug        string `json:"slug" validate:"omitempty,max=140,slug"`
	Description string `json:"description" validate:"omitempty,max=1000"`
}

// Service manages a tenant's product categories.
type Service struct {
	store    storage.CategoryStore
	products storage.ProductStore
	log      *logging.Logger
}

// New constructs a category service.
func New(store storage.CategoryStore, products storage.ProductStore, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("categories")
	}
	return &Service{store: store, products: products, log: log}
}

// Slugify lowercases s, strips accents and joins words with hyphens.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		r = unaccent(r)
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}

var accents = map[rune]rune{
	'á': 'a', 'à': 'a', 'â': 'a', 'ã': 'a', 'ä': 'a',
	'é': 'e', 'è': 'e', 'ê': 'e', 'ë': 'e',
	'í': 'i', 'ì': 'i', 'î': 'i', 'ï': 'i',
	'ó': 'o', 'ò': 'o', 'ô': 'o', 'õ': 'o', 'ö': 'o',
	'ú': 'u', 'ù': 'u', 'û': 'u', 'ü': 'u',
	'ç': 'c', 'ñ': 'n',
}

func unaccent(r rune) rune {
	if base, ok := accents[r]; ok {
		return base
	}
	return r
}

func (s *Service) owned(ctx context.Context, tc tenant.Context, id int64) (category.Category, result.Result, bool) {
	c, err := s.store.GetCategory(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return category.Category{}, result.NotFound(msgNotFound, result.WithEntity(Entity, id)), false
	}
	if err != nil {
		return category.Category{}, s.fail(ctx, "load", id, err), false
	}
	if !tc.Owns(c.TenantID) {
		return category.Category{}, result.Forbidden(msgForbidden, result.WithEntity(Entity, id)), false
	}
	return c, result.Result{}, true
}

// List returns the tenant's categories ordered by name.
func (s *Service) List(ctx context.Context, tc tenant.Context) result.Result {
	list, err := s.store.ListCategories(ctx, tc.TenantID)
	if err != nil {
		return s.fail(ctx, "list", 0, err)
	}
	return result.Success(list, result.WithEntity(Entity, 0))
}

// Find returns one category.
func (s *Service) Find(ctx context.Context, tc tenant.Context, id int64) result.Result {
	c, res, ok := s.owned(ctx, tc, id)
	if !ok {
		return res
	}
	return result.Success(c, result.WithEntity(Entity, id))
}

// Create adds a category. An empty slug is derived from the name.
func (s *Service) Create(ctx context.Context, tc tenant.Context, in Input) result.Result {
	if res, ok := s.prepare(ctx, tc, 0, &in, "create_category"); !ok {
		return res
	}
	created, err := s.store.CreateCategory(ctx, category.Category{
		TenantID:    tc.TenantID,
		Name:        in.Name,
		Slug:        in.Slug,
		Description: in.Description,
	})
	if err != nil {
		return s.fail(ctx, "create", 0, err)
	}
	s.log.WithField("category_id", created.ID).
		WithField("slug", created.Slug).
		WithField("tenant_id", tc.TenantID).
		Info("category created")
	return result.Success(created,
		result.WithAction("create_category"),
		result.WithEntity(Entity, created.ID),
		result.WithRedirect("categories.index", nil),
	)
}

// Update replaces the writable fields of a category.
func (s *Service) Update(ctx context.Context, tc tenant.Context, id int64, in Input) result.Result {
	c, res, ok := s.owned(ctx, tc, id)
	if !ok {
		return res
	}
	if res, ok := s.prepare(ctx, tc, id, &in, "update_category"); !ok {
		return res
	}
	c.Name, c.Slug, c.Description = in.Name, in.Slug, in.Description
	updated, err := s.store.UpdateCategory(ctx, c)
	if err != nil {
		return s.fail(ctx, "update", id, err)
	}
	return result.Success(updated,
		result.WithAction("update_category"),
		result.WithEntity(Entity, id),
		result.WithRedirect("categories.index", nil),
	)
}

// Delete removes a category no product references.
func (s *Service) Delete(ctx context.Context, tc tenant.Context, id int64) result.Result {
	if _, res, ok := s.owned(ctx, tc, id); !ok {
		return res
	}
	if s.products != nil {
		count, err := s.products.CountProductsByCategory(ctx, id)
		if err != nil {
			return s.fail(ctx, "delete", id, err)
		}
		if count > 0 {
			return result.Failure(msgInUse, result.WithAction("delete_category"), result.WithEntity(Entity, id))
		}
	}
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return s.fail(ctx, "delete", id, err)
	}
	return result.Success(nil,
		result.WithAction("delete_category"),
		result.WithEntity(Entity, id),
		result.WithRedirect("categories.index", nil),
	)
}

// prepare normalises and validates in and checks slug uniqueness. id is
// the category being updated, zero on create.
func (s *Service) prepare(ctx context.Context, tc tenant.Context, id int64, in *Input, action string) (result.Result, bool) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Slug = strings.TrimSpace(in.Slug)
	if in.Slug == "" {
		in.Slug = Slugify(in.Name)
		if in.Slug == "" && in.Name != "" {
			return result.Validation(msgNameNoSlug, map[string]string{"name": msgNameNoSlug},
				result.WithAction(action), result.WithEntity(Entity, id)), false
		}
	}
	if res, ok := validation.Check(*in, result.WithAction(action), result.WithEntity(Entity, id)); !ok {
		return res, false
	}

	existing, err := s.store.GetCategoryBySlug(ctx, tc.TenantID, in.Slug)
	switch {
	case err == nil && existing.ID != id:
		return result.Validation(MsgSlugTaken, map[string]string{"slug": MsgSlugTaken},
			result.WithAction(action), result.WithEntity(Entity, id)), false
	case err != nil && !errors.Is(err, storage.ErrNotFound):
		return s.fail(ctx, "check slug", id, err), false
	}
	return result.Result{}, true
}

func (s *Service) fail(ctx context.Context, op string, id int64, err error) result.Result {
	s.log.WithContext(ctx).
		WithError(err).
		WithField("category_id", id).
		Errorf("category %s failed", op)
	return result.Failure(msgFailed, result.WithEntity(Entity, id))
}

package customers

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/R3E-Network/bizhub/internal/app/domain/address"
	"github.com/R3E-Network/bizhub/internal/app/domain/customer"
	"github.com/R3E-Network/bizhub/internal/app/result"
	"github.com/R3E-Network/bizhub/internal/app/storage"
	"github.com/R3E-Network/bizhub/internal/app/tenant"
	"github.com/R3E-Network/bizhub/internal/app/validation"
	"github.com/R3E-Network/bizhub/internal/logging"
)

// Entity is the audit entity name of customers.
const Entity = "customers"

const (
	msgNotFound   = "Cliente não encontrado."
	msgForbidden  = "Você não tem permissão para acessar este cliente."
	msgHasAddress = "Não é possível excluir um cliente com endereços cadastrados."
	msgFailed     = "Não foi possível concluir a operação com o cliente."
)

// Input is the writable part of a customer.
type Input struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"omitempty,email,max=255"`
	Phone    string `json:"phone" validate:"omitempty,max=32"`
	Document string `json:"document" validate:"omitempty,numeric,min=11,max=14"`
	Notes    string `json:"notes" validate:"omitempty,max=2000"`
}

func (in *Input) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	in.Document = digitsOnly(in.Document)
	in.Notes = strings.TrimSpace(in.Notes)
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Service manages a tenant's customers.
type Service struct {
	store     storage.CustomerStore
	addresses storage.AddressStore
	log       *logging.Logger
}

// New constructs a customer service.
func New(store storage.CustomerStore, addresses storage.AddressStore, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("customers")
	}
	return &Service{store: store, addresses: addresses, log: log}
}

// Owned loads a customer and checks it belongs to the tenant. When ok is
// false the returned result explains why.
func (s *Service) Owned(ctx context.Context, tc tenant.Context, id int64) (customer.Customer, result.Result, bool) {
	c, err := s.store.GetCustomer(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return customer.Customer{}, result.NotFound(msgNotFound, result.WithEntity(Entity, id)), false
	}
	if err != nil {
		return customer.Customer{}, s.fail(ctx, "load", id, err), false
	}
	if !tc.Owns(c.TenantID) {
		return customer.Customer{}, result.Forbidden(msgForbidden, result.WithEntity(Entity, id)), false
	}
	return c, result.Result{}, true
}

// List returns the tenant's customers.
func (s *Service) List(ctx context.Context, tc tenant.Context) result.Result {
	list, err := s.store.ListCustomers(ctx, tc.TenantID)
	if err != nil {
		return s.fail(ctx, "list", 0, err)
	}
	return result.Success(list, result.WithEntity(Entity, 0))
}

// Search matches the query against name, e-mail and document.
func (s *Service) Search(ctx context.Context, tc tenant.Context, query string) result.Result {
	list, err := s.store.SearchCustomers(ctx, tc.TenantID, query)
	if err != nil {
		return s.fail(ctx, "search", 0, err)
	}
	return result.Success(list, result.WithEntity(Entity, 0))
}

// Find returns one customer.
func (s *Service) Find(ctx context.Context, tc tenant.Context, id int64) result.Result {
	c, res, ok := s.Owned(ctx, tc, id)
	if !ok {
		return res
	}
	return result.Success(c, result.WithEntity(Entity, c.ID))
}

// Detail is a customer together with its addresses, primary first.
type Detail struct {
	Customer  customer.Customer `json:"customer"`
	Addresses []address.Address `json:"addresses"`
}

// Show returns one customer with its addresses.
func (s *Service) Show(ctx context.Context, tc tenant.Context, id int64) result.Result {
	c, res, ok := s.Owned(ctx, tc, id)
	if !ok {
		return res
	}
	detail := Detail{Customer: c, Addresses: []address.Address{}}
	if s.addresses != nil {
		addrs, err := s.addresses.ListAddresses(ctx, id)
		if err != nil {
			return s.fail(ctx, "show", id, err)
		}
		sort.SliceStable(addrs, func(i, j int) bool { return addrs[i].Primary && !addrs[j].Primary })
		detail.Addresses = addrs
	}
	return result.Success(detail, result.WithEntity(Entity, c.ID))
}

// Create registers a customer for the tenant.
func (s *Service) Create(ctx context.Context, tc tenant.Context, in Input) result.Result {
	in.normalize()
	if res, ok := validation.Check(in, result.WithAction("create_customer"), result.WithEntity(Entity, 0)); !ok {
		return res
	}

	created, err := s.store.CreateCustomer(ctx, customer.Customer{
		TenantID: tc.TenantID,
		Name:     in.Name,
		Email:    in.Email,
		Phone:    in.Phone,
		Document: in.Document,
		Notes:    in.Notes,
	})
	if err != nil {
		return s.fail(ctx, "create", 0, err)
	}
	s.log.WithField("customer_id", created.ID).
		WithField("tenant_id", tc.TenantID).
		Info("customer created")
	return result.Success(created,
		result.WithAction("create_customer"),
		result.WithEntity(Entity, created.ID),
		result.WithRedirect("customers.show", map[string]string{"customer": strconv.FormatInt(created.ID, 10)}),
	)
}

// Update replaces the writable fields of a customer.
func (s *Service) Update(ctx context.Context, tc tenant.Context, id int64, in Input) result.Result {
	c, res, ok := s.Owned(ctx, tc, id)
	if !ok {
		return res
	}
	in.normalize()
	if res, ok := validation.Check(in, result.WithAction("update_customer"), result.WithEntity(Entity, id)); !ok {
		return res
	}

	c.Name, c.Email, c.Phone, c.Document, c.Notes = in.Name, in.Email, in.Phone, in.Document, in.Notes
	updated, err := s.store.UpdateCustomer(ctx, c)
	if err != nil {
		return s.fail(ctx, "update", id, err)
	}
	return result.Success(updated,
		result.WithAction("update_customer"),
		result.WithEntity(Entity, id),
		result.WithRedirect("customers.show", map[string]string{"customer": strconv.FormatInt(id, 10)}),
	)
}

// Delete removes a customer that has no addresses left.
func (s *Service) Delete(ctx context.Context, tc tenant.Context, id int64) result.Result {
	if _, res, ok := s.Owned(ctx, tc, id); !ok {
		return res
	}
	if s.addresses != nil {
		addrs, err := s.addresses.ListAddresses(ctx, id)
		if err != nil {
			return s.fail(ctx, "delete", id, err)
		}
		if len(addrs) > 0 {
			return result.Failure(msgHasAddress, result.WithAction("delete_customer"), result.WithEntity(Entity, id))
		}
	}
	if err := s.store.DeleteCustomer(ctx, id); err != nil {
		return s.fail(ctx, "delete", id, err)
	}
	return result.Success(nil,
		result.WithAction("delete_customer"),
		result.WithEntity(Entity, id),
		result.WithRedirect("customers.index", nil),
	)
}

func (s *Service) fail(ctx context.Context, op string, id int64, err error) result.Result {
	s.log.WithContext(ctx).
		WithError(err).
		WithField("customer_id", id).
		Errorf("customer %s failed", op)
	return result.Failure(msgFailed, result.WithEntity(Entity, id))
}

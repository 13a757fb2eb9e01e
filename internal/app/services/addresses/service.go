package addresses

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/R3E-Network/bizhub/internal/app/domain/address"
	"github.com/R3E-Network/bizhub/internal/app/result"
	"github.com/R3E-Network/bizhub/internal/app/storage"
	"github.com/R3E-Network/bizhub/internal/app/tenant"
	"github.com/R3E-Network/bizhub/internal/app/validation"
	"github.com/R3E-Network/bizhub/internal/logging"
)

// Entity is the audit entity name of addresses.
const Entity = "addresses"

const (
	msgCustomerNotFound = "Cliente não encontrado."
	msgNotFound         = "Endereço não encontrado."
	msgForbidden        = "Você não tem permissão para acessar este endereço."
	msgFailed           = "Não foi possível concluir a operação com o endereço."
)

// Input is the writable part of an address.
type Input struct {
	Label      string `json:"label" validate:"omitempty,max=64"`
	Street     string `json:"street" validate:"required,max=255"`
	Number     string `json:"number" validate:"omitempty,max=16"`
	Complement string `json:"complement" validate:"omitempty,max=255"`
	District   string `json:"district" validate:"omitempty,max=128"`
	City       string `json:"city" validate:"required,max=128"`
	State      string `json:"state" validate:"required,len=2"`
	PostalCode string `json:"postal_code" validate:"required,max=16"`
	Primary    bool   `json:"is_primary"`
}

func (in *Input) normalize() {
	in.Label = strings.TrimSpace(in.Label)
	in.Street = strings.TrimSpace(in.Street)
	in.Number = strings.TrimSpace(in.Number)
	in.Complement = strings.TrimSpace(in.Complement)
	in.District = strings.TrimSpace(in.District)
	in.City = strings.TrimSpace(in.City)
	in.State = strings.ToUpper(strings.TrimSpace(in.State))
	in.PostalCode = strings.TrimSpace(in.PostalCode)
}

// Service manages customer addresses.
type Service struct {
	customers storage.CustomerStore
	store     storage.AddressStore
	log       *logging.Logger
}

// New constructs an address service.
func New(customers storage.CustomerStore, store storage.AddressStore, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("addresses")
	}
	return &Service{customers: customers, store: store, log: log}
}

func customerParams(customerID int64) map[string]string {
	return map[string]string{"customer": strconv.FormatInt(customerID, 10)}
}

func (s *Service) ownedCustomer(ctx context.Context, tc tenant.Context, customerID int64) (result.Result, bool) {
	c, err := s.customers.GetCustomer(ctx, customerID)
	if errors.Is(err, storage.ErrNotFound) {
		return result.NotFound(msgCustomerNotFound, result.WithEntity("customers", customerID)), false
	}
	if err != nil {
		return s.fail(ctx, "load customer", customerID, err), false
	}
	if !tc.Owns(c.TenantID) {
		return result.Forbidden(msgForbidden, result.WithEntity("customers", customerID)), false
	}
	return result.Result{}, true
}

// owned loads an address of the given customer and checks tenant ownership.
func (s *Service) owned(ctx context.Context, tc tenant.Context, customerID, id int64) (address.Address, result.Result, bool) {
	a, err := s.store.GetAddress(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return address.Address{}, result.NotFound(msgNotFound, result.WithEntity(Entity, id)), false
	}
	if err != nil {
		return address.Address{}, s.fail(ctx, "load", id, err), false
	}
	if !tc.Owns(a.TenantID) {
		return address.Address{}, result.Forbidden(msgForbidden, result.WithEntity(Entity, id)), false
	}
	if a.CustomerID != customerID {
		return address.Address{}, result.NotFound(msgNotFound, result.WithEntity(Entity, id)), false
	}
	return a, result.Result{}, true
}

// List returns the addresses of a customer, primary first.
func (s *Service) List(ctx context.Context, tc tenant.Context, customerID int64) result.Result {
	if res, ok := s.ownedCustomer(ctx, tc, customerID); !ok {
		return res
	}
	list, err := s.store.ListAddresses(ctx, customerID)
	if err != nil {
		return s.fail(ctx, "list", 0, err)
	}
	for i, a := range list {
		if a.Primary && i > 0 {
			copy(list[1:i+1], list[:i])
			list[0] = a
			break
		}
	}
	return result.Success(list, result.WithEntity(Entity, 0))
}

// Create adds an address. The first address of a customer is primary.
func (s *Service) Create(ctx context.Context, tc tenant.Context, customerID int64, in Input) result.Result {
	if res, ok := s.ownedCustomer(ctx, tc, customerID); !ok {
		return res
	}
	in.normalize()
	if res, ok := validation.Check(in, result.WithAction("create_address"), result.WithEntity(Entity, 0)); !ok {
		return res
	}

	existing, err := s.store.ListAddresses(ctx, customerID)
	if err != nil {
		return s.fail(ctx, "create", 0, err)
	}

	created, err := s.store.CreateAddress(ctx, address.Address{
		TenantID:   tc.TenantID,
		CustomerID: customerID,
		Label:      in.Label,
		Street:     in.Street,
		Number:     in.Number,
		Complement: in.Complement,
		District:   in.District,
		City:       in.City,
		State:      in.State,
		PostalCode: in.PostalCode,
		Primary:    in.Primary || len(existing) == 0,
	})
	if err != nil {
		return s.fail(ctx, "create", 0, err)
	}
	s.log.WithField("address_id", created.ID).
		WithField("customer_id", customerID).
		WithField("tenant_id", tc.TenantID).
		Info("address created")
	return result.Success(created,
		result.WithAction("create_address"),
		result.WithEntity(Entity, created.ID),
		result.WithRedirect("customers.show", customerParams(customerID)),
	)
}

// Update replaces the writable fields of an address. Primary status is
// changed with SetPrimary.
func (s *Service) Update(ctx context.Context, tc tenant.Context, customerID, id int64, in Input) result.Result {
	a, res, ok := s.owned(ctx, tc, customerID, id)
	if !ok {
		return res
	}
	in.normalize()
	if res, ok := validation.Check(in, result.WithAction("update_address"), result.WithEntity(Entity, id)); !ok {
		return res
	}

	a.Label, a.Street, a.Number, a.Complement = in.Label, in.Street, in.Number, in.Complement
	a.District, a.City, a.State, a.PostalCode = in.District, in.City, in.State, in.PostalCode
	updated, err := s.store.UpdateAddress(ctx, a)
	if err != nil {
		return s.fail(ctx, "update", id, err)
	}
	if in.Primary && !updated.Primary {
		if err := s.store.SetPrimaryAddress(ctx, customerID, id); err != nil {
			return s.fail(ctx, "update", id, err)
		}
		updated.Primary = true
	}
	return result.Success(updated,
		result.WithAction("update_address"),
		result.WithEntity(Entity, id),
		result.WithRedirect("customers.show", customerParams(customerID)),
	)
}

// Delete removes an address. Deleting the primary address promotes the
// oldest remaining one.
func (s *Service) Delete(ctx context.Context, tc tenant.Context, customerID, id int64) result.Result {
	if _, res, ok := s.owned(ctx, tc, customerID, id); !ok {
		return res
	}
	if err := s.store.DeleteAddress(ctx, id); err != nil {
		return s.fail(ctx, "delete", id, err)
	}
	return result.Success(nil,
		result.WithAction("delete_address"),
		result.WithEntity(Entity, id),
		result.WithRedirect("customers.show", customerParams(customerID)),
	)
}

// SetPrimary makes an address the customer's only primary address.
func (s *Service) SetPrimary(ctx context.Context, tc tenant.Context, customerID, id int64) result.Result {
	a, res, ok := s.owned(ctx, tc, customerID, id)
	if !ok {
		return res
	}
	if err := s.store.SetPrimaryAddress(ctx, customerID, id); err != nil {
		return s.fail(ctx, "set primary", id, err)
	}
	a.Primary = true
	return result.Success(a,
		result.WithAction("set_primary_address"),
		result.WithEntity(Entity, id),
		result.WithRedirect("customers.show", customerParams(customerID)),
	)
}

func (s *Service) fail(ctx context.Context, op string, id int64, err error) result.Result {
	s.log.WithContext(ctx).
		WithError(err).
		WithField("address_id", id).
		Errorf("address %s failed", op)
	return result.Failure(msgFailed, result.WithEntity(Entity, id))
}

package inventory

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/R3E-Network/bizhub/internal/app/domain/inventory"
	"github.com/R3E-Network/bizhub/internal/app/result"
	"github.com/R3E-Network/bizhub/internal/app/storage"
	"github.com/R3E-Network/bizhub/internal/app/tenant"
	"github.com/R3E-Network/bizhub/internal/app/validation"
	"github.com/R3E-Network/bizhub/internal/logging"
)

// MsgInsufficientStock is returned when an adjustment would leave the
// product with negative stock.
const MsgInsufficientStock = "Estoque insuficiente."

// MsgStockLimit is returned when an adjustment would exceed storage.MaxStock.
const MsgStockLimit = "O estoque não pode ultrapassar o limite permitido."

const (
	entity        = "products"
	msgNotFound   = "Produto não encontrado."
	msgForbidden  = "Você não tem permissão para acessar este produto."
	msgFailed     = "Não foi possível ajustar o estoque."
	msgZeroDelta  = "A quantidade deve ser diferente de zero."
	actionAdjust  = "adjust_stock"
	defaultReason = "ajuste manual"
)

// Input is a stock adjustment request. Positive deltas add stock.
type Input struct {
	Delta  int64  `json:"delta" validate:"required,min=-1000000000,max=1000000000"`
	Reason string `json:"reason" validate:"omitempty,max=255"`
}

// Service adjusts product stock and reports its history.
type Service struct {
	products storage.ProductStore
	store    storage.InventoryStore
	log      *logging.Logger
}

// New constructs an inventory service.
func New(products storage.ProductStore, store storage.InventoryStore, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("inventory")
	}
	return &Service{products: products, store: store, log: log}
}

func (s *Service) owned(ctx context.Context, tc tenant.Context, productID int64) (result.Result, bool) {
	p, err := s.products.GetProduct(ctx, productID)
	if errors.Is(err, storage.ErrNotFound) {
		return result.NotFound(msgNotFound, result.WithEntity(entity, productID)), false
	}
	if err != nil {
		return s.fail(ctx, productID, err), false
	}
	if !tc.Owns(p.TenantID) {
		return result.Forbidden(msgForbidden, result.WithEntity(entity, productID)), false
	}
	return result.Result{}, true
}

// Adjust applies a stock movement. Stock never goes below zero.
func (s *Service) Adjust(ctx context.Context, tc tenant.Context, productID int64, in Input) result.Result {
	if res, ok := s.owned(ctx, tc, productID); !ok {
		return res
	}
	opts := []result.Option{result.WithAction(actionAdjust), result.WithEntity(entity, productID)}
	in.Reason = strings.TrimSpace(in.Reason)
	if in.Delta == 0 {
		return result.Validation(msgZeroDelta, map[string]string{"delta": msgZeroDelta}, opts...)
	}
	if res, ok := validation.Check(in, opts...); !ok {
		return res
	}
	if in.Reason == "" {
		in.Reason = defaultReason
	}

	mv, err := s.store.AdjustStock(ctx, inventory.Movement{
		TenantID:  tc.TenantID,
		ProductID: productID,
		UserID:    tc.UserID,
		Delta:     in.Delta,
		Reason:    in.Reason,
	})
	if errors.Is(err, storage.ErrInsufficientStock) {
		return result.Failure(MsgInsufficientStock, append(opts, result.WithErrors(map[string]string{"delta": MsgInsufficientStock}))...)
	}
	if errors.Is(err, storage.ErrStockLimit) {
		return result.Failure(MsgStockLimit, append(opts, result.WithErrors(map[string]string{"delta": MsgStockLimit}))...)
	}
	if err != nil {
		return s.fail(ctx, productID, err)
	}
	s.log.WithField("product_id", productID).
		WithField("delta", in.Delta).
		WithField("balance", mv.Balance).
		WithField("tenant_id", tc.TenantID).
		Info("stock adjusted")
	return result.Success(mv, append(opts,
		result.WithRedirect("products.show", map[string]string{"product": strconv.FormatInt(productID, 10)}),
	)...)
}

// Movements lists the stock history of a product, oldest first.
func (s *Service) Movements(ctx context.Context, tc tenant.Context, productID int64) result.Result {
	if res, ok := s.owned(ctx, tc, productID); !ok {
		return res
	}
	list, err := s.store.ListMovements(ctx, productID)
	if err != nil {
		return s.fail(ctx, productID, err)
	}
	return result.Success(list, result.WithEntity(entity, productID))
}

func (s *Service) fail(ctx context.Context, productID int64, err error) result.Result {
	s.log.WithContext(ctx).
		WithError(err).
		WithField("product_id", productID).
		Error("stock operation failed")
	return result.Failure(msgFailed, result.WithEntity(entity, productID))
}

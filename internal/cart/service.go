package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/workoutbrothers/storefront-backend/pkg/db"
	pkgerrors "github.com/workoutbrothers/storefront-backend/pkg/errors"
	"github.com/workoutbrothers/storefront-backend/pkg/logger"
)

// Service manages the single cart each user owns.
type Service interface {
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*CartView, error)
	AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*CartView, error)
	UpdateItemQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*CartView, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*CartView, error)
	Clear(ctx context.Context, userID uuid.UUID) (*CartView, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo     CartRepository
	products productLookup
	tx       txRunner
	logg     *logger.Logger
}

// NewService builds a cart service.
func NewService(repo CartRepository, products productLookup, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product lookup required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, products: products, tx: tx, logg: logg}, nil
}

func (s *service) GetOrCreate(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	if _, err := s.repo.GetOrCreate(ctx, userID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "get or create cart")
	}
	return s.view(ctx, userID)
}

func (s *service) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*CartView, error) {
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	if !product.Stock().Allows(quantity) {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
			WithDetails(map[string]any{"productId": productID, "available": product.StockQuantity})
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := repo.GetOrCreate(ctx, userID)
		if err != nil {
			return err
		}
		if err := repo.UpsertItem(ctx, cart.ID, productID, quantity); err != nil {
			return err
		}
		return repo.Touch(ctx, cart.ID)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "add cart item")
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"user_id":    userID.String(),
			"product_id": productID.String(),
			"quantity":   quantity,
		})
		s.logg.Debug(logCtx, "cart item added")
	}
	return s.view(ctx, userID)
}

func (s *service) UpdateItemQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*CartView, error) {
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	err := s.mutateItem(ctx, userID, func(repo CartRepository, cartID uuid.UUID) (bool, error) {
		return repo.UpdateItemQuantity(ctx, cartID, itemID, quantity)
	})
	if err != nil {
		return nil, err
	}
	return s.view(ctx, userID)
}

func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*CartView, error) {
	err := s.mutateItem(ctx, userID, func(repo CartRepository, cartID uuid.UUID) (bool, error) {
		return repo.DeleteItem(ctx, cartID, itemID)
	})
	if err != nil {
		return nil, err
	}
	return s.view(ctx, userID)
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := repo.GetOrCreate(ctx, userID)
		if err != nil {
			return err
		}
		if err := repo.ClearItems(ctx, cart.ID); err != nil {
			return err
		}
		return repo.Touch(ctx, cart.ID)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
	}
	return s.view(ctx, userID)
}

// mutateItem runs fn against the user's existing cart; a missing cart or a
// mutation that touched no row is NotFound.
func (s *service) mutateItem(ctx context.Context, userID uuid.UUID, fn func(repo CartRepository, cartID uuid.UUID) (bool, error)) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := repo.LoadByUser(ctx, userID)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
		}
		found, err := fn(repo, cart.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart item")
		}
		if !found {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		if err := repo.Touch(ctx, cart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "touch cart")
		}
		return nil
	})
}

func (s *service) view(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	cart, err := s.repo.LoadByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	return newCartView(cart), nil
}

package orders

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/workoutbrothers/storefront-backend/pkg/db"
	"github.com/workoutbrothers/storefront-backend/pkg/db/models"
	"github.com/workoutbrothers/storefront-backend/pkg/enums"
	pkgerrors "github.com/workoutbrothers/storefront-backend/pkg/errors"
	"github.com/workoutbrothers/storefront-backend/pkg/logger"
	"github.com/workoutbrothers/storefront-backend/pkg/outbox/payloads"
)

// Service converts carts into orders and owns the order status.
type Service interface {
	Checkout(ctx context.Context, userID uuid.UUID, input CheckoutInput) (*OrderDTO, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status string) (*OrderDTO, error)
	GetOrder(ctx context.Context, orderID, callerID uuid.UUID) (*OrderDTO, error)
	ListOrders(ctx context.Context, userID uuid.UUID) ([]OrderDTO, error)
}

// ServiceParams groups the collaborators of the order service.
type ServiceParams struct {
	Repo          Repository
	Carts         cartSource
	Users         userLookup
	Notifications confirmationRequester
	Tx            txRunner
	Logger        *logger.Logger
}

type service struct {
	repo          Repository
	carts         cartSource
	users         userLookup
	notifications confirmationRequester
	tx            txRunner
	logg          *logger.Logger
}

// NewService builds the order service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart source required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user lookup required")
	}
	if params.Notifications == nil {
		return nil, fmt.Errorf("notification requester required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:          params.Repo,
		carts:         params.Carts,
		users:         params.Users,
		notifications: params.Notifications,
		tx:            params.Tx,
		logg:          params.Logger,
	}, nil
}

// Checkout snapshots the caller's cart into a pending order. Stock is neither
// re-checked nor decremented. Removing the ordered lines from the cart and
// requesting the confirmation email happen after the order commits and never
// fail the call. Items added to the cart after the snapshot stay in the cart.
func (s *service) Checkout(ctx context.Context, userID uuid.UUID, input CheckoutInput) (*OrderDTO, error) {
	address := input.ShippingAddress.Normalize()
	if address.Street == "" || address.City == "" || address.State == "" || address.ZipCode == "" || address.Country == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping address is incomplete")
	}
	method, err := enums.ParsePaymentMethod(input.PaymentMethod)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method")
	}

	cart, err := s.carts.LoadByUser(ctx, userID)
	if err != nil && !db.IsNotFound(err) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	if cart == nil || len(cart.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
	}

	order := &models.Order{
		UserID:          userID,
		Status:          enums.OrderStatusPending,
		ShippingAddress: address,
		PaymentMethod:   method,
		TotalAmount:     decimal.Zero,
	}
	taken := make([]models.CartItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		if item.Product == nil {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
				"cart_id":    cart.ID.String(),
				"product_id": item.ProductID.String(),
			}), "cart line without product skipped at checkout")
			continue
		}
		taken = append(taken, item)
		line := models.OrderItem{
			ProductID:   item.ProductID,
			ProductName: item.Product.Name,
			UnitPrice:   item.Product.Price,
			Quantity:    item.Quantity,
		}
		order.Items = append(order.Items, line)
		order.TotalAmount = order.TotalAmount.Add(line.LineTotal())
	}
	if len(order.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Create(ctx, order)
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
	}

	logCtx := s.logg.WithOrderID(s.logg.WithUserID(ctx, userID.String()), order.ID.String())
	s.logg.Info(s.logg.WithFields(logCtx, map[string]any{
		"total":      order.TotalAmount.StringFixed(2),
		"line_count": len(order.Items),
	}), "order created")

	if err := s.clearCart(ctx, cart.ID, taken); err != nil {
		s.logg.Error(logCtx, "failed to clear cart after checkout", err)
	}
	if err := s.requestConfirmation(ctx, order); err != nil {
		s.logg.Error(logCtx, "failed to request order confirmation", err)
	}

	return NewOrderDTO(order), nil
}

func (s *service) clearCart(ctx context.Context, cartID uuid.UUID, taken []models.CartItem) error {
	if err := s.carts.RemoveCheckedOut(ctx, cartID, taken); err != nil {
		return err
	}
	return s.carts.Touch(ctx, cartID)
}

func (s *service) requestConfirmation(ctx context.Context, order *models.Order) error {
	user, err := s.users.FindByID(ctx, order.UserID)
	if err != nil {
		return fmt.Errorf("load order owner: %w", err)
	}
	if strings.TrimSpace(user.Email) == "" {
		return fmt.Errorf("order owner has no email")
	}

	lines := make([]payloads.OrderLine, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, payloads.OrderLine{
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}
	return s.notifications.OrderConfirmation(ctx, user.Email, payloads.OrderConfirmation{
		OrderID:         order.ID,
		Username:        user.Username,
		Items:           lines,
		TotalAmount:     order.TotalAmount,
		PaymentMethod:   order.PaymentMethod,
		ShippingAddress: order.ShippingAddress,
		PlacedAt:        order.CreatedAt,
	})
}

// UpdateStatus assigns any valid status; there is no transition graph.
func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, status string) (*OrderDTO, error) {
	next, err := enums.ParseOrderStatus(status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status").
			WithDetails(map[string]any{"allowed": enums.OrderStatuses()})
	}

	var updated *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		found, err := repo.UpdateStatus(ctx, orderID, next)
		if err != nil {
			return err
		}
		if !found {
			return gorm.ErrRecordNotFound
		}
		updated, err = repo.FindByID(ctx, orderID)
		return err
	})
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order status")
	}

	s.logg.Info(s.logg.WithFields(s.logg.WithOrderID(ctx, orderID.String()), map[string]any{
		"status": next,
	}), "order status updated")
	return NewOrderDTO(updated), nil
}

func (s *service) GetOrder(ctx context.Context, orderID, callerID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if order.UserID != callerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another user")
	}
	return NewOrderDTO(order), nil
}

func (s *service) ListOrders(ctx context.Context, userID uuid.UUID) ([]OrderDTO, error) {
	orders, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	out := make([]OrderDTO, 0, len(orders))
	for i := range orders {
		out = append(out, *NewOrderDTO(&orders[i]))
	}
	return out, nil
}

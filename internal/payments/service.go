package payments

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/workoutbrothers/storefront-backend/internal/orders"
	"github.com/workoutbrothers/storefront-backend/pkg/db"
	"github.com/workoutbrothers/storefront-backend/pkg/enums"
	pkgerrors "github.com/workoutbrothers/storefront-backend/pkg/errors"
	"github.com/workoutbrothers/storefront-backend/pkg/logger"
	"github.com/workoutbrothers/storefront-backend/pkg/stripe"
)

const defaultCurrency = "usd"

// Processor is the payment-intent surface of the processor client.
type Processor interface {
	CreatePaymentIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (*stripe.Intent, error)
	RetrievePaymentIntent(ctx context.Context, id string) (*stripe.Intent, error)
}

// Service opens payment intents for orders and confirms them.
type Service interface {
	CreatePaymentIntent(ctx context.Context, orderID, callerID uuid.UUID) (*IntentResponse, error)
	ConfirmPayment(ctx context.Context, intentID string, callerID uuid.UUID) (*orders.OrderDTO, error)
}

type ServiceParams struct {
	Orders orders.Repository
	// Processor may be nil when no Stripe key is configured; every call then
	// fails with a dependency error.
	Processor Processor
	Currency  string
	Logger    *logger.Logger
}

type service struct {
	orders    orders.Repository
	processor Processor
	currency  string
	logg      *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	currency := strings.ToLower(strings.TrimSpace(params.Currency))
	if currency == "" {
		currency = defaultCurrency
	}
	return &service{
		orders:    params.Orders,
		processor: params.Processor,
		currency:  currency,
		logg:      params.Logger,
	}, nil
}

// AmountCents converts a decimal total to the smallest currency unit,
// rounding half away from zero.
func AmountCents(total decimal.Decimal) int64 {
	return total.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func (s *service) CreatePaymentIntent(ctx context.Context, orderID, callerID uuid.UUID) (*IntentResponse, error) {
	if s.processor == nil {
		return nil, errProcessorUnavailable()
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if order.UserID != callerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another user")
	}

	amount := AmountCents(order.TotalAmount)
	intent, err := s.processor.CreatePaymentIntent(ctx, amount, s.currency, map[string]string{
		"orderId": order.ID.String(),
		"userId":  callerID.String(),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment intent")
	}

	if err := s.orders.SetPaymentIntent(ctx, order.ID, intent.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store payment intent")
	}

	logCtx := s.logg.WithOrderID(s.logg.WithUserID(ctx, callerID.String()), order.ID.String())
	s.logg.Info(s.logg.WithFields(logCtx, map[string]any{
		"payment_intent_id": intent.ID,
		"amount_cents":      amount,
	}), "payment intent created")

	return &IntentResponse{ClientSecret: intent.ClientSecret, PaymentIntentID: intent.ID}, nil
}

// ConfirmPayment marks the caller's order paid once the processor reports the
// intent as succeeded.
func (s *service) ConfirmPayment(ctx context.Context, intentID string, callerID uuid.UUID) (*orders.OrderDTO, error) {
	if s.processor == nil {
		return nil, errProcessorUnavailable()
	}
	intentID = strings.TrimSpace(intentID)
	if intentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "paymentIntentId is required")
	}

	intent, err := s.processor.RetrievePaymentIntent(ctx, intentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "retrieve payment intent")
	}
	if intent.Status != stripe.IntentStatusSucceeded {
		return nil, pkgerrors.New(pkgerrors.CodePaymentIncomplete, "payment not completed").
			WithDetails(map[string]any{"status": intent.Status})
	}

	order, err := s.orders.FindByIntentAndOwner(ctx, intentID, callerID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if _, err := s.orders.UpdateStatus(ctx, order.ID, enums.OrderStatusPaid); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark order paid")
	}
	order, err = s.orders.FindByID(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload order")
	}

	s.logg.Info(s.logg.WithField(s.logg.WithOrderID(ctx, order.ID.String()), "payment_intent_id", intentID), "payment confirmed")
	return orders.NewOrderDTO(order), nil
}

func errProcessorUnavailable() error {
	return pkgerrors.New(pkgerrors.CodeDependency, "payment processing is not configured")
}

package stripewebhook

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/workoutbrothers/storefront-backend/internal/orders"
	"github.com/workoutbrothers/storefront-backend/pkg/db"
	"github.com/workoutbrothers/storefront-backend/pkg/enums"
	pkgerrors "github.com/workoutbrothers/storefront-backend/pkg/errors"
	"github.com/workoutbrothers/storefront-backend/pkg/idempotency"
	"github.com/workoutbrothers/storefront-backend/pkg/logger"
	"github.com/workoutbrothers/storefront-backend/pkg/stripe"
)

// ConsumerName scopes idempotency claims for Stripe event ids.
const ConsumerName = "stripe-webhook"

const (
	outcomeApplied   = "applied"
	outcomeIgnored   = "ignored"
	outcomeUnmatched = "unmatched"
	outcomeDuplicate = "duplicate"
	outcomeFailed    = "failed"
)

type verifier interface {
	VerifyWebhook(payload []byte, signature string) (*stripe.Event, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type webhookMetrics interface {
	IncWebhookEvent(eventType, outcome string)
}

type ServiceParams struct {
	Orders            orders.Repository
	Verifier          verifier
	Guard             *idempotency.Guard
	TransactionRunner txRunner
	Metrics           webhookMetrics
	Logger            *logger.Logger
}

type Service struct {
	orders   orders.Repository
	verifier verifier
	guard    *idempotency.Guard
	txRunner txRunner
	metrics  webhookMetrics
	logg     *logger.Logger
}

// NewService builds the webhook reconciler. A nil Verifier means no webhook
// secret is configured and every delivery is refused.
func NewService(params ServiceParams) (*Service, error) {
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repo required")
	}
	if params.Guard == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "idempotency guard required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{
		orders:   params.Orders,
		verifier: params.Verifier,
		guard:    params.Guard,
		txRunner: params.TransactionRunner,
		metrics:  params.Metrics,
		logg:     params.Logger,
	}, nil
}

// HandleWebhook verifies a raw delivery and reconciles the order it refers to.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.verifier == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "stripe webhooks are not configured")
	}
	event, err := s.verifier.VerifyWebhook(payload, signature)
	if err != nil {
		if errors.Is(err, stripe.ErrSecretRequired) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "stripe webhooks are not configured")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInvalidSignature, err, "invalid stripe signature")
	}
	return s.HandleEvent(ctx, event)
}

// HandleEvent applies a verified event at most once per event id.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event id required")
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"stripe_event_id":   event.ID,
		"stripe_event_type": event.Type,
	})

	next, handled := targetStatus(event.Type)
	if !handled {
		s.record(event.Type, outcomeIgnored)
		return nil
	}
	if event.Intent == nil || event.Intent.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment intent missing from event")
	}

	claimed, err := s.guard.Claim(ctx, event.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check webhook idempotency")
	}
	if !claimed {
		s.logg.Info(logCtx, "stripe event already processed")
		s.record(event.Type, outcomeDuplicate)
		return nil
	}

	outcome := outcomeApplied
	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.orders.WithTx(tx)
		order, err := repo.FindByIntent(ctx, event.Intent.ID)
		if err != nil {
			if db.IsNotFound(err) {
				outcome = outcomeUnmatched
				return nil
			}
			return err
		}
		logCtx = s.logg.WithOrderID(logCtx, order.ID.String())
		_, err = repo.UpdateStatus(ctx, order.ID, next)
		return err
	})
	if err != nil {
		if delErr := s.guard.Release(ctx, event.ID); delErr != nil {
			s.logg.Error(logCtx, "failed to release webhook idempotency key", delErr)
		}
		s.record(event.Type, outcomeFailed)
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reconcile payment intent")
	}

	s.record(event.Type, outcome)
	s.logg.Info(s.logg.WithFields(logCtx, map[string]any{
		"payment_intent_id": event.Intent.ID,
		"outcome":           outcome,
		"status":            next,
	}), "stripe event reconciled")
	return nil
}

func targetStatus(eventType string) (enums.OrderStatus, bool) {
	switch eventType {
	case stripe.EventPaymentIntentSucceeded:
		return enums.OrderStatusPaid, true
	case stripe.EventPaymentIntentFailed:
		return enums.OrderStatusCancelled, true
	default:
		return "", false
	}
}

func (s *Service) record(eventType, outcome string) {
	if s.metrics != nil {
		s.metrics.IncWebhookEvent(eventType, outcome)
	}
}

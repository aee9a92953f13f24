package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/workoutbrothers/storefront-backend/pkg/db/models"
	"github.com/workoutbrothers/storefront-backend/pkg/enums"
	"github.com/workoutbrothers/storefront-backend/pkg/outbox/payloads"
)

// Repository defines persistence operations for orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByIntent(ctx context.Context, intentID string) (*models.Order, error)
	FindByIntentAndOwner(ctx context.Context, intentID string, userID uuid.UUID) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) (bool, error)
	SetPaymentIntent(ctx context.Context, id uuid.UUID, intentID string) error
}

// StatsReader exposes the read-only rollups used by reporting and the admin dashboard.
// Every revenue figure excludes cancelled orders.
type StatsReader interface {
	Count(ctx context.Context) (int64, error)
	CountBetween(ctx context.Context, from, to time.Time) (int64, error)
	Revenue(ctx context.Context) (RevenueWindow, error)
	RevenueBetween(ctx context.Context, from, to time.Time) (RevenueWindow, error)
	StatusCounts(ctx context.Context) (map[enums.OrderStatus]int64, error)
	TopProducts(ctx context.Context, from, to *time.Time, limit int) ([]TopProduct, error)
	Recent(ctx context.Context, limit int) ([]models.Order, error)
	UnitsSoldSince(ctx context.Context, since time.Time) (map[uuid.UUID]int64, error)
}

type cartSource interface {
	LoadByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	RemoveCheckedOut(ctx context.Context, cartID uuid.UUID, lines []models.CartItem) error
	Touch(ctx context.Context, cartID uuid.UUID) error
}

type userLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type confirmationRequester interface {
	OrderConfirmation(ctx context.Context, recipient string, data payloads.OrderConfirmation) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

package payments

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/workoutbrothers/storefront-backend/internal/orders"
	"github.com/workoutbrothers/storefront-backend/pkg/db/dbtest"
	"github.com/workoutbrothers/storefront-backend/pkg/db/models"
	"github.com/workoutbrothers/storefront-backend/pkg/enums"
	pkgerrors "github.com/workoutbrothers/storefront-backend/pkg/errors"
	"github.com/workoutbrothers/storefront-backend/pkg/logger"
	"github.com/workoutbrothers/storefront-backend/pkg/stripe"
	"github.com/workoutbrothers/storefront-backend/pkg/types"
)

type stubProcessor struct {
	created   []int64
	currency  string
	metadata  map[string]string
	status    string
	createErr error
}

func (s *stubProcessor) CreatePaymentIntent(_ context.Context, amountCents int64, currency string, metadata map[string]string) (*stripe.Intent, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.created = append(s.created, amountCents)
	s.currency = currency
	s.metadata = metadata
	return &stripe.Intent{ID: "pi_test_1", ClientSecret: "pi_test_1_secret", Status: "requires_payment_method", AmountCents: amountCents}, nil
}

func (s *stubProcessor) RetrievePaymentIntent(_ context.Context, id string) (*stripe.Intent, error) {
	return &stripe.Intent{ID: id, Status: s.status}, nil
}

func newService(t *testing.T, processor Processor) (Service, *gorm.DB) {
	t.Helper()
	client := dbtest.Client(t)
	svc, err := NewService(ServiceParams{
		Orders:    orders.NewRepository(client.DB()),
		Processor: processor,
		Logger:    logger.New(logger.Options{ServiceName: "test", Output: &bytes.Buffer{}}),
	})
	require.NoError(t, err)
	return svc, client.DB()
}

func seedOrder(t *testing.T, conn *gorm.DB, userID uuid.UUID, total string) models.Order {
	t.Helper()
	order := models.Order{
		UserID:          userID,
		Status:          enums.OrderStatusPending,
		PaymentMethod:   enums.PaymentMethodStripe,
		TotalAmount:     decimal.RequireFromString(total),
		ShippingAddress: types.ShippingAddress{Street: "1 Main", City: "Austin", State: "TX", ZipCode: "78701", Country: "US"},
		Items: []models.OrderItem{{
			ProductID: uuid.New(), ProductName: "Kettlebell", UnitPrice: decimal.RequireFromString(total), Quantity: 1,
		}},
	}
	require.NoError(t, conn.Create(&order).Error)
	return order
}

func TestAmountCents(t *testing.T) {
	cases := map[string]int64{
		"250.00": 25000,
		"19.99":  1999,
		"0.005":  1,
		"10":     1000,
	}
	for in, want := range cases {
		assert.Equal(t, want, AmountCents(decimal.RequireFromString(in)), in)
	}
}

func TestCreatePaymentIntentStoresIntent(t *testing.T) {
	processor := &stubProcessor{}
	svc, conn := newService(t, processor)
	userID := uuid.New()
	order := seedOrder(t, conn, userID, "250.00")

	resp, err := svc.CreatePaymentIntent(context.Background(), order.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, "pi_test_1", resp.PaymentIntentID)
	assert.Equal(t, "pi_test_1_secret", resp.ClientSecret)

	assert.Equal(t, []int64{25000}, processor.created)
	assert.Equal(t, "usd", processor.currency)
	assert.Equal(t, order.ID.String(), processor.metadata["orderId"])
	assert.Equal(t, userID.String(), processor.metadata["userId"])

	var stored models.Order
	require.NoError(t, conn.First(&stored, "id = ?", order.ID).Error)
	require.NotNil(t, stored.StripePaymentIntentID)
	assert.Equal(t, "pi_test_1", *stored.StripePaymentIntentID)
}

func TestCreatePaymentIntentErrors(t *testing.T) {
	processor := &stubProcessor{}
	svc, conn := newService(t, processor)
	owner := uuid.New()
	order := seedOrder(t, conn, owner, "10.00")

	_, err := svc.CreatePaymentIntent(context.Background(), order.ID, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = svc.CreatePaymentIntent(context.Background(), uuid.New(), owner)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	processor.createErr = errors.New("card network down")
	_, err = svc.CreatePaymentIntent(context.Background(), order.ID, owner)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
	assert.Empty(t, processor.created)
}

func TestUnconfiguredProcessor(t *testing.T) {
	svc, conn := newService(t, nil)
	owner := uuid.New()
	order := seedOrder(t, conn, owner, "10.00")

	_, err := svc.CreatePaymentIntent(context.Background(), order.ID, owner)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))

	_, err = svc.ConfirmPayment(context.Background(), "pi_x", owner)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestConfirmPayment(t *testing.T) {
	processor := &stubProcessor{status: "processing"}
	svc, conn := newService(t, processor)
	owner := uuid.New()
	order := seedOrder(t, conn, owner, "250.00")
	_, err := svc.CreatePaymentIntent(context.Background(), order.ID, owner)
	require.NoError(t, err)

	_, err = svc.ConfirmPayment(context.Background(), "pi_test_1", owner)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodePaymentIncomplete))

	processor.status = stripe.IntentStatusSucceeded
	_, err = svc.ConfirmPayment(context.Background(), "pi_test_1", uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "intent must belong to the caller")

	_, err = svc.ConfirmPayment(context.Background(), " ", owner)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	paid, err := svc.ConfirmPayment(context.Background(), "pi_test_1", owner)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPaid, paid.Status)
	assert.Equal(t, order.ID, paid.ID)
}

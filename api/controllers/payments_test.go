package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/workoutbrothers/storefront-backend/internal/orders"
	"github.com/workoutbrothers/storefront-backend/internal/payments"
	"github.com/workoutbrothers/storefront-backend/pkg/enums"
	pkgerrors "github.com/workoutbrothers/storefront-backend/pkg/errors"
)

type stubPaymentsService struct {
	orderID   uuid.UUID
	callerID  uuid.UUID
	intentID  string
	confirmed error
}

func (s *stubPaymentsService) CreatePaymentIntent(ctx context.Context, orderID, callerID uuid.UUID) (*payments.IntentResponse, error) {
	s.orderID = orderID
	s.callerID = callerID
	return &payments.IntentResponse{}, nil
}

func (s *stubPaymentsService) ConfirmPayment(ctx context.Context, intentID string, callerID uuid.UUID) (*orders.OrderDTO, error) {
	s.intentID = intentID
	if s.confirmed != nil {
		return nil, s.confirmed
	}
	return &orders.OrderDTO{ID: uuid.New(), UserID: callerID, Status: enums.OrderStatusPaid}, nil
}

func TestPaymentCreateIntentForwardsOrder(t *testing.T) {
	svc := &stubPaymentsService{}
	handler := PaymentCreateIntent(svc, nil)
	orderID := uuid.New()
	userID := uuid.New()

	req := withCustomer(httptest.NewRequest(http.MethodPost, "/api/payments/create-intent", strings.NewReader(`{"orderId":"`+orderID.String()+`"}`)), userID)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.orderID != orderID || svc.callerID != userID {
		t.Fatalf("unexpected forwarded ids order=%s caller=%s", svc.orderID, svc.callerID)
	}
}

func TestPaymentCreateIntentInvalidOrderID(t *testing.T) {
	svc := &stubPaymentsService{}
	handler := PaymentCreateIntent(svc, nil)

	req := withCustomer(httptest.NewRequest(http.MethodPost, "/api/payments/create-intent", strings.NewReader(`{"orderId":"nope"}`)), uuid.New())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if svc.orderID != uuid.Nil {
		t.Fatalf("expected service not called")
	}
}

func TestPaymentConfirmReturnsOrder(t *testing.T) {
	svc := &stubPaymentsService{}
	handler := PaymentConfirm(svc, nil)

	req := withCustomer(httptest.NewRequest(http.MethodPost, "/api/payments/confirm", strings.NewReader(`{"paymentIntentId":"pi_123"}`)), uuid.New())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data struct {
			Message string          `json:"message"`
			Order   orders.OrderDTO `json:"order"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Order.Status != enums.OrderStatusPaid {
		t.Fatalf("expected paid got %s", envelope.Data.Order.Status)
	}
	if svc.intentID != "pi_123" {
		t.Fatalf("expected pi_123 got %s", svc.intentID)
	}
}

func TestPaymentConfirmIncomplete(t *testing.T) {
	svc := &stubPaymentsService{confirmed: pkgerrors.New(pkgerrors.CodePaymentIncomplete, "payment not completed")}
	handler := PaymentConfirm(svc, nil)

	req := withCustomer(httptest.NewRequest(http.MethodPost, "/api/payments/confirm", strings.NewReader(`{"paymentIntentId":"pi_123"}`)), uuid.New())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

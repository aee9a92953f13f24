package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/workoutbrothers/storefront-backend/api/middleware"
	cartsvc "github.com/workoutbrothers/storefront-backend/internal/cart"
	"github.com/workoutbrothers/storefront-backend/pkg/auth"
	"github.com/workoutbrothers/storefront-backend/pkg/enums"
	pkgerrors "github.com/workoutbrothers/storefront-backend/pkg/errors"
)

type stubCartService struct {
	cartsvc.Service
	addedQuantity int
	updatedItem   uuid.UUID
	err           error
}

func (s *stubCartService) GetOrCreate(ctx context.Context, userID uuid.UUID) (*cartsvc.CartView, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &cartsvc.CartView{ID: uuid.New(), UserID: userID, Items: []cartsvc.ItemView{}}, nil
}

func (s *stubCartService) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*cartsvc.CartView, error) {
	s.addedQuantity = quantity
	if s.err != nil {
		return nil, s.err
	}
	return &cartsvc.CartView{ID: uuid.New(), UserID: userID, ItemCount: quantity}, nil
}

func (s *stubCartService) UpdateItemQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*cartsvc.CartView, error) {
	s.updatedItem = itemID
	return &cartsvc.CartView{ID: uuid.New(), UserID: userID, ItemCount: quantity}, nil
}

func withCustomer(req *http.Request, userID uuid.UUID) *http.Request {
	return req.WithContext(middleware.WithIdentity(req.Context(), auth.Identity{
		UserID: userID,
		Role:   enums.UserRoleCustomer,
	}))
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestCartFetchSuccess(t *testing.T) {
	userID := uuid.New()
	handler := CartFetch(&stubCartService{}, nil)

	req := withCustomer(httptest.NewRequest(http.MethodGet, "/api/cart", nil), userID)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data cartsvc.CartView `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.UserID != userID {
		t.Fatalf("unexpected cart owner: %s", envelope.Data.UserID)
	}
}

func TestCartFetchMissingIdentity(t *testing.T) {
	handler := CartFetch(&stubCartService{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestCartAddItemDefaultsQuantity(t *testing.T) {
	svc := &stubCartService{}
	handler := CartAddItem(svc, nil)

	body := `{"productId":"` + uuid.NewString() + `"}`
	req := withCustomer(httptest.NewRequest(http.MethodPost, "/api/cart/items", strings.NewReader(body)), uuid.New())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.addedQuantity != 1 {
		t.Fatalf("expected default quantity 1 got %d", svc.addedQuantity)
	}
}

func TestCartAddItemInsufficientStock(t *testing.T) {
	svc := &stubCartService{err: pkgerrors.New(pkgerrors.CodeInsufficientStock, "only 2 left in stock")}
	handler := CartAddItem(svc, nil)

	body := `{"productId":"` + uuid.NewString() + `","quantity":5}`
	req := withCustomer(httptest.NewRequest(http.MethodPost, "/api/cart/items", strings.NewReader(body)), uuid.New())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if svc.addedQuantity != 5 {
		t.Fatalf("expected quantity 5 forwarded got %d", svc.addedQuantity)
	}
}

func TestCartAddItemRejectsUnknownFields(t *testing.T) {
	handler := CartAddItem(&stubCartService{}, nil)

	body := `{"productId":"` + uuid.NewString() + `","price":1}`
	req := withCustomer(httptest.NewRequest(http.MethodPost, "/api/cart/items", strings.NewReader(body)), uuid.New())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartUpdateItemParsesItemID(t *testing.T) {
	svc := &stubCartService{}
	handler := CartUpdateItem(svc, nil)
	itemID := uuid.New()

	req := withCustomer(httptest.NewRequest(http.MethodPut, "/api/cart/items/"+itemID.String(), strings.NewReader(`{"quantity":3}`)), uuid.New())
	req = withURLParam(req, "itemId", itemID.String())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.updatedItem != itemID {
		t.Fatalf("expected item %s got %s", itemID, svc.updatedItem)
	}
}

func TestCartUpdateItemInvalidID(t *testing.T) {
	handler := CartUpdateItem(&stubCartService{}, nil)

	req := withCustomer(httptest.NewRequest(http.MethodPut, "/api/cart/items/abc", strings.NewReader(`{"quantity":3}`)), uuid.New())
	req = withURLParam(req, "itemId", "abc")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/workoutbrothers/storefront-backend/internal/admin"
	"github.com/workoutbrothers/storefront-backend/internal/cart"
	"github.com/workoutbrothers/storefront-backend/internal/orders"
	product "github.com/workoutbrothers/storefront-backend/internal/products"
	pkgAuth "github.com/workoutbrothers/storefront-backend/pkg/auth"
	"github.com/workoutbrothers/storefront-backend/pkg/config"
	"github.com/workoutbrothers/storefront-backend/pkg/enums"
	"github.com/workoutbrothers/storefront-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubCartService struct {
	cart.Service
	lastUser uuid.UUID
}

func (s *stubCartService) GetOrCreate(ctx context.Context, userID uuid.UUID) (*cart.CartView, error) {
	s.lastUser = userID
	return &cart.CartView{ID: uuid.New(), UserID: userID, Items: []cart.ItemView{}}, nil
}

type stubOrdersService struct {
	orders.Service
	lastStatus string
}

func (s *stubOrdersService) Checkout(ctx context.Context, userID uuid.UUID, input orders.CheckoutInput) (*orders.OrderDTO, error) {
	return &orders.OrderDTO{ID: uuid.New(), UserID: userID, Status: enums.OrderStatusPending}, nil
}

func (s *stubOrdersService) UpdateStatus(ctx context.Context, orderID uuid.UUID, status string) (*orders.OrderDTO, error) {
	s.lastStatus = status
	return &orders.OrderDTO{ID: orderID, Status: enums.OrderStatus(status)}, nil
}

type stubProductService struct {
	product.Service
}

func (stubProductService) ListProducts(ctx context.Context, input product.ListProductsInput) (*product.ListResult, error) {
	return &product.ListResult{}, nil
}

type stubAdminService struct {
	admin.Service
}

func (stubAdminService) Stats(ctx context.Context) (*admin.Stats, error) {
	return &admin.Stats{}, nil
}

type stubWebhookService struct {
	signature string
}

func (s *stubWebhookService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	s.signature = signature
	return nil
}

type testServices struct {
	cart     *stubCartService
	orders   *stubOrdersService
	webhooks *stubWebhookService
}

func testConfig() *config.Config {
	return &config.Config{
		App:  config.AppConfig{Env: "test"},
		JWT:  config.JWTConfig{Secret: "router-secret", Issuer: "workoutbrothers", ExpirationMinutes: 60},
		CORS: config.CORSConfig{AllowedOrigins: []string{"*"}},
	}
}

func newTestRouter(cfg *config.Config) (http.Handler, testServices) {
	logg := logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
	stubs := testServices{
		cart:     &stubCartService{},
		orders:   &stubOrdersService{},
		webhooks: &stubWebhookService{},
	}
	router := NewRouter(cfg, logg, stubPinger{}, nil, Services{
		Products: stubProductService{},
		Cart:     stubs.cart,
		Orders:   stubs.orders,
		Webhooks: stubs.webhooks,
		Admin:    stubAdminService{},
	})
	return router, stubs
}

func buildToken(t *testing.T, cfg *config.Config, userID uuid.UUID, role enums.UserRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.Identity{
		UserID:   userID,
		Username: "lifter",
		Email:    "lifter@example.com",
		Role:     role,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLive(t *testing.T) {
	router, _ := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if resp.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected request id header")
	}
}

func TestHealthReady(t *testing.T) {
	router, _ := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/health/ready", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestProductsArePublic(t *testing.T) {
	router, _ := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/products?category=kettlebells", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for public catalog got %d", resp.Code)
	}
}

func TestCartRejectsMissingJWT(t *testing.T) {
	router, _ := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestCartUsesCallerIdentity(t *testing.T) {
	cfg := testConfig()
	router, stubs := newTestRouter(cfg)
	userID := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, userID, enums.UserRoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if stubs.cart.lastUser != userID {
		t.Fatalf("expected cart lookup for %s got %s", userID, stubs.cart.lastUser)
	}
}

func TestCheckoutCreatesOrder(t *testing.T) {
	cfg := testConfig()
	router, _ := newTestRouter(cfg)
	body := `{"shippingAddress":{"street":"1 Iron Way","city":"Austin","state":"TX","zipCode":"73301","country":"US"},"paymentMethod":"stripe"}`

	req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, uuid.New(), enums.UserRoleCustomer))
	req.Header.Set("Idempotency-Key", "checkout-1")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestCheckoutRejectsUnknownPaymentMethod(t *testing.T) {
	cfg := testConfig()
	router, _ := newTestRouter(cfg)
	body := `{"shippingAddress":{"street":"1 Iron Way","city":"Austin","state":"TX","zipCode":"73301","country":"US"},"paymentMethod":"cash"}`

	req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, uuid.New(), enums.UserRoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestOrderStatusRequiresAdminRole(t *testing.T) {
	cfg := testConfig()
	router, stubs := newTestRouter(cfg)
	path := "/api/orders/" + uuid.NewString() + "/status"

	customer := httptest.NewRequest(http.MethodPut, path, strings.NewReader(`{"status":"shipped"}`))
	customer.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, uuid.New(), enums.UserRoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, customer)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for customer got %d", resp.Code)
	}
	if stubs.orders.lastStatus != "" {
		t.Fatalf("expected no status update for customer")
	}

	adminReq := httptest.NewRequest(http.MethodPut, path, strings.NewReader(`{"status":"shipped"}`))
	adminReq.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, uuid.New(), enums.UserRoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, adminReq)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d: %s", resp.Code, resp.Body.String())
	}
	if stubs.orders.lastStatus != "shipped" {
		t.Fatalf("expected shipped got %q", stubs.orders.lastStatus)
	}
}

func TestAdminStatsRequiresAdminRole(t *testing.T) {
	cfg := testConfig()
	router, _ := newTestRouter(cfg)

	customer := httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
	customer.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, uuid.New(), enums.UserRoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, customer)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for customer got %d", resp.Code)
	}

	adminReq := httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
	adminReq.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, uuid.New(), enums.UserRoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, adminReq)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d", resp.Code)
	}
}

func TestStripeWebhookSkipsJWT(t *testing.T) {
	router, stubs := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", strings.NewReader(`{"id":"evt_1"}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=abc")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var body map[string]bool
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !body["received"] {
		t.Fatalf("expected received=true got %v", body)
	}
	if stubs.webhooks.signature != "t=1,v1=abc" {
		t.Fatalf("expected signature passed through got %q", stubs.webhooks.signature)
	}
}

func TestStripeWebhookRejectsMissingSignature(t *testing.T) {
	router, _ := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", strings.NewReader(`{}`))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

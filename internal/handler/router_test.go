package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hamada/nefuda/internal/auth"
	"github.com/hamada/nefuda/internal/catalog"
	"github.com/hamada/nefuda/internal/middleware"
	"github.com/hamada/nefuda/internal/model"
)

// mockCatalogService はカタログ系ハンドラーインターフェースをまとめて実装するモック。
type mockCatalogService struct {
	listProductsFn func(ctx context.Context, userID int64) ([]*model.Product, error)
}

func (m *mockCatalogService) CreateSupplier(ctx context.Context, userID int64, input catalog.SupplierInput) (*model.Supplier, error) {
	return &model.Supplier{ID: 1, UserID: userID, Name: input.Name}, nil
}

func (m *mockCatalogService) ListSuppliers(ctx context.Context, userID int64) ([]*model.Supplier, error) {
	return nil, nil
}

func (m *mockCatalogService) CreateProduct(ctx context.Context, userID int64, input catalog.ProductInput) (*model.Product, error) {
	return &model.Product{ID: 1, UserID: userID, Name: input.Name}, nil
}

func (m *mockCatalogService) ListProducts(ctx context.Context, userID int64) ([]*model.Product, error) {
	if m.listProductsFn != nil {
		return m.listProductsFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockCatalogService) RecordPrice(ctx context.Context, userID int64, input catalog.PriceInput) (*model.PriceRecord, error) {
	return &model.PriceRecord{ID: 1}, nil
}

func (m *mockCatalogService) ListProductPrices(ctx context.Context, userID, productID int64) ([]model.PriceRecordDetail, error) {
	return nil, nil
}

func (m *mockCatalogService) Dashboard(ctx context.Context, userID int64) (*model.DashboardStats, error) {
	return &model.DashboardStats{}, nil
}

// routerAuthenticator はトークン"valid-token"のみを受理する。
type routerAuthenticator struct{}

func (a *routerAuthenticator) Authenticate(ctx context.Context, token string, meta auth.RequestMeta) (*model.Identity, error) {
	if token == "valid-token" {
		return &model.Identity{ID: 7, Username: "tanaka", ShopName: "田中商店"}, nil
	}
	return nil, model.NewUnauthorizedError()
}

type pingOK struct{}

func (pingOK) PingContext(ctx context.Context) error { return nil }

func newTestRouter(t *testing.T, authSvc AuthServiceInterface) http.Handler {
	t.Helper()
	catalogSvc := &mockCatalogService{}
	rl := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	t.Cleanup(rl.Stop)

	if authSvc == nil {
		authSvc = &mockAuthService{}
	}

	return NewRouter(&RouterDeps{
		Authenticator:     &routerAuthenticator{},
		CORSAllowedOrigin: "http://localhost:5173",
		RateLimiter:       rl,
		HealthChecker:     pingOK{},
		AuthService:       authSvc,
		AuthConfig:        testAuthConfig(),
		SupplierService:   catalogSvc,
		ProductService:    catalogSvc,
		PriceService:      catalogSvc,
		DashboardService:  catalogSvc,
	})
}

func TestRouter_Health_Returns200(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

// 保護ルートはセッションCookieなしでは一律401になること。
func TestRouter_ProtectedRoutes_RequireSession(t *testing.T) {
	router := newTestRouter(t, nil)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/me"},
		{http.MethodGet, "/api/suppliers"},
		{http.MethodPost, "/api/suppliers"},
		{http.MethodGet, "/api/products"},
		{http.MethodPost, "/api/products"},
		{http.MethodPost, "/api/prices"},
		{http.MethodGet, "/api/products/1/prices"},
		{http.MethodGet, "/api/dashboard"},
	}

	for _, tt := range paths {
		req := httptest.NewRequest(tt.method, tt.path, strings.NewReader("{}"))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: status = %d, want %d", tt.method, tt.path, rec.Code, http.StatusUnauthorized)
		}
	}
}

func TestRouter_ProtectedRoute_WithValidSession(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "valid-token"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestRouter_LoginRoute_IsPublic(t *testing.T) {
	authSvc := &mockAuthService{
		loginFn: func(ctx context.Context, username, password string, meta auth.RequestMeta) (*model.Identity, *model.Session, error) {
			return &model.Identity{ID: 1, Username: username},
				&model.Session{Token: "tok", ExpiresAt: time.Now().Add(time.Hour)}, nil
		},
	}
	router := newTestRouter(t, authSvc)

	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"username":"tanaka","password":"secret123"}`))
	req.RemoteAddr = "198.51.100.1:1000"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestRouter_SecurityHeaders_Applied(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q, want DENY", got)
	}
}

func TestRouter_CORSPreflight_Returns204(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/login", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("Access-Control-Allow-Credentials = %q, want true", got)
	}
}

package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hamada/nefuda/internal/auth"
	"github.com/hamada/nefuda/internal/middleware"
	"github.com/hamada/nefuda/internal/model"
)

// mockAuthService はAuthServiceInterfaceのモック実装。
type mockAuthService struct {
	registerFn func(ctx context.Context, input auth.RegisterInput, meta auth.RequestMeta) (*model.Identity, error)
	loginFn    func(ctx context.Context, username, password string, meta auth.RequestMeta) (*model.Identity, *model.Session, error)
	logoutFn   func(ctx context.Context, token string, meta auth.RequestMeta) error
}

func (m *mockAuthService) Register(ctx context.Context, input auth.RegisterInput, meta auth.RequestMeta) (*model.Identity, error) {
	return m.registerFn(ctx, input, meta)
}

func (m *mockAuthService) Login(ctx context.Context, username, password string, meta auth.RequestMeta) (*model.Identity, *model.Session, error) {
	return m.loginFn(ctx, username, password, meta)
}

func (m *mockAuthService) Logout(ctx context.Context, token string, meta auth.RequestMeta) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, token, meta)
	}
	return nil
}

var _ AuthServiceInterface = (*mockAuthService)(nil)

func testAuthConfig() AuthHandlerConfig {
	return AuthHandlerConfig{
		CookieSecure:  false,
		SessionMaxAge: 86400,
	}
}

func decodeErrorResponse(t *testing.T, rec *httptest.ResponseRecorder) apiErrorResponse {
	t.Helper()
	var body apiErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return body
}

func findSessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			return c
		}
	}
	return nil
}

// --- 登録 ---

func TestRegister_Success_Returns200WithoutSession(t *testing.T) {
	svc := &mockAuthService{
		registerFn: func(ctx context.Context, input auth.RegisterInput, meta auth.RequestMeta) (*model.Identity, error) {
			if input.Username != "tanaka" || input.ShopName != "田中商店" {
				t.Errorf("unexpected input: %+v", input)
			}
			return &model.Identity{ID: 1, Username: "tanaka", Email: "t@example.com", ShopName: "田中商店"}, nil
		},
	}
	h := NewAuthHandler(svc, testAuthConfig())

	body := `{"username":"tanaka","email":"t@example.com","password":"secret123","shopName":"田中商店"}`
	req := httptest.NewRequest(http.MethodPost, "/api/register", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp authResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.User.ID != 1 || resp.User.Username != "tanaka" || resp.User.ShopName != "田中商店" {
		t.Errorf("user = %+v", resp.User)
	}

	// 登録時点ではセッションを発行しない
	if c := findSessionCookie(t, rec); c != nil {
		t.Errorf("unexpected session cookie: %+v", c)
	}
}

func TestRegister_DuplicateUser_Returns400(t *testing.T) {
	svc := &mockAuthService{
		registerFn: func(ctx context.Context, input auth.RegisterInput, meta auth.RequestMeta) (*model.Identity, error) {
			return nil, model.NewDuplicateUserError()
		},
	}
	h := NewAuthHandler(svc, testAuthConfig())

	body := `{"username":"tanaka","email":"t@example.com","password":"secret123","shopName":"田中商店"}`
	req := httptest.NewRequest(http.MethodPost, "/api/register", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if resp := decodeErrorResponse(t, rec); resp.Code != model.ErrCodeDuplicateUser {
		t.Errorf("code = %q, want %q", resp.Code, model.ErrCodeDuplicateUser)
	}
}

func TestRegister_MalformedBody_Returns400(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, testAuthConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/register", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

// --- ログイン ---

func TestLogin_Success_SetsSessionCookie(t *testing.T) {
	expiresAt := time.Now().Add(24 * time.Hour).Truncate(time.Second)
	svc := &mockAuthService{
		loginFn: func(ctx context.Context, username, password string, meta auth.RequestMeta) (*model.Identity, *model.Session, error) {
			return &model.Identity{ID: 7, Username: "tanaka", ShopName: "田中商店"},
				&model.Session{Token: "abc123token", ExpiresAt: expiresAt}, nil
		},
	}
	h := NewAuthHandler(svc, testAuthConfig())

	body := `{"username":"tanaka","password":"secret123"}`
	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	cookie := findSessionCookie(t, rec)
	if cookie == nil {
		t.Fatal("session cookie not set")
	}
	if cookie.Value != "abc123token" {
		t.Errorf("cookie value = %q", cookie.Value)
	}
	if !cookie.HttpOnly {
		t.Error("cookie must be HttpOnly")
	}
	if cookie.SameSite != http.SameSiteStrictMode {
		t.Errorf("SameSite = %v, want Strict", cookie.SameSite)
	}
	if cookie.Path != "/" {
		t.Errorf("Path = %q, want /", cookie.Path)
	}
	if !cookie.Expires.Equal(expiresAt) {
		t.Errorf("Expires = %v, want %v", cookie.Expires, expiresAt)
	}

	var resp authResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.User.ID != 7 {
		t.Errorf("user ID = %d, want 7", resp.User.ID)
	}
}

func TestLogin_InvalidCredentials_Returns401(t *testing.T) {
	svc := &mockAuthService{
		loginFn: func(ctx context.Context, username, password string, meta auth.RequestMeta) (*model.Identity, *model.Session, error) {
			return nil, nil, model.NewInvalidCredentialsError()
		},
	}
	h := NewAuthHandler(svc, testAuthConfig())

	body := `{"username":"tanaka","password":"wrong"}`
	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if findSessionCookie(t, rec) != nil {
		t.Error("session cookie must not be set on failure")
	}
}

func TestLogin_LockedAccount_Returns403(t *testing.T) {
	svc := &mockAuthService{
		loginFn: func(ctx context.Context, username, password string, meta auth.RequestMeta) (*model.Identity, *model.Session, error) {
			return nil, nil, model.NewAccountLockedError()
		},
	}
	h := NewAuthHandler(svc, testAuthConfig())

	body := `{"username":"tanaka","password":"secret123"}`
	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
	if resp := decodeErrorResponse(t, rec); resp.Code != model.ErrCodeAccountLocked {
		t.Errorf("code = %q, want %q", resp.Code, model.ErrCodeAccountLocked)
	}
}

// --- ログアウト ---

func TestLogout_DeletesSessionAndClearsCookie(t *testing.T) {
	var loggedOutToken string
	svc := &mockAuthService{
		logoutFn: func(ctx context.Context, token string, meta auth.RequestMeta) error {
			loggedOutToken = token
			return nil
		},
	}
	h := NewAuthHandler(svc, testAuthConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/logout", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "abc123token"})
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if loggedOutToken != "abc123token" {
		t.Errorf("logged out token = %q", loggedOutToken)
	}

	cookie := findSessionCookie(t, rec)
	if cookie == nil {
		t.Fatal("expected expired session cookie")
	}
	if cookie.Value != "" || cookie.MaxAge != -1 {
		t.Errorf("cookie = %+v, want cleared", cookie)
	}
}

// Cookieなしのログアウトでも200を返すこと（冪等）。
func TestLogout_WithoutCookie_Returns200(t *testing.T) {
	called := false
	svc := &mockAuthService{
		logoutFn: func(ctx context.Context, token string, meta auth.RequestMeta) error {
			called = true
			return nil
		},
	}
	h := NewAuthHandler(svc, testAuthConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/logout", nil)
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if called {
		t.Error("service must not be called without a cookie")
	}
}

// --- ユーザー情報 ---

func TestMe_ReturnsIdentity(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, testAuthConfig())

	identity := &model.Identity{ID: 7, Username: "tanaka", Email: "t@example.com", ShopName: "田中商店"}
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req = req.WithContext(middleware.ContextWithIdentity(req.Context(), identity))
	rec := httptest.NewRecorder()
	h.Me(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
		ShopName string `json:"shopName"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != 7 || resp.Email != "t@example.com" {
		t.Errorf("response = %+v", resp)
	}
}

func TestMe_WithoutIdentity_Returns401(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, testAuthConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	rec := httptest.NewRecorder()
	h.Me(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

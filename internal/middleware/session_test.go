package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hamada/nefuda/internal/auth"
	"github.com/hamada/nefuda/internal/model"
)

// mockAuthenticator はAuthenticatorのモック実装。
type mockAuthenticator struct {
	authenticateFn func(ctx context.Context, token string, meta auth.RequestMeta) (*model.Identity, error)
}

func (m *mockAuthenticator) Authenticate(ctx context.Context, token string, meta auth.RequestMeta) (*model.Identity, error) {
	if m.authenticateFn != nil {
		return m.authenticateFn(ctx, token, meta)
	}
	return nil, model.NewUnauthorizedError()
}

var _ Authenticator = (*mockAuthenticator)(nil)

// decodeErrorBody はレスポンスボディから統一エラーフォーマットを読み取る。
func decodeErrorBody(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponseBody {
	t.Helper()
	var body ErrorResponseBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return body
}

func TestSessionMiddleware_MissingCookie_Returns401(t *testing.T) {
	mw := NewSessionMiddleware(&mockAuthenticator{})
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not be called without a session cookie")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if body := decodeErrorBody(t, rec); body.Code != model.ErrCodeUnauthorized {
		t.Errorf("error code = %q, want %q", body.Code, model.ErrCodeUnauthorized)
	}
}

func TestSessionMiddleware_InvalidOrExpiredToken_Returns401(t *testing.T) {
	authn := &mockAuthenticator{
		authenticateFn: func(ctx context.Context, token string, meta auth.RequestMeta) (*model.Identity, error) {
			return nil, model.NewUnauthorizedError()
		},
	}
	mw := NewSessionMiddleware(authn)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not be called with an invalid session")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "expired-token"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

// ロック中のアカウントは未失効セッションを持っていても403で拒否されること。
func TestSessionMiddleware_LockedAccount_Returns403(t *testing.T) {
	authn := &mockAuthenticator{
		authenticateFn: func(ctx context.Context, token string, meta auth.RequestMeta) (*model.Identity, error) {
			return nil, model.NewAccountLockedError()
		},
	}
	mw := NewSessionMiddleware(authn)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not be called for a locked account")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "live-token"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
	if body := decodeErrorBody(t, rec); body.Code != model.ErrCodeAccountLocked {
		t.Errorf("error code = %q, want %q", body.Code, model.ErrCodeAccountLocked)
	}
}

func TestSessionMiddleware_StoreFailure_Returns500(t *testing.T) {
	authn := &mockAuthenticator{
		authenticateFn: func(ctx context.Context, token string, meta auth.RequestMeta) (*model.Identity, error) {
			return nil, errors.New("connection refused")
		},
	}
	mw := NewSessionMiddleware(authn)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "token"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestSessionMiddleware_ValidToken_InjectsIdentity(t *testing.T) {
	want := &model.Identity{ID: 7, Username: "alice", Email: "a@x.com", ShopName: "Alice Shop"}
	authn := &mockAuthenticator{
		authenticateFn: func(ctx context.Context, token string, meta auth.RequestMeta) (*model.Identity, error) {
			if token != "valid-token" {
				t.Errorf("token = %q, want %q", token, "valid-token")
			}
			return want, nil
		},
	}

	var got *model.Identity
	mw := NewSessionMiddleware(authn)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := IdentityFromContext(r.Context())
		if err != nil {
			t.Fatalf("IdentityFromContext() error = %v", err)
		}
		got = identity
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "valid-token"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got == nil || got.ID != 7 || got.Username != "alice" {
		t.Errorf("identity = %+v, want %+v", got, want)
	}
}

func TestIdentityFromContext_Missing_ReturnsError(t *testing.T) {
	if _, err := IdentityFromContext(context.Background()); err == nil {
		t.Error("expected error for missing identity")
	}
}

func TestClientMeta_ExtractsIPAndUserAgent(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
	req.RemoteAddr = "198.51.100.23:54321"
	req.Header.Set("User-Agent", "curl/8.0")

	meta := ClientMeta(req)
	if meta.IPAddress != "198.51.100.23" {
		t.Errorf("IPAddress = %q, want %q", meta.IPAddress, "198.51.100.23")
	}
	if meta.UserAgent != "curl/8.0" {
		t.Errorf("UserAgent = %q, want %q", meta.UserAgent, "curl/8.0")
	}
}

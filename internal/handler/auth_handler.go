// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hamada/nefuda/internal/auth"
	"github.com/hamada/nefuda/internal/middleware"
	"github.com/hamada/nefuda/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Register(ctx context.Context, input auth.RegisterInput, meta auth.RequestMeta) (*model.Identity, error)
	Login(ctx context.Context, username, password string, meta auth.RequestMeta) (*model.Identity, *model.Session, error)
	Logout(ctx context.Context, token string, meta auth.RequestMeta) error
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	CookieDomain  string
	CookieSecure  bool
	SessionMaxAge int // セッションCookieの有効期間（秒）
}

// AuthHandler はセッション認証関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service: service,
		config:  config,
	}
}

// registerRequest はアカウント登録リクエストのボディ。
type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	ShopName string `json:"shopName"`
}

// loginRequest はログインリクエストのボディ。
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// userResponse はAPIレスポンスに含めるユーザー情報。
// パスワードハッシュやロック状態は含めない。
type userResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	ShopName string `json:"shopName"`
}

// authResponse は登録・ログイン成功時のレスポンス。
type authResponse struct {
	Message string       `json:"message"`
	User    userResponse `json:"user"`
}

// messageResponse はメッセージのみのレスポンス。
type messageResponse struct {
	Message string `json:"message"`
}

func toUserResponse(identity *model.Identity) userResponse {
	return userResponse{
		ID:       identity.ID,
		Username: identity.Username,
		ShopName: identity.ShopName,
	}
}

// Register はアカウント登録を処理する。
// 登録が成功してもセッションは発行せず、クライアントにログインを促す。
// POST /api/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	identity, err := h.service.Register(r.Context(), auth.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		ShopName: req.ShopName,
	}, middleware.ClientMeta(r))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		Message: "アカウントを登録しました。ログインしてください。",
		User:    toUserResponse(identity),
	})
}

// Login はログインを処理し、成功時にセッションCookieを設定する。
// POST /api/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	identity, session, err := h.service.Login(r.Context(), req.Username, req.Password, middleware.ClientMeta(r))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	// セッションCookieを設定（HTTP Only）。
	// JavaScriptからのトークン読み取りとクロスサイト送信を防ぐ。
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    session.Token,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		Expires:  session.ExpiresAt,
		MaxAge:   h.config.SessionMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})

	writeJSON(w, http.StatusOK, authResponse{
		Message: "ログインしました。",
		User:    toUserResponse(identity),
	})
}

// Logout はログアウトを処理する。
// Cookieがない場合やトークンが無効な場合も200を返す（冪等）。
// POST /api/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.SessionCookieName)
	if err == nil && cookie.Value != "" {
		if err := h.service.Logout(r.Context(), cookie.Value, middleware.ClientMeta(r)); err != nil {
			slog.Error("logout failed", slog.String("error", err.Error()))
			handleServiceError(w, err)
			return
		}
	}

	// セッションCookieを削除
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})

	writeJSON(w, http.StatusOK, messageResponse{Message: "ログアウトしました。"})
}

// Me はログイン中ユーザーの情報を返す。
// セッションミドルウェアの背後に配置される前提。
// GET /api/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	writeJSON(w, http.StatusOK, struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
		ShopName string `json:"shopName"`
	}{
		ID:       identity.ID,
		Username: identity.Username,
		Email:    identity.Email,
		ShopName: identity.ShopName,
	})
}

// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/hamada/nefuda/internal/auth"
	"github.com/hamada/nefuda/internal/model"
)

// SessionCookieName はセッショントークンを保持するCookieの名前。
const SessionCookieName = "sessionToken"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// identityContextKey はリクエストコンテキストに認証済み識別情報を格納するためのキー。
var identityContextKey = contextKey("identity")

// Authenticator はセッショントークンの検証に必要なインターフェース。
// auth.Serviceの部分集合として定義する。
type Authenticator interface {
	Authenticate(ctx context.Context, token string, meta auth.RequestMeta) (*model.Identity, error)
}

// NewSessionMiddleware はHTTP Only Cookieからセッショントークンを読み取り、
// 有効性を検証する認証ゲートを返す。検証済みの識別情報（パスワードハッシュを
// 含まないサニタイズ済みビュー）をリクエストコンテキストに注入する。
// Cookieなし・無効・期限切れは401、アカウントロック中は403を返す。
func NewSessionMiddleware(authenticator Authenticator) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			identity, err := authenticator.Authenticate(r.Context(), cookie.Value, ClientMeta(r))
			if err != nil {
				var apiErr *model.APIError
				if asAPIError(err, &apiErr) {
					switch apiErr.Code {
					case model.ErrCodeAccountLocked:
						WriteErrorResponse(w, http.StatusForbidden, apiErr)
					default:
						WriteErrorResponse(w, http.StatusUnauthorized, apiErr)
					}
					return
				}
				slog.Error("failed to authenticate session",
					slog.String("error", err.Error()),
				)
				WriteInternalServerError(w)
				return
			}

			ctx := context.WithValue(r.Context(), identityContextKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext はリクエストコンテキストから認証済み識別情報を取得する。
// セッションミドルウェアを通過したリクエストでのみ有効。
func IdentityFromContext(ctx context.Context) (*model.Identity, error) {
	identity, ok := ctx.Value(identityContextKey).(*model.Identity)
	if !ok || identity == nil {
		return nil, fmt.Errorf("identity not found in context")
	}
	return identity, nil
}

// ContextWithIdentity はコンテキストに識別情報を注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithIdentity(ctx context.Context, identity *model.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// ClientMeta はリクエストから監査ログ用の発信元情報を抽出する。
func ClientMeta(r *http.Request) auth.RequestMeta {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		ip = host
	}
	return auth.RequestMeta{
		IPAddress: ip,
		UserAgent: r.UserAgent(),
	}
}

// Package model はドメインモデルを定義する。
package model

import "time"

// User は店舗オーナーのアカウントを表す。
// PasswordHashとロックアウト状態を含むため、APIレスポンスには
// そのまま使用せずIdentityに変換すること。
type User struct {
	ID                  int64
	Username            string
	Email               string
	PasswordHash        string
	ShopName            string
	LastLogin           *time.Time
	FailedLoginAttempts int
	AccountLocked       bool
	CreatedAt           time.Time
}

// Identity は認証済みユーザーのサニタイズ済みビュー。
// パスワードハッシュとロックアウト内部状態を含まない。
// 認証ゲート通過後にリクエストコンテキストへ注入される。
type Identity struct {
	ID       int64
	Username string
	Email    string
	ShopName string
}

// Identity はUserからサニタイズ済みビューを生成する。
func (u *User) Identity() *Identity {
	return &Identity{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		ShopName: u.ShopName,
	}
}

// Session はログイン済みブラウザを識別するサーバーサイドセッションを表す。
// Tokenは暗号的に安全な乱数から生成され、Cookieにミラーされる。
type Session struct {
	ID        int64
	UserID    int64
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// 監査ログのアクションタグ。
const (
	AuditAuthSuccess     = "AUTH_SUCCESS"
	AuditAuthFailed      = "AUTH_FAILED"
	AuditLoginSuccess    = "LOGIN_SUCCESS"
	AuditLogout          = "LOGOUT"
	AuditRegisterSuccess = "REGISTER_SUCCESS"
)

// AuditEntry はセキュリティ関連イベントの不変レコードを表す。
// UserIDは行為者が特定できない場合（未知のユーザー名でのログイン失敗等）nil。
type AuditEntry struct {
	ID             int64
	UserID         *int64
	Action         string
	IPAddress      string
	UserAgent      string
	AdditionalInfo string
	CreatedAt      time.Time
}

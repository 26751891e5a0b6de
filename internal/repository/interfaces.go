// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hamada/nefuda/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.User, error)

	// FindByUsername はユーザー名の完全一致でユーザーを検索する。
	// 見つからない場合はnilを返す。
	FindByUsername(ctx context.Context, username string) (*model.User, error)

	// ExistsByUsernameOrEmail はユーザー名またはメールアドレスが
	// 既に使用されているかを返す。
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)

	// Create はユーザーを作成し、採番されたIDを返す。
	Create(ctx context.Context, user *model.User) (int64, error)

	// RecordLoginFailure は失敗カウンタをインクリメントし、閾値に達した場合は
	// 同一ステートメント内でアカウントをロックする。更新後のカウンタ値と
	// ロック状態を返す。increment→再読→ロックの3手順を1文に畳み込むことで
	// 並行ログイン失敗時のレースを排除する。
	RecordLoginFailure(ctx context.Context, userID int64, lockThreshold int) (attempts int, locked bool, err error)

	// ResetLoginFailures は失敗カウンタを0に戻し、最終ログイン日時を現在時刻にする。
	ResetLoginFailures(ctx context.Context, userID int64) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByToken は指定トークンのセッションを取得する。期限切れの場合はnilを返す。
	FindByToken(ctx context.Context, token string) (*model.Session, error)
	// DeleteByToken は指定トークンのセッションを削除する。
	// 存在しないトークンの削除はエラーにならない（冪等）。
	DeleteByToken(ctx context.Context, token string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID int64) error
}

// AuditRepository は監査ログの永続化インターフェース。追記専用。
type AuditRepository interface {
	// Insert は監査エントリを1件追記する。
	Insert(ctx context.Context, entry *model.AuditEntry) error
}

// SupplierRepository は仕入先データの永続化インターフェース。
type SupplierRepository interface {
	// Create は仕入先を作成し、採番されたIDを返す。
	Create(ctx context.Context, supplier *model.Supplier) (int64, error)
	// FindByID は指定IDの仕入先を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Supplier, error)
	// ListByUserID はユーザーの仕入先一覧を名前順で返す。
	ListByUserID(ctx context.Context, userID int64) ([]*model.Supplier, error)
	// CountByUserID はユーザーの仕入先数を返す。
	CountByUserID(ctx context.Context, userID int64) (int, error)
}

// ProductRepository は商品データの永続化インターフェース。
type ProductRepository interface {
	// Create は商品を作成し、採番されたIDを返す。
	Create(ctx context.Context, product *model.Product) (int64, error)
	// FindByID は指定IDの商品を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Product, error)
	// ListByUserID はユーザーの商品一覧を名前順で返す。
	ListByUserID(ctx context.Context, userID int64) ([]*model.Product, error)
	// CountByUserID はユーザーの商品数を返す。
	CountByUserID(ctx context.Context, userID int64) (int, error)
}

// PriceRepository は価格履歴の永続化インターフェース。
type PriceRepository interface {
	// Create は価格記録を作成し、採番されたIDを返す。
	Create(ctx context.Context, record *model.PriceRecord) (int64, error)

	// ListByProductID は指定商品の価格履歴を記録日時の降順で返す。
	// 商品名・仕入先名を結合して返す。
	ListByProductID(ctx context.Context, productID int64) ([]model.PriceRecordDetail, error)

	// BestDeals はユーザーの商品ごとに、全価格履歴のうち単価が最安の
	// 仕入先を返す。
	BestDeals(ctx context.Context, userID int64, limit int) ([]model.BestDeal, error)

	// RecentActivity はユーザーの直近の価格記録を記録日時の降順で返す。
	RecentActivity(ctx context.Context, userID int64, limit int) ([]model.PriceRecordDetail, error)
}

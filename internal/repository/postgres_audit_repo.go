package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hamada/nefuda/internal/model"
)

// PostgresAuditRepo はPostgreSQLを使用した監査ログリポジトリ。
// 追記専用で、更新・削除操作は提供しない（保持期間超過分の削除は
// クリーンアップジョブが直接行う）。
type PostgresAuditRepo struct {
	db *sql.DB
}

// NewPostgresAuditRepo はPostgresAuditRepoを生成する。
func NewPostgresAuditRepo(db *sql.DB) *PostgresAuditRepo {
	return &PostgresAuditRepo{db: db}
}

// Insert は監査エントリを1件追記する。
func (r *PostgresAuditRepo) Insert(ctx context.Context, entry *model.AuditEntry) error {
	var userID sql.NullInt64
	if entry.UserID != nil {
		userID = sql.NullInt64{Int64: *entry.UserID, Valid: true}
	}

	var info sql.NullString
	if entry.AdditionalInfo != "" {
		info = sql.NullString{String: entry.AdditionalInfo, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_log (user_id, action, ip_address, user_agent, additional_info)
		 VALUES ($1, $2, $3, $4, $5)`,
		userID, entry.Action, entry.IPAddress, entry.UserAgent, info,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

// compile-time interface check
var _ AuditRepository = (*PostgresAuditRepo)(nil)

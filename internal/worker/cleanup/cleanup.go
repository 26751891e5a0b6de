// Package cleanup はセッションと監査ログの自動削除ジョブを提供する。
// 期限切れセッション（遅延リープ方式のため認証経路では削除されない）と、
// 保持期間（デフォルト180日）を超過した監査ログを日次バッチで削除する。
package cleanup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// Executor はSQLのExecContextを抽象化するインターフェース。
// *sql.DB や *sql.Tx を受け付けることができる。
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// CleanupMetrics は削除件数のメトリクス記録インターフェース。
// metrics.Collectorの部分集合として定義する。
type CleanupMetrics interface {
	RecordSessionsReaped(count int64)
	RecordAuditEntriesPurged(count int64)
}

// CleanupJob は期限切れセッションと古い監査ログの自動削除ジョブ。
// 日次実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type CleanupJob struct {
	db            Executor
	logger        *slog.Logger
	metrics       CleanupMetrics // nil許容（記録しない）
	RetentionDays int            // 監査ログの保持日数（デフォルト: 180）
}

// NewCleanupJob は新しいCleanupJobを生成する。
// デフォルトの保持日数は180日。metricsはnilを許容する。
func NewCleanupJob(db Executor, logger *slog.Logger, metrics CleanupMetrics) *CleanupJob {
	return &CleanupJob{
		db:            db,
		logger:        logger,
		metrics:       metrics,
		RetentionDays: 180,
	}
}

// Run は期限切れセッションと保持期間超過の監査ログを削除する。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	reaped, err := j.reapExpiredSessions(ctx)
	if err != nil {
		return err
	}

	purged, err := j.purgeOldAuditEntries(ctx)
	if err != nil {
		return err
	}

	if j.metrics != nil {
		j.metrics.RecordSessionsReaped(reaped)
		j.metrics.RecordAuditEntriesPurged(purged)
	}

	duration := time.Since(start)
	j.logger.Info("クリーンアップジョブが完了しました",
		slog.Int64("sessions_reaped", reaped),
		slog.Int64("audit_entries_purged", purged),
		slog.Int("retention_days", j.RetentionDays),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

// reapExpiredSessions は有効期限を過ぎたセッションを削除する。
func (j *CleanupJob) reapExpiredSessions(ctx context.Context) (int64, error) {
	result, err := j.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= now()`)
	if err != nil {
		j.logger.Error("期限切れセッションの削除に失敗しました",
			slog.String("error", err.Error()),
		)
		return 0, fmt.Errorf("期限切れセッションの削除に失敗: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("削除件数の取得に失敗: %w", err)
	}
	return deleted, nil
}

// purgeOldAuditEntries はcreated_atがRetentionDays日前より古い監査ログを削除する。
func (j *CleanupJob) purgeOldAuditEntries(ctx context.Context) (int64, error) {
	interval := fmt.Sprintf("%d days", j.RetentionDays)

	result, err := j.db.ExecContext(ctx,
		`DELETE FROM audit_log WHERE created_at < now() - $1::interval`, interval)
	if err != nil {
		j.logger.Error("監査ログのクリーンアップに失敗しました",
			slog.String("error", err.Error()),
			slog.Int("retention_days", j.RetentionDays),
		)
		return 0, fmt.Errorf("監査ログのクリーンアップに失敗: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("削除件数の取得に失敗: %w", err)
	}
	return deleted, nil
}

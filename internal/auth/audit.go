package auth

import (
	"context"
	"log/slog"

	"github.com/hamada/nefuda/internal/model"
	"github.com/hamada/nefuda/internal/repository"
)

// Auditor はセキュリティイベントの監査ログをベストエフォートで追記する。
// 書き込み失敗は運用ログに記録するのみで、呼び出し元には伝播させない。
// 監査ログの失敗が主処理（ログイン等）を壊してはならない。
type Auditor struct {
	repo   repository.AuditRepository
	logger *slog.Logger
}

// NewAuditor はAuditorを生成する。loggerがnilの場合はslog.Defaultを使う。
func NewAuditor(repo repository.AuditRepository, logger *slog.Logger) *Auditor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Auditor{repo: repo, logger: logger}
}

// Record は監査エントリを1件追記する。userIDは行為者が特定できない場合nil。
// infoは補足情報（試行されたユーザー名等）で、空文字の場合は記録しない。
func (a *Auditor) Record(ctx context.Context, userID *int64, action string, meta RequestMeta, info string) {
	if a == nil || a.repo == nil {
		return
	}

	entry := &model.AuditEntry{
		UserID:         userID,
		Action:         action,
		IPAddress:      meta.IPAddress,
		UserAgent:      meta.UserAgent,
		AdditionalInfo: info,
	}

	if err := a.repo.Insert(ctx, entry); err != nil {
		a.logger.Error("failed to write audit entry",
			slog.String("action", action),
			slog.String("error", err.Error()),
		)
	}
}

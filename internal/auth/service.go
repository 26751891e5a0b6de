// Package auth はパスワード認証、アカウントロックアウト、セッション管理を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/hamada/nefuda/internal/model"
	"github.com/hamada/nefuda/internal/repository"
)

// RequestMeta は監査ログに記録するリクエスト発信元の情報。
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// MetricsRecorder は認証イベントのメトリクス記録インターフェース。
// metrics.Collectorの部分集合として定義する。
type MetricsRecorder interface {
	RecordLoginSuccess()
	RecordLoginFailure()
	RecordLockout()
	RecordRegistration()
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionTTL       time.Duration // セッション有効期間（デフォルト: 24時間）
	LockoutThreshold int           // ロックアウトまでの連続失敗回数（デフォルト: 5）
	BcryptCost       int           // bcryptのコストファクタ（デフォルト: 10）
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	auditor     *Auditor
	metrics     MetricsRecorder
	config      ServiceConfig
}

// NewService はServiceを生成する。configのゼロ値フィールドにはデフォルト値を適用する。
// metricsはnilを許容する（記録しない）。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	auditor *Auditor,
	metrics MetricsRecorder,
	config ServiceConfig,
) *Service {
	if config.SessionTTL <= 0 {
		config.SessionTTL = 24 * time.Hour
	}
	if config.LockoutThreshold <= 0 {
		config.LockoutThreshold = 5
	}
	if config.BcryptCost <= 0 {
		config.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		auditor:     auditor,
		metrics:     metrics,
		config:      config,
	}
}

// RegisterInput はユーザー登録の入力。
type RegisterInput struct {
	Username string
	Email    string
	Password string
	ShopName string
}

// validate は登録入力を検証する。フロントエンドでも検証されるが、
// コア側でも防御的に再検証する。
func (in *RegisterInput) validate() error {
	switch {
	case in.Username == "":
		return model.NewValidationError("ユーザー名は必須です")
	case len(in.Username) > 50:
		return model.NewValidationError("ユーザー名は50文字以内で入力してください")
	case in.Email == "":
		return model.NewValidationError("メールアドレスは必須です")
	case len(in.Email) > 100 || !strings.Contains(in.Email, "@"):
		return model.NewValidationError("メールアドレスの形式が正しくありません")
	case in.Password == "":
		return model.NewValidationError("パスワードは必須です")
	case len(in.Password) < 6:
		return model.NewValidationError("パスワードは6文字以上で入力してください")
	case in.ShopName == "":
		return model.NewValidationError("店舗名は必須です")
	}
	return nil
}

// Register は新規ユーザーを登録し、サニタイズ済みの識別情報を返す。
// ユーザー名またはメールアドレスが既存ユーザーと重複する場合は登録を拒否する。
// 登録成功時にセッションは発行しない。クライアントは登録後に/api/loginを呼ぶ。
func (s *Service) Register(ctx context.Context, input RegisterInput, meta RequestMeta) (*model.Identity, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	exists, err := s.userRepo.ExistsByUsernameOrEmail(ctx, input.Username, input.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check user existence: %w", err)
	}
	if exists {
		return nil, model.NewDuplicateUserError()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hash),
		ShopName:     input.ShopName,
	}

	id, err := s.userRepo.Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	user.ID = id

	s.auditor.Record(ctx, &id, model.AuditRegisterSuccess, meta, "")
	if s.metrics != nil {
		s.metrics.RecordRegistration()
	}

	slog.Info("new user registered",
		slog.Int64("user_id", id),
		slog.String("username", user.Username),
	)

	return user.Identity(), nil
}

// Login はユーザー名とパスワードを検証し、セッションを発行する。
//
// 検証の流れ:
//  1. ユーザー名で検索。未知のユーザーはAUTH_FAILEDを記録して認証失敗。
//  2. ロック済みアカウントはパスワードを検証せず403相当で拒否する。
//  3. パスワード不一致は失敗カウンタをアトミックにインクリメントし、
//     閾値到達時は同一ステートメント内でロックする。ロック時は
//     発行済みセッションをすべて失効させる。
//  4. 一致したら失敗カウンタをリセットし、最終ログイン日時を更新して
//     セッショントークンを発行する。
func (s *Service) Login(ctx context.Context, username, password string, meta RequestMeta) (*model.Identity, *model.Session, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		// 行為者が特定できないため、試行されたユーザー名を付記して記録する
		s.auditor.Record(ctx, nil, model.AuditAuthFailed, meta, fmt.Sprintf("unknown username: %s", username))
		if s.metrics != nil {
			s.metrics.RecordLoginFailure()
		}
		return nil, nil, model.NewInvalidCredentialsError()
	}

	if user.AccountLocked {
		s.auditor.Record(ctx, &user.ID, model.AuditAuthFailed, meta, "account locked")
		return nil, nil, model.NewAccountLockedError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		attempts, locked, failErr := s.userRepo.RecordLoginFailure(ctx, user.ID, s.config.LockoutThreshold)
		if failErr != nil {
			return nil, nil, fmt.Errorf("failed to record login failure: %w", failErr)
		}
		if s.metrics != nil {
			s.metrics.RecordLoginFailure()
		}

		if locked {
			// ロック時点で発行済みセッションをすべて失効させる。
			// 失効の失敗でロック自体の応答は変えない
			if revokeErr := s.sessionRepo.DeleteByUserID(ctx, user.ID); revokeErr != nil {
				slog.Error("failed to revoke sessions of locked account",
					slog.Int64("user_id", user.ID),
					slog.String("error", revokeErr.Error()),
				)
			}

			s.auditor.Record(ctx, &user.ID, model.AuditAuthFailed, meta,
				fmt.Sprintf("account locked after %d failed attempts", attempts))
			if s.metrics != nil {
				s.metrics.RecordLockout()
			}
			slog.Warn("account locked",
				slog.Int64("user_id", user.ID),
				slog.Int("failed_attempts", attempts),
			)
			return nil, nil, model.NewAccountLockedError()
		}

		s.auditor.Record(ctx, &user.ID, model.AuditAuthFailed, meta, "")
		return nil, nil, model.NewInvalidCredentialsError()
	}

	if err := s.userRepo.ResetLoginFailures(ctx, user.ID); err != nil {
		return nil, nil, fmt.Errorf("failed to reset login failures: %w", err)
	}

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.auditor.Record(ctx, &user.ID, model.AuditLoginSuccess, meta, "")
	if s.metrics != nil {
		s.metrics.RecordLoginSuccess()
	}

	slog.Info("user logged in",
		slog.Int64("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return user.Identity(), session, nil
}

// Logout はセッションを破棄する。存在しないトークンでもエラーにしない（冪等）。
// トークンが有効なセッションに解決できた場合のみLOGOUTを記録する。
func (s *Service) Logout(ctx context.Context, token string, meta RequestMeta) error {
	if token == "" {
		return nil
	}

	// 削除前にセッション所有者を解決し、監査ログの行為者を特定する
	session, err := s.sessionRepo.FindByToken(ctx, token)
	if err != nil {
		return fmt.Errorf("failed to find session: %w", err)
	}

	if err := s.sessionRepo.DeleteByToken(ctx, token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	if session != nil {
		s.auditor.Record(ctx, &session.UserID, model.AuditLogout, meta, "")
		slog.Info("user logged out", slog.Int64("user_id", session.UserID))
	}

	return nil
}

// Authenticate はセッショントークンを検証し、サニタイズ済みの識別情報を返す。
// 認証ゲートのバックエンドとして、ゲートを通過する全リクエストで呼ばれる。
// ロック済みアカウントは未失効セッションを持っていても拒否される。
func (s *Service) Authenticate(ctx context.Context, token string, meta RequestMeta) (*model.Identity, error) {
	if token == "" {
		return nil, model.NewUnauthorizedError()
	}

	session, err := s.sessionRepo.FindByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return nil, model.NewUnauthorizedError()
	}

	user, err := s.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		// 外部キー制約があるため通常は到達しない
		return nil, model.NewUnauthorizedError()
	}

	if user.AccountLocked {
		return nil, model.NewAccountLockedError()
	}

	s.auditor.Record(ctx, &user.ID, model.AuditAuthSuccess, meta, "")

	return user.Identity(), nil
}

// createSession はセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, userID int64) (*model.Session, error) {
	token, err := generateSessionToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	session := &model.Session{
		UserID:    userID,
		Token:     token,
		ExpiresAt: time.Now().Add(s.config.SessionTTL),
		CreatedAt: time.Now(),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// generateSessionToken は暗号的に安全なセッショントークンを生成する。
func generateSessionToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

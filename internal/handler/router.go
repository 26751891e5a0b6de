package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hamada/nefuda/internal/middleware"
)

// HealthChecker はヘルスチェックでの疎通確認に使用するインターフェース。
// *sql.DB がそのまま満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Authenticator     middleware.Authenticator
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// 運用エンドポイント
	HealthChecker  HealthChecker
	MetricsHandler http.Handler
	HTTPMetrics    middleware.HTTPStatusRecorder

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// 仕入先・商品・価格
	SupplierService  SupplierServiceInterface
	ProductService   ProductServiceInterface
	PriceService     PriceServiceInterface
	DashboardService DashboardServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORS → Recovery → RequestID → Logging → SecurityHeaders
//	→ （保護ルートのみ）Session → RateLimit(General)
//
// /api/login には未認証リクエスト向けのIP単位レート制限を適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewRequestIDMiddleware())
	if deps.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	}
	if deps.HTTPMetrics != nil {
		r.Use(middleware.NewHTTPMetricsMiddleware(deps.HTTPMetrics))
	}
	r.Use(middleware.NewSecurityHeadersMiddleware())

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	supplierHandler := NewSupplierHandler(deps.SupplierService)
	productHandler := NewProductHandler(deps.ProductService)
	priceHandler := NewPriceHandler(deps.PriceService)
	dashboardHandler := NewDashboardHandler(deps.DashboardService)

	// --- 運用エンドポイント ---

	r.Get("/health", newHealthHandler(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// --- 認証不要のルート ---

	r.Post("/api/register", authHandler.Register)
	// ログインはブルートフォース対策としてIP単位のレート制限を追加
	r.With(deps.RateLimiter.LoginMiddleware()).Post("/api/login", authHandler.Login)
	r.Post("/api/logout", authHandler.Logout)

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.Authenticator))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Get("/api/me", authHandler.Me)

		// 仕入先管理
		r.Route("/api/suppliers", func(r chi.Router) {
			r.Get("/", supplierHandler.ListSuppliers)
			r.Post("/", supplierHandler.CreateSupplier)
		})

		// 商品管理
		r.Route("/api/products", func(r chi.Router) {
			r.Get("/", productHandler.ListProducts)
			r.Post("/", productHandler.CreateProduct)

			// GET /api/products/{id}/prices - 商品ごとの価格履歴
			r.Get("/{id}/prices", priceHandler.ListProductPrices)
		})

		// 価格記録
		r.Post("/api/prices", priceHandler.RecordPrice)

		// ダッシュボード
		r.Get("/api/dashboard", dashboardHandler.GetDashboard)
	})

	return r
}

// newHealthHandler はDB疎通を確認するヘルスチェックハンドラーを返す。
func newHealthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
			defer cancel()
			if err := checker.PingContext(ctx); err != nil {
				slog.Error("health check failed", slog.String("error", err.Error()))
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

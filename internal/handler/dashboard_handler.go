package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hamada/nefuda/internal/middleware"
	"github.com/hamada/nefuda/internal/model"
)

// DashboardServiceInterface はダッシュボードハンドラーが必要とするサービスインターフェース。
type DashboardServiceInterface interface {
	Dashboard(ctx context.Context, userID int64) (*model.DashboardStats, error)
}

// DashboardHandler はダッシュボードのHTTPハンドラー。
type DashboardHandler struct {
	service DashboardServiceInterface
}

// NewDashboardHandler はDashboardHandlerを生成する。
func NewDashboardHandler(service DashboardServiceInterface) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// bestDealResponse は商品ごとの最安仕入先のレスポンス。
type bestDealResponse struct {
	ProductID    int64   `json:"productId"`
	ProductName  string  `json:"productName"`
	SupplierID   int64   `json:"supplierId"`
	SupplierName string  `json:"supplierName"`
	UnitPrice    float64 `json:"unitPrice"`
	RecordedAt   string  `json:"recordedAt"`
}

// dashboardResponse はダッシュボード集計のレスポンス。
type dashboardResponse struct {
	TotalProducts  int                   `json:"totalProducts"`
	TotalSuppliers int                   `json:"totalSuppliers"`
	BestDeals      []bestDealResponse    `json:"bestDeals"`
	RecentActivity []priceDetailResponse `json:"recentActivity"`
}

// GetDashboard はダッシュボード集計を返す。
// GET /api/dashboard
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	stats, err := h.service.Dashboard(r.Context(), identity.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	deals := make([]bestDealResponse, 0, len(stats.BestDeals))
	for _, d := range stats.BestDeals {
		deals = append(deals, bestDealResponse{
			ProductID:    d.ProductID,
			ProductName:  d.ProductName,
			SupplierID:   d.SupplierID,
			SupplierName: d.SupplierName,
			UnitPrice:    d.UnitPrice,
			RecordedAt:   d.RecordedAt.Format(time.RFC3339),
		})
	}

	recent := make([]priceDetailResponse, 0, len(stats.RecentActivity))
	for i := range stats.RecentActivity {
		recent = append(recent, priceDetailResponse{
			priceResponse: toPriceResponse(&stats.RecentActivity[i].PriceRecord),
			ProductName:   stats.RecentActivity[i].ProductName,
			SupplierName:  stats.RecentActivity[i].SupplierName,
		})
	}

	writeJSON(w, http.StatusOK, dashboardResponse{
		TotalProducts:  stats.TotalProducts,
		TotalSuppliers: stats.TotalSuppliers,
		BestDeals:      deals,
		RecentActivity: recent,
	})
}

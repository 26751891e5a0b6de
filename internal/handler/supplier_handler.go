package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hamada/nefuda/internal/catalog"
	"github.com/hamada/nefuda/internal/middleware"
	"github.com/hamada/nefuda/internal/model"
)

// SupplierServiceInterface は仕入先ハンドラーが必要とするサービスインターフェース。
type SupplierServiceInterface interface {
	CreateSupplier(ctx context.Context, userID int64, input catalog.SupplierInput) (*model.Supplier, error)
	ListSuppliers(ctx context.Context, userID int64) ([]*model.Supplier, error)
}

// SupplierHandler は仕入先管理のHTTPハンドラー。
type SupplierHandler struct {
	service SupplierServiceInterface
}

// NewSupplierHandler はSupplierHandlerを生成する。
func NewSupplierHandler(service SupplierServiceInterface) *SupplierHandler {
	return &SupplierHandler{service: service}
}

// supplierRequest は仕入先登録リクエストのボディ。
type supplierRequest struct {
	Name          string `json:"name"`
	ContactPerson string `json:"contactPerson"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	Address       string `json:"address"`
	Notes         string `json:"notes"`
}

// supplierResponse は仕入先情報のAPIレスポンス。
type supplierResponse struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	ContactPerson string `json:"contactPerson"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	Address       string `json:"address"`
	Notes         string `json:"notes"`
	CreatedAt     string `json:"createdAt"`
}

func toSupplierResponse(s *model.Supplier) supplierResponse {
	return supplierResponse{
		ID:            s.ID,
		Name:          s.Name,
		ContactPerson: s.ContactPerson,
		Phone:         s.Phone,
		Email:         s.Email,
		Address:       s.Address,
		Notes:         s.Notes,
		CreatedAt:     s.CreatedAt.Format(time.RFC3339),
	}
}

// CreateSupplier は仕入先登録を処理する。
// POST /api/suppliers
func (h *SupplierHandler) CreateSupplier(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req supplierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	supplier, err := h.service.CreateSupplier(r.Context(), identity.ID, catalog.SupplierInput{
		Name:          req.Name,
		ContactPerson: req.ContactPerson,
		Phone:         req.Phone,
		Email:         req.Email,
		Address:       req.Address,
		Notes:         req.Notes,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toSupplierResponse(supplier))
}

// ListSuppliers は仕入先一覧を返す。
// GET /api/suppliers
func (h *SupplierHandler) ListSuppliers(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	suppliers, err := h.service.ListSuppliers(r.Context(), identity.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]supplierResponse, 0, len(suppliers))
	for _, s := range suppliers {
		resp = append(resp, toSupplierResponse(s))
	}
	writeJSON(w, http.StatusOK, resp)
}

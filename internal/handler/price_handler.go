package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hamada/nefuda/internal/catalog"
	"github.com/hamada/nefuda/internal/middleware"
	"github.com/hamada/nefuda/internal/model"
)

// PriceServiceInterface は価格ハンドラーが必要とするサービスインターフェース。
type PriceServiceInterface interface {
	RecordPrice(ctx context.Context, userID int64, input catalog.PriceInput) (*model.PriceRecord, error)
	ListProductPrices(ctx context.Context, userID, productID int64) ([]model.PriceRecordDetail, error)
}

// PriceHandler は価格記録のHTTPハンドラー。
type PriceHandler struct {
	service PriceServiceInterface
}

// NewPriceHandler はPriceHandlerを生成する。
func NewPriceHandler(service PriceServiceInterface) *PriceHandler {
	return &PriceHandler{service: service}
}

// priceRequest は価格記録リクエストのボディ。
type priceRequest struct {
	ProductID  int64   `json:"productId"`
	SupplierID int64   `json:"supplierId"`
	Price      float64 `json:"price"`
	Quantity   float64 `json:"quantity"`
	Notes      string  `json:"notes"`
}

// priceResponse は価格記録のAPIレスポンス。
type priceResponse struct {
	ID         int64   `json:"id"`
	ProductID  int64   `json:"productId"`
	SupplierID int64   `json:"supplierId"`
	Price      float64 `json:"price"`
	Quantity   float64 `json:"quantity"`
	UnitPrice  float64 `json:"unitPrice"`
	Notes      string  `json:"notes"`
	RecordedAt string  `json:"recordedAt"`
}

// priceDetailResponse は商品名・仕入先名を含む価格記録のレスポンス。
type priceDetailResponse struct {
	priceResponse
	ProductName  string `json:"productName"`
	SupplierName string `json:"supplierName"`
}

func toPriceResponse(p *model.PriceRecord) priceResponse {
	return priceResponse{
		ID:         p.ID,
		ProductID:  p.ProductID,
		SupplierID: p.SupplierID,
		Price:      p.Price,
		Quantity:   p.Quantity,
		UnitPrice:  p.UnitPrice,
		Notes:      p.Notes,
		RecordedAt: p.RecordedAt.Format(time.RFC3339),
	}
}

// RecordPrice は価格記録を処理する。
// POST /api/prices
func (h *PriceHandler) RecordPrice(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req priceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	record, err := h.service.RecordPrice(r.Context(), identity.ID, catalog.PriceInput{
		ProductID:  req.ProductID,
		SupplierID: req.SupplierID,
		Price:      req.Price,
		Quantity:   req.Quantity,
		Notes:      req.Notes,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toPriceResponse(record))
}

// ListProductPrices は指定商品の価格履歴を返す。
// GET /api/products/{id}/prices
func (h *PriceHandler) ListProductPrices(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	productID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("商品IDが不正です。"))
		return
	}

	details, err := h.service.ListProductPrices(r.Context(), identity.ID, productID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]priceDetailResponse, 0, len(details))
	for i := range details {
		resp = append(resp, priceDetailResponse{
			priceResponse: toPriceResponse(&details[i].PriceRecord),
			ProductName:   details[i].ProductName,
			SupplierName:  details[i].SupplierName,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

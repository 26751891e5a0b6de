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

// ProductServiceInterface は商品ハンドラーが必要とするサービスインターフェース。
type ProductServiceInterface interface {
	CreateProduct(ctx context.Context, userID int64, input catalog.ProductInput) (*model.Product, error)
	ListProducts(ctx context.Context, userID int64) ([]*model.Product, error)
}

// ProductHandler は商品管理のHTTPハンドラー。
type ProductHandler struct {
	service ProductServiceInterface
}

// NewProductHandler はProductHandlerを生成する。
func NewProductHandler(service ProductServiceInterface) *ProductHandler {
	return &ProductHandler{service: service}
}

// productRequest は商品登録リクエストのボディ。
type productRequest struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Brand       string `json:"brand"`
	Unit        string `json:"unit"`
	Barcode     string `json:"barcode"`
	Description string `json:"description"`
}

// productResponse は商品情報のAPIレスポンス。
type productResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Brand       string `json:"brand"`
	Unit        string `json:"unit"`
	Barcode     string `json:"barcode"`
	Description string `json:"description"`
	CreatedAt   string `json:"createdAt"`
}

func toProductResponse(p *model.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Category:    p.Category,
		Brand:       p.Brand,
		Unit:        p.Unit,
		Barcode:     p.Barcode,
		Description: p.Description,
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
	}
}

// CreateProduct は商品登録を処理する。
// POST /api/products
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	product, err := h.service.CreateProduct(r.Context(), identity.ID, catalog.ProductInput{
		Name:        req.Name,
		Category:    req.Category,
		Brand:       req.Brand,
		Unit:        req.Unit,
		Barcode:     req.Barcode,
		Description: req.Description,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toProductResponse(product))
}

// ListProducts は商品一覧を返す。
// GET /api/products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	products, err := h.service.ListProducts(r.Context(), identity.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]productResponse, 0, len(products))
	for _, p := range products {
		resp = append(resp, toProductResponse(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Package catalog は仕入先・商品・価格履歴の管理機能を提供する。
//
// すべての操作はログイン中ユーザーのIDをキーに行われ、
// 他ユーザーのデータには一切アクセスできない（マルチテナント分離）。
package catalog

import (
	"context"
	"fmt"

	"github.com/hamada/nefuda/internal/model"
	"github.com/hamada/nefuda/internal/repository"
	"github.com/hamada/nefuda/internal/security"
)

// ダッシュボード集計の件数上限。
const (
	bestDealsLimit      = 5
	recentActivityLimit = 10
)

// SupplierInput は仕入先登録の入力。
type SupplierInput struct {
	Name          string
	ContactPerson string
	Phone         string
	Email         string
	Address       string
	Notes         string
}

// ProductInput は商品登録の入力。
type ProductInput struct {
	Name        string
	Category    string
	Brand       string
	Unit        string
	Barcode     string
	Description string
}

// PriceInput は価格記録の入力。
// Quantityが0の場合は1として扱う（単品価格）。
type PriceInput struct {
	ProductID  int64
	SupplierID int64
	Price      float64
	Quantity   float64
	Notes      string
}

// Service は仕入先・商品・価格履歴の管理サービス。
type Service struct {
	supplierRepo repository.SupplierRepository
	productRepo  repository.ProductRepository
	priceRepo    repository.PriceRepository
	sanitizer    security.TextSanitizerService
}

// NewService はServiceを生成する。
func NewService(
	supplierRepo repository.SupplierRepository,
	productRepo repository.ProductRepository,
	priceRepo repository.PriceRepository,
	sanitizer security.TextSanitizerService,
) *Service {
	return &Service{
		supplierRepo: supplierRepo,
		productRepo:  productRepo,
		priceRepo:    priceRepo,
		sanitizer:    sanitizer,
	}
}

// CreateSupplier は仕入先を登録する。
// 自由記述フィールドは保存前にサニタイズされる。
func (s *Service) CreateSupplier(ctx context.Context, userID int64, input SupplierInput) (*model.Supplier, error) {
	name := s.sanitizer.Sanitize(input.Name)
	if name == "" {
		return nil, model.NewValidationError("仕入先名は必須です。")
	}

	supplier := &model.Supplier{
		UserID:        userID,
		Name:          name,
		ContactPerson: s.sanitizer.Sanitize(input.ContactPerson),
		Phone:         s.sanitizer.Sanitize(input.Phone),
		Email:         s.sanitizer.Sanitize(input.Email),
		Address:       s.sanitizer.Sanitize(input.Address),
		Notes:         s.sanitizer.Sanitize(input.Notes),
	}

	id, err := s.supplierRepo.Create(ctx, supplier)
	if err != nil {
		return nil, fmt.Errorf("failed to create supplier: %w", err)
	}
	supplier.ID = id

	return supplier, nil
}

// ListSuppliers はユーザーの仕入先一覧を名前順で返す。
func (s *Service) ListSuppliers(ctx context.Context, userID int64) ([]*model.Supplier, error) {
	suppliers, err := s.supplierRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list suppliers: %w", err)
	}
	return suppliers, nil
}

// CreateProduct は商品を登録する。
func (s *Service) CreateProduct(ctx context.Context, userID int64, input ProductInput) (*model.Product, error) {
	name := s.sanitizer.Sanitize(input.Name)
	if name == "" {
		return nil, model.NewValidationError("商品名は必須です。")
	}

	product := &model.Product{
		UserID:      userID,
		Name:        name,
		Category:    s.sanitizer.Sanitize(input.Category),
		Brand:       s.sanitizer.Sanitize(input.Brand),
		Unit:        s.sanitizer.Sanitize(input.Unit),
		Barcode:     s.sanitizer.Sanitize(input.Barcode),
		Description: s.sanitizer.Sanitize(input.Description),
	}

	id, err := s.productRepo.Create(ctx, product)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	product.ID = id

	return product, nil
}

// ListProducts はユーザーの商品一覧を名前順で返す。
func (s *Service) ListProducts(ctx context.Context, userID int64) ([]*model.Product, error) {
	products, err := s.productRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// RecordPrice は価格記録を登録する。
// 商品と仕入先の双方がリクエストユーザーの所有であることを確認し、
// 単価（価格÷数量）を計算して永続化する。
func (s *Service) RecordPrice(ctx context.Context, userID int64, input PriceInput) (*model.PriceRecord, error) {
	if input.Price <= 0 {
		return nil, model.NewValidationError("価格は0より大きい値を指定してください。")
	}

	quantity := input.Quantity
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 0 {
		return nil, model.NewValidationError("数量は0より大きい値を指定してください。")
	}

	// 所有権の確認。他ユーザーのリソースは存在しないものとして扱う。
	if err := s.ensureProductOwned(ctx, userID, input.ProductID); err != nil {
		return nil, err
	}
	supplier, err := s.supplierRepo.FindByID(ctx, input.SupplierID)
	if err != nil {
		return nil, fmt.Errorf("failed to find supplier: %w", err)
	}
	if supplier == nil || supplier.UserID != userID {
		return nil, model.NewSupplierNotFoundError(input.SupplierID)
	}

	record := &model.PriceRecord{
		ProductID:  input.ProductID,
		SupplierID: input.SupplierID,
		Price:      input.Price,
		Quantity:   quantity,
		UnitPrice:  input.Price / quantity,
		Notes:      s.sanitizer.Sanitize(input.Notes),
	}

	id, err := s.priceRepo.Create(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("failed to create price record: %w", err)
	}
	record.ID = id

	return record, nil
}

// ListProductPrices は指定商品の価格履歴を記録日時の降順で返す。
func (s *Service) ListProductPrices(ctx context.Context, userID, productID int64) ([]model.PriceRecordDetail, error) {
	if err := s.ensureProductOwned(ctx, userID, productID); err != nil {
		return nil, err
	}

	details, err := s.priceRepo.ListByProductID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list price history: %w", err)
	}
	return details, nil
}

// Dashboard はダッシュボードの集計結果を返す。
// 登録件数・商品ごとの最安仕入先・直近の記録をまとめる。
func (s *Service) Dashboard(ctx context.Context, userID int64) (*model.DashboardStats, error) {
	totalProducts, err := s.productRepo.CountByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	totalSuppliers, err := s.supplierRepo.CountByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count suppliers: %w", err)
	}

	bestDeals, err := s.priceRepo.BestDeals(ctx, userID, bestDealsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate best deals: %w", err)
	}

	recent, err := s.priceRepo.RecentActivity(ctx, userID, recentActivityLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent activity: %w", err)
	}

	return &model.DashboardStats{
		TotalProducts:  totalProducts,
		TotalSuppliers: totalSuppliers,
		BestDeals:      bestDeals,
		RecentActivity: recent,
	}, nil
}

// ensureProductOwned は商品が存在し、かつリクエストユーザーの所有であることを確認する。
func (s *Service) ensureProductOwned(ctx context.Context, userID, productID int64) error {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return fmt.Errorf("failed to find product: %w", err)
	}
	if product == nil || product.UserID != userID {
		return model.NewProductNotFoundError(productID)
	}
	return nil
}

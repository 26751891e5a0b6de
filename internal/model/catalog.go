// Package model はドメインモデルを定義する。
package model

import "time"

// Supplier は仕入先を表す。店舗オーナーごとに管理される。
type Supplier struct {
	ID            int64
	UserID        int64
	Name          string
	ContactPerson string
	Phone         string
	Email         string
	Address       string
	Notes         string
	CreatedAt     time.Time
}

// Product は取扱商品を表す。
type Product struct {
	ID          int64
	UserID      int64
	Name        string
	Category    string
	Brand       string
	Unit        string
	Barcode     string
	Description string
	CreatedAt   time.Time
}

// PriceRecord は仕入先から提示された商品価格の記録を表す。
// UnitPriceは記録時にPrice/Quantityで計算して永続化する。
type PriceRecord struct {
	ID         int64
	ProductID  int64
	SupplierID int64
	Price      float64
	Quantity   float64
	UnitPrice  float64
	Notes      string
	RecordedAt time.Time
}

// PriceRecordDetail は価格記録に商品名・仕入先名を結合したビュー。
type PriceRecordDetail struct {
	PriceRecord
	ProductName  string
	SupplierName string
}

// BestDeal は商品ごとの現時点での最安仕入先を表す。
type BestDeal struct {
	ProductID    int64
	ProductName  string
	SupplierID   int64
	SupplierName string
	UnitPrice    float64
	RecordedAt   time.Time
}

// DashboardStats はダッシュボードの集計結果を表す。
type DashboardStats struct {
	TotalProducts  int
	TotalSuppliers int
	BestDeals      []BestDeal
	RecentActivity []PriceRecordDetail
}

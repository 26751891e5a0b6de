package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hamada/nefuda/internal/model"
)

// PostgresPriceRepo はPostgreSQLを使用した価格履歴リポジトリ。
type PostgresPriceRepo struct {
	db *sql.DB
}

// NewPostgresPriceRepo はPostgresPriceRepoを生成する。
func NewPostgresPriceRepo(db *sql.DB) *PostgresPriceRepo {
	return &PostgresPriceRepo{db: db}
}

// Create は価格記録を作成し、採番されたIDを返す。
func (r *PostgresPriceRepo) Create(ctx context.Context, record *model.PriceRecord) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO price_history (product_id, supplier_id, price, quantity, unit_price, notes)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		record.ProductID, record.SupplierID, record.Price,
		record.Quantity, record.UnitPrice, record.Notes,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert price record: %w", err)
	}
	return id, nil
}

const priceDetailColumns = `ph.id, ph.product_id, ph.supplier_id, ph.price, ph.quantity,
	 ph.unit_price, ph.notes, ph.recorded_at, p.name, s.name`

// scanPriceDetails はJOIN済みの行をPriceRecordDetailのスライスに読み込む。
func scanPriceDetails(rows *sql.Rows) ([]model.PriceRecordDetail, error) {
	var details []model.PriceRecordDetail
	for rows.Next() {
		var d model.PriceRecordDetail
		if err := rows.Scan(
			&d.ID, &d.ProductID, &d.SupplierID, &d.Price, &d.Quantity,
			&d.UnitPrice, &d.Notes, &d.RecordedAt, &d.ProductName, &d.SupplierName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan price record: %w", err)
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate price records: %w", err)
	}
	return details, nil
}

// ListByProductID は指定商品の価格履歴を記録日時の降順で返す。
func (r *PostgresPriceRepo) ListByProductID(ctx context.Context, productID int64) ([]model.PriceRecordDetail, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+priceDetailColumns+`
		 FROM price_history ph
		 JOIN products p ON ph.product_id = p.id
		 JOIN suppliers s ON ph.supplier_id = s.id
		 WHERE ph.product_id = $1
		 ORDER BY ph.recorded_at DESC`,
		productID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list price records: %w", err)
	}
	defer rows.Close()

	return scanPriceDetails(rows)
}

// BestDeals はユーザーの商品ごとに最安の仕入単価を記録した仕入先を返す。
// DISTINCT ONで商品ごとに1行へ絞り込む。
func (r *PostgresPriceRepo) BestDeals(ctx context.Context, userID int64, limit int) ([]model.BestDeal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT ON (p.id)
		     p.id, p.name, s.id, s.name, ph.unit_price, ph.recorded_at
		 FROM price_history ph
		 JOIN products p ON ph.product_id = p.id
		 JOIN suppliers s ON ph.supplier_id = s.id
		 WHERE p.user_id = $1
		 ORDER BY p.id, ph.unit_price ASC, ph.recorded_at DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query best deals: %w", err)
	}
	defer rows.Close()

	var deals []model.BestDeal
	for rows.Next() {
		var d model.BestDeal
		if err := rows.Scan(&d.ProductID, &d.ProductName, &d.SupplierID, &d.SupplierName, &d.UnitPrice, &d.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan best deal: %w", err)
		}
		deals = append(deals, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate best deals: %w", err)
	}
	return deals, nil
}

// RecentActivity はユーザーの直近の価格記録を記録日時の降順で返す。
func (r *PostgresPriceRepo) RecentActivity(ctx context.Context, userID int64, limit int) ([]model.PriceRecordDetail, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+priceDetailColumns+`
		 FROM price_history ph
		 JOIN products p ON ph.product_id = p.id
		 JOIN suppliers s ON ph.supplier_id = s.id
		 WHERE p.user_id = $1
		 ORDER BY ph.recorded_at DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent activity: %w", err)
	}
	defer rows.Close()

	return scanPriceDetails(rows)
}

// compile-time interface check
var _ PriceRepository = (*PostgresPriceRepo)(nil)

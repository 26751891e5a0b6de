package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hamada/nefuda/internal/model"
)

// PostgresProductRepo はPostgreSQLを使用した商品リポジトリ。
type PostgresProductRepo struct {
	db *sql.DB
}

// NewPostgresProductRepo はPostgresProductRepoを生成する。
func NewPostgresProductRepo(db *sql.DB) *PostgresProductRepo {
	return &PostgresProductRepo{db: db}
}

// Create は商品を作成し、採番されたIDを返す。
func (r *PostgresProductRepo) Create(ctx context.Context, product *model.Product) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO products (user_id, name, category, brand, unit, barcode, description)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		product.UserID, product.Name, product.Category,
		product.Brand, product.Unit, product.Barcode, product.Description,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert product: %w", err)
	}
	return id, nil
}

// FindByID は指定IDの商品を取得する。見つからない場合はnilを返す。
func (r *PostgresProductRepo) FindByID(ctx context.Context, id int64) (*model.Product, error) {
	p := &model.Product{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, category, brand, unit, barcode, description, created_at
		 FROM products WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.UserID, &p.Name, &p.Category, &p.Brand, &p.Unit, &p.Barcode, &p.Description, &p.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	return p, nil
}

// ListByUserID はユーザーの商品一覧を名前順で返す。
func (r *PostgresProductRepo) ListByUserID(ctx context.Context, userID int64) ([]*model.Product, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, category, brand, unit, barcode, description, created_at
		 FROM products WHERE user_id = $1 ORDER BY name`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []*model.Product
	for rows.Next() {
		p := &model.Product{}
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.Category, &p.Brand, &p.Unit, &p.Barcode, &p.Description, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}
	return products, nil
}

// CountByUserID はユーザーの商品数を返す。
func (r *PostgresProductRepo) CountByUserID(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM products WHERE user_id = $1`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}

// compile-time interface check
var _ ProductRepository = (*PostgresProductRepo)(nil)

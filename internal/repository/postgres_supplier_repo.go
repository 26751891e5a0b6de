package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hamada/nefuda/internal/model"
)

// PostgresSupplierRepo はPostgreSQLを使用した仕入先リポジトリ。
type PostgresSupplierRepo struct {
	db *sql.DB
}

// NewPostgresSupplierRepo はPostgresSupplierRepoを生成する。
func NewPostgresSupplierRepo(db *sql.DB) *PostgresSupplierRepo {
	return &PostgresSupplierRepo{db: db}
}

// Create は仕入先を作成し、採番されたIDを返す。
func (r *PostgresSupplierRepo) Create(ctx context.Context, supplier *model.Supplier) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO suppliers (user_id, name, contact_person, phone, email, address, notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		supplier.UserID, supplier.Name, supplier.ContactPerson,
		supplier.Phone, supplier.Email, supplier.Address, supplier.Notes,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert supplier: %w", err)
	}
	return id, nil
}

// FindByID は指定IDの仕入先を取得する。見つからない場合はnilを返す。
func (r *PostgresSupplierRepo) FindByID(ctx context.Context, id int64) (*model.Supplier, error) {
	s := &model.Supplier{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, contact_person, phone, email, address, notes, created_at
		 FROM suppliers WHERE id = $1`,
		id,
	).Scan(&s.ID, &s.UserID, &s.Name, &s.ContactPerson, &s.Phone, &s.Email, &s.Address, &s.Notes, &s.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find supplier: %w", err)
	}
	return s, nil
}

// ListByUserID はユーザーの仕入先一覧を名前順で返す。
func (r *PostgresSupplierRepo) ListByUserID(ctx context.Context, userID int64) ([]*model.Supplier, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, contact_person, phone, email, address, notes, created_at
		 FROM suppliers WHERE user_id = $1 ORDER BY name`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list suppliers: %w", err)
	}
	defer rows.Close()

	var suppliers []*model.Supplier
	for rows.Next() {
		s := &model.Supplier{}
		if err := rows.Scan(&s.ID, &s.UserID, &s.Name, &s.ContactPerson, &s.Phone, &s.Email, &s.Address, &s.Notes, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan supplier: %w", err)
		}
		suppliers = append(suppliers, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate suppliers: %w", err)
	}
	return suppliers, nil
}

// CountByUserID はユーザーの仕入先数を返す。
func (r *PostgresSupplierRepo) CountByUserID(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM suppliers WHERE user_id = $1`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count suppliers: %w", err)
	}
	return count, nil
}

// compile-time interface check
var _ SupplierRepository = (*PostgresSupplierRepo)(nil)

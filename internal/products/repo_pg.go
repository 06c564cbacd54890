package products

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// GetByID returns a product by ID.
func (r *PGRepo) GetByID(ctx context.Context, productID string) (Product, error) {
	const query = `
SELECT id, name, min_amount, max_amount, min_term_months, max_term_months, base_rate, required_document_types, active, created_at
FROM products
WHERE id = $1
LIMIT 1`
	p, err := scanProduct(r.DB.QueryRowContext(ctx, query, productID))
	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return p, err
}

// List returns all active products.
func (r *PGRepo) List(ctx context.Context) ([]Product, error) {
	const query = `
SELECT id, name, min_amount, max_amount, min_term_months, max_term_months, base_rate, required_document_types, active, created_at
FROM products
WHERE active
ORDER BY id ASC`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Put inserts or replaces a product.
func (r *PGRepo) Put(ctx context.Context, p Product) error {
	const query = `
INSERT INTO products (id, name, min_amount, max_amount, min_term_months, max_term_months, base_rate, required_document_types, active, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (id) DO UPDATE
SET name = EXCLUDED.name,
    min_amount = EXCLUDED.min_amount,
    max_amount = EXCLUDED.max_amount,
    min_term_months = EXCLUDED.min_term_months,
    max_term_months = EXCLUDED.max_term_months,
    base_rate = EXCLUDED.base_rate,
    required_document_types = EXCLUDED.required_document_types,
    active = EXCLUDED.active`
	types, err := json.Marshal(p.RequiredDocumentTypes)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query,
		p.ID, p.Name, p.MinAmount, p.MaxAmount, p.MinTermMonths, p.MaxTermMonths, p.BaseRate, types, p.Active, p.CreatedAt,
	)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (Product, error) {
	var p Product
	var types []byte
	if err := row.Scan(&p.ID, &p.Name, &p.MinAmount, &p.MaxAmount, &p.MinTermMonths, &p.MaxTermMonths, &p.BaseRate, &types, &p.Active, &p.CreatedAt); err != nil {
		return Product{}, err
	}
	if len(types) > 0 {
		if err := json.Unmarshal(types, &p.RequiredDocumentTypes); err != nil {
			return Product{}, fmt.Errorf("decode required document types: %w", err)
		}
	}
	return p, nil
}

var _ Repo = (*PGRepo)(nil)

package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/wawi_bi/internal/models"
)

// ProductRepository handles data access for dim_product.
type ProductRepository struct {
	db *sqlx.DB
}

// NewProductRepository creates a new ProductRepository.
func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// Upsert inserts a product or overwrites sku, name and ref_cost. ref_cost is
// WaWi-owned, so a NULL purchase price clears it.
func (r *ProductRepository) Upsert(ctx context.Context, p *models.Product) error {
	const q = `
        INSERT INTO dim_product (product_id, sku, name, ref_cost)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (product_id) DO UPDATE SET
            sku = EXCLUDED.sku,
            name = EXCLUDED.name,
            ref_cost = EXCLUDED.ref_cost`

	_, err := r.db.ExecContext(ctx, q, p.ProductID, p.SKU, p.Name, p.RefCost)
	return err
}

// ListIDs returns the identifiers of every product in the BI store.
func (r *ProductRepository) ListIDs(ctx context.Context) ([]int64, error) {
	const q = `SELECT product_id FROM dim_product ORDER BY product_id`

	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, q); err != nil {
		return nil, err
	}
	return ids, nil
}

package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/wawi_bi/internal/models"
)

// SalesRepository handles data access for fact_sales.
type SalesRepository struct {
	db *sqlx.DB
}

// NewSalesRepository creates a new SalesRepository.
func NewSalesRepository(db *sqlx.DB) *SalesRepository {
	return &SalesRepository{db: db}
}

// Upsert inserts a sales fact with NULL act_price/act_cost, or refreshes
// product, platform, date and quantity. act_price and act_cost are never
// part of the update set.
func (r *SalesRepository) Upsert(ctx context.Context, f *models.SalesFact) error {
	const q = `
        INSERT INTO fact_sales (sale_id, product_id, platform_id, "date", quantity, act_price, act_cost)
        VALUES ($1, $2, $3, $4, $5, NULL, NULL)
        ON CONFLICT (sale_id) DO UPDATE SET
            product_id = EXCLUDED.product_id,
            platform_id = EXCLUDED.platform_id,
            "date" = EXCLUDED."date",
            quantity = EXCLUDED.quantity`

	_, err := r.db.ExecContext(ctx, q, f.SaleID, f.ProductID, f.PlatformID, f.Date, f.Quantity)
	return err
}

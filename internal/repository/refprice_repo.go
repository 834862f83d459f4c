package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// RefPriceRepository handles data access for product_refprice.
type RefPriceRepository struct {
	db *sqlx.DB
}

// NewRefPriceRepository creates a new RefPriceRepository.
func NewRefPriceRepository(db *sqlx.DB) *RefPriceRepository {
	return &RefPriceRepository{db: db}
}

// EnsureMatrix inserts a placeholder row for every (product, platform) pair
// that does not exist yet, in a single statement. Existing rows, including
// their ref_price, are never touched. It returns the number of rows inserted.
func (r *RefPriceRepository) EnsureMatrix(ctx context.Context, productIDs, platformIDs []int64) (int64, error) {
	if len(productIDs) == 0 || len(platformIDs) == 0 {
		return 0, nil
	}

	const q = `
        INSERT INTO product_refprice (product_id, platform_id)
        SELECT p.id, pl.id
        FROM unnest($1::bigint[]) AS p(id)
        CROSS JOIN unnest($2::bigint[]) AS pl(id)
        ON CONFLICT (product_id, platform_id) DO NOTHING`

	res, err := r.db.ExecContext(ctx, q, pq.Array(productIDs), pq.Array(platformIDs))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

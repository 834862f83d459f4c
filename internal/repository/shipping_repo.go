package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/wawi_bi/internal/models"
)

// ShippingRepository handles data access for fact_shipping.
type ShippingRepository struct {
	db *sqlx.DB
}

// NewShippingRepository creates a new ShippingRepository.
func NewShippingRepository(db *sqlx.DB) *ShippingRepository {
	return &ShippingRepository{db: db}
}

// Upsert inserts a shipping fact or refreshes supplier and timestamps.
// ship_cost keeps any existing non-NULL value and is only filled while NULL.
func (r *ShippingRepository) Upsert(ctx context.Context, f *models.ShippingFact) error {
	const q = `
        INSERT INTO fact_shipping (order_id, supplier_name, order_ts, arrival_ts, ship_cost)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (order_id) DO UPDATE SET
            supplier_name = EXCLUDED.supplier_name,
            order_ts = EXCLUDED.order_ts,
            arrival_ts = EXCLUDED.arrival_ts,
            ship_cost = COALESCE(fact_shipping.ship_cost, EXCLUDED.ship_cost)`

	_, err := r.db.ExecContext(ctx, q, f.OrderID, f.SupplierName, f.OrderTS, f.ArrivalTS, f.ShipCost)
	return err
}

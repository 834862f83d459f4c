package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/wawi_bi/internal/models"
)

// WawiRepository is the read-only connector to the WaWi operational schema.
// Queries are written in MySQL bind syntax and rebound for the driver in use,
// so the same connector reads a MySQL WaWi or a PostgreSQL copy of it.
// Identifiers are left unquoted; PostgreSQL copies must use unquoted (folded)
// column names.
type WawiRepository struct {
	db              *sqlx.DB
	completedStatus string
}

// NewWawiRepository creates a new WawiRepository. completedStatus is the
// bestellung.Status value marking an order as received.
func NewWawiRepository(db *sqlx.DB, completedStatus string) *WawiRepository {
	return &WawiRepository{db: db, completedStatus: completedStatus}
}

// ListPlatforms returns all sales platforms.
func (r *WawiRepository) ListPlatforms(ctx context.Context) ([]models.WawiPlatform, error) {
	const q = `SELECT platform_id_sale, name FROM plattform_verkauf ORDER BY platform_id_sale`

	var platforms []models.WawiPlatform
	if err := r.db.SelectContext(ctx, &platforms, q); err != nil {
		return nil, err
	}
	return platforms, nil
}

// ListProducts returns every material, active or not. Filtering is left to
// the caller so skipped materials can be counted.
func (r *WawiRepository) ListProducts(ctx context.Context) ([]models.WawiProduct, error) {
	const q = `
        SELECT MatID   AS mat_id,
               Name    AS name,
               SKU     AS sku,
               EKPreis AS purchase_price,
               Active  AS active
        FROM material
        ORDER BY MatID`

	var products []models.WawiProduct
	if err := r.db.SelectContext(ctx, &products, q); err != nil {
		return nil, err
	}
	return products, nil
}

// ListCompletedOrders returns completed purchase orders with their supplier name.
func (r *WawiRepository) ListCompletedOrders(ctx context.Context) ([]models.WawiOrder, error) {
	q := r.db.Rebind(`
        SELECT b.BestellID          AS order_id,
               b.Bestelldatum       AS ordered_at,
               b.EingangZeitStempel AS arrived_at,
               l.Name               AS supplier_name
        FROM bestellung b
        JOIN lieferant l ON l.LiefID = b.LiefID
        WHERE b.Status = ?
        ORDER BY b.BestellID`)

	var orders []models.WawiOrder
	if err := r.db.SelectContext(ctx, &orders, q, r.completedStatus); err != nil {
		return nil, err
	}
	return orders, nil
}

// ListSales returns all sales line items.
func (r *WawiRepository) ListSales(ctx context.Context) ([]models.WawiSale, error) {
	const q = `
        SELECT VerkID AS sale_id,
               MatID  AS mat_id,
               platform_id_sale,
               ts     AS sold_at,
               Menge  AS quantity
        FROM verkauf
        ORDER BY VerkID`

	var sales []models.WawiSale
	if err := r.db.SelectContext(ctx, &sales, q); err != nil {
		return nil, err
	}
	return sales, nil
}

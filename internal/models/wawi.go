package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// WawiPlatform is a sales platform row from plattform_verkauf.
type WawiPlatform struct {
	PlatformID int64  `db:"platform_id_sale" json:"platformId"`
	Name       string `db:"name" json:"name"`
}

// WawiProduct is a material row. Active is nil when the WaWi column is NULL.
type WawiProduct struct {
	MatID         int64               `db:"mat_id" json:"matId"`
	Name          string              `db:"name" json:"name"`
	SKU           string              `db:"sku" json:"sku"`
	PurchasePrice decimal.NullDecimal `db:"purchase_price" json:"purchasePrice"`
	Active        *bool               `db:"active" json:"active,omitempty"`
}

// IsActive reports whether the material should be projected into the BI store.
// Only an explicit false excludes a material.
func (p *WawiProduct) IsActive() bool {
	return p.Active == nil || *p.Active
}

// WawiOrder is a completed purchase order (bestellung) joined with its supplier.
type WawiOrder struct {
	OrderID      int64      `db:"order_id" json:"orderId"`
	OrderedAt    time.Time  `db:"ordered_at" json:"orderedAt"`
	ArrivedAt    *time.Time `db:"arrived_at" json:"arrivedAt,omitempty"`
	SupplierName string     `db:"supplier_name" json:"supplierName"`
}

// WawiSale is a single sales line item (verkauf).
type WawiSale struct {
	SaleID     int64     `db:"sale_id" json:"saleId"`
	MatID      int64     `db:"mat_id" json:"matId"`
	PlatformID int64     `db:"platform_id_sale" json:"platformId"`
	SoldAt     time.Time `db:"sold_at" json:"soldAt"`
	Quantity   int       `db:"quantity" json:"quantity"`
}

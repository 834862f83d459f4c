package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Platform is a row of dim_platform. PlatformID shares its identifier space
// with WaWi's platform_id_sale.
type Platform struct {
	PlatformID int64  `db:"platform_id" json:"platformId"`
	Name       string `db:"name" json:"name"`
}

// Product is a row of dim_product. ProductID equals the WaWi MatID.
type Product struct {
	ProductID int64               `db:"product_id" json:"productId"`
	SKU       string              `db:"sku" json:"sku"`
	Name      string              `db:"name" json:"name"`
	RefCost   decimal.NullDecimal `db:"ref_cost" json:"refCost"`
}

// RefPrice is a row of product_refprice. RefPrice is owned by BI users.
type RefPrice struct {
	ProductID  int64               `db:"product_id" json:"productId"`
	PlatformID int64               `db:"platform_id" json:"platformId"`
	RefPrice   decimal.NullDecimal `db:"ref_price" json:"refPrice"`
}

// ShippingFact is a row of fact_shipping. ShipCost is curated on the BI side
// and only ever filled while NULL.
type ShippingFact struct {
	OrderID      int64               `db:"order_id" json:"orderId"`
	SupplierName string              `db:"supplier_name" json:"supplierName"`
	OrderTS      time.Time           `db:"order_ts" json:"orderTs"`
	ArrivalTS    *time.Time          `db:"arrival_ts" json:"arrivalTs,omitempty"`
	ShipCost     decimal.NullDecimal `db:"ship_cost" json:"shipCost"`
}

// SalesFact is a row of fact_sales. ActPrice and ActCost are curated on the
// BI side and never written after insert.
type SalesFact struct {
	SaleID     int64               `db:"sale_id" json:"saleId"`
	ProductID  int64               `db:"product_id" json:"productId"`
	PlatformID int64               `db:"platform_id" json:"platformId"`
	Date       time.Time           `db:"date" json:"date"`
	Quantity   int                 `db:"quantity" json:"quantity"`
	ActPrice   decimal.NullDecimal `db:"act_price" json:"actPrice"`
	ActCost    decimal.NullDecimal `db:"act_cost" json:"actCost"`
}

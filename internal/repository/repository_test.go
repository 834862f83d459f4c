package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/wawi_bi/internal/models"
)

// newMockDB creates a postgres-flavoured sqlx.DB backed by sqlmock.
func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	return newMockDBFor(t, "postgres")
}

// newMockDBFor creates a sqlx.DB backed by sqlmock that binds like driverName.
func newMockDBFor(t *testing.T, driverName string) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })
	return sqlx.NewDb(mockDB, driverName), mock
}

func TestWawiRepository_ListPlatforms(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewWawiRepository(db, "abgeschlossen")

	rows := sqlmock.NewRows([]string{"platform_id_sale", "name"}).
		AddRow(1, "Amazon").
		AddRow(2, "eBay")
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT platform_id_sale, name FROM plattform_verkauf`)).
		WillReturnRows(rows)

	platforms, err := repo.ListPlatforms(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []models.WawiPlatform{{PlatformID: 1, Name: "Amazon"}, {PlatformID: 2, Name: "eBay"}}, platforms)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWawiRepository_ListProducts_NullableColumns(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewWawiRepository(db, "abgeschlossen")

	rows := sqlmock.NewRows([]string{"mat_id", "name", "sku", "purchase_price", "active"}).
		AddRow(10, "Widget", "W-10", "4.20", int64(1)).
		AddRow(11, "Gadget", "G-11", nil, int64(0)).
		AddRow(12, "Gizmo", "Z-12", "1.00", nil)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM material`)).WillReturnRows(rows)

	products, err := repo.ListProducts(context.Background())

	require.NoError(t, err)
	require.Len(t, products, 3)

	assert.True(t, products[0].PurchasePrice.Valid)
	assert.True(t, products[0].PurchasePrice.Decimal.Equal(decimal.RequireFromString("4.20")))
	assert.True(t, products[0].IsActive())

	assert.False(t, products[1].PurchasePrice.Valid)
	assert.False(t, products[1].IsActive())

	assert.Nil(t, products[2].Active)
	assert.True(t, products[2].IsActive())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWawiRepository_ListCompletedOrders_FiltersByStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewWawiRepository(db, "abgeschlossen")

	ordered := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"order_id", "ordered_at", "arrived_at", "supplier_name"}).
		AddRow(100, ordered, nil, "ACME")
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE b.Status = $1`)).
		WithArgs("abgeschlossen").
		WillReturnRows(rows)

	orders, err := repo.ListCompletedOrders(context.Background())

	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, int64(100), orders[0].OrderID)
	assert.Equal(t, ordered, orders[0].OrderedAt)
	assert.Nil(t, orders[0].ArrivedAt)
	assert.Equal(t, "ACME", orders[0].SupplierName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWawiRepository_ListCompletedOrders_MySQLBindVars(t *testing.T) {
	db, mock := newMockDBFor(t, "mysql")
	repo := NewWawiRepository(db, "abgeschlossen")

	arrived := time.Date(2025, 3, 4, 15, 30, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"order_id", "ordered_at", "arrived_at", "supplier_name"}).
		AddRow(101, arrived.Add(-72*time.Hour), arrived, "ACME")
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE b.Status = ?`)).
		WithArgs("abgeschlossen").
		WillReturnRows(rows)

	orders, err := repo.ListCompletedOrders(context.Background())

	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.NotNil(t, orders[0].ArrivedAt)
	assert.Equal(t, arrived, *orders[0].ArrivedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWawiRepository_ListProducts_MySQLDecimalBytes(t *testing.T) {
	db, mock := newMockDBFor(t, "mysql")
	repo := NewWawiRepository(db, "abgeschlossen")

	// go-sql-driver/mysql returns DECIMAL columns as []byte.
	rows := sqlmock.NewRows([]string{"mat_id", "name", "sku", "purchase_price", "active"}).
		AddRow(10, "Widget", "W-10", []byte("4.20"), int64(1))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM material`)).WillReturnRows(rows)

	products, err := repo.ListProducts(context.Background())

	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.True(t, products[0].PurchasePrice.Decimal.Equal(decimal.RequireFromString("4.20")))
	assert.True(t, products[0].IsActive())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWawiRepository_ListSales_Error(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewWawiRepository(db, "abgeschlossen")

	mock.ExpectQuery(regexp.QuoteMeta(`FROM verkauf`)).WillReturnError(errors.New("connection refused"))

	sales, err := repo.ListSales(context.Background())

	assert.Nil(t, sales)
	assert.EqualError(t, err, "connection refused")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlatformRepository_Upsert(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPlatformRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`ON CONFLICT (platform_id) DO UPDATE SET name = EXCLUDED.name`)).
		WithArgs(int64(1), "Amazon").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Upsert(context.Background(), &models.Platform{PlatformID: 1, Name: "Amazon"})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlatformRepository_List(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPlatformRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT platform_id, name FROM dim_platform`)).
		WillReturnRows(sqlmock.NewRows([]string{"platform_id", "name"}).AddRow(3, "Shop"))

	platforms, err := repo.List(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []models.Platform{{PlatformID: 3, Name: "Shop"}}, platforms)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Upsert_OverwritesRefCost(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db)

	cost := decimal.NewNullDecimal(decimal.RequireFromString("3.50"))
	mock.ExpectExec(regexp.QuoteMeta(`ref_cost = EXCLUDED.ref_cost`)).
		WithArgs(int64(10), "W-10", "Widget", cost).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Upsert(context.Background(), &models.Product{ProductID: 10, SKU: "W-10", Name: "Widget", RefCost: cost})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_ListIDs(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT product_id FROM dim_product`)).
		WillReturnRows(sqlmock.NewRows([]string{"product_id"}).AddRow(10).AddRow(12))

	ids, err := repo.ListIDs(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []int64{10, 12}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefPriceRepository_EnsureMatrix(t *testing.T) {
	t.Run("single bulk insert with conflict ignore", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewRefPriceRepository(db)

		mock.ExpectExec(regexp.QuoteMeta(`CROSS JOIN unnest($2::bigint[]) AS pl(id) ON CONFLICT (product_id, platform_id) DO NOTHING`)).
			WithArgs("{10,11}", "{1,2}").
			WillReturnResult(sqlmock.NewResult(0, 3))

		inserted, err := repo.EnsureMatrix(context.Background(), []int64{10, 11}, []int64{1, 2})

		require.NoError(t, err)
		assert.Equal(t, int64(3), inserted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty side is a no-op", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewRefPriceRepository(db)

		inserted, err := repo.EnsureMatrix(context.Background(), []int64{10}, nil)

		require.NoError(t, err)
		assert.Zero(t, inserted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestShippingRepository_Upsert_FillOnceCost(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewShippingRepository(db)

	orderTS := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	arrivalTS := time.Date(2025, 3, 4, 15, 30, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta(`ship_cost = COALESCE(fact_shipping.ship_cost, EXCLUDED.ship_cost)`)).
		WithArgs(int64(100), "ACME", orderTS, arrivalTS, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Upsert(context.Background(), &models.ShippingFact{
		OrderID:      100,
		SupplierName: "ACME",
		OrderTS:      orderTS,
		ArrivalTS:    &arrivalTS,
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSalesRepository_Upsert_NeverUpdatesCuratedFields(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSalesRepository(db)

	soldAt := time.Date(2025, 3, 2, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta(`VALUES ($1, $2, $3, $4, $5, NULL, NULL) ON CONFLICT (sale_id) DO UPDATE SET product_id = EXCLUDED.product_id, platform_id = EXCLUDED.platform_id, "date" = EXCLUDED."date", quantity = EXCLUDED.quantity`)).
		WithArgs(int64(500), int64(10), int64(1), soldAt, 3).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Upsert(context.Background(), &models.SalesFact{
		SaleID:     500,
		ProductID:  10,
		PlatformID: 1,
		Date:       soldAt,
		Quantity:   3,
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

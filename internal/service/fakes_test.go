package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/GTDGit/wawi_bi/internal/models"
)

// fakeWawi is an in-memory WaWi source.
type fakeWawi struct {
	platforms []models.WawiPlatform
	products  []models.WawiProduct
	orders    []models.WawiOrder
	sales     []models.WawiSale

	errPlatforms error
	errProducts  error
	errOrders    error
	errSales     error
}

func (f *fakeWawi) ListPlatforms(ctx context.Context) ([]models.WawiPlatform, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]models.WawiPlatform(nil), f.platforms...), f.errPlatforms
}

func (f *fakeWawi) ListProducts(ctx context.Context) ([]models.WawiProduct, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]models.WawiProduct(nil), f.products...), f.errProducts
}

func (f *fakeWawi) ListCompletedOrders(ctx context.Context) ([]models.WawiOrder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]models.WawiOrder(nil), f.orders...), f.errOrders
}

func (f *fakeWawi) ListSales(ctx context.Context) ([]models.WawiSale, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]models.WawiSale(nil), f.sales...), f.errSales
}

type refPriceKey struct {
	productID  int64
	platformID int64
}

// fakeBI is an in-memory BI store reproducing the conflict clauses of the
// SQL repositories.
type fakeBI struct {
	mu        sync.Mutex
	platforms map[int64]models.Platform
	products  map[int64]models.Product
	refPrices map[refPriceKey]models.RefPrice
	shipping  map[int64]models.ShippingFact
	sales     map[int64]models.SalesFact

	errPlatformUpsert error
	errShippingUpsert error
	errSalesUpsert    error
	errMatrix         error
	matrixCalls       int

	// beforeShippingUpsert runs after the context check of each shipping upsert.
	beforeShippingUpsert func()
}

func newFakeBI() *fakeBI {
	return &fakeBI{
		platforms: make(map[int64]models.Platform),
		products:  make(map[int64]models.Product),
		refPrices: make(map[refPriceKey]models.RefPrice),
		shipping:  make(map[int64]models.ShippingFact),
		sales:     make(map[int64]models.SalesFact),
	}
}

type fakePlatforms struct{ *fakeBI }

func (f fakePlatforms) Upsert(ctx context.Context, p *models.Platform) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.errPlatformUpsert != nil {
		return f.errPlatformUpsert
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.platforms[p.PlatformID] = *p
	return nil
}

func (f fakePlatforms) List(ctx context.Context) ([]models.Platform, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Platform, 0, len(f.platforms))
	for _, p := range f.platforms {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlatformID < out[j].PlatformID })
	return out, nil
}

type fakeProducts struct{ *fakeBI }

func (f fakeProducts) Upsert(ctx context.Context, p *models.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.products[p.ProductID] = *p
	return nil
}

func (f fakeProducts) ListIDs(ctx context.Context) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]int64, 0, len(f.products))
	for id := range f.products {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

type fakeRefPrices struct{ *fakeBI }

func (f fakeRefPrices) EnsureMatrix(ctx context.Context, productIDs, platformIDs []int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if f.errMatrix != nil {
		return 0, f.errMatrix
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.matrixCalls++
	var inserted int64
	for _, pid := range productIDs {
		for _, plid := range platformIDs {
			key := refPriceKey{pid, plid}
			if _, ok := f.refPrices[key]; ok {
				continue
			}
			f.refPrices[key] = models.RefPrice{ProductID: pid, PlatformID: plid}
			inserted++
		}
	}
	return inserted, nil
}

type fakeShipping struct{ *fakeBI }

func (f fakeShipping) Upsert(ctx context.Context, s *models.ShippingFact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.beforeShippingUpsert != nil {
		f.beforeShippingUpsert()
	}
	if f.errShippingUpsert != nil {
		return f.errShippingUpsert
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	next := *s
	if existing, ok := f.shipping[s.OrderID]; ok && existing.ShipCost.Valid {
		next.ShipCost = existing.ShipCost
	}
	f.shipping[s.OrderID] = next
	return nil
}

type fakeSales struct{ *fakeBI }

func (f fakeSales) Upsert(ctx context.Context, s *models.SalesFact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.errSalesUpsert != nil {
		return f.errSalesUpsert
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	next := *s
	if existing, ok := f.sales[s.SaleID]; ok {
		next.ActPrice = existing.ActPrice
		next.ActCost = existing.ActCost
	} else {
		next.ActPrice = decimal.NullDecimal{}
		next.ActCost = decimal.NullDecimal{}
	}
	f.sales[s.SaleID] = next
	return nil
}

// biSnapshot is a comparable copy of the BI store.
type biSnapshot struct {
	Platforms map[int64]models.Platform
	Products  map[int64]models.Product
	RefPrices map[refPriceKey]models.RefPrice
	Shipping  map[int64]models.ShippingFact
	Sales     map[int64]models.SalesFact
}

func (f *fakeBI) snapshot() biSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := biSnapshot{
		Platforms: make(map[int64]models.Platform, len(f.platforms)),
		Products:  make(map[int64]models.Product, len(f.products)),
		RefPrices: make(map[refPriceKey]models.RefPrice, len(f.refPrices)),
		Shipping:  make(map[int64]models.ShippingFact, len(f.shipping)),
		Sales:     make(map[int64]models.SalesFact, len(f.sales)),
	}
	for k, v := range f.platforms {
		s.Platforms[k] = v
	}
	for k, v := range f.products {
		s.Products[k] = v
	}
	for k, v := range f.refPrices {
		s.RefPrices[k] = v
	}
	for k, v := range f.shipping {
		s.Shipping[k] = v
	}
	for k, v := range f.sales {
		s.Sales[k] = v
	}
	return s
}

func (f *fakeBI) deps(src SourceReader) SyncDeps {
	return SyncDeps{
		Source:    src,
		Platforms: fakePlatforms{f},
		Products:  fakeProducts{f},
		RefPrices: fakeRefPrices{f},
		Shipping:  fakeShipping{f},
		Sales:     fakeSales{f},
	}
}

type fakePinger struct{ err error }

func (p fakePinger) PingContext(ctx context.Context) error { return p.err }

type recordingPublisher struct {
	reports []*models.SyncReport
	err     error
}

func (p *recordingPublisher) PublishReport(ctx context.Context, r *models.SyncReport) error {
	p.reports = append(p.reports, r)
	return p.err
}

func boolPtr(b bool) *bool { return &b }

func timePtr(t time.Time) *time.Time { return &t }

func money(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

// baseTime is the reference instant for fixtures.
var baseTime = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

// newFixtureWawi returns a WaWi with platforms {1,2}, products {10,11}
// active and 12 inactive, one completed order and three sales.
func newFixtureWawi() *fakeWawi {
	return &fakeWawi{
		platforms: []models.WawiPlatform{
			{PlatformID: 1, Name: "Amazon"},
			{PlatformID: 2, Name: "eBay"},
		},
		products: []models.WawiProduct{
			{MatID: 10, Name: "Widget", SKU: "W-10", PurchasePrice: money("4.20"), Active: boolPtr(true)},
			{MatID: 11, Name: "Gadget", SKU: "G-11"},
			{MatID: 12, Name: "Retired", SKU: "R-12", PurchasePrice: money("1.00"), Active: boolPtr(false)},
		},
		orders: []models.WawiOrder{
			{OrderID: 100, OrderedAt: baseTime, SupplierName: "ACME"},
		},
		sales: []models.WawiSale{
			{SaleID: 500, MatID: 10, PlatformID: 1, SoldAt: baseTime.Add(time.Hour), Quantity: 2},
			{SaleID: 501, MatID: 11, PlatformID: 2, SoldAt: baseTime.Add(2 * time.Hour), Quantity: 1},
			{SaleID: 502, MatID: 10, PlatformID: 2, SoldAt: baseTime.Add(3 * time.Hour), Quantity: 5},
		},
	}
}

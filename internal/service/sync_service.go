package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/wawi_bi/internal/metrics"
	"github.com/GTDGit/wawi_bi/internal/models"
	"github.com/GTDGit/wawi_bi/internal/utils"
)

// SourceReader is the read-only WaWi connector.
type SourceReader interface {
	ListPlatforms(ctx context.Context) ([]models.WawiPlatform, error)
	ListProducts(ctx context.Context) ([]models.WawiProduct, error)
	ListCompletedOrders(ctx context.Context) ([]models.WawiOrder, error)
	ListSales(ctx context.Context) ([]models.WawiSale, error)
}

// PlatformStore writes dim_platform.
type PlatformStore interface {
	Upsert(ctx context.Context, p *models.Platform) error
	List(ctx context.Context) ([]models.Platform, error)
}

// ProductStore writes dim_product.
type ProductStore interface {
	Upsert(ctx context.Context, p *models.Product) error
	ListIDs(ctx context.Context) ([]int64, error)
}

// RefPriceStore writes product_refprice.
type RefPriceStore interface {
	EnsureMatrix(ctx context.Context, productIDs, platformIDs []int64) (int64, error)
}

// ShippingStore writes fact_shipping.
type ShippingStore interface {
	Upsert(ctx context.Context, f *models.ShippingFact) error
}

// SalesStore writes fact_sales.
type SalesStore interface {
	Upsert(ctx context.Context, f *models.SalesFact) error
}

// Pinger checks that a store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// ReportPublisher receives every finished run report.
type ReportPublisher interface {
	PublishReport(ctx context.Context, report *models.SyncReport) error
}

// SyncDeps wires the sync to the WaWi connector and the BI tables.
// SourceDB and TargetDB are optional; when set they are pinged before a run.
type SyncDeps struct {
	Source    SourceReader
	Platforms PlatformStore
	Products  ProductStore
	RefPrices RefPriceStore
	Shipping  ShippingStore
	Sales     SalesStore

	SourceDB Pinger
	TargetDB Pinger
}

// SyncService mirrors WaWi operational data into the BI star schema.
// Every write is a single idempotent statement, so overlapping runs are safe
// without locking and a cancelled run is resumed by the next one.
type SyncService struct {
	deps       SyncDeps
	publishers []ReportPublisher
	now        func() time.Time
}

// NewSyncService constructs a SyncService.
func NewSyncService(deps SyncDeps, publishers ...ReportPublisher) *SyncService {
	return &SyncService{deps: deps, publishers: publishers, now: time.Now}
}

// syncRun carries state between the steps of a single run.
type syncRun struct {
	logger      zerolog.Logger
	platformMap *PlatformMap
	productIDs  []int64
	completed   map[models.SyncStep]bool
	abort       error
	abortedBy   models.SyncStep
}

type stepFunc func(ctx context.Context, run *syncRun, res *models.StepResult) error

type stepDef struct {
	step     models.SyncStep
	requires []models.SyncStep
	run      stepFunc
}

func (s *SyncService) steps() []stepDef {
	return []stepDef{
		{step: models.StepPlatforms, run: s.syncPlatforms},
		{step: models.StepProducts, run: s.syncProducts},
		{step: models.StepRefPrices, requires: []models.SyncStep{models.StepPlatforms, models.StepProducts}, run: s.syncRefPrices},
		{step: models.StepShipping, run: s.syncShipping},
		{step: models.StepSales, requires: []models.SyncStep{models.StepPlatforms}, run: s.syncSales},
	}
}

// Run executes platforms, products, refprice, shipping and sales in order.
// A failed step does not stop later steps unless they depend on it; a lost
// connection or a cancelled context aborts everything that follows. The
// report is always returned; the error is a *SyncError when any step did
// not complete.
func (s *SyncService) Run(ctx context.Context) (*models.SyncReport, error) {
	report := &models.SyncReport{
		RunID:     uuid.NewString(),
		StartedAt: s.now(),
	}
	run := &syncRun{
		logger:    log.With().Str("run_id", report.RunID).Logger(),
		completed: make(map[models.SyncStep]bool, len(models.SyncSteps)),
	}
	run.logger.Info().Msg("Starting WaWi to BI sync")

	syncErr := &SyncError{RunID: report.RunID}
	if err := s.preflight(ctx); err != nil {
		syncErr.Cause = err
		run.abort = err
		run.logger.Error().Err(err).Msg("Sync preflight failed")
	}

	for _, def := range s.steps() {
		res := models.StepResult{Step: def.step}
		if stepErr := s.runStep(ctx, run, def, &res); stepErr != nil {
			res.Error = stepErr.Err.Error()
			syncErr.Steps = append(syncErr.Steps, stepErr)
			metrics.RecordStep(&res, utils.ErrorType(stepErr.Err))
		} else {
			run.completed[def.step] = true
			metrics.RecordStep(&res, "")
		}
		logStep(run.logger, &res)
		report.Steps = append(report.Steps, res)
	}

	summarize(report)
	report.FinishedAt = s.now()

	var runErr error
	if syncErr.Cause != nil || len(syncErr.Steps) > 0 {
		runErr = syncErr
		report.Error = syncErr.Error()
	}
	report.Success = runErr == nil

	if runErr != nil {
		run.logger.Error().Err(runErr).Dur("duration", report.FinishedAt.Sub(report.StartedAt)).Msg("Synchronization failed")
	} else {
		run.logger.Info().
			Int("platforms", report.PlatformsSynced).
			Int("products", report.ProductsSynced).
			Int("refprices_added", report.RefPricesAdded).
			Int("shipping", report.ShippingSynced).
			Int("sales", report.SalesSynced).
			Int("sales_skipped", report.SalesSkipped).
			Dur("duration", report.FinishedAt.Sub(report.StartedAt)).
			Msg("Synchronization completed successfully")
	}

	metrics.RecordRun(report)
	s.publish(ctx, run.logger, report)
	return report, runErr
}

func (s *SyncService) runStep(ctx context.Context, run *syncRun, def stepDef, res *models.StepResult) *StepError {
	if run.abort != nil {
		res.Status = models.StepStatusSkipped
		cause := fmt.Errorf("%w before start", utils.ErrRunAborted)
		if run.abortedBy != "" {
			cause = fmt.Errorf("%w after %s step failed", utils.ErrRunAborted, run.abortedBy)
		}
		return &StepError{Step: def.step, Skipped: true, Err: cause}
	}
	for _, dep := range def.requires {
		if !run.completed[dep] {
			res.Status = models.StepStatusSkipped
			return &StepError{Step: def.step, Skipped: true, Err: fmt.Errorf("%w: requires %s", utils.ErrStepDependency, dep)}
		}
	}

	start := s.now()
	err := def.run(ctx, run, res)
	res.Duration = s.now().Sub(start)
	if err != nil {
		res.Status = models.StepStatusFailed
		// A driver may report an interrupted statement without wrapping the
		// context error, so the context itself is checked as well.
		if isFatal(err) || ctx.Err() != nil {
			run.abort = err
			run.abortedBy = def.step
		}
		return &StepError{Step: def.step, Err: err}
	}
	res.Status = models.StepStatusSuccess
	return nil
}

func (s *SyncService) preflight(ctx context.Context) error {
	if s.deps.SourceDB != nil {
		if err := s.deps.SourceDB.PingContext(ctx); err != nil {
			return fmt.Errorf("ping wawi: %w: %w", utils.ErrSourceUnavailable, err)
		}
	}
	if s.deps.TargetDB != nil {
		if err := s.deps.TargetDB.PingContext(ctx); err != nil {
			return fmt.Errorf("ping bi: %w: %w", utils.ErrTargetUnavailable, err)
		}
	}
	return nil
}

// syncPlatforms upserts every WaWi platform and builds the platform map from
// the BI state read back afterwards.
func (s *SyncService) syncPlatforms(ctx context.Context, run *syncRun, res *models.StepResult) error {
	platforms, err := s.deps.Source.ListPlatforms(ctx)
	if err != nil {
		return sourceErr("read wawi platforms", err)
	}

	for i := range platforms {
		p := &platforms[i]
		if err := s.deps.Platforms.Upsert(ctx, &models.Platform{PlatformID: p.PlatformID, Name: p.Name}); err != nil {
			return targetErr(fmt.Sprintf("upsert platform %d", p.PlatformID), err)
		}
		res.Count++
	}

	target, err := s.deps.Platforms.List(ctx)
	if err != nil {
		return targetErr("read bi platforms", err)
	}
	run.platformMap = NewPlatformMap(platforms, target)
	if missing := run.platformMap.Missing(); len(missing) > 0 {
		run.logger.Warn().Ints64("platform_ids", missing).Msg("WaWi platforms missing from dim_platform")
	}
	return nil
}

// syncProducts upserts active materials. Inactive materials are neither
// inserted nor updated, even when an older row exists.
func (s *SyncService) syncProducts(ctx context.Context, run *syncRun, res *models.StepResult) error {
	products, err := s.deps.Source.ListProducts(ctx)
	if err != nil {
		return sourceErr("read wawi products", err)
	}

	ids := make([]int64, 0, len(products))
	for i := range products {
		p := &products[i]
		if !p.IsActive() {
			skip(res, models.SkipInactiveProduct)
			run.logger.Debug().Int64("mat_id", p.MatID).Msg("Skipping inactive product")
			continue
		}
		product := &models.Product{
			ProductID: p.MatID,
			SKU:       p.SKU,
			Name:      p.Name,
			RefCost:   p.PurchasePrice,
		}
		if err := s.deps.Products.Upsert(ctx, product); err != nil {
			return targetErr(fmt.Sprintf("upsert product %d", p.MatID), err)
		}
		ids = append(ids, p.MatID)
		res.Count++
	}
	run.productIDs = ids
	return nil
}

// syncRefPrices ensures a product_refprice row for every synced product and
// every BI platform. Count is the number of rows newly inserted.
func (s *SyncService) syncRefPrices(ctx context.Context, run *syncRun, res *models.StepResult) error {
	inserted, err := s.deps.RefPrices.EnsureMatrix(ctx, run.productIDs, run.platformMap.TargetIDs())
	if err != nil {
		return targetErr("ensure refprice matrix", err)
	}
	res.Count = int(inserted)
	return nil
}

// syncShipping upserts completed WaWi orders. No cost is computed here, so a
// NULL ship_cost stays NULL until someone curates it.
func (s *SyncService) syncShipping(ctx context.Context, run *syncRun, res *models.StepResult) error {
	orders, err := s.deps.Source.ListCompletedOrders(ctx)
	if err != nil {
		return sourceErr("read wawi orders", err)
	}

	for i := range orders {
		o := &orders[i]
		fact := &models.ShippingFact{
			OrderID:      o.OrderID,
			SupplierName: o.SupplierName,
			OrderTS:      o.OrderedAt,
			ArrivalTS:    o.ArrivedAt,
		}
		if err := s.deps.Shipping.Upsert(ctx, fact); err != nil {
			return targetErr(fmt.Sprintf("upsert shipping %d", o.OrderID), err)
		}
		res.Count++
	}
	return nil
}

// syncSales upserts WaWi sales whose platform resolves through the platform
// map and whose material exists in dim_product. Other rows are skipped.
func (s *SyncService) syncSales(ctx context.Context, run *syncRun, res *models.StepResult) error {
	sales, err := s.deps.Source.ListSales(ctx)
	if err != nil {
		return sourceErr("read wawi sales", err)
	}
	productIDs, err := s.deps.Products.ListIDs(ctx)
	if err != nil {
		return targetErr("read bi products", err)
	}
	products := newProductSet(productIDs)

	for i := range sales {
		sale := &sales[i]
		platformID, ok := run.platformMap.Resolve(sale.PlatformID)
		if !ok {
			skip(res, models.SkipUnmappedPlatform)
			run.logger.Warn().Int64("sale_id", sale.SaleID).Int64("platform_id_sale", sale.PlatformID).Msg("Skipping sale with unmapped platform")
			continue
		}
		if !products.contains(sale.MatID) {
			skip(res, models.SkipUnknownProduct)
			run.logger.Warn().Int64("sale_id", sale.SaleID).Int64("mat_id", sale.MatID).Msg("Skipping sale with unknown product")
			continue
		}

		fact := &models.SalesFact{
			SaleID:     sale.SaleID,
			ProductID:  sale.MatID,
			PlatformID: platformID,
			Date:       sale.SoldAt,
			Quantity:   sale.Quantity,
		}
		if err := s.deps.Sales.Upsert(ctx, fact); err != nil {
			return targetErr(fmt.Sprintf("upsert sale %d", sale.SaleID), err)
		}
		res.Count++
	}
	return nil
}

func (s *SyncService) publish(ctx context.Context, logger zerolog.Logger, report *models.SyncReport) {
	if len(s.publishers) == 0 {
		return
	}
	// Publish even when the run itself was cancelled.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	for _, p := range s.publishers {
		if err := p.PublishReport(pubCtx, report); err != nil {
			logger.Warn().Err(err).Msg("Failed to publish sync report")
		}
	}
}

func skip(res *models.StepResult, reason models.SkipReason) {
	if res.Skipped == nil {
		res.Skipped = make(map[models.SkipReason]int)
	}
	res.Skipped[reason]++
}

func summarize(report *models.SyncReport) {
	for i := range report.Steps {
		st := &report.Steps[i]
		switch st.Step {
		case models.StepPlatforms:
			report.PlatformsSynced = st.Count
		case models.StepProducts:
			report.ProductsSynced = st.Count
		case models.StepRefPrices:
			report.RefPricesAdded = st.Count
		case models.StepShipping:
			report.ShippingSynced = st.Count
		case models.StepSales:
			report.SalesSynced = st.Count
			report.SalesSkipped = st.SkippedTotal()
		}
	}
}

func logStep(logger zerolog.Logger, res *models.StepResult) {
	switch res.Status {
	case models.StepStatusSuccess:
		logger.Info().
			Str("step", string(res.Step)).
			Int("count", res.Count).
			Int("skipped", res.SkippedTotal()).
			Dur("duration", res.Duration).
			Msg("Sync step completed")
	case models.StepStatusFailed:
		logger.Error().
			Str("step", string(res.Step)).
			Int("count", res.Count).
			Str("error", res.Error).
			Dur("duration", res.Duration).
			Msg("Sync step failed")
	default:
		logger.Warn().
			Str("step", string(res.Step)).
			Str("reason", res.Error).
			Msg("Sync step skipped")
	}
}

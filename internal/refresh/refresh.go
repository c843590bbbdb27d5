// Package refresh enqueues unattended rescans of all tracked products on a
// cron schedule.
package refresh

import (
	"context"

	"github.com/robfig/cron/v3"

	"github.com/jonesrussell/pricewatch/internal/database"
	"github.com/jonesrussell/pricewatch/internal/events"
	"github.com/jonesrussell/pricewatch/internal/logger"
)

// DefaultSchedule rescans every three hours, aligned with the scan core's
// recency guard.
const DefaultSchedule = "0 */3 * * *"

// Enqueuer is the scheduler surface the refresher needs.
type Enqueuer interface {
	EnqueueAutoScan(ctx context.Context, productID string) error
}

// Refresher drives periodic product rescans.
type Refresher struct {
	products database.ProductRepository
	enqueuer Enqueuer
	bus      events.Publisher
	log      logger.Interface
	cron     *cron.Cron
	schedule string
}

// New creates a refresher with the given cron schedule expression.
func New(
	products database.ProductRepository,
	enqueuer Enqueuer,
	bus events.Publisher,
	log logger.Interface,
	schedule string,
) *Refresher {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	return &Refresher{
		products: products,
		enqueuer: enqueuer,
		bus:      bus,
		log:      log.WithComponent("refresh"),
		cron:     cron.New(),
		schedule: schedule,
	}
}

// Start registers the refresh job and starts the cron runner.
func (r *Refresher) Start(ctx context.Context) error {
	_, err := r.cron.AddFunc(r.schedule, func() {
		r.RefreshAll(ctx)
	})
	if err != nil {
		return err
	}

	r.cron.Start()
	r.log.Info("auto refresh started", "schedule", r.schedule)
	return nil
}

// Stop halts the cron runner. Already enqueued scans are unaffected.
func (r *Refresher) Stop() {
	r.cron.Stop()
}

// RefreshAll enqueues an unattended scan for every tracked product and
// announces the batch size. Products scanned recently are skipped by the
// aggregator's recency guard, not here.
func (r *Refresher) RefreshAll(ctx context.Context) {
	products, err := r.products.List(ctx)
	if err != nil {
		r.log.Error("failed to list products for refresh", "error", err.Error())
		return
	}
	if len(products) == 0 {
		return
	}

	r.bus.PublishScanStarted(ctx, events.ScanStarted{Count: len(products)})

	for _, product := range products {
		if err := r.enqueuer.EnqueueAutoScan(ctx, product.ID); err != nil {
			r.log.Error("failed to enqueue refresh scan",
				"product_id", product.ID,
				"error", err.Error(),
			)
		}
	}
}

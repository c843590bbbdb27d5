// Package scheduler serializes scan jobs through a single-worker FIFO
// queue so at most one product scan runs system-wide at any time.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jonesrussell/pricewatch/internal/database"
	"github.com/jonesrussell/pricewatch/internal/domain"
	"github.com/jonesrussell/pricewatch/internal/events"
	"github.com/jonesrussell/pricewatch/internal/logger"
)

// defaultQueueSize bounds the number of queued jobs before enqueue blocks.
const defaultQueueSize = 256

// ErrStopped is returned when a scan is enqueued after disposal.
var ErrStopped = errors.New("scan scheduler stopped")

// ScanRunner executes the scan for one product. Implemented by
// scan.Aggregator.
type ScanRunner interface {
	ScanProduct(ctx context.Context, product *domain.Product, ignoreRecentGuard bool) error
}

// scanJob is one queued scan. Jobs are consumed exactly once and never
// retried automatically.
type scanJob struct {
	productID         string
	ignoreRecentGuard bool
}

// Scheduler owns the single scan worker. The worker starts at construction
// and stops on Stop.
type Scheduler struct {
	products database.ProductRepository
	runner   ScanRunner
	bus      events.Publisher
	log      logger.Interface

	jobs   chan scanJob
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	stopped bool
}

// New creates a scheduler and starts its worker.
func New(
	products database.ProductRepository,
	runner ScanRunner,
	bus events.Publisher,
	log logger.Interface,
) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		products: products,
		runner:   runner,
		bus:      bus,
		log:      log.WithComponent("scheduler"),
		jobs:     make(chan scanJob, defaultQueueSize),
		ctx:      ctx,
		cancel:   cancel,
	}

	s.wg.Add(1)
	go s.worker()

	return s
}

// EnqueueScan queues a manual scan for the product. Manual scans always
// run regardless of how recently the product was scanned. A missing
// product id is logged and dropped without creating a job or an event.
func (s *Scheduler) EnqueueScan(ctx context.Context, productID string) error {
	return s.enqueue(ctx, productID, true)
}

// EnqueueAutoScan queues an unattended scan that honors the recency guard.
func (s *Scheduler) EnqueueAutoScan(ctx context.Context, productID string) error {
	return s.enqueue(ctx, productID, false)
}

func (s *Scheduler) enqueue(ctx context.Context, productID string, ignoreRecentGuard bool) error {
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		if errors.Is(err, database.ErrProductNotFound) {
			s.log.Error("cannot enqueue scan, product not found", "product_id", productID)
			return nil
		}
		return fmt.Errorf("look up product %s: %w", productID, err)
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return ErrStopped
	}
	s.mu.Unlock()

	job := scanJob{productID: productID, ignoreRecentGuard: ignoreRecentGuard}

	select {
	case s.jobs <- job:
		return nil
	case <-s.ctx.Done():
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop disposes the scheduler: no further jobs are accepted, the worker is
// interrupted and waited for. A job already dequeued runs to completion or
// is abandoned at its next cancellation point; in-flight completion is not
// guaranteed.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}

// worker drains the queue in FIFO order, one job at a time. The jobs
// channel is never closed; cancellation is the only exit.
func (s *Scheduler) worker() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return
		case job := <-s.jobs:
			s.runJob(job)
		}
	}
}

// runJob executes one scan job. Faults (errors or panics) are converted
// into scan-failed events; the worker always proceeds to the next job.
func (s *Scheduler) runJob(job scanJob) {
	product, err := s.products.FindByID(s.ctx, job.productID)
	if err != nil {
		// Product deleted between enqueue and execution; the scan
		// fails harmlessly.
		s.log.Warn("product vanished before scan", "product_id", job.productID)
		return
	}

	s.bus.PublishScanStarted(s.ctx, events.ScanStarted{Product: product})

	defer func() {
		if r := recover(); r != nil {
			message := fmt.Sprintf("scan panic: %v", r)
			s.log.Error("scan job panicked",
				"product_id", product.ID,
				"panic", fmt.Sprintf("%v", r),
			)
			s.bus.PublishScanFailed(s.ctx, events.ScanFailed{Product: product, Message: message})
		}
	}()

	if scanErr := s.runner.ScanProduct(s.ctx, product, job.ignoreRecentGuard); scanErr != nil {
		s.log.Error("scan job failed",
			"product_id", product.ID,
			"error", scanErr.Error(),
		)
		s.bus.PublishScanFailed(s.ctx, events.ScanFailed{Product: product, Message: scanErr.Error()})
	}
}

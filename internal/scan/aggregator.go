// Package scan orchestrates a single product scan: recency guard, price
// seeking, lowest-price bookkeeping and event emission.
package scan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonesrussell/pricewatch/internal/database"
	"github.com/jonesrussell/pricewatch/internal/domain"
	"github.com/jonesrussell/pricewatch/internal/events"
	"github.com/jonesrussell/pricewatch/internal/logger"
	"github.com/jonesrussell/pricewatch/internal/seeker"
)

// FailureMessage is the generic message published when a scan yields no
// usable results.
const FailureMessage = "scan failed or no results retrieved"

// DefaultTooRecentWindow is how long after a completed scan unattended
// rescans are skipped.
const DefaultTooRecentWindow = 3 * time.Hour

// Seeker resolves current prices for a product. Implemented by
// seeker.Seeker.
type Seeker interface {
	Seek(ctx context.Context, product *domain.Product) ([]seeker.SourceResult, error)
}

// Config holds aggregator configuration.
type Config struct {
	// TooRecentWindow suppresses unattended rescans of products scanned
	// within this window. Manual scans always run.
	TooRecentWindow time.Duration `yaml:"too_recent_window"`
}

// WithDefaults returns a copy of the config with defaults applied.
func (c Config) WithDefaults() Config {
	if c.TooRecentWindow <= 0 {
		c.TooRecentWindow = DefaultTooRecentWindow
	}
	return c
}

// Aggregator runs the stateful part of a product scan.
type Aggregator struct {
	products database.ProductRepository
	agents   database.AgentRepository
	seeker   Seeker
	bus      events.Publisher
	log      logger.Interface
	cfg      Config

	// now is injected for tests.
	now func() time.Time
}

// NewAggregator creates an aggregator.
func NewAggregator(
	products database.ProductRepository,
	agents database.AgentRepository,
	seek Seeker,
	bus events.Publisher,
	log logger.Interface,
	cfg Config,
) *Aggregator {
	return &Aggregator{
		products: products,
		agents:   agents,
		seeker:   seek,
		bus:      bus,
		log:      log.WithComponent("scan"),
		cfg:      cfg.WithDefaults(),
		now:      time.Now,
	}
}

// ScanProduct scans one product. When ignoreRecentGuard is false and the
// product completed a scan within the configured window, the scan is
// skipped without touching state. An error return means the scan aborted
// with a fault; the caller reports it.
func (a *Aggregator) ScanProduct(ctx context.Context, product *domain.Product, ignoreRecentGuard bool) error {
	if !ignoreRecentGuard && a.tooRecent(product) {
		a.log.Debug("skipping scan, product scanned recently",
			"product_id", product.ID,
			"last_scanned", product.LastScannedAt(),
		)
		a.bus.PublishProductScanned(ctx, events.ProductScanned{Product: product, NewLowest: false})
		return nil
	}

	a.resolveAgents(ctx, product)

	results, err := a.seeker.Seek(ctx, product)
	if err != nil {
		return err
	}

	if len(results) == 0 {
		a.bus.PublishScanFailed(ctx, events.ScanFailed{Product: product, Message: FailureMessage})
		return nil
	}

	foundAt := a.now()
	recent := make([]domain.PriceRecord, 0, len(results))
	for _, result := range results {
		recent = append(recent, domain.PriceRecord{
			SourceID: result.SourceID,
			AgentID:  result.AgentID,
			Status:   result.Price.Status,
			Price:    result.Price.Price,
			FoundAt:  foundAt,
		})
	}

	// Full replace: old recent entries are discarded even for sources
	// absent from the new set.
	product.Recent = recent

	newLowest := a.updateLowest(product)

	if err := a.products.Store(ctx, product); err != nil {
		return fmt.Errorf("store product %s after scan: %w", product.ID, err)
	}

	a.bus.PublishProductScanned(ctx, events.ProductScanned{Product: product, NewLowest: newLowest})
	return nil
}

// tooRecent reports whether the product completed a scan inside the
// configured window.
func (a *Aggregator) tooRecent(product *domain.Product) bool {
	last := product.LastScannedAt()
	if last.IsZero() {
		return false
	}
	return a.now().Sub(last) < a.cfg.TooRecentWindow
}

// resolveAgents recomputes each source's agent association. Sources whose
// agent key no longer resolves keep a nil agent and are skipped by the
// seeker.
func (a *Aggregator) resolveAgents(ctx context.Context, product *domain.Product) {
	for i := range product.Sources {
		source := &product.Sources[i]
		agent, err := a.agents.FindByKey(ctx, source.AgentKey)
		if err != nil {
			if !errors.Is(err, database.ErrAgentNotFound) {
				a.log.Error("agent lookup failed",
					"agent_key", source.AgentKey,
					"error", err.Error(),
				)
			}
			source.Agent = nil
			continue
		}
		source.Agent = agent
	}
}

// updateLowest applies the lowest-price rule to the freshly replaced recent
// set. The reference moves on a tie so the found-at date reflects the
// latest observation, but only a strict drop reports a new lowest.
func (a *Aggregator) updateLowest(product *domain.Product) (newLowest bool) {
	var minRecord *domain.PriceRecord
	for i := range product.Recent {
		record := &product.Recent[i]
		if !record.Usable() {
			continue
		}
		if minRecord == nil || record.Price.LessThan(minRecord.Price) {
			minRecord = record
		}
	}
	if minRecord == nil {
		return false
	}

	switch {
	case product.Lowest == nil:
		record := *minRecord
		product.Lowest = &record
		return true
	case minRecord.Price.LessThanOrEqual(product.Lowest.Price):
		newLowest = minRecord.Price.LessThan(product.Lowest.Price)
		record := *minRecord
		product.Lowest = &record
		return newLowest
	default:
		return false
	}
}

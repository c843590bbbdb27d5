// Package seeker fans a product's sources out to the fetcher and the
// extraction engine and collects the usable prices.
package seeker

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jonesrussell/pricewatch/internal/domain"
	"github.com/jonesrussell/pricewatch/internal/extract"
	"github.com/jonesrussell/pricewatch/internal/logger"
)

// Fetcher downloads page content. Implemented by fetcher.Fetcher.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (content string, ok bool, err error)
}

// SourceResult is one usable per-source price.
type SourceResult struct {
	SourceID string
	AgentID  string
	Price    extract.Result
}

// Seeker resolves current prices for all sources of a product.
type Seeker struct {
	fetcher  Fetcher
	registry *extract.Registry
	dumps    *DumpWriter
	log      logger.Interface
}

// New creates a seeker.
func New(fetch Fetcher, registry *extract.Registry, dumps *DumpWriter, log logger.Interface) *Seeker {
	return &Seeker{
		fetcher:  fetch,
		registry: registry,
		dumps:    dumps,
		log:      log.WithComponent("seeker"),
	}
}

// Seek fetches and extracts a price for every source of product,
// concurrently. Sources that fail at any stage are absent from the result;
// a transport-level fetch error fails the whole seek. Result ordering is
// not defined.
func (s *Seeker) Seek(ctx context.Context, product *domain.Product) ([]SourceResult, error) {
	var (
		mu      sync.Mutex
		results []SourceResult
	)

	group, groupCtx := errgroup.WithContext(ctx)

	for i := range product.Sources {
		source := &product.Sources[i]

		group.Go(func() error {
			result, err := s.seekSource(groupCtx, source)
			if err != nil {
				return err
			}
			if result == nil {
				return nil
			}

			mu.Lock()
			results = append(results, *result)
			mu.Unlock()
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, fmt.Errorf("seek prices for product %s: %w", product.ID, err)
	}

	return results, nil
}

// seekSource resolves one source. A nil result with nil error means the
// source contributed no price this round.
func (s *Seeker) seekSource(ctx context.Context, source *domain.ProductSource) (*SourceResult, error) {
	agent := source.Agent
	if agent == nil {
		s.log.Error("source has no resolved agent",
			"source_id", source.ID,
			"agent_key", source.AgentKey,
		)
		return nil, nil
	}

	handler, err := s.registry.Get(agent.Handler)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", source.ID, err)
	}

	content, ok, err := s.fetcher.Fetch(ctx, agent.ResolveURL(source.Argument))
	if err != nil {
		return nil, err
	}
	if !ok {
		// The fetcher already logged why.
		return nil, nil
	}

	result := handler.Extract(agent.Pattern, content, agent.Delimiter())
	switch result.Status {
	case domain.StatusSuccess:
		return &SourceResult{
			SourceID: source.ID,
			AgentID:  agent.ID,
			Price:    result,
		}, nil
	case domain.StatusCouldNotMatch:
		// Keep the raw content around so a broken pattern can be
		// diagnosed against what the site actually served.
		if dumpErr := s.dumps.Write(source.ID, content); dumpErr != nil {
			s.log.Error("failed to write content dump",
				"source_id", source.ID,
				"error", dumpErr.Error(),
			)
		}
		s.log.Error("pattern did not match fetched content",
			"source_id", source.ID,
			"agent_key", source.AgentKey,
		)
		return nil, nil
	case domain.StatusCouldNotParse:
		s.log.Error("matched price did not parse",
			"source_id", source.ID,
			"agent_key", source.AgentKey,
		)
		return nil, nil
	case domain.StatusInvalidPrice:
		s.log.Warn("matched price was not positive",
			"source_id", source.ID,
			"agent_key", source.AgentKey,
		)
		return nil, nil
	default:
		return nil, nil
	}
}

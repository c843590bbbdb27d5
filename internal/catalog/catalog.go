// Package catalog implements the product and agent management commands
// that sit in front of the scan core.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jonesrussell/pricewatch/internal/database"
	"github.com/jonesrussell/pricewatch/internal/domain"
	"github.com/jonesrussell/pricewatch/internal/extract"
	"github.com/jonesrussell/pricewatch/internal/logger"
)

// ErrProductNameEmpty is returned when a product is created without a name.
var ErrProductNameEmpty = errors.New("product name must not be empty")

// Service provides product and agent commands.
type Service struct {
	products database.ProductRepository
	agents   database.AgentRepository
	registry *extract.Registry
	log      logger.Interface
}

// NewService creates a catalog service.
func NewService(
	products database.ProductRepository,
	agents database.AgentRepository,
	registry *extract.Registry,
	log logger.Interface,
) *Service {
	return &Service{
		products: products,
		agents:   agents,
		registry: registry,
		log:      log.WithComponent("catalog"),
	}
}

// CreateProduct persists a new product, assigning ids where absent.
func (s *Service) CreateProduct(ctx context.Context, product *domain.Product) error {
	if strings.TrimSpace(product.Name) == "" {
		return ErrProductNameEmpty
	}
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	for i := range product.Sources {
		if product.Sources[i].ID == "" {
			product.Sources[i].ID = uuid.New().String()
		}
	}

	if err := s.products.Store(ctx, product); err != nil {
		return fmt.Errorf("create product: %w", err)
	}

	s.log.Info("product created", "product_id", product.ID, "name", product.Name)
	return nil
}

// UpdateProduct persists changes to an existing product.
func (s *Service) UpdateProduct(ctx context.Context, product *domain.Product) error {
	if _, err := s.products.FindByID(ctx, product.ID); err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	for i := range product.Sources {
		if product.Sources[i].ID == "" {
			product.Sources[i].ID = uuid.New().String()
		}
	}

	if err := s.products.Store(ctx, product); err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

// DeleteProduct removes a product. An in-flight scan for it is allowed to
// fail harmlessly at its next repository access.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	s.log.Info("product deleted", "product_id", id)
	return nil
}

// OverwriteAgents replaces the agent set and reconciles all product
// sources against it: sources whose agent was renamed (same id, new key)
// are repointed, sources whose agent was removed are pruned. It returns
// the ids of products whose source list changed.
func (s *Service) OverwriteAgents(ctx context.Context, agents []domain.Agent) ([]string, error) {
	if err := s.validateAgents(agents); err != nil {
		return nil, err
	}

	previous, err := s.agents.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load existing agents: %w", err)
	}

	renamed, removed := diffAgents(previous, agents)

	if err := s.agents.Overwrite(ctx, agents); err != nil {
		return nil, fmt.Errorf("overwrite agents: %w", err)
	}

	affected, err := s.reconcileSources(ctx, renamed, removed)
	if err != nil {
		return nil, err
	}

	s.log.Info("agents overwritten",
		"agents", len(agents),
		"renamed_keys", len(renamed),
		"removed_keys", len(removed),
		"affected_products", len(affected),
	)
	return affected, nil
}

// validateAgents checks agent invariants, handler names and key
// uniqueness, assigning ids to new agents.
func (s *Service) validateAgents(agents []domain.Agent) error {
	seen := make(map[string]struct{}, len(agents))
	for i := range agents {
		agent := &agents[i]
		if err := agent.Validate(); err != nil {
			return err
		}
		if _, dup := seen[agent.Key]; dup {
			return fmt.Errorf("duplicate agent key %q", agent.Key)
		}
		seen[agent.Key] = struct{}{}

		// Unknown handlers are rejected here, at configuration time,
		// rather than at scan time.
		if _, err := s.registry.Get(agent.Handler); err != nil {
			return fmt.Errorf("agent %q: %w", agent.Key, err)
		}

		if agent.ID == "" {
			agent.ID = uuid.New().String()
		}
	}
	return nil
}

// diffAgents computes key renames (matched by agent id) and removals
// between the previous and new agent sets. A key whose agent id vanished
// but that a new agent took over is not a removal; sources referencing it
// still resolve after the overwrite.
func diffAgents(previous []*domain.Agent, next []domain.Agent) (renamed map[string]string, removed map[string]struct{}) {
	nextByID := make(map[string]*domain.Agent, len(next))
	nextKeys := make(map[string]struct{}, len(next))
	for i := range next {
		nextByID[next[i].ID] = &next[i]
		nextKeys[next[i].Key] = struct{}{}
	}

	renamed = make(map[string]string)
	removed = make(map[string]struct{})
	for _, old := range previous {
		replacement, stillThere := nextByID[old.ID]
		switch {
		case !stillThere:
			if _, taken := nextKeys[old.Key]; !taken {
				removed[old.Key] = struct{}{}
			}
		case replacement.Key != old.Key:
			renamed[old.Key] = replacement.Key
		}
	}
	return renamed, removed
}

// reconcileSources applies renames and removals to a snapshot of all
// products, storing only the ones that changed.
func (s *Service) reconcileSources(
	ctx context.Context,
	renamed map[string]string,
	removed map[string]struct{},
) ([]string, error) {
	if len(renamed) == 0 && len(removed) == 0 {
		return nil, nil
	}

	snapshot, err := s.products.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot products: %w", err)
	}

	var affected []string
	for _, product := range snapshot {
		changed := false
		kept := product.Sources[:0]
		for _, source := range product.Sources {
			if _, gone := removed[source.AgentKey]; gone {
				changed = true
				continue
			}
			if newKey, wasRenamed := renamed[source.AgentKey]; wasRenamed {
				source.AgentKey = newKey
				changed = true
			}
			kept = append(kept, source)
		}
		if !changed {
			continue
		}

		product.Sources = kept
		if err := s.products.Store(ctx, product); err != nil {
			return nil, fmt.Errorf("store reconciled product %s: %w", product.ID, err)
		}
		affected = append(affected, product.ID)
	}

	return affected, nil
}

package database

import (
	"context"
	"sync"
	"time"

	"github.com/jonesrussell/pricewatch/internal/domain"
)

// MemoryProductRepository is an in-memory ProductRepository used by tests
// and standalone runs without a database.
type MemoryProductRepository struct {
	mu       sync.RWMutex
	products map[string]*domain.Product
}

var _ ProductRepository = (*MemoryProductRepository)(nil)

// NewMemoryProductRepository creates an empty in-memory product repository.
func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{products: make(map[string]*domain.Product)}
}

// FindByID retrieves a product by its id.
func (r *MemoryProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	clone := cloneProduct(product)
	return &clone, nil
}

// List retrieves all products.
func (r *MemoryProductRepository) List(ctx context.Context) ([]*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	products := make([]*domain.Product, 0, len(r.products))
	for _, product := range r.products {
		clone := cloneProduct(product)
		products = append(products, &clone)
	}
	return products, nil
}

// Store upserts the product, maintaining the timestamps the same way the
// Postgres repository does: created_at sticks, updated_at moves.
func (r *MemoryProductRepository) Store(ctx context.Context, product *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	clone := cloneProduct(product)
	clone.UpdatedAt = now
	if existing, ok := r.products[product.ID]; ok {
		clone.CreatedAt = existing.CreatedAt
	} else if clone.CreatedAt.IsZero() {
		clone.CreatedAt = now
	}
	r.products[product.ID] = &clone
	return nil
}

// Delete removes a product by id.
func (r *MemoryProductRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return ErrProductNotFound
	}
	delete(r.products, id)
	return nil
}

// cloneProduct deep-copies the slices so callers cannot mutate stored state.
func cloneProduct(product *domain.Product) domain.Product {
	clone := *product
	clone.Sources = append([]domain.ProductSource(nil), product.Sources...)
	clone.Recent = append([]domain.PriceRecord(nil), product.Recent...)
	if product.Lowest != nil {
		lowest := *product.Lowest
		clone.Lowest = &lowest
	}
	return clone
}

// MemoryAgentRepository is an in-memory AgentRepository.
type MemoryAgentRepository struct {
	mu     sync.RWMutex
	agents map[string]*domain.Agent
}

var _ AgentRepository = (*MemoryAgentRepository)(nil)

// NewMemoryAgentRepository creates an empty in-memory agent repository.
func NewMemoryAgentRepository() *MemoryAgentRepository {
	return &MemoryAgentRepository{agents: make(map[string]*domain.Agent)}
}

// FindByKey retrieves an agent by key.
func (r *MemoryAgentRepository) FindByKey(ctx context.Context, key string) (*domain.Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	agent, ok := r.agents[key]
	if !ok {
		return nil, ErrAgentNotFound
	}
	clone := *agent
	return &clone, nil
}

// List retrieves all agents.
func (r *MemoryAgentRepository) List(ctx context.Context) ([]*domain.Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	agents := make([]*domain.Agent, 0, len(r.agents))
	for _, agent := range r.agents {
		clone := *agent
		agents = append(agents, &clone)
	}
	return agents, nil
}

// Overwrite replaces the full agent set.
func (r *MemoryAgentRepository) Overwrite(ctx context.Context, agents []domain.Agent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.agents = make(map[string]*domain.Agent, len(agents))
	for i := range agents {
		clone := agents[i]
		r.agents[clone.Key] = &clone
	}
	return nil
}

package database

import (
	"context"
	"errors"

	"github.com/jonesrussell/pricewatch/internal/domain"
)

// Sentinel errors returned by repositories.
var (
	// ErrProductNotFound is returned when a product id has no record.
	ErrProductNotFound = errors.New("product not found")
	// ErrAgentNotFound is returned when an agent key has no record.
	ErrAgentNotFound = errors.New("agent not found")
)

// ProductRepository defines the contract for product data access.
type ProductRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context) ([]*domain.Product, error)
	Store(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id string) error
}

// AgentRepository defines the contract for agent data access.
type AgentRepository interface {
	FindByKey(ctx context.Context, key string) (*domain.Agent, error)
	List(ctx context.Context) ([]*domain.Agent, error)
	Overwrite(ctx context.Context, agents []domain.Agent) error
}

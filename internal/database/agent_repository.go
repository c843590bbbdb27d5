package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/pricewatch/internal/domain"
)

// PostgresAgentRepository persists agents in PostgreSQL.
type PostgresAgentRepository struct {
	db *sqlx.DB
}

var _ AgentRepository = (*PostgresAgentRepository)(nil)

// NewPostgresAgentRepository creates a new agent repository.
func NewPostgresAgentRepository(db *sqlx.DB) *PostgresAgentRepository {
	return &PostgresAgentRepository{db: db}
}

// FindByKey retrieves an agent by its stable key.
func (r *PostgresAgentRepository) FindByKey(ctx context.Context, key string) (*domain.Agent, error) {
	var agent domain.Agent
	query := `
		SELECT id, key, url_template, pattern, handler, decimal_delimiter
		FROM agents
		WHERE key = $1
	`

	err := r.db.GetContext(ctx, &agent, query, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAgentNotFound
		}
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}

	return &agent, nil
}

// List retrieves all agents ordered by key.
func (r *PostgresAgentRepository) List(ctx context.Context) ([]*domain.Agent, error) {
	var agents []*domain.Agent
	query := `
		SELECT id, key, url_template, pattern, handler, decimal_delimiter
		FROM agents
		ORDER BY key
	`

	if err := r.db.SelectContext(ctx, &agents, query); err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}

	if agents == nil {
		agents = []*domain.Agent{}
	}

	return agents, nil
}

// Overwrite replaces the full agent set in one transaction.
func (r *PostgresAgentRepository) Overwrite(ctx context.Context, agents []domain.Agent) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err = tx.ExecContext(ctx, `DELETE FROM agents`); err != nil {
		return fmt.Errorf("failed to clear agents: %w", err)
	}

	insert := `
		INSERT INTO agents (id, key, url_template, pattern, handler, decimal_delimiter)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for i := range agents {
		agent := &agents[i]
		if _, err = tx.ExecContext(
			ctx,
			insert,
			agent.ID,
			agent.Key,
			agent.URLTemplate,
			agent.Pattern,
			agent.Handler,
			agent.Delimiter(),
		); err != nil {
			return fmt.Errorf("failed to insert agent %s: %w", agent.Key, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit agents: %w", err)
	}

	return nil
}

package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/pricewatch/internal/domain"
)

// productRow maps a products table row. Sources, recent and lowest are
// stored as JSONB.
type productRow struct {
	ID          string          `db:"id"`
	Name        string          `db:"name"`
	Category    string          `db:"category"`
	Description string          `db:"description"`
	Sources     json.RawMessage `db:"sources"`
	Recent      json.RawMessage `db:"recent"`
	Lowest      json.RawMessage `db:"lowest"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

// PostgresProductRepository persists products in PostgreSQL.
type PostgresProductRepository struct {
	db *sqlx.DB
}

var _ ProductRepository = (*PostgresProductRepository)(nil)

// NewPostgresProductRepository creates a new product repository.
func NewPostgresProductRepository(db *sqlx.DB) *PostgresProductRepository {
	return &PostgresProductRepository{db: db}
}

// FindByID retrieves a product by its id.
func (r *PostgresProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	var row productRow
	query := `
		SELECT id, name, category, description, sources, recent, lowest, created_at, updated_at
		FROM products
		WHERE id = $1
	`

	err := r.db.GetContext(ctx, &row, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return rowToProduct(&row)
}

// List retrieves all products ordered by name.
func (r *PostgresProductRepository) List(ctx context.Context) ([]*domain.Product, error) {
	var rows []productRow
	query := `
		SELECT id, name, category, description, sources, recent, lowest, created_at, updated_at
		FROM products
		ORDER BY name
	`

	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	products := make([]*domain.Product, 0, len(rows))
	for i := range rows {
		product, err := rowToProduct(&rows[i])
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}

	return products, nil
}

// Store upserts the full product including recent and lowest records.
func (r *PostgresProductRepository) Store(ctx context.Context, product *domain.Product) error {
	sources, err := json.Marshal(product.Sources)
	if err != nil {
		return fmt.Errorf("failed to marshal sources: %w", err)
	}
	recent, err := json.Marshal(product.Recent)
	if err != nil {
		return fmt.Errorf("failed to marshal recent prices: %w", err)
	}

	var lowest any
	if product.Lowest != nil {
		raw, marshalErr := json.Marshal(product.Lowest)
		if marshalErr != nil {
			return fmt.Errorf("failed to marshal lowest price: %w", marshalErr)
		}
		lowest = raw
	}

	query := `
		INSERT INTO products (id, name, category, description, sources, recent, lowest)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			category = EXCLUDED.category,
			description = EXCLUDED.description,
			sources = EXCLUDED.sources,
			recent = EXCLUDED.recent,
			lowest = EXCLUDED.lowest,
			updated_at = now()
	`

	_, err = r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Category,
		product.Description,
		sources,
		recent,
		lowest,
	)
	if err != nil {
		return fmt.Errorf("failed to store product: %w", err)
	}

	return nil
}

// Delete removes a product by id.
func (r *PostgresProductRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// rowToProduct decodes the JSONB columns into the domain model.
func rowToProduct(row *productRow) (*domain.Product, error) {
	product := &domain.Product{
		ID:          row.ID,
		Name:        row.Name,
		Category:    row.Category,
		Description: row.Description,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}

	if len(row.Sources) > 0 {
		if err := json.Unmarshal(row.Sources, &product.Sources); err != nil {
			return nil, fmt.Errorf("failed to unmarshal sources: %w", err)
		}
	}
	if len(row.Recent) > 0 {
		if err := json.Unmarshal(row.Recent, &product.Recent); err != nil {
			return nil, fmt.Errorf("failed to unmarshal recent prices: %w", err)
		}
	}
	if len(row.Lowest) > 0 {
		var lowest domain.PriceRecord
		if err := json.Unmarshal(row.Lowest, &lowest); err != nil {
			return nil, fmt.Errorf("failed to unmarshal lowest price: %w", err)
		}
		product.Lowest = &lowest
	}

	return product, nil
}

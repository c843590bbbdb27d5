package database_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/pricewatch/internal/database"
	"github.com/jonesrussell/pricewatch/internal/domain"
)

func TestMemoryProductRepository(t *testing.T) {
	t.Parallel()

	t.Run("find missing product", func(t *testing.T) {
		t.Parallel()

		repo := database.NewMemoryProductRepository()
		_, err := repo.FindByID(context.Background(), "nope")
		assert.ErrorIs(t, err, database.ErrProductNotFound)
	})

	t.Run("store and find", func(t *testing.T) {
		t.Parallel()

		repo := database.NewMemoryProductRepository()
		ctx := context.Background()
		product := &domain.Product{
			ID:      "p1",
			Name:    "Headphones",
			Sources: []domain.ProductSource{{ID: "s1", AgentKey: "shop-a", Argument: "hp-1"}},
		}
		require.NoError(t, repo.Store(ctx, product))

		found, err := repo.FindByID(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, "Headphones", found.Name)
		require.Len(t, found.Sources, 1)
	})

	t.Run("store clones state", func(t *testing.T) {
		t.Parallel()

		repo := database.NewMemoryProductRepository()
		ctx := context.Background()
		product := &domain.Product{
			ID:     "p1",
			Name:   "Headphones",
			Recent: []domain.PriceRecord{{SourceID: "s1", Status: domain.StatusSuccess, Price: decimal.NewFromInt(10)}},
		}
		require.NoError(t, repo.Store(ctx, product))

		// Mutating the caller's copy must not leak into the repository.
		product.Name = "changed"
		product.Recent[0].SourceID = "changed"

		found, err := repo.FindByID(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, "Headphones", found.Name)
		assert.Equal(t, "s1", found.Recent[0].SourceID)
	})

	t.Run("store maintains timestamps", func(t *testing.T) {
		t.Parallel()

		repo := database.NewMemoryProductRepository()
		ctx := context.Background()
		require.NoError(t, repo.Store(ctx, &domain.Product{ID: "p1", Name: "Headphones"}))

		created, err := repo.FindByID(ctx, "p1")
		require.NoError(t, err)
		assert.False(t, created.CreatedAt.IsZero())
		assert.False(t, created.UpdatedAt.IsZero())

		require.NoError(t, repo.Store(ctx, &domain.Product{ID: "p1", Name: "Headphones v2"}))

		updated, err := repo.FindByID(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, created.CreatedAt, updated.CreatedAt, "created_at must survive updates")
		assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))
	})

	t.Run("store replaces existing product", func(t *testing.T) {
		t.Parallel()

		repo := database.NewMemoryProductRepository()
		ctx := context.Background()
		require.NoError(t, repo.Store(ctx, &domain.Product{ID: "p1", Name: "old"}))
		require.NoError(t, repo.Store(ctx, &domain.Product{ID: "p1", Name: "new"}))

		found, err := repo.FindByID(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, "new", found.Name)

		all, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("delete", func(t *testing.T) {
		t.Parallel()

		repo := database.NewMemoryProductRepository()
		ctx := context.Background()
		require.NoError(t, repo.Store(ctx, &domain.Product{ID: "p1", Name: "Headphones"}))

		require.NoError(t, repo.Delete(ctx, "p1"))
		_, err := repo.FindByID(ctx, "p1")
		assert.ErrorIs(t, err, database.ErrProductNotFound)

		assert.ErrorIs(t, repo.Delete(ctx, "p1"), database.ErrProductNotFound)
	})
}

func TestMemoryAgentRepository(t *testing.T) {
	t.Parallel()

	t.Run("find missing agent", func(t *testing.T) {
		t.Parallel()

		repo := database.NewMemoryAgentRepository()
		_, err := repo.FindByKey(context.Background(), "nope")
		assert.ErrorIs(t, err, database.ErrAgentNotFound)
	})

	t.Run("overwrite replaces the full set", func(t *testing.T) {
		t.Parallel()

		repo := database.NewMemoryAgentRepository()
		ctx := context.Background()

		require.NoError(t, repo.Overwrite(ctx, []domain.Agent{
			{ID: "a1", Key: "shop-a", URLTemplate: "https://a.example/%s", Pattern: `(\d+)`},
			{ID: "a2", Key: "shop-b", URLTemplate: "https://b.example/%s", Pattern: `(\d+)`},
		}))

		require.NoError(t, repo.Overwrite(ctx, []domain.Agent{
			{ID: "a2", Key: "shop-b", URLTemplate: "https://b.example/%s", Pattern: `(\d+)`},
		}))

		_, err := repo.FindByKey(ctx, "shop-a")
		assert.ErrorIs(t, err, database.ErrAgentNotFound)

		found, err := repo.FindByKey(ctx, "shop-b")
		require.NoError(t, err)
		assert.Equal(t, "a2", found.ID)

		all, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})
}

package refresh_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/pricewatch/internal/database"
	"github.com/jonesrussell/pricewatch/internal/domain"
	"github.com/jonesrussell/pricewatch/internal/events"
	"github.com/jonesrussell/pricewatch/internal/logger"
	"github.com/jonesrussell/pricewatch/internal/refresh"
)

type recordingEnqueuer struct {
	mu         sync.Mutex
	productIDs []string
	enqueueErr error
}

func (e *recordingEnqueuer) EnqueueAutoScan(ctx context.Context, productID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.productIDs = append(e.productIDs, productID)
	return e.enqueueErr
}

func (e *recordingEnqueuer) enqueued() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.productIDs...)
}

type startedHandler struct {
	mu      sync.Mutex
	started []events.ScanStarted
}

func (h *startedHandler) HandleScanStarted(ctx context.Context, event events.ScanStarted) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.started = append(h.started, event)
	return nil
}

func (h *startedHandler) HandleProductScanned(ctx context.Context, event events.ProductScanned) error {
	return nil
}

func (h *startedHandler) HandleScanFailed(ctx context.Context, event events.ScanFailed) error {
	return nil
}

func (h *startedHandler) events() []events.ScanStarted {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]events.ScanStarted(nil), h.started...)
}

func TestRefresher_RefreshAll(t *testing.T) {
	t.Parallel()

	t.Run("enqueues every product and announces the batch", func(t *testing.T) {
		t.Parallel()

		products := database.NewMemoryProductRepository()
		ctx := context.Background()
		require.NoError(t, products.Store(ctx, &domain.Product{ID: "p1", Name: "Headphones"}))
		require.NoError(t, products.Store(ctx, &domain.Product{ID: "p2", Name: "Monitor"}))

		enqueuer := &recordingEnqueuer{}
		handler := &startedHandler{}
		bus := events.NewEventBus(logger.NewNoOp())
		bus.Subscribe(handler)

		refresher := refresh.New(products, enqueuer, bus, logger.NewNoOp(), "")
		refresher.RefreshAll(ctx)

		assert.ElementsMatch(t, []string{"p1", "p2"}, enqueuer.enqueued())

		started := handler.events()
		require.Len(t, started, 1)
		assert.Equal(t, 2, started[0].Count)
	})

	t.Run("empty catalog announces nothing", func(t *testing.T) {
		t.Parallel()

		enqueuer := &recordingEnqueuer{}
		handler := &startedHandler{}
		bus := events.NewEventBus(logger.NewNoOp())
		bus.Subscribe(handler)

		refresher := refresh.New(database.NewMemoryProductRepository(), enqueuer, bus, logger.NewNoOp(), "")
		refresher.RefreshAll(context.Background())

		assert.Empty(t, enqueuer.enqueued())
		assert.Empty(t, handler.events())
	})

	t.Run("enqueue failure does not stop the batch", func(t *testing.T) {
		t.Parallel()

		products := database.NewMemoryProductRepository()
		ctx := context.Background()
		require.NoError(t, products.Store(ctx, &domain.Product{ID: "p1", Name: "Headphones"}))
		require.NoError(t, products.Store(ctx, &domain.Product{ID: "p2", Name: "Monitor"}))

		enqueuer := &recordingEnqueuer{enqueueErr: errors.New("queue full")}
		bus := events.NewEventBus(logger.NewNoOp())

		refresher := refresh.New(products, enqueuer, bus, logger.NewNoOp(), "")
		refresher.RefreshAll(ctx)

		assert.Len(t, enqueuer.enqueued(), 2)
	})
}

func TestRefresher_Start(t *testing.T) {
	t.Parallel()

	t.Run("rejects malformed schedule", func(t *testing.T) {
		t.Parallel()

		refresher := refresh.New(
			database.NewMemoryProductRepository(),
			&recordingEnqueuer{},
			events.NewEventBus(logger.NewNoOp()),
			logger.NewNoOp(),
			"not a cron expression",
		)
		err := refresher.Start(context.Background())
		assert.Error(t, err)
	})

	t.Run("accepts default schedule", func(t *testing.T) {
		t.Parallel()

		refresher := refresh.New(
			database.NewMemoryProductRepository(),
			&recordingEnqueuer{},
			events.NewEventBus(logger.NewNoOp()),
			logger.NewNoOp(),
			"",
		)
		require.NoError(t, refresher.Start(context.Background()))
		refresher.Stop()
	})
}

package events

import (
	"context"
	"sync"

	"github.com/jonesrussell/pricewatch/internal/logger"
)

// EventBus distributes scan lifecycle events to subscribed handlers.
type EventBus struct {
	mu       sync.RWMutex
	handlers []EventHandler
	logger   logger.Interface
}

// Compile-time check that the bus satisfies the core's publish surface.
var _ Publisher = (*EventBus)(nil)

// NewEventBus creates a new EventBus instance.
func NewEventBus(log logger.Interface) *EventBus {
	return &EventBus{
		handlers: make([]EventHandler, 0),
		logger:   log,
	}
}

// Subscribe adds an event handler to the bus.
func (b *EventBus) Subscribe(handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, handler)
}

// PublishScanStarted publishes a batch scan start event to all handlers.
// Thread-safe: uses read lock and copies handlers slice.
func (b *EventBus) PublishScanStarted(ctx context.Context, event ScanStarted) {
	for _, handler := range b.snapshot() {
		if err := handler.HandleScanStarted(ctx, event); err != nil {
			b.logger.Error("failed to handle scan started event",
				"error", err,
			)
		}
	}
}

// PublishProductScanned publishes a completed scan event to all handlers.
// Thread-safe: uses read lock and copies handlers slice.
func (b *EventBus) PublishProductScanned(ctx context.Context, event ProductScanned) {
	for _, handler := range b.snapshot() {
		if err := handler.HandleProductScanned(ctx, event); err != nil {
			b.logger.Error("failed to handle product scanned event",
				"error", err,
				"product_id", event.Product.ID,
			)
		}
	}
}

// PublishScanFailed publishes a failed scan event to all handlers.
// Thread-safe: uses read lock and copies handlers slice.
func (b *EventBus) PublishScanFailed(ctx context.Context, event ScanFailed) {
	for _, handler := range b.snapshot() {
		if err := handler.HandleScanFailed(ctx, event); err != nil {
			b.logger.Error("failed to handle scan failed event",
				"error", err,
				"product_id", event.Product.ID,
			)
		}
	}
}

// snapshot returns a copy of the handler list so dispatch happens without
// holding the lock.
func (b *EventBus) snapshot() []EventHandler {
	b.mu.RLock()
	defer b.mu.RUnlock()

	handlers := make([]EventHandler, len(b.handlers))
	copy(handlers, b.handlers)
	return handlers
}

// HandlerCount returns the number of registered handlers.
// Thread-safe: uses read lock.
func (b *EventBus) HandlerCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers)
}

package events

import (
	"context"
)

// loggerInterface is the subset of the application logger the default
// handler needs.
type loggerInterface interface {
	Info(msg string, fields ...any)
	Warn(msg string, fields ...any)
}

// DefaultHandler provides a basic implementation of EventHandler that logs
// events. It stands in for the UI layer in headless runs.
type DefaultHandler struct {
	logger loggerInterface
}

// NewDefaultHandler creates a new DefaultHandler instance.
func NewDefaultHandler(log loggerInterface) EventHandler {
	return &DefaultHandler{
		logger: log,
	}
}

// HandleScanStarted logs per-product and batch scan start events.
func (h *DefaultHandler) HandleScanStarted(ctx context.Context, event ScanStarted) error {
	if event.Product != nil {
		h.logger.Info("Product scan started",
			"product_id", event.Product.ID,
			"name", event.Product.Name,
			"component", "scan",
		)
		return nil
	}
	h.logger.Info("Scan batch started",
		"count", event.Count,
		"component", "scan",
	)
	return nil
}

// HandleProductScanned logs completed scan events.
func (h *DefaultHandler) HandleProductScanned(ctx context.Context, event ProductScanned) error {
	h.logger.Info("Product scanned",
		"product_id", event.Product.ID,
		"name", event.Product.Name,
		"new_lowest", event.NewLowest,
		"component", "scan",
	)
	return nil
}

// HandleScanFailed logs failed scan events.
func (h *DefaultHandler) HandleScanFailed(ctx context.Context, event ScanFailed) error {
	h.logger.Warn("Product scan failed",
		"product_id", event.Product.ID,
		"name", event.Product.Name,
		"message", event.Message,
		"component", "scan",
	)
	return nil
}

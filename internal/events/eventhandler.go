package events

import (
	"context"
)

// EventHandler defines the interface for handling events from the EventBus.
type EventHandler interface {
	// HandleScanStarted processes a batch scan start event.
	HandleScanStarted(ctx context.Context, event ScanStarted) error

	// HandleProductScanned processes a completed scan event.
	HandleProductScanned(ctx context.Context, event ProductScanned) error

	// HandleScanFailed processes a failed scan event.
	HandleScanFailed(ctx context.Context, event ScanFailed) error
}

// Publisher is the emit-only view of the bus used by the scan core.
type Publisher interface {
	PublishScanStarted(ctx context.Context, event ScanStarted)
	PublishProductScanned(ctx context.Context, event ProductScanned)
	PublishScanFailed(ctx context.Context, event ScanFailed)
}

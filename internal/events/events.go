// Package events provides the in-process bus carrying scan lifecycle
// notifications to UI and logging consumers.
package events

import (
	"github.com/jonesrussell/pricewatch/internal/domain"
)

// ScanStarted announces that scanning has begun. A per-product start
// carries the product; a batch enqueue carries the count instead.
type ScanStarted struct {
	// Product is set when one product's scan begins executing.
	Product *domain.Product
	// Count is the number of products in an enqueued batch.
	Count int
}

// ProductScanned announces a completed scan attempt for one product. It is
// emitted exactly once per scan that was not aborted by a fault, including
// scans skipped by the recency guard.
type ProductScanned struct {
	Product *domain.Product
	// NewLowest is true only when this scan produced a price strictly
	// below the previously recorded lowest.
	NewLowest bool
}

// ScanFailed announces that a scan produced no usable result or aborted
// with a fault.
type ScanFailed struct {
	Product *domain.Product
	Message string
}

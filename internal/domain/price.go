package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceStatus classifies the outcome of one per-source price lookup.
type PriceStatus string

const (
	// StatusSuccess means a positive price was extracted.
	StatusSuccess PriceStatus = "success"
	// StatusCouldNotFetch means no content could be downloaded.
	StatusCouldNotFetch PriceStatus = "could_not_fetch"
	// StatusCouldNotMatch means the pattern did not match the content.
	StatusCouldNotMatch PriceStatus = "could_not_match"
	// StatusCouldNotParse means the captured text was not a valid number.
	StatusCouldNotParse PriceStatus = "could_not_parse"
	// StatusInvalidPrice means the parsed value was zero or negative.
	StatusInvalidPrice PriceStatus = "invalid_price"
)

// PriceRecord is one per-source observation from a scan.
type PriceRecord struct {
	SourceID string          `json:"source_id"`
	AgentID  string          `json:"agent_id"`
	Status   PriceStatus     `json:"status"`
	Price    decimal.Decimal `json:"price"`
	FoundAt  time.Time       `json:"found_at"`
}

// Usable reports whether the record carries a usable price.
func (r *PriceRecord) Usable() bool {
	return r.Status == StatusSuccess && r.Price.IsPositive()
}

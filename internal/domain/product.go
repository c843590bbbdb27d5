package domain

import (
	"time"
)

// ProductSource binds a product to an agent with a per-product argument.
// The resolved Agent is a derived association recomputed on load; it is
// never persisted with the source.
type ProductSource struct {
	ID       string `json:"id"`
	AgentKey string `json:"agent_key"`
	Argument string `json:"argument"`

	Agent *Agent `json:"-"`
}

// Product is a tracked item with one or more sources, the lowest observed
// price and the result set of the latest completed scan.
type Product struct {
	ID          string          `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Category    string          `json:"category,omitempty" db:"category"`
	Description string          `json:"description,omitempty" db:"description"`
	Sources     []ProductSource `json:"sources"`
	Lowest      *PriceRecord    `json:"lowest,omitempty"`
	Recent      []PriceRecord   `json:"recent"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// SourceByID returns the source with the given id, or nil when the id is
// stale (sources edited after the scan that recorded it).
func (p *Product) SourceByID(id string) *ProductSource {
	for i := range p.Sources {
		if p.Sources[i].ID == id {
			return &p.Sources[i]
		}
	}
	return nil
}

// LastScannedAt returns the most recent found-at timestamp across the
// product's recent records, or the zero time when it has never been scanned.
func (p *Product) LastScannedAt() time.Time {
	var latest time.Time
	for i := range p.Recent {
		if p.Recent[i].FoundAt.After(latest) {
			latest = p.Recent[i].FoundAt
		}
	}
	return latest
}

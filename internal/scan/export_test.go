package scan

import "time"

// SetNowFunc overrides the aggregator's clock in tests.
func (a *Aggregator) SetNowFunc(now func() time.Time) {
	a.now = now
}

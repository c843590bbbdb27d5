// Package extract turns raw page content into a validated decimal price.
package extract

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jonesrussell/pricewatch/internal/domain"
	"github.com/jonesrussell/pricewatch/internal/logger"
)

// priceGroup is the capture group name a pattern must use for the price text.
const priceGroup = "price"

// Result is the outcome of one extraction attempt.
type Result struct {
	Status domain.PriceStatus
	Price  decimal.Decimal
}

// Engine applies a pattern to text content and parses the captured price.
// It holds no state besides its logger and performs no I/O.
type Engine struct {
	log logger.Interface
}

// NewEngine creates a new extraction engine.
func NewEngine(log logger.Interface) *Engine {
	return &Engine{log: log.WithComponent("extract")}
}

// Extract applies pattern to content and parses the captured price group.
// A delimiter other than "." is replaced with "." before parsing; the
// captured text is assumed to use it only as a decimal separator.
func (e *Engine) Extract(pattern, content, delimiter string) Result {
	re, err := regexp.Compile(pattern)
	if err != nil {
		e.log.Error("invalid price pattern", "pattern", pattern, "error", err.Error())
		return Result{Status: domain.StatusCouldNotMatch}
	}

	match := re.FindStringSubmatch(content)
	if match == nil {
		return Result{Status: domain.StatusCouldNotMatch}
	}

	raw := capturedPrice(re, match)
	if delimiter != "" && delimiter != domain.DefaultDecimalDelimiter {
		raw = strings.ReplaceAll(raw, delimiter, domain.DefaultDecimalDelimiter)
	}

	price, err := decimal.NewFromString(raw)
	if err != nil {
		// A match that fails numeric parse points at a pattern/site
		// mismatch rather than absence of data.
		e.log.Error("captured price is not numeric", "captured", raw, "error", err.Error())
		return Result{Status: domain.StatusCouldNotParse}
	}

	if !price.IsPositive() {
		e.log.Warn("captured price is not positive", "price", price.String())
		return Result{Status: domain.StatusInvalidPrice}
	}

	return Result{Status: domain.StatusSuccess, Price: price}
}

// capturedPrice returns the text of the named price group, falling back to
// the first capture group and then the whole match.
func capturedPrice(re *regexp.Regexp, match []string) string {
	if idx := re.SubexpIndex(priceGroup); idx >= 0 && idx < len(match) {
		return match[idx]
	}
	if len(match) > 1 {
		return match[1]
	}
	return match[0]
}

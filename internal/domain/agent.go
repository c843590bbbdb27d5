// Package domain provides domain models used across the application.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultDecimalDelimiter is the decimal separator assumed when an agent
// does not configure one.
const DefaultDecimalDelimiter = "."

// Common validation errors for agents.
var (
	ErrAgentKeyEmpty     = errors.New("agent key must not be empty")
	ErrAgentPatternEmpty = errors.New("agent pattern must not be empty")
)

// Agent describes how to fetch and parse a price from one source site.
type Agent struct {
	ID               string `json:"id" db:"id"`
	Key              string `json:"key" db:"key"`
	URLTemplate      string `json:"url_template" db:"url_template"`
	Pattern          string `json:"pattern" db:"pattern"`
	Handler          string `json:"handler" db:"handler"`
	DecimalDelimiter string `json:"decimal_delimiter" db:"decimal_delimiter"`
}

// Validate checks the agent invariants.
func (a *Agent) Validate() error {
	if strings.TrimSpace(a.Key) == "" {
		return ErrAgentKeyEmpty
	}
	if a.Pattern == "" {
		return ErrAgentPatternEmpty
	}
	return nil
}

// Delimiter returns the configured decimal delimiter, falling back to the
// default when unset.
func (a *Agent) Delimiter() string {
	if a.DecimalDelimiter == "" {
		return DefaultDecimalDelimiter
	}
	return a.DecimalDelimiter
}

// ResolveURL substitutes the source argument into the agent's URL template.
func (a *Agent) ResolveURL(argument string) string {
	if strings.Contains(a.URLTemplate, "%s") {
		return fmt.Sprintf(a.URLTemplate, argument)
	}
	return a.URLTemplate
}

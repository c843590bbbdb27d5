package extract

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jonesrussell/pricewatch/internal/domain"
)

// Well-known handler names.
const (
	// HandlerDirect parses the captured text as-is. It is the default.
	HandlerDirect = "direct"
	// HandlerMinorUnits divides the parsed price by 100, for sources
	// that encode prices in minor units without a decimal marker.
	HandlerMinorUnits = "minor_units"
)

// Handler is one extraction strategy.
type Handler interface {
	Extract(pattern, content, delimiter string) Result
}

// Registry maps handler names to extraction strategies, with one entry
// designated the default.
type Registry struct {
	handlers    map[string]Handler
	defaultName string
}

// NewRegistry creates a registry with the built-in handlers registered and
// the direct handler marked default.
func NewRegistry(engine *Engine) *Registry {
	return &Registry{
		handlers: map[string]Handler{
			HandlerDirect:     directHandler{engine: engine},
			HandlerMinorUnits: minorUnitsHandler{engine: engine},
		},
		defaultName: HandlerDirect,
	}
}

// Get returns the handler registered under name. An empty name selects the
// default handler; an unknown name is an error, never a silent fallback.
func (r *Registry) Get(name string) (Handler, error) {
	if name == "" {
		name = r.defaultName
	}
	handler, ok := r.handlers[name]
	if !ok {
		return nil, fmt.Errorf("unknown price handler %q", name)
	}
	return handler, nil
}

// Names returns the registered handler names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	return names
}

type directHandler struct {
	engine *Engine
}

func (h directHandler) Extract(pattern, content, delimiter string) Result {
	return h.engine.Extract(pattern, content, delimiter)
}

type minorUnitsHandler struct {
	engine *Engine
}

var hundred = decimal.NewFromInt(100)

func (h minorUnitsHandler) Extract(pattern, content, delimiter string) Result {
	result := h.engine.Extract(pattern, content, delimiter)
	if result.Status != domain.StatusSuccess {
		return result
	}
	result.Price = result.Price.Div(hundred)
	return result
}

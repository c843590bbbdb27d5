package extract_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/pricewatch/internal/domain"
	"github.com/jonesrussell/pricewatch/internal/extract"
	"github.com/jonesrussell/pricewatch/internal/logger"
)

func newEngine() *extract.Engine {
	return extract.NewEngine(logger.NewNoOp())
}

func TestEngine_Extract(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		pattern    string
		content    string
		delimiter  string
		wantStatus domain.PriceStatus
		wantPrice  string
	}{
		{
			name:       "plain price with default delimiter",
			pattern:    `price: (?P<price>[\d.]+)`,
			content:    `<span>price: 19.99</span>`,
			delimiter:  ".",
			wantStatus: domain.StatusSuccess,
			wantPrice:  "19.99",
		},
		{
			name:       "custom decimal delimiter",
			pattern:    `(?P<price>[\d;]+)`,
			content:    `123;45`,
			delimiter:  ";",
			wantStatus: domain.StatusSuccess,
			wantPrice:  "123.45",
		},
		{
			name:       "comma delimiter",
			pattern:    `(?P<price>[\d,]+)`,
			content:    `1,99`,
			delimiter:  ",",
			wantStatus: domain.StatusSuccess,
			wantPrice:  "1.99",
		},
		{
			name:       "empty delimiter treated as default",
			pattern:    `(?P<price>[\d.]+)`,
			content:    `42.50`,
			delimiter:  "",
			wantStatus: domain.StatusSuccess,
			wantPrice:  "42.5",
		},
		{
			name:       "no match",
			pattern:    `price: (?P<price>[\d.]+)`,
			content:    `out of stock`,
			delimiter:  ".",
			wantStatus: domain.StatusCouldNotMatch,
		},
		{
			name:       "match does not parse",
			pattern:    `price: (?P<price>[\d.]+)`,
			content:    `price: 1.2.3`,
			delimiter:  ".",
			wantStatus: domain.StatusCouldNotParse,
		},
		{
			name:       "zero price is invalid",
			pattern:    `(?P<price>\d+)`,
			content:    `0`,
			delimiter:  ".",
			wantStatus: domain.StatusInvalidPrice,
		},
		{
			name:       "invalid pattern reports no match",
			pattern:    `(?P<price>[`,
			content:    `19.99`,
			delimiter:  ".",
			wantStatus: domain.StatusCouldNotMatch,
		},
		{
			name:       "unnamed group falls back to first capture",
			pattern:    `price: ([\d.]+)`,
			content:    `price: 7.25`,
			delimiter:  ".",
			wantStatus: domain.StatusSuccess,
			wantPrice:  "7.25",
		},
	}

	engine := newEngine()

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := engine.Extract(tt.pattern, tt.content, tt.delimiter)
			assert.Equal(t, tt.wantStatus, result.Status)
			if tt.wantStatus == domain.StatusSuccess {
				want, err := decimal.NewFromString(tt.wantPrice)
				require.NoError(t, err)
				assert.True(t, want.Equal(result.Price),
					"want %s, got %s", want, result.Price)
			}
		})
	}
}

func TestRegistry_Get(t *testing.T) {
	t.Parallel()

	registry := extract.NewRegistry(newEngine())

	t.Run("empty name selects default handler", func(t *testing.T) {
		t.Parallel()

		handler, err := registry.Get("")
		require.NoError(t, err)

		result := handler.Extract(`(?P<price>[\d.]+)`, `9.50`, ".")
		assert.Equal(t, domain.StatusSuccess, result.Status)
		assert.True(t, decimal.RequireFromString("9.50").Equal(result.Price))
	})

	t.Run("unknown handler is rejected", func(t *testing.T) {
		t.Parallel()

		_, err := registry.Get("no-such-handler")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no-such-handler")
	})
}

func TestMinorUnitsHandler(t *testing.T) {
	t.Parallel()

	registry := extract.NewRegistry(newEngine())

	handler, err := registry.Get(extract.HandlerMinorUnits)
	require.NoError(t, err)

	t.Run("divides successful price by 100", func(t *testing.T) {
		t.Parallel()

		result := handler.Extract(`(?P<price>\d+)`, `1999`, ".")
		require.Equal(t, domain.StatusSuccess, result.Status)
		assert.True(t, decimal.RequireFromString("19.99").Equal(result.Price),
			"got %s", result.Price)
	})

	t.Run("failures pass through untouched", func(t *testing.T) {
		t.Parallel()

		result := handler.Extract(`(?P<price>\d+)`, `unavailable`, ".")
		assert.Equal(t, domain.StatusCouldNotMatch, result.Status)
	})
}

package seeker_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/pricewatch/internal/domain"
	"github.com/jonesrussell/pricewatch/internal/extract"
	"github.com/jonesrussell/pricewatch/internal/logger"
	"github.com/jonesrussell/pricewatch/internal/seeker"
)

// stubFetcher serves canned responses keyed by URL.
type stubFetcher struct {
	pages map[string]string
	err   error
}

func (f *stubFetcher) Fetch(ctx context.Context, rawURL string) (string, bool, error) {
	if f.err != nil {
		return "", false, f.err
	}
	content, ok := f.pages[rawURL]
	return content, ok, nil
}

func newSeeker(t *testing.T, fetch seeker.Fetcher) (*seeker.Seeker, *seeker.DumpWriter) {
	t.Helper()
	registry := extract.NewRegistry(extract.NewEngine(logger.NewNoOp()))
	dumps := seeker.NewDumpWriter(t.TempDir())
	return seeker.New(fetch, registry, dumps, logger.NewNoOp()), dumps
}

func testAgent(id string) *domain.Agent {
	return &domain.Agent{
		ID:          id,
		Key:         "shop-" + id,
		URLTemplate: "https://shop" + id + ".example/item/%s",
		Pattern:     `price: (?P<price>[\d.]+)`,
	}
}

func sourceFor(id string, agent *domain.Agent, argument string) domain.ProductSource {
	return domain.ProductSource{
		ID:       id,
		AgentKey: agent.Key,
		Argument: argument,
		Agent:    agent,
	}
}

func TestSeeker_Seek(t *testing.T) {
	t.Parallel()

	t.Run("collects all usable prices", func(t *testing.T) {
		t.Parallel()

		agentA, agentB, agentC := testAgent("a"), testAgent("b"), testAgent("c")
		fetch := &stubFetcher{pages: map[string]string{
			"https://shopa.example/item/x": "price: 10.00",
			"https://shopb.example/item/x": "price: 9.50",
			"https://shopc.example/item/x": "price: 11.00",
		}}
		s, _ := newSeeker(t, fetch)

		product := &domain.Product{
			ID: "p1",
			Sources: []domain.ProductSource{
				sourceFor("s1", agentA, "x"),
				sourceFor("s2", agentB, "x"),
				sourceFor("s3", agentC, "x"),
			},
		}

		results, err := s.Seek(context.Background(), product)
		require.NoError(t, err)
		require.Len(t, results, 3)

		bySource := make(map[string]string)
		for _, result := range results {
			bySource[result.SourceID] = result.Price.Price.String()
		}
		assert.Equal(t, "10", bySource["s1"])
		assert.Equal(t, "9.5", bySource["s2"])
		assert.Equal(t, "11", bySource["s3"])
	})

	t.Run("failed sources are absent, not error entries", func(t *testing.T) {
		t.Parallel()

		agentA, agentB := testAgent("a"), testAgent("b")
		fetch := &stubFetcher{pages: map[string]string{
			// shopa returns nothing; shopb works.
			"https://shopb.example/item/x": "price: 5.00",
		}}
		s, _ := newSeeker(t, fetch)

		product := &domain.Product{
			ID: "p1",
			Sources: []domain.ProductSource{
				sourceFor("s1", agentA, "x"),
				sourceFor("s2", agentB, "x"),
			},
		}

		results, err := s.Seek(context.Background(), product)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "s2", results[0].SourceID)
	})

	t.Run("no match writes a dump file", func(t *testing.T) {
		t.Parallel()

		agent := testAgent("a")
		fetch := &stubFetcher{pages: map[string]string{
			"https://shopa.example/item/x": "sold out, come back later",
		}}
		s, dumps := newSeeker(t, fetch)

		product := &domain.Product{
			ID:      "p1",
			Sources: []domain.ProductSource{sourceFor("s1", agent, "x")},
		}

		results, err := s.Seek(context.Background(), product)
		require.NoError(t, err)
		assert.Empty(t, results)

		raw, readErr := os.ReadFile(dumps.Path("s1"))
		require.NoError(t, readErr)
		assert.Equal(t, "sold out, come back later", string(raw))
	})

	t.Run("source without resolved agent is skipped", func(t *testing.T) {
		t.Parallel()

		s, _ := newSeeker(t, &stubFetcher{})

		product := &domain.Product{
			ID: "p1",
			Sources: []domain.ProductSource{
				{ID: "s1", AgentKey: "gone", Argument: "x"},
			},
		}

		results, err := s.Seek(context.Background(), product)
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("hard fetch error fails the whole seek", func(t *testing.T) {
		t.Parallel()

		agent := testAgent("a")
		hardErr := errors.New("dns lookup failed")
		s, _ := newSeeker(t, &stubFetcher{err: hardErr})

		product := &domain.Product{
			ID:      "p1",
			Sources: []domain.ProductSource{sourceFor("s1", agent, "x")},
		}

		_, err := s.Seek(context.Background(), product)
		require.ErrorIs(t, err, hardErr)
	})

	t.Run("unknown handler fails the seek", func(t *testing.T) {
		t.Parallel()

		agent := testAgent("a")
		agent.Handler = "bogus"
		fetch := &stubFetcher{pages: map[string]string{
			"https://shopa.example/item/x": "price: 5.00",
		}}
		s, _ := newSeeker(t, fetch)

		product := &domain.Product{
			ID:      "p1",
			Sources: []domain.ProductSource{sourceFor("s1", agent, "x")},
		}

		_, err := s.Seek(context.Background(), product)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bogus")
	})
}

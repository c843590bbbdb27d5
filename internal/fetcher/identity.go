package fetcher

import (
	"fmt"
	"math/rand"
	"sync"
)

// weighted is one entry in a weighted identity pool.
type weighted struct {
	value  string
	weight int
}

// Platform pool. Windows dominates real desktop traffic, so it dominates
// the generated identities too.
var platformPool = []weighted{
	{value: "Windows NT 10.0; Win64; x64", weight: 6},
	{value: "Macintosh; Intel Mac OS X 10_15_7", weight: 3},
	{value: "X11; Linux x86_64", weight: 1},
}

// Chrome major versions currently plausible in the wild.
var chromeVersionPool = []weighted{
	{value: "126.0.0.0", weight: 2},
	{value: "127.0.0.0", weight: 3},
	{value: "128.0.0.0", weight: 3},
	{value: "129.0.0.0", weight: 2},
}

var firefoxVersionPool = []weighted{
	{value: "128.0", weight: 2},
	{value: "129.0", weight: 3},
	{value: "130.0", weight: 2},
}

// Browser family pool. The value selects the UA layout.
var familyPool = []weighted{
	{value: "chrome", weight: 6},
	{value: "firefox", weight: 3},
	{value: "edge", weight: 1},
}

// IdentityGenerator produces randomized, plausible desktop browser identity
// strings. The random source is injected so tests stay deterministic and
// instances do not share global state.
type IdentityGenerator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewIdentityGenerator creates a generator backed by the given source.
func NewIdentityGenerator(rng *rand.Rand) *IdentityGenerator {
	return &IdentityGenerator{rng: rng}
}

// UserAgent returns a fresh browser identity string.
func (g *IdentityGenerator) UserAgent() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	platform := pick(g.rng, platformPool)

	switch pick(g.rng, familyPool) {
	case "firefox":
		version := pick(g.rng, firefoxVersionPool)
		return fmt.Sprintf("Mozilla/5.0 (%s; rv:%s) Gecko/20100101 Firefox/%s",
			platform, version, version)
	case "edge":
		version := pick(g.rng, chromeVersionPool)
		return fmt.Sprintf("Mozilla/5.0 (%s) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/%s Safari/537.36 Edg/%s",
			platform, version, version)
	default:
		version := pick(g.rng, chromeVersionPool)
		return fmt.Sprintf("Mozilla/5.0 (%s) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/%s Safari/537.36",
			platform, version)
	}
}

// pick selects a pool entry with probability proportional to its weight.
func pick(rng *rand.Rand, pool []weighted) string {
	total := 0
	for _, entry := range pool {
		total += entry.weight
	}

	n := rng.Intn(total)
	for _, entry := range pool {
		n -= entry.weight
		if n < 0 {
			return entry.value
		}
	}
	return pool[len(pool)-1].value
}

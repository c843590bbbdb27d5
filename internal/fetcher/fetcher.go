// Package fetcher downloads page content with per-host serialization,
// request pacing and rate-limit aware retries.
package fetcher

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/jonesrussell/pricewatch/internal/logger"
)

// Status codes handled explicitly.
const (
	statusTooManyReqs = 429
)

// maxResponseBodyBytes limits the size of fetched page responses.
const maxResponseBodyBytes = 10 * 1024 * 1024 // 10 MB

// Fetcher downloads content for URLs. At most one request per host is in
// flight at any time; requests to different hosts proceed in parallel.
type Fetcher struct {
	httpClient *http.Client
	identity   *IdentityGenerator
	log        logger.Interface
	cfg        Config

	mu    sync.Mutex
	gates map[string]*sync.Mutex
}

// New creates a fetcher. The random source feeds browser identity
// generation and is injected to keep instances test-isolated.
func New(cfg Config, rng *rand.Rand, log logger.Interface) *Fetcher {
	cfg = cfg.WithDefaults()
	return &Fetcher{
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		identity:   NewIdentityGenerator(rng),
		log:        log.WithComponent("fetcher"),
		cfg:        cfg,
		gates:      make(map[string]*sync.Mutex),
	}
}

// Fetch downloads the content behind rawURL. Ordinary HTTP-level failures
// (bad status, retry exhaustion, unparseable URL) return ok=false with a
// nil error; only transport-level failures return a non-nil error. Callers
// must not depend on distinguishing the ok=false cases; the reasons are
// observable in logs only.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (content string, ok bool, err error) {
	parsed, parseErr := url.Parse(rawURL)
	if parseErr != nil || parsed.Host == "" {
		f.log.Error("unusable fetch URL", "url", rawURL)
		return "", false, nil
	}

	gate := f.hostGate(parsed.Host)
	gate.Lock()
	defer gate.Unlock()

	for attempt := 1; attempt <= f.cfg.MaxAttempts; attempt++ {
		// Fixed pacing delay before every attempt, retries included.
		if waitErr := sleepContext(ctx, f.cfg.BaseDelay); waitErr != nil {
			return "", false, waitErr
		}

		body, statusCode, attemptErr := f.attempt(ctx, rawURL)
		if attemptErr != nil {
			f.log.Error("fetch transport failure",
				"url", rawURL,
				"error", attemptErr.Error(),
			)
			return "", false, attemptErr
		}

		switch {
		case statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices:
			return body, true, nil
		case statusCode == statusTooManyReqs:
			f.log.Warn("rate limited, backing off",
				"url", rawURL,
				"attempt", attempt,
			)
			backoff := time.Duration(attempt) * f.cfg.BackoffStep
			if waitErr := sleepContext(ctx, backoff); waitErr != nil {
				return "", false, waitErr
			}
		default:
			f.log.Error("unexpected http status",
				"url", rawURL,
				"status", statusCode,
			)
			return "", false, nil
		}
	}

	f.log.Error("fetch attempts exhausted", "url", rawURL, "attempts", f.cfg.MaxAttempts)
	return "", false, nil
}

// hostGate returns the mutex for host, creating it on first use.
func (f *Fetcher) hostGate(host string) *sync.Mutex {
	f.mu.Lock()
	defer f.mu.Unlock()

	gate, exists := f.gates[host]
	if !exists {
		gate = &sync.Mutex{}
		f.gates[host] = gate
	}
	return gate
}

// attempt performs one HTTP GET with a fresh browser identity.
func (f *Fetcher) attempt(ctx context.Context, rawURL string) (body string, statusCode int, err error) {
	req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if reqErr != nil {
		return "", 0, fmt.Errorf("create request: %w", reqErr)
	}

	req.Header.Set("User-Agent", f.identity.UserAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "gzip, deflate")

	resp, doErr := f.httpClient.Do(req)
	if doErr != nil {
		return "", 0, fmt.Errorf("http fetch: %w", doErr)
	}
	defer resp.Body.Close()

	reader, decodeErr := decodeBody(resp)
	if decodeErr != nil {
		return "", resp.StatusCode, fmt.Errorf("decode response body: %w", decodeErr)
	}

	limited := io.LimitReader(reader, maxResponseBodyBytes)

	raw, readErr := io.ReadAll(limited)
	if readErr != nil {
		return "", resp.StatusCode, fmt.Errorf("read response body: %w", readErr)
	}

	return string(raw), resp.StatusCode, nil
}

// decodeBody unwraps gzip/deflate transport compression. Setting
// Accept-Encoding explicitly disables Go's transparent decompression, so
// the response is decoded here.
func decodeBody(resp *http.Response) (io.Reader, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		return gzip.NewReader(resp.Body)
	case "deflate":
		return flate.NewReader(resp.Body), nil
	default:
		return resp.Body, nil
	}
}

// sleepContext sleeps for the given duration or returns early with the
// context's error when it is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

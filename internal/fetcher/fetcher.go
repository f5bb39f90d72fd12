// Package fetcher implements the Content Fetcher (spec §4 C2): a
// retrying HTTP chunk downloader that fetches chunk payloads and diff
// streams from a content-addressed distribution network, with an
// optional on-disk cache keyed by chunk_id.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"

	"yago/internal/logging"
	"yago/internal/yagoerr"
)

// Fetcher retrieves chunk payloads and diff streams over HTTP with
// bounded retries and exponential backoff, per spec §4.4 step 1.
type Fetcher struct {
	baseURL    string
	client     *http.Client
	logger     *slog.Logger
	maxRetries int
	backoff    time.Duration
	cacheDir   string // empty disables the disk cache
	limiter    *rate.Limiter
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithLogger sets the fetcher's logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) { f.logger = l }
}

// WithRetries overrides the attempt count (default 3, per spec §4.4).
func WithRetries(n int) Option {
	return func(f *Fetcher) { f.maxRetries = n }
}

// WithBackoff overrides the base backoff unit (default 500ms, per spec §4.4).
func WithBackoff(d time.Duration) Option {
	return func(f *Fetcher) { f.backoff = d }
}

// WithCacheDir enables a disk cache keyed by chunk_id under dir, shared
// across profiles/versions of one game (SPEC_FULL.md supplement 2,
// grounded on quartermaster's downloader cache).
func WithCacheDir(dir string) Option {
	return func(f *Fetcher) { f.cacheDir = dir }
}

// WithRateLimit caps outbound request starts to r per second with the
// given burst, so a large install doesn't open hundreds of concurrent
// requests against one distribution server at once (spec §5 "bounded
// worker pool" extended to the network edge, not just disk writes).
func WithRateLimit(r rate.Limit, burst int) Option {
	return func(f *Fetcher) { f.limiter = rate.NewLimiter(r, burst) }
}

// New constructs a Fetcher. baseURL is the chunk_base from spec §6;
// downloads are built as baseURL + "/" + download_name.
func New(baseURL string, opts ...Option) *Fetcher {
	f := &Fetcher{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 30 * time.Second, // spec §5: per-attempt deadline >= 30s
		},
		maxRetries: 3,
		backoff:    500 * time.Millisecond,
	}
	for _, o := range opts {
		o(f)
	}
	f.logger = logging.Default(f.logger).With("component", "fetcher")
	return f
}

// FetchChunk retrieves the payload for chunkID, built from the URL
// downloadName (often == chunkID, but not guaranteed per spec §3), making
// up to maxRetries attempts in total with backoff*attempt between them
// (spec §4.4: up to 3 attempts, exponential-backoff 500ms * attempt).
// The disk cache is always keyed by chunkID, matching HasLocalChunk/
// LocalChunk, so a chunk fetched once under any download_name is found
// by every later lookup that only knows its content address.
func (f *Fetcher) FetchChunk(ctx context.Context, chunkID, downloadName string) ([]byte, error) {
	if cached, ok := f.readCache(chunkID); ok {
		return cached, nil
	}

	url := f.baseURL + "/" + downloadName
	payload, err := f.getWithRetry(ctx, url)
	if err != nil {
		return nil, err
	}
	f.writeCache(chunkID, payload)
	return payload, nil
}

// FetchDiff retrieves a binary diff stream from diffURL (spec §4.4 step 1:
// the old_chunk/diff path). Diff streams are not disk-cached; they're
// one-shot inputs to the patch applier.
func (f *Fetcher) FetchDiff(ctx context.Context, diffURL string) ([]byte, error) {
	return f.getWithRetry(ctx, diffURL)
}

func (f *Fetcher) getWithRetry(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= f.maxRetries; attempt++ {
		if f.limiter != nil {
			if err := f.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}
		body, err := f.getOnce(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err
		f.logger.Warn("fetch attempt failed", "url", url, "attempt", attempt, "error", err)
		if attempt == f.maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.backoff * time.Duration(attempt)):
		}
	}
	return nil, yagoerr.Wrap(yagoerr.Network, "fetch "+url, lastErr)
}

func (f *Fetcher) getOnce(ctx context.Context, url string) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

func (f *Fetcher) readCache(chunkID string) ([]byte, bool) {
	if f.cacheDir == "" {
		return nil, false
	}
	b, err := os.ReadFile(f.cachePath(chunkID))
	if err != nil {
		return nil, false
	}
	return b, true
}

func (f *Fetcher) writeCache(chunkID string, payload []byte) {
	if f.cacheDir == "" {
		return
	}
	path := f.cachePath(chunkID)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		f.logger.Warn("cache mkdir failed", "error", err)
		return
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o640); err != nil {
		f.logger.Warn("cache write failed", "error", err)
		return
	}
	if err := os.Rename(tmp, path); err != nil {
		f.logger.Warn("cache rename failed", "error", err)
	}
}

func (f *Fetcher) cachePath(chunkID string) string {
	return filepath.Join(f.cacheDir, chunkID)
}

// HasLocalChunk reports whether chunkID is present in the disk cache,
// used by the orchestrator to decide whether a PatchSource's old chunk
// is available locally (spec §4.4 step 1).
func (f *Fetcher) HasLocalChunk(chunkID string) bool {
	if f.cacheDir == "" {
		return false
	}
	_, err := os.Stat(f.cachePath(chunkID))
	return err == nil
}

// LocalChunk reads a cached chunk's payload by ID.
func (f *Fetcher) LocalChunk(chunkID string) ([]byte, error) {
	b, err := os.ReadFile(f.cachePath(chunkID))
	if err != nil {
		return nil, fmt.Errorf("read local chunk %s: %w", chunkID, err)
	}
	return b, nil
}

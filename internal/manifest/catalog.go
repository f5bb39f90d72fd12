package manifest

import (
	"context"
	"net/http"
	"sync"

	"yago/internal/yagoerr"
)

// FetchFunc retrieves and decodes the manifest at url. Production code
// backs this with Fetch; tests can substitute a stub.
type FetchFunc func(ctx context.Context, url string) (*Manifest, error)

// Catalog fetches manifests from a set of URLs and caches them by
// VersionTag, so a caller (the Chunk Orchestrator) can be handed an
// already-resolved []*Manifest without re-fetching one per sibling
// install that targets the same version. Methods are safe for
// concurrent use.
type Catalog struct {
	mu    sync.RWMutex
	cache map[string]*Manifest // by VersionTag
	byURL map[string]string    // url -> VersionTag, for repeat requests of the same URL
	fetch FetchFunc
}

// NewCatalog builds a Catalog backed by Fetch over client. client may
// be nil, in which case http.DefaultClient is used.
func NewCatalog(client *http.Client) *Catalog {
	return newCatalog(func(ctx context.Context, url string) (*Manifest, error) {
		return Fetch(ctx, url, client)
	})
}

// NewCatalogWithFetcher builds a Catalog backed by a caller-supplied
// FetchFunc, for tests that don't want to hit the network.
func NewCatalogWithFetcher(fetch FetchFunc) *Catalog {
	return newCatalog(fetch)
}

func newCatalog(fetch FetchFunc) *Catalog {
	return &Catalog{
		cache: make(map[string]*Manifest),
		byURL: make(map[string]string),
		fetch: fetch,
	}
}

// Resolve returns one *Manifest per url, in the same order. A url
// resolved before is served from the cache without a fetch; any other
// url is fetched, and if its VersionTag is already cached (under any
// prior URL) the cached manifest is returned in place of the new one.
func (c *Catalog) Resolve(ctx context.Context, urls []string) ([]*Manifest, error) {
	out := make([]*Manifest, len(urls))
	for i, url := range urls {
		m, err := c.resolveOne(ctx, url)
		if err != nil {
			return nil, yagoerr.Wrap(yagoerr.Network, "resolve manifest "+url, err)
		}
		out[i] = m
	}
	return out, nil
}

// resolveOne returns the cached manifest for url's last-seen
// VersionTag if one exists, otherwise fetches url and folds the result
// into both caches. A fetch that turns out to share a VersionTag
// already held under a different URL reuses the existing manifest
// rather than keeping both.
func (c *Catalog) resolveOne(ctx context.Context, url string) (*Manifest, error) {
	c.mu.RLock()
	if tag, ok := c.byURL[url]; ok {
		if m, ok := c.cache[tag]; ok {
			c.mu.RUnlock()
			return m, nil
		}
	}
	c.mu.RUnlock()

	m, err := c.fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.cache[m.VersionTag]; ok {
		c.byURL[url] = existing.VersionTag
		return existing, nil
	}
	c.cache[m.VersionTag] = m
	c.byURL[url] = m.VersionTag
	return m, nil
}

// Get returns the cached manifest for versionTag, if any.
func (c *Catalog) Get(versionTag string) (*Manifest, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.cache[versionTag]
	return m, ok
}

// Invalidate drops every cached manifest, forcing the next Resolve to
// re-fetch.
func (c *Catalog) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]*Manifest)
	c.byURL = make(map[string]string)
}

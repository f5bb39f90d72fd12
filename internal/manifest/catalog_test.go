package manifest

import (
	"context"
	"errors"
	"testing"

	"yago/internal/yagoerr"
)

func TestCatalogResolveCachesByVersionTag(t *testing.T) {
	calls := 0
	cat := NewCatalogWithFetcher(func(ctx context.Context, url string) (*Manifest, error) {
		calls++
		return &Manifest{VersionTag: "v1"}, nil
	})

	urls := []string{"https://example.test/a.manifest", "https://example.test/b.manifest"}
	ms, err := cat.Resolve(context.Background(), urls)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(ms) != 2 || ms[0] != ms[1] {
		t.Fatalf("expected both urls to resolve to the same cached manifest, got %+v", ms)
	}
	if calls != 2 {
		t.Fatalf("expected one fetch per distinct url on first resolve, got %d calls", calls)
	}

	if _, err := cat.Resolve(context.Background(), urls); err != nil {
		t.Fatalf("Resolve (second pass): %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected repeat urls to hit the cache, got %d calls", calls)
	}
}

func TestCatalogResolveWrapsFetchFailureAsNetworkError(t *testing.T) {
	cat := NewCatalogWithFetcher(func(ctx context.Context, url string) (*Manifest, error) {
		return nil, errors.New("connection refused")
	})

	_, err := cat.Resolve(context.Background(), []string{"https://example.test/a.manifest"})
	if code, ok := yagoerr.CodeOf(err); !ok || code != yagoerr.Network {
		t.Fatalf("expected Network yagoerr, got %v", err)
	}
}

func TestCatalogGetAndInvalidate(t *testing.T) {
	cat := NewCatalogWithFetcher(func(ctx context.Context, url string) (*Manifest, error) {
		return &Manifest{VersionTag: "v1"}, nil
	})

	if _, ok := cat.Get("v1"); ok {
		t.Fatalf("expected no cache entry before Resolve")
	}
	if _, err := cat.Resolve(context.Background(), []string{"https://example.test/a.manifest"}); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if _, ok := cat.Get("v1"); !ok {
		t.Fatalf("expected cache entry after Resolve")
	}

	cat.Invalidate()
	if _, ok := cat.Get("v1"); ok {
		t.Fatalf("expected cache cleared after Invalidate")
	}
}

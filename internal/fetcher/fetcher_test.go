package fetcher

import (
	"context"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"yago/internal/fetcher/fetchertest"
)

func TestFetchChunkSuccess(t *testing.T) {
	srv := fetchertest.New()
	defer srv.Close()
	srv.Set("abc123", []byte("hello"))

	f := New(srv.BaseURL(), WithBackoff(time.Millisecond))
	got, err := f.FetchChunk(context.Background(), "abc123", "abc123")
	if err != nil {
		t.Fatalf("FetchChunk: %v", err)
	}
	if string(got) != "hello" {
		t.Fatalf("got %q", got)
	}
}

func TestFetchChunkRecoversFromTransient500(t *testing.T) {
	srv := fetchertest.New()
	defer srv.Close()
	srv.Set("c", []byte("payload"))
	srv.FailNTimes("c", 1)

	f := New(srv.BaseURL(), WithBackoff(time.Millisecond))
	got, err := f.FetchChunk(context.Background(), "c", "c")
	if err != nil {
		t.Fatalf("FetchChunk: %v", err)
	}
	if string(got) != "payload" {
		t.Fatalf("got %q", got)
	}
	if srv.Attempts("c") != 2 {
		t.Fatalf("expected 2 attempts, got %d", srv.Attempts("c"))
	}
}

func TestFetchChunkExhaustsRetries(t *testing.T) {
	srv := fetchertest.New()
	defer srv.Close()
	srv.Set("c", []byte("payload"))
	srv.FailNTimes("c", 10)

	f := New(srv.BaseURL(), WithBackoff(time.Millisecond), WithRetries(3))
	_, err := f.FetchChunk(context.Background(), "c", "c")
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if srv.Attempts("c") != 3 {
		t.Fatalf("expected 3 attempts, got %d", srv.Attempts("c"))
	}
}

func TestFetchChunkDiskCache(t *testing.T) {
	srv := fetchertest.New()
	defer srv.Close()
	srv.Set("c", []byte("payload"))

	dir := t.TempDir()
	f := New(srv.BaseURL(), WithBackoff(time.Millisecond), WithCacheDir(dir))

	if _, err := f.FetchChunk(context.Background(), "c", "c"); err != nil {
		t.Fatalf("FetchChunk: %v", err)
	}
	if !f.HasLocalChunk("c") {
		t.Fatal("expected chunk cached on disk")
	}

	// Second fetch should come from cache, no new HTTP attempt.
	if _, err := f.FetchChunk(context.Background(), "c", "c"); err != nil {
		t.Fatalf("FetchChunk (cached): %v", err)
	}
	if srv.Attempts("c") != 1 {
		t.Fatalf("expected 1 HTTP attempt, got %d", srv.Attempts("c"))
	}
}

func TestFetchChunkRespectsRateLimit(t *testing.T) {
	srv := fetchertest.New()
	defer srv.Close()
	srv.Set("c", []byte("payload"))

	f := New(srv.BaseURL(), WithBackoff(time.Millisecond), WithRateLimit(rate.Limit(1), 1))

	start := time.Now()
	if _, err := f.FetchChunk(context.Background(), "c", "c"); err != nil {
		t.Fatalf("FetchChunk: %v", err)
	}
	if _, err := f.FetchChunk(context.Background(), "c", "c"); err != nil {
		t.Fatalf("FetchChunk: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 500*time.Millisecond {
		t.Fatalf("expected second fetch to wait for a token, took %v", elapsed)
	}
}

func TestFetchChunkCachesByChunkIDNotDownloadName(t *testing.T) {
	srv := fetchertest.New()
	defer srv.Close()
	srv.Set("deadbeef.bin", []byte("payload"))

	dir := t.TempDir()
	f := New(srv.BaseURL(), WithBackoff(time.Millisecond), WithCacheDir(dir))

	// download_name differs from chunk_id (spec §3: "often equal to", not
	// guaranteed). The cache must still be keyed by chunk_id so
	// HasLocalChunk/LocalChunk, which only ever see chunk_id, find it.
	if _, err := f.FetchChunk(context.Background(), "deadbeef", "deadbeef.bin"); err != nil {
		t.Fatalf("FetchChunk: %v", err)
	}
	if !f.HasLocalChunk("deadbeef") {
		t.Fatal("expected chunk cached under chunk_id, not download_name")
	}
	local, err := f.LocalChunk("deadbeef")
	if err != nil {
		t.Fatalf("LocalChunk: %v", err)
	}
	if string(local) != "payload" {
		t.Fatalf("got %q", local)
	}

	// A second fetch under the same chunk_id (even with a different
	// download_name, as could happen across versions) must hit the cache.
	if _, err := f.FetchChunk(context.Background(), "deadbeef", "deadbeef-v2.bin"); err != nil {
		t.Fatalf("FetchChunk (cached): %v", err)
	}
	if srv.Attempts("deadbeef.bin") != 1 {
		t.Fatalf("expected 1 HTTP attempt, got %d", srv.Attempts("deadbeef.bin"))
	}
}

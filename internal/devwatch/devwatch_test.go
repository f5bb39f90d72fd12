package devwatch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestWatcherDebouncesBurstOfWrites(t *testing.T) {
	dir := t.TempDir()
	w, err := New([]string{dir}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()
	w.debounce = 50 * time.Millisecond

	var calls int32
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx, func() { atomic.AddInt32(&calls, 1) })
		close(done)
	}()

	for i := 0; i < 5; i++ {
		if err := os.WriteFile(filepath.Join(dir, "mod.ini"), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(200 * time.Millisecond)
	cancel()
	<-done

	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("expected exactly 1 debounced call, got %d", calls)
	}
}

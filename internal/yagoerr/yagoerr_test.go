package yagoerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestCodeOf(t *testing.T) {
	base := errors.New("boom")
	err := Wrap(Network, "fetch chunk", base)

	wrapped := fmt.Errorf("download chunk abc: %w", err)

	code, ok := CodeOf(wrapped)
	if !ok || code != Network {
		t.Fatalf("CodeOf = %v, %v; want Network, true", code, ok)
	}
	if !Is(wrapped, Network) {
		t.Fatal("Is(wrapped, Network) = false")
	}
	if Is(wrapped, Integrity) {
		t.Fatal("Is(wrapped, Integrity) = true")
	}
	if !errors.Is(err, base) {
		t.Fatal("expected Unwrap chain to reach base error")
	}
}

func TestCodeOfPlainError(t *testing.T) {
	if _, ok := CodeOf(errors.New("plain")); ok {
		t.Fatal("expected ok=false for a plain error")
	}
}

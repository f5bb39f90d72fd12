package bsdiff

import (
	"bytes"
	"testing"
)

func TestDiffApplyRoundTrip(t *testing.T) {
	old := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog"), 4)
	new := append([]byte("PREFIX-"), old...)
	new = append(new, []byte("-SUFFIX")...)

	patch := Diff(old, new)
	got, err := ApplyToBytes(old, patch)
	if err != nil {
		t.Fatalf("ApplyToBytes: %v", err)
	}
	if !bytes.Equal(got, new) {
		t.Fatalf("round trip mismatch:\nwant %q\ngot  %q", new, got)
	}
}

func TestDiffApplyIdentical(t *testing.T) {
	data := []byte("identical payload, no changes at all here")
	patch := Diff(data, data)
	got, err := ApplyToBytes(data, patch)
	if err != nil {
		t.Fatalf("ApplyToBytes: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("mismatch: got %q", got)
	}
}

func TestApplyRejectsOutOfRangeCopy(t *testing.T) {
	old := []byte("short")
	// opCopy offset=0, length=100 — exceeds old payload.
	bad := []byte{byte(opCopy), 0, 100}
	if _, err := ApplyToBytes(old, bad); err == nil {
		t.Fatal("expected error for out-of-range copy")
	}
}

package scanner

import (
	"crypto/md5" //nolint:gosec // test fixture content addressing
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"yago/internal/manifest"
)

func id(b []byte) string {
	sum := md5.Sum(b)
	return hex.EncodeToString(sum[:])
}

func TestScanDetectsMissingWrongSizeAndBadContent(t *testing.T) {
	dir := t.TempDir()
	good := []byte("correct-content")
	m := &manifest.Manifest{
		Files: []manifest.FileRecord{
			{RelativePath: "missing.dat", Size: 5, Chunks: []manifest.ChunkRef{{ChunkID: "x", Size: 5}}},
			{RelativePath: "wrongsize.dat", Size: 100, Chunks: []manifest.ChunkRef{{ChunkID: "x", Size: 100}}},
			{RelativePath: "badcontent.dat", Size: uint64(len(good)), Chunks: []manifest.ChunkRef{
				{ChunkID: id([]byte("not what is on disk")), Offset: 0, Size: uint64(len(good))},
			}},
			{RelativePath: "ok.dat", Size: uint64(len(good)), Chunks: []manifest.ChunkRef{
				{ChunkID: id(good), Offset: 0, Size: uint64(len(good))},
			}},
		},
	}

	if err := os.WriteFile(filepath.Join(dir, "wrongsize.dat"), []byte("short"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "badcontent.dat"), good, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "ok.dat"), good, 0o644); err != nil {
		t.Fatal(err)
	}

	divs, err := Scan(dir, []*manifest.Manifest{m}, true)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	byPath := make(map[string]Divergence)
	for _, d := range divs {
		byPath[d.RelativePath] = d
	}

	if byPath["missing.dat"].Reason != ReasonMissing {
		t.Errorf("missing.dat: got %+v", byPath["missing.dat"])
	}
	if byPath["wrongsize.dat"].Reason != ReasonWrongSize {
		t.Errorf("wrongsize.dat: got %+v", byPath["wrongsize.dat"])
	}
	if byPath["badcontent.dat"].Reason != ReasonBadContent {
		t.Errorf("badcontent.dat: got %+v", byPath["badcontent.dat"])
	}
	if _, ok := byPath["ok.dat"]; ok {
		t.Errorf("ok.dat should not diverge, got %+v", byPath["ok.dat"])
	}
}

func TestScanShallowSkipsContentCheck(t *testing.T) {
	dir := t.TempDir()
	m := &manifest.Manifest{
		Files: []manifest.FileRecord{
			{RelativePath: "f.dat", Size: 4, Chunks: []manifest.ChunkRef{{ChunkID: "wrong", Offset: 0, Size: 4}}},
		},
	}
	if err := os.WriteFile(filepath.Join(dir, "f.dat"), []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}

	divs, err := Scan(dir, []*manifest.Manifest{m}, false)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(divs) != 0 {
		t.Fatalf("expected shallow scan to ignore content mismatch, got %+v", divs)
	}
}

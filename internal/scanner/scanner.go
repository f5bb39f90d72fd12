// Package scanner implements the Scanner/Verifier (spec §4 C5): walks an
// installation directory against a set of manifests and produces a
// divergence set describing what doesn't match.
package scanner

import (
	"crypto/md5" //nolint:gosec // content address, not a security boundary
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"yago/internal/manifest"
)

// Reason categorizes why a file diverges from its manifest record.
type Reason string

const (
	ReasonMissing    Reason = "missing"     // file absent
	ReasonWrongSize  Reason = "wrong_size"  // file present, length != declared size
	ReasonBadContent Reason = "bad_content" // file present, size correct, a chunk's bytes don't hash to its chunk_id
)

// Divergence names one file that does not match its manifest record.
type Divergence struct {
	RelativePath string
	Reason       Reason
	ChunkID      string // set when Reason == ReasonBadContent
}

// Scan walks every FileRecord across manifests against dir and returns
// the divergence set. When deep is false, only existence and declared
// size are checked (cheap, metadata-only — matches the Chunk
// Orchestrator's own fast-check). When deep is true, every chunk's byte
// range is hashed and compared to its chunk_id.
func Scan(dir string, manifests []*manifest.Manifest, deep bool) ([]Divergence, error) {
	var divergences []Divergence

	seen := make(map[string]manifest.FileRecord)
	for _, m := range manifests {
		for _, f := range m.Files {
			seen[f.RelativePath] = f
		}
	}

	for rel, f := range seen {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		info, err := os.Stat(path)
		if err != nil {
			divergences = append(divergences, Divergence{RelativePath: rel, Reason: ReasonMissing})
			continue
		}
		if uint64(info.Size()) != f.Size {
			divergences = append(divergences, Divergence{RelativePath: rel, Reason: ReasonWrongSize})
			continue
		}
		if !deep {
			continue
		}
		if d, err := scanChunks(path, f); err != nil {
			return nil, err
		} else if d != nil {
			divergences = append(divergences, *d)
		}
	}

	return divergences, nil
}

func scanChunks(path string, f manifest.FileRecord) (*Divergence, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	for _, c := range f.Chunks {
		buf := make([]byte, c.Size)
		if _, err := file.ReadAt(buf, int64(c.Offset)); err != nil {
			return nil, fmt.Errorf("read %s at %d: %w", path, c.Offset, err)
		}
		sum := md5.Sum(buf)
		got := hex.EncodeToString(sum[:])
		if !strings.EqualFold(got, c.ChunkID) {
			return &Divergence{RelativePath: f.RelativePath, Reason: ReasonBadContent, ChunkID: c.ChunkID}, nil
		}
	}
	return nil, nil
}

// Package manifest implements the Manifest Model (spec §3, §4 C1): an
// immutable, per-version description of a game installation's files and
// their content-addressed chunks.
//
// The wire format (spec §6) is a zstd-compressed, length-prefixed,
// protobuf-shaped payload. Field layout is treated as opaque beyond the
// parse-into-Manifest contract, so Decode/Encode below hand-roll the wire
// walk with protowire rather than depending on a generated .proto message.
package manifest

import (
	"fmt"
	"sort"

	"google.golang.org/protobuf/encoding/protowire"
)

// CategoryID identifies a selectable install category (e.g. voice packs).
type CategoryID string

// ChunkRef is one content-addressed byte range of a file.
//
// Invariant: two ChunkRefs with equal ChunkID have identical payloads.
type ChunkRef struct {
	ChunkID      string // lowercase hex content address
	DownloadName string // name used to build the download URL; often == ChunkID
	Offset       uint64 // offset into the owning file
	Size         uint64
}

// FileRecord describes one file in a version: its declared total size and
// the ordered chunks that cover it.
//
// Invariant: sum(chunk.Size) == Size, and chunks cover [0, Size) with
// strictly increasing, non-overlapping offsets.
type FileRecord struct {
	RelativePath string // POSIX-normalized
	Size         uint64
	Category     CategoryID // empty if uncategorized
	Chunks       []ChunkRef
}

// Category is a selectable install category.
type Category struct {
	ID         CategoryID
	Name       string
	Selectable bool
}

// ChunkDiff describes a binary diff from one chunk's content to another's.
type ChunkDiff struct {
	OldChunkID string
	NewChunkID string
	DiffURL    string
}

// DiffEdge is the set of chunk diffs available between two versions.
type DiffEdge struct {
	FromVersion string
	ToVersion   string
	Diffs       []ChunkDiff
}

// Manifest is the immutable, authoritative description of one game version.
type Manifest struct {
	VersionTag string
	Files      []FileRecord
	Categories []Category
	DiffEdges  []DiffEdge
}

// Validate checks the structural invariants spec §3 requires of a parsed
// Manifest: contiguous, non-overlapping chunk coverage per file.
func (m *Manifest) Validate() error {
	for _, f := range m.Files {
		var sum uint64
		var lastEnd uint64
		for i, c := range f.Chunks {
			if i > 0 && c.Offset < lastEnd {
				return fmt.Errorf("manifest: file %q chunk %d overlaps or is out of order (offset %d < %d)", f.RelativePath, i, c.Offset, lastEnd)
			}
			if c.Offset != sum {
				return fmt.Errorf("manifest: file %q chunk %d has a gap (offset %d, expected %d)", f.RelativePath, i, c.Offset, sum)
			}
			sum += c.Size
			lastEnd = c.Offset + c.Size
		}
		if sum != f.Size {
			return fmt.Errorf("manifest: file %q chunk sizes sum to %d, declared size is %d", f.RelativePath, sum, f.Size)
		}
	}
	return nil
}

// DiffEdgeFor returns the ChunkDiffs available from fromVersion to
// m.VersionTag, if any, keyed by new_chunk_id for O(1) lookup during
// planning.
func (m *Manifest) DiffEdgeFor(fromVersion string) map[string]ChunkDiff {
	out := make(map[string]ChunkDiff)
	for _, e := range m.DiffEdges {
		if e.FromVersion != fromVersion || e.ToVersion != m.VersionTag {
			continue
		}
		for _, d := range e.Diffs {
			out[d.NewChunkID] = d
		}
	}
	return out
}

// Wire field numbers. These are internal to yago; the spec treats the
// layout as opaque beyond the parse contract, so any stable, self-consistent
// assignment satisfies it.
const (
	fieldManifestVersionTag  = 1
	fieldManifestFiles       = 2
	fieldManifestCategories  = 3
	fieldManifestDiffEdges   = 4
	fieldFileRelativePath    = 1
	fieldFileSize            = 2
	fieldFileCategory        = 3
	fieldFileChunks          = 4
	fieldChunkID             = 1
	fieldChunkDownloadName   = 2
	fieldChunkOffset         = 3
	fieldChunkSize           = 4
	fieldCategoryID          = 1
	fieldCategoryName        = 2
	fieldCategorySelectable  = 3
	fieldDiffEdgeFrom        = 1
	fieldDiffEdgeTo          = 2
	fieldDiffEdgeDiffs       = 3
	fieldChunkDiffOld        = 1
	fieldChunkDiffNew        = 2
	fieldChunkDiffURL        = 3
)

// Decode parses the length-prefixed, protobuf-shaped manifest body
// (already zstd-decompressed by the caller; see Fetch in fetch.go).
func Decode(b []byte) (*Manifest, error) {
	m := &Manifest{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("manifest: bad tag: %w", protowire.ParseError(n))
		}
		b = b[n:]

		switch num {
		case fieldManifestVersionTag:
			v, n, err := consumeString(b, typ)
			if err != nil {
				return nil, err
			}
			m.VersionTag = v
			b = b[n:]
		case fieldManifestFiles:
			msg, n, err := consumeBytes(b, typ)
			if err != nil {
				return nil, err
			}
			f, err := decodeFileRecord(msg)
			if err != nil {
				return nil, err
			}
			m.Files = append(m.Files, f)
			b = b[n:]
		case fieldManifestCategories:
			msg, n, err := consumeBytes(b, typ)
			if err != nil {
				return nil, err
			}
			c, err := decodeCategory(msg)
			if err != nil {
				return nil, err
			}
			m.Categories = append(m.Categories, c)
			b = b[n:]
		case fieldManifestDiffEdges:
			msg, n, err := consumeBytes(b, typ)
			if err != nil {
				return nil, err
			}
			e, err := decodeDiffEdge(msg)
			if err != nil {
				return nil, err
			}
			m.DiffEdges = append(m.DiffEdges, e)
			b = b[n:]
		default:
			n := skipField(b, typ)
			if n < 0 {
				return nil, fmt.Errorf("manifest: cannot skip unknown field %d", num)
			}
			b = b[n:]
		}
	}
	return m, nil
}

func decodeFileRecord(b []byte) (FileRecord, error) {
	var f FileRecord
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return f, fmt.Errorf("manifest: bad FileRecord tag: %w", protowire.ParseError(n))
		}
		b = b[n:]
		switch num {
		case fieldFileRelativePath:
			v, n, err := consumeString(b, typ)
			if err != nil {
				return f, err
			}
			f.RelativePath = v
			b = b[n:]
		case fieldFileSize:
			v, n, err := consumeVarint(b, typ)
			if err != nil {
				return f, err
			}
			f.Size = v
			b = b[n:]
		case fieldFileCategory:
			v, n, err := consumeString(b, typ)
			if err != nil {
				return f, err
			}
			f.Category = CategoryID(v)
			b = b[n:]
		case fieldFileChunks:
			msg, n, err := consumeBytes(b, typ)
			if err != nil {
				return f, err
			}
			c, err := decodeChunkRef(msg)
			if err != nil {
				return f, err
			}
			f.Chunks = append(f.Chunks, c)
			b = b[n:]
		default:
			n := skipField(b, typ)
			if n < 0 {
				return f, fmt.Errorf("manifest: cannot skip unknown FileRecord field %d", num)
			}
			b = b[n:]
		}
	}
	return f, nil
}

func decodeChunkRef(b []byte) (ChunkRef, error) {
	var c ChunkRef
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return c, fmt.Errorf("manifest: bad ChunkRef tag: %w", protowire.ParseError(n))
		}
		b = b[n:]
		switch num {
		case fieldChunkID:
			v, n, err := consumeString(b, typ)
			if err != nil {
				return c, err
			}
			c.ChunkID = v
			b = b[n:]
		case fieldChunkDownloadName:
			v, n, err := consumeString(b, typ)
			if err != nil {
				return c, err
			}
			c.DownloadName = v
			b = b[n:]
		case fieldChunkOffset:
			v, n, err := consumeVarint(b, typ)
			if err != nil {
				return c, err
			}
			c.Offset = v
			b = b[n:]
		case fieldChunkSize:
			v, n, err := consumeVarint(b, typ)
			if err != nil {
				return c, err
			}
			c.Size = v
			b = b[n:]
		default:
			n := skipField(b, typ)
			if n < 0 {
				return c, fmt.Errorf("manifest: cannot skip unknown ChunkRef field %d", num)
			}
			b = b[n:]
		}
	}
	return c, nil
}

func decodeCategory(b []byte) (Category, error) {
	var c Category
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return c, fmt.Errorf("manifest: bad Category tag: %w", protowire.ParseError(n))
		}
		b = b[n:]
		switch num {
		case fieldCategoryID:
			v, n, err := consumeString(b, typ)
			if err != nil {
				return c, err
			}
			c.ID = CategoryID(v)
			b = b[n:]
		case fieldCategoryName:
			v, n, err := consumeString(b, typ)
			if err != nil {
				return c, err
			}
			c.Name = v
			b = b[n:]
		case fieldCategorySelectable:
			v, n, err := consumeVarint(b, typ)
			if err != nil {
				return c, err
			}
			c.Selectable = v != 0
			b = b[n:]
		default:
			n := skipField(b, typ)
			if n < 0 {
				return c, fmt.Errorf("manifest: cannot skip unknown Category field %d", num)
			}
			b = b[n:]
		}
	}
	return c, nil
}

func decodeDiffEdge(b []byte) (DiffEdge, error) {
	var e DiffEdge
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return e, fmt.Errorf("manifest: bad DiffEdge tag: %w", protowire.ParseError(n))
		}
		b = b[n:]
		switch num {
		case fieldDiffEdgeFrom:
			v, n, err := consumeString(b, typ)
			if err != nil {
				return e, err
			}
			e.FromVersion = v
			b = b[n:]
		case fieldDiffEdgeTo:
			v, n, err := consumeString(b, typ)
			if err != nil {
				return e, err
			}
			e.ToVersion = v
			b = b[n:]
		case fieldDiffEdgeDiffs:
			msg, n, err := consumeBytes(b, typ)
			if err != nil {
				return e, err
			}
			d, err := decodeChunkDiff(msg)
			if err != nil {
				return e, err
			}
			e.Diffs = append(e.Diffs, d)
			b = b[n:]
		default:
			n := skipField(b, typ)
			if n < 0 {
				return e, fmt.Errorf("manifest: cannot skip unknown DiffEdge field %d", num)
			}
			b = b[n:]
		}
	}
	return e, nil
}

func decodeChunkDiff(b []byte) (ChunkDiff, error) {
	var d ChunkDiff
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return d, fmt.Errorf("manifest: bad ChunkDiff tag: %w", protowire.ParseError(n))
		}
		b = b[n:]
		switch num {
		case fieldChunkDiffOld:
			v, n, err := consumeString(b, typ)
			if err != nil {
				return d, err
			}
			d.OldChunkID = v
			b = b[n:]
		case fieldChunkDiffNew:
			v, n, err := consumeString(b, typ)
			if err != nil {
				return d, err
			}
			d.NewChunkID = v
			b = b[n:]
		case fieldChunkDiffURL:
			v, n, err := consumeString(b, typ)
			if err != nil {
				return d, err
			}
			d.DiffURL = v
			b = b[n:]
		default:
			n := skipField(b, typ)
			if n < 0 {
				return d, fmt.Errorf("manifest: cannot skip unknown ChunkDiff field %d", num)
			}
			b = b[n:]
		}
	}
	return d, nil
}

func consumeVarint(b []byte, typ protowire.Type) (uint64, int, error) {
	if typ != protowire.VarintType {
		return 0, 0, fmt.Errorf("manifest: expected varint, got wire type %d", typ)
	}
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, 0, fmt.Errorf("manifest: bad varint: %w", protowire.ParseError(n))
	}
	return v, n, nil
}

func consumeBytes(b []byte, typ protowire.Type) ([]byte, int, error) {
	if typ != protowire.BytesType {
		return nil, 0, fmt.Errorf("manifest: expected length-delimited, got wire type %d", typ)
	}
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return nil, 0, fmt.Errorf("manifest: bad length-delimited field: %w", protowire.ParseError(n))
	}
	return v, n, nil
}

func consumeString(b []byte, typ protowire.Type) (string, int, error) {
	v, n, err := consumeBytes(b, typ)
	if err != nil {
		return "", 0, err
	}
	return string(v), n, nil
}

func skipField(b []byte, typ protowire.Type) int {
	return protowire.ConsumeFieldValue(0, typ, b)
}

// Encode serializes m back to the wire form Decode accepts, for authoring
// manifest fixtures; nothing in this module calls it. Production manifests
// are authored by the content distribution server, not by yago.
func Encode(m *Manifest) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldManifestVersionTag, protowire.BytesType)
	b = protowire.AppendString(b, m.VersionTag)
	for _, f := range m.Files {
		b = protowire.AppendTag(b, fieldManifestFiles, protowire.BytesType)
		b = protowire.AppendBytes(b, encodeFileRecord(f))
	}
	for _, c := range m.Categories {
		b = protowire.AppendTag(b, fieldManifestCategories, protowire.BytesType)
		b = protowire.AppendBytes(b, encodeCategory(c))
	}
	for _, e := range m.DiffEdges {
		b = protowire.AppendTag(b, fieldManifestDiffEdges, protowire.BytesType)
		b = protowire.AppendBytes(b, encodeDiffEdge(e))
	}
	return b
}

func encodeFileRecord(f FileRecord) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldFileRelativePath, protowire.BytesType)
	b = protowire.AppendString(b, f.RelativePath)
	b = protowire.AppendTag(b, fieldFileSize, protowire.VarintType)
	b = protowire.AppendVarint(b, f.Size)
	if f.Category != "" {
		b = protowire.AppendTag(b, fieldFileCategory, protowire.BytesType)
		b = protowire.AppendString(b, string(f.Category))
	}
	for _, c := range f.Chunks {
		b = protowire.AppendTag(b, fieldFileChunks, protowire.BytesType)
		b = protowire.AppendBytes(b, encodeChunkRef(c))
	}
	return b
}

func encodeChunkRef(c ChunkRef) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldChunkID, protowire.BytesType)
	b = protowire.AppendString(b, c.ChunkID)
	b = protowire.AppendTag(b, fieldChunkDownloadName, protowire.BytesType)
	b = protowire.AppendString(b, c.DownloadName)
	b = protowire.AppendTag(b, fieldChunkOffset, protowire.VarintType)
	b = protowire.AppendVarint(b, c.Offset)
	b = protowire.AppendTag(b, fieldChunkSize, protowire.VarintType)
	b = protowire.AppendVarint(b, c.Size)
	return b
}

func encodeCategory(c Category) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldCategoryID, protowire.BytesType)
	b = protowire.AppendString(b, string(c.ID))
	b = protowire.AppendTag(b, fieldCategoryName, protowire.BytesType)
	b = protowire.AppendString(b, c.Name)
	b = protowire.AppendTag(b, fieldCategorySelectable, protowire.VarintType)
	if c.Selectable {
		b = protowire.AppendVarint(b, 1)
	} else {
		b = protowire.AppendVarint(b, 0)
	}
	return b
}

func encodeDiffEdge(e DiffEdge) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldDiffEdgeFrom, protowire.BytesType)
	b = protowire.AppendString(b, e.FromVersion)
	b = protowire.AppendTag(b, fieldDiffEdgeTo, protowire.BytesType)
	b = protowire.AppendString(b, e.ToVersion)
	for _, d := range e.Diffs {
		b = protowire.AppendTag(b, fieldDiffEdgeDiffs, protowire.BytesType)
		b = protowire.AppendBytes(b, encodeChunkDiff(d))
	}
	return b
}

func encodeChunkDiff(d ChunkDiff) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldChunkDiffOld, protowire.BytesType)
	b = protowire.AppendString(b, d.OldChunkID)
	b = protowire.AppendTag(b, fieldChunkDiffNew, protowire.BytesType)
	b = protowire.AppendString(b, d.NewChunkID)
	b = protowire.AppendTag(b, fieldChunkDiffURL, protowire.BytesType)
	b = protowire.AppendString(b, d.DiffURL)
	return b
}

// sortedCategoryIDs returns the IDs of cats in lexical order. It has no
// callers in this module.
func sortedCategoryIDs(cats []Category) []string {
	ids := make([]string, len(cats))
	for i, c := range cats {
		ids[i] = string(c.ID)
	}
	sort.Strings(ids)
	return ids
}

package orchestrator

import "yago/internal/manifest"

// TargetLocation names one place a chunk's payload must be written:
// a file, relative to the install target directory, and the byte
// offset within it (spec §3 ChunkWork).
type TargetLocation struct {
	RelativePath string
	Offset       uint64
}

// PatchSource describes a cheaper-than-full-fetch path for a chunk:
// applying diff_url's patch stream to a locally available old chunk
// yields this chunk's payload (spec §3, §4.4 step 1).
type PatchSource struct {
	OldChunkID string
	DiffURL    string
}

// ChunkWork is the orchestrator's internal deduplication unit: one per
// unique chunk_id across every manifest being installed, carrying every
// TargetLocation that needs its payload (spec §3, §4.4 "plan").
type ChunkWork struct {
	ChunkID      string
	DownloadName string
	Size         uint64
	Targets      []TargetLocation
	Patch        *PatchSource
}

// Plan is the flat, deduplicated output of planning an install (spec
// §4.4 "plan(manifests) -> (works, total_bytes)").
type Plan struct {
	Works      []*ChunkWork
	TotalBytes uint64
}

// Plan deduplicates every chunk referenced by manifests into one
// ChunkWork per unique chunk_id, across every file of every manifest.
// Deduplication is exact by content hash (spec §8 invariant): writing a
// chunk's payload once and seeking into each target fulfills all
// references to that chunk_id.
//
// fromVersion, if non-empty, is the version currently installed; it is
// used to look up ChunkDiffs so each ChunkWork can optionally carry a
// PatchSource. Whether the old chunk is actually available locally is
// decided at fetch time (the Content Fetcher's disk cache), not here —
// Plan is pure over the manifest data.
func Plan(manifests []*manifest.Manifest, fromVersion string) *Plan {
	index := make(map[string]*ChunkWork)
	order := make([]string, 0)

	for _, m := range manifests {
		diffs := map[string]manifest.ChunkDiff{}
		if fromVersion != "" {
			diffs = m.DiffEdgeFor(fromVersion)
		}
		for _, f := range m.Files {
			for _, c := range f.Chunks {
				w, ok := index[c.ChunkID]
				if !ok {
					w = &ChunkWork{
						ChunkID:      c.ChunkID,
						DownloadName: c.DownloadName,
						Size:         c.Size,
					}
					if d, ok := diffs[c.ChunkID]; ok {
						w.Patch = &PatchSource{OldChunkID: d.OldChunkID, DiffURL: d.DiffURL}
					}
					index[c.ChunkID] = w
					order = append(order, c.ChunkID)
				}
				w.Targets = append(w.Targets, TargetLocation{
					RelativePath: f.RelativePath,
					Offset:       c.Offset,
				})
			}
		}
	}

	plan := &Plan{Works: make([]*ChunkWork, 0, len(order))}
	for _, id := range order {
		w := index[id]
		plan.Works = append(plan.Works, w)
		plan.TotalBytes += w.Size
	}
	return plan
}

// FileSizes returns the authoritative declared size of every distinct
// file referenced across manifests, used by file allocation (spec §4.4
// "File allocation").
func FileSizes(manifests []*manifest.Manifest) map[string]uint64 {
	sizes := make(map[string]uint64)
	for _, m := range manifests {
		for _, f := range m.Files {
			sizes[f.RelativePath] = f.Size
		}
	}
	return sizes
}

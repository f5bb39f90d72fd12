// Package deploy implements the Deployment Planner & Executor (spec §4
// C10/C11): it partitions enabled mod profiles into character-conflict
// groups (run through the Cycle Compiler) and singletons (namespaced
// and merged directly), producing a declarative plan of symlinks and
// generated files, then atomically realizes that plan as an overlay
// inside the game directory.
//
// Grounded on crates/loader_ctl/src/context.rs (install/uninstall
// staging discipline) and crates/fs_engine/src/safety.rs (directory
// traversal conventions); the symlink-only overlay and wipe-on-redeploy
// design is this package's own per spec §4.10-4.11.
package deploy

import (
	"fmt"

	"yago/internal/compose"
	"yago/internal/modlang"
	"yago/internal/namespace"
	"yago/internal/yagoerr"
)

// ModProfile is the Planner's input, one per enabled mod (spec §3).
type ModProfile struct {
	UUID               string
	ModRoot            string
	DefinitionPath     string
	DeployRelativePath string
	CharacterTag       string
	NSFW               bool
}

// SymlinkEntry is one (absolute_source, relative_link_target) pair in a
// DeploymentPlan.
type SymlinkEntry struct {
	Source        string
	RelLinkTarget string
}

// GeneratedFile is one (relative_path, bytes) pair in a DeploymentPlan.
type GeneratedFile struct {
	RelPath string
	Bytes   []byte
}

// Plan is the Planner's output: a flat description of every symlink and
// generated file the Executor must realize under the overlay root.
type Plan struct {
	Symlinks       []SymlinkEntry
	GeneratedFiles []GeneratedFile
}

// ParseDefinition loads and parses one profile's mod-definition document.
// Callers provide this so the planner stays decoupled from the
// filesystem; production code backs it with os.ReadFile + modlang.Parse.
type ParseDefinition func(profile ModProfile) (*modlang.Document, error)

// BuildPlan partitions profiles into character-groups (>=2 profiles
// sharing a non-empty CharacterTag) and singletons (spec §4.10).
// Character groups are compiled via the Cycle Compiler; singletons are
// namespaced, logic-gated, validated, and concatenated into one
// merged.ini alongside any per-character merged.ini files.
func BuildPlan(profiles []ModProfile, parse ParseDefinition) (*Plan, error) {
	groups := make(map[string][]ModProfile)
	var order []string
	var singles []ModProfile

	for _, p := range profiles {
		if p.CharacterTag == "" {
			singles = append(singles, p)
			continue
		}
		if _, seen := groups[p.CharacterTag]; !seen {
			order = append(order, p.CharacterTag)
		}
		groups[p.CharacterTag] = append(groups[p.CharacterTag], p)
	}

	plan := &Plan{}

	for _, tag := range order {
		members := groups[tag]
		if len(members) < 2 {
			// A tag with only one member isn't a conflict; fall back to
			// the singleton path (spec §4.10 "≥2 sharing a tag").
			singles = append(singles, members...)
			continue
		}
		if err := addCycleGroup(plan, tag, members, parse); err != nil {
			return nil, err
		}
	}

	if err := addSingletons(plan, singles, parse); err != nil {
		return nil, err
	}

	return plan, nil
}

func addCycleGroup(plan *Plan, tag string, members []ModProfile, parse ParseDefinition) error {
	skins := make([]compose.SkinSource, len(members))
	for i, p := range members {
		doc, err := parse(p)
		if err != nil {
			return yagoerr.Wrap(yagoerr.Invalid, fmt.Sprintf("character group %s: parse %s", tag, p.DefinitionPath), err)
		}
		skins[i] = compose.SkinSource{
			Index:   i,
			ModRoot: p.ModRoot,
			Files:   map[string]*modlang.Document{p.DefinitionPath: doc},
		}
	}

	compiled, err := compose.CompileCycleGroup(tag, skins)
	if err != nil {
		return yagoerr.Wrap(yagoerr.Invalid, fmt.Sprintf("character group %s", tag), err)
	}

	for rel, source := range compiled.Symlinks {
		plan.Symlinks = append(plan.Symlinks, SymlinkEntry{Source: source, RelLinkTarget: rel})
	}
	for _, ini := range compiled.SkinINIs {
		plan.GeneratedFiles = append(plan.GeneratedFiles, GeneratedFile{
			RelPath: ini.RelPath,
			Bytes:   []byte(ini.Content),
		})
	}
	plan.GeneratedFiles = append(plan.GeneratedFiles, GeneratedFile{
		RelPath: compiled.MergedINIPath,
		Bytes:   []byte(compiled.MergedINI),
	})
	return nil
}

func addSingletons(plan *Plan, singles []ModProfile, parse ParseDefinition) error {
	var docs []*modlang.Document
	for _, p := range singles {
		doc, err := parse(p)
		if err != nil {
			return yagoerr.Wrap(yagoerr.Invalid, fmt.Sprintf("singleton %s: parse %s", p.UUID, p.DefinitionPath), err)
		}
		namespace.Apply(doc, p.UUID, p.DeployRelativePath)
		gated := compose.WrapInLogicGate(doc, p.UUID)
		if err := compose.ValidateIfElseEndif(gated); err != nil {
			return fmt.Errorf("singleton %s: %w", p.UUID, err)
		}
		docs = append(docs, gated)

		plan.Symlinks = append(plan.Symlinks, SymlinkEntry{
			Source:        p.ModRoot,
			RelLinkTarget: p.UUID,
		})
	}

	if len(docs) == 0 {
		return nil
	}
	merged := compose.MergeDocuments(docs)
	plan.GeneratedFiles = append(plan.GeneratedFiles, GeneratedFile{
		RelPath: "merged.ini",
		Bytes:   []byte(modlang.Render(merged)),
	})
	return nil
}

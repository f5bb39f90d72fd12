package compose

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"yago/internal/modlang"
)

// SkinSource is one contributing mod's parsed .ini documents within a
// character cycle group (spec §4.9 Cycle Compiler).
type SkinSource struct {
	Index   int
	ModRoot string
	// Files maps a relative .ini path within ModRoot to its parsed
	// document. Files whose name already starts with "DISABLED_" should
	// be excluded by the caller before building this map.
	Files map[string]*modlang.Document
}

// CompiledGroup is the output of compiling several mods that all target
// the same in-game character into a single overlay (spec §4.9): one
// symlink per contributing skin, one rewritten per-skin definition file
// per source .ini, plus a generated master document that cycles between
// them at runtime via a hotkey.
type CompiledGroup struct {
	CharacterName string
	// Symlinks maps a deploy-relative directory (Characters/<name>/Skin_<i>)
	// to the skin's source ModRoot.
	Symlinks map[string]string
	// SkinINIs holds each skin's rewritten source .ini
	// (Characters/<name>/Skin_<i>_<orig>.ini, spec §4.9 bullet 2).
	SkinINIs []GeneratedINI
	// MergedINIPath and MergedINI hold the generated master document's
	// deploy-relative path and rendered text.
	MergedINIPath string
	MergedINI     string
}

// GeneratedINI is one deploy-relative path and its rendered file content.
type GeneratedINI struct {
	RelPath string
	Content string
}

// overrideBody is one skin's rendered contribution to a shared
// [TextureOverride_Master_<hash>] section, keyed by the skin's own
// Index rather than its position within overrides[hash] — skins aren't
// required to touch every hash (spec §4.9 "for each distinct hash seen
// across skins"), so position and Index can diverge.
type overrideBody struct {
	Index int
	Body  string
}

var refLineRe = regexp.MustCompile(`(?i)((?:ps|vs)-t[0-9]+\s*=\s*)([a-zA-Z0-9_]+)`)

// CompileCycleGroup merges every skin's texture-override sections keyed
// by shader hash into one [TextureOverride_Master_<hash>] section per
// hash, gated by an if/else-if/endif chain over $active_skin, and
// collects every non-override section as a namespaced resource. A
// [KeyCycle] binding on F6 advances $active_skin through 0..len(skins)-1
// (spec §4.9, grounded on crates/logic_weaver/src/ini_merger.rs).
func CompileCycleGroup(characterName string, skins []SkinSource) (*CompiledGroup, error) {
	sorted := append([]SkinSource(nil), skins...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })

	overrides := make(map[string][]overrideBody)
	var overrideOrder []string
	var resourceLines []string
	var skinINIs []GeneratedINI

	for _, skin := range sorted {
		for _, name := range sortedDocNames(skin.Files) {
			doc := skin.Files[name]
			for _, s := range doc.Sections {
				if strings.HasPrefix(strings.ToLower(s.Name), textureOverridePrefix) {
					hash, body := extractOverrideBody(s, skin.Index)
					if hash == "" {
						continue
					}
					if _, seen := overrides[hash]; !seen {
						overrideOrder = append(overrideOrder, hash)
					}
					overrides[hash] = append(overrides[hash], overrideBody{Index: skin.Index, Body: body})
				} else {
					resourceLines = append(resourceLines, renderResourceSection(s, skin.Index)...)
				}
			}
			skinINIs = append(skinINIs, GeneratedINI{
				RelPath: fmt.Sprintf("Characters/%s/Skin_%d_%s", characterName, skin.Index, filepath.Base(name)),
				Content: modlang.Render(rewriteFilenames(doc, skin.Index)),
			})
		}
	}

	merged := renderMasterINI(len(sorted), overrideOrder, overrides, resourceLines)

	symlinks := make(map[string]string, len(sorted))
	for _, skin := range sorted {
		deployPath := fmt.Sprintf("Characters/%s/Skin_%d", characterName, skin.Index)
		symlinks[deployPath] = skin.ModRoot
	}

	return &CompiledGroup{
		CharacterName: characterName,
		Symlinks:      symlinks,
		SkinINIs:      skinINIs,
		MergedINIPath: fmt.Sprintf("Characters/%s/merged.ini", characterName),
		MergedINI:     merged,
	}, nil
}

// rewriteFilenames clones doc and redirects every filename= value into
// the skin's deployed subdirectory, unless already prefixed (spec §4.9
// bullet 2: "rewrite every filename = X value to filename = Skin_<i>/X
// (unless already prefixed)").
func rewriteFilenames(doc *modlang.Document, index int) *modlang.Document {
	out := doc.Clone()
	prefix := fmt.Sprintf("Skin_%d/", index)
	for si := range out.Sections {
		items := out.Sections[si].Items
		for ii := range items {
			if items[ii].Kind != modlang.ItemPair || !strings.EqualFold(items[ii].Key, "filename") {
				continue
			}
			if strings.HasPrefix(items[ii].Value, prefix) {
				continue
			}
			items[ii].Value = prefix + items[ii].Value
		}
	}
	return out
}

func sortedDocNames(files map[string]*modlang.Document) []string {
	names := make([]string, 0, len(files))
	for n := range files {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// extractOverrideBody renders one [TextureOverride*] section's non-hash
// lines, with ps-tN/vs-tN resource references namespaced to this skin's
// index.
func extractOverrideBody(s modlang.Section, index int) (hash string, body string) {
	var lines []string
	for _, it := range s.Items {
		switch it.Kind {
		case modlang.ItemPair:
			if strings.EqualFold(it.Key, "hash") {
				hash = it.Value
				continue
			}
			lines = append(lines, namespaceReference(it.Key+" = "+it.Value, index))
		case modlang.ItemCommand:
			lines = append(lines, namespaceReference(renderCommand(it), index))
		}
	}
	return hash, strings.Join(lines, "\n")
}

func renderCommand(it modlang.Item) string {
	line := it.Verb
	for _, a := range it.Args {
		line += " " + a
	}
	return line
}

func namespaceReference(line string, index int) string {
	return refLineRe.ReplaceAllStringFunc(line, func(m string) string {
		sub := refLineRe.FindStringSubmatch(m)
		return sub[1] + fmt.Sprintf("Skin%d_%s", index, sub[2])
	})
}

// renderResourceSection namespaces a non-override section's name to
// Skin<i>_<name> and redirects any filename= value into the skin's
// deployed subdirectory.
func renderResourceSection(s modlang.Section, index int) []string {
	out := make([]string, 0, len(s.Items)+1)
	out = append(out, fmt.Sprintf("[Skin%d_%s]", index, s.Name))
	for _, it := range s.Items {
		switch it.Kind {
		case modlang.ItemPair:
			if strings.EqualFold(it.Key, "filename") {
				out = append(out, fmt.Sprintf("filename = Skin_%d/%s", index, it.Value))
				continue
			}
			out = append(out, it.Key+" = "+it.Value)
		case modlang.ItemCommand:
			out = append(out, renderCommand(it))
		}
	}
	return out
}

func renderMasterINI(skinCount int, order []string, overrides map[string][]overrideBody, resources []string) string {
	var b strings.Builder
	b.WriteString("[Constants]\n")
	b.WriteString("global $active_skin = 0\n\n")

	b.WriteString("[KeyCycle]\n")
	b.WriteString("key = F6\n")
	b.WriteString("type = cycle\n")
	idx := make([]string, skinCount)
	for i := range idx {
		idx[i] = fmt.Sprintf("%d", i)
	}
	b.WriteString("$active_skin = " + strings.Join(idx, ",") + "\n\n")

	for _, hash := range order {
		bodies := overrides[hash]
		b.WriteString(fmt.Sprintf("[TextureOverride_Master_%s]\n", hash))
		b.WriteString(fmt.Sprintf("hash = %s\n", hash))
		for i, ob := range bodies {
			if i == 0 {
				b.WriteString(fmt.Sprintf("if $active_skin == %d\n", ob.Index))
			} else {
				b.WriteString(fmt.Sprintf("else if $active_skin == %d\n", ob.Index))
			}
			b.WriteString(ob.Body)
			b.WriteString("\n")
		}
		b.WriteString("endif\n\n")
	}

	for _, line := range resources {
		b.WriteString(line)
		b.WriteString("\n")
	}

	return b.String()
}

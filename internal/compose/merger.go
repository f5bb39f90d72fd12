package compose

import (
	"strings"

	"yago/internal/modlang"
)

// textureOverridePrefix identifies sections that hook a game's shader
// hash (spec §4.8): those, and only those, get wrapped in a logic gate
// so a deployment can select which mod's override is live.
const textureOverridePrefix = "textureoverride"

// WrapInLogicGate clones doc and wraps every section whose name starts
// with "textureoverride" (case-insensitive) in an `if $final_id ==
// <uuid> / endif` gate (spec §4.8), so the section only fires when
// final_id (the value a deployment assigns at merge time) equals uuid.
// Sections not named textureoverride* are returned unchanged.
func WrapInLogicGate(doc *modlang.Document, uuid string) *modlang.Document {
	out := doc.Clone()
	for i := range out.Sections {
		s := &out.Sections[i]
		if !strings.HasPrefix(strings.ToLower(s.Name), textureOverridePrefix) {
			continue
		}
		wrapped := make([]modlang.Item, 0, len(s.Items)+2)
		wrapped = append(wrapped, modlang.Command("if", []string{"$final_id", "==", uuid}))
		wrapped = append(wrapped, s.Items...)
		wrapped = append(wrapped, modlang.Command("endif", nil))
		s.Items = wrapped
	}
	return out
}

// MergeDocuments concatenates docs' sections in order into one document
// (spec §4.8 "merge is concatenation, not reconciliation"). Sections
// with the same name from different documents are kept distinct rather
// than combined; the game's loader processes every [section] header it
// encounters independently.
func MergeDocuments(docs []*modlang.Document) *modlang.Document {
	out := &modlang.Document{}
	for _, d := range docs {
		out.Sections = append(out.Sections, d.Sections...)
	}
	return out
}

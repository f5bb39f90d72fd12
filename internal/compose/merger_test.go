package compose

import (
	"testing"

	"yago/internal/modlang"
)

func TestWrapInLogicGateWrapsTextureOverrideOnly(t *testing.T) {
	doc := modlang.Parse("[TextureOverrideBody]\nhash = deadbeef\n[Constants]\nglobal $x = 1\n")
	wrapped := WrapInLogicGate(doc, "uuid-123")

	override := wrapped.Sections[0]
	if len(override.Items) != 3 {
		t.Fatalf("expected gate to add if/endif around 1 item, got %d items: %+v", len(override.Items), override.Items)
	}
	if override.Items[0].Verb != "if" || override.Items[0].Args[2] != "uuid-123" {
		t.Errorf("unexpected gate open: %+v", override.Items[0])
	}
	if override.Items[2].Verb != "endif" {
		t.Errorf("unexpected gate close: %+v", override.Items[2])
	}

	constants := wrapped.Sections[1]
	if len(constants.Items) != 1 {
		t.Fatalf("expected Constants section untouched, got %+v", constants.Items)
	}
}

func TestWrapInLogicGateDoesNotMutateOriginal(t *testing.T) {
	doc := modlang.Parse("[TextureOverrideBody]\nhash = deadbeef\n")
	WrapInLogicGate(doc, "uuid-123")
	if len(doc.Sections[0].Items) != 1 {
		t.Fatalf("expected original document untouched, got %+v", doc.Sections[0].Items)
	}
}

func TestMergeDocumentsConcatenatesSections(t *testing.T) {
	a := modlang.Parse("[A]\nk = 1\n")
	b := modlang.Parse("[B]\nk = 2\n")
	merged := MergeDocuments([]*modlang.Document{a, b})

	if len(merged.Sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(merged.Sections))
	}
	if merged.Sections[0].Name != "A" || merged.Sections[1].Name != "B" {
		t.Fatalf("unexpected section order: %+v", merged.Sections)
	}
}

func TestMergeDocumentsKeepsDuplicateSectionNamesDistinct(t *testing.T) {
	a := modlang.Parse("[Same]\nk = 1\n")
	b := modlang.Parse("[Same]\nk = 2\n")
	merged := MergeDocuments([]*modlang.Document{a, b})

	if len(merged.Sections) != 2 {
		t.Fatalf("expected merge to keep both Same sections distinct, got %d", len(merged.Sections))
	}
}

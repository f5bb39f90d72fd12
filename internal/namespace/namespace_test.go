package namespace

import (
	"testing"

	"yago/internal/modlang"
)

func TestApplyVariableRewriteBasic(t *testing.T) {
	doc := modlang.Parse("[S]\nif $active == 1\nrun = $active\n")
	uuid := "abc12345-e89b-12d3-a456-426614174000"
	Apply(doc, uuid, "")

	ifItem := doc.Sections[0].Items[0]
	if ifItem.Verb != "if" || len(ifItem.Args) != 3 {
		t.Fatalf("unexpected if item: %+v", ifItem)
	}
	want := "$active_" + uuid
	if ifItem.Args[0] != want {
		t.Errorf("expected rewritten var %q, got %q", want, ifItem.Args[0])
	}

	runItem := doc.Sections[0].Items[1]
	if runItem.Verb != "run" || runItem.Args[0] != want {
		t.Errorf("expected run arg %q, got %+v", want, runItem)
	}
}

func TestApplyIsIdempotentUnderDoubleApplication(t *testing.T) {
	doc := modlang.Parse("[S]\nif $active == 1\nkey = $active and $other\n")
	uuid := "abc12345-e89b-12d3-a456-426614174000"

	Apply(doc, uuid, "")
	once := renderSnapshot(doc)

	Apply(doc, uuid, "")
	twice := renderSnapshot(doc)

	if once != twice {
		t.Fatalf("expected fixed point, got:\nonce:  %s\ntwice: %s", once, twice)
	}
}

func TestApplyRewritesPathKeys(t *testing.T) {
	doc := modlang.Parse("[S]\nfilename = textures/body.dds\nhash = deadbeef\n")
	Apply(doc, "uuid-1", "Characters/Foo/")

	items := doc.Sections[0].Items
	if items[0].Value != "Characters/Foo/textures/body.dds" {
		t.Errorf("unexpected filename rewrite: %q", items[0].Value)
	}
	if items[1].Value != "deadbeef" {
		t.Errorf("hash should be untouched, got %q", items[1].Value)
	}
}

func TestApplyPathRewriteGuardsAlreadyPrefixed(t *testing.T) {
	doc := modlang.Parse("[S]\nfilename = Characters/Foo/textures/body.dds\n")
	Apply(doc, "uuid-1", "Characters/Foo/")

	got := doc.Sections[0].Items[0].Value
	want := "Characters/Foo/textures/body.dds"
	if got != want {
		t.Errorf("expected no double prefix, got %q", got)
	}
}

func TestApplyRewritesTextureBindingHeuristic(t *testing.T) {
	doc := modlang.Parse("[S]\nps-t0 = textures/diffuse.dds\nps-t1 = notapath\n")
	Apply(doc, "uuid-1", "Characters/Foo/")

	items := doc.Sections[0].Items
	if items[0].Value != "Characters/Foo/textures/diffuse.dds" {
		t.Errorf("expected ps-t0 rewritten, got %q", items[0].Value)
	}
	if items[1].Value != "notapath" {
		t.Errorf("expected ps-t1 left alone (not path-shaped), got %q", items[1].Value)
	}
}

func renderSnapshot(doc *modlang.Document) string {
	return modlang.Render(doc)
}

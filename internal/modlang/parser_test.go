package modlang

import "testing"

func TestParseBasicSections(t *testing.T) {
	src := `; a leading comment
[Constants]
global $active = 0

[TextureOverrideBody]
hash = deadbeef
if $active == 1
run = CommandListSkinA
else
run = CommandListSkinB
endif
`
	doc := Parse(src)
	// The leading comment precedes any header, so it lands in GLOBAL.
	if len(doc.Sections) != 3 {
		t.Fatalf("expected 3 sections, got %d: %+v", len(doc.Sections), doc.Sections)
	}
	if doc.Sections[1].Name != "Constants" {
		t.Fatalf("expected second section Constants, got %q", doc.Sections[1].Name)
	}
	body := doc.Sections[2]
	if body.Name != "TextureOverrideBody" {
		t.Fatalf("unexpected section name %q", body.Name)
	}

	var kinds []ItemKind
	for _, it := range body.Items {
		kinds = append(kinds, it.Kind)
	}
	want := []ItemKind{ItemPair, ItemCommand, ItemCommand, ItemCommand, ItemCommand, ItemCommand}
	if len(kinds) != len(want) {
		t.Fatalf("item count mismatch: got %d want %d (%+v)", len(kinds), len(want), body.Items)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("item %d: got kind %v want %v", i, kinds[i], want[i])
		}
	}
}

func TestParseGlobalPreamble(t *testing.T) {
	doc := Parse("key = value\n[Section]\nfoo = bar\n")
	if len(doc.Sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(doc.Sections))
	}
	if doc.Sections[0].Name != GlobalSection {
		t.Fatalf("expected GLOBAL section first, got %q", doc.Sections[0].Name)
	}
	if len(doc.Sections[0].Items) != 1 || doc.Sections[0].Items[0].Key != "key" {
		t.Fatalf("unexpected GLOBAL items: %+v", doc.Sections[0].Items)
	}
}

func TestParseNoPreambleOmitsGlobal(t *testing.T) {
	doc := Parse("[Section]\nfoo = bar\n")
	if len(doc.Sections) != 1 {
		t.Fatalf("expected exactly 1 section, got %d: %+v", len(doc.Sections), doc.Sections)
	}
}

func TestParseRunKeyReclassifiedAsCommand(t *testing.T) {
	doc := Parse("[S]\nRUN = CommandListFoo\n")
	item := doc.Sections[0].Items[0]
	if item.Kind != ItemCommand || item.Verb != "run" || len(item.Args) != 1 || item.Args[0] != "CommandListFoo" {
		t.Fatalf("expected run command, got %+v", item)
	}
}

func TestParseCommentStyles(t *testing.T) {
	doc := Parse("[S]\n; semi comment\n// slash comment\nk = v\n")
	items := doc.Sections[0].Items
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[0].Kind != ItemComment || items[0].Text != "semi comment" {
		t.Errorf("unexpected comment 0: %+v", items[0])
	}
	if items[1].Kind != ItemComment || items[1].Text != "slash comment" {
		t.Errorf("unexpected comment 1: %+v", items[1])
	}
}

func TestParseIfElseEndifAsCommands(t *testing.T) {
	doc := Parse("[S]\nif $x == 1\nelse\nendif\n")
	items := doc.Sections[0].Items
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[0].Verb != "if" || len(items[0].Args) != 3 {
		t.Errorf("unexpected if args: %+v", items[0])
	}
	if items[1].Verb != "else" {
		t.Errorf("unexpected else: %+v", items[1])
	}
	if items[2].Verb != "endif" {
		t.Errorf("unexpected endif: %+v", items[2])
	}
}

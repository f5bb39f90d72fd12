package compose

import (
	"strings"
	"testing"

	"yago/internal/modlang"
)

func TestCompileCycleGroupMergesSharedHashIntoCycleChain(t *testing.T) {
	skinA := modlang.Parse("[TextureOverrideBody]\nhash = deadbeef\nps-t0 = ResourceTex\n[ResourceTex]\nfilename = body.dds\n")
	skinB := modlang.Parse("[TextureOverrideBody]\nhash = deadbeef\nps-t0 = ResourceTex\n[ResourceTex]\nfilename = body.dds\n")

	group, err := CompileCycleGroup("Ningguang", []SkinSource{
		{Index: 0, ModRoot: "/mods/a", Files: map[string]*modlang.Document{"a.ini": skinA}},
		{Index: 1, ModRoot: "/mods/b", Files: map[string]*modlang.Document{"b.ini": skinB}},
	})
	if err != nil {
		t.Fatalf("CompileCycleGroup: %v", err)
	}

	if len(group.Symlinks) != 2 {
		t.Fatalf("expected 2 symlinks, got %d: %+v", len(group.Symlinks), group.Symlinks)
	}
	if group.Symlinks["Characters/Ningguang/Skin_0"] != "/mods/a" {
		t.Errorf("unexpected symlink target: %+v", group.Symlinks)
	}

	if strings.Count(group.MergedINI, "[TextureOverride_Master_deadbeef]") != 1 {
		t.Fatalf("expected exactly one merged master section, got:\n%s", group.MergedINI)
	}
	if !strings.Contains(group.MergedINI, "if $active_skin == 0") || !strings.Contains(group.MergedINI, "else if $active_skin == 1") {
		t.Errorf("expected cycle if/else-if chain, got:\n%s", group.MergedINI)
	}
	if !strings.Contains(group.MergedINI, "key = F6") {
		t.Errorf("expected KeyCycle bound to F6, got:\n%s", group.MergedINI)
	}
	if !strings.Contains(group.MergedINI, "Skin0_ResourceTex") {
		t.Errorf("expected skin-namespaced resource reference, got:\n%s", group.MergedINI)
	}
	if !strings.Contains(group.MergedINI, "[Skin0_ResourceTex]") || !strings.Contains(group.MergedINI, "[Skin1_ResourceTex]") {
		t.Errorf("expected both resource sections namespaced, got:\n%s", group.MergedINI)
	}
	if !strings.Contains(group.MergedINI, "filename = Skin_0/body.dds") {
		t.Errorf("expected filename redirected under Skin_0, got:\n%s", group.MergedINI)
	}
}

func TestCompileCycleGroupKeysChainBySkinIndexNotPosition(t *testing.T) {
	// Skin 1 contributes no override at all for "deadbeef", so
	// overrides["deadbeef"] only ever has two entries (skins 0 and 2).
	// The emitted chain must still read "== 0" / "== 2", not "== 0" / "== 1".
	skinA := modlang.Parse("[TextureOverrideBody]\nhash = deadbeef\nps-t0 = ResourceTex\n")
	skinB := modlang.Parse("[SomeOtherSection]\nkey = value\n")
	skinC := modlang.Parse("[TextureOverrideBody]\nhash = deadbeef\nps-t0 = ResourceTex\n")

	group, err := CompileCycleGroup("Raiden", []SkinSource{
		{Index: 0, ModRoot: "/mods/a", Files: map[string]*modlang.Document{"a.ini": skinA}},
		{Index: 1, ModRoot: "/mods/b", Files: map[string]*modlang.Document{"b.ini": skinB}},
		{Index: 2, ModRoot: "/mods/c", Files: map[string]*modlang.Document{"c.ini": skinC}},
	})
	if err != nil {
		t.Fatalf("CompileCycleGroup: %v", err)
	}

	if !strings.Contains(group.MergedINI, "if $active_skin == 0") {
		t.Errorf("expected first body keyed by skin 0, got:\n%s", group.MergedINI)
	}
	if !strings.Contains(group.MergedINI, "else if $active_skin == 2") {
		t.Errorf("expected second body keyed by skin 2 (its actual Index), got:\n%s", group.MergedINI)
	}
	if strings.Contains(group.MergedINI, "else if $active_skin == 1") {
		t.Errorf("skin 1 contributed no override for this hash; chain must not reference it, got:\n%s", group.MergedINI)
	}
}

func TestCompileCycleGroupEmitsRewrittenPerSkinINIs(t *testing.T) {
	skinA := modlang.Parse("[ResourceTex]\nfilename = body.dds\n")
	skinB := modlang.Parse("[ResourceTex]\nfilename = body.dds\n")

	group, err := CompileCycleGroup("Raiden", []SkinSource{
		{Index: 0, ModRoot: "/mods/a", Files: map[string]*modlang.Document{"a.ini": skinA}},
		{Index: 1, ModRoot: "/mods/b", Files: map[string]*modlang.Document{"b.ini": skinB}},
	})
	if err != nil {
		t.Fatalf("CompileCycleGroup: %v", err)
	}

	if len(group.SkinINIs) != 2 {
		t.Fatalf("expected 2 rewritten per-skin INIs, got %d: %+v", len(group.SkinINIs), group.SkinINIs)
	}
	var gotA, gotB bool
	for _, ini := range group.SkinINIs {
		switch ini.RelPath {
		case "Characters/Raiden/Skin_0_a.ini":
			gotA = true
			if !strings.Contains(ini.Content, "filename = Skin_0/body.dds") {
				t.Errorf("expected skin 0's filename redirected, got:\n%s", ini.Content)
			}
		case "Characters/Raiden/Skin_1_b.ini":
			gotB = true
			if !strings.Contains(ini.Content, "filename = Skin_1/body.dds") {
				t.Errorf("expected skin 1's filename redirected, got:\n%s", ini.Content)
			}
		}
	}
	if !gotA || !gotB {
		t.Fatalf("missing expected per-skin INI path(s), got: %+v", group.SkinINIs)
	}
}

func TestCompileCycleGroupDropsOverrideWithNoHash(t *testing.T) {
	skin := modlang.Parse("[TextureOverrideBroken]\nps-t0 = Foo\n")
	group, err := CompileCycleGroup("X", []SkinSource{
		{Index: 0, ModRoot: "/mods/a", Files: map[string]*modlang.Document{"a.ini": skin}},
	})
	if err != nil {
		t.Fatalf("CompileCycleGroup: %v", err)
	}
	if strings.Contains(group.MergedINI, "TextureOverride_Master_") {
		t.Errorf("expected no master section for hashless override, got:\n%s", group.MergedINI)
	}
}

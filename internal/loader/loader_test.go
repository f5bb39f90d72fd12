package loader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestInstallProxyCopiesAndPatchesINI(t *testing.T) {
	gameDir := t.TempDir()
	libraryDir := t.TempDir()
	writeFile(t, filepath.Join(libraryDir, "d3d11.dll"), "dll-bytes")
	writeFile(t, filepath.Join(libraryDir, "d3dx.ini"), "[Loader]\ntarget = old.exe\nmodule = old.dll\n")
	writeFile(t, filepath.Join(libraryDir, "Core", "marker.txt"), "core")

	err := Install(Options{
		Method:         MethodProxy,
		GameDir:        gameDir,
		LibraryGameDir: libraryDir,
		GameExecutable: "Game.exe",
	})
	if err != nil {
		t.Fatalf("Install: %v", err)
	}

	if _, err := os.Stat(filepath.Join(gameDir, "d3d11.dll")); err != nil {
		t.Fatalf("expected d3d11.dll copied: %v", err)
	}

	ini, err := os.ReadFile(filepath.Join(gameDir, "d3dx.ini"))
	if err != nil {
		t.Fatalf("expected d3dx.ini copied: %v", err)
	}
	if !strings.Contains(string(ini), "target = Game.exe") {
		t.Errorf("expected target patched, got:\n%s", ini)
	}
	if !strings.Contains(string(ini), "module = d3d11.dll") {
		t.Errorf("expected module patched, got:\n%s", ini)
	}

	if target, err := os.Readlink(filepath.Join(gameDir, "Core")); err != nil || target != filepath.Join(libraryDir, "Core") {
		t.Errorf("expected Core symlinked to library, got target=%q err=%v", target, err)
	}
}

func TestInstallReShadeOnlyRemovesD3D11(t *testing.T) {
	gameDir := t.TempDir()
	commonDir := t.TempDir()
	writeFile(t, filepath.Join(gameDir, "d3d11.dll"), "old-gimi")
	writeFile(t, filepath.Join(commonDir, "ReShade.dll"), "reshade-bytes")

	err := Install(Options{
		Method:           MethodReShadeOnly,
		GameDir:          gameDir,
		LibraryCommonDir: commonDir,
	})
	if err != nil {
		t.Fatalf("Install: %v", err)
	}

	if _, err := os.Stat(filepath.Join(gameDir, "d3d11.dll")); !os.IsNotExist(err) {
		t.Errorf("expected d3d11.dll removed, err=%v", err)
	}
	if _, err := os.Stat(filepath.Join(gameDir, "dxgi.dll")); err != nil {
		t.Errorf("expected reshade installed as dxgi.dll: %v", err)
	}
}

func TestUninstallRemovesOnlyKnownFiles(t *testing.T) {
	gameDir := t.TempDir()
	writeFile(t, filepath.Join(gameDir, "d3d11.dll"), "x")
	writeFile(t, filepath.Join(gameDir, "d3dx.ini"), "x")
	writeFile(t, filepath.Join(gameDir, "unrelated_mod_asset.dat"), "keep-me")
	writeFile(t, filepath.Join(gameDir, "ShaderFixes", "foo.hlsl"), "x")

	if err := Uninstall(gameDir); err != nil {
		t.Fatalf("Uninstall: %v", err)
	}

	if _, err := os.Stat(filepath.Join(gameDir, "d3d11.dll")); !os.IsNotExist(err) {
		t.Errorf("expected d3d11.dll removed")
	}
	if _, err := os.Stat(filepath.Join(gameDir, "ShaderFixes")); !os.IsNotExist(err) {
		t.Errorf("expected ShaderFixes removed")
	}
	if _, err := os.Stat(filepath.Join(gameDir, "unrelated_mod_asset.dat")); err != nil {
		t.Errorf("expected unrelated file left untouched: %v", err)
	}
}

package home

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNew(t *testing.T) {
	d := New("/tmp/yago-test")
	if d.Root() != "/tmp/yago-test" {
		t.Errorf("expected root /tmp/yago-test, got %s", d.Root())
	}
}

func TestDefault(t *testing.T) {
	d, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if d.Root() == "" {
		t.Fatal("expected non-empty root")
	}
	if filepath.Base(d.Root()) != "yago" {
		t.Errorf("expected root to end with 'yago', got %s", d.Root())
	}
}

func TestConfigPath(t *testing.T) {
	d := New("/data")
	if got := d.ConfigPath(); got != "/data/config.json" {
		t.Errorf("got %s", got)
	}
}

func TestLibraryPaths(t *testing.T) {
	d := New("/data")
	if got := d.LibraryDir(); got != "/data/library" {
		t.Errorf("LibraryDir: got %s", got)
	}
	if got := d.LibraryCommonDir(); got != "/data/library/common" {
		t.Errorf("LibraryCommonDir: got %s", got)
	}
	if got := d.LibraryGameDir("genshin"); got != "/data/library/genshin" {
		t.Errorf("LibraryGameDir: got %s", got)
	}
}

func TestInstallPaths(t *testing.T) {
	d := New("/data")
	if got := d.InstallDir("genshin"); got != "/data/installs/genshin" {
		t.Errorf("InstallDir: got %s", got)
	}
	if got := d.SandboxDataDir("genshin", "p1"); got != "/data/installs/genshin/sandbox/p1" {
		t.Errorf("SandboxDataDir: got %s", got)
	}
	if got := d.ChunkCacheDir("genshin"); got != "/data/installs/genshin/cache" {
		t.Errorf("ChunkCacheDir: got %s", got)
	}
}

func TestEnsureExists(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "yago")
	d := New(root)
	if err := d.EnsureExists(); err != nil {
		t.Fatalf("EnsureExists: %v", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if !info.IsDir() {
		t.Error("expected directory")
	}

	if err := d.EnsureExists(); err != nil {
		t.Fatalf("EnsureExists (idempotent): %v", err)
	}
}

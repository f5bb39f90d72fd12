package file

import (
	"context"
	"path/filepath"
	"testing"

	"yago/internal/config"
)

func TestStoreLoadMissing(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "config.json"))
	cfg, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg == nil || len(cfg.Games) != 0 {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	s := NewStore(path)

	cfg := &config.Config{
		Games: []config.GameConfig{
			{ID: "game1", DisplayName: "Example Game", InstallDir: "/games/example"},
		},
		LauncherDefault: config.LauncherDefault{Workers: 8},
	}
	if err := s.Save(context.Background(), cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Games) != 1 || got.Games[0].ID != "game1" {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.LauncherDefault.Workers != 8 {
		t.Fatalf("expected workers=8, got %d", got.LauncherDefault.Workers)
	}
}

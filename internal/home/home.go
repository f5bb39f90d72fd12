// Package home manages the yago home directory layout.
//
// The home directory owns all persistent state: the config file, the
// shared loader payload library, and per-install sandbox snapshot data.
//
// Layout:
//
//	<root>/
//	  config.json              (config store)
//	  library/                  (loader payloads: common/, <game-id>/)
//	  installs/
//	    <game-id>/
//	      sandbox/               (per-profile sandbox snapshot data)
//	      cache/                 (downloaded chunk cache, keyed by chunk_id)
package home

import (
	"fmt"
	"os"
	"path/filepath"
)

// Dir represents a yago home directory.
type Dir struct {
	root string
}

// New creates a Dir with an explicit root path.
func New(root string) Dir {
	return Dir{root: root}
}

// Default returns a Dir using the platform-appropriate default location:
//   - Linux:   ~/.config/yago
//   - macOS:   ~/Library/Application Support/yago
//   - Windows: %APPDATA%/yago
func Default() (Dir, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return Dir{}, fmt.Errorf("determine config directory: %w", err)
	}
	return Dir{root: filepath.Join(base, "yago")}, nil
}

// Root returns the home directory path.
func (d Dir) Root() string {
	return d.root
}

// ConfigPath returns the path to the config file.
func (d Dir) ConfigPath() string {
	return filepath.Join(d.root, "config.json")
}

// LibraryDir returns the root of the shared loader payload library
// (Core/ShaderFixes/d3d11.dll/ReShade.dll payloads staged per §4.12).
func (d Dir) LibraryDir() string {
	return filepath.Join(d.root, "library")
}

// LibraryCommonDir returns the subtree of the library shared across all
// games (e.g. the common ReShade payload).
func (d Dir) LibraryCommonDir() string {
	return filepath.Join(d.LibraryDir(), "common")
}

// LibraryGameDir returns the per-game subtree of the loader library.
func (d Dir) LibraryGameDir(gameID string) string {
	return filepath.Join(d.LibraryDir(), gameID)
}

// InstallDir returns the yago-owned data directory for one game install
// (sandbox snapshots, chunk cache). This is distinct from the game's own
// installation directory on disk.
func (d Dir) InstallDir(gameID string) string {
	return filepath.Join(d.root, "installs", gameID)
}

// SandboxDataDir returns the directory a profile's sandbox snapshot is
// stored under.
func (d Dir) SandboxDataDir(gameID, profileID string) string {
	return filepath.Join(d.InstallDir(gameID), "sandbox", profileID)
}

// ChunkCacheDir returns the directory the Content Fetcher may use as a
// disk cache keyed by chunk_id, shared across profiles/versions of one game.
func (d Dir) ChunkCacheDir(gameID string) string {
	return filepath.Join(d.InstallDir(gameID), "cache")
}

// EnsureExists creates the home directory (and parents) if it doesn't exist.
func (d Dir) EnsureExists() error {
	if err := os.MkdirAll(d.root, 0o750); err != nil {
		return fmt.Errorf("create home directory %s: %w", d.root, err)
	}
	return nil
}

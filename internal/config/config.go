// Package config provides configuration persistence for the system.
//
// Store persists and reloads the desired system configuration across
// restarts: which games are known, which mods are installed for each,
// and default launch settings. This is control-plane state, not
// data-plane state — it never touches the game's own files or the
// downloaded chunk cache.
//
// Store does not:
//   - Download or verify chunks
//   - Parse or compose mod definitions
//   - Launch processes
//   - Watch for live changes (v1 is load-on-start only)
package config

import "context"

// Store persists and loads system configuration.
//
// Config is loaded once at startup by the CLI/embedding shell and
// instantiates the four cores from it. Config changes are not
// hot-reloaded; a caller that mutates state calls Save explicitly.
type Store interface {
	// Load reads the configuration. Returns a zero-value Config, not an
	// error, if none has been saved yet.
	Load(ctx context.Context) (*Config, error)

	// Save persists the configuration.
	Save(ctx context.Context, cfg *Config) error
}

// Config describes the desired system shape: installed games and their
// enabled mod profiles, plus defaults applied at launch time.
//
// It is declarative: it defines what should exist, not how it got there.
type Config struct {
	Games           []GameConfig    `json:"games"`
	LauncherDefault LauncherDefault `json:"launcherDefault"`
}

// GameConfig describes one tracked game installation.
type GameConfig struct {
	// ID is a unique identifier for this game (stable across renames).
	ID string `json:"id"`

	// DisplayName is shown in UIs; purely cosmetic.
	DisplayName string `json:"displayName"`

	// InstallDir is the absolute path to the game's installation directory
	// — the directory the Deployment Executor creates Mods/YAGO under.
	InstallDir string `json:"installDir"`

	// ExecutableName is the game's executable, relative to InstallDir.
	ExecutableName string `json:"executableName"`

	// ManifestURLs are the content-distribution manifest endpoints for
	// this game, each fetched and decoded with manifest.Fetch (§6).
	ManifestURLs []string `json:"manifestUrls"`

	// ChunkBaseURL is the base used to build chunk download URLs:
	// chunkBaseURL + "/" + download_name.
	ChunkBaseURL string `json:"chunkBaseUrl"`

	// Profiles are the mod profiles enabled for this game.
	Profiles []ProfileConfig `json:"profiles"`

	// Launch holds this game's launch configuration.
	Launch LaunchConfig `json:"launch"`

	// Sandbox names the save-adjacent files and registry keys the
	// Sandbox Snapshot restores before a run and snapshots after (§4.14).
	Sandbox SandboxConfig `json:"sandbox"`
}

// SandboxConfig is the persisted form of a sandbox.Descriptor.
type SandboxConfig struct {
	Files        []string `json:"files,omitempty"`
	RegistryKeys []string `json:"registryKeys,omitempty"`
}

// ProfileConfig is the persisted form of a deploy.ModProfile (§3): enough to
// reconstruct a ModProfile without re-scanning the mod's directory tree.
type ProfileConfig struct {
	UUID               string `json:"uuid"`
	ModRoot            string `json:"modRoot"`
	DefinitionPath     string `json:"definitionPath"`
	DeployRelativePath string `json:"deployRelativePath"`
	CharacterTag       string `json:"characterTag,omitempty"`
	NSFW               bool   `json:"nsfw"`
	Enabled            bool   `json:"enabled"`
}

// LaunchConfig is the persisted form of a subset of launch.Options (§3):
// the parts that are a property of the game rather than chosen per-run.
type LaunchConfig struct {
	Runner           string   `json:"runner"` // "native", "wine", "proton"
	RunnerPath       string   `json:"runnerPath,omitempty"`
	PrefixPath       string   `json:"prefixPath,omitempty"`
	Args             []string `json:"args,omitempty"`
	Gamescope        bool     `json:"gamescope"`
	GamescopeWidth   int      `json:"gamescopeWidth,omitempty"`
	GamescopeHeight  int      `json:"gamescopeHeight,omitempty"`
	Gamemode         bool     `json:"gamemode"`
	MangoHud         bool     `json:"mangoHud"`
	FPSTarget        int      `json:"fpsTarget,omitempty"`
	Injection        string   `json:"injection"` // "none", "proxy", "loader", "remoteThread", "manualMap"
	IntegrityShield  bool     `json:"integrityShield"`
	ShieldLibrary    string   `json:"shieldLibrary,omitempty"`
}

// LauncherDefault holds launcher-wide defaults applied when a game's own
// LaunchConfig leaves a field unset.
//
// DefaultArgs mirrors the original's "-popupwindow -screen-fullscreen 0"
// behavior (spec.md §9 Open Questions): it is applied only when a
// profile's own Args list is empty, never merged with a non-empty one.
type LauncherDefault struct {
	DefaultArgs []string `json:"defaultArgs"`
	Workers     int      `json:"workers"` // orchestrator worker pool size, default 8
}

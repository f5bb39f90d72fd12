// Package cli implements the yago command tree: games, mods, install,
// verify, deploy, loader, launch, and sandbox subcommands, each a thin
// wrapper around the corresponding internal package.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"yago/internal/config"
	"yago/internal/config/file"
	"yago/internal/home"
	"yago/internal/launch"
	"yago/internal/sandbox"
)

// resolveHome returns a home.Dir from the --home persistent flag, or the
// platform default when it's unset.
func resolveHome(cmd *cobra.Command) (home.Dir, error) {
	homeFlag, _ := cmd.Flags().GetString("home")
	if homeFlag != "" {
		return home.New(homeFlag), nil
	}
	return home.Default()
}

// openStore resolves the home directory, ensures it exists, and opens
// its config store.
func openStore(cmd *cobra.Command) (*file.Store, home.Dir, error) {
	hd, err := resolveHome(cmd)
	if err != nil {
		return nil, home.Dir{}, fmt.Errorf("resolve home directory: %w", err)
	}
	if err := hd.EnsureExists(); err != nil {
		return nil, home.Dir{}, err
	}
	return file.NewStore(hd.ConfigPath()), hd, nil
}

// loadConfig opens the store and loads the current configuration.
func loadConfig(ctx context.Context, cmd *cobra.Command) (*config.Config, *file.Store, home.Dir, error) {
	store, hd, err := openStore(cmd)
	if err != nil {
		return nil, nil, home.Dir{}, err
	}
	cfg, err := store.Load(ctx)
	if err != nil {
		return nil, nil, home.Dir{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, store, hd, nil
}

// findGame returns a pointer into cfg.Games for the given ID, so callers
// can mutate it in place before Save.
func findGame(cfg *config.Config, id string) (*config.GameConfig, error) {
	for i := range cfg.Games {
		if cfg.Games[i].ID == id {
			return &cfg.Games[i], nil
		}
	}
	return nil, fmt.Errorf("unknown game %q", id)
}

// sandboxContext loads a game and the pieces a manual sandbox
// snapshot/restore command needs: its home dir, its launch options (for
// the runner the registry tool runs under), and its sandbox descriptor.
func sandboxContext(cmd *cobra.Command, gameID string) (*config.GameConfig, home.Dir, launch.Options, sandbox.Descriptor, error) {
	cfg, _, hd, err := loadConfig(context.Background(), cmd)
	if err != nil {
		return nil, home.Dir{}, launch.Options{}, sandbox.Descriptor{}, err
	}
	game, err := findGame(cfg, gameID)
	if err != nil {
		return nil, home.Dir{}, launch.Options{}, sandbox.Descriptor{}, err
	}
	opts := buildLaunchOptions(*game)
	desc := sandbox.Descriptor{Files: game.Sandbox.Files, RegistryKeys: game.Sandbox.RegistryKeys}
	return game, hd, opts, desc, nil
}

// outputFormat returns "json" or "table" from the --output flag.
func outputFormat(cmd *cobra.Command) string {
	f, _ := cmd.Flags().GetString("output")
	return f
}

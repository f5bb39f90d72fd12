package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"yago/internal/config"
	"yago/internal/deploy"
	"yago/internal/devwatch"
	"yago/internal/logging"
	"yago/internal/modlang"
)

func newDeployCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deploy <game-id>",
		Short: "Compose enabled mod profiles and realize the Mods/YAGO overlay",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger = logging.Default(logger)
			watch, _ := cmd.Flags().GetBool("watch")

			cfg, _, _, err := loadConfig(context.Background(), cmd)
			if err != nil {
				return err
			}
			game, err := findGame(cfg, args[0])
			if err != nil {
				return err
			}

			if err := deployOnce(logger, game, args[0]); err != nil {
				return err
			}
			if !watch {
				return nil
			}
			return watchAndRedeploy(logger, game, args[0])
		},
	}
	cmd.Flags().Bool("watch", false, "redeploy automatically whenever a mod's files change")
	return cmd
}

func deployOnce(logger *slog.Logger, game *config.GameConfig, gameID string) error {
	profiles := enabledProfiles(game)
	plan, err := deploy.BuildPlan(profiles, parseModDefinition)
	if err != nil {
		return fmt.Errorf("build deployment plan: %w", err)
	}
	if err := deploy.Execute(plan, game.InstallDir, ""); err != nil {
		return fmt.Errorf("realize deployment plan: %w", err)
	}
	logger.Info("deployed", "game", gameID,
		"symlinks", len(plan.Symlinks), "generated_files", len(plan.GeneratedFiles))
	fmt.Printf("Deployed %d mod profile(s) for %q\n", len(profiles), gameID)
	return nil
}

// watchAndRedeploy watches every enabled profile's mod root and
// redeploys on change, until interrupted.
func watchAndRedeploy(logger *slog.Logger, game *config.GameConfig, gameID string) error {
	roots := make([]string, 0, len(game.Profiles))
	for _, p := range game.Profiles {
		if p.Enabled {
			roots = append(roots, p.ModRoot)
		}
	}
	if len(roots) == 0 {
		return nil
	}

	w, err := devwatch.New(roots, logger)
	if err != nil {
		return fmt.Errorf("watch mod roots: %w", err)
	}
	defer w.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	w.Run(ctx, func() {
		if err := deployOnce(logger, game, gameID); err != nil {
			logger.Error("redeploy failed", "error", err)
		}
	})
	return nil
}

func enabledProfiles(game *config.GameConfig) []deploy.ModProfile {
	var profiles []deploy.ModProfile
	for _, p := range game.Profiles {
		if !p.Enabled {
			continue
		}
		profiles = append(profiles, deploy.ModProfile{
			UUID:               p.UUID,
			ModRoot:            p.ModRoot,
			DefinitionPath:     p.DefinitionPath,
			DeployRelativePath: p.DeployRelativePath,
			CharacterTag:       p.CharacterTag,
			NSFW:               p.NSFW,
		})
	}
	return profiles
}

// parseModDefinition backs deploy.ParseDefinition with the real
// filesystem: DefinitionPath is resolved relative to ModRoot.
func parseModDefinition(profile deploy.ModProfile) (*modlang.Document, error) {
	path := filepath.Join(profile.ModRoot, profile.DefinitionPath)
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mod definition %s: %w", path, err)
	}
	return modlang.Parse(string(src)), nil
}

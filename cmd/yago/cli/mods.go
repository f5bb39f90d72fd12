package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"yago/internal/config"
)

func newModCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mods",
		Short: "Manage mod profiles for a game",
	}
	cmd.AddCommand(newModAddCmd(), newModListCmd(), newModSetEnabledCmd(true), newModSetEnabledCmd(false))
	return cmd
}

func newModAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <game-id>",
		Short: "Register a mod profile for a game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			modRoot, _ := cmd.Flags().GetString("mod-root")
			definition, _ := cmd.Flags().GetString("definition")
			deployPath, _ := cmd.Flags().GetString("deploy-path")
			characterTag, _ := cmd.Flags().GetString("character-tag")
			nsfw, _ := cmd.Flags().GetBool("nsfw")

			ctx := context.Background()
			cfg, store, _, err := loadConfig(ctx, cmd)
			if err != nil {
				return err
			}
			game, err := findGame(cfg, args[0])
			if err != nil {
				return err
			}

			id := uuid.NewString()
			game.Profiles = append(game.Profiles, config.ProfileConfig{
				UUID:               id,
				ModRoot:            modRoot,
				DefinitionPath:     definition,
				DeployRelativePath: deployPath,
				CharacterTag:       characterTag,
				NSFW:               nsfw,
				Enabled:            true,
			})
			if err := store.Save(ctx, cfg); err != nil {
				return err
			}
			fmt.Printf("Registered mod profile %s for game %q\n", id, args[0])
			return nil
		},
	}
	cmd.Flags().String("mod-root", "", "mod's root directory (required)")
	cmd.Flags().String("definition", "", "mod-definition file, relative to mod-root (required)")
	cmd.Flags().String("deploy-path", "", "path the mod's files are exposed under in the overlay")
	cmd.Flags().String("character-tag", "", "character this mod conflicts with others over, if any")
	cmd.Flags().Bool("nsfw", false, "mark this profile as NSFW content")
	_ = cmd.MarkFlagRequired("mod-root")
	_ = cmd.MarkFlagRequired("definition")
	return cmd
}

func newModListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <game-id>",
		Short: "List a game's mod profiles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, _, err := loadConfig(context.Background(), cmd)
			if err != nil {
				return err
			}
			game, err := findGame(cfg, args[0])
			if err != nil {
				return err
			}
			p := newPrinter(outputFormat(cmd))
			if outputFormat(cmd) == "json" {
				return p.json(game.Profiles)
			}
			var rows [][]string
			for _, pr := range game.Profiles {
				rows = append(rows, []string{
					pr.UUID, pr.DeployRelativePath, pr.CharacterTag,
					strconv.FormatBool(pr.NSFW), strconv.FormatBool(pr.Enabled),
				})
			}
			p.table([]string{"UUID", "DEPLOY PATH", "CHARACTER TAG", "NSFW", "ENABLED"}, rows)
			return nil
		},
	}
}

func newModSetEnabledCmd(enabled bool) *cobra.Command {
	use := "disable <game-id> <uuid>"
	short := "Disable a mod profile"
	if enabled {
		use = "enable <game-id> <uuid>"
		short = "Enable a mod profile"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg, store, _, err := loadConfig(ctx, cmd)
			if err != nil {
				return err
			}
			game, err := findGame(cfg, args[0])
			if err != nil {
				return err
			}
			found := false
			for i := range game.Profiles {
				if game.Profiles[i].UUID == args[1] {
					game.Profiles[i].Enabled = enabled
					found = true
					break
				}
			}
			if !found {
				return fmt.Errorf("unknown mod profile %q for game %q", args[1], args[0])
			}
			if err := store.Save(ctx, cfg); err != nil {
				return err
			}
			fmt.Printf("%s mod profile %s\n", map[bool]string{true: "Enabled", false: "Disabled"}[enabled], args[1])
			return nil
		},
	}
}

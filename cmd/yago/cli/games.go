package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"yago/internal/config"
)

func newGameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "games",
		Short: "Manage tracked game installations",
	}
	cmd.AddCommand(newGameAddCmd(), newGameListCmd())
	return cmd
}

func newGameAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Track a new game installation",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetString("id")
			displayName, _ := cmd.Flags().GetString("display-name")
			installDir, _ := cmd.Flags().GetString("install-dir")
			executable, _ := cmd.Flags().GetString("executable")
			manifestURLs, _ := cmd.Flags().GetStringSlice("manifest-url")
			chunkBaseURL, _ := cmd.Flags().GetString("chunk-base-url")

			ctx := context.Background()
			cfg, store, _, err := loadConfig(ctx, cmd)
			if err != nil {
				return err
			}
			for _, g := range cfg.Games {
				if g.ID == id {
					return fmt.Errorf("game %q already tracked", id)
				}
			}
			cfg.Games = append(cfg.Games, config.GameConfig{
				ID:             id,
				DisplayName:    displayName,
				InstallDir:     installDir,
				ExecutableName: executable,
				ManifestURLs:   manifestURLs,
				ChunkBaseURL:   chunkBaseURL,
			})
			if err := store.Save(ctx, cfg); err != nil {
				return err
			}
			fmt.Printf("Tracking game %q (%s)\n", id, displayName)
			return nil
		},
	}
	cmd.Flags().String("id", "", "unique game ID (required)")
	cmd.Flags().String("display-name", "", "human-readable name")
	cmd.Flags().String("install-dir", "", "absolute path to the install directory (required)")
	cmd.Flags().String("executable", "", "executable name, relative to install-dir")
	cmd.Flags().StringSlice("manifest-url", nil, "manifest endpoint URL (repeatable)")
	cmd.Flags().String("chunk-base-url", "", "base URL chunk downloads are built from")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("install-dir")
	return cmd
}

func newGameListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tracked games",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, _, err := loadConfig(context.Background(), cmd)
			if err != nil {
				return err
			}
			p := newPrinter(outputFormat(cmd))
			if outputFormat(cmd) == "json" {
				return p.json(cfg.Games)
			}
			var rows [][]string
			for _, g := range cfg.Games {
				rows = append(rows, []string{g.ID, g.DisplayName, g.InstallDir, fmt.Sprintf("%d", len(g.Profiles))})
			}
			p.table([]string{"ID", "NAME", "INSTALL DIR", "PROFILES"}, rows)
			return nil
		},
	}
}

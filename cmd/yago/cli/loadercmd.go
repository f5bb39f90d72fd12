package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"yago/internal/loader"
)

func newLoaderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "loader",
		Short: "Install or remove the 3DMigoto-style loader in a game directory",
	}
	cmd.AddCommand(newLoaderInstallCmd(), newLoaderUninstallCmd())
	return cmd
}

func newLoaderInstallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install <game-id>",
		Short: "Stage the loader payload into (or alongside) a game directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			method, _ := cmd.Flags().GetString("method")
			installReShade, _ := cmd.Flags().GetBool("reshade")

			ctx := context.Background()
			cfg, _, hd, err := loadConfig(ctx, cmd)
			if err != nil {
				return err
			}
			game, err := findGame(cfg, args[0])
			if err != nil {
				return err
			}

			m, err := parseLoaderMethod(method)
			if err != nil {
				return err
			}

			opts := loader.Options{
				Method:           m,
				GameDir:          game.InstallDir,
				LibraryGameDir:   hd.LibraryGameDir(args[0]),
				LibraryCommonDir: hd.LibraryCommonDir(),
				GameExecutable:   game.ExecutableName,
				InstallReShade:   installReShade,
			}
			if m == loader.MethodLoader {
				opts.LibraryGameDir = hd.LibraryGameDir(args[0])
			}
			if err := loader.Install(opts); err != nil {
				return fmt.Errorf("install loader: %w", err)
			}
			fmt.Printf("Installed loader (%s) for %q\n", method, args[0])
			return nil
		},
	}
	cmd.Flags().String("method", "proxy", "injection staging method: proxy, reshadeonly, or loader")
	cmd.Flags().Bool("reshade", false, "also stage ReShade alongside the proxy DLL")
	return cmd
}

func newLoaderUninstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall <game-id>",
		Short: "Remove every loader-owned file from a game directory",
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
			if err := loader.Uninstall(game.InstallDir); err != nil {
				return fmt.Errorf("uninstall loader: %w", err)
			}
			fmt.Printf("Uninstalled loader for %q\n", args[0])
			return nil
		},
	}
}

func parseLoaderMethod(s string) (loader.Method, error) {
	switch s {
	case "proxy", "":
		return loader.MethodProxy, nil
	case "reshadeonly":
		return loader.MethodReShadeOnly, nil
	case "loader":
		return loader.MethodLoader, nil
	default:
		return "", fmt.Errorf("unknown loader method %q", s)
	}
}

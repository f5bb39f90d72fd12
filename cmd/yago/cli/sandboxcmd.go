package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"yago/internal/sandbox"
)

func newSandboxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sandbox",
		Short: "Manually snapshot or restore a profile's save-adjacent state",
	}
	cmd.AddCommand(newSandboxSnapshotCmd(), newSandboxRestoreCmd())
	return cmd
}

func newSandboxSnapshotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot <game-id> <profile-uuid>",
		Short: "Copy the game's current save-adjacent state into profile storage",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			game, hd, opts, desc, err := sandboxContext(cmd, args[0])
			if err != nil {
				return err
			}
			dataDir := hd.SandboxDataDir(args[0], args[1])
			if err := sandbox.Snapshot(game.InstallDir, dataDir, desc, opts.Runner, opts.PrefixPath); err != nil {
				return fmt.Errorf("snapshot: %w", err)
			}
			fmt.Printf("Snapshotted sandbox for %s/%s\n", args[0], args[1])
			return nil
		},
	}
}

func newSandboxRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <game-id> <profile-uuid>",
		Short: "Restore a profile's saved state into the game directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			game, hd, opts, desc, err := sandboxContext(cmd, args[0])
			if err != nil {
				return err
			}
			dataDir := hd.SandboxDataDir(args[0], args[1])
			if err := sandbox.Restore(game.InstallDir, dataDir, desc, opts.Runner, opts.PrefixPath); err != nil {
				return fmt.Errorf("restore: %w", err)
			}
			fmt.Printf("Restored sandbox for %s/%s\n", args[0], args[1])
			return nil
		},
	}
}

package cli

import (
	"log/slog"

	"github.com/spf13/cobra"
)

// NewRootCommand returns the "yago" root command with every subcommand
// wired in. version is printed by the version subcommand.
func NewRootCommand(logger *slog.Logger, version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "yago",
		Short: "Yet Another Game-mod Orchestrator",
		Long:  "Manages game installs, mod composition, deployment, loader injection, and launch for native and Wine/Proton-run games.",
	}

	cmd.PersistentFlags().String("home", "", "yago home directory (default: platform config dir)")
	cmd.PersistentFlags().StringP("output", "o", "table", "output format: table or json")

	cmd.AddCommand(
		newGameCmd(),
		newModCmd(),
		newInstallCmd(logger),
		newVerifyCmd(logger),
		newDeployCmd(logger),
		newLoaderCmd(),
		newLaunchCmd(logger),
		newSandboxCmd(),
		newVersionCmd(version),
	)

	return cmd
}

func newVersionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(version)
		},
	}
}

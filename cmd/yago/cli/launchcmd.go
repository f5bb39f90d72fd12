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
	"yago/internal/launch"
	"yago/internal/logging"
	"yago/internal/sandbox"
)

func newLaunchCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "launch <game-id>",
		Short: "Launch a game, restoring and re-snapshotting its sandbox around the run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, _ := cmd.Flags().GetString("profile")
			logger = logging.Default(logger)

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			cfg, _, hd, err := loadConfig(ctx, cmd)
			if err != nil {
				return err
			}
			game, err := findGame(cfg, args[0])
			if err != nil {
				return err
			}

			opts := buildLaunchOptions(*game)
			if len(opts.Args) == 0 {
				opts.Args = cfg.LauncherDefault.DefaultArgs
			}
			runner := opts.Runner

			var profileDataDir string
			desc := sandbox.Descriptor{Files: game.Sandbox.Files, RegistryKeys: game.Sandbox.RegistryKeys}
			if profile != "" {
				profileDataDir = hd.SandboxDataDir(args[0], profile)
				if err := sandbox.Restore(game.InstallDir, profileDataDir, desc, runner, opts.PrefixPath); err != nil {
					return fmt.Errorf("restore sandbox: %w", err)
				}
			}

			if launch.NeedsPrefixPriming(opts) {
				logger.Info("priming fresh prefix", "prefix", opts.PrefixPath)
				if err := launch.PrimePrefix(ctx, opts); err != nil {
					return fmt.Errorf("prime prefix: %w", err)
				}
			}

			proc, err := launch.Launch(ctx, opts)
			if err != nil {
				return fmt.Errorf("launch: %w", err)
			}

			waitErr := proc.Wait()
			if err := launch.CleanupAfterExit(opts); err != nil {
				logger.Warn("post-exit cleanup failed", "error", err)
			}

			if profile != "" {
				if err := sandbox.Snapshot(game.InstallDir, profileDataDir, desc, runner, opts.PrefixPath); err != nil {
					return fmt.Errorf("snapshot sandbox: %w", err)
				}
			}

			return waitErr
		},
	}
	cmd.Flags().String("profile", "", "sandbox profile UUID to restore before the run and snapshot after")
	return cmd
}

func buildLaunchOptions(g config.GameConfig) launch.Options {
	lc := g.Launch
	return launch.Options{
		ExePath:         filepath.Join(g.InstallDir, g.ExecutableName),
		Args:            lc.Args,
		CurrentDir:      g.InstallDir,
		Runner:          launch.Runner{Type: parseRunnerType(lc.Runner), Path: lc.RunnerPath},
		PrefixPath:      lc.PrefixPath,
		Gamescope:       lc.Gamescope,
		GamescopeWidth:  lc.GamescopeWidth,
		GamescopeHeight: lc.GamescopeHeight,
		Gamemode:        lc.Gamemode,
		MangoHud:        lc.MangoHud,
		FPSTarget:       lc.FPSTarget,
		Injection:       parseInjectionMethod(lc.Injection),
		IntegrityShield: lc.IntegrityShield,
		ShieldLibrary:   lc.ShieldLibrary,
	}
}

func parseRunnerType(s string) launch.RunnerType {
	switch s {
	case "wine":
		return launch.RunnerWine
	case "proton":
		return launch.RunnerProton
	default:
		return launch.RunnerNative
	}
}

func parseInjectionMethod(s string) launch.InjectionMethod {
	switch s {
	case "proxy":
		return launch.InjectionProxy
	case "loader":
		return launch.InjectionLoader
	case "remoteThread":
		return launch.InjectionRemoteThread
	case "manualMap":
		return launch.InjectionManualMap
	default:
		return launch.InjectionNone
	}
}

package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"yago/internal/config"
	"yago/internal/fetcher"
	"yago/internal/manifest"
	"yago/internal/orchestrator"
	"yago/internal/scanner"
)

func newInstallCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install <game-id>",
		Short: "Fetch and write every manifest file for a game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fromVersion, _ := cmd.Flags().GetString("from")
			return runInstall(cmd.Context(), logger, cmd, args[0], fromVersion, false)
		},
	}
	cmd.Flags().String("from", "", "currently-installed version, enabling binary-diff chunks")
	return cmd
}

func newVerifyCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <game-id>",
		Short: "Check an installation against its manifests",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deep, _ := cmd.Flags().GetBool("deep")
			repair, _ := cmd.Flags().GetBool("repair")
			schedule, _ := cmd.Flags().GetString("schedule")
			if schedule != "" {
				return runScheduledVerify(cmd.Context(), logger, cmd, args[0], schedule)
			}
			if repair {
				return runInstall(cmd.Context(), logger, cmd, args[0], "", true)
			}
			return runScan(cmd.Context(), cmd, args[0], deep)
		},
	}
	cmd.Flags().Bool("deep", false, "hash every chunk's bytes instead of checking size only")
	cmd.Flags().Bool("repair", false, "fetch and rewrite any chunk found to diverge")
	cmd.Flags().String("schedule", "", "run verify-and-repair on this cron schedule instead of once, blocking until interrupted")
	return cmd
}

// runScheduledVerify registers a periodic verify_and_repair sweep and
// blocks until interrupted, for a long-lived "keep this install honest"
// process running alongside the game rather than invoked before launch.
func runScheduledVerify(ctx context.Context, logger *slog.Logger, cmd *cobra.Command, gameID, cronExpr string) error {
	cfg, _, hd, err := loadConfig(ctx, cmd)
	if err != nil {
		return err
	}
	game, err := findGame(cfg, gameID)
	if err != nil {
		return err
	}

	f := fetcher.New(game.ChunkBaseURL,
		fetcher.WithLogger(logger),
		fetcher.WithCacheDir(hd.ChunkCacheDir(gameID)),
		fetcher.WithRateLimit(rate.Limit(32), 8))

	manifests, err := resolveManifests(ctx, game, f)
	if err != nil {
		return err
	}

	engine := orchestrator.NewEngine(f, game.InstallDir, orchestrator.WithLogger(logger))
	plan := orchestrator.Plan(manifests, "")
	fileSizes := orchestrator.FileSizes(manifests)

	sched, err := engine.SchedulePeriodicVerify(cronExpr, plan, fileSizes)
	if err != nil {
		return fmt.Errorf("schedule periodic verify: %w", err)
	}
	defer sched.Stop()

	fmt.Fprintf(cmd.OutOrStdout(), "verifying %q on schedule %q; press Ctrl-C to stop\n", gameID, cronExpr)
	runCtx, cancel := signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()
	<-runCtx.Done()
	return nil
}

// resolveManifests fetches every manifest URL configured for a game.
func resolveManifests(ctx context.Context, g *config.GameConfig, f *fetcher.Fetcher) ([]*manifest.Manifest, error) {
	var manifests []*manifest.Manifest
	for _, url := range g.ManifestURLs {
		m, err := manifest.Fetch(ctx, url, nil)
		if err != nil {
			return nil, fmt.Errorf("fetch manifest %s: %w", url, err)
		}
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("manifest %s: %w", url, err)
		}
		manifests = append(manifests, m)
	}
	return manifests, nil
}

func runInstall(ctx context.Context, logger *slog.Logger, cmd *cobra.Command, gameID, fromVersion string, repairOnly bool) error {
	cfg, _, hd, err := loadConfig(ctx, cmd)
	if err != nil {
		return err
	}
	game, err := findGame(cfg, gameID)
	if err != nil {
		return err
	}

	f := fetcher.New(game.ChunkBaseURL,
		fetcher.WithLogger(logger),
		fetcher.WithCacheDir(hd.ChunkCacheDir(gameID)),
		fetcher.WithRateLimit(rate.Limit(32), 8))

	manifests, err := resolveManifests(ctx, game, f)
	if err != nil {
		return err
	}

	workers := cfg.LauncherDefault.Workers
	if workers <= 0 {
		workers = 8
	}
	engine := orchestrator.NewEngine(f, game.InstallDir, orchestrator.WithWorkers(workers), orchestrator.WithLogger(logger))

	plan := orchestrator.Plan(manifests, fromVersion)
	fileSizes := orchestrator.FileSizes(manifests)

	var events <-chan orchestrator.Event
	if repairOnly {
		events = engine.VerifyAndRepair(ctx, plan, fileSizes, nil)
	} else {
		events = engine.Run(ctx, plan, fileSizes, nil)
	}
	return drainEvents(cmd, events)
}

func drainEvents(cmd *cobra.Command, events <-chan orchestrator.Event) error {
	var failed []string
	for ev := range events {
		switch ev.Kind {
		case orchestrator.EventProgress:
			fmt.Fprintf(cmd.OutOrStdout(), "progress: %.1f%% (%d/%d)\n",
				ev.Progress.Percentage, ev.Progress.Downloaded, ev.Progress.Total)
		case orchestrator.EventError:
			fmt.Fprintf(cmd.OutOrStdout(), "error: chunk %s: %s\n", ev.ChunkID, ev.Reason)
		case orchestrator.EventCompleted:
			failed = ev.FailedChunkIDs
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d chunk(s) failed after retries: %v", len(failed), failed)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "done")
	return nil
}

func runScan(ctx context.Context, cmd *cobra.Command, gameID string, deep bool) error {
	cfg, _, _, err := loadConfig(ctx, cmd)
	if err != nil {
		return err
	}
	game, err := findGame(cfg, gameID)
	if err != nil {
		return err
	}

	manifests, err := resolveManifests(ctx, game, fetcher.New(game.ChunkBaseURL))
	if err != nil {
		return err
	}

	div, err := scanner.Scan(game.InstallDir, manifests, deep)
	if err != nil {
		return err
	}

	p := newPrinter(outputFormat(cmd))
	if outputFormat(cmd) == "json" {
		return p.json(div)
	}
	var rows [][]string
	for _, d := range div {
		rows = append(rows, []string{d.RelativePath, string(d.Reason), d.ChunkID})
	}
	p.table([]string{"PATH", "REASON", "CHUNK ID"}, rows)
	if len(div) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no divergences")
	}
	return nil
}

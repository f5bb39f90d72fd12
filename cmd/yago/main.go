// Command yago manages native game installations, mod composition, and
// compatibility-layer launches.
//
// Logging:
//   - Base logger is created here with output format and level
//   - Logger is passed to subcommands via dependency injection
//   - No global slog configuration (no slog.SetDefault)
//   - Components scope loggers with their own attributes
package main

import (
	"log/slog"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // G108: pprof is intentionally available when --pprof flag is set
	"os"
	"time"

	"github.com/spf13/cobra"

	"yago/cmd/yago/cli"
	"yago/internal/logging"
)

var version = "dev"

func main() {
	baseHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug, // allow all levels; filtering done by ComponentFilterHandler
	})
	filterHandler := logging.NewComponentFilterHandler(baseHandler, slog.LevelInfo)
	logger := slog.New(filterHandler)

	rootCmd := cli.NewRootCommand(logger, version)
	rootCmd.PersistentFlags().String("pprof", "", "pprof HTTP server address (e.g. localhost:6060). WARNING: exposes CPU/memory profiles and goroutine dumps, bind to loopback only, never expose publicly")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		pprofAddr, _ := cmd.Flags().GetString("pprof")
		if pprofAddr != "" {
			go func() {
				logger.Info("pprof server listening", "addr", pprofAddr)
				pprofSrv := &http.Server{Addr: pprofAddr, Handler: nil, ReadHeaderTimeout: 10 * time.Second}
				if err := pprofSrv.ListenAndServe(); err != nil {
					logger.Error("pprof server error", "error", err)
				}
			}()
		}
		return nil
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

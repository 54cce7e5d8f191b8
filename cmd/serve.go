package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/simplyzetax/habanero/internal/api"
	"github.com/simplyzetax/habanero/internal/config"
)

var serveInterval time.Duration

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run reconciliation on a schedule and expose /healthz and the run trigger",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		engine, store, cleanup, err := buildEngine(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		server := api.NewServer(cfg.ListenAddr, engine, store)
		if err := server.Start(); err != nil {
			return err
		}

		runCtx, cancelRuns := context.WithCancel(context.Background())
		defer cancelRuns()
		if serveInterval > 0 {
			go scheduleRuns(runCtx, server, serveInterval)
		}

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop

		slog.Info("shutting down")
		cancelRuns()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Stop(ctx)
	},
}

// scheduleRuns triggers a reconciliation run every interval until ctx is
// cancelled. A tick that lands while a run is still in flight is dropped.
func scheduleRuns(ctx context.Context, server *api.Server, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report, started, err := server.TryRun(ctx)
			switch {
			case !started:
				slog.Warn("scheduled run skipped, previous run still in flight")
			case err != nil:
				slog.Error("scheduled run failed", "err", err)
			default:
				failed := 0
				for _, item := range report.Items {
					if !item.Success {
						failed++
					}
				}
				slog.Info("scheduled run finished",
					"version", report.Version,
					"items", len(report.Items),
					"failed", failed)
			}
		}
	}
}

func init() {
	serveCmd.Flags().DurationVar(&serveInterval, "interval", 15*time.Minute,
		"time between scheduled reconciliation runs (0 disables the schedule)")
	rootCmd.AddCommand(serveCmd)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"igtracker/internal/refresher"
	"igtracker/internal/scheduler"
	"igtracker/pkg/ui"
)

const refreshJobName = "refresh-tracked-profiles"

var (
	watchSchedule    string
	watchWorkers     int
	watchMetricsAddr string
	watchTimezone    string
	watchRunNow      bool
	watchNotify      bool
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Periodically refresh every tracked profile",
	Long: `Run in the foreground and re-track every stored (owner, username) pair
on a cron schedule. Profiles are refreshed concurrently by a bounded pool of
workers; network and rate limit failures are retried.

The schedule uses the standard five-field cron format or a descriptor such
as "@every 2h". Stop with Ctrl+C.`,
	Example: `  # Refresh every six hours (the default)
  igtracker watch

  # Refresh hourly with four workers and expose Prometheus metrics
  igtracker watch --schedule "@every 1h" --workers 4 --metrics-addr :9464

  # Refresh once immediately, then follow the schedule
  igtracker watch --run-now`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVar(&watchSchedule, "schedule", "", "cron schedule for refreshes (default from config)")
	watchCmd.Flags().IntVar(&watchWorkers, "workers", 0, "number of concurrent refresh workers (default from config)")
	watchCmd.Flags().StringVar(&watchMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	watchCmd.Flags().StringVar(&watchTimezone, "timezone", "", "timezone for the schedule (default local)")
	watchCmd.Flags().BoolVar(&watchRunNow, "run-now", false, "refresh once at startup")
	watchCmd.Flags().BoolVar(&watchNotify, "notify", false, "send a desktop notification after each refresh")
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := scheduler.ValidateSchedule(cfg.Schedule.Cron); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := scheduler.New(watchTimezone, cfg.Schedule.JobTimeout, a.logger)
	if err != nil {
		return err
	}

	notifier := ui.NewNotifier(watchNotify)
	opts := refresher.OptionsFromConfig(cfg.Schedule)

	refresh := func(ctx context.Context) error {
		jobs, err := a.store.ListTracked(ctx)
		if err != nil {
			return fmt.Errorf("failed to list tracked profiles: %w", err)
		}
		if len(jobs) == 0 {
			a.logger.Info("no tracked profiles to refresh")
			return nil
		}

		summary := refresher.RefreshAll(ctx, a.pipeline, jobs, opts, a.logger)
		notifier.NotifyRefresh(summary.Total, summary.Succeeded)
		for _, failed := range summary.Failed {
			ui.PrintWarning(fmt.Sprintf("Refresh failed for %s/%s", failed.Job.OwnerID, failed.Job.Username), failed.Error)
		}
		return nil
	}

	if err := sched.AddJob(refreshJobName, cfg.Schedule.Cron, refresh); err != nil {
		return err
	}

	var server *http.Server
	if cfg.Metrics.Enabled {
		server = startMetricsServer(cfg.Metrics.Address, a)
	}

	if watchRunNow {
		if err := sched.RunNow(refreshJobName, refresh); err != nil {
			ui.PrintWarning("Initial refresh failed", err.Error())
		}
	}

	sched.Start()
	for _, job := range sched.ListJobs() {
		ui.PrintInfo("Next refresh", job.NextRun.Format(time.RFC1123))
	}
	ui.PrintHighlight("Watching tracked profiles, press Ctrl+C to stop")

	<-ctx.Done()
	ui.PrintInfo("Shutting down", "waiting for running refreshes")

	<-sched.Stop().Done()
	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			a.logger.WithError(err).Warn("metrics server shutdown failed")
		}
	}
	return nil
}

// startMetricsServer serves the default Prometheus registry at /metrics
func startMetricsServer(addr string, a *app) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		a.logger.InfoWithFields("metrics server listening", map[string]interface{}{"address": addr})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.WithError(err).Error("metrics server failed")
		}
	}()

	return server
}

package main

import (
	"context"
	"errors"
	"net/http"
	"syscall"
	"time"

	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/smokerep/smokerep/logscan"
	"github.com/smokerep/smokerep/telemetry"
	"github.com/smokerep/smokerep/types"
)

var watchMetricsAddr string

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch <build-log>",
	Short: "Tail a growing build log and write reports as results arrive",
	Long: `Watch tails the build log of a running install tool and writes a
report file the moment each distribution finishes. Existing log content
is processed first, then new events are dispatched as they appear.

A Prometheus metrics endpoint is served while watching.`,
	Example: `  smokerep watch ~/.cpanplus/build.log --reports ./reports
  smokerep watch build.log -r ./reports --metrics :9191`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	addPipelineFlags(watchCmd)
	watchCmd.Flags().StringVar(&watchMetricsAddr, "metrics", ":9090", "Metrics server address")
}

func runWatch(cmd *cobra.Command, args []string) error {
	opts, err := loadOptions()
	if err != nil {
		return err
	}
	addr := watchMetricsAddr
	if !cmd.Flags().Changed("metrics") && opts.MetricsAddr != "" {
		addr = opts.MetricsAddr
	}

	logger := telemetry.NewLogger("smokerep", flagDebug, opts.Quiet)

	shutdownMetrics, err := telemetry.InitMetrics()
	if err != nil {
		return err
	}
	defer func() { _ = shutdownMetrics(context.Background()) }()

	p, cleanup, err := buildPipeline(opts, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	logger.Info().
		Str("log", args[0]).
		Str("reports", opts.ReportDir).
		Str("metrics", addr).
		Msg("smokerep watching")

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	var g run.Group

	// Log follower
	g.Add(func() error {
		return logscan.Follow(ctx, args[0], func(ev types.Event) error {
			return p.Handle(ctx, ev)
		})
	}, func(error) {
		cancel()
	})

	// Metrics server
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(telemetry.PrometheusRegistry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	g.Add(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}, func(error) {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	})

	// Signal handling
	g.Add(run.SignalHandler(ctx, syscall.SIGINT, syscall.SIGTERM))

	err = g.Run()
	var sig run.SignalError
	if errors.As(err, &sig) {
		logger.Info().Str("signal", sig.Signal.String()).Msg("shutting down")
		return nil
	}
	return err
}

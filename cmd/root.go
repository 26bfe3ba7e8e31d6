// Package cmd defines and implements the CLI for the prism-catalog-builder
// executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/climate-tools/prism-catalog-builder/internal/catalog"
	"github.com/climate-tools/prism-catalog-builder/internal/config"
	"github.com/climate-tools/prism-catalog-builder/internal/fetch"
	"github.com/climate-tools/prism-catalog-builder/internal/listing"
	"github.com/climate-tools/prism-catalog-builder/internal/logging"
	"github.com/climate-tools/prism-catalog-builder/internal/metrics"
	"github.com/climate-tools/prism-catalog-builder/internal/progress"
	"github.com/climate-tools/prism-catalog-builder/internal/progress/sinks"
)

var cfgFile string

// newRootCmd creates and configures the root command. The builder has no
// subcommands: one invocation crawls every variable for both frequencies
// and exits.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prism-catalog-builder",
		Short: "Builds JSON catalogs of the PRISM 800m time-series archive.",
		Long: `prism-catalog-builder crawls the Apache directory listings published by
the PRISM climate group, discovers the year sub-directories for every
variable at the monthly and daily frequencies, and writes one catalog JSON
file per frequency listing every .zip with its URL and size.`,

		Args: cobra.NoArgs,

		// Execute prints the returned error itself; keep cobra from
		// printing it a second time.
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE:          runBuildCommand,
	}

	cmd.Flags().String("base-url", config.DefaultBaseURL, "root of the PRISM listing tree to crawl")
	cmd.Flags().Int("workers", config.DefaultWorkers, "concurrent directory fetches")
	cmd.Flags().String("output-dir", config.DefaultOutputDir, "directory receiving the catalog files")
	cmd.Flags().String("metrics-addr", "", "listen address for /metrics (empty disables the listener)")
	cmd.Flags().StringVar(&cfgFile, "config", "", "config file (optional; PRISM_* env vars always apply)")

	return cmd
}

// Execute is the main entry point.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "prism-catalog-builder: %v\n", err)
		os.Exit(1)
	}
}

func runBuildCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck // best-effort flush on exit

	runID := uuid.New()
	logger = logger.With(zap.String("run_id", runID.String()))

	if cfg.Metrics.Addr != "" {
		startMetricsServer(cfg.Metrics.Addr, logger)
	}

	builder, hub, err := buildCatalogEngine(cfg, runID, logger)
	if err != nil {
		return err
	}

	logger.Info("Starting catalog build",
		zap.String("base_url", cfg.Catalog.BaseURL),
		zap.Strings("variables", cfg.Catalog.Variables),
		zap.Int("workers", cfg.Catalog.Workers),
		zap.String("output_dir", cfg.Catalog.OutputDir),
	)
	runErr := builder.Run(cmd.Context())

	// Drain buffered progress events on a fresh context; the command context
	// is already canceled when the build was interrupted.
	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := hub.Close(closeCtx); err != nil {
		logger.Warn("Progress hub shutdown incomplete", zap.Error(err))
	}

	if runErr != nil {
		return fmt.Errorf("build catalogs: %w", runErr)
	}
	logger.Info("Catalog build finished.")
	return nil
}

// buildCatalogEngine wires the fetch client, listing parser, scheduler and
// output sink into a Builder. The returned hub must be closed once the
// build is done so buffered progress events reach their sinks.
func buildCatalogEngine(cfg config.Config, runID uuid.UUID, logger *zap.Logger) (*catalog.Builder, *progress.Hub, error) {
	promSink, err := sinks.NewPrometheusSink(nil)
	if err != nil {
		return nil, nil, fmt.Errorf("init progress metrics: %w", err)
	}
	hub := progress.NewHub(logger.Named("progress"),
		sinks.NewLogSink(logger.Named("progress"), cfg.Catalog.ProgressEvery),
		promSink,
	)
	emitter := progress.WithRun(hub, runID)

	client := fetch.New(fetch.Config{
		UserAgent:   cfg.Catalog.UserAgent,
		Timeout:     cfg.RequestTimeout(),
		MaxAttempts: cfg.HTTP.MaxRetries,
		BackoffBase: cfg.BackoffBase(),
	}, logger.Named("fetch"))

	lister := listing.NewLister(client, logger.Named("listing"))
	scheduler := catalog.NewScheduler(lister, cfg.Catalog.Workers, emitter, logger.Named("scheduler"))

	sink, err := catalog.NewFileSink(cfg.Catalog.OutputDir)
	if err != nil {
		return nil, nil, fmt.Errorf("init sink: %w", err)
	}

	builder := catalog.NewBuilder(scheduler, sink, cfg.Catalog.BaseURL, cfg.Catalog.Variables, emitter, logger.Named("builder"))
	return builder, hub, nil
}

// startMetricsServer exposes the Prometheus registry on addr for the
// lifetime of the process. Build runs are short so there is no graceful
// shutdown; the listener dies with the process.
func startMetricsServer(addr string, logger *zap.Logger) {
	router := chi.NewRouter()
	router.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("Metrics server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", zap.Error(err))
		}
	}()
}

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/opsguard/opsguard-seeder/internal/config"
	"github.com/opsguard/opsguard-seeder/internal/ingest"
	"github.com/opsguard/opsguard-seeder/internal/metrics"
	"github.com/opsguard/opsguard-seeder/internal/repo"
	"github.com/opsguard/opsguard-seeder/internal/ui"
	"github.com/opsguard/opsguard-seeder/internal/utils"
)

type options struct {
	configPath    string
	dataDir       string
	mappingsDir   string
	skipProvision bool
	skipVerify    bool
}

// rootCmd provisions indices, loads the generated bulk files, and verifies
// document counts. Each stage is also available as a subcommand.
func rootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "opsguard-ingest",
		Short:         "Load generated OpsGuard data into Elasticsearch",
		Long:          "Recreates the opsguard-* indices from mapping files, bulk loads the generated data, and reports per-index document counts. Reads ES_URL and ES_API_KEY from the environment or the config file.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			if err := ingest.CheckInputs(a.cfg.Ingest.DataDir, ingest.DefaultBulkTasks()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "OpsGuard AI: Elasticsearch ingester")
			if !opts.skipProvision {
				a.provision(cmd.Context(), ingest.DefaultIndexPlan())
			}
			if err := a.load(cmd.Context()); err != nil {
				return err
			}
			if !opts.skipVerify {
				a.verify(cmd.Context())
			}
			a.finish()
			fmt.Fprintln(a.out, "\nDone. Your data is live on Elasticsearch.")
			return nil
		},
	}

	pflags := cmd.PersistentFlags()
	pflags.StringVar(&opts.configPath, "config", "", "Path to configuration file")
	pflags.StringVar(&opts.dataDir, "data-dir", "", "Directory holding the generated *_bulk.ndjson files")
	pflags.StringVar(&opts.mappingsDir, "mappings-dir", "", "Directory holding the index mapping JSON files")

	cmd.Flags().BoolVar(&opts.skipProvision, "skip-provision", false, "Keep existing indices instead of recreating them")
	cmd.Flags().BoolVar(&opts.skipVerify, "skip-verify", false, "Skip the final document counts")

	cmd.AddCommand(
		provisionCmd(opts),
		loadCmd(opts),
		verifyCmd(opts),
	)
	return cmd
}

func provisionCmd(opts *options) *cobra.Command {
	var only []string
	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Delete and recreate the opsguard-* indices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			plan, err := ingest.SelectIndices(ingest.DefaultIndexPlan(), only)
			if err != nil {
				return err
			}
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			a.provision(cmd.Context(), plan)
			a.finish()
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&only, "index", nil, "Recreate only these indices (repeatable)")
	return cmd
}

func loadCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "load",
		Short: "Bulk load the generated files into existing indices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			if err := ingest.CheckInputs(a.cfg.Ingest.DataDir, ingest.DefaultBulkTasks()); err != nil {
				return err
			}
			if err := a.load(cmd.Context()); err != nil {
				return err
			}
			a.finish()
			return nil
		},
	}
}

func verifyCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Print document counts of the loaded indices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			a.verify(cmd.Context())
			a.finish()
			return nil
		},
	}
}

// app carries what every stage needs for one invocation.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	backend  *repo.ElasticClient
	progress ui.Progress
	out      io.Writer
}

func newApp(cmd *cobra.Command, opts *options) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.dataDir != "" {
		cfg.Ingest.DataDir = opts.dataDir
	}
	if opts.mappingsDir != "" {
		cfg.Ingest.MappingsDir = opts.mappingsDir
	}
	if err := cfg.ValidateElastic(); err != nil {
		return nil, err
	}

	out := cmd.OutOrStdout()
	logger := utils.NewLoggerTo(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.JSON)

	registry := prometheus.NewRegistry()
	if err := metrics.Register(registry); err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	backend, err := repo.NewElasticClient(repo.ElasticConfig{
		URL:         cfg.Elastic.URL,
		APIKey:      cfg.Elastic.APIKey,
		Timeout:     cfg.Elastic.Timeout,
		MaxAttempts: cfg.Ingest.MaxAttempts,
		RetryDelay:  cfg.Ingest.RetryDelay,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		backend:  backend,
		progress: progressFor(cmd.ErrOrStderr()),
		out:      out,
	}, nil
}

func progressFor(w io.Writer) ui.Progress {
	if f, ok := w.(*os.File); ok {
		return ui.NewProgress(f)
	}
	return ui.Noop{}
}

func (a *app) provision(ctx context.Context, plan []ingest.IndexSpec) {
	a.banner("STEP 1: Creating indices")
	results, err := ingest.NewProvisioner(a.backend, a.cfg.Ingest.MappingsDir, a.logger).WithPlan(plan).Run(ctx)
	for _, res := range results {
		status := "OK"
		if res.Err != nil {
			status = "FAILED: " + utils.Truncate(res.Err.Error(), 150)
		}
		fmt.Fprintf(a.out, "  %-24s %s\n", res.Index, status)
	}
	if err != nil {
		a.logger.Warn("provisioning finished with failures", slog.Any("error", err))
	}
}

func (a *app) load(ctx context.Context) error {
	a.banner("STEP 2: Ingesting data via bulk API")
	summary, err := ingest.NewIngestor(a.backend, ingest.IngestorConfig{
		DataDir:    a.cfg.Ingest.DataDir,
		ChunkLines: a.cfg.Ingest.ChunkLines,
		Logger:     a.logger,
		Progress:   a.progress,
	}).Run(ctx)

	for _, file := range summary.Files {
		fmt.Fprintf(a.out, "  %s -> %s: %d/%d docs ingested, %d failed, %d failed chunks\n",
			file.File, file.Index, file.Indexed, file.Documents, file.Failed, file.FailedChunks)
	}
	for _, skipped := range summary.Skipped {
		fmt.Fprintf(a.out, "  %s not found, skipped\n", skipped)
	}
	fmt.Fprintf(a.out, "\nSUMMARY: %d docs ingested, %d failed", summary.Indexed, summary.Failed)
	if summary.FailedChunks > 0 {
		fmt.Fprintf(a.out, ", %d chunks failed", summary.FailedChunks)
	}
	fmt.Fprintln(a.out)
	return err
}

func (a *app) verify(ctx context.Context) {
	a.banner("STEP 3: Verification")
	for _, count := range ingest.NewVerifier(a.backend, a.logger).Run(ctx) {
		if count.Err != nil {
			fmt.Fprintf(a.out, "  %s: couldn't verify\n", count.Index)
			continue
		}
		fmt.Fprintf(a.out, "  %s: %d documents\n", count.Index, count.Documents)
	}
}

func (a *app) finish() {
	if err := metrics.WriteTextfile(a.cfg.Metrics.Textfile, a.registry); err != nil {
		a.logger.Warn("metrics textfile not written", slog.Any("error", err))
	}
}

func (a *app) banner(title string) {
	rule := "=================================================="
	fmt.Fprintf(a.out, "\n%s\n%s\n%s\n", rule, title, rule)
}

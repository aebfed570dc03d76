package main

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/opsguard/opsguard-seeder/internal/config"
	"github.com/opsguard/opsguard-seeder/internal/export"
	"github.com/opsguard/opsguard-seeder/internal/metrics"
	"github.com/opsguard/opsguard-seeder/internal/models"
	"github.com/opsguard/opsguard-seeder/internal/scenario"
	"github.com/opsguard/opsguard-seeder/internal/utils"
)

type options struct {
	configPath        string
	outputDir         string
	bulk              bool
	documentIDs       bool
	seed              int64
	now               string
	inclusiveBoundary bool
}

// rootCmd generates the incident scenario and writes it to disk.
func rootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "opsguard-datagen",
		Short:         "Generate a synthetic payment-service incident dataset",
		Long:          "Generates two hours of telemetry around a bad v2.4.2 deployment of payment-service, plus five historical incidents, as newline-delimited JSON.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("output-dir") {
				cfg.Generator.OutputDir = opts.outputDir
			}
			if flags.Changed("bulk") {
				cfg.Generator.Bulk = opts.bulk
			}
			if flags.Changed("doc-ids") {
				cfg.Generator.DocumentIDs = opts.documentIDs
			}
			return run(cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", "", "Path to configuration file")
	flags.StringVar(&opts.outputDir, "output-dir", "./generated-data", "Directory to write generated files into")
	flags.BoolVar(&opts.bulk, "bulk", false, "Also write <collection>_bulk.ndjson files for the bulk API")
	flags.BoolVar(&opts.documentIDs, "doc-ids", true, "Give bulk documents deterministic _id values so re-ingestion overwrites")
	flags.Int64Var(&opts.seed, "seed", 0, "Random seed; 0 seeds from the clock")
	flags.StringVar(&opts.now, "now", "", "Reference instant T-0 as RFC3339; defaults to the current time")
	flags.BoolVar(&opts.inclusiveBoundary, "inclusive-boundary", false, "Extend the normal phase through T-45")

	return cmd
}

func run(out, errOut io.Writer, cfg *config.Config, opts *options) error {
	logger := utils.NewLoggerTo(errOut, cfg.Logging.Level, cfg.Logging.JSON)

	reg := prometheus.NewRegistry()
	if err := metrics.Register(reg); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	now, err := utils.ParseOptionalRFC3339(opts.now)
	if err != nil {
		return utils.NewAppError("datagen", "invalid --now value", err)
	}
	seed := opts.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	genOpts := []scenario.Option{
		scenario.WithRand(rand.New(rand.NewSource(seed))),
		scenario.WithNow(now),
		scenario.WithLogger(logger),
	}
	if opts.inclusiveBoundary {
		genOpts = append(genOpts, scenario.WithInclusiveNormalBoundary())
	}
	gen := scenario.NewGenerator(genOpts...)

	fmt.Fprintln(out, "OpsGuard AI: generating sample data...")
	ds := gen.Generate()
	for _, c := range models.Collections() {
		metrics.ObserveGenerated(string(c), ds.Len(c))
	}
	printSummary(out, ds, gen)

	writer := export.NewWriter(cfg.Generator.OutputDir, cfg.Generator.DocumentIDs, logger)
	files, err := writer.WriteNDJSON(ds)
	if err != nil {
		return err
	}
	printFiles(out, files, false)

	if cfg.Generator.Bulk {
		bulkFiles, err := writer.WriteBulk(ds)
		if err != nil {
			return err
		}
		printFiles(out, bulkFiles, true)
	}

	if err := metrics.WriteTextfile(cfg.Metrics.Textfile, reg); err != nil {
		logger.Warn("metrics textfile not written", slog.Any("error", err))
	}

	fmt.Fprintf(out, "\nData generation complete. Files saved to: %s\n", cfg.Generator.OutputDir)
	fmt.Fprintln(out, "\nTo ingest into Elasticsearch:")
	fmt.Fprintln(out, "  opsguard-ingest --data-dir", cfg.Generator.OutputDir)
	fmt.Fprintln(out, "or directly:")
	fmt.Fprintln(out, "  curl -X POST '<ES_URL>/_bulk' \\")
	fmt.Fprintln(out, "    -H 'Content-Type: application/x-ndjson' \\")
	fmt.Fprintln(out, "    -H 'Authorization: ApiKey <API_KEY>' \\")
	fmt.Fprintf(out, "    --data-binary @%s\n", filepath.ToSlash(export.BulkPath(cfg.Generator.OutputDir, models.CollectionLogs)))
	return nil
}

func printSummary(out io.Writer, ds models.Dataset, gen *scenario.Generator) {
	rule := "============================================================"
	fmt.Fprintln(out)
	fmt.Fprintln(out, rule)
	fmt.Fprintln(out, "OpsGuard AI: Sample Data Generation Summary")
	fmt.Fprintln(out, rule)
	fmt.Fprintf(out, "Logs generated:           %d\n", ds.Len(models.CollectionLogs))
	fmt.Fprintf(out, "Metrics generated:        %d\n", ds.Len(models.CollectionMetrics))
	fmt.Fprintf(out, "Business metrics:         %d\n", ds.Len(models.CollectionBusiness))
	fmt.Fprintf(out, "Historical incidents:     %d\n", ds.Len(models.CollectionIncidents))
	fmt.Fprintf(out, "Total documents:          %d\n", ds.Total())
	fmt.Fprintln(out, rule)
	fmt.Fprintf(out, "\nScenario: payment-service degradation after v2.4.2 deployment (T-0 = %s)\n", gen.Now().Format(time.RFC3339))
	fmt.Fprintf(out, "   - Normal period: T-%dmin to T-%dmin\n", scenario.NormalStartMinute, scenario.NormalStartMinute-gen.NormalMinutes()+1)
	fmt.Fprintf(out, "   - Bad deployment: T-%dmin (v2.4.2)\n", scenario.DeployMinute)
	fmt.Fprintf(out, "   - Escalating incident: T-%dmin to T-0\n", scenario.EscalationStartMinute)
	fmt.Fprintln(out, "   - Cascading failure: order-processing affected")
	fmt.Fprintln(out)
}

func printFiles(out io.Writer, files []export.FileResult, bulk bool) {
	for _, f := range files {
		if bulk {
			fmt.Fprintf(out, "Wrote %d docs (bulk format) to %s\n", f.Documents, f.Path)
			continue
		}
		fmt.Fprintf(out, "Wrote %d documents to %s\n", f.Documents, f.Path)
	}
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/rlch/moviekg"
	"github.com/rlch/moviekg/console"
	"github.com/rlch/moviekg/ingest"
	"github.com/rlch/moviekg/metrics"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

const buildJob = "moviekg_build"

func buildCommand() *cli.Command {
	return &cli.Command{
		Name:  "build",
		Usage: "Clear the graph store and load the movie dataset into it",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "dataset",
				Aliases: []string{"d"},
				Usage:   "CSV dataset, local path or s3://bucket/key",
				Sources: cli.EnvVars("MOVIEKG_DATASET"),
			},
			&cli.IntFlag{
				Name:  "batch-size",
				Usage: "rows per transaction (overrides config)",
			},
			&cli.StringFlag{
				Name:  "filter",
				Usage: `only load rows matching an expression, e.g. "rating >= 8"`,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "print the build report as JSON",
			},
			&cli.StringFlag{
				Name:    "pushgateway",
				Usage:   "push ingest metrics to this Prometheus Pushgateway URL after the build",
				Sources: cli.EnvVars("MOVIEKG_PUSHGATEWAY"),
			},
		},
		Action: runBuild,
	}
}

func runBuild(ctx context.Context, cmd *cli.Command) error {
	e, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	cfg := e.cfg

	overrideString(cmd, "dataset", &cfg.Dataset.Location)
	overrideString(cmd, "filter", &cfg.Ingest.Filter)

	if n := cmd.Int("batch-size"); n > 0 {
		cfg.Ingest.BatchSize = n
	}

	store, ok := e.store.(moviekg.Transactional)
	if !ok {
		return fmt.Errorf("%w: %s", moviekg.ErrNoTransactionSupport, e.store.Name())
	}

	ds, err := ingest.Load(ctx, cfg.Dataset.Location, cfg.Dataset.S3)
	if err != nil {
		return err
	}

	e.logger.Info("Dataset loaded",
		zap.String("location", cfg.Dataset.Location),
		zap.Int("rows", len(ds.Rows)))

	reg := prometheus.NewRegistry()

	builder := ingest.New(store,
		ingest.WithBatchSize(cfg.Ingest.BatchSize),
		ingest.WithFilter(cfg.Ingest.Filter),
		ingest.WithLogger(e.logger),
		ingest.WithMetrics(metrics.New(reg)))

	report, buildErr := builder.Build(ctx, ds)

	if url := cmd.String("pushgateway"); url != "" {
		err := pushMetrics(ctx, url, reg)
		if err != nil {
			e.logger.Warn("Metrics push failed", zap.String("url", url), zap.Error(err))
		} else {
			e.logger.Info("Metrics pushed", zap.String("url", url))
		}
	}
	if report != nil {
		err := printReport(cmd.Bool("json"), report)
		if err != nil {
			return err
		}
	}

	return buildErr
}

// pushMetrics sends the ingest collectors of g to a Pushgateway under the
// moviekg_build job.
func pushMetrics(ctx context.Context, url string, g prometheus.Gatherer) error {
	err := push.New(url, buildJob).Gatherer(g).PushContext(ctx)
	if err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}

	return nil
}

func printReport(asJSON bool, report *ingest.Report) error {
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(report)
	}

	_, err := fmt.Fprint(os.Stdout, console.DefaultStyles().RenderReport(report))

	return err
}

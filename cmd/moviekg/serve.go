package main

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rlch/moviekg/metrics"
	"github.com/rlch/moviekg/server"
	"github.com/urfave/cli/v3"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the question API over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "listen",
				Aliases: []string{"l"},
				Usage:   "listen address (overrides config)",
				Sources: cli.EnvVars("MOVIEKG_LISTEN"),
			},
		},
		Action: runServe,
	}
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	e, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	overrideString(cmd, "listen", &e.cfg.Server.Listen)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	answerer, engine, err := e.answerer(metrics.New(reg))
	if err != nil {
		return err
	}

	srv := server.New(answerer, engine,
		server.WithLogger(e.logger),
		server.WithGatherer(reg))

	return srv.ListenAndServe(ctx, e.cfg.Server.Listen)
}

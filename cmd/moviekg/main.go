// Package main provides the moviekg CLI tool.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	// Register stores.
	_ "github.com/rlch/moviekg/stores/neo4j"
)

var version = "dev"

func main() {
	// A missing .env is fine; flags and the real environment still apply.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newApp().Run(ctx, os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1) //nolint:gocritic // stop already called
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "moviekg",
		Version: version,
		Usage:   "Movie knowledge graph builder and question answering",
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			buildCommand(),
			askCommand(),
			serveCommand(),
		},
	}
}

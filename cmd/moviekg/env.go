package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rlch/moviekg"
	"github.com/rlch/moviekg/metrics"
	"github.com/rlch/moviekg/query"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "config file (default: nearest .moviekg.yaml)",
			Sources: cli.EnvVars("MOVIEKG_CONFIG"),
		},
		&cli.StringFlag{
			Name:    "uri",
			Usage:   "graph store connection URI",
			Sources: cli.EnvVars("MOVIEKG_URI"),
		},
		&cli.StringFlag{
			Name:    "username",
			Aliases: []string{"u"},
			Usage:   "graph store username",
			Sources: cli.EnvVars("MOVIEKG_USER"),
		},
		&cli.StringFlag{
			Name:    "password",
			Aliases: []string{"p"},
			Usage:   "graph store password",
			Sources: cli.EnvVars("MOVIEKG_PASS"),
		},
		&cli.StringFlag{
			Name:    "database",
			Usage:   "graph store database name",
			Sources: cli.EnvVars("MOVIEKG_DATABASE"),
		},
		&cli.StringFlag{
			Name:    "dictionary",
			Usage:   "movie title dictionary file",
			Sources: cli.EnvVars("MOVIEKG_DICTIONARY"),
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "debug logging",
		},
	}
}

// loadConfig reads the config file, applies flag overrides and validates.
func loadConfig(cmd *cli.Command) (*moviekg.Config, error) {
	var (
		cfg *moviekg.Config
		err error
	)

	if path := cmd.String("config"); path != "" {
		cfg, err = moviekg.LoadConfigFile(path)
	} else {
		cfg, err = moviekg.LoadConfig(".")
		if errors.Is(err, moviekg.ErrConfigNotFound) {
			cfg, err = moviekg.DefaultConfig(), nil
		}
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %w", moviekg.ErrInvalidConfig, err)
	}

	overrideString(cmd, "uri", &cfg.Store.URI)
	overrideString(cmd, "username", &cfg.Store.Username)
	overrideString(cmd, "password", &cfg.Store.Password)
	overrideString(cmd, "database", &cfg.Store.Database)
	overrideString(cmd, "dictionary", &cfg.Dictionary.Path)

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func overrideString(cmd *cli.Command, name string, dst *string) {
	if v := cmd.String(name); v != "" {
		*dst = v
	}
}

// newLogger builds the stderr development logger.
func newLogger(cmd *cli.Command) (*zap.Logger, error) {
	config := zap.NewDevelopmentConfig()
	config.OutputPaths = []string{"stderr"}
	config.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)

	if cmd.Bool("verbose") {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	return config.Build()
}

// env is what every subcommand needs: config, logger and an open store.
type env struct {
	cfg    *moviekg.Config
	logger *zap.Logger
	store  moviekg.Store
}

func setup(ctx context.Context, cmd *cli.Command) (*env, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	store, err := moviekg.OpenStore(ctx, cfg.Store)
	if err != nil {
		logger.Error("Graph store connection failed", zap.String("uri", cfg.Store.URI), zap.Error(err))
		_ = logger.Sync()

		return nil, err
	}

	logger.Info("Connected to graph store",
		zap.String("driver", store.Name()),
		zap.String("uri", cfg.Store.URI))

	return &env{cfg: cfg, logger: logger, store: store}, nil
}

func (e *env) Close() {
	_ = e.store.Close()
	_ = e.logger.Sync()
}

// answerer loads the dictionary and assembles the question pipeline.
func (e *env) answerer(m *metrics.Metrics) (*query.Answerer, *query.Engine, error) {
	path := e.cfg.Dictionary.Path
	if path == "" {
		return nil, nil, fmt.Errorf("%w: no dictionary path configured (use --dictionary or dictionary.path)", query.ErrDictionary)
	}

	dict, err := query.LoadDictionary(path)
	if err != nil {
		e.logger.Error("Dictionary load failed", zap.String("path", path), zap.Error(err))

		return nil, nil, err
	}

	if e.cfg.Dictionary.LongestFirst {
		dict = dict.SortLongestFirst()
	}

	e.logger.Info("Dictionary loaded", zap.String("path", path), zap.Int("titles", len(dict)))

	engine := query.NewEngine(e.store,
		query.WithTimeout(e.cfg.Store.QueryTimeout),
		query.WithLogger(e.logger),
		query.WithMetrics(m))

	return query.NewAnswerer(query.NewExtractor(dict), engine), engine, nil
}

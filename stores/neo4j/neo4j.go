// Package neo4j provides the moviekg graph store backed by a Neo4j server.
package neo4j

import (
	"context"
	"errors"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/config"
	"github.com/rlch/moviekg"
)

// Name is the driver name this store registers under.
const Name = "neo4j"

//nolint:gochecknoinits // Store self-registration pattern
func init() {
	moviekg.RegisterStore(Name, Open)
}

// Store implements moviekg.Transactional against Neo4j.
// Sessions are opened per call, so a Store is safe for concurrent use.
type Store struct {
	driver neo4j.DriverWithContext
	db     string
}

// Open creates a driver from cfg and verifies connectivity.
func Open(ctx context.Context, cfg moviekg.StoreConfig) (moviekg.Store, error) { //nolint:ireturn // Factory returns interface per StoreFactory
	auth := neo4j.NoAuth()
	if cfg.Username != "" {
		auth = neo4j.BasicAuth(cfg.Username, cfg.Password, "")
	}

	driver, err := neo4j.NewDriverWithContext(cfg.URI, auth, func(c *config.Config) {
		if cfg.ConnectTimeout > 0 {
			c.SocketConnectTimeout = cfg.ConnectTimeout
			c.ConnectionAcquisitionTimeout = cfg.ConnectTimeout
		}
	})
	if err != nil {
		return nil, fmt.Errorf("neo4j: failed to create driver: %w", err)
	}

	err = driver.VerifyConnectivity(ctx)
	if err != nil {
		_ = driver.Close(ctx)

		return nil, fmt.Errorf("%w: neo4j: %w", moviekg.ErrStoreUnavailable, err)
	}

	return &Store{driver: driver, db: cfg.Database}, nil
}

// Name returns the driver identifier.
func (s *Store) Name() string {
	return Name
}

func (s *Store) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	sessionCfg := neo4j.SessionConfig{AccessMode: mode}
	if s.db != "" {
		sessionCfg.DatabaseName = s.db
	}

	return s.driver.NewSession(ctx, sessionCfg)
}

// Execute runs a single auto-commit statement and returns one row per
// record, keyed by alias.
func (s *Store) Execute(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer func() { _ = session.Close(ctx) }()

	result, err := session.Run(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("neo4j: query execution failed: %w", err)
	}

	return collect(ctx, result)
}

// Close releases the driver.
func (s *Store) Close() error {
	if s.driver == nil {
		return nil
	}

	err := s.driver.Close(context.Background())
	if err != nil {
		return fmt.Errorf("neo4j: failed to close driver: %w", err)
	}

	return nil
}

// Begin starts an explicit transaction on a dedicated session.
func (s *Store) Begin(ctx context.Context) (moviekg.Transaction, error) { //nolint:ireturn // Interface return per Transactional contract
	session := s.session(ctx, neo4j.AccessModeWrite)

	tx, err := session.BeginTransaction(ctx)
	if err != nil {
		_ = session.Close(ctx)

		return nil, fmt.Errorf("neo4j: failed to begin transaction: %w", err)
	}

	return &Transaction{tx: tx, session: session}, nil
}

// Transaction wraps a Neo4j explicit transaction and the session owning it.
type Transaction struct {
	tx      neo4j.ExplicitTransaction
	session neo4j.SessionWithContext
}

// Execute runs a statement within this transaction.
func (t *Transaction) Execute(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	result, err := t.tx.Run(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("neo4j: query execution failed: %w", err)
	}

	return collect(ctx, result)
}

// Commit commits the transaction and closes its session.
func (t *Transaction) Commit(ctx context.Context) error {
	err := t.tx.Commit(ctx)

	return errors.Join(err, t.session.Close(ctx))
}

// Rollback aborts the transaction and closes its session.
func (t *Transaction) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)

	return errors.Join(err, t.session.Close(ctx))
}

func collect(ctx context.Context, result neo4j.ResultWithContext) ([]map[string]any, error) {
	records, err := result.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("neo4j: failed to collect results: %w", err)
	}

	rows := make([]map[string]any, len(records))
	for i, record := range records {
		rows[i] = recordRow(record.Keys, record.Values)
	}

	return rows, nil
}

// recordRow maps a record's aliases to its values. The fixed statements only
// project scalars and lists, so values are kept as the driver returns them.
func recordRow(keys []string, values []any) map[string]any {
	row := make(map[string]any, len(keys))

	for i, key := range keys {
		row[key] = values[i]
	}

	return row
}

// Ensure Store implements the moviekg store contracts.
var (
	_ moviekg.Store         = (*Store)(nil)
	_ moviekg.Transactional = (*Store)(nil)
	_ moviekg.Transaction   = (*Transaction)(nil)
)

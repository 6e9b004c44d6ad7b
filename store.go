package moviekg

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrNoTransactionSupport is returned when a store does not support transactions.
	ErrNoTransactionSupport = errors.New("store does not support transactions")
	// ErrUnknownStore is returned when no factory is registered for a driver name.
	ErrUnknownStore = errors.New("unknown store driver")
	// ErrStoreUnavailable is returned when a store cannot be reached at startup.
	ErrStoreUnavailable = errors.New("graph store unavailable")
)

// Store defines the interface for graph database backends.
type Store interface {
	// Name returns the driver identifier (e.g., "neo4j").
	Name() string

	// Execute runs a query with bound parameters and returns the projected rows.
	Execute(ctx context.Context, query string, params map[string]any) ([]map[string]any, error)

	// Close releases any resources held by the store.
	Close() error
}

// Transaction represents an active store transaction.
// Writes executed through a transaction are applied atomically on Commit.
type Transaction interface {
	// Execute runs a query within this transaction.
	Execute(ctx context.Context, query string, params map[string]any) ([]map[string]any, error)

	// Commit commits the transaction.
	Commit(ctx context.Context) error

	// Rollback aborts the transaction.
	Rollback(ctx context.Context) error
}

// Transactional is implemented by stores that support explicit transactions.
// The graph builder requires it: every batch is one transaction.
type Transactional interface {
	Store

	// Begin starts a new transaction.
	Begin(ctx context.Context) (Transaction, error)
}

// StoreFactory creates a Store from connection configuration.
type StoreFactory func(ctx context.Context, cfg StoreConfig) (Store, error)

var (
	storesMu sync.RWMutex
	stores   = make(map[string]StoreFactory)
)

// RegisterStore registers a store factory by driver name.
func RegisterStore(name string, factory StoreFactory) {
	storesMu.Lock()
	defer storesMu.Unlock()

	stores[name] = factory
}

// OpenStore creates a store instance for cfg.Driver.
func OpenStore(ctx context.Context, cfg StoreConfig) (Store, error) { //nolint:ireturn
	storesMu.RLock()
	factory, ok := stores[cfg.Driver]
	storesMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStore, cfg.Driver)
	}

	return factory(ctx, cfg)
}

// RegisteredStores returns the names of all registered store drivers.
func RegisteredStores() []string {
	storesMu.RLock()
	defer storesMu.RUnlock()

	names := make([]string, 0, len(stores))
	for name := range stores {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

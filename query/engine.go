package query

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rlch/moviekg"
	"github.com/rlch/moviekg/metrics"
	"go.uber.org/zap"
)

// OutcomeKind classifies the result of a graph lookup.
type OutcomeKind int

// Outcome kinds.
const (
	UnknownIntent OutcomeKind = iota
	NotFound
	PropertyMissing
	PropertyEmpty
	Found
	QueryError
)

var outcomeNames = [...]string{
	UnknownIntent:   "unknown_intent",
	NotFound:        "not_found",
	PropertyMissing: "property_missing",
	PropertyEmpty:   "property_empty",
	Found:           "found",
	QueryError:      "query_error",
}

func (k OutcomeKind) String() string {
	if k < 0 || int(k) >= len(outcomeNames) {
		return "outcome(" + strconv.Itoa(int(k)) + ")"
	}

	return outcomeNames[k]
}

// MarshalText implements encoding.TextMarshaler.
func (k OutcomeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Outcome is the result of Engine.Query.
type Outcome struct {
	Kind OutcomeKind `json:"kind"`
	// Value is the display string of a Found outcome.
	Value string `json:"value,omitempty"`
	// Err is the cause of a QueryError outcome.
	Err error `json:"-"`
}

// Engine looks movie attributes up in the graph store.
type Engine struct {
	store   moviekg.Store
	timeout time.Duration
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithTimeout bounds every store query. Zero disables the bound.
func WithTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		e.timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) EngineOption {
	return func(e *Engine) {
		e.metrics = m
	}
}

// NewEngine creates an Engine reading from store.
func NewEngine(store moviekg.Store, opts ...EngineOption) *Engine {
	e := &Engine{
		store:   store,
		timeout: moviekg.DefaultQueryTimeout,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Query reads the attribute intent asks for from the movie titled title.
// It never returns an error: store failures become a QueryError outcome.
func (e *Engine) Query(ctx context.Context, title string, intent Intent) Outcome {
	if intent == Unknown || intent.info().project.statement == "" {
		return Outcome{Kind: UnknownIntent}
	}

	title = strings.TrimSpace(title)
	proj := intent.info().project

	params := map[string]any{"title": title}
	if proj.property != "" {
		params["property"] = proj.property
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	rows, err := e.store.Execute(ctx, proj.statement, params)
	e.metrics.ObserveQuery(intent.String(), time.Since(start))

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("query timed out after %s: %w", e.timeout, err)
		}

		e.logger.Warn("Graph query failed",
			zap.String("title", title),
			zap.Stringer("intent", intent),
			zap.Error(err))

		return Outcome{Kind: QueryError, Err: err}
	}

	return outcomeOf(rows)
}

func outcomeOf(rows []map[string]any) Outcome {
	if len(rows) == 0 {
		return Outcome{Kind: NotFound}
	}

	row := rows[0]

	if present, ok := row["present"].(bool); ok && !present {
		return Outcome{Kind: PropertyMissing}
	}

	value, ok := display(row["value"])
	if !ok {
		return Outcome{Kind: PropertyEmpty}
	}

	return Outcome{Kind: Found, Value: value}
}

// display renders a property value. It reports false for values that count
// as empty: nil, blank strings and lists without non-blank entries.
func display(v any) (string, bool) {
	switch v := v.(type) {
	case nil:
		return "", false
	case string:
		if strings.TrimSpace(v) == "" {
			return "", false
		}

		return v, true
	case float64:
		return formatFloat(v), true
	case float32:
		return formatFloat(float64(v)), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case int:
		return strconv.Itoa(v), true
	case int32:
		return strconv.FormatInt(int64(v), 10), true
	case bool:
		return strconv.FormatBool(v), true
	case []string:
		items := make([]any, len(v))
		for i, s := range v {
			items[i] = s
		}

		return displayList(items)
	case []any:
		return displayList(v)
	default:
		return fmt.Sprint(v), true
	}
}

func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "0"
	}

	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		// Whole ratings keep one decimal, e.g. 9.0.
		s += ".0"
	}

	return s
}

// displayList joins the distinct non-empty entries of items with "/".
func displayList(items []any) (string, bool) {
	seen := make(map[string]bool, len(items))
	parts := make([]string, 0, len(items))

	for _, item := range items {
		s, ok := display(item)
		if !ok || seen[s] {
			continue
		}

		seen[s] = true
		parts = append(parts, s)
	}

	if len(parts) == 0 {
		return "", false
	}

	return strings.Join(parts, "/"), true
}

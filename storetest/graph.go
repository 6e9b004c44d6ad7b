// Package storetest provides an in-memory moviekg store for tests.
//
// Graph understands exactly the statements declared in the moviekg package
// (clear, constraints, upserts, links and the query-time projections) and
// applies them to plain Go maps. Transactions buffer their writes and apply
// them on Commit, so rollback semantics match a real store.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/rlch/moviekg"
)

// ErrUnsupportedStatement is returned for queries Graph does not understand.
var ErrUnsupportedStatement = errors.New("storetest: unsupported statement")

// Edge is a relationship between a person and a movie.
type Edge struct {
	Type   string
	Person string
	Movie  string
	Order  int64
}

// Person is a person node with its role labels.
type Person struct {
	Name   string
	Labels []string
}

// Snapshot is a deep copy of the graph contents.
type Snapshot struct {
	Movies map[string]map[string]any
	People map[string]Person
	Edges  []Edge
}

// Graph is an in-memory moviekg.Transactional.
type Graph struct {
	mu     sync.Mutex
	movies map[string]map[string]any
	people map[string]map[string]bool
	edges  []Edge

	// FailOn, when set, is consulted before every statement; a non-nil
	// error is returned in place of executing it.
	FailOn func(query string, params map[string]any) error

	// FailCommit makes every Commit fail with this error.
	FailCommit error

	executed []string
	commits  int
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		movies: make(map[string]map[string]any),
		people: make(map[string]map[string]bool),
	}
}

// Name returns the driver identifier.
func (g *Graph) Name() string { return "memory" }

// Close is a no-op.
func (g *Graph) Close() error { return nil }

// Executed returns every statement received so far, in order.
func (g *Graph) Executed() []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	return slices.Clone(g.executed)
}

// Commits returns the number of committed transactions.
func (g *Graph) Commits() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.commits
}

// SetMovie writes movie properties directly, bypassing statements.
// Useful for seeding graphs with shapes the builder never produces.
func (g *Graph) SetMovie(title string, props map[string]any) {
	g.mu.Lock()
	defer g.mu.Unlock()

	node := map[string]any{moviekg.PropTitle: title}
	for k, v := range props {
		node[k] = v
	}

	g.movies[title] = node
}

// Execute runs a statement in auto-commit mode.
func (g *Graph) Execute(_ context.Context, query string, params map[string]any) ([]map[string]any, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	err := g.check(query, params)
	if err != nil {
		return nil, err
	}

	if isRead(query) {
		return g.read(query, params)
	}

	apply, err := g.write(query, params)
	if err != nil {
		return nil, err
	}

	apply()

	return nil, nil
}

// Begin starts a buffered transaction.
func (g *Graph) Begin(_ context.Context) (moviekg.Transaction, error) { //nolint:ireturn
	return &tx{graph: g}, nil
}

// Snapshot returns a deep copy of the graph.
func (g *Graph) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	s := Snapshot{
		Movies: make(map[string]map[string]any, len(g.movies)),
		People: make(map[string]Person, len(g.people)),
		Edges:  slices.Clone(g.edges),
	}

	for title, props := range g.movies {
		cp := make(map[string]any, len(props))
		for k, v := range props {
			cp[k] = v
		}

		s.Movies[title] = cp
	}

	for name, labels := range g.people {
		p := Person{Name: name}
		for label := range labels {
			p.Labels = append(p.Labels, label)
		}

		sort.Strings(p.Labels)
		s.People[name] = p
	}

	return s
}

func (g *Graph) check(query string, params map[string]any) error {
	g.executed = append(g.executed, query)

	if g.FailOn != nil {
		return g.FailOn(query, params)
	}

	return nil
}

func isRead(query string) bool {
	switch query {
	case moviekg.CypherMovieProperty, moviekg.CypherMovieDirectors, moviekg.CypherMovieActors:
		return true
	default:
		return false
	}
}

// write validates a statement and returns a closure applying it.
// Callers must hold g.mu when invoking the closure.
func (g *Graph) write(query string, params map[string]any) (func(), error) {
	switch {
	case query == moviekg.CypherClear:
		return func() {
			g.movies = make(map[string]map[string]any)
			g.people = make(map[string]map[string]bool)
			g.edges = nil
		}, nil

	case slices.Contains(moviekg.CypherConstraints, query):
		return func() {}, nil

	case query == moviekg.CypherUpsertMovie:
		title, ok := params["title"].(string)
		if !ok {
			return nil, fmt.Errorf("storetest: title param is %T", params["title"])
		}

		props := make(map[string]any, len(params))
		for k, v := range params {
			props[k] = v
		}

		return func() { g.movies[title] = props }, nil

	case query == moviekg.CypherLinkDirector:
		return g.link(moviekg.LabelDirector, moviekg.RelDirected, params)

	case query == moviekg.CypherLinkActor:
		return g.link(moviekg.LabelActor, moviekg.RelActedIn, params)
	}

	return nil, fmt.Errorf("%w: %q", ErrUnsupportedStatement, query)
}

func (g *Graph) link(label, rel string, params map[string]any) (func(), error) {
	title, _ := params["title"].(string)
	name, _ := params["name"].(string)
	order, _ := params["order"].(int64)

	if name == "" {
		return nil, fmt.Errorf("storetest: empty person name for %s", rel)
	}

	return func() {
		// MATCH on the movie: no movie, no write.
		if _, ok := g.movies[title]; !ok {
			return
		}

		if g.people[name] == nil {
			g.people[name] = make(map[string]bool)
		}

		g.people[name][label] = true
		g.edges = append(g.edges, Edge{Type: rel, Person: name, Movie: title, Order: order})
	}, nil
}

func (g *Graph) read(query string, params map[string]any) ([]map[string]any, error) {
	title, _ := params["title"].(string)

	props, ok := g.movies[title]
	if !ok {
		return nil, nil
	}

	switch query {
	case moviekg.CypherMovieProperty:
		property, _ := params["property"].(string)
		value, present := props[property]

		return []map[string]any{{"title": title, "value": value, "present": present}}, nil

	case moviekg.CypherMovieDirectors:
		return []map[string]any{{"title": title, "value": g.linkedNames(title, moviekg.RelDirected), "present": true}}, nil

	default:
		return []map[string]any{{"title": title, "value": g.linkedNames(title, moviekg.RelActedIn), "present": true}}, nil
	}
}

// linkedNames lists the names linked to movie by rel, ordered by edge order.
func (g *Graph) linkedNames(movie, rel string) []any {
	var edges []Edge

	for _, e := range g.edges {
		if e.Movie == movie && e.Type == rel {
			edges = append(edges, e)
		}
	}

	sort.SliceStable(edges, func(i, j int) bool { return edges[i].Order < edges[j].Order })

	names := make([]any, len(edges))
	for i, e := range edges {
		names[i] = e.Person
	}

	return names
}

type tx struct {
	graph   *Graph
	pending []func()
	done    bool
}

func (t *tx) Execute(_ context.Context, query string, params map[string]any) ([]map[string]any, error) {
	g := t.graph

	g.mu.Lock()
	defer g.mu.Unlock()

	err := g.check(query, params)
	if err != nil {
		return nil, err
	}

	if isRead(query) {
		return g.read(query, params)
	}

	apply, err := g.write(query, params)
	if err != nil {
		return nil, err
	}

	t.pending = append(t.pending, apply)

	return nil, nil
}

func (t *tx) Commit(_ context.Context) error {
	g := t.graph

	g.mu.Lock()
	defer g.mu.Unlock()

	if t.done {
		return errors.New("storetest: transaction already closed")
	}

	t.done = true

	if g.FailCommit != nil {
		return g.FailCommit
	}

	for _, apply := range t.pending {
		apply()
	}

	g.commits++

	return nil
}

func (t *tx) Rollback(_ context.Context) error {
	t.pending = nil
	t.done = true

	return nil
}

var _ moviekg.Transactional = (*Graph)(nil)

package ingest_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rlch/moviekg"
	"github.com/rlch/moviekg/ingest"
	"github.com/rlch/moviekg/metrics"
	"github.com/rlch/moviekg/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTestStore = errors.New("store rejected statement")

func record(title, director, actor, rate, num string) ingest.Record {
	return ingest.Record{
		ingest.ColTitle:    title,
		ingest.ColDirector: director,
		ingest.ColActor:    actor,
		ingest.ColRate:     rate,
		ingest.ColNum:      num,
		ingest.ColInfo:     "info of " + title,
		ingest.ColTime:     "1994-09-10",
		ingest.ColCountry:  "美国",
		ingest.ColType:     "剧情",
	}
}

func dataset(rows ...ingest.Record) ingest.Dataset {
	return ingest.Dataset{Columns: ingest.RequiredColumns, Rows: rows}
}

func TestBuilder_ExampleRow(t *testing.T) {
	t.Parallel()

	g := storetest.New()
	b := ingest.New(g)

	report, err := b.Build(t.Context(), dataset(
		record("ExampleMovie", "A.Director", "B.Actor/C.Actor", "9.7", "12345"),
	))
	require.NoError(t, err)

	assert.Equal(t, 1, report.Rows)
	assert.Equal(t, 1, report.Written)
	assert.Equal(t, 1, report.Batches)
	assert.Equal(t, 1, report.Directed)
	assert.Equal(t, 2, report.ActedIn)
	assert.Empty(t, report.Skipped)
	assert.NotEmpty(t, report.RunID)

	snap := g.Snapshot()
	require.Contains(t, snap.Movies, "ExampleMovie")

	movie := snap.Movies["ExampleMovie"]
	assert.InDelta(t, 9.7, movie[moviekg.PropRating], 0)
	assert.Equal(t, int64(12345), movie[moviekg.PropVoteCount])
	assert.Equal(t, "剧情", movie[moviekg.PropGenre])

	want := []storetest.Edge{
		{Type: moviekg.RelDirected, Person: "A.Director", Movie: "ExampleMovie", Order: 0},
		{Type: moviekg.RelActedIn, Person: "B.Actor", Movie: "ExampleMovie", Order: 0},
		{Type: moviekg.RelActedIn, Person: "C.Actor", Movie: "ExampleMovie", Order: 1},
	}

	if diff := cmp.Diff(want, snap.Edges); diff != "" {
		t.Errorf("edges mismatch (-want +got):\n%s", diff)
	}
}

func TestBuilder_ClearsBeforeFirstBatch(t *testing.T) {
	t.Parallel()

	g := storetest.New()
	g.SetMovie("Stale", map[string]any{moviekg.PropRating: 1.0})

	_, err := ingest.New(g).Build(t.Context(), dataset(record("Fresh", "", "", "", "")))
	require.NoError(t, err)

	executed := g.Executed()
	require.NotEmpty(t, executed)
	assert.Equal(t, moviekg.CypherClear, executed[0])

	snap := g.Snapshot()
	assert.NotContains(t, snap.Movies, "Stale")
	assert.Contains(t, snap.Movies, "Fresh")
}

func TestBuilder_SchemaErrorWritesNothing(t *testing.T) {
	t.Parallel()

	g := storetest.New()
	g.SetMovie("Existing", nil)

	ds := ingest.Dataset{
		Columns: []string{"title", "director", "actor", "rate", "info", "time", "country", "type"},
		Rows:    []ingest.Record{record("ExampleMovie", "A", "B", "1", "1")},
	}

	report, err := ingest.New(g).Build(t.Context(), ds)

	require.ErrorIs(t, err, ingest.ErrSchema)
	assert.Nil(t, report)
	assert.Empty(t, g.Executed(), "schema errors must abort before the clear")
	assert.Contains(t, g.Snapshot().Movies, "Existing")
}

func TestBuilder_SkipsMissingTitles(t *testing.T) {
	t.Parallel()

	g := storetest.New()

	report, err := ingest.New(g).Build(t.Context(), dataset(
		record("First", "D", "A", "8", "10"),
		record("   ", "D", "A", "8", "10"),
		record("unknown-title", "D", "A", "8", "10"),
		record("Second", "D", "A", "8", "10"),
	))
	require.NoError(t, err)

	assert.Equal(t, 2, report.Written)

	want := []ingest.Skip{
		{Row: 2, Reason: ingest.ReasonMissingTitle},
		{Row: 3, Reason: ingest.ReasonMissingTitle},
	}

	if diff := cmp.Diff(want, report.Skipped); diff != "" {
		t.Errorf("skipped mismatch (-want +got):\n%s", diff)
	}
}

func TestBuilder_Metrics(t *testing.T) {
	t.Parallel()

	m := metrics.New(prometheus.NewRegistry())

	_, err := ingest.New(storetest.New(), ingest.WithMetrics(m), ingest.WithBatchSize(2)).Build(t.Context(), dataset(
		record("First", "D", "A", "8", "10"),
		record("", "D", "A", "8", "10"),
		record("Second", "D", "A", "8", "10"),
		record("Third", "D", "A", "8", "10"),
	))
	require.NoError(t, err)

	assert.InDelta(t, 3, testutil.ToFloat64(m.IngestRows.WithLabelValues(metrics.RowWritten)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.IngestRows.WithLabelValues(metrics.RowSkipped)), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.IngestBatches), 0)
}

func TestBuilder_Batches(t *testing.T) {
	t.Parallel()

	rows := make([]ingest.Record, 250)
	for i := range rows {
		rows[i] = record(fmt.Sprintf("Movie %03d", i), "D", "A", "7.5", "100")
	}

	g := storetest.New()

	report, err := ingest.New(g).Build(t.Context(), dataset(rows...))
	require.NoError(t, err)

	assert.Equal(t, 3, report.Batches)
	assert.Equal(t, 3, g.Commits())
	assert.Equal(t, 250, report.Written)
	assert.Len(t, g.Snapshot().Movies, 250)

	g2 := storetest.New()

	report, err = ingest.New(g2, ingest.WithBatchSize(50)).Build(t.Context(), dataset(rows...))
	require.NoError(t, err)
	assert.Equal(t, 5, report.Batches)
}

func TestBuilder_RowFailureKeepsBatch(t *testing.T) {
	t.Parallel()

	g := storetest.New()
	g.FailOn = func(query string, params map[string]any) error {
		if query == moviekg.CypherLinkActor && params["name"] == "Broken" {
			return errTestStore
		}

		return nil
	}

	report, err := ingest.New(g).Build(t.Context(), dataset(
		record("Good One", "D1", "A1", "8", "1"),
		record("Bad", "D2", "A2/Broken", "8", "1"),
		record("Good Two", "D3", "A3", "8", "1"),
	))
	require.NoError(t, err)

	assert.Equal(t, 2, report.Written)
	assert.Equal(t, 1, report.Batches)
	assert.Equal(t, 1, g.Commits())
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, 2, report.Skipped[0].Row)
	assert.Equal(t, "Bad", report.Skipped[0].Title)
	assert.Contains(t, report.Skipped[0].Reason, "link actor")

	snap := g.Snapshot()
	assert.Contains(t, snap.Movies, "Good One")
	assert.Contains(t, snap.Movies, "Good Two")
	assert.NotContains(t, snap.Movies, "Bad", "the failing row is rolled back completely")
	assert.NotContains(t, snap.People, "A2")
	assert.Equal(t, 2, report.Directed)
	assert.Equal(t, 2, report.ActedIn)
}

func TestBuilder_CommitFailureAborts(t *testing.T) {
	t.Parallel()

	g := storetest.New()
	g.FailCommit = errTestStore

	report, err := ingest.New(g).Build(t.Context(), dataset(record("ExampleMovie", "D", "A", "1", "1")))

	require.ErrorIs(t, err, ingest.ErrCommit)
	require.ErrorIs(t, err, errTestStore)
	require.NotNil(t, report)
	assert.Equal(t, 0, report.Written)
}

func TestBuilder_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())

	g := storetest.New()
	g.FailOn = func(query string, _ map[string]any) error {
		if query == moviekg.CypherUpsertMovie {
			cancel()

			return context.Canceled
		}

		return nil
	}

	_, err := ingest.New(g).Build(ctx, dataset(record("ExampleMovie", "D", "A", "1", "1")))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuilder_Filter(t *testing.T) {
	t.Parallel()

	g := storetest.New()

	report, err := ingest.New(g, ingest.WithFilter("rating >= 9")).Build(t.Context(), dataset(
		record("High", "D", "A", "9.5", "1"),
		record("Low", "D", "A", "6.0", "1"),
	))
	require.NoError(t, err)

	assert.Equal(t, 1, report.Written)
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, ingest.ReasonFiltered, report.Skipped[0].Reason)
	assert.Equal(t, "Low", report.Skipped[0].Title)
}

func TestBuilder_InvalidFilterWritesNothing(t *testing.T) {
	t.Parallel()

	g := storetest.New()

	_, err := ingest.New(g, ingest.WithFilter("rating >=")).Build(t.Context(), dataset(record("X", "D", "A", "1", "1")))

	require.ErrorIs(t, err, ingest.ErrFilter)
	assert.Empty(t, g.Executed())
}

func TestBuilder_PersonWithBothRoles(t *testing.T) {
	t.Parallel()

	g := storetest.New()

	_, err := ingest.New(g).Build(t.Context(), dataset(
		record("Directed It", "Clint Eastwood", "Someone Else", "8", "1"),
		record("Acted In It", "Other Director", "Clint Eastwood", "8", "1"),
	))
	require.NoError(t, err)

	snap := g.Snapshot()
	require.Contains(t, snap.People, "Clint Eastwood")
	assert.Equal(t, []string{moviekg.LabelActor, moviekg.LabelDirector}, snap.People["Clint Eastwood"].Labels)
	assert.Len(t, snap.People, 3)
}

func TestBuilder_DuplicateTitleUpdatesNode(t *testing.T) {
	t.Parallel()

	g := storetest.New()

	_, err := ingest.New(g).Build(t.Context(), dataset(
		record("Same", "D", "A", "7.0", "1"),
		record("Same", "D", "A", "8.0", "2"),
	))
	require.NoError(t, err)

	snap := g.Snapshot()
	require.Len(t, snap.Movies, 1)
	assert.InDelta(t, 8.0, snap.Movies["Same"][moviekg.PropRating], 0)
}

func TestBuilder_Idempotent(t *testing.T) {
	t.Parallel()

	ds := dataset(
		record("ExampleMovie", "A.Director", "B.Actor/C.Actor", "9.7", "12345"),
		record("霸王别姬", "陈凯歌", "张国荣/张丰毅/巩俐", "9.6", "2,345,678人评价"),
		record("", "nobody", "nobody", "1", "1"),
		record("肖申克的救赎", "弗兰克·德拉邦特", "蒂姆·罗宾斯", "bad", "none"),
	)

	g := storetest.New()
	b := ingest.New(g, ingest.WithBatchSize(2))

	first, err := b.Build(t.Context(), ds)
	require.NoError(t, err)

	before := g.Snapshot()

	second, err := b.Build(t.Context(), ds)
	require.NoError(t, err)

	after := g.Snapshot()

	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("graph changed between identical builds (-first +second):\n%s", diff)
	}

	assert.Equal(t, first.Written, second.Written)
	assert.Equal(t, first.Skipped, second.Skipped)
	assert.NotEqual(t, first.RunID, second.RunID)
	assert.InDelta(t, 0.0, after.Movies["肖申克的救赎"][moviekg.PropRating], 0)
	assert.Equal(t, int64(0), after.Movies["肖申克的救赎"][moviekg.PropVoteCount])
}

func TestBuilder_NoStore(t *testing.T) {
	t.Parallel()

	_, err := ingest.New(nil).Build(t.Context(), dataset())
	assert.ErrorIs(t, err, ingest.ErrNoStore)
}

func TestBuilder_ClearFailure(t *testing.T) {
	t.Parallel()

	g := storetest.New()
	g.FailOn = func(query string, _ map[string]any) error {
		if strings.HasPrefix(query, "MATCH (n) DETACH DELETE") {
			return errTestStore
		}

		return nil
	}

	_, err := ingest.New(g).Build(t.Context(), dataset(record("X", "D", "A", "1", "1")))
	assert.ErrorIs(t, err, errTestStore)
}

package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rlch/moviekg"
	"github.com/rlch/moviekg/ingest"
	"github.com/rlch/moviekg/metrics"
	"github.com/rlch/moviekg/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

// runWithFlags parses args with the global flags and returns the loaded config.
func runWithFlags(t *testing.T, args ...string) (*moviekg.Config, error) {
	t.Helper()

	var (
		cfg     *moviekg.Config
		loadErr error
	)

	cmd := &cli.Command{
		Name:  "moviekg",
		Flags: globalFlags(),
		Action: func(_ context.Context, cmd *cli.Command) error {
			cfg, loadErr = loadConfig(cmd)

			return nil
		},
	}

	require.NoError(t, cmd.Run(t.Context(), append([]string{"moviekg"}, args...)))

	return cfg, loadErr
}

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "moviekg.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store:
  uri: bolt://from-file:7687
  username: file-user
dictionary:
  path: movies.txt
`), 0o600))

	cfg, err := runWithFlags(t, "--config", path, "--uri", "bolt://from-flag:7687", "--dictionary", "other.txt")
	require.NoError(t, err)

	assert.Equal(t, "bolt://from-flag:7687", cfg.Store.URI)
	assert.Equal(t, "file-user", cfg.Store.Username)
	assert.Equal(t, "other.txt", cfg.Dictionary.Path)
	assert.Equal(t, moviekg.DefaultBatchSize, cfg.Ingest.BatchSize)
}

func TestLoadConfig_EnvSource(t *testing.T) {
	t.Setenv("MOVIEKG_URI", "bolt://from-env:7687")
	t.Setenv("MOVIEKG_PASS", "secret")

	path := filepath.Join(t.TempDir(), "moviekg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  uri: bolt://from-file:7687\n"), 0o600))

	cfg, err := runWithFlags(t, "--config", path)
	require.NoError(t, err)

	assert.Equal(t, "bolt://from-env:7687", cfg.Store.URI)
	assert.Equal(t, "secret", cfg.Store.Password)
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "moviekg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ingest:\n  batch_size: 0\n"), 0o600))

	_, err := runWithFlags(t, "--config", path, "--uri", "bolt://x:7687")
	require.ErrorIs(t, err, moviekg.ErrInvalidConfig)

	_, err = runWithFlags(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, moviekg.ErrInvalidConfig)
}

type slowAsker struct {
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (a *slowAsker) Answer(_ context.Context, q string) query.Answer {
	n := a.inFlight.Add(1)
	defer a.inFlight.Add(-1)

	for {
		peak := a.peak.Load()
		if n <= peak || a.peak.CompareAndSwap(peak, n) {
			break
		}
	}

	time.Sleep(5 * time.Millisecond)

	return query.Answer{Question: q, Text: "a:" + q}
}

func TestAnswerAll_OrderAndLimit(t *testing.T) {
	t.Parallel()

	questions := []string{"q1", "q2", "q3", "q4", "q5", "q6", "q7", "q8"}
	asker := &slowAsker{}

	answers, err := answerAll(t.Context(), asker, questions, 2)
	require.NoError(t, err)
	require.Len(t, answers, len(questions))

	for i, q := range questions {
		assert.Equal(t, "a:"+q, answers[i].Text)
	}

	assert.LessOrEqual(t, asker.peak.Load(), int32(2))
}

func TestAnswerAll_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := answerAll(ctx, &slowAsker{}, []string{"q1"}, 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPrintAnswers(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	answers := []query.Answer{
		{Question: "q1", Text: "first"},
		{Question: "q2", Text: "second"},
	}

	require.NoError(t, printAnswers(&buf, answers, false))
	assert.Equal(t, "first\nsecond\n", buf.String())

	buf.Reset()
	require.NoError(t, printAnswers(&buf, answers, true))
	assert.Contains(t, buf.String(), "q1")
	assert.Contains(t, buf.String(), "first")
}

func TestPrintReport_JSON(t *testing.T) {
	// printReport writes to os.Stdout; swap it for a pipe.
	r, w, err := os.Pipe()
	require.NoError(t, err)

	stdout := os.Stdout
	os.Stdout = w

	t.Cleanup(func() { os.Stdout = stdout })

	err = printReport(true, &ingest.Report{RunID: "abc", Rows: 2, Written: 1, Skipped: []ingest.Skip{{Row: 2, Reason: ingest.ReasonMissingTitle}}})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	var buf bytes.Buffer
	_, err = buf.ReadFrom(r)
	require.NoError(t, err)

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "{"))
	assert.Contains(t, out, `"runId": "abc"`)
	assert.Contains(t, out, `"reason": "missing title"`)
}

func TestPushMetrics(t *testing.T) {
	t.Parallel()

	type pushed struct {
		method, path, body string
	}

	received := make(chan pushed, 1)

	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		received <- pushed{method: r.Method, path: r.URL.Path, body: string(body)}

		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(gateway.Close)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.IngestRow(metrics.RowWritten)
	m.IngestBatch()

	require.NoError(t, pushMetrics(t.Context(), gateway.URL, reg))

	got := <-received
	assert.Equal(t, http.MethodPut, got.method)
	assert.Equal(t, "/metrics/job/"+buildJob, got.path)
	assert.Contains(t, got.body, "moviekg_ingest_rows_total")
	assert.Contains(t, got.body, "moviekg_ingest_batches_committed_total")
}

func TestPushMetrics_GatewayDown(t *testing.T) {
	t.Parallel()

	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(gateway.Close)

	err := pushMetrics(t.Context(), gateway.URL, prometheus.NewRegistry())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "push metrics")
}

func TestNewApp(t *testing.T) {
	t.Parallel()

	app := newApp()

	names := make([]string, 0, len(app.Commands))
	for _, c := range app.Commands {
		names = append(names, c.Name)
	}

	assert.Equal(t, []string{"build", "ask", "serve"}, names)
}

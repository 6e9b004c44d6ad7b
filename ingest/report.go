package ingest

import "time"

// Skip reasons recorded by the builder.
const (
	ReasonMissingTitle = "missing title"
	ReasonFiltered     = "filtered"
)

// Skip records one row left out of the graph.
type Skip struct {
	Row    int    `json:"row"`
	Title  string `json:"title,omitempty"`
	Reason string `json:"reason"`
}

// Report summarises a build run.
type Report struct {
	RunID    string        `json:"runId"`
	Rows     int           `json:"rows"`
	Written  int           `json:"written"`
	Skipped  []Skip        `json:"skipped,omitempty"`
	Batches  int           `json:"batches"`
	Directed int           `json:"directed"`
	ActedIn  int           `json:"actedIn"`
	Duration time.Duration `json:"duration"`
}

func (r *Report) skip(row Row, reason string) {
	title := row.Title
	if !row.HasTitle() {
		title = ""
	}

	r.Skipped = append(r.Skipped, Skip{Row: row.Number, Title: title, Reason: reason})
}

package console

import (
	"fmt"
	"strings"
	"time"

	"github.com/rlch/moviekg/ingest"
	"github.com/rlch/moviekg/query"
)

// RenderAnswer renders one answer line with a status symbol.
func (s *Styles) RenderAnswer(a query.Answer) string {
	switch {
	case !a.Recognized:
		return s.Notice.Render(s.SymbolNotice) + " " + a.Text
	case a.Outcome.Kind == query.Found:
		return s.Found.Render(s.SymbolFound) + " " + a.Text
	case a.Outcome.Kind == query.QueryError:
		return s.Error.Render(s.SymbolError) + " " + s.Error.Render(a.Text)
	default:
		return s.Notice.Render(s.SymbolNotice) + " " + a.Text
	}
}

// RenderQuestion renders an echoed question.
func (s *Styles) RenderQuestion(q string) string {
	return s.Muted.Render(s.SymbolPointer) + " " + s.Question.Render(q)
}

// maxListedSkips bounds the skipped rows printed in a build summary.
const maxListedSkips = 10

// RenderReport renders a build report as a short multi-line summary.
func (s *Styles) RenderReport(r *ingest.Report) string {
	var b strings.Builder

	status := s.Found.Render(s.SymbolFound + " Graph built")
	if len(r.Skipped) > 0 {
		status = s.Notice.Render(s.SymbolNotice + " Graph built with skipped rows")
	}

	fmt.Fprintf(&b, "%s %s\n", status, s.Dim.Render("run "+r.RunID))
	fmt.Fprintf(&b, "  %s %s\n", s.Muted.Render("rows     "), s.Value.Render(fmt.Sprintf("%d read, %d written, %d skipped", r.Rows, r.Written, len(r.Skipped))))
	fmt.Fprintf(&b, "  %s %s\n", s.Muted.Render("batches  "), s.Value.Render(fmt.Sprint(r.Batches)))
	fmt.Fprintf(&b, "  %s %s\n", s.Muted.Render("edges    "), s.Value.Render(fmt.Sprintf("%d DIRECTED, %d ACTED_IN", r.Directed, r.ActedIn)))
	fmt.Fprintf(&b, "  %s %s\n", s.Muted.Render("elapsed  "), s.Value.Render(r.Duration.Round(time.Millisecond).String()))

	for i, skip := range r.Skipped {
		if i == maxListedSkips {
			fmt.Fprintf(&b, "  %s\n", s.Dim.Render(fmt.Sprintf("... and %d more", len(r.Skipped)-maxListedSkips)))

			break
		}

		title := skip.Title
		if title == "" {
			title = "-"
		}

		fmt.Fprintf(&b, "  %s %s %s\n",
			s.Dim.Render(fmt.Sprintf("row %d", skip.Row)),
			s.Question.Render(title),
			s.Muted.Render(skip.Reason))
	}

	return b.String()
}

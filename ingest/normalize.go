package ingest

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// NameDelimiter separates people inside the director and actor columns.
const NameDelimiter = "/"

// Sentinel is the placeholder stored for a missing or blank column.
func Sentinel(column string) string {
	return "unknown-" + column
}

// Row is a normalised dataset record ready to be written.
type Row struct {
	// Number is the 1-based position of the record in the dataset.
	Number int

	Title       string
	Directors   []string
	Actors      []string
	Rating      float64
	VoteCount   int64
	Synopsis    string
	ReleaseDate string
	Country     string
	Genre       string
}

// Normalize trims every field, substitutes sentinels for blanks and coerces
// the numeric columns. It never fails.
func Normalize(rec Record) Row {
	field := func(col string) string {
		v := strings.TrimSpace(rec[col])
		if v == "" {
			return Sentinel(col)
		}

		return v
	}

	return Row{
		Title:       field(ColTitle),
		Directors:   SplitNames(field(ColDirector), Sentinel(ColDirector)),
		Actors:      SplitNames(field(ColActor), Sentinel(ColActor)),
		Rating:      ParseRating(field(ColRate)),
		VoteCount:   ParseVoteCount(field(ColNum)),
		Synopsis:    field(ColInfo),
		ReleaseDate: field(ColTime),
		Country:     field(ColCountry),
		Genre:       field(ColType),
	}
}

// HasTitle reports whether the row carries a usable title.
func (r Row) HasTitle() bool {
	return r.Title != "" && r.Title != Sentinel(ColTitle)
}

// MovieParams are the bound parameters of the movie upsert.
func (r Row) MovieParams() map[string]any {
	return map[string]any{
		"title":       r.Title,
		"rating":      r.Rating,
		"voteCount":   r.VoteCount,
		"synopsis":    r.Synopsis,
		"releaseDate": r.ReleaseDate,
		"country":     r.Country,
		"genre":       r.Genre,
	}
}

// Env is the variable environment row filters are evaluated against.
func (r Row) Env() map[string]any {
	return map[string]any{
		"title":       r.Title,
		"director":    r.Directors,
		"actor":       r.Actors,
		"rating":      r.Rating,
		"voteCount":   r.VoteCount,
		"synopsis":    r.Synopsis,
		"releaseDate": r.ReleaseDate,
		"country":     r.Country,
		"genre":       r.Genre,
	}
}

// SplitNames splits a delimited people field, dropping blanks and the sentinel.
func SplitNames(field, sentinel string) []string {
	var names []string

	for _, part := range strings.Split(field, NameDelimiter) {
		name := strings.TrimSpace(part)
		if name == "" || name == sentinel {
			continue
		}

		names = append(names, name)
	}

	return names
}

// ParseRating parses a rating, falling back to 0.0.
func ParseRating(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}

	return f
}

var (
	digitRun           = regexp.MustCompile(`[0-9]+`)
	thousandsSeparator = strings.NewReplacer(",", "", "，", "")
)

// ParseVoteCount extracts the first run of digits, ignoring thousands
// separators, so "123,456人评价" yields 123456. Strings without digits, and
// runs too large for int64, yield 0.
func ParseVoteCount(s string) int64 {
	run := digitRun.FindString(thousandsSeparator.Replace(s))
	if run == "" {
		return 0
	}

	n, err := strconv.ParseInt(run, 10, 64)
	if err != nil {
		return 0
	}

	return n
}

// Package ingest builds the movie graph from a tabular dataset.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Dataset column names.
const (
	ColTitle    = "title"
	ColDirector = "director"
	ColActor    = "actor"
	ColRate     = "rate"
	ColNum      = "num"
	ColInfo     = "info"
	ColTime     = "time"
	ColCountry  = "country"
	ColType     = "type"
)

// RequiredColumns must all be present in a dataset header.
var RequiredColumns = []string{
	ColTitle, ColDirector, ColActor,
	ColRate, ColNum, ColInfo, ColTime, ColCountry, ColType,
}

var (
	// ErrSchema is the sentinel matched by every *SchemaError.
	ErrSchema = errors.New("dataset schema error")
	// ErrEmptyDataset is returned when a CSV has no header row.
	ErrEmptyDataset = errors.New("dataset has no header")
)

// SchemaError reports required columns absent from a dataset.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return "dataset is missing required columns: " + strings.Join(e.Missing, ", ")
}

// Is makes errors.Is(err, ErrSchema) hold for any *SchemaError.
func (e *SchemaError) Is(target error) bool {
	return target == ErrSchema
}

// Record is one dataset row keyed by column name.
type Record map[string]string

// Dataset is a header plus its rows.
type Dataset struct {
	Columns []string
	Rows    []Record
}

// ValidateColumns returns a *SchemaError when any required column is absent.
func ValidateColumns(columns []string) error {
	have := make(map[string]bool, len(columns))
	for _, c := range columns {
		have[c] = true
	}

	var missing []string

	for _, c := range RequiredColumns {
		if !have[c] {
			missing = append(missing, c)
		}
	}

	if len(missing) > 0 {
		return &SchemaError{Missing: missing}
	}

	return nil
}

// ReadCSV parses a CSV dataset. The first row is the header; a UTF-8 BOM is
// tolerated. Short rows leave their trailing columns absent.
func ReadCSV(r io.Reader) (Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return Dataset{}, ErrEmptyDataset
	}

	if err != nil {
		return Dataset{}, fmt.Errorf("read header: %w", err)
	}

	columns := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}

		columns[i] = strings.TrimSpace(h)
	}

	ds := Dataset{Columns: columns}

	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return Dataset{}, fmt.Errorf("read row %d: %w", len(ds.Rows)+1, err)
		}

		rec := make(Record, len(columns))
		for i, value := range fields {
			if i < len(columns) {
				rec[columns[i]] = value
			}
		}

		ds.Rows = append(ds.Rows, rec)
	}

	return ds, nil
}

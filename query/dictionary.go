package query

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"unicode/utf8"
)

// ErrDictionary is returned when the title dictionary cannot be loaded.
var ErrDictionary = errors.New("movie dictionary unavailable")

// Dictionary is the ordered list of canonical movie titles.
type Dictionary []string

// LoadDictionary reads a dictionary file. Each non-blank line contributes its
// first whitespace-delimited field as a title; the rest of the line is ignored.
func LoadDictionary(path string) (Dictionary, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDictionary, err)
	}
	defer f.Close() //nolint:errcheck

	d, err := ReadDictionary(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDictionary, path, err)
	}

	return d, nil
}

// ReadDictionary parses dictionary lines from r.
func ReadDictionary(r io.Reader) (Dictionary, error) {
	var d Dictionary

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		d = append(d, strings.TrimPrefix(fields[0], "\ufeff"))
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return d, nil
}

// SortLongestFirst orders titles by rune count, longest first, keeping the
// file order among titles of equal length. It makes "肖申克的救赎2" win over
// "肖申克的救赎" when both occur in a question.
func (d Dictionary) SortLongestFirst() Dictionary {
	sorted := slices.Clone(d)
	slices.SortStableFunc(sorted, func(a, b string) int {
		return utf8.RuneCountInString(b) - utf8.RuneCountInString(a)
	})

	return sorted
}

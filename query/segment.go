package query

import (
	"fmt"
	"sync"

	"github.com/go-ego/gse"
)

// userWordFreq is the frequency given to user words so that they win over
// dictionary splits.
const userWordFreq = 100000

// Segmenter splits a run of Han characters into words.
type Segmenter interface {
	Segment(text string) []string
}

// SegmenterFunc adapts a function to Segmenter.
type SegmenterFunc func(text string) []string

// Segment calls f.
func (f SegmenterFunc) Segment(text string) []string {
	return f(text)
}

// WholeRuns keeps every Han run as a single word.
var WholeRuns Segmenter = SegmenterFunc(func(text string) []string {
	return []string{text}
})

// DictSegmenter segments with the Chinese dictionary embedded in gse, plus
// optional user words such as movie titles. The dictionary is loaded on the
// first call to Segment; if loading fails every run is kept whole.
type DictSegmenter struct {
	words []string

	once sync.Once
	seg  gse.Segmenter
	err  error
}

// NewSegmenter returns a DictSegmenter that also knows words.
func NewSegmenter(words ...string) *DictSegmenter {
	return &DictSegmenter{words: words}
}

func (s *DictSegmenter) load() {
	s.seg.SkipLog = true

	err := s.seg.LoadDictEmbed()
	if err != nil {
		s.err = fmt.Errorf("load segmentation dictionary: %w", err)

		return
	}

	for _, w := range s.words {
		if w == "" {
			continue
		}

		err := s.seg.AddToken(w, userWordFreq, "nz")
		if err != nil {
			s.err = fmt.Errorf("add user word %q: %w", w, err)

			return
		}
	}
}

// Err loads the dictionary if needed and reports whether that failed.
func (s *DictSegmenter) Err() error {
	s.once.Do(s.load)

	return s.err
}

// Segment splits text into dictionary words.
func (s *DictSegmenter) Segment(text string) []string {
	if s.Err() != nil {
		return []string{text}
	}

	return s.seg.Cut(text, false)
}

// defaultSegmenter backs QuestionLexer and the package-level Extract.
var defaultSegmenter = NewSegmenter()

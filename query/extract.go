package query

import (
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/alecthomas/participle/v2/lexer"
)

// minFallbackRunes is the shortest token the fallback accepts as a title.
const minFallbackRunes = 3

// Extractor resolves the movie title a question refers to.
type Extractor struct {
	titles Dictionary
	lexer  lexer.Definition
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithSegmenter sets how the fallback splits Han runs into words.
func WithSegmenter(seg Segmenter) ExtractorOption {
	return func(e *Extractor) {
		e.lexer = NewQuestionLexer(seg)
	}
}

// NewExtractor returns an Extractor over titles. The order of titles is
// the match order. By default the fallback segments with the embedded
// dictionary and knows every title as a word.
func NewExtractor(titles Dictionary, opts ...ExtractorOption) *Extractor {
	e := &Extractor{titles: titles}

	for _, opt := range opts {
		opt(e)
	}

	if e.lexer == nil {
		e.lexer = NewQuestionLexer(NewSegmenter(titles...))
	}

	return e
}

// Titles returns the dictionary the extractor scans.
func (e *Extractor) Titles() Dictionary {
	return e.titles
}

// Extract resolves question against the extractor's dictionary.
func (e *Extractor) Extract(question string) (string, bool) {
	return extract(e.lexer, question, e.titles)
}

// Extract returns the first title of titles that occurs in question. When none
// does, it falls back to the question's words: the first one that is not a
// stopword or intent keyword and longer than two characters, else the first
// such run of Han words. It reports false when nothing qualifies.
func Extract(question string, titles []string) (string, bool) {
	return extract(QuestionLexer, question, titles)
}

func extract(def lexer.Definition, question string, titles []string) (string, bool) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", false
	}

	for _, title := range titles {
		if title != "" && strings.Contains(question, title) {
			return title, true
		}
	}

	return fallbackTitle(tokenize(def, question))
}

func fallbackTitle(tokens []lexer.Token) (string, bool) {
	var run string

	runEnd := -1

	for _, tok := range tokens {
		// Adjacent Han words came from the same run.
		if tok.Type == TokenHan && tok.Pos.Offset == runEnd {
			run += tok.Value
		} else {
			if utf8.RuneCountInString(run) >= minFallbackRunes {
				return run, true
			}

			run = ""
			if tok.Type == TokenHan {
				run = tok.Value
			}
		}

		if tok.Type == TokenHan {
			runEnd = tok.Pos.Offset + len(tok.Value)
		}

		if isTitleWord(tok) {
			return tok.Value, true
		}
	}

	if utf8.RuneCountInString(run) >= minFallbackRunes {
		return run, true
	}

	return "", false
}

func isTitleWord(tok lexer.Token) bool {
	if tok.Type != TokenHan && tok.Type != TokenWord {
		return false
	}

	if slices.Contains(Stopwords, tok.Value) {
		return false
	}

	return utf8.RuneCountInString(tok.Value) >= minFallbackRunes
}

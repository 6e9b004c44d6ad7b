package query

import (
	"io"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/alecthomas/participle/v2/lexer"
)

// Question token types - negative values as per participle convention.
const (
	TokenEOF        lexer.TokenType = lexer.EOF
	TokenHan        lexer.TokenType = -(iota + 2) //nolint:mnd // participle convention
	TokenWord                                     // latin letters and digits
	TokenStopword                                 // filler words such as 的 or 电影
	TokenPunct                                    // punctuation, including full-width
	TokenWhitespace                               // spaces, tabs, newlines
	TokenKeyword                                  // intent keywords such as 导演
)

// Stopwords are the filler words the fallback extractor drops.
var Stopwords = []string{"的", "是", "谁", "？", "电影", "什么", "时候", "多少"}

type boundary struct {
	word string
	typ  lexer.TokenType
}

// hanBoundaries are the Han stopwords and intent keywords that end a run,
// longest first so that "导演是谁" wins over "导演". A stopword wins over a
// keyword with the same text.
var hanBoundaries = func() []boundary {
	var out []boundary

	seen := map[string]bool{}
	add := func(w string, typ lexer.TokenType) {
		r, _ := utf8.DecodeRuneInString(w)
		if seen[w] || !unicode.Is(unicode.Han, r) {
			return
		}

		seen[w] = true
		out = append(out, boundary{word: w, typ: typ})
	}

	for _, w := range Stopwords {
		add(w, TokenStopword)
	}

	for _, i := range Intents() {
		for _, kw := range i.Keywords() {
			add(kw, TokenKeyword)
		}
	}

	slices.SortStableFunc(out, func(a, b boundary) int {
		return utf8.RuneCountInString(b.word) - utf8.RuneCountInString(a.word)
	})

	return out
}()

// questionDefinition implements lexer.Definition for movie questions.
type questionDefinition struct {
	symbols map[string]lexer.TokenType
	seg     Segmenter
}

// QuestionLexer splits Han runs with the embedded gse dictionary.
var QuestionLexer lexer.Definition = NewQuestionLexer(defaultSegmenter)

// NewQuestionLexer returns a question lexer that splits Han runs with seg.
// A nil seg keeps runs whole.
func NewQuestionLexer(seg Segmenter) lexer.Definition {
	if seg == nil {
		seg = WholeRuns
	}

	return &questionDefinition{
		seg: seg,
		symbols: map[string]lexer.TokenType{
			"EOF":        TokenEOF,
			"Han":        TokenHan,
			"Word":       TokenWord,
			"Stopword":   TokenStopword,
			"Punct":      TokenPunct,
			"Whitespace": TokenWhitespace,
			"Keyword":    TokenKeyword,
		},
	}
}

// Symbols returns the mapping of symbol names to token types.
func (d *questionDefinition) Symbols() map[string]lexer.TokenType {
	return d.symbols
}

// Lex creates a new Lexer for the given reader.
//
//nolint:ireturn // Required by participle's lexer.Definition interface.
func (d *questionDefinition) Lex(filename string, r io.Reader) (lexer.Lexer, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	return d.LexString(filename, string(data))
}

// LexString implements lexer.StringDefinition.
//
//nolint:ireturn // Required by participle's lexer.StringDefinition interface.
func (d *questionDefinition) LexString(filename string, input string) (lexer.Lexer, error) {
	return &questionState{filename: filename, input: input, line: 1, col: 1, seg: d.seg}, nil
}

// Tokenize splits question into tokens with QuestionLexer, excluding EOF.
func Tokenize(question string) []lexer.Token {
	return tokenize(QuestionLexer, question)
}

func tokenize(def lexer.Definition, question string) []lexer.Token {
	l, err := def.Lex("", strings.NewReader(question))
	if err != nil {
		return nil
	}

	// questionState never fails.
	tokens, _ := lexer.ConsumeAll(l)
	if n := len(tokens); n > 0 && tokens[n-1].EOF() {
		tokens = tokens[:n-1]
	}

	return tokens
}

type questionState struct {
	filename string
	input    string
	offset   int
	line     int
	col      int
	seg      Segmenter

	// pending holds the remaining words of a segmented Han run.
	pending []lexer.Token
}

// Next returns the next token.
func (l *questionState) Next() (lexer.Token, error) {
	if len(l.pending) > 0 {
		tok := l.pending[0]
		l.pending = l.pending[1:]

		return tok, nil
	}

	if l.eof() {
		return lexer.EOFToken(l.pos()), nil
	}

	start := l.pos()
	r := l.peek()

	switch {
	case unicode.IsSpace(r):
		for !l.eof() && unicode.IsSpace(l.peek()) {
			l.advance()
		}

		return l.token(TokenWhitespace, start), nil

	case unicode.Is(unicode.Han, r):
		if b, ok := boundaryAt(l.input[l.offset:]); ok {
			l.advanceBytes(len(b.word))

			return l.token(b.typ, start), nil
		}

		end := l.offset
		for end < len(l.input) {
			r, size := utf8.DecodeRuneInString(l.input[end:])
			if !unicode.Is(unicode.Han, r) {
				break
			}

			if _, ok := boundaryAt(l.input[end:]); ok {
				break
			}

			end += size
		}

		l.segment(l.input[l.offset:end])

		return l.Next()

	case isWordRune(r):
		for !l.eof() && isWordRune(l.peek()) {
			l.advance()
		}

		return l.token(TokenWord, start), nil
	}

	l.advance()

	tok := l.token(TokenPunct, start)
	if slices.Contains(Stopwords, tok.Value) {
		tok.Type = TokenStopword
	}

	return tok, nil
}

// boundaryAt returns the boundary word that rest starts with, if any.
func boundaryAt(rest string) (boundary, bool) {
	for _, b := range hanBoundaries {
		if strings.HasPrefix(rest, b.word) {
			return b, true
		}
	}

	return boundary{}, false
}

// segment queues the words of run as Han tokens. Segmentations that do not
// reproduce run exactly are ignored and run stays whole.
func (l *questionState) segment(run string) {
	words := l.seg.Segment(run)
	if strings.Join(words, "") != run {
		words = []string{run}
	}

	for _, w := range words {
		if w == "" {
			continue
		}

		start := l.pos()
		l.advanceBytes(len(w))
		l.pending = append(l.pending, l.token(TokenHan, start))
	}
}

func isWordRune(r rune) bool {
	return (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '·' || r == '.' || r == '\'') && !unicode.Is(unicode.Han, r)
}

func (l *questionState) pos() lexer.Position {
	return lexer.Position{
		Filename: l.filename,
		Offset:   l.offset,
		Line:     l.line,
		Column:   l.col,
	}
}

func (l *questionState) eof() bool {
	return l.offset >= len(l.input)
}

func (l *questionState) peek() rune {
	if l.eof() {
		return 0
	}

	r, _ := utf8.DecodeRuneInString(l.input[l.offset:])

	return r
}

func (l *questionState) advance() {
	r, size := utf8.DecodeRuneInString(l.input[l.offset:])
	l.offset += size

	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
}

func (l *questionState) advanceBytes(n int) {
	end := l.offset + n
	for l.offset < end && !l.eof() {
		l.advance()
	}
}

func (l *questionState) token(typ lexer.TokenType, start lexer.Position) lexer.Token {
	return lexer.Token{
		Type:  typ,
		Value: l.input[start.Offset:l.offset],
		Pos:   start,
	}
}

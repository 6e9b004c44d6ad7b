// Package query answers free-text questions about movies stored in the graph.
//
// A question is resolved in four steps: the Extractor finds the movie title,
// Classify maps keywords to an Intent, the Engine looks the attribute up in
// the store and Format renders the Outcome as a sentence. Answerer runs the
// whole pipeline.
package query

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rlch/moviekg"
)

// ErrUnknownIntent is returned by ParseIntent for names it does not know.
var ErrUnknownIntent = errors.New("unknown intent")

// Intent is the attribute a question asks about.
type Intent int

// Intents in classification priority order.
const (
	Unknown Intent = iota
	Director
	Type
	Time
	Rate
	Num
	Actor
	Country
)

// projection describes how an intent is read from the graph.
type projection struct {
	// statement is the Cypher statement to run.
	statement string
	// property is bound as $property for scalar projections.
	property string
}

type intentInfo struct {
	name     string
	label    string
	keywords []string
	project  projection
}

// intents is indexed by Intent. Classification walks it in order.
var intents = [...]intentInfo{
	Unknown: {name: "unknown"},
	Director: {
		name:     "director",
		label:    "导演",
		keywords: []string{"导演", "执导", "导演是谁", "谁导演的"},
		project:  projection{statement: moviekg.CypherMovieDirectors},
	},
	Type: {
		name:     "type",
		label:    "类型",
		keywords: []string{"类型", "种类", "是什么类型", "属于什么类型"},
		project:  projection{statement: moviekg.CypherMovieProperty, property: moviekg.PropGenre},
	},
	Time: {
		name:     "time",
		label:    "上映时间",
		keywords: []string{"上映时间", "什么时候上映", "上映日期"},
		project:  projection{statement: moviekg.CypherMovieProperty, property: moviekg.PropReleaseDate},
	},
	Rate: {
		name:     "rate",
		label:    "评分",
		keywords: []string{"评分", "分数", "豆瓣评分", "评分为多少"},
		project:  projection{statement: moviekg.CypherMovieProperty, property: moviekg.PropRating},
	},
	Num: {
		name:     "num",
		label:    "评价人数",
		keywords: []string{"评价人数", "多少人评价", "评分人数"},
		project:  projection{statement: moviekg.CypherMovieProperty, property: moviekg.PropVoteCount},
	},
	Actor: {
		name:     "actor",
		label:    "主演",
		keywords: []string{"演员", "主演", "谁演的", "演员表"},
		project:  projection{statement: moviekg.CypherMovieActors},
	},
	Country: {
		name:     "country",
		label:    "制片国家",
		keywords: []string{"国家", "哪个国家的", "产地"},
		project:  projection{statement: moviekg.CypherMovieProperty, property: moviekg.PropCountry},
	},
}

// Intents returns every known intent except Unknown, in priority order.
func Intents() []Intent {
	out := make([]Intent, 0, len(intents)-1)
	for i := Director; int(i) < len(intents); i++ {
		out = append(out, i)
	}

	return out
}

func (i Intent) info() intentInfo {
	if i < 0 || int(i) >= len(intents) {
		return intents[Unknown]
	}

	return intents[i]
}

// String returns the intent name.
func (i Intent) String() string {
	return i.info().name
}

// Label is the attribute name used in answers, e.g. "导演".
func (i Intent) Label() string {
	return i.info().label
}

// Keywords returns the trigger phrases of the intent, in match order.
func (i Intent) Keywords() []string {
	return i.info().keywords
}

// MarshalText implements encoding.TextMarshaler.
func (i Intent) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// Classify returns the first intent, in priority order, with a keyword
// contained in question. Keywords are matched as plain substrings, so a
// question containing "评分人数" is a Rate question: "评分" is checked first.
func Classify(question string) Intent {
	for i := Director; int(i) < len(intents); i++ {
		for _, kw := range intents[i].keywords {
			if strings.Contains(question, kw) {
				return i
			}
		}
	}

	return Unknown
}

// ParseIntent maps an intent name back to its Intent.
func ParseIntent(name string) (Intent, error) {
	name = strings.ToLower(strings.TrimSpace(name))

	for i := range intents {
		if intents[i].name == name {
			return Intent(i), nil
		}
	}

	return Unknown, fmt.Errorf("%w: %q", ErrUnknownIntent, name)
}

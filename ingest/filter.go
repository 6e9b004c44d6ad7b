package ingest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// ErrFilter is returned when a row filter fails to compile, including
// expressions that do not produce a boolean.
var ErrFilter = errors.New("invalid row filter")

// Filter is a compiled boolean expression over normalised rows, e.g.
// `rating >= 8.5 && "张国荣" in actor`.
type Filter struct {
	source  string
	program *vm.Program
}

// CompileFilter compiles source against the row environment.
// An empty source yields a nil filter that matches every row.
func CompileFilter(source string) (*Filter, error) {
	if strings.TrimSpace(source) == "" {
		return nil, nil //nolint:nilnil // nil filter means "match all"
	}

	program, err := expr.Compile(source, expr.Env(Row{}.Env()), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("%w: compile %q: %w", ErrFilter, source, err)
	}

	return &Filter{source: source, program: program}, nil
}

// String returns the expression source.
func (f *Filter) String() string {
	if f == nil {
		return ""
	}

	return f.source
}

// Match evaluates the filter against row.
func (f *Filter) Match(row Row) (bool, error) {
	if f == nil {
		return true, nil
	}

	output, err := expr.Run(f.program, row.Env())
	if err != nil {
		return false, fmt.Errorf("evaluate %q: %w", f.source, err)
	}

	// Compiled with expr.AsBool.
	passed, _ := output.(bool)

	return passed, nil
}

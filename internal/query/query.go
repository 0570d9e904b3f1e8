// Package query filters library documents with expr-lang expressions such as
//
//	favorite && name contains "invoice"
//	folder == "root" and modified > now - 7 * day
package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"flexipdf/internal/flexi"
)

// Env is the set of variables an expression can refer to.
type Env struct {
	ID       string `expr:"id"`
	Name     string `expr:"name"`
	URI      string `expr:"uri"`
	Favorite bool   `expr:"favorite"`
	Folder   string `expr:"folder"`
	// Modified is the document's last-opened time in unix milliseconds.
	Modified int64 `expr:"modified"`
	// Now is the evaluation time in unix milliseconds.
	Now int64 `expr:"now"`
	// Day is one day in milliseconds, for writing relative times.
	Day int64 `expr:"day"`
}

// Filter is a compiled boolean expression over Env.
type Filter struct {
	source  string
	program *vm.Program
}

// Compile parses and type-checks source. The expression must evaluate to a bool.
func Compile(source string) (*Filter, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, fmt.Errorf("filter expression must not be empty")
	}
	program, err := expr.Compile(source, expr.Env(Env{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compiling filter %q: %w", source, err)
	}
	return &Filter{source: source, program: program}, nil
}

// String returns the expression source.
func (f *Filter) String() string {
	return f.source
}

// EnvFor builds the expression environment for a document.
func EnvFor(doc flexi.Document, now time.Time) Env {
	return Env{
		ID:       doc.ID,
		Name:     doc.Name,
		URI:      doc.Locator,
		Favorite: doc.IsFavorite,
		Folder:   doc.ParentID(),
		Modified: doc.LastModified,
		Now:      now.UnixMilli(),
		Day:      (24 * time.Hour).Milliseconds(),
	}
}

// Match reports whether doc satisfies the filter.
func (f *Filter) Match(doc flexi.Document, now time.Time) (bool, error) {
	out, err := expr.Run(f.program, EnvFor(doc, now))
	if err != nil {
		return false, fmt.Errorf("evaluating filter on %s: %w", doc.ID, err)
	}
	matched, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("filter returned %T, want bool", out)
	}
	return matched, nil
}

// Apply returns the documents that satisfy the filter, in order.
func (f *Filter) Apply(docs []flexi.Document, now time.Time) ([]flexi.Document, error) {
	var out []flexi.Document
	for _, d := range docs {
		ok, err := f.Match(d, now)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, d)
		}
	}
	return out, nil
}

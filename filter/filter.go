package filter

import (
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"
)

// Expression is the untyped view of a filter used by the translator.
// The set of implementations is closed to this package.
type Expression interface {
	fmt.Stringer
	writeSQL(w *sqlWriter) error
	collectNative(names map[string]any) error
}

// Filter is a predicate over entities of type T. It can be translated to SQL
// and, except for NativeSQLFilter, evaluated in memory with Test.
type Filter[T any] interface {
	Expression
	Test(entity T) (bool, error)
}

// Getter reads a column value from an entity. A nil result is SQL NULL.
type Getter[T any] func(entity T) any

func (g Getter[T]) get(column string, entity T) (any, error) {
	if g == nil {
		return nil, fmt.Errorf("%w: column %s has no accessor", ErrUnsupportedOperation, column)
	}
	return g(entity), nil
}

// Operator is a comparison operator of OpFilter.
type Operator string

const (
	Le Operator = "<="
	Lt Operator = "<"
	Ge Operator = ">="
	Gt Operator = ">"
)

func (o Operator) valid() bool {
	switch o {
	case Le, Lt, Ge, Gt:
		return true
	}
	return false
}

func (o Operator) holds(c int) bool {
	switch o {
	case Le:
		return c <= 0
	case Lt:
		return c < 0
	case Ge:
		return c >= 0
	case Gt:
		return c > 0
	}
	return false
}

// EqFilter matches entities whose column equals Value.
type EqFilter[T any] struct {
	Column string
	Value  any
	Getter Getter[T]
}

func (f EqFilter[T]) Test(entity T) (bool, error) {
	v, err := f.Getter.get(f.Column, entity)
	if err != nil || isNull(v) || isNull(f.Value) {
		return false, err
	}
	return equal(v, f.Value), nil
}

func (f EqFilter[T]) String() string {
	return fmt.Sprintf("%s = %s", f.Column, formatValue(f.Value))
}

func (f EqFilter[T]) writeSQL(w *sqlWriter) error {
	return w.comparison(f.Column, "=", f.Value)
}

func (f EqFilter[T]) collectNative(map[string]any) error { return nil }

// OpFilter matches entities whose column compares to Value with Operator.
type OpFilter[T any] struct {
	Column   string
	Value    any
	Operator Operator
	Getter   Getter[T]
}

func (f OpFilter[T]) Test(entity T) (bool, error) {
	if !f.Operator.valid() {
		return false, fmt.Errorf("%w: operator %q", ErrUnsupportedOperation, f.Operator)
	}
	v, err := f.Getter.get(f.Column, entity)
	if err != nil || isNull(v) || isNull(f.Value) {
		return false, err
	}
	c, err := compare(v, f.Value)
	if err != nil {
		return false, fmt.Errorf("column %s: %w", f.Column, err)
	}
	return f.Operator.holds(c), nil
}

func (f OpFilter[T]) String() string {
	return fmt.Sprintf("%s %s %s", f.Column, f.Operator, formatValue(f.Value))
}

func (f OpFilter[T]) writeSQL(w *sqlWriter) error {
	if !f.Operator.valid() {
		return fmt.Errorf("%w: operator %q", ErrUnsupportedOperation, f.Operator)
	}
	return w.comparison(f.Column, string(f.Operator), f.Value)
}

func (f OpFilter[T]) collectNative(map[string]any) error { return nil }

// LikeFilter matches a SQL LIKE pattern: % matches any run of characters, _ exactly one.
type LikeFilter[T any] struct {
	Column  string
	Pattern string
	Getter  Getter[T]
}

func (f LikeFilter[T]) Test(entity T) (bool, error) {
	return testLike(f.Getter, f.Column, f.Pattern, false, entity)
}

func (f LikeFilter[T]) String() string {
	return fmt.Sprintf("%s LIKE %q", f.Column, f.Pattern)
}

func (f LikeFilter[T]) writeSQL(w *sqlWriter) error {
	return w.comparison(f.Column, "LIKE", f.Pattern)
}

func (f LikeFilter[T]) collectNative(map[string]any) error { return nil }

// ILikeFilter is the case-insensitive LikeFilter. It is rendered with LOWER()
// on both sides so it stays within SQL-92.
type ILikeFilter[T any] struct {
	Column  string
	Pattern string
	Getter  Getter[T]
}

func (f ILikeFilter[T]) Test(entity T) (bool, error) {
	return testLike(f.Getter, f.Column, f.Pattern, true, entity)
}

func (f ILikeFilter[T]) String() string {
	return fmt.Sprintf("%s ILIKE %q", f.Column, f.Pattern)
}

func (f ILikeFilter[T]) writeSQL(w *sqlWriter) error {
	if err := w.checkColumn(f.Column); err != nil {
		return err
	}
	w.sb.WriteString("LOWER(")
	w.sb.WriteString(f.Column)
	w.sb.WriteString(") LIKE LOWER(")
	w.bind(f.Pattern)
	w.sb.WriteString(")")
	return nil
}

func (f ILikeFilter[T]) collectNative(map[string]any) error { return nil }

type IsNullFilter[T any] struct {
	Column string
	Getter Getter[T]
}

func (f IsNullFilter[T]) Test(entity T) (bool, error) {
	v, err := f.Getter.get(f.Column, entity)
	if err != nil {
		return false, err
	}
	return isNull(v), nil
}

func (f IsNullFilter[T]) String() string { return f.Column + " IS NULL" }

func (f IsNullFilter[T]) writeSQL(w *sqlWriter) error {
	return w.nullCheck(f.Column, "IS NULL")
}

func (f IsNullFilter[T]) collectNative(map[string]any) error { return nil }

type IsNotNullFilter[T any] struct {
	Column string
	Getter Getter[T]
}

func (f IsNotNullFilter[T]) Test(entity T) (bool, error) {
	v, err := f.Getter.get(f.Column, entity)
	if err != nil {
		return false, err
	}
	return !isNull(v), nil
}

func (f IsNotNullFilter[T]) String() string { return f.Column + " IS NOT NULL" }

func (f IsNotNullFilter[T]) writeSQL(w *sqlWriter) error {
	return w.nullCheck(f.Column, "IS NOT NULL")
}

func (f IsNotNullFilter[T]) collectNative(map[string]any) error { return nil }

// AndFilter matches when every child matches. Use And to build one with
// flattened, deduplicated children.
type AndFilter[T any] struct {
	Children []Filter[T]
}

func (f AndFilter[T]) Test(entity T) (bool, error) {
	for _, c := range f.Children {
		ok, err := c.Test(entity)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func (f AndFilter[T]) String() string { return junctionString(f.Children, "AND") }

func (f AndFilter[T]) writeSQL(w *sqlWriter) error { return w.junction(expressions(f.Children), "AND") }

func (f AndFilter[T]) collectNative(names map[string]any) error {
	return collectChildren(f.Children, names)
}

// OrFilter matches when at least one child matches.
type OrFilter[T any] struct {
	Children []Filter[T]
}

func (f OrFilter[T]) Test(entity T) (bool, error) {
	for _, c := range f.Children {
		ok, err := c.Test(entity)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (f OrFilter[T]) String() string { return junctionString(f.Children, "OR") }

func (f OrFilter[T]) writeSQL(w *sqlWriter) error { return w.junction(expressions(f.Children), "OR") }

func (f OrFilter[T]) collectNative(names map[string]any) error {
	return collectChildren(f.Children, names)
}

// NativeSQLFilter carries a caller-written WHERE fragment and its named
// parameters. It is passed through translation verbatim and cannot be
// evaluated in memory.
type NativeSQLFilter[T any] struct {
	Where  string
	Params map[string]any
}

// Native builds a NativeSQLFilter. params is copied.
func Native[T any](where string, params map[string]any) NativeSQLFilter[T] {
	return NativeSQLFilter[T]{Where: where, Params: maps.Clone(params)}
}

func (f NativeSQLFilter[T]) Test(T) (bool, error) {
	return false, fmt.Errorf("%w: native SQL filter %q cannot be evaluated in memory", ErrUnsupportedOperation, f.Where)
}

func (f NativeSQLFilter[T]) String() string {
	keys := slices.Sorted(maps.Keys(f.Params))
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+formatValue(f.Params[k]))
	}
	return fmt.Sprintf("native(%s; %s)", f.Where, strings.Join(parts, ", "))
}

func (f NativeSQLFilter[T]) writeSQL(w *sqlWriter) error {
	// inside AND/OR the fragment is parenthesized so its own operators keep their precedence
	if w.nested > 0 {
		w.sb.WriteString("(" + f.Where + ")")
		return nil
	}
	w.sb.WriteString(f.Where)
	return nil
}

func (f NativeSQLFilter[T]) collectNative(names map[string]any) error {
	for k, v := range f.Params {
		if prev, ok := names[k]; ok && !equal(prev, v) {
			return ParameterCollisionError{Name: k}
		}
		names[k] = v
	}
	return nil
}

func junctionString[T any](children []Filter[T], op string) string {
	parts := make([]string, 0, len(children))
	for _, c := range children {
		parts = append(parts, c.String())
	}
	return "(" + strings.Join(parts, " "+op+" ") + ")"
}

func expressions[T any](children []Filter[T]) []Expression {
	out := make([]Expression, len(children))
	for i, c := range children {
		out[i] = c
	}
	return out
}

func collectChildren[T any](children []Filter[T], names map[string]any) error {
	for _, c := range children {
		if err := c.collectNative(names); err != nil {
			return err
		}
	}
	return nil
}

func testLike[T any](g Getter[T], column, pattern string, fold bool, entity T) (bool, error) {
	v, err := g.get(column, entity)
	if err != nil || isNull(v) {
		return false, err
	}
	s, ok := asString(v)
	if !ok {
		return false, fmt.Errorf("column %s: LIKE needs a string value, got %T", column, v)
	}
	return likeRegexp(pattern, fold).MatchString(s), nil
}

// likeRegexp converts a SQL LIKE pattern to an anchored regular expression.
// Backslash escapes the next character, the default escape of Postgres and MySQL.
func likeRegexp(pattern string, fold bool) *regexp.Regexp {
	var sb strings.Builder
	if fold {
		sb.WriteString("(?i)")
	}
	sb.WriteString("(?s)^")
	escaped := false
	for _, r := range pattern {
		if escaped {
			sb.WriteString(regexp.QuoteMeta(string(r)))
			escaped = false
			continue
		}
		switch r {
		case '\\':
			escaped = true
		case '%':
			sb.WriteString(".*")
		case '_':
			sb.WriteString(".")
		default:
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	sb.WriteString("$")
	return regexp.MustCompile(sb.String())
}

package filter

import (
	"cmp"
	"time"
)

// Field is a typed accessor for one column of entity T. It builds filters
// whose value type is checked at compile time.
type Field[T, V any] struct {
	column string
	getter Getter[T]
}

// NewField binds column to a non-nullable property of T.
func NewField[T, V any](column string, get func(T) V) Field[T, V] {
	return Field[T, V]{column: column, getter: func(e T) any { return get(e) }}
}

// NewNullableField binds column to a pointer property; a nil pointer is NULL.
func NewNullableField[T, V any](column string, get func(T) *V) Field[T, V] {
	return Field[T, V]{column: column, getter: nullable(get)}
}

func nullable[T, V any](get func(T) *V) Getter[T] {
	return func(e T) any {
		if p := get(e); p != nil {
			return *p
		}
		return nil
	}
}

func (f Field[T, V]) Column() string { return f.column }

func (f Field[T, V]) Eq(value V) Filter[T] {
	return EqFilter[T]{Column: f.column, Value: value, Getter: f.getter}
}

func (f Field[T, V]) IsNull() Filter[T] {
	return IsNullFilter[T]{Column: f.column, Getter: f.getter}
}

func (f Field[T, V]) IsNotNull() Filter[T] {
	return IsNotNullFilter[T]{Column: f.column, Getter: f.getter}
}

// OrderedField is a Field whose values have a natural order.
type OrderedField[T any, V cmp.Ordered] struct {
	Field[T, V]
}

func NewOrderedField[T any, V cmp.Ordered](column string, get func(T) V) OrderedField[T, V] {
	return OrderedField[T, V]{NewField(column, get)}
}

func NewNullableOrderedField[T any, V cmp.Ordered](column string, get func(T) *V) OrderedField[T, V] {
	return OrderedField[T, V]{NewNullableField(column, get)}
}

func (f OrderedField[T, V]) op(o Operator, value V) Filter[T] {
	return OpFilter[T]{Column: f.column, Value: value, Operator: o, Getter: f.getter}
}

func (f OrderedField[T, V]) Le(value V) Filter[T] { return f.op(Le, value) }
func (f OrderedField[T, V]) Lt(value V) Filter[T] { return f.op(Lt, value) }
func (f OrderedField[T, V]) Ge(value V) Filter[T] { return f.op(Ge, value) }
func (f OrderedField[T, V]) Gt(value V) Filter[T] { return f.op(Gt, value) }

// Between matches lo <= column <= hi.
func (f OrderedField[T, V]) Between(lo, hi V) Filter[T] {
	return And(f.Ge(lo), f.Le(hi))
}

// StringField adds pattern matching to an ordered string column.
type StringField[T any] struct {
	OrderedField[T, string]
}

func NewStringField[T any](column string, get func(T) string) StringField[T] {
	return StringField[T]{NewOrderedField(column, get)}
}

func NewNullableStringField[T any](column string, get func(T) *string) StringField[T] {
	return StringField[T]{NewNullableOrderedField(column, get)}
}

// Like matches a SQL LIKE pattern, e.g. "Jo%".
func (f StringField[T]) Like(pattern string) Filter[T] {
	return LikeFilter[T]{Column: f.column, Pattern: pattern, Getter: f.getter}
}

// ILike is the case-insensitive Like.
func (f StringField[T]) ILike(pattern string) Filter[T] {
	return ILikeFilter[T]{Column: f.column, Pattern: pattern, Getter: f.getter}
}

// TimeField is an ordered time.Time column. time.Time is not cmp.Ordered so it
// gets its own accessor.
type TimeField[T any] struct {
	Field[T, time.Time]
}

func NewTimeField[T any](column string, get func(T) time.Time) TimeField[T] {
	return TimeField[T]{NewField(column, get)}
}

func NewNullableTimeField[T any](column string, get func(T) *time.Time) TimeField[T] {
	return TimeField[T]{NewNullableField(column, get)}
}

func (f TimeField[T]) op(o Operator, value time.Time) Filter[T] {
	return OpFilter[T]{Column: f.column, Value: value, Operator: o, Getter: f.getter}
}

func (f TimeField[T]) Before(t time.Time) Filter[T]   { return f.op(Lt, t) }
func (f TimeField[T]) NotAfter(t time.Time) Filter[T] { return f.op(Le, t) }
func (f TimeField[T]) After(t time.Time) Filter[T]    { return f.op(Gt, t) }
func (f TimeField[T]) NotBefore(t time.Time) Filter[T] {
	return f.op(Ge, t)
}

// Between matches from <= column <= to.
func (f TimeField[T]) Between(from, to time.Time) Filter[T] {
	return And(f.NotBefore(from), f.NotAfter(to))
}

// And combines filters with AND. Nested AndFilters are flattened and
// structurally equal children are kept once, in first-seen order. nil children
// are skipped; with no children left the result is nil (no filter), with one it
// is that child.
func And[T any](filters ...Filter[T]) Filter[T] {
	children := flatten(filters, func(f Filter[T]) ([]Filter[T], bool) {
		if a, ok := f.(AndFilter[T]); ok {
			return a.Children, true
		}
		return nil, false
	})
	switch len(children) {
	case 0:
		return nil
	case 1:
		return children[0]
	}
	return AndFilter[T]{Children: children}
}

// Or combines filters with OR, flattening and deduplicating like And.
func Or[T any](filters ...Filter[T]) Filter[T] {
	children := flatten(filters, func(f Filter[T]) ([]Filter[T], bool) {
		if o, ok := f.(OrFilter[T]); ok {
			return o.Children, true
		}
		return nil, false
	})
	switch len(children) {
	case 0:
		return nil
	case 1:
		return children[0]
	}
	return OrFilter[T]{Children: children}
}

func flatten[T any](filters []Filter[T], split func(Filter[T]) ([]Filter[T], bool)) []Filter[T] {
	seen := map[string]struct{}{}
	out := make([]Filter[T], 0, len(filters))
	var walk func([]Filter[T])
	walk = func(fs []Filter[T]) {
		for _, f := range fs {
			if f == nil {
				continue
			}
			if nested, ok := split(f); ok {
				walk(nested)
				continue
			}
			key := f.String()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, f)
		}
	}
	walk(filters)
	return out
}

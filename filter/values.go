package filter

import (
	"cmp"
	"fmt"
	"math"
	"reflect"
	"time"
)

var timeType = reflect.TypeOf(time.Time{})

// isNull reports SQL NULL: a nil interface or a nil pointer, map, slice or interface.
func isNull(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// deref unwraps non-nil pointers so *int and int compare alike.
func deref(v any) any {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil
	}
	return rv.Interface()
}

func equal(a, b any) bool {
	if c, err := compare(a, b); err == nil {
		return c == 0
	}
	return reflect.DeepEqual(deref(a), deref(b))
}

// compare orders two non-null scalars. Integers, unsigned integers and floats
// compare numerically across kinds; strings lexically; time.Time chronologically.
func compare(a, b any) (int, error) {
	a, b = deref(a), deref(b)
	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	if !ra.IsValid() || !rb.IsValid() {
		return 0, ErrNotComparable
	}

	if ra.Type() == timeType && rb.Type() == timeType {
		return a.(time.Time).Compare(b.(time.Time)), nil
	}
	if ra.Kind() == reflect.String && rb.Kind() == reflect.String {
		return cmp.Compare(ra.String(), rb.String()), nil
	}
	if ra.Kind() == reflect.Bool && rb.Kind() == reflect.Bool {
		// false < true, matching SQL boolean ordering
		return cmp.Compare(boolRank(ra.Bool()), boolRank(rb.Bool())), nil
	}
	na, okA := numeric(ra)
	nb, okB := numeric(rb)
	if okA && okB {
		return na.compare(nb), nil
	}
	return 0, fmt.Errorf("%w: %T and %T", ErrNotComparable, a, b)
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

// number keeps integer precision where possible and falls back to float64.
type number struct {
	kind int // 0 int, 1 uint, 2 float
	i    int64
	u    uint64
	f    float64
}

func numeric(v reflect.Value) (number, bool) {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return number{kind: 0, i: v.Int()}, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return number{kind: 1, u: v.Uint()}, true
	case reflect.Float32, reflect.Float64:
		return number{kind: 2, f: v.Float()}, true
	}
	return number{}, false
}

func (n number) float() float64 {
	switch n.kind {
	case 0:
		return float64(n.i)
	case 1:
		return float64(n.u)
	}
	return n.f
}

func (n number) compare(o number) int {
	switch {
	case n.kind == 0 && o.kind == 0:
		return cmp.Compare(n.i, o.i)
	case n.kind == 1 && o.kind == 1:
		return cmp.Compare(n.u, o.u)
	case n.kind == 0 && o.kind == 1:
		if n.i < 0 || o.u > math.MaxInt64 {
			return -1
		}
		return cmp.Compare(n.i, int64(o.u))
	case n.kind == 1 && o.kind == 0:
		return -o.compare(n)
	}
	return cmp.Compare(n.float(), o.float())
}

func asString(v any) (string, bool) {
	rv := reflect.ValueOf(deref(v))
	if rv.Kind() == reflect.String {
		return rv.String(), true
	}
	if s, ok := v.(fmt.Stringer); ok {
		return s.String(), true
	}
	return "", false
}

// formatValue renders a value for String(); strings are quoted so that
// "1" and 1 stay distinct.
func formatValue(v any) string {
	v = deref(v)
	if v == nil {
		return "NULL"
	}
	switch x := v.(type) {
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case fmt.Stringer:
		return fmt.Sprintf("%q", x.String())
	}
	if reflect.ValueOf(v).Kind() == reflect.String {
		return fmt.Sprintf("%q", v)
	}
	return fmt.Sprintf("%v", v)
}

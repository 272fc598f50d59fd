package filter

import (
	"maps"
	"regexp"
	"strconv"
	"strings"
)

var identifierRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Clause is a parameterized WHERE fragment. SQL is empty when there is no filter.
type Clause struct {
	SQL    string
	Params map[string]any
}

// Translator renders filters as SQL-92. It is stateless between calls and safe
// for concurrent use.
type Translator struct {
	paramPrefix string
	placeholder string
	columnCheck func(column string) error
}

func NewTranslator(options ...Option) *Translator {
	t := &Translator{paramPrefix: "p", placeholder: ":"}
	for _, option := range options {
		if option.f != nil {
			option.f(t)
		}
	}
	return t
}

// Translate walks the filter depth-first. Every comparison gets its own
// parameter; names come from a counter local to this call, so translating the
// same filter twice yields the same clause.
func (t *Translator) Translate(e Expression) (Clause, error) {
	if e == nil {
		return Clause{Params: map[string]any{}}, nil
	}
	native := map[string]any{}
	if err := e.collectNative(native); err != nil {
		return Clause{}, err
	}
	w := &sqlWriter{
		t:      t,
		taken:  native,
		params: maps.Clone(native),
	}
	if err := e.writeSQL(w); err != nil {
		return Clause{}, err
	}
	return Clause{SQL: w.sb.String(), Params: w.params}, nil
}

// ToSQL92 returns only the WHERE fragment of Translate.
func ToSQL92(e Expression, options ...Option) (string, error) {
	c, err := NewTranslator(options...).Translate(e)
	return c.SQL, err
}

// Parameters returns only the parameter map of Translate. It matches the
// names produced by ToSQL92 with the same options.
func Parameters(e Expression, options ...Option) (map[string]any, error) {
	c, err := NewTranslator(options...).Translate(e)
	return c.Params, err
}

type sqlWriter struct {
	t       *Translator
	sb      strings.Builder
	counter int
	taken   map[string]any
	params  map[string]any
	nested  int
}

func (w *sqlWriter) nextName() string {
	for {
		w.counter++
		name := w.t.paramPrefix + strconv.Itoa(w.counter)
		if _, used := w.taken[name]; !used {
			return name
		}
	}
}

func (w *sqlWriter) bind(value any) {
	name := w.nextName()
	w.params[name] = value
	w.sb.WriteString(w.t.placeholder)
	w.sb.WriteString(name)
}

func (w *sqlWriter) checkColumn(column string) error {
	if !identifierRegex.MatchString(column) {
		return InvalidColumnError{Column: column, Reason: "not a SQL identifier"}
	}
	if w.t.columnCheck != nil {
		return w.t.columnCheck(column)
	}
	return nil
}

func (w *sqlWriter) comparison(column, op string, value any) error {
	if err := w.checkColumn(column); err != nil {
		return err
	}
	w.sb.WriteString(column)
	w.sb.WriteByte(' ')
	w.sb.WriteString(op)
	w.sb.WriteByte(' ')
	w.bind(deref(value))
	return nil
}

func (w *sqlWriter) nullCheck(column, check string) error {
	if err := w.checkColumn(column); err != nil {
		return err
	}
	w.sb.WriteString(column)
	w.sb.WriteByte(' ')
	w.sb.WriteString(check)
	return nil
}

func (w *sqlWriter) junction(children []Expression, op string) error {
	switch len(children) {
	case 0:
		// empty AND is true, empty OR is false
		if op == "AND" {
			w.sb.WriteString("1=1")
		} else {
			w.sb.WriteString("1=0")
		}
		return nil
	case 1:
		return children[0].writeSQL(w)
	}
	w.nested++
	defer func() { w.nested-- }()
	w.sb.WriteByte('(')
	for i, c := range children {
		if i > 0 {
			w.sb.WriteByte(' ')
			w.sb.WriteString(op)
			w.sb.WriteByte(' ')
		}
		if err := c.writeSQL(w); err != nil {
			return err
		}
	}
	w.sb.WriteByte(')')
	return nil
}

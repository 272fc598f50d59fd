package filter_test

import (
	"errors"
	"fmt"
	"maps"
	"reflect"
	"testing"

	"github.com/cansoftinc/vaadin-on-kotlin/filter"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name   string
		filter filter.Filter[person]
		sql    string
		params map[string]any
	}{
		{
			"eq",
			nameField.Eq("John"),
			"name = :p1",
			map[string]any{"p1": "John"},
		},
		{
			"operators",
			filter.And(ageField.Le(1), ageField.Lt(2), ageField.Ge(3), ageField.Gt(4)),
			"(age <= :p1 AND age < :p2 AND age >= :p3 AND age > :p4)",
			map[string]any{"p1": 1, "p2": 2, "p3": 3, "p4": 4},
		},
		{
			"like",
			nameField.Like("Jo%"),
			"name LIKE :p1",
			map[string]any{"p1": "Jo%"},
		},
		{
			"ilike",
			nameField.ILike("jo%"),
			"LOWER(name) LIKE LOWER(:p1)",
			map[string]any{"p1": "jo%"},
		},
		{
			"null checks",
			filter.Or(nicknameField.IsNull(), scoreField.IsNotNull()),
			"(nickname IS NULL OR score IS NOT NULL)",
			map[string]any{},
		},
		{
			"nested",
			filter.Or(filter.And(nameField.Eq("a"), ageField.Gt(1)), filter.And(nameField.Eq("b"), ageField.Lt(2))),
			"((name = :p1 AND age > :p2) OR (name = :p3 AND age < :p4))",
			map[string]any{"p1": "a", "p2": 1, "p3": "b", "p4": 2},
		},
		{
			"same value twice gets two params",
			filter.Or(nameField.Eq("a"), nicknameField.Eq("a")),
			"(name = :p1 OR nickname = :p2)",
			map[string]any{"p1": "a", "p2": "a"},
		},
		{
			"qualified column",
			filter.NewField("person.name", func(p person) string { return p.Name }).Eq("x"),
			"person.name = :p1",
			map[string]any{"p1": "x"},
		},
		{
			"native",
			filter.Native[person]("age > :min OR name = :n", map[string]any{"min": 3, "n": "z"}),
			"age > :min OR name = :n",
			map[string]any{"min": 3, "n": "z"},
		},
		{
			"native nested",
			filter.And(nameField.Eq("a"), filter.Native[person]("age > :p1 OR age IS NULL", map[string]any{"p1": 3})),
			"(name = :p2 AND (age > :p1 OR age IS NULL))",
			map[string]any{"p1": 3, "p2": "a"},
		},
		{
			"no filter",
			nil,
			"",
			map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var e filter.Expression
			if tt.filter != nil {
				e = tt.filter
			}
			c, err := filter.NewTranslator().Translate(e)
			if err != nil {
				t.Fatalf("Translate() error = %v", err)
			}
			if c.SQL != tt.sql {
				t.Errorf("SQL = %q, want %q", c.SQL, tt.sql)
			}
			if !reflect.DeepEqual(c.Params, tt.params) {
				t.Errorf("Params = %#v, want %#v", c.Params, tt.params)
			}
		})
	}
}

func TestTranslate_Deterministic(t *testing.T) {
	f := filter.And(nameField.Like("%a%"), ageField.Between(1, 9), nicknameField.IsNull())
	sql1, err := filter.ToSQL92(f)
	if err != nil {
		t.Fatal(err)
	}
	params1, _ := filter.Parameters(f)
	sql2, _ := filter.ToSQL92(f)
	params2, _ := filter.Parameters(f)
	if sql1 != sql2 || !maps.Equal(params1, params2) {
		t.Errorf("translation is not deterministic: %q %v / %q %v", sql1, params1, sql2, params2)
	}
}

func TestTranslate_DistinctParamsDeepTree(t *testing.T) {
	var f filter.Filter[person]
	for i := range 50 {
		leaf := ageField.Eq(i)
		if i%2 == 0 {
			f = filter.Or(f, leaf)
		} else {
			f = filter.And(f, leaf, nameField.Eq(fmt.Sprint(i)))
		}
	}
	c, err := filter.NewTranslator().Translate(f)
	if err != nil {
		t.Fatal(err)
	}
	// 50 age leaves plus 25 name leaves
	if len(c.Params) != 75 {
		t.Errorf("got %d params, want 75", len(c.Params))
	}
	for i := 1; i <= 75; i++ {
		if _, ok := c.Params[fmt.Sprintf("p%d", i)]; !ok {
			t.Errorf("missing p%d", i)
		}
	}
}

func TestTranslate_Options(t *testing.T) {
	f := filter.And(nameField.Eq("a"), ageField.Gt(1))
	c, err := filter.NewTranslator(filter.WithParamPrefix("arg"), filter.WithPlaceholder("@")).Translate(f)
	if err != nil {
		t.Fatal(err)
	}
	if want := "(name = @arg1 AND age > @arg2)"; c.SQL != want {
		t.Errorf("SQL = %q, want %q", c.SQL, want)
	}

	checked := []string{}
	check := filter.WithColumnCheck(func(column string) error {
		checked = append(checked, column)
		if column == "age" {
			return errors.New("no such column")
		}
		return nil
	})
	if _, err := filter.ToSQL92(f, check); err == nil {
		t.Error("expected column check error")
	}
	if !reflect.DeepEqual(checked, []string{"name", "age"}) {
		t.Errorf("checked %v", checked)
	}
}

func TestTranslate_Errors(t *testing.T) {
	bad := filter.NewField("name; DROP TABLE person", func(p person) string { return p.Name })
	_, err := filter.ToSQL92(bad.Eq("x"))
	var invalid filter.InvalidColumnError
	if !errors.As(err, &invalid) {
		t.Fatalf("err = %v, want InvalidColumnError", err)
	}
	if invalid.Column != "name; DROP TABLE person" {
		t.Errorf("Column = %q", invalid.Column)
	}

	clash := filter.And(
		filter.Native[person]("age > :x", map[string]any{"x": 1}),
		filter.Native[person]("age < :x", map[string]any{"x": 2}),
	)
	_, err = filter.Parameters(clash)
	var collision filter.ParameterCollisionError
	if !errors.As(err, &collision) || collision.Name != "x" {
		t.Errorf("err = %v, want ParameterCollisionError{x}", err)
	}

	same := filter.Or(
		filter.Native[person]("age > :x", map[string]any{"x": 1}),
		filter.Native[person]("age = :x", map[string]any{"x": 1}),
	)
	if _, err := filter.Parameters(same); err != nil {
		t.Errorf("identical native bindings should not collide: %v", err)
	}

	_, err = filter.ToSQL92(filter.OpFilter[person]{Column: "age", Value: 1, Operator: "<>"})
	if !errors.Is(err, filter.ErrUnsupportedOperation) {
		t.Errorf("err = %v, want ErrUnsupportedOperation", err)
	}
}

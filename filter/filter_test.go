package filter_test

import (
	"errors"
	"testing"
	"time"

	"github.com/cansoftinc/vaadin-on-kotlin/filter"
)

func TestFilter_Test(t *testing.T) {
	born := time.Date(1990, 5, 1, 0, 0, 0, 0, time.UTC)
	john := person{Name: "John", Age: 30, Score: ptr(4.5), Born: born}
	anon := person{Name: "anon", Age: 17}

	tests := []struct {
		name   string
		filter filter.Filter[person]
		entity person
		want   bool
	}{
		{"eq match", nameField.Eq("John"), john, true},
		{"eq miss", nameField.Eq("john"), john, false},
		{"le", ageField.Le(30), john, true},
		{"lt", ageField.Lt(30), john, false},
		{"ge", ageField.Ge(18), anon, false},
		{"gt", ageField.Gt(29), john, true},
		{"between", ageField.Between(18, 65), john, true},
		{"between miss", ageField.Between(18, 65), anon, false},
		{"nullable compare", scoreField.Gt(4), john, true},
		{"compare null is false", scoreField.Gt(4), anon, false},
		{"compare null negated is false too", scoreField.Le(4), anon, false},
		{"eq null is false", nicknameField.Eq("x"), anon, false},
		{"is null", nicknameField.IsNull(), anon, true},
		{"is not null", scoreField.IsNotNull(), john, true},
		{"like prefix", nameField.Like("Jo%"), john, true},
		{"like single char", nameField.Like("J_hn"), john, true},
		{"like case sensitive", nameField.Like("jo%"), john, false},
		{"like regexp chars are literal", nameField.Like("J.*"), john, false},
		{"like escaped wildcard", nameField.Like(`Jo\%`), john, false},
		{"like escaped wildcard literal", nameField.Like(`100\%`), person{Name: "100%"}, true},
		{"ilike", nameField.ILike("jo%"), john, true},
		{"like null", nicknameField.Like("%"), john, false},
		{"time before", bornField.Before(born.Add(time.Hour)), john, true},
		{"time between", bornField.Between(born, born), john, true},
		{"and", filter.And(nameField.Eq("John"), ageField.Gt(40)), john, false},
		{"or", filter.Or(nameField.Eq("x"), ageField.Gt(20)), john, true},
		{"empty and", filter.AndFilter[person]{}, john, true},
		{"empty or", filter.OrFilter[person]{}, john, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.filter.Test(tt.entity)
			if err != nil {
				t.Fatalf("Test() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("%s.Test() = %v, want %v", tt.filter, got, tt.want)
			}
		})
	}
}

func TestFilter_TestErrors(t *testing.T) {
	native := filter.Native[person]("age > :a", map[string]any{"a": 1})
	if _, err := native.Test(person{}); !errors.Is(err, filter.ErrUnsupportedOperation) {
		t.Errorf("native Test() err = %v, want ErrUnsupportedOperation", err)
	}

	// a filter built without an accessor can only be translated
	raw := filter.EqFilter[person]{Column: "name", Value: "x"}
	if _, err := raw.Test(person{}); !errors.Is(err, filter.ErrUnsupportedOperation) {
		t.Errorf("Test() without getter err = %v, want ErrUnsupportedOperation", err)
	}

	mixed := filter.OpFilter[person]{
		Column: "name", Value: 3, Operator: filter.Gt,
		Getter: func(p person) any { return p.Name },
	}
	if _, err := mixed.Test(person{Name: "a"}); !errors.Is(err, filter.ErrNotComparable) {
		t.Errorf("Test() on string vs int err = %v, want ErrNotComparable", err)
	}
}

func TestFilter_TestNumericKinds(t *testing.T) {
	f := filter.OpFilter[person]{
		Column: "age", Value: uint8(30), Operator: filter.Ge,
		Getter: func(p person) any { return int64(p.Age) },
	}
	ok, err := f.Test(person{Age: 30})
	if err != nil || !ok {
		t.Errorf("Test() = %v, %v, want true", ok, err)
	}
	eq := filter.EqFilter[person]{Column: "score", Value: 4, Getter: func(p person) any { return p.Score }}
	ok, err = eq.Test(person{Score: ptr(4.0)})
	if err != nil || !ok {
		t.Errorf("Test() = %v, %v, want true", ok, err)
	}
}

func TestNative_CopiesParams(t *testing.T) {
	params := map[string]any{"a": 1}
	f := filter.Native[person]("x = :a", params)
	params["a"] = 2
	if f.Params["a"] != 1 {
		t.Errorf("Native() shares its params map")
	}
}

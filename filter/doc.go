// Package filter models typed predicates over entity columns and translates
// them into parameterized SQL-92 WHERE fragments.
//
// Filters are built with typed fields:
//
//	var name = filter.NewStringField("name", func(p Person) string { return p.Name })
//	var age = filter.NewOrderedField("age", func(p Person) int { return p.Age })
//
//	f := filter.And(name.Like("A%"), age.Between(18, 65))
//	clause, err := filter.NewTranslator().Translate(f)
//	// clause.SQL    == "(name LIKE :p1 AND age >= :p2 AND age <= :p3)"
//	// clause.Params == map[string]any{"p1": "A%", "p2": 18, "p3": 65}
//
// The same filter can be evaluated in memory with Test. Native SQL filters
// can only be translated.
package filter

package filter_test

import (
	"time"

	"github.com/cansoftinc/vaadin-on-kotlin/filter"
)

type person struct {
	Name     string
	Nickname *string
	Age      int
	Score    *float64
	Born     time.Time
}

var (
	nameField     = filter.NewStringField("name", func(p person) string { return p.Name })
	nicknameField = filter.NewNullableStringField("nickname", func(p person) *string { return p.Nickname })
	ageField      = filter.NewOrderedField("age", func(p person) int { return p.Age })
	scoreField    = filter.NewNullableOrderedField("score", func(p person) *float64 { return p.Score })
	bornField     = filter.NewTimeField("born", func(p person) time.Time { return p.Born })
)

func ptr[V any](v V) *V { return &v }

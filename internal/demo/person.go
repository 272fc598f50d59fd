// Package demo is the example application served by cmd/vok-demo: a person
// directory with filtered, paged listing and a per-session visit counter.
package demo

import (
	"time"

	"github.com/cansoftinc/vaadin-on-kotlin/filter"
)

// Person maps to table people.
type Person struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Name      string    `json:"name"`
	Nickname  *string   `json:"nickname,omitempty"`
	Age       int       `json:"age"`
	CreatedAt time.Time `json:"created_at"`
}

var (
	personName     = filter.NewStringField("name", func(p Person) string { return p.Name })
	personNickname = filter.NewNullableStringField("nickname", func(p Person) *string { return p.Nickname })
	personAge      = filter.NewOrderedField("age", func(p Person) int { return p.Age })
	personCreated  = filter.NewTimeField("created_at", func(p Person) time.Time { return p.CreatedAt })
)

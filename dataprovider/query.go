package dataprovider

import (
	"math"

	"github.com/cansoftinc/vaadin-on-kotlin/filter"
)

// Unbounded as a Page limit disables paging.
const Unbounded = math.MaxInt

type Direction string

const (
	ASC  Direction = "ASC"
	DESC Direction = "DESC"
)

type SortKey struct {
	Column    string
	Direction Direction
}

func Asc(column string) SortKey  { return SortKey{Column: column, Direction: ASC} }
func Desc(column string) SortKey { return SortKey{Column: column, Direction: DESC} }

// Page is an offset/limit window. A nil *Page or a Limit of Unbounded fetches
// every row.
type Page struct {
	Offset int
	Limit  int
}

// Query is one fetch request. The zero value selects every row in table order.
type Query[T any] struct {
	Filter filter.Filter[T]
	Sort   []SortKey
	Page   *Page
}

package demo

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cansoftinc/vaadin-on-kotlin/dataprovider"
	"github.com/cansoftinc/vaadin-on-kotlin/filter"
)

const defaultPageSize = 20

// parseQuery turns list parameters into a provider query:
//
//	name=al            name ILIKE 'al%'
//	nickname=-         nickname IS NULL
//	min_age, max_age   inclusive bounds
//	since=RFC3339      created_at >= since
//	sort=-age,name     '-' for descending
//	offset, limit      limit=0 means unbounded
func parseQuery(v url.Values, pageSize int) (dataprovider.Query[Person], error) {
	var q dataprovider.Query[Person]
	var parts []filter.Filter[Person]

	if name := strings.TrimSpace(v.Get("name")); name != "" {
		parts = append(parts, personName.ILike(escapeLike(name)+"%"))
	}
	switch nick := v.Get("nickname"); nick {
	case "":
	case "-":
		parts = append(parts, personNickname.IsNull())
	default:
		parts = append(parts, personNickname.Eq(nick))
	}
	minAge, hasMin, err := intParam(v, "min_age")
	if err != nil {
		return q, err
	}
	maxAge, hasMax, err := intParam(v, "max_age")
	if err != nil {
		return q, err
	}
	switch {
	case hasMin && hasMax:
		parts = append(parts, personAge.Between(minAge, maxAge))
	case hasMin:
		parts = append(parts, personAge.Ge(minAge))
	case hasMax:
		parts = append(parts, personAge.Le(maxAge))
	}
	if since := v.Get("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			return q, fmt.Errorf("since: %w", err)
		}
		parts = append(parts, personCreated.NotBefore(t))
	}
	q.Filter = filter.And(parts...)

	if s := v.Get("sort"); s != "" {
		for _, key := range strings.Split(s, ",") {
			key = strings.TrimSpace(key)
			if col, ok := strings.CutPrefix(key, "-"); ok {
				q.Sort = append(q.Sort, dataprovider.Desc(col))
			} else if key != "" {
				q.Sort = append(q.Sort, dataprovider.Asc(key))
			}
		}
	}

	offset, _, err := intParam(v, "offset")
	if err != nil {
		return q, err
	}
	limit, hasLimit, err := intParam(v, "limit")
	if err != nil {
		return q, err
	}
	if !hasLimit {
		limit = pageSize
	}
	if limit == 0 {
		limit = dataprovider.Unbounded
	}
	if offset < 0 || limit < 0 {
		return q, fmt.Errorf("offset and limit must not be negative")
	}
	q.Page = &dataprovider.Page{Offset: offset, Limit: limit}
	return q, nil
}

func intParam(v url.Values, key string) (int, bool, error) {
	s := v.Get(key)
	if s == "" {
		return 0, false, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", key, err)
	}
	return n, true, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }

package dataprovider

import (
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm/clause"

	"github.com/cansoftinc/vaadin-on-kotlin/filter"
)

const dialectMySQL = "mysql"

// CountSQL renders the count query for q. Sort keys and the page window are
// not part of a count.
func (p *Provider[T]) CountSQL(q Query[T]) (string, map[string]any, error) {
	where, params, err := p.where(q.Filter)
	if err != nil {
		return "", nil, err
	}
	var sb strings.Builder
	sb.WriteString("SELECT count(*) FROM ")
	sb.WriteString(p.table)
	writeWhere(&sb, where)
	return sb.String(), params, nil
}

// FetchSQL renders the page query for q with :name placeholders.
func (p *Provider[T]) FetchSQL(q Query[T]) (string, map[string]any, error) {
	where, params, err := p.where(q.Filter)
	if err != nil {
		return "", nil, err
	}
	var sb strings.Builder
	sb.WriteString("SELECT * FROM ")
	sb.WriteString(p.table)
	writeWhere(&sb, where)

	if len(q.Sort) > 0 {
		sb.WriteString(" ORDER BY ")
		for i, k := range q.Sort {
			if err := p.checkColumn(k.Column); err != nil {
				return "", nil, err
			}
			dir := k.Direction
			if dir == "" {
				dir = ASC
			}
			if dir != ASC && dir != DESC {
				return "", nil, fmt.Errorf("dataprovider: invalid sort direction %q for %s", k.Direction, k.Column)
			}
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(k.Column)
			sb.WriteByte(' ')
			sb.WriteString(string(dir))
		}
	}

	if pg := q.Page; pg != nil && pg.Limit != Unbounded {
		if pg.Offset < 0 || pg.Limit < 0 {
			return "", nil, fmt.Errorf("dataprovider: invalid page offset=%d limit=%d", pg.Offset, pg.Limit)
		}
		offset, limit := strconv.Itoa(pg.Offset), strconv.Itoa(pg.Limit)
		if p.dialect == dialectMySQL {
			sb.WriteString(" LIMIT " + limit + " OFFSET " + offset)
		} else {
			sb.WriteString(" OFFSET " + offset + " LIMIT " + limit)
		}
	}
	return sb.String(), params, nil
}

func (p *Provider[T]) where(f filter.Filter[T]) (string, map[string]any, error) {
	combined := filter.And(p.filter, f)
	if combined == nil {
		return "", map[string]any{}, nil
	}
	c, err := filter.NewTranslator(filter.WithColumnCheck(p.checkColumn)).Translate(combined)
	if err != nil {
		return "", nil, err
	}
	return c.SQL, c.Params, nil
}

func writeWhere(sb *strings.Builder, where string) {
	if where != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(where)
	}
}

func (p *Provider[T]) checkColumn(column string) error {
	name := column
	if table, col, ok := strings.Cut(column, "."); ok {
		if table != p.table {
			return UnknownColumnError{Table: p.table, Column: column}
		}
		name = col
	}
	if _, ok := p.columns[name]; !ok {
		return UnknownColumnError{Table: p.table, Column: column}
	}
	return nil
}

// literalQuestion is bound in place of a ? that belongs to the SQL text, such
// as the jsonb ? operator, so GORM writes it back verbatim.
var literalQuestion = clause.Expr{SQL: "?"}

// bindArgs rewrites :name placeholders into positional ? markers and returns
// the bound values in order. Quoted literals, quoted identifiers and :: casts
// are left alone; a name missing from params stays as written. Every ? already
// in the text is paired with literalQuestion.
func bindArgs(sql string, params map[string]any) (string, []any) {
	var sb strings.Builder
	sb.Grow(len(sql))
	var args []any
	var quote byte
	for i := 0; i < len(sql); i++ {
		c := sql[i]
		switch {
		case c == '?':
			sb.WriteByte('?')
			args = append(args, literalQuestion)
		case quote != 0:
			// '' inside a literal closes and reopens it, which leaves the state right
			if c == quote {
				quote = 0
			}
			sb.WriteByte(c)
		case c == '\'' || c == '"':
			quote = c
			sb.WriteByte(c)
		case c == ':' && i+1 < len(sql) && sql[i+1] == ':':
			sb.WriteString("::")
			i++
		case c == ':' && i+1 < len(sql) && isIdentStart(sql[i+1]):
			end := i + 2
			for end < len(sql) && isIdentPart(sql[end]) {
				end++
			}
			v, ok := params[sql[i+1:end]]
			if !ok {
				sb.WriteString(sql[i:end])
			} else {
				sb.WriteByte('?')
				args = append(args, v)
			}
			i = end - 1
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String(), args
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

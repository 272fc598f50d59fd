package dataprovider

import (
	"context"
	"fmt"
	"iter"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cansoftinc/vaadin-on-kotlin/components/logging"
	"github.com/cansoftinc/vaadin-on-kotlin/filter"
)

const tracerName = "github.com/cansoftinc/vaadin-on-kotlin/dataprovider"

// Provider pages through one table of entity T. It holds no mutable state;
// every Size or Fetch call is a single round trip on the caller's goroutine.
// Joins and nested entities are not supported.
type Provider[T any] struct {
	db      *gorm.DB
	table   string
	columns map[string]struct{}
	dialect string
	filter  filter.Filter[T]
	tracer  trace.Tracer
}

// New resolves T's table and columns from its GORM schema; TableName() and the
// connection's naming strategy are honored.
func New[T any](db *gorm.DB, opts ...Option) (*Provider[T], error) {
	if db == nil {
		return nil, fmt.Errorf("dataprovider: nil *gorm.DB")
	}
	s := &settings{}
	for _, o := range opts {
		if o.f != nil {
			o.f(s)
		}
	}
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(new(T)); err != nil {
		return nil, fmt.Errorf("dataprovider: parse schema of %T: %w", *new(T), err)
	}
	sch := stmt.Schema
	p := &Provider[T]{
		db:      db,
		table:   sch.Table,
		columns: make(map[string]struct{}, len(sch.DBNames)),
		dialect: s.dialect,
		tracer:  s.tracer,
	}
	for _, name := range sch.DBNames {
		p.columns[name] = struct{}{}
	}
	if s.table != "" {
		p.table = s.table
	}
	if p.dialect == "" && db.Dialector != nil {
		p.dialect = db.Dialector.Name()
	}
	if p.tracer == nil {
		p.tracer = otel.Tracer(tracerName)
	}
	return p, nil
}

func (p *Provider[T]) Table() string { return p.table }

// WithFilter returns a copy of p whose filter is AND-ed with every query's own
// filter. Passing nil clears it.
func (p *Provider[T]) WithFilter(f filter.Filter[T]) *Provider[T] {
	cp := *p
	cp.filter = f
	return &cp
}

func (p *Provider[T]) Filter() filter.Filter[T] { return p.filter }

// Size counts the rows matching q.Filter.
func (p *Provider[T]) Size(ctx context.Context, q Query[T]) (int64, error) {
	sql, params, err := p.CountSQL(q)
	if err != nil {
		return 0, err
	}
	ctx, span := p.startSpan(ctx, "dataprovider.Size", sql)
	defer span.End()

	var n int64
	if err := p.raw(ctx, sql, params).Scan(&n).Error; err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, fmt.Errorf("dataprovider: count %s: %w", p.table, err)
	}
	return n, nil
}

// Fetch streams the page selected by q. Rows are read lazily and released when
// the iteration ends or the consumer stops early. An error is yielded once and
// ends the sequence.
func (p *Provider[T]) Fetch(ctx context.Context, q Query[T]) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		sql, params, err := p.FetchSQL(q)
		if err != nil {
			yield(zero, err)
			return
		}
		ctx, span := p.startSpan(ctx, "dataprovider.Fetch", sql)
		defer span.End()

		db := p.raw(ctx, sql, params)
		rows, err := db.Rows()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			yield(zero, fmt.Errorf("dataprovider: fetch %s: %w", p.table, err))
			return
		}
		defer rows.Close()

		count := 0
		for rows.Next() {
			var item T
			if err := db.ScanRows(rows, &item); err != nil {
				yield(zero, fmt.Errorf("dataprovider: scan %s: %w", p.table, err))
				return
			}
			count++
			if !yield(item, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			span.RecordError(err)
			yield(zero, fmt.Errorf("dataprovider: fetch %s: %w", p.table, err))
			return
		}
		span.SetAttributes(attribute.Int("db.rows", count))
	}
}

// FetchAll collects Fetch into a slice.
func (p *Provider[T]) FetchAll(ctx context.Context, q Query[T]) ([]T, error) {
	var out []T
	for item, err := range p.Fetch(ctx, q) {
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// raw hands the statement to GORM wrapped in one clause.Expr, so Raw's own
// @name and ? heuristics never see the text.
func (p *Provider[T]) raw(ctx context.Context, sql string, params map[string]any) *gorm.DB {
	logging.Debug(ctx, "dataprovider query", zap.String("table", p.table), zap.String("sql", sql), zap.Int("params", len(params)))
	text, args := bindArgs(sql, params)
	return p.db.WithContext(ctx).Raw("?", clause.Expr{SQL: text, Vars: args})
}

func (p *Provider[T]) startSpan(ctx context.Context, name, sql string) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", p.dialect),
			attribute.String("db.sql.table", p.table),
			attribute.String("db.statement", sql),
		))
}

package dataprovider

import "go.opentelemetry.io/otel/trace"

type Option struct {
	f func(*settings)
}

type settings struct {
	table   string
	dialect string
	tracer  trace.Tracer
}

// WithTable overrides the table name resolved from the entity's GORM schema.
func WithTable(name string) Option {
	return Option{f: func(s *settings) { s.table = name }}
}

// WithDialect overrides the dialect reported by the GORM connection. It only
// affects how the page window is rendered ("mysql" puts LIMIT first).
func WithDialect(name string) Option {
	return Option{f: func(s *settings) { s.dialect = name }}
}

func WithTracer(tracer trace.Tracer) Option {
	return Option{f: func(s *settings) { s.tracer = tracer }}
}

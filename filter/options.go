package filter

type Option struct {
	f func(*Translator)
}

// WithParamPrefix sets the prefix of generated parameter names. The default is
// "p", producing p1, p2, ... Names taken by native filters are skipped.
func WithParamPrefix(prefix string) Option {
	return Option{
		f: func(t *Translator) {
			if prefix != "" {
				t.paramPrefix = prefix
			}
		},
	}
}

// WithPlaceholder sets the marker written before a parameter name. The default
// is ":" (":p1"). GORM named arguments use "@".
func WithPlaceholder(marker string) Option {
	return Option{
		f: func(t *Translator) {
			if marker != "" {
				t.placeholder = marker
			}
		},
	}
}

// WithColumnCheck installs an extra validation for every column a filter
// references, for example a lookup in the entity's table metadata.
func WithColumnCheck(check func(column string) error) Option {
	return Option{
		f: func(t *Translator) {
			t.columnCheck = check
		},
	}
}

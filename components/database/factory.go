package database

import (
	"fmt"

	"github.com/cansoftinc/vaadin-on-kotlin/core"
)

type Factory struct{}

func NewFactory() *Factory { return &Factory{} }

// Create expects *database.Config.
func (f *Factory) Create(cfg interface{}) (core.Component, error) {
	dbCfg, ok := cfg.(*Config)
	if !ok {
		return nil, fmt.Errorf("invalid config type for database component (need *database.Config)")
	}
	if dbCfg == nil || !dbCfg.Enabled {
		return nil, fmt.Errorf("database component disabled")
	}
	f.setDefaults(dbCfg)
	if err := f.validate(dbCfg); err != nil {
		return nil, err
	}
	return NewDatabaseComponent(dbCfg), nil
}

func (f *Factory) setDefaults(cfg *Config) {
	if cfg.Dialect == "" {
		cfg.Dialect = DialectPostgres
	}
}

func (f *Factory) validate(cfg *Config) error {
	switch cfg.Dialect {
	case DialectPostgres, DialectMySQL:
	default:
		return fmt.Errorf("unsupported database dialect %q (postgres|mysql)", cfg.Dialect)
	}
	if len(cfg.DataSources) == 0 {
		return fmt.Errorf("database component has no data_sources")
	}
	for name, ds := range cfg.DataSources {
		if ds == nil {
			return fmt.Errorf("datasource %s config is nil", name)
		}
		if ds.MigrateEnabled && ds.MigrateDir == "" {
			return fmt.Errorf("datasource %s migrate_enabled=true but migrate_dir empty", name)
		}
	}
	return nil
}

package database

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cansoftinc/vaadin-on-kotlin/components/logging"
	"github.com/cansoftinc/vaadin-on-kotlin/consts"
	"github.com/cansoftinc/vaadin-on-kotlin/core"
)

// DatabaseComponent manages named gorm connections of one dialect.
type DatabaseComponent struct {
	*core.BaseComponent
	cfg   *Config
	dbs   map[string]*gorm.DB
	mutex sync.RWMutex
	log   logger.Interface
}

func NewDatabaseComponent(cfg *Config) *DatabaseComponent {
	c := &DatabaseComponent{
		BaseComponent: core.NewBaseComponent(consts.COMPONENT_DATABASE, consts.COMPONENT_LOGGING),
		cfg:           cfg,
		dbs:           make(map[string]*gorm.DB),
	}
	c.log = newGormLogger(cfg)
	return c
}

func (c *DatabaseComponent) Start(ctx context.Context) error {
	if err := c.BaseComponent.Start(ctx); err != nil {
		return err
	}
	if c.cfg == nil || !c.cfg.Enabled {
		return fmt.Errorf("database component disabled or nil config")
	}
	if len(c.cfg.DataSources) == 0 {
		return fmt.Errorf("database no data_sources configured")
	}
	for name, ds := range c.cfg.DataSources {
		if ds == nil {
			return fmt.Errorf("datasource %s config is nil", name)
		}
		gormDB, err := c.open(ctx, name, ds)
		if err != nil {
			c.closeAll(ctx)
			return err
		}
		c.mutex.Lock()
		c.dbs[name] = gormDB
		c.mutex.Unlock()
		logging.Infof(ctx, "[database] datasource %s initialized dialect=%s", name, c.cfg.Dialect)
	}
	logging.Infof(ctx, "[database] started. data sources=%v", c.listNames())
	return nil
}

func (c *DatabaseComponent) open(ctx context.Context, name string, ds *DataSourceConfig) (*gorm.DB, error) {
	dsn, err := buildDSN(c.cfg.Dialect, ds)
	if err != nil {
		return nil, fmt.Errorf("build dsn for %s failed: %w", name, err)
	}
	gormDB, err := gorm.Open(dialector(c.cfg.Dialect, dsn), &gorm.Config{
		Logger:                                   c.log,
		SkipDefaultTransaction:                   ds.SkipDefaultTransaction,
		PrepareStmt:                              ds.PrepareStmt,
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open gorm db %s failed: %w", name, err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("get underlying sql.DB for %s failed: %w", name, err)
	}
	applyPool(sqlDB, ds)

	if ds.PingOnStart {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := sqlDB.PingContext(pingCtx)
		cancel()
		if err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("ping db %s failed: %w", name, err)
		}
	}

	if ds.MigrateEnabled {
		migStart := time.Now()
		logging.Infof(ctx, "[database] datasource %s running migrations dir=%s", name, ds.MigrateDir)
		if err := runMigrations(ctx, sqlDB, ds.MigrateDir); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("datasource %s migrations failed: %w", name, err)
		}
		logging.Infof(ctx, "[database] datasource %s migrations completed dur=%s", name, time.Since(migStart))
	}
	return gormDB, nil
}

func applyPool(sqlDB *sql.DB, ds *DataSourceConfig) {
	if ds.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(ds.MaxOpenConns)
	} else {
		sqlDB.SetMaxOpenConns(50)
	}
	if ds.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(ds.MaxIdleConns)
	} else {
		sqlDB.SetMaxIdleConns(10)
	}
	if ds.ConnMaxLife > 0 {
		sqlDB.SetConnMaxLifetime(ds.ConnMaxLife)
	} else {
		sqlDB.SetConnMaxLifetime(60 * time.Minute)
	}
	if ds.ConnMaxIdle > 0 {
		sqlDB.SetConnMaxIdleTime(ds.ConnMaxIdle)
	}
}

func (c *DatabaseComponent) Stop(ctx context.Context) error {
	defer func() { _ = c.BaseComponent.Stop(ctx) }()
	c.closeAll(ctx)
	return nil
}

func (c *DatabaseComponent) closeAll(ctx context.Context) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	for name, gdb := range c.dbs {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
		delete(c.dbs, name)
		logging.Infof(ctx, "[database] datasource %s closed", name)
	}
}

func (c *DatabaseComponent) HealthCheck() error {
	if err := c.BaseComponent.HealthCheck(); err != nil {
		return err
	}
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	for name, gdb := range c.dbs {
		sqlDB, err := gdb.DB()
		if err != nil {
			return fmt.Errorf("datasource %s get sql.DB failed: %w", name, err)
		}
		if err := sqlDB.Ping(); err != nil {
			return fmt.Errorf("datasource %s ping failed: %w", name, err)
		}
	}
	return nil
}

func (c *DatabaseComponent) Dialect() string { return c.cfg.Dialect }

func (c *DatabaseComponent) GetDB(name string) (*gorm.DB, error) {
	c.mutex.RLock()
	db, ok := c.dbs[name]
	c.mutex.RUnlock()
	if !ok {
		return nil, fmt.Errorf("database datasource %s not found", name)
	}
	return db, nil
}

// GetSQLDB raw *sql.DB accessor
func (c *DatabaseComponent) GetSQLDB(name string) (*sql.DB, error) {
	g, err := c.GetDB(name)
	if err != nil {
		return nil, err
	}
	sqlDB, e := g.DB()
	if e != nil {
		return nil, fmt.Errorf("get sql.DB for %s: %w", name, e)
	}
	return sqlDB, nil
}

// RunInTransaction runs fn in a transaction on datasource ds. The transaction
// commits when fn returns nil and rolls back on an error or panic; a panic is
// re-raised after the rollback.
func (c *DatabaseComponent) RunInTransaction(ctx context.Context, ds string, fn func(tx *gorm.DB) error) error {
	db, err := c.GetDB(ds)
	if err != nil {
		return err
	}
	return db.WithContext(ctx).Transaction(fn)
}

func (c *DatabaseComponent) listNames() []string {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	names := make([]string, 0, len(c.dbs))
	for k := range c.dbs {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

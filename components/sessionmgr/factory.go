package sessionmgr

import (
	"fmt"
	"time"

	"github.com/cansoftinc/vaadin-on-kotlin/core"
)

type Factory struct{}

func NewFactory() *Factory { return &Factory{} }

func (f *Factory) Create(cfg interface{}) (core.Component, error) {
	c, ok := cfg.(*Config)
	if !ok {
		return nil, fmt.Errorf("invalid config type for session component (need *sessionmgr.Config)")
	}
	if c == nil || !c.Enabled {
		return nil, fmt.Errorf("session component disabled")
	}
	setDefaults(c)
	if err := validate(c); err != nil {
		return nil, err
	}
	return NewComponent(c), nil
}

func setDefaults(c *Config) {
	if c.Store == "" {
		c.Store = StoreMemory
	}
	if c.CookieName == "" {
		c.CookieName = "VOKSESSIONID"
	}
	if c.TTL <= 0 {
		c.TTL = 30 * time.Minute
	}
	if c.PurgeInterval <= 0 {
		c.PurgeInterval = time.Minute
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = "vok:session:"
	}
	if c.SameSite == "" {
		c.SameSite = "lax"
	}
}

func validate(c *Config) error {
	switch c.Store {
	case StoreMemory, StoreRedis:
	default:
		return fmt.Errorf("session.store %q not supported (memory|redis)", c.Store)
	}
	if _, err := parseSameSite(c.SameSite); err != nil {
		return err
	}
	if c.SameSite == "none" && !c.Secure {
		return fmt.Errorf("session.same_site=none requires session.secure=true")
	}
	return nil
}

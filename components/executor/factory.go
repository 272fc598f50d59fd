package executor

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
		return nil, fmt.Errorf("invalid config type for executor component (need *executor.Config)")
	}
	if c == nil || !c.Enabled {
		return nil, fmt.Errorf("executor component disabled")
	}
	setDefaults(c)
	if c.PoolSize > 1024 {
		return nil, fmt.Errorf("executor pool_size %d is too large", c.PoolSize)
	}
	return New(c), nil
}

func setDefaults(c *Config) {
	if c.PoolSize <= 0 {
		c.PoolSize = 4
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 1024
	}
	if c.AwaitTimeout <= 0 {
		c.AwaitTimeout = time.Minute
	}
}

package prometheus

import (
	"fmt"

	"github.com/cansoftinc/vaadin-on-kotlin/core"
)

type Factory struct{}

func NewFactory() *Factory { return &Factory{} }

func (f *Factory) Create(cfg interface{}) (core.Component, error) {
	c, ok := cfg.(*Config)
	if !ok {
		return nil, fmt.Errorf("invalid config type for prometheus component (*Config required)")
	}
	if c == nil || !c.Enabled {
		return nil, fmt.Errorf("prometheus component disabled")
	}
	if c.Path == "" {
		c.Path = "/metrics"
	}
	if c.CollectGoMetrics == nil {
		c.CollectGoMetrics = boolPtr(true)
	}
	if c.CollectProcess == nil {
		c.CollectProcess = boolPtr(true)
	}
	return NewComponent(c), nil
}

func boolPtr(b bool) *bool { return &b }

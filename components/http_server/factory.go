package http_server

import (
	"fmt"
	"time"

	"github.com/cansoftinc/vaadin-on-kotlin/core"
)

type Factory struct {
	container *core.Container
}

func NewFactory(c *core.Container) *Factory { return &Factory{container: c} }

func (f *Factory) Create(cfg interface{}) (core.Component, error) {
	httpCfg, ok := cfg.(*HTTPServerConfig)
	if !ok {
		return nil, fmt.Errorf("invalid config type for http_server component (need *HTTPServerConfig)")
	}
	if httpCfg == nil || !httpCfg.Enabled {
		return nil, fmt.Errorf("http_server component disabled")
	}
	applyDefaults(httpCfg)
	return NewHTTPServerComponent(httpCfg, f.container), nil
}

func applyDefaults(cfg *HTTPServerConfig) {
	if cfg.Address == "" {
		cfg.Address = ":8080"
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 15 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 15 * time.Second
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 60 * time.Second
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 60 * time.Second
	}
	if cfg.GracefulTimeout == 0 {
		cfg.GracefulTimeout = 10 * time.Second
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "vok"
	}
}

package prometheus

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cansoftinc/vaadin-on-kotlin/components/logging"
	"github.com/cansoftinc/vaadin-on-kotlin/consts"
	"github.com/cansoftinc/vaadin-on-kotlin/core"
)

type Component struct {
	*core.BaseComponent
	cfg      *Config
	server   *http.Server
	registry *prometheus.Registry
}

// NewComponent creates the registry up front so dependents can register
// metrics while the lifecycle is still starting.
func NewComponent(cfg *Config) *Component {
	c := &Component{
		BaseComponent: core.NewBaseComponent(consts.COMPONENT_PROMETHEUS, consts.COMPONENT_LOGGING),
		cfg:           cfg,
		registry:      prometheus.NewRegistry(),
	}
	if cfg.CollectGoMetrics == nil || *cfg.CollectGoMetrics {
		_ = c.registry.Register(collectors.NewGoCollector())
	}
	if cfg.CollectProcess == nil || *cfg.CollectProcess {
		_ = c.registry.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	return c
}

func (c *Component) Start(ctx context.Context) error {
	if err := c.BaseComponent.Start(ctx); err != nil {
		return err
	}
	registerGlobal(c)
	if c.cfg.Address == "" {
		logging.Infof(ctx, "prometheus metrics served by http_server at %s", c.cfg.Path)
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(c.cfg.Path, c.Handler())
	c.server = &http.Server{
		Addr:              c.cfg.Address,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logging.Infof(context.Background(), "prometheus metrics listening on %s%s", c.cfg.Address, c.cfg.Path)
		if err := c.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Errorf(context.Background(), "prometheus server error: %v", err)
		}
	}()
	return nil
}

func (c *Component) Stop(ctx context.Context) error {
	defer c.BaseComponent.Stop(ctx)
	unregisterGlobal(c)
	if c.server == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("prometheus server shutdown: %w", err)
	}
	logging.Info(ctx, "prometheus component stopped")
	return nil
}

// Handler exposes the registry in the text exposition format.
func (c *Component) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Component) Path() string { return c.cfg.Path }

// Standalone reports whether metrics are served on their own address
// instead of being mounted on http_server.
func (c *Component) Standalone() bool { return c.cfg.Address != "" }

// Registry 便于测试直接 Gather
func (c *Component) Registry() *prometheus.Registry { return c.registry }

// Helpers to build fully qualified name.
func (c *Component) fqName(name string) string {
	return prometheus.BuildFQName(c.cfg.Namespace, c.cfg.Subsystem, name)
}

// NewCounter registers a counter vector, returning the existing one when the
// same name was registered before.
func (c *Component) NewCounter(name, help string, labels []string) *prometheus.CounterVec {
	cv := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: c.fqName(name),
		Help: help,
	}, labels)
	if err := c.registry.Register(cv); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing
			}
		}
		logging.Errorf(context.Background(), "prometheus register counter %s: %v", name, err)
	}
	return cv
}

func (c *Component) NewHistogram(name, help string, labels []string, buckets []float64) *prometheus.HistogramVec {
	hv := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    c.fqName(name),
		Help:    help,
		Buckets: buckets,
	}, labels)
	if err := c.registry.Register(hv); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing
			}
		}
		logging.Errorf(context.Background(), "prometheus register histogram %s: %v", name, err)
	}
	return hv
}

func (c *Component) NewGauge(name, help string, labels []string) *prometheus.GaugeVec {
	gv := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: c.fqName(name),
		Help: help,
	}, labels)
	if err := c.registry.Register(gv); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing
			}
		}
		logging.Errorf(context.Background(), "prometheus register gauge %s: %v", name, err)
	}
	return gv
}

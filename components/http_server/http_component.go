package http_server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/riandyrn/otelchi"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/cansoftinc/vaadin-on-kotlin/components/logging"
	"github.com/cansoftinc/vaadin-on-kotlin/components/prometheus"
	"github.com/cansoftinc/vaadin-on-kotlin/components/sessionmgr"
	"github.com/cansoftinc/vaadin-on-kotlin/consts"
	"github.com/cansoftinc/vaadin-on-kotlin/core"
)

type HTTPServerComponent struct {
	*core.BaseComponent
	cfg       *HTTPServerConfig
	container *core.Container

	Session    *sessionmgr.Component `infra:"dep:session?"`
	Prometheus *prometheus.Component `infra:"dep:prometheus?"`

	router   chi.Router
	server   *http.Server
	listener net.Listener
	extras   []RouteRegisterFunc
	started  bool
	duration *promclient.HistogramVec
}

func NewHTTPServerComponent(cfg *HTTPServerConfig, c *core.Container) *HTTPServerComponent {
	return &HTTPServerComponent{
		BaseComponent: core.NewBaseComponent(consts.COMPONENT_HTTP_SERVER, consts.COMPONENT_LOGGING),
		cfg:           cfg,
		container:     c,
	}
}

// AddRouteRegistrar adds a registrar for this server only. It must be called
// before Start, typically from a BeforeStart hook.
func (hc *HTTPServerComponent) AddRouteRegistrar(fn RouteRegisterFunc) error {
	if fn == nil {
		return nil
	}
	if hc.started {
		return fmt.Errorf("cannot register route: http_server already started (use BeforeStart hook)")
	}
	hc.extras = append(hc.extras, fn)
	return nil
}

func (hc *HTTPServerComponent) Router() chi.Router { return hc.router }

// Addr returns the bound address, useful when configured with port 0.
func (hc *HTTPServerComponent) Addr() string {
	if hc.listener == nil {
		return ""
	}
	return hc.listener.Addr().String()
}

func (hc *HTTPServerComponent) Start(ctx context.Context) error {
	if err := hc.BaseComponent.Start(ctx); err != nil {
		return err
	}
	if hc.cfg == nil || !hc.cfg.Enabled {
		return errors.New("http_server component enabled flag mismatch")
	}
	applyDefaults(hc.cfg)

	if err := hc.buildRouter(); err != nil {
		return err
	}

	ln, err := net.Listen("tcp", hc.cfg.Address)
	if err != nil {
		return fmt.Errorf("http_server listen %s: %w", hc.cfg.Address, err)
	}
	hc.listener = ln
	hc.server = &http.Server{
		ReadTimeout:  hc.cfg.ReadTimeout,
		WriteTimeout: hc.cfg.WriteTimeout,
		IdleTimeout:  hc.cfg.IdleTimeout,
		Handler:      hc.router,
	}

	go func() {
		logging.Infof(context.Background(), "http_server listening on %s", ln.Addr())
		if err := hc.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Errorf(context.Background(), "http_server server error: %v", err)
		}
	}()

	hc.started = true
	return nil
}

func (hc *HTTPServerComponent) buildRouter() error {
	hc.router = chi.NewRouter()
	hc.setupMiddlewares()

	if hc.cfg.EnableHealth {
		hc.router.Get("/healthz", hc.healthHandler)
	}
	if hc.cfg.EnablePprof {
		hc.router.Mount("/debug", middleware.Profiler())
	}
	if hc.Prometheus != nil && !hc.Prometheus.Standalone() {
		hc.router.Handle(hc.Prometheus.Path(), hc.Prometheus.Handler())
	}

	// session 只作用于业务路由
	var err error
	hc.router.Group(func(r chi.Router) {
		if hc.Session != nil {
			r.Use(hc.Session.Middleware)
		}
		err = hc.registerAllRoutes(r)
	})
	return err
}

func (hc *HTTPServerComponent) Stop(ctx context.Context) error {
	defer hc.BaseComponent.Stop(ctx)
	if !hc.started || hc.server == nil {
		return nil
	}
	hc.started = false
	stopCtx, cancel := context.WithTimeout(ctx, hc.cfg.GracefulTimeout)
	defer cancel()
	if err := hc.server.Shutdown(stopCtx); err != nil {
		return fmt.Errorf("http_server graceful shutdown failed: %w", err)
	}
	logging.Infof(ctx, "http_server server stopped")
	return nil
}

func (hc *HTTPServerComponent) HealthCheck() error {
	if err := hc.BaseComponent.HealthCheck(); err != nil {
		return err
	}
	if !hc.started {
		return fmt.Errorf("http_server server not started")
	}
	return nil
}

func (hc *HTTPServerComponent) healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (hc *HTTPServerComponent) setupMiddlewares() {
	hc.router.Use(middleware.RequestID)
	hc.router.Use(middleware.RealIP)
	hc.router.Use(middleware.Recoverer)
	hc.router.Use(middleware.Timeout(hc.cfg.RequestTimeout))
	hc.router.Use(otelchi.Middleware(hc.cfg.ServiceName, otelchi.WithChiRoutes(hc.router)))

	if hc.Prometheus != nil {
		hc.duration = hc.Prometheus.NewHistogram("http_request_duration_seconds",
			"HTTP request latency by route.", []string{"method", "route", "status"}, nil)
	}
	hc.router.Use(hc.accessLog)
}

// accessLog logs one line per request and returns the W3C traceparent when a
// span is active. Without a span the chi request id is used as trace id.
func (hc *HTTPServerComponent) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := r.Context()
		sc := trace.SpanContextFromContext(ctx)
		if sc.IsValid() {
			w.Header().Set("traceparent", fmt.Sprintf("00-%s-%s-01", sc.TraceID().String(), sc.SpanID().String()))
		} else if id := middleware.GetReqID(ctx); id != "" {
			ctx = logging.ContextWithTraceID(ctx, id)
		}
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r.WithContext(ctx))

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		if hc.duration != nil {
			hc.duration.WithLabelValues(r.Method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
		}
		logging.Info(ctx, "http_access",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote", r.RemoteAddr),
			zap.Int("status", status),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("dur", elapsed),
		)
	})
}

func (hc *HTTPServerComponent) registerAllRoutes(r chi.Router) error {
	all := append(snapshot(), hc.extras...)
	for _, fn := range all {
		if err := fn(r, hc.container); err != nil {
			return fmt.Errorf("route register failed: %w", err)
		}
	}
	return nil
}

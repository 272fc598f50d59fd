package http_server

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/cansoftinc/vaadin-on-kotlin/components/executor"
	"github.com/cansoftinc/vaadin-on-kotlin/components/prometheus"
	"github.com/cansoftinc/vaadin-on-kotlin/components/sessionmgr"
	"github.com/cansoftinc/vaadin-on-kotlin/core"
	"github.com/cansoftinc/vaadin-on-kotlin/session"
)

func startServer(t *testing.T, wire func(*HTTPServerComponent)) *HTTPServerComponent {
	t.Helper()
	comp, err := NewFactory(core.NewContainer()).Create(&HTTPServerConfig{Enabled: true, Address: "127.0.0.1:0", EnableHealth: true})
	if err != nil {
		t.Fatal(err)
	}
	hc := comp.(*HTTPServerComponent)
	_ = hc.AddRouteRegistrar(func(r chi.Router, _ *core.Container) error {
		r.Get("/hello/{name}", func(w http.ResponseWriter, r *http.Request) {
			msg := "hello " + chi.URLParam(r, "name")
			if _, ok := session.FromContext(r.Context()); ok {
				msg += " (session)"
			}
			_, _ = io.WriteString(w, msg)
		})
		return nil
	})
	if wire != nil {
		wire(hc)
	}
	if err := hc.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = hc.Stop(context.Background()) })
	return hc
}

func fetch(t *testing.T, hc *HTTPServerComponent, path string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get("http://" + hc.Addr() + path)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp, string(b)
}

func TestFactoryDefaults(t *testing.T) {
	cfg := &HTTPServerConfig{Enabled: true}
	if _, err := NewFactory(nil).Create(cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Address != ":8080" || cfg.GracefulTimeout == 0 || cfg.RequestTimeout == 0 {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if _, err := NewFactory(nil).Create(&HTTPServerConfig{}); err == nil {
		t.Error("disabled config should be rejected")
	}
}

func TestServer_RoutesAndHealth(t *testing.T) {
	hc := startServer(t, nil)
	if err := hc.HealthCheck(); err != nil {
		t.Fatal(err)
	}
	if _, body := fetch(t, hc, "/healthz"); body != "ok" {
		t.Errorf("/healthz = %q", body)
	}
	resp, body := fetch(t, hc, "/hello/ann")
	if resp.StatusCode != http.StatusOK || body != "hello ann" {
		t.Errorf("/hello/ann = %d %q", resp.StatusCode, body)
	}
	if err := hc.AddRouteRegistrar(func(chi.Router, *core.Container) error { return nil }); err == nil {
		t.Error("registering after Start should fail")
	}
}

func TestServer_SessionOnBusinessRoutes(t *testing.T) {
	e := executor.New(&executor.Config{Enabled: true, PoolSize: 1})
	if err := e.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = e.Stop(context.Background()) })
	sm, err := sessionmgr.NewFactory().Create(&sessionmgr.Config{Enabled: true})
	if err != nil {
		t.Fatal(err)
	}
	sess := sm.(*sessionmgr.Component)
	sess.Executor = e
	if err := sess.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = sess.Stop(context.Background()) })

	hc := startServer(t, func(hc *HTTPServerComponent) { hc.Session = sess })
	resp, body := fetch(t, hc, "/hello/bob")
	if body != "hello bob (session)" || len(resp.Cookies()) != 1 {
		t.Errorf("/hello/bob = %q cookies=%v", body, resp.Cookies())
	}
	if resp, _ := fetch(t, hc, "/healthz"); len(resp.Cookies()) != 0 {
		t.Error("/healthz should not create a session")
	}
}

func TestServer_MountsMetrics(t *testing.T) {
	pc, err := prometheus.NewFactory().Create(&prometheus.Config{Enabled: true})
	if err != nil {
		t.Fatal(err)
	}
	prom := pc.(*prometheus.Component)
	hc := startServer(t, func(hc *HTTPServerComponent) { hc.Prometheus = prom })

	fetch(t, hc, "/hello/x")
	_, body := fetch(t, hc, "/metrics")
	if !strings.Contains(body, `http_request_duration_seconds_count{method="GET",route="/hello/{name}",status="200"} 1`) {
		t.Errorf("metrics missing request histogram:\n%s", body)
	}
}

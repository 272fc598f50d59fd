package sessionmgr

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cansoftinc/vaadin-on-kotlin/components/executor"
	"github.com/cansoftinc/vaadin-on-kotlin/components/redis"
	"github.com/cansoftinc/vaadin-on-kotlin/internal/testenv"
	"github.com/cansoftinc/vaadin-on-kotlin/session"
)

var visits = session.Key[int]("visits")

func visitHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := session.FromContext(r.Context())
	if !ok {
		http.Error(w, "no session", http.StatusInternalServerError)
		return
	}
	fmt.Fprint(w, visits.Update(s, func(n int) int { return n + 1 }))
}

func startExecutor(t *testing.T) *executor.Executor {
	t.Helper()
	e := executor.New(&executor.Config{Enabled: true, PoolSize: 1})
	if err := e.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = e.Stop(context.Background()) })
	return e
}

func startComponent(t *testing.T, cfg *Config, wire func(*Component)) *Component {
	t.Helper()
	cfg.Enabled = true
	comp, err := NewFactory().Create(cfg)
	if err != nil {
		t.Fatal(err)
	}
	c := comp.(*Component)
	wire(c)
	if err := c.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = c.Stop(context.Background()) })
	return c
}

func get(t *testing.T, h http.Handler, cookies ...*http.Cookie) *http.Response {
	t.Helper()
	r := httptest.NewRequest(http.MethodGet, "/visits", nil)
	for _, c := range cookies {
		r.AddCookie(c)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w.Result()
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	var s string
	if _, err := fmt.Fscan(resp.Body, &s); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestFactory(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", Config{Enabled: true}, false},
		{"redis", Config{Enabled: true, Store: StoreRedis}, false},
		{"unknown store", Config{Enabled: true, Store: "file"}, true},
		{"bad same_site", Config{Enabled: true, SameSite: "sometimes"}, true},
		{"same_site none without secure", Config{Enabled: true, SameSite: "none"}, true},
		{"disabled", Config{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			_, err := NewFactory().Create(&cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Create() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && (cfg.CookieName != "VOKSESSIONID" || cfg.TTL != 30*time.Minute) {
				t.Errorf("defaults not applied: %+v", cfg)
			}
		})
	}
}

func TestMiddleware_MemoryStore(t *testing.T) {
	e := startExecutor(t)
	c := startComponent(t, &Config{}, func(c *Component) { c.Executor = e })
	h := c.Middleware(http.HandlerFunc(visitHandler))

	first := get(t, h)
	cookies := first.Cookies()
	if len(cookies) != 1 || cookies[0].Name != "VOKSESSIONID" || !cookies[0].HttpOnly {
		t.Fatalf("session cookie = %v", cookies)
	}
	if got := body(t, first); got != "1" {
		t.Errorf("first visit = %s", got)
	}

	second := get(t, h, cookies[0])
	if len(second.Cookies()) != 0 {
		t.Error("existing session should not be re-issued")
	}
	if got := body(t, second); got != "2" {
		t.Errorf("second visit = %s", got)
	}

	third := get(t, h, &http.Cookie{Name: "VOKSESSIONID", Value: "not-a-uuid"})
	if got := body(t, third); got != "1" {
		t.Errorf("forged id should start a new session, got %s", got)
	}
	if c.Created() != 2 {
		t.Errorf("Created() = %d, want 2", c.Created())
	}
}

func TestStart_RequiresDependencies(t *testing.T) {
	cfg := &Config{Enabled: true}
	setDefaults(cfg)
	if err := NewComponent(cfg).Start(context.Background()); err == nil {
		t.Error("memory store without executor should fail to start")
	}
	cfg = &Config{Enabled: true, Store: StoreRedis}
	setDefaults(cfg)
	if err := NewComponent(cfg).Start(context.Background()); err == nil {
		t.Error("redis store without redis should fail to start")
	}
}

func TestStop_CancelsPurge(t *testing.T) {
	e := startExecutor(t)
	c := startComponent(t, &Config{PurgeInterval: time.Hour}, func(c *Component) { c.Executor = e })
	purge := c.purge
	if err := c.Stop(context.Background()); err != nil {
		t.Fatal(err)
	}
	select {
	case <-purge.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("purge schedule not cancelled")
	}
}

func TestMiddleware_RedisStore(t *testing.T) {
	addr := testenv.Redis(t)
	rcomp, err := redis.NewFactory().Create(&redis.Config{Enabled: true, Addresses: []string{addr}})
	if err != nil {
		t.Fatal(err)
	}
	rc := rcomp.(*redis.RedisComponent)
	if err := rc.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = rc.Stop(context.Background()) })

	c := startComponent(t, &Config{Store: StoreRedis}, func(c *Component) { c.Redis = rc })
	h := c.Middleware(http.HandlerFunc(visitHandler))

	first := get(t, h)
	id := first.Cookies()[0]
	_ = body(t, first)
	if got := body(t, get(t, h, id)); got != "2" {
		t.Errorf("second visit = %s", got)
	}
	if n := rc.Client().Exists(context.Background(), "vok:session:"+id.Value).Val(); n != 1 {
		t.Errorf("redis key missing for session %s", id.Value)
	}
}

package sessionmgr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cansoftinc/vaadin-on-kotlin/components/executor"
	"github.com/cansoftinc/vaadin-on-kotlin/components/logging"
	"github.com/cansoftinc/vaadin-on-kotlin/components/redis"
	"github.com/cansoftinc/vaadin-on-kotlin/consts"
	"github.com/cansoftinc/vaadin-on-kotlin/cookie"
	"github.com/cansoftinc/vaadin-on-kotlin/core"
	"github.com/cansoftinc/vaadin-on-kotlin/session"
)

// Component binds a session.Store to HTTP requests. Executor and Redis are
// injected by autowire before Start.
type Component struct {
	*core.BaseComponent
	cfg *Config

	Executor *executor.Executor    `infra:"dep:executor"`
	Redis    *redis.RedisComponent `infra:"dep:redis?"`

	store    session.Store
	purge    *executor.ScheduledTask
	sameSite http.SameSite
	created  atomic.Int64
}

func NewComponent(cfg *Config) *Component {
	return &Component{
		BaseComponent: core.NewBaseComponent(consts.COMPONENT_SESSION, consts.COMPONENT_LOGGING),
		cfg:           cfg,
	}
}

func (c *Component) Start(ctx context.Context) error {
	if err := c.BaseComponent.Start(ctx); err != nil {
		return err
	}
	sameSite, err := parseSameSite(c.cfg.SameSite)
	if err != nil {
		return err
	}
	c.sameSite = sameSite

	switch c.cfg.Store {
	case StoreRedis:
		if c.Redis == nil || c.Redis.Client() == nil {
			return errors.New("session store redis requires a started redis component")
		}
		c.store = session.NewRedisStore(c.Redis.Client(), c.cfg.KeyPrefix, c.cfg.TTL)
	default:
		mem := session.NewMemoryStore(c.cfg.TTL)
		c.store = mem
		if c.Executor == nil {
			return errors.New("session memory store requires the executor component")
		}
		c.purge, err = c.Executor.ScheduleAtFixedRate("session-purge", c.cfg.PurgeInterval, c.cfg.PurgeInterval, c.purgeExpired(mem))
		if err != nil {
			return fmt.Errorf("schedule session purge: %w", err)
		}
	}
	logging.Info(ctx, "session component started",
		zap.String("store", c.cfg.Store),
		zap.String("cookie", c.cfg.CookieName),
		zap.Duration("ttl", c.cfg.TTL))
	return nil
}

func (c *Component) purgeExpired(p session.Purger) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		n, err := p.Purge(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			logging.Debug(ctx, "expired sessions purged", zap.Int("count", n))
		}
		return nil
	}
}

func (c *Component) Stop(ctx context.Context) error {
	defer func() { _ = c.BaseComponent.Stop(ctx) }()
	if c.purge != nil {
		c.purge.Cancel()
		c.purge = nil
	}
	return nil
}

func (c *Component) HealthCheck() error {
	if err := c.BaseComponent.HealthCheck(); err != nil {
		return err
	}
	if c.purge != nil {
		select {
		case <-c.purge.Done():
			return fmt.Errorf("session purge stopped: %v", c.purge.Err())
		default:
		}
	}
	return nil
}

// Store returns the backing store; nil before Start.
func (c *Component) Store() session.Store { return c.store }

// Created reports how many sessions this process has created.
func (c *Component) Created() int64 { return c.created.Load() }

// Middleware loads the session named by the request cookie, or creates one,
// and makes it available through session.FromContext. The session is saved
// after the handler returns.
func (c *Component) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		s := c.load(ctx, r)
		if s == nil {
			s = session.New(uuid.NewString())
			c.created.Add(1)
			if err := cookie.Set(w, c.cfg.CookieName, s.ID(),
				cookie.WithSecure(c.cfg.Secure),
				cookie.WithSameSite(c.sameSite),
			); err != nil {
				logging.Error(ctx, "set session cookie failed", zap.Error(err))
			}
		}

		next.ServeHTTP(w, r.WithContext(session.NewContext(ctx, s)))

		// the request context may already be cancelled by a timeout
		if err := c.store.Save(context.WithoutCancel(ctx), s); err != nil {
			logging.Error(ctx, "save session failed", zap.String("session_id", s.ID()), zap.Error(err))
		}
	})
}

func (c *Component) load(ctx context.Context, r *http.Request) *session.Session {
	id, ok := cookie.Value(r, c.cfg.CookieName)
	if !ok || uuid.Validate(id) != nil {
		return nil
	}
	s, err := c.store.Load(ctx, id)
	if err != nil {
		logging.Warn(ctx, "load session failed, starting a new one", zap.String("session_id", id), zap.Error(err))
		return nil
	}
	return s
}

func parseSameSite(v string) (http.SameSite, error) {
	switch strings.ToLower(v) {
	case "", "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	}
	return 0, fmt.Errorf("session.same_site %q not supported (lax|strict|none)", v)
}

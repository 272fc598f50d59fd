// Package vok boots a set of infrastructure components from one config file
// and runs them until the process is asked to stop.
package vok

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/cansoftinc/vaadin-on-kotlin/autowire"
	"github.com/cansoftinc/vaadin-on-kotlin/components/logging"
	"github.com/cansoftinc/vaadin-on-kotlin/config"
	"github.com/cansoftinc/vaadin-on-kotlin/core"
	"github.com/cansoftinc/vaadin-on-kotlin/hooks"
	"github.com/cansoftinc/vaadin-on-kotlin/registry"
)

type App struct {
	container        *core.Container
	lifecycleManager *core.LifecycleManager
	configManager    *config.ConfigManager

	bootOnce sync.Once
	bootErr  error

	shutdownTimeout time.Duration
}

// NewApp creates an application for env (development|test|production)
// reading its components from configPath.
func NewApp(env string, configPath string) *App {
	abs := configPath
	if p, err := filepath.Abs(configPath); err == nil {
		abs = p
	}
	container := core.NewContainer()
	// 使用全局钩子管理器, hooks/default.go 中的默认钩子才会生效
	lm := core.NewLifecycleManagerWithManager(container, hooks.GetGlobalHookManager())
	return &App{
		configManager:    config.NewConfigManager(env, abs),
		container:        container,
		lifecycleManager: lm,
		shutdownTimeout:  30 * time.Second,
	}
}

// SetBizConfig sets the struct the biz_config section is decoded into. Call before Run.
func (app *App) SetBizConfig(b any) { app.configManager.SetBizConfig(b) }

func (app *App) SetShutdownTimeout(d time.Duration) {
	if d > 0 {
		app.shutdownTimeout = d
	}
}

// Boot loads config, builds every enabled component and wires their
// dependencies. Run calls it; call it earlier to resolve components before
// the lifecycle starts.
func (app *App) Boot() error {
	app.bootOnce.Do(func() {
		if err := app.configManager.LoadConfig(); err != nil {
			app.bootErr = fmt.Errorf("load config failed: %w", err)
			return
		}
		if err := app.registerComponents(); err != nil {
			app.bootErr = fmt.Errorf("register components failed: %w", err)
		}
	})
	return app.bootErr
}

func (app *App) registerComponents() error {
	cfg := app.configManager.GetConfig()
	if cfg == nil {
		return fmt.Errorf("config not loaded")
	}
	if err := registry.BuildAndRegisterAll(cfg, app.container); err != nil {
		return err
	}
	return autowire.InjectAll(app.container)
}

func (app *App) GetComponent(name string) (core.Component, error) {
	return app.container.Resolve(name)
}

func (app *App) Container() *core.Container { return app.container }

func (app *App) GetConfig() *config.AppConfig {
	return app.configManager.GetConfig()
}

func (app *App) AddHook(name string, phase hooks.Phase, fn hooks.HookFunc, priority int) error {
	return app.lifecycleManager.AddHook(name, phase, fn, priority)
}

// Run starts the components and blocks until SIGINT or SIGTERM.
func (app *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return app.RunWithContext(ctx)
}

// RunWithContext starts components and blocks until ctx is done, then shuts
// down gracefully within the shutdown timeout.
func (app *App) RunWithContext(ctx context.Context) error {
	if err := app.Boot(); err != nil {
		return err
	}
	if err := app.lifecycleManager.StartAll(ctx); err != nil {
		return err
	}

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), app.shutdownTimeout)
	defer cancel()
	return app.Shutdown(stopCtx)
}

func (app *App) Shutdown(ctx context.Context) error {
	if err := app.lifecycleManager.StopAll(ctx); err != nil {
		logging.Errorf(ctx, "shutdown finished with errors: %v", err)
		return err
	}
	return nil
}

package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/cansoftinc/vaadin-on-kotlin/hooks"
)

// LifecycleManager starts components in dependency order and stops them in reverse.
type LifecycleManager struct {
	container   *Container
	hookManager *hooks.Manager
	mutex       sync.Mutex
	started     []Component
	stopped     bool
	timeout     time.Duration
}

// NewLifecycleManager 使用独立的钩子管理器
func NewLifecycleManager(container *Container) *LifecycleManager {
	return NewLifecycleManagerWithManager(container, hooks.NewManager())
}

// NewLifecycleManagerWithManager 使用外部钩子管理器 (通常是 hooks.GetGlobalHookManager())
func NewLifecycleManagerWithManager(container *Container, hm *hooks.Manager) *LifecycleManager {
	if hm == nil {
		hm = hooks.NewManager()
	}
	return &LifecycleManager{
		container:   container,
		hookManager: hm,
		timeout:     30 * time.Second,
	}
}

// SetTimeout 设置单个组件启动/停止超时时间
func (lm *LifecycleManager) SetTimeout(timeout time.Duration) {
	if timeout > 0 {
		lm.timeout = timeout
	}
}

func (lm *LifecycleManager) AddHook(name string, phase hooks.Phase, function hooks.HookFunc, priority int) error {
	return lm.hookManager.Register(&hooks.Hook{
		Name:     name,
		Phase:    phase,
		Function: function,
		Priority: priority,
	})
}

// StartAll 启动所有组件; 任一组件失败时按逆序停止已启动的组件
func (lm *LifecycleManager) StartAll(ctx context.Context) error {
	if err := lm.hookManager.Execute(ctx, hooks.BeforeStart); err != nil {
		return fmt.Errorf("before_start hooks failed: %w", err)
	}

	components, err := lm.container.ValidateDependencies()
	if err != nil {
		return fmt.Errorf("failed to sort components: %w", err)
	}

	for _, comp := range components {
		startCtx, cancel := context.WithTimeout(ctx, lm.timeout)
		err := comp.Start(startCtx)
		cancel()
		if err != nil {
			log.Printf("Failed to start component %s: %v", comp.Name(), err)
			lm.stopStarted(context.Background())
			return fmt.Errorf("failed to start component %s: %w", comp.Name(), err)
		}
		lm.mutex.Lock()
		lm.started = append(lm.started, comp)
		lm.mutex.Unlock()
		log.Printf("Component %s started", comp.Name())
	}

	if err := lm.hookManager.Execute(ctx, hooks.AfterStart); err != nil {
		log.Printf("after_start hooks failed: %v", err)
	}
	return nil
}

// StopAll 逆序停止所有已启动组件, 只执行一次; 返回各组件停止错误的合并结果
func (lm *LifecycleManager) StopAll(ctx context.Context) error {
	lm.mutex.Lock()
	if lm.stopped {
		lm.mutex.Unlock()
		return nil
	}
	lm.stopped = true
	lm.mutex.Unlock()

	if err := lm.hookManager.Execute(ctx, hooks.BeforeShutdown); err != nil {
		log.Printf("before_shutdown hooks failed: %v", err)
	}

	err := lm.stopStarted(ctx)

	if hookErr := lm.hookManager.Execute(ctx, hooks.AfterShutdown); hookErr != nil {
		log.Printf("after_shutdown hooks failed: %v", hookErr)
	}
	return err
}

func (lm *LifecycleManager) stopStarted(ctx context.Context) error {
	lm.mutex.Lock()
	started := lm.started
	lm.started = nil
	lm.mutex.Unlock()

	var errs []error
	for i := len(started) - 1; i >= 0; i-- {
		comp := started[i]
		if !comp.IsActive() {
			continue
		}
		stopCtx, cancel := context.WithTimeout(ctx, lm.timeout)
		if err := comp.Stop(stopCtx); err != nil {
			log.Printf("Error stopping component %s: %v", comp.Name(), err)
			errs = append(errs, fmt.Errorf("stop %s: %w", comp.Name(), err))
		} else {
			log.Printf("Component %s stopped", comp.Name())
		}
		cancel()
	}
	return errors.Join(errs...)
}

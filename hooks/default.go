package hooks

import (
	"context"
	"log"
)

// 全局钩子管理器, vok.App 默认使用它
var globalHookManager = NewManager()

func init() {
	defaults := []struct {
		name  string
		phase Phase
		msg   string
	}{
		{"log_startup", BeforeStart, "vok application is starting..."},
		{"log_started", AfterStart, "vok application started"},
		{"log_shutdown", BeforeShutdown, "vok application is shutting down..."},
		{"log_shutdown_complete", AfterShutdown, "vok application shutdown completed"},
	}
	for _, d := range defaults {
		msg := d.msg
		if err := RegisterHook(d.name, d.phase, func(ctx context.Context) error {
			log.Println(msg)
			return nil
		}, 100); err != nil {
			log.Printf("Failed to register default hook %s: %v", d.name, err)
		}
	}
}

// RegisterHook 向全局钩子管理器注册钩子
func RegisterHook(name string, phase Phase, function HookFunc, priority int) error {
	return globalHookManager.Register(&Hook{
		Name:     name,
		Phase:    phase,
		Function: function,
		Priority: priority,
	})
}

// ExecuteHooks 执行全局钩子管理器中指定阶段的钩子
func ExecuteHooks(ctx context.Context, phase Phase) error {
	return globalHookManager.Execute(ctx, phase)
}

func GetGlobalHookManager() *Manager {
	return globalHookManager
}

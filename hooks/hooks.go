package hooks

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
)

// HookFunc 钩子函数类型
type HookFunc func(ctx context.Context) error

// Phase 生命周期阶段
type Phase string

const (
	BeforeStart    Phase = "before_start"
	AfterStart     Phase = "after_start"
	BeforeShutdown Phase = "before_shutdown"
	AfterShutdown  Phase = "after_shutdown"
)

var validPhases = []Phase{BeforeStart, AfterStart, BeforeShutdown, AfterShutdown}

// Hook is a named callback bound to one lifecycle phase.
type Hook struct {
	Name     string
	Phase    Phase
	Function HookFunc
	Priority int // 数值越小越先执行
}

// Manager keeps hooks per phase ordered by priority. Hooks with equal
// priority run in registration order.
type Manager struct {
	hooks map[Phase][]*Hook
	mutex sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{hooks: make(map[Phase][]*Hook)}
}

func (m *Manager) Register(hook *Hook) error {
	if hook == nil {
		return fmt.Errorf("hook cannot be nil")
	}
	if hook.Function == nil {
		return fmt.Errorf("hook %q function cannot be nil", hook.Name)
	}
	if !slices.Contains(validPhases, hook.Phase) {
		return fmt.Errorf("invalid hook phase: %s", hook.Phase)
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, h := range m.hooks[hook.Phase] {
		if hook.Name != "" && h.Name == hook.Name {
			return fmt.Errorf("hook %s already registered for phase %s", hook.Name, hook.Phase)
		}
	}
	list := append(m.hooks[hook.Phase], hook)
	sort.SliceStable(list, func(i, j int) bool { return list[i].Priority < list[j].Priority })
	m.hooks[hook.Phase] = list
	return nil
}

// Unregister removes a named hook from a phase. It reports whether a hook was removed.
func (m *Manager) Unregister(phase Phase, name string) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	list := m.hooks[phase]
	for i, h := range list {
		if h.Name == name {
			m.hooks[phase] = append(list[:i:i], list[i+1:]...)
			return true
		}
	}
	return false
}

// Execute runs the hooks of a phase and stops at the first failure.
func (m *Manager) Execute(ctx context.Context, phase Phase) error {
	for _, hook := range m.snapshot(phase) {
		if err := hook.Function(ctx); err != nil {
			return fmt.Errorf("hook %s failed: %w", hook.Name, err)
		}
	}
	return nil
}

// Names lists hook names of a phase in execution order.
func (m *Manager) Names(phase Phase) []string {
	hooks := m.snapshot(phase)
	names := make([]string, 0, len(hooks))
	for _, h := range hooks {
		names = append(names, h.Name)
	}
	return names
}

func (m *Manager) snapshot(phase Phase) []*Hook {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return slices.Clone(m.hooks[phase])
}

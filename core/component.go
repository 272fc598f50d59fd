package core

import (
	"context"
	"fmt"
	"slices"
	"sync/atomic"
)

// Component 定义组件的基本接口, 由 LifecycleManager 按依赖顺序启动/停止
type Component interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	HealthCheck() error
	Dependencies() []string
	IsActive() bool
}

// BaseComponent 提供组件的基础实现, 具体组件通过嵌入 *BaseComponent 复用
type BaseComponent struct {
	name   string
	active atomic.Bool
	deps   []string
}

func NewBaseComponent(name string, deps ...string) *BaseComponent {
	return &BaseComponent{name: name, deps: deps}
}

func (c *BaseComponent) Name() string { return c.name }

func (c *BaseComponent) Dependencies() []string { return c.deps }

func (c *BaseComponent) IsActive() bool { return c.active.Load() }

func (c *BaseComponent) SetActive(active bool) { c.active.Store(active) }

func (c *BaseComponent) Start(ctx context.Context) error {
	c.active.Store(true)
	return nil
}

func (c *BaseComponent) Stop(ctx context.Context) error {
	c.active.Store(false)
	return nil
}

func (c *BaseComponent) HealthCheck() error {
	if !c.IsActive() {
		return fmt.Errorf("component %s is not active", c.name)
	}
	return nil
}

// AddDependencies 在 StartAll 之前追加运行期依赖; 已存在的依赖会被忽略
func (c *BaseComponent) AddDependencies(deps ...string) {
	for _, d := range deps {
		if d == "" || d == c.name || slices.Contains(c.deps, d) {
			continue
		}
		c.deps = append(c.deps, d)
	}
}

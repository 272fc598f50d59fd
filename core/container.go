package core

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Container 组件容器: 按名称注册/查找组件, 并提供依赖拓扑排序
type Container struct {
	components map[string]Component
	configs    map[string]interface{}
	mutex      sync.RWMutex
}

func NewContainer() *Container {
	return &Container{
		components: make(map[string]Component),
		configs:    make(map[string]interface{}),
	}
}

func (c *Container) Register(name string, component Component) error {
	if component == nil {
		return fmt.Errorf("component %s is nil", name)
	}
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if _, exists := c.components[name]; exists {
		return fmt.Errorf("component %s already registered", name)
	}
	c.components[name] = component
	return nil
}

func (c *Container) Resolve(name string) (Component, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	component, exists := c.components[name]
	if !exists {
		return nil, fmt.Errorf("component %s not found", name)
	}
	return component, nil
}

// ResolveAs resolves a component and asserts it to T.
func ResolveAs[T any](c *Container, name string) (T, error) {
	var zero T
	comp, err := c.Resolve(name)
	if err != nil {
		return zero, err
	}
	typed, ok := comp.(T)
	if !ok {
		return zero, fmt.Errorf("component %s has type %T, want %T", name, comp, zero)
	}
	return typed, nil
}

func (c *Container) Has(name string) bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	_, ok := c.components[name]
	return ok
}

func (c *Container) ListRegistered() map[string]Component {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	result := make(map[string]Component, len(c.components))
	for name, comp := range c.components {
		result[name] = comp
	}
	return result
}

func (c *Container) SetConfig(name string, config interface{}) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.configs[name] = config
}

func (c *Container) GetConfig(name string) (interface{}, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	config, exists := c.configs[name]
	return config, exists
}

// SortComponentsByDependencies 深度优先拓扑排序; 依赖总是排在依赖方之前.
// 同层按名称排序, 结果稳定.
func (c *Container) SortComponentsByDependencies() ([]Component, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	visited := make(map[string]bool)
	visiting := make(map[string]bool)
	result := make([]Component, 0, len(c.components))

	var visit func(name string, path []string) error
	visit = func(name string, path []string) error {
		if visiting[name] {
			return fmt.Errorf("circular dependency detected: %s", strings.Join(append(path, name), " -> "))
		}
		if visited[name] {
			return nil
		}
		component, exists := c.components[name]
		if !exists {
			if len(path) > 0 {
				return fmt.Errorf("component %s (required by %s) not found", name, path[len(path)-1])
			}
			return fmt.Errorf("component %s not found", name)
		}

		visiting[name] = true
		for _, dep := range component.Dependencies() {
			if err := visit(dep, append(path, name)); err != nil {
				return err
			}
		}
		visiting[name] = false
		visited[name] = true
		result = append(result, component)
		return nil
	}

	names := make([]string, 0, len(c.components))
	for name := range c.components {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := visit(name, nil); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// Replace 替换已注册但未激活的组件（主要用于测试）
func (c *Container) Replace(name string, component Component) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	existing, exists := c.components[name]
	if !exists {
		return fmt.Errorf("component %s not registered", name)
	}
	if existing.IsActive() {
		return fmt.Errorf("component %s is active; cannot replace", name)
	}
	c.components[name] = component
	return nil
}

// ValidateDependencies 检查所有声明的依赖都已注册, 返回拓扑排序结果（不启动）
func (c *Container) ValidateDependencies() ([]Component, error) {
	c.mutex.RLock()
	missing := make(map[string][]string)
	for name, comp := range c.components {
		for _, dep := range comp.Dependencies() {
			if _, ok := c.components[dep]; !ok {
				missing[name] = append(missing[name], dep)
			}
		}
	}
	c.mutex.RUnlock()
	if len(missing) > 0 {
		parts := make([]string, 0, len(missing))
		for k, v := range missing {
			parts = append(parts, fmt.Sprintf("%s -> [%s]", k, strings.Join(v, ",")))
		}
		sort.Strings(parts)
		return nil, fmt.Errorf("missing component dependencies: %s", strings.Join(parts, "; "))
	}
	return c.SortComponentsByDependencies()
}

package registry

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/cansoftinc/vaadin-on-kotlin/config"
	"github.com/cansoftinc/vaadin-on-kotlin/core"
)

// BuilderFunc returns (enabled, component, error). enabled=false skips registration.
type BuilderFunc func(cfg *config.AppConfig, c *core.Container) (bool, core.Component, error)

// Builder holds metadata.
type Builder struct {
	Name       string         // final component name (inferred for auto builders)
	Fn         BuilderFunc    // build function
	Auto       bool           // auto builders: infer name + build-time deps from tags
	Deps       []string       // build-time deps, explicit or inferred
	explicit   bool           // Deps given by RegisterWithDeps
	prebuilt   core.Component // cached component instance for name inference
	preEnabled bool
}

var (
	mu       sync.Mutex
	builders []*Builder
)

func findBuilder(name string) *Builder {
	for _, b := range builders {
		if b.Name == name {
			return b
		}
	}
	return nil
}

// Register registers a component builder with explicit name.
func Register(name string, fn BuilderFunc) {
	RegisterWithDeps(name, nil, fn)
}

// RegisterWithDeps registers a builder that must run after the builders named
// in deps. It only affects build order; runtime order comes from
// Component.Dependencies.
func RegisterWithDeps(name string, deps []string, fn BuilderFunc) {
	if name == "" {
		panic("registry: empty name in Register")
	}
	mu.Lock()
	defer mu.Unlock()
	if findBuilder(name) != nil {
		panic("registry: duplicate builder name " + name)
	}
	builders = append(builders, &Builder{Name: name, Fn: fn, Deps: deps, explicit: len(deps) > 0})
}

// RegisterAuto registers a builder whose component name and build-time dependencies are inferred.
// The builder function MUST construct a component whose Name() returns a stable non-empty value.
func RegisterAuto(fn BuilderFunc) {
	mu.Lock()
	defer mu.Unlock()
	builders = append(builders, &Builder{Auto: true, Fn: fn})
}

// BuildAndRegisterAll builds all registered builders:
//  1. auto builders are pre-built to infer name and cache the instance
//  2. build-time deps of auto builders come from `infra:"dep:<name>"` tags
//  3. builders are sorted topologically by deps
//  4. components are built (auto instances reused) and registered
//
// Runtime dependency extensions are applied last.
func BuildAndRegisterAll(cfg *config.AppConfig, c *core.Container) error {
	if cfg == nil {
		return fmt.Errorf("registry: nil config")
	}
	mu.Lock()
	defer mu.Unlock()

	// auto 状态每次重新推断, 同一进程可用不同配置多次构建 (测试)
	for _, b := range builders {
		if b.Auto {
			b.Name, b.Deps, b.prebuilt, b.preEnabled = "", nil, nil, false
		}
	}
	// Step 1: name inference for auto builders
	for _, b := range builders {
		if !b.Auto {
			continue
		}
		enabled, comp, err := b.Fn(cfg, c)
		if err != nil {
			return fmt.Errorf("auto builder failed: %w", err)
		}
		if !enabled || comp == nil {
			continue
		}
		b.preEnabled, b.prebuilt = true, comp
		name := comp.Name()
		if name == "" {
			return fmt.Errorf("auto builder produced unnamed component")
		}
		if existing := findBuilder(name); existing != nil && existing != b {
			return fmt.Errorf("duplicate inferred name: %s", name)
		}
		b.Name = name
	}
	// Step 2: infer deps for auto builders
	for _, b := range builders {
		if !b.Auto || b.prebuilt == nil {
			continue
		}
		for _, d := range inferTagDependencies(b.prebuilt) {
			if findBuilder(d) != nil {
				b.Deps = append(b.Deps, d)
			}
		}
	}
	// Step 3: topological sort
	ordered, err := topoSortBuilders(builders)
	if err != nil {
		return err
	}
	// Step 4: build & register
	for _, b := range ordered {
		var enabled bool
		var comp core.Component
		if b.Auto {
			enabled, comp = b.preEnabled, b.prebuilt
		} else {
			enabled, comp, err = b.Fn(cfg, c)
			if err != nil {
				return fmt.Errorf("build %s failed: %w", b.Name, err)
			}
		}
		if !enabled || comp == nil {
			continue
		}
		if err := c.Register(b.Name, comp); err != nil {
			return fmt.Errorf("register %s failed: %w", b.Name, err)
		}
	}
	applyRuntimeDepExtensions(c)
	return nil
}

// inferTagDependencies extracts component names from `infra:"dep:<name>"` tags.
// The optional marker '?' is dropped.
func inferTagDependencies(comp core.Component) []string {
	v := reflect.ValueOf(comp)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}
	t := v.Type()
	seen := map[string]struct{}{}
	var out []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" {
			continue
		}
		tag := f.Tag.Get("infra")
		if !strings.HasPrefix(tag, "dep:") {
			continue
		}
		name := strings.TrimSuffix(strings.TrimSpace(strings.TrimPrefix(tag, "dep:")), "?")
		if name == "" {
			continue
		}
		if _, exists := seen[name]; exists {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// topoSortBuilders orders named builders by Deps (Kahn, ties by name).
func topoSortBuilders(list []*Builder) ([]*Builder, error) {
	nameMap := map[string]*Builder{}
	inDeg := map[string]int{}
	adj := map[string][]string{}
	for _, b := range list {
		if b.Name != "" {
			nameMap[b.Name] = b
			inDeg[b.Name] = 0
		}
	}
	for _, b := range list {
		if b.Name == "" {
			continue
		}
		for _, d := range b.Deps {
			if _, ok := nameMap[d]; !ok {
				continue
			}
			adj[d] = append(adj[d], b.Name)
			inDeg[b.Name]++
		}
	}
	var zero []string
	for n, d := range inDeg {
		if d == 0 {
			zero = append(zero, n)
		}
	}
	sort.Strings(zero)
	var ordered []*Builder
	for len(zero) > 0 {
		n := zero[0]
		zero = zero[1:]
		ordered = append(ordered, nameMap[n])
		for _, nxt := range adj[n] {
			inDeg[nxt]--
			if inDeg[nxt] == 0 {
				zero = append(zero, nxt)
			}
		}
		sort.Strings(zero)
	}
	if len(ordered) != len(nameMap) {
		var cyc []string
		for n, d := range inDeg {
			if d > 0 {
				cyc = append(cyc, n)
			}
		}
		sort.Strings(cyc)
		return nil, fmt.Errorf("registry: cyclic builder deps: %v", cyc)
	}
	return ordered, nil
}

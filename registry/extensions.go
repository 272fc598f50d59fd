package registry

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/cansoftinc/vaadin-on-kotlin/components/logging"
	"github.com/cansoftinc/vaadin-on-kotlin/core"
)

// runtimeDepExt: target component name -> extra runtime dependencies,
// applied after components are registered and before StartAll sorts them.
var (
	runtimeDepExt   = map[string][]string{}
	runtimeDepExtMu sync.Mutex
)

// ExtendRuntimeDependencies declares that component target also depends on
// deps at runtime (start/stop order only). It must be called before
// BuildAndRegisterAll finishes; builders may call it themselves.
func ExtendRuntimeDependencies(target string, deps ...string) {
	if target == "" || len(deps) == 0 {
		return
	}
	runtimeDepExtMu.Lock()
	defer runtimeDepExtMu.Unlock()
	runtimeDepExt[target] = append(runtimeDepExt[target], deps...)
}

func applyRuntimeDepExtensions(c *core.Container) {
	runtimeDepExtMu.Lock()
	defer runtimeDepExtMu.Unlock()
	ctx := context.Background()
	for target, extra := range runtimeDepExt {
		comp, err := c.Resolve(target)
		if err != nil {
			logging.Warn(ctx, "runtime dependency extension target not registered", zap.String("target", target))
			continue
		}
		extender, ok := comp.(interface{ AddDependencies(...string) })
		if !ok {
			logging.Warn(ctx, "component does not support AddDependencies, extension skipped", zap.String("target", target))
			continue
		}
		extender.AddDependencies(extra...)
		logging.Debug(ctx, "applied runtime dependency extension", zap.String("target", target), zap.Strings("deps", extra))
	}
	// 清空, 避免重复构建时再次应用
	runtimeDepExt = map[string][]string{}
}

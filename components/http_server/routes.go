package http_server

import (
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/cansoftinc/vaadin-on-kotlin/core"
)

// RouteRegisterFunc registers routes onto router; container provided for resolving components.
type RouteRegisterFunc func(r chi.Router, c *core.Container) error

var (
	registryMu sync.RWMutex
	registrars []RouteRegisterFunc
)

// RegisterRoutes adds a registrar applied by every http_server at Start.
// Call it from init() or before App.Run.
func RegisterRoutes(fn RouteRegisterFunc) {
	if fn == nil {
		return
	}
	registryMu.Lock()
	registrars = append(registrars, fn)
	registryMu.Unlock()
}

func snapshot() []RouteRegisterFunc {
	registryMu.RLock()
	defer registryMu.RUnlock()
	cp := make([]RouteRegisterFunc, len(registrars))
	copy(cp, registrars)
	return cp
}

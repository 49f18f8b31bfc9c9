// internal/component/registry.go
//
// Component registry (cycle-free).
//
// Each concrete component lives under components/<name> and calls
// component.Register() in an init() function.  At start-up cmd/web calls
// Mount, which hands every component the shared Services, lets it pick the
// collaborators it needs in Init, and then has it add its routes to the
// root router.

package component

import (
	"fmt"
	"sort"
	"sync"

	"github.com/go-chi/chi/v5"
)

// Component contract.
//
// Routes adds page and API endpoints to the shared router, e.g.:
//
//	r.Get("/{locale}/demo/{slug}", c.public)
//	r.With(acl.RequirePermission(c.acl, acl.DemoSitesView)).
//		Get("/admin/api/demo-sites", c.list)
type Component interface {
	Name() string
	Init(Services) error
	Routes(r chi.Router)
}

var (
	mu       sync.RWMutex
	registry = map[string]Component{}
)

// Register is invoked from component init() functions.  Registering the
// same name twice replaces the earlier component.
func Register(c Component) {
	mu.Lock()
	registry[c.Name()] = c
	mu.Unlock()
}

// All returns every registered component sorted by name.
func All() []Component {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Component, 0, len(registry))
	for _, c := range registry {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Mount initialises every registered component with svc and adds its
// routes to r.
func Mount(r chi.Router, svc Services) error {
	for _, c := range All() {
		if err := c.Init(svc); err != nil {
			return fmt.Errorf("component %s: %w", c.Name(), err)
		}
		c.Routes(r)
	}
	return nil
}

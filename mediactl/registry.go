package mediactl

import (
	"fmt"
	"sort"
	"sync"
)

// Factory builds a backend from its free-form options.
type Factory func(opts map[string]string) (Backend, error)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]Factory)
)

// Register makes a backend available by name. Backends call it from init, the same way
// database/sql drivers do. Registering the same name twice panics.
func Register(name string, factory Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	if factory == nil {
		panic("mediactl: Register factory is nil")
	}
	if _, dup := factories[name]; dup {
		panic("mediactl: Register called twice for backend " + name)
	}
	factories[name] = factory
}

// Open builds the named backend.
func Open(name string, opts map[string]string) (Backend, error) {
	factoriesMu.RLock()
	factory, ok := factories[name]
	factoriesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q (available: %v)", ErrUnknownBackend, name, Backends())
	}
	return factory(opts)
}

// Backends lists registered backend names in sorted order.
func Backends() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

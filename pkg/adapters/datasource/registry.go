package datasource

import (
	"context"
	"fmt"
	"sync"

	"github.com/panelize-ai/panelize-engine/pkg/apperrors"
)

// Factory builds a ready-to-use executor for one backend.
type Factory func(ctx context.Context, deps Deps) (QueryExecutor, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register is called by each backend's init function.
// Thread-safe for concurrent init() calls.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// Registered returns the names of all registered backends.
func Registered() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}

// New builds an executor for the named backend. An empty name falls back to
// the configured default datasource.
func New(ctx context.Context, name string, deps Deps) (QueryExecutor, error) {
	if name == "" && deps.Config != nil {
		name = deps.Config.DefaultDatasource
	}

	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrUnknownDatasource, name)
	}
	return factory(ctx, deps)
}

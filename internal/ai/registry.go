package ai

import (
	"fmt"
	"strings"
	"sync"
)

type TextFactory func(model string) (TextProvider, error)

// Registry routes text-provider names to factories so binaries can select a
// backend from configuration.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]TextFactory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]TextFactory)}
}

func (r *Registry) Register(name string, f TextFactory) {
	name = strings.ToLower(strings.TrimSpace(name))
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

func (r *Registry) Get(name, model string) (TextProvider, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown ai provider: %s", name)
	}
	return f(model)
}

package node

import (
	"sort"
	"sync"
)

// Registry maps node type names to their implementations. Node packages
// register themselves during init() and the host looks types up by the
// name in their description.
type Registry struct {
	mu    sync.RWMutex
	types map[string]Type
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{types: map[string]Type{}}
}

// Register adds a node type, replacing any earlier type with the same name.
func (r *Registry) Register(t Type) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.types == nil {
		r.types = map[string]Type{}
	}
	r.types[t.Description().Name] = t
}

// Lookup returns the node type registered under name.
func (r *Registry) Lookup(name string) (Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[name]
	return t, ok
}

// Types returns all registered node types sorted by name.
func (r *Registry) Types() []Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]Type, 0, len(r.types))
	for _, t := range r.types {
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Description().Name < result[j].Description().Name
	})
	return result
}

var defaultRegistry = NewRegistry()

// Register adds a node type to the default registry.
// This is typically called from node package init() functions.
func Register(t Type) {
	defaultRegistry.Register(t)
}

// Lookup finds a node type in the default registry.
func Lookup(name string) (Type, bool) {
	return defaultRegistry.Lookup(name)
}

// DefaultRegistry returns the default global registry.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

package entity

import (
	"fmt"
	"sync"
)

// Registry holds every Descriptor registered at startup.
//
// Registration happens in dependency order before the engine starts
// serving; Seal marks the end of that window. Lookups after sealing are
// lock-free reads in practice, but the registry stays safe for concurrent
// callers throughout.
type Registry struct {
	mu     sync.RWMutex
	sealed bool
	byName map[string]*Descriptor
	order  []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Descriptor)}
}

// Register validates and adds a descriptor.
// Fails on invalid descriptors, duplicate names, or a sealed registry.
func (r *Registry) Register(d *Descriptor) error {
	if err := d.Validate(); err != nil {
		return fmt.Errorf("register: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return fmt.Errorf("register %q: registry is sealed", d.Name)
	}
	if _, exists := r.byName[d.Name]; exists {
		return fmt.Errorf("register %q: already registered", d.Name)
	}
	r.byName[d.Name] = d
	r.order = append(r.order, d.Name)
	return nil
}

// Seal closes the registration window. Idempotent.
func (r *Registry) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sealed = true
}

// Lookup returns the descriptor registered under name.
func (r *Registry) Lookup(name string) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byName[name]
	return d, ok
}

// All returns every registered descriptor in registration order.
func (r *Registry) All() []*Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

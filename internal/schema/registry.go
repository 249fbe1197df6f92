package schema

import (
	"fmt"
	"sort"
	"sync"
)

// Registry owns the named templates for one process. It is constructed at
// startup and passed by handle to the components that need it, so tests get
// isolation with fresh instances instead of ambient globals.
//
// Exactly one template is the default at any time. Deleting the default
// re-points the default to an arbitrary surviving template, or clears it when
// the registry is empty.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]*Template
	defName   string
}

// NewRegistry returns a registry seeded with the built-in bank-transaction
// template as the default.
func NewRegistry() *Registry {
	r := &Registry{templates: make(map[string]*Template)}
	r.Put(BuiltinTemplateName, BuiltinTemplate(), true)
	return r
}

// Get returns a copy of the named template. An empty name returns the
// default template.
func (r *Registry) Get(name string) (*Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if name == "" {
		name = r.defName
	}
	t, ok := r.templates[name]
	if !ok {
		return nil, fmt.Errorf("template %q: %w", name, ErrNotFound)
	}
	return t.Clone(), nil
}

// Put stores or replaces the named template. When isDefault is set, the
// default pointer moves to this entry. The first template stored becomes the
// default regardless.
func (r *Registry) Put(name string, t *Template, isDefault bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := t.Clone()
	cp.Name = name
	r.templates[name] = cp
	if isDefault || r.defName == "" {
		r.defName = name
	}
}

// Delete removes the named template. Unknown names return ErrNotFound.
func (r *Registry) Delete(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.templates[name]; !ok {
		return fmt.Errorf("template %q: %w", name, ErrNotFound)
	}
	delete(r.templates, name)
	if r.defName == name {
		r.defName = ""
		for n := range r.templates {
			r.defName = n
			break
		}
	}
	return nil
}

// Names lists the registered template names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.templates))
	for n := range r.templates {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// DefaultName returns the name of the current default template.
func (r *Registry) DefaultName() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defName
}

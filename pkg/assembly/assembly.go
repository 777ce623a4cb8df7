// Package assembly resolves the external assemblies that link items bind to.
package assembly

import (
	"sort"
	"strings"
	"sync"

	"github.com/agentstation/ribbonsync/pkg/errors"
)

// Loaded describes an assembly the host has already loaded.
type Loaded struct {
	Name     string `yaml:"name" mapstructure:"name"`
	FullName string `yaml:"full_name" mapstructure:"full_name"`
	Location string `yaml:"location" mapstructure:"location"`
}

// Resolver finds a loaded assembly by partial name.
type Resolver interface {
	Find(partial string) (Loaded, error)
}

// Registry is a Resolver over a known set of assemblies. It is safe for
// concurrent use.
type Registry struct {
	mu     sync.RWMutex
	loaded []Loaded
}

// NewRegistry creates a Registry holding the given assemblies.
func NewRegistry(loaded ...Loaded) *Registry {
	r := &Registry{}
	for _, l := range loaded {
		r.Add(l)
	}
	return r
}

// Add registers an assembly. FullName defaults to Name.
func (r *Registry) Add(l Loaded) {
	if l.FullName == "" {
		l.FullName = l.Name
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaded = append(r.loaded, l)
	sort.SliceStable(r.loaded, func(i, j int) bool { return r.loaded[i].FullName < r.loaded[j].FullName })
}

// Find returns the first assembly, in FullName order, whose full name
// contains partial.
func (r *Registry) Find(partial string) (Loaded, error) {
	if partial == "" {
		return Loaded{}, errors.NewUnknownAssemblyError(partial, "")
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, l := range r.loaded {
		if strings.Contains(l.FullName, partial) {
			return l, nil
		}
	}
	return Loaded{}, errors.NewUnknownAssemblyError(partial, "")
}

// Len returns the number of registered assemblies.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.loaded)
}

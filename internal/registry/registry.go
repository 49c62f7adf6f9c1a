// Package registry holds the immutable, queryable set of loaded mock
// definitions. A Registry is built once from already-validated definitions
// and is read-only thereafter, so it is shared across concurrent request
// handlers without synchronization. Reload is modeled as building a new
// Registry and atomically swapping it into a Holder.
package registry

import (
	"sync/atomic"

	"github.com/textmock/textmock/pkg/mockfile"
)

// Registry is the loaded mock configuration. Never mutated after Build.
type Registry struct {
	defs     []*mockfile.Definition
	byMethod map[string][]*mockfile.Definition
}

// Build indexes definitions for candidate lookup. It is infallible:
// validation already happened in the parser.
func Build(defs []*mockfile.Definition) *Registry {
	r := &Registry{
		defs:     defs,
		byMethod: make(map[string][]*mockfile.Definition),
	}
	for _, def := range defs {
		m := def.Request.Method
		r.byMethod[m] = append(r.byMethod[m], def)
	}
	return r
}

// CandidatesFor returns the definitions with the given method, preserving
// file order (first-defined-first-tried).
func (r *Registry) CandidatesFor(method string) []*mockfile.Definition {
	return r.byMethod[method]
}

// Definitions returns all definitions in file order.
func (r *Registry) Definitions() []*mockfile.Definition {
	return r.defs
}

// Len returns the number of loaded definitions.
func (r *Registry) Len() int {
	return len(r.defs)
}

// Holder is the process-wide handle to the currently active Registry.
// Swap publishes a replacement built by a reload; readers racing a swap see
// either the old or the new registry, never a partial one.
type Holder struct {
	current atomic.Pointer[Registry]
}

// NewHolder creates a Holder serving the given registry.
func NewHolder(r *Registry) *Holder {
	h := &Holder{}
	h.current.Store(r)
	return h
}

// Get returns the active registry.
func (h *Holder) Get() *Registry {
	return h.current.Load()
}

// Swap publishes a new registry.
func (h *Holder) Swap(r *Registry) {
	h.current.Store(r)
}

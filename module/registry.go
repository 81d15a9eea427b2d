// Package module implements the module registry: the Pending/Ready/Broken
// bookkeeping a Vm uses to resolve `import` against previously-loaded
// modules, detect circular imports, and evict modules whose root scope
// failed to execute. Grounded on
// _examples/original_source/src/isolate/import.rs's load() algorithm.
package module

import (
	"strings"

	"github.com/wudi/hebi/value"
)

// Loader fetches module source text given its import path segments (e.g.
// []string{"std", "io"}). Implementations live in this module's modloader
// package: a filesystem loader and three database/sql-backed loaders.
type Loader interface {
	Load(segments []string) (string, error)
}

// Registry owns every module a Vm has loaded, keyed by both a dense
// ModuleID and its dotted import path, and tracks which modules are still
// mid-initialization so reentrant imports of the same path can be
// rejected as circular.
type Registry struct {
	byPath  map[string]value.ModuleID
	modules map[value.ModuleID]*value.Module
	pending map[value.ModuleID]bool
	next    uint32
}

func NewRegistry() *Registry {
	return &Registry{
		byPath:  make(map[string]value.ModuleID),
		modules: make(map[value.ModuleID]*value.Module),
		pending: make(map[value.ModuleID]bool),
	}
}

func joinPath(segments []string) string { return strings.Join(segments, "/") }

// Lookup returns the module already registered at path, if any, along
// with whether it is still mid-initialization (a circular import).
func (r *Registry) Lookup(segments []string) (mod *value.Module, circular bool, found bool) {
	id, ok := r.byPath[joinPath(segments)]
	if !ok {
		return nil, false, false
	}
	return r.modules[id], r.pending[id], true
}

// BeginPending reserves a fresh ModuleID for a not-yet-loaded path and
// marks it mid-initialization. The caller must call Add once the module
// object exists, and either EndInit (success) or Remove (failure).
func (r *Registry) BeginPending() value.ModuleID {
	r.next++
	id := value.ModuleID(r.next)
	r.pending[id] = true
	return id
}

// Add registers mod under id and path once the module object has been
// constructed (but before its root scope has run).
func (r *Registry) Add(id value.ModuleID, segments []string, mod *value.Module) {
	r.byPath[joinPath(segments)] = id
	r.modules[id] = mod
}

// EndInit clears the mid-initialization marker once a module's root scope
// has finished running successfully.
func (r *Registry) EndInit(id value.ModuleID) {
	delete(r.pending, id)
}

// Remove evicts a module entirely — both the ID->module map entry and the
// path index entry — so that a later import of the same path re-fetches
// and re-parses it from scratch rather than resolving to the broken
// instance. Mirrors import.rs's behavior on a module root-scope error.
func (r *Registry) Remove(id value.ModuleID, segments []string) {
	delete(r.modules, id)
	delete(r.pending, id)
	delete(r.byPath, joinPath(segments))
}

func (r *Registry) Get(id value.ModuleID) (*value.Module, bool) {
	m, ok := r.modules[id]
	return m, ok
}

package debuginfo

import (
	"sync"

	"github.com/kilnvm/kiln/isa"
)

// Registration is one blob handed to the native-debugger facility.
type Registration struct {
	Blob     []byte
	Features isa.Features
}

// Registry is the process-wide registration facility native debuggers
// attach to. Safe for concurrent use.
//
// Type-info registrations are never individually removed: they fire on
// type-load events only, so their count is bounded by the number of types
// the runtime ever loads, and a debugger may attach at any point in the
// process lifetime. Callers that need removable registrations (e.g.
// per-method entries evicted with their code) need a different path.
type Registry struct {
	mux      sync.Mutex
	typeInfo []Registration
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry { return &Registry{} }

// RegisterTypeInfo publishes a type-layout blob. There is deliberately no
// handle returned and no way to unregister it.
func (r *Registry) RegisterTypeInfo(blob []byte, f isa.Features) {
	r.mux.Lock()
	defer r.mux.Unlock()
	r.typeInfo = append(r.typeInfo, Registration{Blob: blob, Features: f})
}

// TypeInfoCount returns the number of registered type-info blobs.
func (r *Registry) TypeInfoCount() int {
	r.mux.Lock()
	defer r.mux.Unlock()
	return len(r.typeInfo)
}

// TypeInfo returns a snapshot of the registered blobs, in registration
// order.
func (r *Registry) TypeInfo() []Registration {
	r.mux.Lock()
	defer r.mux.Unlock()
	ret := make([]Registration, len(r.typeInfo))
	copy(ret, r.typeInfo)
	return ret
}

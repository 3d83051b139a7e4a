// Package registry holds the set of objects enrolled for ray tracing and the single dirty flag
// that tells the frame renderer the flattened scene buffers are stale.
package registry

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-trace/engine/ray_object"
)

type registry struct {
	mu      *sync.Mutex
	objects []ray_object.RayObject
	dirty   bool
}

// Registry is the enrolled set of ray-traced objects, kept in registration order. Mutations
// never rebuild anything themselves; they raise the dirty flag, which the frame renderer
// consumes once per frame.
type Registry interface {
	// Register appends obj to the enrolled set and raises the dirty flag. The mesh is not
	// validated here; unresolvable meshes are skipped at rebuild time. Registering the same
	// object twice enrolls it twice.
	//
	// Parameters:
	//   - obj: the object to enroll
	Register(obj ray_object.RayObject)

	// Unregister removes the first enrollment of obj (compared by identity) and raises the
	// dirty flag. Removing an object that is not enrolled is not an error; the flag is
	// still raised.
	//
	// Parameters:
	//   - obj: the object to remove
	Unregister(obj ray_object.RayObject)

	// Invalidate raises the dirty flag without changing the enrolled set. Used when an
	// enrolled object's mesh or material changes in place.
	Invalidate()

	// ConsumeDirty reads and lowers the dirty flag.
	//
	// Returns:
	//   - bool: true if the scene buffers must be rebuilt
	ConsumeDirty() bool

	// Dirty reports the dirty flag without lowering it.
	Dirty() bool

	// Objects returns a snapshot of the enrolled set in registration order.
	//
	// Returns:
	//   - []ray_object.RayObject: a copy of the enrolled objects
	Objects() []ray_object.RayObject

	// Count returns the number of enrollments.
	Count() int

	// Contains reports whether obj is enrolled.
	Contains(obj ray_object.RayObject) bool
}

var _ Registry = &registry{}

// NewRegistry creates an empty Registry with the dirty flag lowered.
//
// Returns:
//   - Registry: the new registry
func NewRegistry() Registry {
	return &registry{
		mu: &sync.Mutex{},
	}
}

func (r *registry) Register(obj ray_object.RayObject) {
	if obj == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.objects = append(r.objects, obj)
	r.dirty = true
}

func (r *registry) Unregister(obj ray_object.RayObject) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dirty = true
	for i, o := range r.objects {
		if o == obj {
			r.objects = append(r.objects[:i], r.objects[i+1:]...)
			return
		}
	}
}

func (r *registry) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dirty = true
}

func (r *registry) ConsumeDirty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	d := r.dirty
	r.dirty = false
	return d
}

func (r *registry) Dirty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dirty
}

func (r *registry) Objects() []ray_object.RayObject {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ray_object.RayObject(nil), r.objects...)
}

func (r *registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.objects)
}

func (r *registry) Contains(obj ray_object.RayObject) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.objects {
		if o == obj {
			return true
		}
	}
	return false
}

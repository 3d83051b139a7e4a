package mesh

import (
	"fmt"
	"sort"
	"sync"
)

// library is the implementation of the Library interface.
type library struct {
	mu     *sync.RWMutex
	meshes map[string]Mesh
}

// Library is a named collection of meshes that objects reference by name. References are
// resolved lazily, so an object may name a mesh before it is added.
type Library interface {
	// Add stores m under name, replacing any previous entry.
	//
	// Parameters:
	//   - name: the lookup key
	//   - m: the mesh to store
	Add(name string, m Mesh)

	// Remove deletes the entry for name, if any.
	//
	// Parameters:
	//   - name: the lookup key
	Remove(name string)

	// Get looks up a mesh by name.
	//
	// Parameters:
	//   - name: the lookup key
	//
	// Returns:
	//   - Mesh: the mesh, or nil
	//   - bool: true if the name was found
	Get(name string) (Mesh, bool)

	// Names returns the stored names in sorted order.
	Names() []string

	// Ref returns a Resolver that looks name up at resolve time.
	//
	// Parameters:
	//   - name: the lookup key
	//
	// Returns:
	//   - Resolver: a lazy reference into the library
	Ref(name string) Resolver
}

var _ Library = &library{}

// NewLibrary creates a Library pre-populated with the built-in primitives:
// "cube", "quad", "sphere" and "tetrahedron".
//
// Returns:
//   - Library: the new library
func NewLibrary() Library {
	l := &library{
		mu:     &sync.RWMutex{},
		meshes: make(map[string]Mesh),
	}
	l.meshes["cube"] = Cube()
	l.meshes["quad"] = Quad()
	l.meshes["sphere"] = Sphere(24, 16)
	l.meshes["tetrahedron"] = Tetrahedron()
	return l
}

func (l *library) Add(name string, m Mesh) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.meshes[name] = m
}

func (l *library) Remove(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.meshes, name)
}

func (l *library) Get(name string) (Mesh, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	m, ok := l.meshes[name]
	return m, ok
}

func (l *library) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	names := make([]string, 0, len(l.meshes))
	for n := range l.meshes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (l *library) Ref(name string) Resolver {
	return libraryRef{lib: l, name: name}
}

type libraryRef struct {
	lib  *library
	name string
}

func (r libraryRef) Resolve() (Mesh, error) {
	m, ok := r.lib.Get(r.name)
	if !ok || m == nil {
		return nil, fmt.Errorf("%w: %q", ErrMeshNotFound, r.name)
	}
	return m, nil
}

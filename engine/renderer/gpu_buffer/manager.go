package gpu_buffer

import (
	"errors"
	"sync"

	"github.com/Carmen-Shannon/oxy-trace/engine/scene_buffer"
)

// Kind identifies one of the three scene arrays.
type Kind int

const (
	// KindObjects is the per-object record array.
	KindObjects Kind = iota

	// KindVertices is the concatenated vertex position array.
	KindVertices

	// KindIndices is the concatenated global triangle index array.
	KindIndices

	kindCount
)

// BindingName returns the kernel binding the array is bound to.
func (k Kind) BindingName() string {
	switch k {
	case KindObjects:
		return "_MeshObjects"
	case KindVertices:
		return "_Vertices"
	case KindIndices:
		return "_Indices"
	}
	return ""
}

// Kinds lists the three scene arrays in binding order.
func Kinds() []Kind {
	return []Kind{KindObjects, KindVertices, KindIndices}
}

type manager struct {
	mu      *sync.Mutex
	alloc   Allocator
	handles [kindCount]*Handle

	allocations int
	uploads     int
}

// Manager owns the three scene buffers. It is the only component that creates or releases
// them.
type Manager interface {
	// SyncScene syncs all three arrays of b, each independently. A failure on one array
	// does not stop the others; the combined error is returned and the failed arrays are
	// left without a buffer.
	//
	// Parameters:
	//   - b: the freshly built scene buffers
	//
	// Returns:
	//   - error: the joined errors of every failed array, or nil
	SyncScene(b scene_buffer.Buffers) error

	// Handle returns the current buffer for k, or nil when the array is empty.
	//
	// Parameters:
	//   - k: the array kind
	//
	// Returns:
	//   - *Handle: the current handle or nil
	Handle(k Kind) *Handle

	// Allocations returns how many buffers have been created over the manager's lifetime.
	Allocations() int

	// Uploads returns how many full uploads have been issued over the manager's lifetime.
	Uploads() int

	// Release frees every buffer. The manager may be reused afterwards.
	Release()
}

var _ Manager = &manager{}

// NewManager creates a Manager that allocates through alloc.
//
// Parameters:
//   - alloc: the GPU allocator
//
// Returns:
//   - Manager: the new manager
func NewManager(alloc Allocator) Manager {
	return &manager{
		mu:    &sync.Mutex{},
		alloc: alloc,
	}
}

func (m *manager) SyncScene(b scene_buffer.Buffers) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	apply := func(k Kind, data []byte, count, stride int) {
		h, allocated, err := Sync(m.alloc, k.BindingName(), m.handles[k], data, count, stride)
		m.handles[k] = h
		if allocated {
			m.allocations++
		}
		if err != nil {
			errs = append(errs, err)
			return
		}
		if h != nil {
			m.uploads++
		}
	}

	apply(KindObjects, b.ObjectBytes(), len(b.Objects), scene_buffer.ObjectStride)
	apply(KindVertices, b.VertexBytes(), len(b.Vertices), scene_buffer.VertexStride)
	apply(KindIndices, b.IndexBytes(), len(b.Indices), scene_buffer.IndexStride)

	return errors.Join(errs...)
}

func (m *manager) Handle(k Kind) *Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	if k < 0 || k >= kindCount {
		return nil
	}
	return m.handles[k]
}

func (m *manager) Allocations() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.allocations
}

func (m *manager) Uploads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.uploads
}

func (m *manager) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.handles {
		m.handles[i].Release()
		m.handles[i] = nil
	}
}

package mesh

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

var (
	// ErrMeshNotFound is returned by a Ref whose name is not present in its Library.
	ErrMeshNotFound = errors.New("mesh: not found")

	// ErrInvalidMesh is returned when index data does not describe whole triangles over the
	// mesh's own vertices.
	ErrInvalidMesh = errors.New("mesh: invalid geometry")
)

// meshImpl is the implementation of the Mesh interface.
type meshImpl struct {
	name     string
	vertices []mgl32.Vec3
	indices  []uint32
}

// Mesh is immutable triangle geometry in object space: vertex positions and triangle index
// triples local to those vertices.
type Mesh interface {
	// Name retrieves the mesh identifier.
	Name() string

	// Vertices returns the vertex positions. Callers must not modify the returned slice.
	Vertices() []mgl32.Vec3

	// Indices returns the triangle indices, three per triangle, each local to Vertices.
	// Callers must not modify the returned slice.
	Indices() []uint32

	// VertexCount returns len(Vertices()).
	VertexCount() int

	// IndexCount returns len(Indices()).
	IndexCount() int

	// Resolve satisfies Resolver; a Mesh always resolves to itself.
	Resolve() (Mesh, error)
}

// Resolver yields the geometry an object renders with. Resolution may fail, for instance
// when a referenced mesh has not been loaded; callers treat a failure as "skip this object
// for now" and try again on the next rebuild.
type Resolver interface {
	// Resolve returns the current geometry.
	//
	// Returns:
	//   - Mesh: the resolved mesh
	//   - error: an error if the geometry is unavailable
	Resolve() (Mesh, error)
}

var _ Mesh = &meshImpl{}

// NewMesh creates a Mesh from vertex positions and triangle indices. The slices are copied.
//
// Parameters:
//   - name: the mesh identifier
//   - vertices: object-space positions
//   - indices: triangle indices into vertices
//
// Returns:
//   - Mesh: the new mesh
func NewMesh(name string, vertices []mgl32.Vec3, indices []uint32) Mesh {
	return &meshImpl{
		name:     name,
		vertices: append([]mgl32.Vec3(nil), vertices...),
		indices:  append([]uint32(nil), indices...),
	}
}

func (m *meshImpl) Name() string {
	return m.name
}

func (m *meshImpl) Vertices() []mgl32.Vec3 {
	return m.vertices
}

func (m *meshImpl) Indices() []uint32 {
	return m.indices
}

func (m *meshImpl) VertexCount() int {
	return len(m.vertices)
}

func (m *meshImpl) IndexCount() int {
	return len(m.indices)
}

func (m *meshImpl) Resolve() (Mesh, error) {
	return m, nil
}

// Validate checks that m describes whole triangles and that every index refers to one of
// m's own vertices. An empty mesh is valid.
//
// Parameters:
//   - m: the mesh to check
//
// Returns:
//   - error: ErrInvalidMesh wrapped with details, or nil
func Validate(m Mesh) error {
	if m == nil {
		return fmt.Errorf("%w: nil mesh", ErrInvalidMesh)
	}
	if m.IndexCount()%3 != 0 {
		return fmt.Errorf("%w: %s has %d indices, not a multiple of 3", ErrInvalidMesh, m.Name(), m.IndexCount())
	}
	n := uint32(m.VertexCount())
	for i, idx := range m.Indices() {
		if idx >= n {
			return fmt.Errorf("%w: %s index %d = %d exceeds vertex count %d", ErrInvalidMesh, m.Name(), i, idx, n)
		}
	}
	return nil
}

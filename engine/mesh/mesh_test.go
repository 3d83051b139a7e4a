package mesh

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrimitivesAreValid(t *testing.T) {
	for _, m := range []Mesh{Cube(), Quad(), Tetrahedron(), Sphere(8, 4), Sphere(0, 0)} {
		require.NoError(t, Validate(m), m.Name())
		assert.Equal(t, len(m.Vertices()), m.VertexCount())
		assert.Equal(t, len(m.Indices()), m.IndexCount())
	}

	assert.Equal(t, 24, Cube().VertexCount())
	assert.Equal(t, 36, Cube().IndexCount())
	assert.Equal(t, 6, Quad().IndexCount())
	assert.Equal(t, 36, Sphere(3, 2).IndexCount())
}

func TestCubeFacesPointOutward(t *testing.T) {
	c := Cube()
	v := c.Vertices()
	idx := c.Indices()
	for i := 0; i < len(idx); i += 3 {
		a, b, d := v[idx[i]], v[idx[i+1]], v[idx[i+2]]
		normal := b.Sub(a).Cross(d.Sub(a))
		centroid := a.Add(b).Add(d).Mul(1.0 / 3.0)
		assert.Greater(t, normal.Dot(centroid), float32(0), "triangle %d", i/3)
	}
}

func TestValidateRejectsBadIndices(t *testing.T) {
	m := NewMesh("bad", []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}, []uint32{0, 1, 3})
	assert.ErrorIs(t, Validate(m), ErrInvalidMesh)

	m = NewMesh("partial", []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}}, []uint32{0, 1})
	assert.ErrorIs(t, Validate(m), ErrInvalidMesh)

	assert.ErrorIs(t, Validate(nil), ErrInvalidMesh)
	assert.NoError(t, Validate(NewMesh("empty", nil, nil)))
}

func TestNewMeshCopiesInput(t *testing.T) {
	verts := []mgl32.Vec3{{1, 2, 3}}
	m := NewMesh("copy", verts, nil)
	verts[0] = mgl32.Vec3{}
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, m.Vertices()[0])
}

func TestLibraryRefResolvesLazily(t *testing.T) {
	lib := NewLibrary()
	assert.Equal(t, []string{"cube", "quad", "sphere", "tetrahedron"}, lib.Names())

	ref := lib.Ref("custom")
	_, err := ref.Resolve()
	assert.ErrorIs(t, err, ErrMeshNotFound)

	lib.Add("custom", Quad())
	m, err := ref.Resolve()
	require.NoError(t, err)
	assert.Equal(t, "quad", m.Name())

	lib.Remove("custom")
	_, ok := lib.Get("custom")
	assert.False(t, ok)
}

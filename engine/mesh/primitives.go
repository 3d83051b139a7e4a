package mesh

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Cube returns a unit cube centred on the origin with 4 vertices per face so every face can
// be addressed independently. Triangles wind counter-clockwise seen from outside.
func Cube() Mesh {
	faces := [6][4]mgl32.Vec3{
		{{0.5, -0.5, -0.5}, {0.5, 0.5, -0.5}, {0.5, 0.5, 0.5}, {0.5, -0.5, 0.5}},     // +X
		{{-0.5, -0.5, 0.5}, {-0.5, 0.5, 0.5}, {-0.5, 0.5, -0.5}, {-0.5, -0.5, -0.5}}, // -X
		{{-0.5, 0.5, -0.5}, {-0.5, 0.5, 0.5}, {0.5, 0.5, 0.5}, {0.5, 0.5, -0.5}},     // +Y
		{{-0.5, -0.5, 0.5}, {-0.5, -0.5, -0.5}, {0.5, -0.5, -0.5}, {0.5, -0.5, 0.5}}, // -Y
		{{-0.5, -0.5, 0.5}, {0.5, -0.5, 0.5}, {0.5, 0.5, 0.5}, {-0.5, 0.5, 0.5}},     // +Z
		{{0.5, -0.5, -0.5}, {-0.5, -0.5, -0.5}, {-0.5, 0.5, -0.5}, {0.5, 0.5, -0.5}}, // -Z
	}

	vertices := make([]mgl32.Vec3, 0, 24)
	indices := make([]uint32, 0, 36)
	for fi, face := range faces {
		vertices = append(vertices, face[:]...)
		base := uint32(fi * 4)
		indices = append(indices,
			base+0, base+1, base+2,
			base+0, base+2, base+3,
		)
	}
	return &meshImpl{name: "cube", vertices: vertices, indices: indices}
}

// Quad returns a unit square in the XZ plane facing +Y, centred on the origin.
func Quad() Mesh {
	return &meshImpl{
		name: "quad",
		vertices: []mgl32.Vec3{
			{-0.5, 0, -0.5}, {-0.5, 0, 0.5}, {0.5, 0, 0.5}, {0.5, 0, -0.5},
		},
		indices: []uint32{0, 1, 2, 0, 2, 3},
	}
}

// Tetrahedron returns a regular tetrahedron inscribed in the unit sphere.
func Tetrahedron() Mesh {
	k := 1 / math32.Sqrt(3)
	return &meshImpl{
		name: "tetrahedron",
		vertices: []mgl32.Vec3{
			{k, k, k}, {-k, -k, k}, {-k, k, -k}, {k, -k, -k},
		},
		indices: []uint32{
			0, 1, 3,
			0, 2, 1,
			0, 3, 2,
			1, 2, 3,
		},
	}
}

// Sphere returns a UV sphere of radius 0.5. Segments below 3 and rings below 2 are raised
// to those minimums.
//
// Parameters:
//   - segments: the number of slices around the Y axis
//   - rings: the number of stacks from pole to pole
//
// Returns:
//   - Mesh: the sphere mesh
func Sphere(segments, rings int) Mesh {
	if segments < 3 {
		segments = 3
	}
	if rings < 2 {
		rings = 2
	}

	vertices := make([]mgl32.Vec3, 0, (segments+1)*(rings+1))
	for r := 0; r <= rings; r++ {
		phi := math32.Pi * float32(r) / float32(rings)
		y := 0.5 * math32.Cos(phi)
		ringRadius := 0.5 * math32.Sin(phi)
		for s := 0; s <= segments; s++ {
			theta := 2 * math32.Pi * float32(s) / float32(segments)
			vertices = append(vertices, mgl32.Vec3{
				ringRadius * math32.Cos(theta),
				y,
				ringRadius * math32.Sin(theta),
			})
		}
	}

	stride := uint32(segments + 1)
	indices := make([]uint32, 0, segments*rings*6)
	for r := 0; r < rings; r++ {
		for s := 0; s < segments; s++ {
			a := uint32(r)*stride + uint32(s)
			b := a + stride
			indices = append(indices,
				a, a+1, b,
				a+1, b+1, b,
			)
		}
	}
	return &meshImpl{name: "sphere", vertices: vertices, indices: indices}
}

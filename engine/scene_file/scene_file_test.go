package scene_file

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-trace/engine/camera"
	"github.com/Carmen-Shannon/oxy-trace/engine/loader"
	"github.com/Carmen-Shannon/oxy-trace/engine/material"
	"github.com/Carmen-Shannon/oxy-trace/engine/mesh"
	"github.com/Carmen-Shannon/oxy-trace/engine/registry"
	"github.com/Carmen-Shannon/oxy-trace/engine/scene_buffer"
	"github.com/Carmen-Shannon/oxy-trace/engine/transform"
)

const sample = `
camera:
  target: [0, 1, 0]
  radius: 6
  azimuth_degrees: 90
  elevation_degrees: 0
light:
  direction: [0, -2, 0]
  intensity: 0.5
objects:
  - name: red
    primitive: cube
    position: [1, 0, 0]
    scale: [2, 2, 2]
    material:
      color: [1, 0, 0]
      specular: 0.25
  - primitive: sphere
    position: [-1, 0, 0]
  - name: forced
    primitive: quad
    material:
      color: [0, 1, 0]
    random: true
`

func TestDecode(t *testing.T) {
	s, err := Decode(strings.NewReader(sample))
	require.NoError(t, err)
	require.Len(t, s.Objects, 3)

	assert.Equal(t, float32(6), s.Camera.Radius)
	assert.Equal(t, float32(0.5), s.Light.Intensity)

	assert.False(t, s.Objects[0].IsRandom())
	assert.True(t, s.Objects[1].IsRandom())
	assert.True(t, s.Objects[2].IsRandom())
	assert.Equal(t, [3]float32{2, 2, 2}, *s.Objects[0].Scale)
	assert.Nil(t, s.Objects[1].Scale)
}

func TestDecodeRejectsUnknownKeys(t *testing.T) {
	_, err := Decode(strings.NewReader("objects:\n  - primitive: cube\n    colour: [1, 1, 1]\n"))
	assert.Error(t, err)
}

func TestDecodeEmptyIsValid(t *testing.T) {
	s, err := Decode(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, s.Objects)
	assert.Equal(t, float32(1), s.Light.Intensity)
}

func TestValidate(t *testing.T) {
	s := &Scene{
		Camera: CameraSpec{Radius: -1},
		Light:  LightSpec{Intensity: -1},
		Objects: []ObjectSpec{
			{Name: "none"},
			{Name: "flat", Primitive: "cube", Scale: &[3]float32{1, 0, 1}},
		},
	}
	err := s.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidScene)
	for _, msg := range []string{"radius", "direction is zero", "intensity", "no primitive", "zero scale"} {
		assert.Contains(t, err.Error(), msg)
	}
}

func TestPopulateRegistersInOrder(t *testing.T) {
	s, err := Decode(strings.NewReader(sample))
	require.NoError(t, err)

	reg := registry.NewRegistry()
	objects := s.Populate(reg, mesh.NewLibrary(), material.RandomGenerator, rand.New(rand.NewSource(1)))

	require.Len(t, objects, 3)
	assert.Equal(t, objects, reg.Objects())
	assert.True(t, reg.Dirty())

	assert.Equal(t, "red", objects[0].Name())
	assert.Equal(t, "sphere-1", objects[1].Name())
	assert.False(t, objects[0].RandomMaterial())
	assert.True(t, objects[1].RandomMaterial())
	assert.True(t, objects[2].RandomMaterial())

	want := material.FromSurface(material.Surface{Color: [3]float32{1, 0, 0}, Specular: 0.25})
	assert.Equal(t, want, objects[0].Material())

	tr := objects[0].Transform()
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, tr.Position())
	assert.Equal(t, mgl32.Vec3{2, 2, 2}, tr.Scale())
}

func TestPopulatedSceneBuilds(t *testing.T) {
	reg := registry.NewRegistry()
	lib := mesh.NewLibrary()
	s := &Scene{Objects: []ObjectSpec{
		{Primitive: "cube"},
		{Primitive: "tetrahedron"},
		{Primitive: "teapot"},
	}}
	s.Populate(reg, lib, material.RandomGenerator, nil)

	b := scene_buffer.NewBuilder().Build(reg.Objects())
	assert.Len(t, b.Objects, 2)
	require.Len(t, b.Skipped, 1)
	assert.ErrorIs(t, b.Skipped[0].Err, mesh.ErrMeshNotFound)

	cube, _ := lib.Get("cube")
	tet, _ := lib.Get("tetrahedron")
	assert.Len(t, b.Vertices, cube.VertexCount()+tet.VertexCount())
	assert.Len(t, b.Indices, cube.IndexCount()+tet.IndexCount())
}

func TestOrbitOptionsPlaceCamera(t *testing.T) {
	s, err := Decode(strings.NewReader(sample))
	require.NoError(t, err)

	tr := transform.NewTransform()
	oc := camera.NewOrbitController(tr, s.OrbitOptions()...)
	assert.Equal(t, float32(6), oc.Radius())

	// azimuth 90 degrees puts the camera on +X of the target
	p := tr.Position()
	assert.InDelta(t, 6, p.X(), 1e-4)
	assert.InDelta(t, 1, p.Y(), 1e-4)
	assert.InDelta(t, 0, p.Z(), 1e-4)
}

func TestNewLight(t *testing.T) {
	s, err := Decode(strings.NewReader(sample))
	require.NoError(t, err)

	l := s.NewLight()
	d := l.Direction()
	assert.InDelta(t, 0, d.X(), 1e-4)
	assert.InDelta(t, -1, d.Y(), 1e-4)
	assert.InDelta(t, 0, d.Z(), 1e-4)
	assert.Equal(t, float32(0.5), l.Intensity())
	assert.False(t, l.Transform().HasChanged())
}

func TestDefaultSceneIsValid(t *testing.T) {
	s := Default()
	require.NoError(t, s.Validate())
	assert.NotEmpty(t, s.Objects)
	assert.False(t, s.Objects[0].IsRandom())
}

func TestEncodeDecodesBack(t *testing.T) {
	s := Default()
	var buf bytes.Buffer
	require.NoError(t, s.Encode(&buf))

	back, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, s, back)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, s.Objects, 3)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

// writeTriangleModel writes a one-triangle glTF with an embedded buffer and a grey
// dielectric material.
func writeTriangleModel(t *testing.T, path string) {
	t.Helper()
	var bin bytes.Buffer
	require.NoError(t, binary.Write(&bin, binary.LittleEndian, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}))

	doc := fmt.Sprintf(`{
  "asset": {"version": "2.0"},
  "meshes": [{"primitives": [{"attributes": {"POSITION": 0}, "material": 0}]}],
  "accessors": [{"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3"}],
  "bufferViews": [{"buffer": 0, "byteLength": 36}],
  "buffers": [{"byteLength": 36, "uri": "data:application/octet-stream;base64,%s"}],
  "materials": [{"pbrMetallicRoughness": {"baseColorFactor": [0.5, 0.5, 0.5, 1], "metallicFactor": 0}}]
}`, base64.StdEncoding.EncodeToString(bin.Bytes()))

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
}

func TestModelsImportRelativeToSceneFile(t *testing.T) {
	dir := t.TempDir()
	writeTriangleModel(t, filepath.Join(dir, "models", "tri.gltf"))
	scenePath := filepath.Join(dir, "scene.yaml")
	require.NoError(t, os.WriteFile(scenePath, []byte(`
objects:
  - model: models/tri.gltf
    position: [0, 0, 2]
  - name: painted
    model: models/tri.gltf
    material:
      color: [1, 0, 0]
  - model: models/missing.glb
`), 0o644))

	s, err := Load(scenePath)
	require.NoError(t, err)

	lib := mesh.NewLibrary()
	err = s.ImportModels(loader.NewLoader(loader.WithLibrary(lib)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.glb")

	reg := registry.NewRegistry()
	objects := s.Populate(reg, lib, material.RandomGenerator, rand.New(rand.NewSource(1)))
	require.Len(t, objects, 3)

	assert.Equal(t, "tri.gltf-0", objects[0].Name())
	assert.False(t, objects[0].RandomMaterial())
	assert.Equal(t, [3]float32{0.5, 0.5, 0.5}, objects[0].Material().Albedo)
	assert.Equal(t, [3]float32{0, 0, 0}, objects[0].Material().Specular)

	assert.Equal(t, material.FromSurface(material.Surface{Color: [3]float32{1, 0, 0}}), objects[1].Material())
	assert.True(t, objects[2].RandomMaterial())

	b := scene_buffer.NewBuilder().Build(reg.Objects())
	assert.Len(t, b.Objects, 2)
	require.Len(t, b.Skipped, 1)
	assert.ErrorIs(t, b.Skipped[0].Err, mesh.ErrMeshNotFound)
	assert.Len(t, b.Vertices, 6)
}

func TestValidateModelAndPrimitiveAreExclusive(t *testing.T) {
	s := &Scene{
		Light:   LightSpec{Direction: [3]float32{0, -1, 0}},
		Objects: []ObjectSpec{{Primitive: "cube", Model: "a.glb"}},
	}
	err := s.Validate()
	assert.ErrorIs(t, err, ErrInvalidScene)
	assert.Contains(t, err.Error(), "both primitive and model")
}

func TestExampleScenesLoad(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("..", "..", "examples", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		s, err := Load(path)
		require.NoError(t, err, path)

		lib := mesh.NewLibrary()
		require.NoError(t, s.ImportModels(loader.NewLoader(loader.WithLibrary(lib))), path)

		reg := registry.NewRegistry()
		s.Populate(reg, lib, material.RandomGenerator, rand.New(rand.NewSource(1)))
		b := scene_buffer.NewBuilder().Build(reg.Objects())
		assert.Empty(t, b.Skipped, path)
		assert.Len(t, b.Objects, len(s.Objects), path)
	}
}

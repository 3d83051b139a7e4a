package ray_object

import (
	"math/rand"
	"testing"

	"github.com/Carmen-Shannon/oxy-trace/engine/material"
	"github.com/Carmen-Shannon/oxy-trace/engine/mesh"
	"github.com/Carmen-Shannon/oxy-trace/engine/transform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRayObjectDefaults(t *testing.T) {
	a := NewRayObject()
	b := NewRayObject(WithName("b"))

	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, "b", b.Name())
	assert.Nil(t, a.Mesh())
	assert.NotNil(t, a.Transform())
	assert.False(t, a.RandomMaterial())
	assert.NoError(t, a.Material().Validate())
}

func TestWithMeshAndTransform(t *testing.T) {
	tr := transform.NewTransform(transform.WithPosition(1, 2, 3))
	o := NewRayObject(WithMesh(mesh.Cube()), WithTransform(tr))

	m, err := o.Mesh().Resolve()
	require.NoError(t, err)
	assert.Equal(t, "cube", m.Name())
	assert.Same(t, tr, o.Transform())
}

func TestGeneratorDrawsInitialMaterial(t *testing.T) {
	want := material.Material{Albedo: [3]float32{0.1, 0.2, 0.3}}
	o := NewRayObject(WithGenerator(material.Fixed(want), nil))

	assert.True(t, o.RandomMaterial())
	assert.Equal(t, want, o.Material())
}

func TestExplicitMaterialDetachesGenerator(t *testing.T) {
	m := material.Material{Albedo: [3]float32{2, 0, 0}}
	o := NewRayObject(WithGenerator(material.RandomGenerator, nil), WithMaterial(m))

	assert.False(t, o.RandomMaterial())
	assert.Equal(t, float32(1), o.Material().Albedo[0])
	assert.False(t, o.Reroll(rand.New(rand.NewSource(1))))
}

func TestReroll(t *testing.T) {
	o := NewRayObject(WithGenerator(material.RandomGenerator, rand.New(rand.NewSource(3))))
	before := o.Material()

	require.True(t, o.Reroll(rand.New(rand.NewSource(99))))
	assert.NotEqual(t, before, o.Material())
	assert.NoError(t, o.Material().Validate())
}

package registry

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-trace/engine/ray_object"
	"github.com/stretchr/testify/assert"
)

func TestRegisterRaisesDirty(t *testing.T) {
	r := NewRegistry()
	assert.False(t, r.Dirty())
	assert.False(t, r.ConsumeDirty())

	a := ray_object.NewRayObject()
	r.Register(a)

	assert.True(t, r.Dirty())
	assert.True(t, r.ConsumeDirty())
	assert.False(t, r.ConsumeDirty(), "consuming lowers the flag")
	assert.True(t, r.Contains(a))
	assert.Equal(t, 1, r.Count())
}

func TestUnregisterByIdentityKeepsOrder(t *testing.T) {
	r := NewRegistry()
	a, b, c := ray_object.NewRayObject(), ray_object.NewRayObject(), ray_object.NewRayObject()
	r.Register(a)
	r.Register(b)
	r.Register(c)
	r.ConsumeDirty()

	r.Unregister(b)

	assert.True(t, r.ConsumeDirty())
	assert.Equal(t, []ray_object.RayObject{a, c}, r.Objects())
	assert.False(t, r.Contains(b))
}

func TestUnregisterAbsentIsNoOpButDirty(t *testing.T) {
	r := NewRegistry()
	a := ray_object.NewRayObject()
	r.Register(a)
	r.ConsumeDirty()

	r.Unregister(ray_object.NewRayObject())

	assert.Equal(t, 1, r.Count())
	assert.True(t, r.ConsumeDirty())
}

func TestRegisterThenUnregisterLeavesSetUnchanged(t *testing.T) {
	r := NewRegistry()
	a := ray_object.NewRayObject()
	r.Register(a)
	before := r.Objects()

	b := ray_object.NewRayObject()
	r.Register(b)
	r.Unregister(b)

	assert.Equal(t, before, r.Objects())
	assert.True(t, r.ConsumeDirty())
}

func TestObjectsIsSnapshot(t *testing.T) {
	r := NewRegistry()
	r.Register(ray_object.NewRayObject())
	snap := r.Objects()
	r.Register(ray_object.NewRayObject())

	assert.Len(t, snap, 1)
	assert.Equal(t, 2, r.Count())
}

func TestInvalidateAndNil(t *testing.T) {
	r := NewRegistry()
	r.Register(nil)
	assert.False(t, r.Dirty())
	assert.Zero(t, r.Count())

	r.Invalidate()
	assert.True(t, r.ConsumeDirty())
}

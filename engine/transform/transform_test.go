package transform

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func assertVecNear(t *testing.T, want, got mgl32.Vec3) {
	t.Helper()
	for i := 0; i < 3; i++ {
		assert.InDelta(t, want[i], got[i], 1e-4, "component %d of %v", i, got)
	}
}

func TestNewTransformStartsClean(t *testing.T) {
	tr := NewTransform(WithPosition(1, 2, 3), WithUniformScale(2))

	assert.False(t, tr.HasChanged())
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, tr.Position())
	assert.Equal(t, mgl32.Vec3{2, 2, 2}, tr.Scale())
}

func TestSettersRaiseFlagOnlyOnChange(t *testing.T) {
	tr := NewTransform(WithPosition(1, 0, 0))

	tr.SetPosition(mgl32.Vec3{1, 0, 0})
	assert.False(t, tr.HasChanged(), "same value must not raise the flag")

	tr.SetPosition(mgl32.Vec3{2, 0, 0})
	assert.True(t, tr.HasChanged())
	assert.True(t, tr.ConsumeChanged())
	assert.False(t, tr.ConsumeChanged(), "flag is cleared by observation")

	tr.SetScale(mgl32.Vec3{1, 1, 1})
	assert.False(t, tr.HasChanged())
	tr.SetScale(mgl32.Vec3{1, 2, 1})
	assert.True(t, tr.ConsumeChanged())

	tr.Rotate(mgl32.Vec3{0, 1, 0}, 0)
	assert.False(t, tr.HasChanged())
	tr.Rotate(mgl32.Vec3{0, 1, 0}, 0.5)
	assert.True(t, tr.ConsumeChanged())

	tr.Translate(mgl32.Vec3{})
	assert.False(t, tr.HasChanged())
}

func TestDefaultAxes(t *testing.T) {
	tr := NewTransform()

	assertVecNear(t, mgl32.Vec3{0, 0, -1}, tr.Forward())
	assertVecNear(t, mgl32.Vec3{0, 1, 0}, tr.Up())
	assertVecNear(t, mgl32.Vec3{1, 0, 0}, tr.Right())
}

func TestLookAt(t *testing.T) {
	tr := NewTransform(WithPosition(0, 0, 10))
	tr.LookAt(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0})

	assertVecNear(t, mgl32.Vec3{0, 0, -1}, tr.Forward())

	tr.LookAt(mgl32.Vec3{10, 0, 10}, mgl32.Vec3{0, 1, 0})
	assertVecNear(t, mgl32.Vec3{1, 0, 0}, tr.Forward())
	assertVecNear(t, mgl32.Vec3{0, 1, 0}, tr.Up())

	tr.ConsumeChanged()
	tr.LookAt(tr.Position(), mgl32.Vec3{0, 1, 0})
	assert.False(t, tr.HasChanged(), "looking at own position is ignored")
}

func TestLookAtStraightDown(t *testing.T) {
	tr := NewTransform(WithPosition(0, 5, 0))
	tr.LookAt(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0})

	assertVecNear(t, mgl32.Vec3{0, -1, 0}, tr.Forward())
}

func TestMatrixComposition(t *testing.T) {
	tr := NewTransform(WithPosition(1, 2, 3), WithScale(2, 2, 2))

	m := tr.Matrix()
	p := m.Mul4x1(mgl32.Vec4{1, 0, 0, 1})
	assert.InDelta(t, 3, p[0], 1e-5)
	assert.InDelta(t, 2, p[1], 1e-5)
	assert.InDelta(t, 3, p[2], 1e-5)

	tr.SetEuler(0, 90, 0)
	p = tr.Matrix().Mul4x1(mgl32.Vec4{0, 0, -1, 0})
	assert.InDelta(t, -2, p[0], 1e-4)
	assert.InDelta(t, 0, p[2], 1e-4)
}

package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGroupCount(t *testing.T) {
	assert.Equal(t, uint32(0), GroupCount(0, 16))
	assert.Equal(t, uint32(0), GroupCount(-4, 16))
	assert.Equal(t, uint32(0), GroupCount(100, 0))
	assert.Equal(t, uint32(1), GroupCount(1, 16))
	assert.Equal(t, uint32(1), GroupCount(16, 16))
	assert.Equal(t, uint32(2), GroupCount(17, 16))
	assert.Equal(t, uint32(120), GroupCount(1920, 16))
	assert.Equal(t, uint32(68), GroupCount(1080, 16))
}

func TestSliceToBytes(t *testing.T) {
	assert.Nil(t, SliceToBytes([]uint32{}))

	b := SliceToBytes([]uint32{1, 2})
	assert.Len(t, b, 8)
	assert.Equal(t, 4, SizeOf[uint32]())
	assert.Equal(t, 12, SizeOf[[3]float32]())
}

func TestHSVToRGB(t *testing.T) {
	assert.Equal(t, [3]float32{1, 0, 0}, HSVToRGB(0, 1, 1))
	assert.Equal(t, [3]float32{1, 0, 0}, HSVToRGB(1, 1, 1))
	assert.Equal(t, [3]float32{0.5, 0.5, 0.5}, HSVToRGB(0.3, 0, 0.5))

	green := HSVToRGB(1.0/3.0, 1, 1)
	assert.InDelta(t, 0, green[0], 1e-5)
	assert.InDelta(t, 1, green[1], 1e-5)
	assert.InDelta(t, 0, green[2], 1e-5)
}

func TestClampAndCoalesce(t *testing.T) {
	assert.Equal(t, float32(0), Clamp01(-1))
	assert.Equal(t, float32(1), Clamp01(2))
	assert.Equal(t, float32(0.25), Clamp01(0.25))
	assert.Equal(t, 2, ClampInt(1, 2, 32))
	assert.Equal(t, 32, ClampInt(64, 2, 32))
	assert.Equal(t, "b", Coalesce("", "b", "c"))
	assert.Equal(t, 0, Coalesce(0, 0))
	assert.InDelta(t, 90, Degrees(Radians(90)), 1e-4)
}

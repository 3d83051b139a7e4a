package accumulation

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"

	"github.com/Carmen-Shannon/oxy-trace/engine/transform"
)

func TestBlendWeight(t *testing.T) {
	c := NewController()
	assert.Equal(t, float32(1), c.BlendWeight())

	c.RecordFrameRendered()
	assert.Equal(t, float32(0.5), c.BlendWeight())

	for i := 0; i < 8; i++ {
		c.RecordFrameRendered()
	}
	assert.Equal(t, uint32(9), c.SampleCount())
	assert.InDelta(t, 0.1, c.BlendWeight(), 1e-7)
}

func TestResetIsIdempotent(t *testing.T) {
	c := NewController()
	c.Reset()
	assert.Zero(t, c.ResetCount(), "empty accumulation discards nothing")

	c.RecordFrameRendered()
	c.RecordFrameRendered()
	c.Reset()
	c.Reset()
	assert.Zero(t, c.SampleCount())
	assert.Equal(t, 1, c.ResetCount())
	assert.Equal(t, float32(1), c.BlendWeight())
}

func TestPollInvalidationsFOV(t *testing.T) {
	c := NewController()
	assert.False(t, c.PollInvalidations(60), "first observation only records")
	c.RecordFrameRendered()

	assert.False(t, c.PollInvalidations(60))
	assert.Equal(t, uint32(1), c.SampleCount())

	assert.True(t, c.PollInvalidations(45))
	assert.Zero(t, c.SampleCount())

	c.RecordFrameRendered()
	assert.False(t, c.PollInvalidations(45), "the new value becomes the baseline")
}

func TestPollInvalidationsWatchedTransforms(t *testing.T) {
	cam := transform.NewTransform()
	sun := transform.NewTransform()
	c := NewController(WithWatched(cam))
	c.Watch(sun)
	c.Watch(sun)
	c.Watch(nil)
	c.PollInvalidations(60)

	c.RecordFrameRendered()
	cam.SetPosition(mgl32.Vec3{1, 0, 0})
	sun.SetEuler(-45, 0, 0)
	assert.True(t, c.PollInvalidations(60))
	assert.Zero(t, c.SampleCount())
	assert.False(t, cam.HasChanged())
	assert.False(t, sun.HasChanged(), "all flags are consumed in one poll")

	c.RecordFrameRendered()
	assert.False(t, c.PollInvalidations(60))

	c.Unwatch(sun)
	sun.SetEuler(-30, 0, 0)
	assert.False(t, c.PollInvalidations(60))
	assert.Equal(t, uint32(1), c.SampleCount())
}

func TestFiveFramesWithoutInvalidation(t *testing.T) {
	c := NewController()
	want := []float32{1, 1.0 / 2, 1.0 / 3, 1.0 / 4, 1.0 / 5}
	for i, w := range want {
		assert.False(t, c.PollInvalidations(60))
		assert.Equal(t, uint32(i), c.SampleCount())
		assert.InDelta(t, w, c.BlendWeight(), 1e-7)
		c.RecordFrameRendered()
	}
	assert.Equal(t, uint32(5), c.SampleCount())
	assert.InDelta(t, 1.0/6, c.BlendWeight(), 1e-7)
}

func TestMaxSamples(t *testing.T) {
	c := NewController(WithMaxSamples(2))
	assert.False(t, c.Converged())
	c.RecordFrameRendered()
	c.RecordFrameRendered()
	assert.True(t, c.Converged())

	c.SetMaxSamples(0)
	assert.False(t, c.Converged())
	assert.Zero(t, c.MaxSamples())
}

func TestRequestResetWaitsForPoll(t *testing.T) {
	c := NewController()
	c.PollInvalidations(60)
	c.RecordFrameRendered()
	c.RecordFrameRendered()

	c.RequestReset()
	assert.Equal(t, uint32(2), c.SampleCount())
	c.RecordFrameRendered()
	assert.Equal(t, float32(0.25), c.BlendWeight(), "the in-flight frame blends against the old image")

	assert.True(t, c.PollInvalidations(60))
	assert.Zero(t, c.SampleCount())
	assert.Equal(t, 1, c.ResetCount())
	assert.False(t, c.PollInvalidations(60), "the request is consumed")
}

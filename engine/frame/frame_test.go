package frame

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-trace/engine/camera"
	"github.com/Carmen-Shannon/oxy-trace/engine/mesh"
	"github.com/Carmen-Shannon/oxy-trace/engine/ray_object"
	"github.com/Carmen-Shannon/oxy-trace/engine/registry"
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer/gpu_buffer"
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer/render_target"
	"github.com/Carmen-Shannon/oxy-trace/engine/scene_buffer"
)

type fakeKernel struct {
	matrices   map[string]mgl32.Mat4
	vectors    map[string]mgl32.Vec4
	vectors2   map[string]mgl32.Vec2
	floats     map[string]float32
	ints       map[string]int32
	buffers    map[string]*gpu_buffer.Handle
	targets    map[string]render_target.Target
	dispatches [][3]uint32
	failNext   bool
}

func newFakeKernel() *fakeKernel {
	return &fakeKernel{
		matrices: map[string]mgl32.Mat4{},
		vectors:  map[string]mgl32.Vec4{},
		vectors2: map[string]mgl32.Vec2{},
		floats:   map[string]float32{},
		ints:     map[string]int32{},
		buffers:  map[string]*gpu_buffer.Handle{},
		targets:  map[string]render_target.Target{},
	}
}

func (k *fakeKernel) SetMatrix(name string, m mgl32.Mat4)  { k.matrices[name] = m }
func (k *fakeKernel) SetVector(name string, v mgl32.Vec4)  { k.vectors[name] = v }
func (k *fakeKernel) SetVector2(name string, v mgl32.Vec2) { k.vectors2[name] = v }
func (k *fakeKernel) SetFloat(name string, f float32)      { k.floats[name] = f }
func (k *fakeKernel) SetInt(name string, v int32)          { k.ints[name] = v }
func (k *fakeKernel) SetBuffer(name string, h *gpu_buffer.Handle) {
	k.buffers[name] = h
}
func (k *fakeKernel) SetTarget(name string, t render_target.Target) { k.targets[name] = t }
func (k *fakeKernel) Dispatch(x, y, z uint32) error {
	if k.failNext {
		k.failNext = false
		return errors.New("device lost")
	}
	k.dispatches = append(k.dispatches, [3]uint32{x, y, z})
	return nil
}

type fakeCompositor struct {
	weights   []float32
	presents  int
	discarded int

	// onPresent runs inside Present with the 1-based present number.
	onPresent func(n int) error
}

func (c *fakeCompositor) Blend(raw, acc render_target.Target, weight float32) error {
	c.weights = append(c.weights, weight)
	return nil
}

func (c *fakeCompositor) Present(acc render_target.Target) error {
	c.presents++
	if c.onPresent != nil {
		return c.onPresent(c.presents)
	}
	return nil
}

func (c *fakeCompositor) DiscardFrame() { c.discarded++ }

type fakeStorage struct{ released bool }

func (s *fakeStorage) Release() { s.released = true }

type fakeBufferAlloc struct {
	fail        bool
	allocations int
}

func (a *fakeBufferAlloc) Allocate(label string, size uint64) (gpu_buffer.Storage, error) {
	if a.fail {
		return nil, errors.New("out of memory")
	}
	a.allocations++
	return &fakeStorage{}, nil
}

func (a *fakeBufferAlloc) Upload(s gpu_buffer.Storage, data []byte) error { return nil }

type fakeTarget struct{ w, h int }

func (t *fakeTarget) Width() int  { return t.w }
func (t *fakeTarget) Height() int { return t.h }
func (t *fakeTarget) Release()    {}

type fakeTextureAlloc struct{ created int }

func (a *fakeTextureAlloc) AllocateTarget(label string, w, h int) (render_target.Target, error) {
	a.created++
	return &fakeTarget{w, h}, nil
}

type harness struct {
	reg        registry.Registry
	kernel     *fakeKernel
	compositor *fakeCompositor
	buffers    *fakeBufferAlloc
	textures   *fakeTextureAlloc
	camera     camera.Camera
	width      int
	height     int
	r          Renderer
}

func newHarness(t *testing.T, opts ...RendererBuilderOption) *harness {
	t.Helper()
	h := &harness{
		reg:        registry.NewRegistry(),
		kernel:     newFakeKernel(),
		compositor: &fakeCompositor{},
		buffers:    &fakeBufferAlloc{},
		textures:   &fakeTextureAlloc{},
		camera:     camera.NewCamera(),
		width:      100,
		height:     40,
	}
	base := []RendererBuilderOption{
		WithRegistry(h.reg),
		WithKernel(h.kernel),
		WithCompositor(h.compositor),
		WithSizeSource(SizeFunc(func() (int, int) { return h.width, h.height })),
		WithCamera(h.camera),
		WithBufferAllocator(h.buffers),
		WithTextureAllocator(h.textures),
		WithRand(rand.New(rand.NewSource(1))),
	}
	r, err := NewRenderer(append(base, opts...)...)
	require.NoError(t, err)
	h.r = r
	return h
}

func (h *harness) render(t *testing.T) Result {
	t.Helper()
	res, err := h.r.RenderFrame()
	require.NoError(t, err)
	return res
}

func TestNewRendererRequiresCollaborators(t *testing.T) {
	_, err := NewRenderer()
	assert.ErrorIs(t, err, ErrNoKernel)

	_, err = NewRenderer(WithKernel(newFakeKernel()))
	assert.ErrorIs(t, err, ErrMissingCollaborator)
}

func TestFiveFramesAccumulate(t *testing.T) {
	h := newHarness(t)

	first := h.render(t)
	assert.True(t, first.Rendered)
	assert.True(t, first.Reset, "first frame creates the targets")
	assert.Equal(t, uint32(1), first.SampleCount)

	for i := 2; i <= 5; i++ {
		res := h.render(t)
		assert.False(t, res.Reset)
		assert.Equal(t, uint32(i), res.SampleCount)
	}

	want := []float32{1, 1.0 / 2, 1.0 / 3, 1.0 / 4, 1.0 / 5}
	require.Len(t, h.compositor.weights, 5)
	for i, w := range want {
		assert.InDelta(t, w, h.compositor.weights[i], 1e-7)
	}
	assert.InDelta(t, 1.0/6, h.r.Accumulation().BlendWeight(), 1e-7)
	assert.Equal(t, 5, h.compositor.presents)
	assert.Equal(t, uint64(5), h.r.Frames())
}

func TestDispatchAndBindings(t *testing.T) {
	h := newHarness(t, WithBounces(8))
	h.reg.Register(ray_object.NewRayObject(ray_object.WithMesh(mesh.Cube())))
	h.render(t)

	require.Len(t, h.kernel.dispatches, 1)
	assert.Equal(t, [3]uint32{7, 3, 1}, h.kernel.dispatches[0])

	assert.Equal(t, int32(8), h.kernel.ints[ParamNumBounces])
	assert.Contains(t, h.kernel.matrices, ParamCameraToWorld)
	assert.Contains(t, h.kernel.matrices, ParamCameraInverseProjection)
	assert.InDelta(t, -1, h.kernel.vectors[ParamDirectionalLight].Y(), 1e-5)
	assert.InDelta(t, 1, h.kernel.vectors[ParamDirectionalLight].W(), 1e-5)
	offset := h.kernel.vectors2[ParamPixelOffset]
	assert.True(t, offset.X() >= 0 && offset.X() < 1)
	assert.Contains(t, h.kernel.floats, ParamSeed)
	assert.Equal(t, 100, h.kernel.targets[ParamResult].Width())

	objects := h.kernel.buffers["_MeshObjects"]
	require.NotNil(t, objects)
	assert.Equal(t, 1, objects.Count())
	assert.Equal(t, 24, h.kernel.buffers["_Vertices"].Count())
	assert.Equal(t, 36, h.kernel.buffers["_Indices"].Count())
}

func TestEmptySceneBindsNoBuffers(t *testing.T) {
	h := newHarness(t)
	res := h.render(t)
	assert.True(t, res.Rendered)
	assert.Nil(t, h.kernel.buffers["_MeshObjects"])
	assert.Zero(t, h.buffers.allocations)
}

func TestInvalidationsReset(t *testing.T) {
	h := newHarness(t)
	h.render(t)
	h.render(t)
	require.Equal(t, uint32(2), h.r.Accumulation().SampleCount())

	h.camera.Transform().SetPosition(mgl32.Vec3{0, 1, 0})
	res := h.render(t)
	assert.True(t, res.Reset)
	assert.Equal(t, uint32(1), res.SampleCount)

	h.camera.SetFOV(30)
	res = h.render(t)
	assert.True(t, res.Reset)
	assert.Equal(t, uint32(1), res.SampleCount)

	h.reg.Register(ray_object.NewRayObject(ray_object.WithMesh(mesh.Quad())))
	res = h.render(t)
	assert.True(t, res.Rebuilt)
	assert.True(t, res.Reset)
	assert.Equal(t, uint32(1), res.SampleCount)

	h.width = 120
	res = h.render(t)
	assert.True(t, res.Reset)
	assert.Equal(t, uint32(1), res.SampleCount)
	assert.Equal(t, 2, h.r.Targets().Recreated())

	// everything at once still resets exactly to one fresh sample
	h.render(t)
	h.camera.Transform().SetPosition(mgl32.Vec3{0, 2, 0})
	h.camera.SetFOV(40)
	h.reg.Invalidate()
	h.height = 50
	res = h.render(t)
	assert.True(t, res.Reset)
	assert.Equal(t, uint32(1), res.SampleCount)
}

func TestZeroSizeIsNoop(t *testing.T) {
	h := newHarness(t)
	h.render(t)
	h.width = 0

	res := h.render(t)
	assert.False(t, res.Rendered)
	assert.Equal(t, uint32(1), res.SampleCount)
	assert.Len(t, h.kernel.dispatches, 1)
	assert.Equal(t, 1, h.compositor.presents)

	h.width = 100
	res = h.render(t)
	assert.True(t, res.Rendered)
	assert.Equal(t, uint32(2), res.SampleCount, "same size as before keeps the targets")
}

func TestBufferFailureSkipsFrameAndRetries(t *testing.T) {
	h := newHarness(t)
	h.render(t)
	h.render(t)

	h.buffers.fail = true
	h.reg.Register(ray_object.NewRayObject(ray_object.WithMesh(mesh.Cube())))
	res, err := h.r.RenderFrame()
	require.Error(t, err)
	assert.False(t, res.Rendered)
	assert.Equal(t, uint32(2), h.r.Accumulation().SampleCount(), "sample count untouched")
	assert.Len(t, h.kernel.dispatches, 2)
	assert.Equal(t, 1, h.compositor.discarded)
	assert.True(t, h.reg.Dirty(), "next frame retries the rebuild")

	h.buffers.fail = false
	res = h.render(t)
	assert.True(t, res.Rebuilt)
	assert.True(t, res.Rendered)
	assert.Equal(t, uint32(1), res.SampleCount)
}

func TestDispatchFailure(t *testing.T) {
	h := newHarness(t)
	h.render(t)
	h.kernel.failNext = true

	_, err := h.r.RenderFrame()
	require.Error(t, err)
	assert.Equal(t, uint32(1), h.r.Accumulation().SampleCount())
	assert.Equal(t, 1, h.compositor.discarded)
	assert.Len(t, h.compositor.weights, 1)
}

func TestSkippedObjectsReported(t *testing.T) {
	h := newHarness(t)
	lib := mesh.NewLibrary()
	h.reg.Register(ray_object.NewRayObject(ray_object.WithMesh(lib.Ref("missing"))))
	h.reg.Register(ray_object.NewRayObject(ray_object.WithMesh(lib.Ref("cube"))))

	res := h.render(t)
	require.Len(t, res.Skipped, 1)
	assert.ErrorIs(t, res.Skipped[0].Err, mesh.ErrMeshNotFound)
	assert.Equal(t, 1, h.kernel.buffers["_MeshObjects"].Count())
}

func TestMaxSamplesStopsDispatch(t *testing.T) {
	h := newHarness(t)
	h.r.Accumulation().SetMaxSamples(2)
	h.render(t)
	h.render(t)

	res := h.render(t)
	assert.False(t, res.Rendered)
	assert.Len(t, h.kernel.dispatches, 2)
	assert.Equal(t, 3, h.compositor.presents, "converged frames are still presented")

	h.camera.SetFOV(10)
	res = h.render(t)
	assert.True(t, res.Rendered)
	assert.Equal(t, uint32(1), res.SampleCount)
}

func TestSetBouncesClampsAndResets(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, DefaultBounces, h.r.Bounces())
	h.render(t)

	h.r.SetBounces(100)
	assert.Equal(t, MaxBounces, h.r.Bounces())
	assert.Zero(t, h.r.Accumulation().SampleCount())

	h.r.SetBounces(0)
	assert.Equal(t, MinBounces, h.r.Bounces())
}

func TestResetRequestedDuringFrameAppliesAtNextFrame(t *testing.T) {
	h := newHarness(t)
	h.compositor.onPresent = func(n int) error {
		if n == 6 {
			// arrives while the sixth frame is between blend and count
			h.r.Accumulation().RequestReset()
		}
		return nil
	}

	for i := 0; i < 6; i++ {
		h.render(t)
	}
	assert.Equal(t, uint32(6), h.r.Accumulation().SampleCount(), "the in-flight frame still counts")

	res := h.render(t)
	assert.True(t, res.Reset)
	assert.Equal(t, uint32(1), res.SampleCount)
	require.Len(t, h.compositor.weights, 7)
	assert.Equal(t, float32(1), h.compositor.weights[6], "the next frame replaces the old image")
}

func TestDroppedPresentIsNotCounted(t *testing.T) {
	h := newHarness(t)
	h.compositor.onPresent = func(n int) error {
		if n == 1 {
			return ErrNotPresented
		}
		return nil
	}

	res, err := h.r.RenderFrame()
	require.NoError(t, err)
	assert.False(t, res.Rendered)
	assert.Zero(t, res.SampleCount)
	assert.Zero(t, h.r.Frames())

	res = h.render(t)
	assert.True(t, res.Rendered)
	assert.Equal(t, uint32(1), res.SampleCount)
	assert.Equal(t, []float32{1, 1}, h.compositor.weights, "the replace frame is retried")
}

func TestPresentFailureIsNotCounted(t *testing.T) {
	h := newHarness(t)
	h.render(t)
	h.compositor.onPresent = func(int) error { return errors.New("surface lost") }

	res, err := h.r.RenderFrame()
	require.Error(t, err)
	assert.False(t, res.Rendered)
	assert.Equal(t, uint32(1), res.SampleCount)
}

func TestConvergedFrameToleratesDroppedPresent(t *testing.T) {
	h := newHarness(t)
	h.r.Accumulation().SetMaxSamples(1)
	h.render(t)
	h.compositor.onPresent = func(int) error { return ErrNotPresented }

	res, err := h.r.RenderFrame()
	require.NoError(t, err)
	assert.False(t, res.Rendered)
	assert.Equal(t, uint32(1), res.SampleCount)
}

type countingBuilder struct {
	scene_buffer.Builder
	builds   int
	releases int
}

func (b *countingBuilder) Build(objects []ray_object.RayObject) scene_buffer.Buffers {
	b.builds++
	return b.Builder.Build(objects)
}

func (b *countingBuilder) Release() {
	b.releases++
	b.Builder.Release()
}

func TestInjectedCollaboratorsAreUsedAndReleased(t *testing.T) {
	alloc := &fakeBufferAlloc{}
	textures := &fakeTextureAlloc{}
	buffers := gpu_buffer.NewManager(alloc)
	targets := render_target.NewManager(textures)
	builder := &countingBuilder{Builder: scene_buffer.NewBuilder()}
	reg := registry.NewRegistry()
	reg.Register(ray_object.NewRayObject(ray_object.WithMesh(mesh.Cube())))

	r, err := NewRenderer(
		WithRegistry(reg),
		WithKernel(newFakeKernel()),
		WithCompositor(&fakeCompositor{}),
		WithSizeSource(SizeFunc(func() (int, int) { return 32, 32 })),
		WithCamera(camera.NewCamera()),
		WithBufferManager(buffers),
		WithTargetManager(targets),
		WithBuilder(builder),
	)
	require.NoError(t, err, "managers stand in for the allocators")
	assert.Same(t, buffers, r.Buffers())
	assert.Same(t, targets, r.Targets())

	_, err = r.RenderFrame()
	require.NoError(t, err)
	assert.Equal(t, 1, builder.builds)
	assert.Equal(t, 2, textures.created, "raw and accumulated")
	assert.Positive(t, alloc.allocations)

	r.Release()
	assert.Equal(t, 1, builder.releases)
}

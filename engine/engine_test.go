package engine

import (
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-trace/common"
	"github.com/Carmen-Shannon/oxy-trace/engine/accumulation"
	"github.com/Carmen-Shannon/oxy-trace/engine/camera"
	"github.com/Carmen-Shannon/oxy-trace/engine/frame"
	"github.com/Carmen-Shannon/oxy-trace/engine/material"
	"github.com/Carmen-Shannon/oxy-trace/engine/mesh"
	"github.com/Carmen-Shannon/oxy-trace/engine/ray_object"
	"github.com/Carmen-Shannon/oxy-trace/engine/registry"
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer/gpu_buffer"
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer/render_target"
	"github.com/Carmen-Shannon/oxy-trace/engine/window"
)

type fakeWindow struct {
	mu    sync.Mutex
	title string

	onUpdate    func()
	onResize    func(width, height int)
	onScroll    func(delta float32)
	onKeyDown   func(keyCode uint32)
	onMouseDown func(button window.MouseButton, x, y int32)
	onMouseUp   func(button window.MouseButton, x, y int32)
	onMouseMove func(x, y int32)

	closed chan struct{}
	once   sync.Once
}

func newFakeWindow() *fakeWindow {
	return &fakeWindow{title: "test", closed: make(chan struct{})}
}

func (w *fakeWindow) SetUpdateCallback(cb func())                  { w.onUpdate = cb }
func (w *fakeWindow) SetResizeCallback(cb func(width, height int)) { w.onResize = cb }
func (w *fakeWindow) SetScrollCallback(cb func(delta float32))     { w.onScroll = cb }
func (w *fakeWindow) SetKeyDownCallback(cb func(keyCode uint32))   { w.onKeyDown = cb }
func (w *fakeWindow) SetKeyUpCallback(func(keyCode uint32))        {}
func (w *fakeWindow) SetMouseDownCallback(cb func(button window.MouseButton, x, y int32)) {
	w.onMouseDown = cb
}
func (w *fakeWindow) SetMouseUpCallback(cb func(button window.MouseButton, x, y int32)) {
	w.onMouseUp = cb
}
func (w *fakeWindow) SetMouseMoveCallback(cb func(x, y int32)) { w.onMouseMove = cb }

func (w *fakeWindow) SetTitle(title string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.title = title
}

func (w *fakeWindow) Title() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.title
}

func (w *fakeWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor { return nil }
func (w *fakeWindow) IsRunning() bool {
	select {
	case <-w.closed:
		return false
	default:
		return true
	}
}
func (w *fakeWindow) RequestClose() { w.once.Do(func() { close(w.closed) }) }
func (w *fakeWindow) Close() error  { w.RequestClose(); return nil }
func (w *fakeWindow) Width() int    { return 64 }
func (w *fakeWindow) Height() int   { return 64 }

func (w *fakeWindow) ProcessMessages() {
	for w.IsRunning() {
		if w.onUpdate != nil {
			w.onUpdate()
		}
		time.Sleep(time.Millisecond)
	}
}

var _ window.Window = &fakeWindow{}

type fakeRenderer struct {
	acc      accumulation.Controller
	bounces  int
	frames   atomic.Uint64
	released atomic.Bool

	onFrame func(n uint64) (frame.Result, error)
}

func newFakeRenderer() *fakeRenderer {
	return &fakeRenderer{acc: accumulation.NewController(), bounces: frame.DefaultBounces}
}

func (r *fakeRenderer) RenderFrame() (frame.Result, error) {
	n := r.frames.Add(1)
	if r.onFrame != nil {
		return r.onFrame(n)
	}
	r.acc.RecordFrameRendered()
	return frame.Result{Rendered: true, SampleCount: r.acc.SampleCount()}, nil
}

func (r *fakeRenderer) Accumulation() accumulation.Controller { return r.acc }
func (r *fakeRenderer) Buffers() gpu_buffer.Manager           { return nil }
func (r *fakeRenderer) Targets() render_target.Manager        { return nil }
func (r *fakeRenderer) Bounces() int                          { return r.bounces }
func (r *fakeRenderer) SetBounces(n int) {
	r.bounces = common.ClampInt(n, frame.MinBounces, frame.MaxBounces)
}
func (r *fakeRenderer) Frames() uint64 { return r.frames.Load() }
func (r *fakeRenderer) Release()       { r.released.Store(true) }

var _ frame.Renderer = &fakeRenderer{}

type fakeSurface struct {
	mu       sync.Mutex
	sizes    [][2]int
	released bool
}

func (s *fakeSurface) Resize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sizes = append(s.sizes, [2]int{width, height})
}

func (s *fakeSurface) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.released = true
}

func runWithTimeout(t *testing.T, e Engine) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		e.Run()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("engine did not stop")
	}
}

func TestNewEngineRequiresWindowAndRenderer(t *testing.T) {
	_, err := NewEngine(WithFrameRenderer(newFakeRenderer()))
	assert.Error(t, err)

	_, err = NewEngine(WithWindow(newFakeWindow()))
	assert.Error(t, err)
}

func TestRunRendersUntilQuitAndReleases(t *testing.T) {
	w := newFakeWindow()
	r := newFakeRenderer()
	s := &fakeSurface{}
	e, err := NewEngine(WithWindow(w), WithFrameRenderer(r), WithSurface(s))
	require.NoError(t, err)

	var results []frame.Result
	e.SetRenderCallback(func(res frame.Result, err error) {
		results = append(results, res)
		if len(results) == 5 {
			e.Quit()
		}
	})
	runWithTimeout(t, e)

	assert.GreaterOrEqual(t, len(results), 5)
	assert.True(t, r.released.Load())
	assert.True(t, s.released)
	assert.False(t, w.IsRunning())
}

func TestWindowCloseStopsRenderLoop(t *testing.T) {
	w := newFakeWindow()
	r := newFakeRenderer()
	e, err := NewEngine(WithWindow(w), WithFrameRenderer(r))
	require.NoError(t, err)

	e.SetRenderCallback(func(res frame.Result, err error) {
		if res.SampleCount == 3 {
			w.RequestClose()
		}
	})
	runWithTimeout(t, e)
	assert.True(t, r.released.Load())
}

func TestRenderPanicQuits(t *testing.T) {
	w := newFakeWindow()
	r := newFakeRenderer()
	r.onFrame = func(n uint64) (frame.Result, error) {
		panic("device lost")
	}
	e, err := NewEngine(WithWindow(w), WithFrameRenderer(r))
	require.NoError(t, err)

	runWithTimeout(t, e)
	assert.True(t, r.released.Load())
}

func TestConsecutiveFrameErrorsQuit(t *testing.T) {
	w := newFakeWindow()
	r := newFakeRenderer()
	r.onFrame = func(n uint64) (frame.Result, error) {
		return frame.Result{}, errors.New("present failed")
	}
	e, err := NewEngine(WithWindow(w), WithFrameRenderer(r), WithMaxFrameErrors(3))
	require.NoError(t, err)

	runWithTimeout(t, e)
	assert.Equal(t, uint64(3), r.Frames())
}

func TestResizeIsAppliedOnRenderGoroutine(t *testing.T) {
	w := newFakeWindow()
	r := newFakeRenderer()
	s := &fakeSurface{}
	e, err := NewEngine(WithWindow(w), WithFrameRenderer(r), WithSurface(s))
	require.NoError(t, err)

	// only the latest pending size is applied
	w.onResize(100, 50)
	w.onResize(200, 100)

	e.SetRenderCallback(func(res frame.Result, err error) {
		e.Quit()
	})
	runWithTimeout(t, e)

	require.Len(t, s.sizes, 1)
	assert.Equal(t, [2]int{200, 100}, s.sizes[0])
}

func TestTitleShowsSampleCount(t *testing.T) {
	w := newFakeWindow()
	r := newFakeRenderer()
	e, err := NewEngine(WithWindow(w), WithFrameRenderer(r), WithTitle("oxy"))
	require.NoError(t, err)

	impl := e.(*engine)
	impl.samples.Store(12)
	w.onUpdate()
	assert.Equal(t, "oxy | 12 samples | 4 bounces", w.Title())
}

func TestKeysChangeBouncesAndReset(t *testing.T) {
	w := newFakeWindow()
	r := newFakeRenderer()
	_, err := NewEngine(WithWindow(w), WithFrameRenderer(r))
	require.NoError(t, err)

	w.onKeyDown(common.KeyRightBracket)
	assert.Equal(t, 5, r.Bounces())
	w.onKeyDown(common.KeyLeftBracket)
	w.onKeyDown(common.KeyLeftBracket)
	assert.Equal(t, 3, r.Bounces())

	r.acc.RecordFrameRendered()
	r.acc.RecordFrameRendered()
	w.onKeyDown(common.KeyR)
	assert.Equal(t, uint32(2), r.acc.SampleCount(), "the reset waits for the next frame")
	assert.True(t, r.acc.PollInvalidations(60))
	assert.Equal(t, uint32(0), r.acc.SampleCount())
}

func TestProfilerToggle(t *testing.T) {
	w := newFakeWindow()
	e, err := NewEngine(WithWindow(w), WithFrameRenderer(newFakeRenderer()))
	require.NoError(t, err)

	impl := e.(*engine)
	assert.False(t, impl.profilingEnabled.Load())
	w.onKeyDown(common.KeyP)
	assert.True(t, impl.profilingEnabled.Load())
	w.onKeyDown(common.KeyP)
	assert.False(t, impl.profilingEnabled.Load())
}

func TestRerollInvalidatesRegistry(t *testing.T) {
	reg := registry.NewRegistry()
	random := ray_object.NewRayObject(
		ray_object.WithMesh(mesh.Cube()),
		ray_object.WithGenerator(material.RandomGenerator, rand.New(rand.NewSource(1))),
	)
	fixed := ray_object.NewRayObject(ray_object.WithMesh(mesh.Cube()))
	reg.Register(random)
	reg.Register(fixed)
	reg.ConsumeDirty()

	w := newFakeWindow()
	_, err := NewEngine(WithWindow(w), WithFrameRenderer(newFakeRenderer()),
		WithRegistry(reg), WithRand(rand.New(rand.NewSource(2))))
	require.NoError(t, err)

	before := fixed.Material()
	w.onKeyDown(common.KeyM)
	assert.True(t, reg.Dirty())
	assert.Equal(t, before, fixed.Material())
}

func TestRerollWithoutRandomObjectsKeepsRegistryClean(t *testing.T) {
	reg := registry.NewRegistry()
	reg.Register(ray_object.NewRayObject(ray_object.WithMesh(mesh.Cube())))
	reg.ConsumeDirty()

	w := newFakeWindow()
	_, err := NewEngine(WithWindow(w), WithFrameRenderer(newFakeRenderer()), WithRegistry(reg))
	require.NoError(t, err)

	w.onKeyDown(common.KeyM)
	assert.False(t, reg.Dirty())
}

func TestInputDrivesCamera(t *testing.T) {
	cam := camera.NewCamera()
	oc := camera.NewOrbitController(cam.Transform())
	w := newFakeWindow()
	_, err := NewEngine(WithWindow(w), WithFrameRenderer(newFakeRenderer()), WithCamera(cam, oc))
	require.NoError(t, err)

	fov := cam.FOV()
	w.onScroll(1)
	assert.Equal(t, fov-fovStep, cam.FOV())

	azimuth := oc.Azimuth()
	w.onKeyDown(common.KeyA)
	assert.NotEqual(t, azimuth, oc.Azimuth())

	// moving without a held button does nothing
	azimuth = oc.Azimuth()
	w.onMouseMove(10, 10)
	assert.Equal(t, azimuth, oc.Azimuth())

	w.onMouseDown(window.MouseButtonLeft, 10, 10)
	w.onMouseMove(40, 10)
	assert.NotEqual(t, azimuth, oc.Azimuth())

	w.onMouseUp(window.MouseButtonLeft, 40, 10)
	azimuth = oc.Azimuth()
	w.onMouseMove(80, 10)
	assert.Equal(t, azimuth, oc.Azimuth())

	radius := oc.Radius()
	w.onKeyDown(common.KeyE)
	assert.Less(t, oc.Radius(), radius)
}

func TestSetRenderFrameLimit(t *testing.T) {
	e, err := NewEngine(WithWindow(newFakeWindow()), WithFrameRenderer(newFakeRenderer()), WithRenderFrameLimit(50))
	require.NoError(t, err)
	impl := e.(*engine)
	assert.Equal(t, 20*time.Millisecond, impl.renderFrameLimit)

	e.SetRenderFrameLimit(0)
	assert.Equal(t, time.Duration(0), impl.renderFrameLimit)
}

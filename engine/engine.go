package engine

import (
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-trace/common"
	"github.com/Carmen-Shannon/oxy-trace/engine/camera"
	"github.com/Carmen-Shannon/oxy-trace/engine/frame"
	"github.com/Carmen-Shannon/oxy-trace/engine/profiler"
	"github.com/Carmen-Shannon/oxy-trace/engine/registry"
	"github.com/Carmen-Shannon/oxy-trace/engine/window"
	"github.com/Carmen-Shannon/oxy-trace/log"
)

var logger = log.New("engine")

const (
	// fovStep is the field of view change, in degrees, per scroll notch.
	fovStep = 2

	// idleSleep is how long the render loop rests when the image has converged.
	idleSleep = 16 * time.Millisecond

	defaultMaxFrameErrors = 120
)

// Surface is the presentation side of the GPU renderer the engine keeps in step with the
// window.
type Surface interface {
	// Resize reconfigures the presentation surface. Called from the render goroutine.
	Resize(width, height int)

	// Release frees the device and surface.
	Release()
}

// engine implements the Engine interface.
// Coordinates the render goroutine with the window's message loop.
type engine struct {
	wg sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	window   window.Window
	surface  Surface
	renderer frame.Renderer
	registry registry.Registry
	camera   camera.Camera
	orbit    camera.OrbitController

	rng *rand.Rand

	profiler         *profiler.Profiler
	profilingEnabled atomic.Bool

	baseTitle        string
	renderCallback   func(res frame.Result, err error)
	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
	maxFrameErrors   int

	// pendingResize carries the latest window size to the render goroutine.
	pendingResize chan [2]int

	// samples mirrors the accumulated sample count for the title bar.
	samples atomic.Uint32
	shown   uint32

	inputMu  sync.Mutex
	dragging window.MouseButton
	dragOn   bool
	lastX    int32
	lastY    int32
}

// Engine drives the progressive renderer: it renders frames on its own goroutine for as long
// as the window is open and translates window input into camera, accumulation and scene
// changes.
type Engine interface {
	// Window returns the underlying window.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Renderer returns the frame renderer.
	//
	// Returns:
	//   - frame.Renderer: the frame renderer
	Renderer() frame.Renderer

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetRenderCallback registers the function called after each render frame with the
	// frame's result.
	//
	// Parameters:
	//   - callback: function to call each render frame
	SetRenderCallback(callback func(res frame.Result, err error))

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// HandleKey applies the action bound to a key.
	//
	// Parameters:
	//   - keyCode: one of the common.Key* codes
	HandleKey(keyCode uint32)

	// Run starts the render goroutine and processes window messages until the window
	// closes or Quit is called, then releases the renderer. Must be called from the thread
	// that created the window.
	Run()

	// Quit signals the render goroutine to stop and asks the window to close.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

var _ Engine = &engine{}

// NewEngine creates a new Engine. A window and a frame renderer are required.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
//   - error: an error if a required collaborator is missing
func NewEngine(options ...EngineBuilderOption) (Engine, error) {
	e := &engine{
		quitChannel:    make(chan struct{}),
		pendingResize:  make(chan [2]int, 1),
		profiler:       profiler.NewProfiler(),
		maxFrameErrors: defaultMaxFrameErrors,
	}

	for _, opt := range options {
		opt(e)
	}

	switch {
	case e.window == nil:
		return nil, fmt.Errorf("engine: a window is required")
	case e.renderer == nil:
		return nil, fmt.Errorf("engine: a frame renderer is required")
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if e.baseTitle == "" {
		e.baseTitle = e.window.Title()
	}

	e.window.SetResizeCallback(e.onResize)
	e.window.SetUpdateCallback(e.updateTitle)
	e.window.SetKeyDownCallback(e.HandleKey)
	e.window.SetScrollCallback(e.onScroll)
	e.window.SetMouseDownCallback(e.onMouseDown)
	e.window.SetMouseUpCallback(e.onMouseUp)
	e.window.SetMouseMoveCallback(e.onMouseMove)

	return e, nil
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Renderer() frame.Renderer {
	return e.renderer
}

func (e *engine) Run() {
	e.handle()
	e.window.ProcessMessages()

	// The window closed on its own or after Quit; either way stop rendering first.
	e.signalQuit()
	e.wg.Wait()
	e.release()
}

func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
// Uses sync.Once to ensure the channel is only closed once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

// handle launches the render and quit goroutines.
// Each goroutine is tracked by the engine's WaitGroup.
func (e *engine) handle() {
	e.wg.Add(2)
	go e.handleRender()
	go e.handleQuit()
}

// handleRender runs the uncapped (or frame-limited) render loop in its own goroutine.
// Recovers from panics to avoid crashing the process and signals quit on recovery.
func (e *engine) handleRender() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("render goroutine recovered from panic: %v", r)
			e.signalQuit()
		}
	}()

	consecutiveErrors := 0
	for {
		select {
		case <-e.quitChannel:
			return
		default:
		}

		frameStart := time.Now()
		e.applyResize()

		res, err := e.renderer.RenderFrame()
		e.samples.Store(res.SampleCount)
		if err != nil {
			consecutiveErrors++
			logger.Warningf("frame failed (%d in a row): %v", consecutiveErrors, err)
			if e.maxFrameErrors > 0 && consecutiveErrors >= e.maxFrameErrors {
				logger.Errorf("giving up after %d failed frames", consecutiveErrors)
				e.signalQuit()
			}
		} else {
			consecutiveErrors = 0
		}

		if e.renderCallback != nil {
			e.renderCallback(res, err)
		}

		if e.profilingEnabled.Load() && e.profiler != nil {
			e.profiler.Record(res)
		}

		// A converged image only needs presenting; don't spin the GPU.
		limit := e.renderFrameLimit
		if err == nil && !res.Rendered && e.renderer.Accumulation().Converged() && limit < idleSleep {
			limit = idleSleep
		}
		if limit > 0 {
			if remaining := limit - time.Since(frameStart); remaining > 0 {
				time.Sleep(remaining)
			}
		}
	}
}

// handleQuit blocks until the quit channel is closed, then asks the window loop to return.
func (e *engine) handleQuit() {
	defer e.wg.Done()
	<-e.quitChannel
	e.window.RequestClose()
}

// release frees GPU resources once the render goroutine has stopped.
func (e *engine) release() {
	e.renderer.Release()
	if e.surface != nil {
		e.surface.Release()
	}
	logger.Infof("rendered %d frames", e.renderer.Frames())
}

// onResize runs on the window thread; the surface is reconfigured by the render goroutine.
func (e *engine) onResize(width, height int) {
	select {
	case <-e.pendingResize:
	default:
	}
	e.pendingResize <- [2]int{width, height}
}

func (e *engine) applyResize() {
	select {
	case size := <-e.pendingResize:
		if e.surface != nil {
			e.surface.Resize(size[0], size[1])
		}
	default:
	}
}

// updateTitle runs once per window loop iteration and rewrites the title when the sample
// count changed.
func (e *engine) updateTitle() {
	n := e.samples.Load()
	if n == e.shown {
		return
	}
	e.shown = n
	e.window.SetTitle(formatTitle(e.baseTitle, n, e.renderer.Bounces()))
}

func formatTitle(base string, samples uint32, bounces int) string {
	return fmt.Sprintf("%s | %d samples | %d bounces", base, samples, bounces)
}

func (e *engine) HandleKey(keyCode uint32) {
	switch keyCode {
	case common.KeyR:
		e.renderer.Accumulation().RequestReset()
	case common.KeyM:
		e.rerollMaterials()
	case common.KeyP:
		if e.profilingEnabled.Load() {
			e.DisableProfiler()
		} else {
			e.EnableProfiler()
		}
	case common.KeyLeftBracket:
		e.renderer.SetBounces(e.renderer.Bounces() - 1)
	case common.KeyRightBracket:
		e.renderer.SetBounces(e.renderer.Bounces() + 1)
	}

	if e.orbit == nil {
		return
	}
	switch keyCode {
	case common.KeyA:
		e.orbit.OrbitLeft()
	case common.KeyD:
		e.orbit.OrbitRight()
	case common.KeyW:
		e.orbit.OrbitUp()
	case common.KeyS:
		e.orbit.OrbitDown()
	case common.KeyQ:
		e.orbit.Zoom(-1)
	case common.KeyE:
		e.orbit.Zoom(1)
	case common.KeyLeft:
		e.orbit.PanRight(-1)
	case common.KeyRight:
		e.orbit.PanRight(1)
	case common.KeyUp:
		e.orbit.PanUp(1)
	case common.KeyDown:
		e.orbit.PanUp(-1)
	}
}

// rerollMaterials draws a new material for every object that opted into random materials.
func (e *engine) rerollMaterials() {
	if e.registry == nil {
		return
	}
	changed := 0
	for _, obj := range e.registry.Objects() {
		if obj.Reroll(e.rng) {
			changed++
		}
	}
	if changed > 0 {
		e.registry.Invalidate()
		logger.Debugf("re-rolled %d materials", changed)
	}
}

func (e *engine) onScroll(delta float32) {
	if e.camera == nil {
		return
	}
	e.camera.SetFOV(e.camera.FOV() - delta*fovStep)
}

func (e *engine) onMouseDown(button window.MouseButton, x, y int32) {
	e.inputMu.Lock()
	defer e.inputMu.Unlock()
	if e.dragOn {
		return
	}
	e.dragOn = true
	e.dragging = button
	e.lastX, e.lastY = x, y
}

func (e *engine) onMouseUp(button window.MouseButton, _, _ int32) {
	e.inputMu.Lock()
	defer e.inputMu.Unlock()
	if e.dragOn && e.dragging == button {
		e.dragOn = false
	}
}

// onMouseMove orbits while the left button is held and pans while the middle or right
// button is held.
func (e *engine) onMouseMove(x, y int32) {
	e.inputMu.Lock()
	dx, dy := float32(x-e.lastX), float32(y-e.lastY)
	e.lastX, e.lastY = x, y
	on, button := e.dragOn, e.dragging
	e.inputMu.Unlock()

	if !on || e.orbit == nil || (dx == 0 && dy == 0) {
		return
	}
	switch button {
	case window.MouseButtonLeft:
		e.orbit.Drag(dx, dy)
	default:
		e.orbit.PanRight(-dx * 0.1)
		e.orbit.PanUp(dy * 0.1)
	}
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled.Store(true)
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled.Store(false)
}

func (e *engine) SetRenderCallback(callback func(res frame.Result, err error)) {
	e.renderCallback = callback
}

// SetRenderFrameLimit sets an optional render frame rate cap.
// Pass 0 to uncap the render loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
}

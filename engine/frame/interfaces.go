package frame

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/oxy-trace/engine/renderer/gpu_buffer"
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer/render_target"
)

// Kernel parameter names. Setting a name the kernel does not declare is ignored.
const (
	ParamCameraToWorld           = "_CameraToWorld"
	ParamCameraInverseProjection = "_CameraInverseProjection"
	ParamDirectionalLight        = "_DirectionalLight"
	ParamPixelOffset             = "_PixelOffset"
	ParamSeed                    = "_Seed"
	ParamNumBounces              = "_numBounces"
	ParamResult                  = "Result"
)

// TileSize is the edge length, in pixels, of the square workgroup the kernel runs per tile.
const TileSize = 16

// Kernel is the ray-tracing compute program. Parameters are set by name and stay set until
// overwritten; Dispatch runs the program with whatever is currently bound.
type Kernel interface {
	SetMatrix(name string, m mgl32.Mat4)
	SetVector(name string, v mgl32.Vec4)
	SetVector2(name string, v mgl32.Vec2)
	SetFloat(name string, f float32)
	SetInt(name string, v int32)

	// SetBuffer binds a scene buffer. A nil handle marks the buffer as absent; the kernel
	// then sees an empty array.
	SetBuffer(name string, h *gpu_buffer.Handle)

	// SetTarget binds the image the kernel writes to.
	SetTarget(name string, t render_target.Target)

	// Dispatch queues the kernel over x * y * z workgroups.
	//
	// Parameters:
	//   - x, y, z: the workgroup counts
	//
	// Returns:
	//   - error: an error if the dispatch could not be recorded
	Dispatch(x, y, z uint32) error
}

// Compositor runs the full-screen passes that follow the kernel.
type Compositor interface {
	// Blend folds raw into accumulated with the given weight, so the accumulated image stays
	// an equal-weight running average when weight is 1 / (samples + 1). A weight of 1
	// replaces the accumulated image.
	//
	// Parameters:
	//   - raw: the image the kernel just wrote
	//   - accumulated: the running average
	//   - weight: the weight of raw in (0, 1]
	//
	// Returns:
	//   - error: an error if the pass could not be recorded
	Blend(raw, accumulated render_target.Target, weight float32) error

	// Present copies accumulated to the output and submits the frame.
	//
	// Parameters:
	//   - accumulated: the image to show
	//
	// Returns:
	//   - error: ErrNotPresented when the output is unavailable and the frame's recorded work
	//     was dropped, or an error if the frame could not be presented
	Present(accumulated render_target.Target) error
}

// Discarder is implemented by backends that record a frame's GPU work lazily and can drop it
// when the frame fails half way.
type Discarder interface {
	DiscardFrame()
}

// SizeSource reports the current output resolution. Zero means the output is unavailable.
type SizeSource interface {
	Width() int
	Height() int
}

// SizeFunc adapts a function to SizeSource.
type SizeFunc func() (width, height int)

func (f SizeFunc) Width() int {
	w, _ := f()
	return w
}

func (f SizeFunc) Height() int {
	_, h := f()
	return h
}

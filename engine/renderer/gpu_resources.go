package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-trace/engine/renderer/gpu_buffer"
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer/render_target"
	"github.com/cogentcore/webgpu/wgpu"
)

// storageBuffer is a read-only storage buffer holding one scene array.
type storageBuffer struct {
	buffer *wgpu.Buffer
	size   uint64
}

var _ gpu_buffer.Storage = &storageBuffer{}

func (s *storageBuffer) Release() {
	if s.buffer != nil {
		s.buffer.Release()
		s.buffer = nil
	}
}

// storageTarget is a 2D floating point image the kernel writes and the composite passes read.
type storageTarget struct {
	texture *wgpu.Texture
	view    *wgpu.TextureView
	width   int
	height  int
}

var _ render_target.Target = &storageTarget{}

func (t *storageTarget) Width() int {
	return t.width
}

func (t *storageTarget) Height() int {
	return t.height
}

// swap exchanges the images behind t and other. Both must have the same size.
func (t *storageTarget) swap(other *storageTarget) {
	t.texture, other.texture = other.texture, t.texture
	t.view, other.view = other.view, t.view
}

func (t *storageTarget) Release() {
	if t.view != nil {
		t.view.Release()
		t.view = nil
	}
	if t.texture != nil {
		t.texture.Release()
		t.texture = nil
	}
}

// gpuAllocator implements the scene buffer and render target allocation interfaces on top
// of the backend.
type gpuAllocator struct {
	backend wgpuRendererBackend
}

var (
	_ gpu_buffer.Allocator           = &gpuAllocator{}
	_ render_target.TextureAllocator = &gpuAllocator{}
)

func (a *gpuAllocator) Allocate(label string, size uint64) (gpu_buffer.Storage, error) {
	buf, err := a.backend.CreateBuffer(label, size, wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst)
	if err != nil {
		return nil, err
	}
	return &storageBuffer{buffer: buf, size: size}, nil
}

func (a *gpuAllocator) Upload(s gpu_buffer.Storage, data []byte) error {
	sb, ok := s.(*storageBuffer)
	if !ok {
		return ErrForeignResource
	}
	if sb.buffer == nil {
		return ErrReleased
	}
	if uint64(len(data)) > sb.size {
		return fmt.Errorf("renderer: upload of %d bytes into a %d byte buffer", len(data), sb.size)
	}
	a.backend.WriteBuffer(sb.buffer, data)
	return nil
}

func (a *gpuAllocator) AllocateTarget(label string, width, height int) (render_target.Target, error) {
	if width <= 0 || height <= 0 {
		return nil, render_target.ErrNoTarget
	}
	tex, view, err := a.backend.CreateStorageTexture(label, width, height, TargetFormat)
	if err != nil {
		return nil, err
	}
	return &storageTarget{texture: tex, view: view, width: width, height: height}, nil
}

// bufferOf returns the GPU buffer behind h, or nil for an absent or foreign handle.
func bufferOf(h *gpu_buffer.Handle) *wgpu.Buffer {
	sb, ok := h.Storage().(*storageBuffer)
	if !ok || sb == nil {
		return nil
	}
	return sb.buffer
}

// viewOf returns the texture view behind t.
func viewOf(t render_target.Target) (*wgpu.TextureView, error) {
	st, ok := t.(*storageTarget)
	if !ok || st == nil {
		return nil, ErrForeignResource
	}
	if st.view == nil {
		return nil, ErrReleased
	}
	return st.view, nil
}

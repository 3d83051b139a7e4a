package bind_group_provider

import (
	"sort"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
)

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	mu    *sync.Mutex
	label string

	// bindGroup is rebuilt by the backend whenever dirty is raised.
	bindGroup       *wgpu.BindGroup
	bindGroupLayout *wgpu.BindGroupLayout

	// buffers and textureViews are borrowed; their owners release them.
	buffers      map[int]*wgpu.Buffer
	textureViews map[int]*wgpu.TextureView

	dirty   bool
	rebuilt int
}

// BindGroupProvider holds the resources bound at each binding of one bind group and the GPU
// bind group built from them. Setting a different resource at a binding marks the provider
// dirty; the backend then rebuilds the bind group before its next use.
//
// The provider does not own the buffers and texture views it references, only the bind
// group itself.
type BindGroupProvider interface {
	// Release frees the bind group. Referenced resources are left alone.
	Release()

	// Label returns the debug label for this provider.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// BindGroup returns the current bind group, or nil before the first build.
	//
	// Returns:
	//   - *wgpu.BindGroup: the bind group or nil
	BindGroup() *wgpu.BindGroup

	// BindGroupLayout returns the layout bind groups are built against.
	//
	// Returns:
	//   - *wgpu.BindGroupLayout: the layout or nil
	BindGroupLayout() *wgpu.BindGroupLayout

	// SetBindGroupLayout replaces the layout and marks the provider dirty.
	//
	// Parameters:
	//   - layout: the bind group layout
	SetBindGroupLayout(layout *wgpu.BindGroupLayout)

	// Buffer returns the buffer bound at binding.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.Buffer: the buffer or nil
	Buffer(binding int) *wgpu.Buffer

	// SetBuffer binds buf at binding. Binding the buffer that is already there is a no-op.
	//
	// Parameters:
	//   - binding: the binding index
	//   - buf: the buffer to bind
	SetBuffer(binding int, buf *wgpu.Buffer)

	// TextureView returns the texture view bound at binding.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.TextureView: the view or nil
	TextureView(binding int) *wgpu.TextureView

	// SetTextureView binds view at binding. Binding the view that is already there is a no-op.
	//
	// Parameters:
	//   - binding: the binding index
	//   - view: the texture view to bind
	SetTextureView(binding int, view *wgpu.TextureView)

	// Entries returns one entry per bound resource, ordered by binding.
	//
	// Returns:
	//   - []wgpu.BindGroupEntry: the bind group entries
	Entries() []wgpu.BindGroupEntry

	// Dirty reports whether the bind group must be rebuilt before use.
	Dirty() bool

	// SetBindGroup stores a freshly built bind group, releasing the previous one, and clears
	// the dirty flag.
	//
	// Parameters:
	//   - bg: the new bind group
	SetBindGroup(bg *wgpu.BindGroup)

	// Rebuilt returns how many bind groups have been stored over the provider's lifetime.
	Rebuilt() int
}

var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates a BindGroupProvider with the given options applied.
//
// Parameters:
//   - opts: variadic list of BindGroupProviderOption functions to configure the provider
//
// Returns:
//   - BindGroupProvider: a new provider, dirty until its first bind group is stored
func NewBindGroupProvider(opts ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		mu:           &sync.Mutex{},
		buffers:      make(map[int]*wgpu.Buffer),
		textureViews: make(map[int]*wgpu.TextureView),
		dirty:        true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *bindGroupProvider) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	p.dirty = true
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) BindGroup() *wgpu.BindGroup {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bindGroup
}

func (p *bindGroupProvider) BindGroupLayout() *wgpu.BindGroupLayout {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bindGroupLayout
}

func (p *bindGroupProvider) SetBindGroupLayout(layout *wgpu.BindGroupLayout) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bindGroupLayout = layout
	p.dirty = true
}

func (p *bindGroupProvider) Buffer(binding int) *wgpu.Buffer {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buffers[binding]
}

func (p *bindGroupProvider) SetBuffer(binding int, buf *wgpu.Buffer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if current, ok := p.buffers[binding]; ok && current == buf {
		return
	}
	if buf == nil {
		delete(p.buffers, binding)
	} else {
		p.buffers[binding] = buf
	}
	p.dirty = true
}

func (p *bindGroupProvider) TextureView(binding int) *wgpu.TextureView {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.textureViews[binding]
}

func (p *bindGroupProvider) SetTextureView(binding int, view *wgpu.TextureView) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if current, ok := p.textureViews[binding]; ok && current == view {
		return
	}
	if view == nil {
		delete(p.textureViews, binding)
	} else {
		p.textureViews[binding] = view
	}
	p.dirty = true
}

func (p *bindGroupProvider) Entries() []wgpu.BindGroupEntry {
	p.mu.Lock()
	defer p.mu.Unlock()

	entries := make([]wgpu.BindGroupEntry, 0, len(p.buffers)+len(p.textureViews))
	for binding, buf := range p.buffers {
		entries = append(entries, wgpu.BindGroupEntry{
			Binding: uint32(binding),
			Buffer:  buf,
			Offset:  0,
			Size:    wgpu.WholeSize,
		})
	}
	for binding, view := range p.textureViews {
		entries = append(entries, wgpu.BindGroupEntry{
			Binding:     uint32(binding),
			TextureView: view,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Binding < entries[j].Binding
	})
	return entries
}

func (p *bindGroupProvider) Dirty() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dirty || p.bindGroup == nil
}

func (p *bindGroupProvider) SetBindGroup(bg *wgpu.BindGroup) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bindGroup != nil && p.bindGroup != bg {
		p.bindGroup.Release()
	}
	p.bindGroup = bg
	p.dirty = false
	p.rebuilt++
}

func (p *bindGroupProvider) Rebuilt() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rebuilt
}

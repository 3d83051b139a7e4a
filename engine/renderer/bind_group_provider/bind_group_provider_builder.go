package bind_group_provider

import "github.com/cogentcore/webgpu/wgpu"

// BindGroupProviderOption is a functional option used to configure a BindGroupProvider during construction.
type BindGroupProviderOption func(*bindGroupProvider)

// WithLabel sets the debug label for this provider.
//
// Parameters:
//   - label: the debug label
//
// Returns:
//   - BindGroupProviderOption: a function that sets the label
func WithLabel(label string) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.label = label
	}
}

// WithBindGroupLayout sets the layout bind groups are built against.
//
// Parameters:
//   - bgl: the bind group layout to use for this provider
//
// Returns:
//   - BindGroupProviderOption: a function that sets the bind group layout for this provider
func WithBindGroupLayout(bgl *wgpu.BindGroupLayout) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.bindGroupLayout = bgl
	}
}

// WithBuffer binds a buffer at a binding index.
//
// Parameters:
//   - binding: the binding index for this buffer
//   - buf: the buffer to associate with this binding
//
// Returns:
//   - BindGroupProviderOption: a function that sets the buffer for the specified binding
func WithBuffer(binding int, buf *wgpu.Buffer) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		if buf != nil {
			p.buffers[binding] = buf
		}
	}
}

// WithTextureView binds a texture view at a binding index.
//
// Parameters:
//   - binding: the binding index for this view
//   - view: the texture view to associate with this binding
//
// Returns:
//   - BindGroupProviderOption: a function that sets the view for the specified binding
func WithTextureView(binding int, view *wgpu.TextureView) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		if view != nil {
			p.textureViews[binding] = view
		}
	}
}

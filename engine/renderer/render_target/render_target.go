// Package render_target owns the two equally sized images the tracer writes to: the raw
// per-frame result and the accumulated, progressively converged result.
package render_target

import (
	"errors"
	"fmt"
	"sync"
)

// ErrNoTarget is returned by EnsureTargets while the output has no drawable area.
var ErrNoTarget = errors.New("render_target: output size is zero")

// Target is a GPU image writable from the render kernel.
type Target interface {
	// Width returns the width in pixels.
	Width() int

	// Height returns the height in pixels.
	Height() int

	// Release frees the image. Calling Release more than once must be safe.
	Release()
}

// TextureAllocator creates render targets.
type TextureAllocator interface {
	// AllocateTarget creates a floating-point image of the given size with random-access
	// write enabled.
	//
	// Parameters:
	//   - label: a debug label
	//   - width: the width in pixels
	//   - height: the height in pixels
	//
	// Returns:
	//   - Target: the new image
	//   - error: an error if the allocation failed
	AllocateTarget(label string, width, height int) (Target, error)
}

type manager struct {
	mu          *sync.Mutex
	alloc       TextureAllocator
	raw         Target
	accumulated Target
	recreated   int
}

// Manager owns the raw and accumulated targets and recreates both together whenever the
// output size changes.
type Manager interface {
	// EnsureTargets returns targets of exactly width x height, recreating both when they
	// are missing or sized differently. When either dimension is not positive nothing is
	// released and ErrNoTarget is returned.
	//
	// Parameters:
	//   - width: the output width in pixels
	//   - height: the output height in pixels
	//
	// Returns:
	//   - Target: the raw target
	//   - Target: the accumulated target
	//   - bool: true if the targets were (re)created; accumulated samples are then invalid
	//   - error: ErrNoTarget, or an allocation error
	EnsureTargets(width, height int) (raw, accumulated Target, resized bool, err error)

	// Recreated returns how many times the target pair has been created.
	Recreated() int

	// Release frees both targets.
	Release()
}

var _ Manager = &manager{}

// NewManager creates a Manager that allocates through alloc.
//
// Parameters:
//   - alloc: the texture allocator
//
// Returns:
//   - Manager: the new manager
func NewManager(alloc TextureAllocator) Manager {
	return &manager{
		mu:    &sync.Mutex{},
		alloc: alloc,
	}
}

func (m *manager) EnsureTargets(width, height int) (Target, Target, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if width <= 0 || height <= 0 {
		return nil, nil, false, ErrNoTarget
	}
	if m.raw != nil && m.accumulated != nil &&
		m.raw.Width() == width && m.raw.Height() == height &&
		m.accumulated.Width() == width && m.accumulated.Height() == height {
		return m.raw, m.accumulated, false, nil
	}

	m.release()
	if m.alloc == nil {
		return nil, nil, false, errors.New("render_target: no allocator")
	}

	raw, err := m.alloc.AllocateTarget("Raw Target", width, height)
	if err != nil {
		return nil, nil, false, fmt.Errorf("render_target: allocate raw %dx%d: %w", width, height, err)
	}
	acc, err := m.alloc.AllocateTarget("Accumulated Target", width, height)
	if err != nil {
		raw.Release()
		return nil, nil, false, fmt.Errorf("render_target: allocate accumulated %dx%d: %w", width, height, err)
	}

	m.raw, m.accumulated = raw, acc
	m.recreated++
	return raw, acc, true, nil
}

func (m *manager) Recreated() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recreated
}

func (m *manager) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.release()
}

func (m *manager) release() {
	if m.raw != nil {
		m.raw.Release()
		m.raw = nil
	}
	if m.accumulated != nil {
		m.accumulated.Release()
		m.accumulated = nil
	}
}

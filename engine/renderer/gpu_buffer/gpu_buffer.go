// Package gpu_buffer owns the GPU storage buffers that hold the flattened scene. It decides,
// per array, whether the existing buffer can be reused, must be recreated, or must be
// released, and always re-uploads the full contents.
package gpu_buffer

import (
	"errors"
	"fmt"
)

var (
	// ErrSizeMismatch is returned when the data length does not equal count*stride.
	ErrSizeMismatch = errors.New("gpu_buffer: data length does not match count*stride")

	// ErrNoAllocator is returned when a manager is used without an allocator.
	ErrNoAllocator = errors.New("gpu_buffer: no allocator")
)

// Storage is an opaque GPU allocation.
type Storage interface {
	// Release frees the allocation. Calling Release more than once must be safe.
	Release()
}

// Allocator creates and fills GPU storage buffers.
type Allocator interface {
	// Allocate creates a storage buffer of size bytes.
	//
	// Parameters:
	//   - label: a debug label for the buffer
	//   - size: the buffer size in bytes
	//
	// Returns:
	//   - Storage: the new buffer
	//   - error: an error if the allocation failed
	Allocate(label string, size uint64) (Storage, error)

	// Upload writes data to the start of s.
	//
	// Parameters:
	//   - s: a buffer returned by Allocate
	//   - data: the bytes to write
	//
	// Returns:
	//   - error: an error if the write could not be queued
	Upload(s Storage, data []byte) error
}

// Handle is a GPU buffer holding count elements of stride bytes each.
type Handle struct {
	count   int
	stride  int
	storage Storage
}

// Count returns the number of elements.
func (h *Handle) Count() int {
	if h == nil {
		return 0
	}
	return h.count
}

// Stride returns the element size in bytes.
func (h *Handle) Stride() int {
	if h == nil {
		return 0
	}
	return h.stride
}

// Size returns count*stride.
func (h *Handle) Size() uint64 {
	return uint64(h.Count()) * uint64(h.Stride())
}

// Storage returns the underlying allocation.
func (h *Handle) Storage() Storage {
	if h == nil {
		return nil
	}
	return h.storage
}

// Release frees the underlying allocation. Safe on a nil handle and safe to repeat.
func (h *Handle) Release() {
	if h == nil || h.storage == nil {
		return
	}
	h.storage.Release()
	h.storage = nil
}

// Sync brings a buffer in line with new data.
//
//   - empty data releases existing and returns nil;
//   - a count or stride different from existing releases existing;
//   - without a usable buffer a new one of count*stride bytes is allocated;
//   - the full data is then uploaded.
//
// On failure any buffer involved is released and nil is returned with the error.
//
// Parameters:
//   - alloc: the allocator used to create and fill buffers
//   - label: a debug label for newly created buffers
//   - existing: the current handle, may be nil
//   - data: the new contents
//   - count: the number of elements in data
//   - stride: the element size in bytes
//
// Returns:
//   - *Handle: the handle now holding data, or nil
//   - bool: true if a new buffer was allocated
//   - error: an error if the data is malformed or the GPU rejected the allocation or upload
func Sync(alloc Allocator, label string, existing *Handle, data []byte, count, stride int) (*Handle, bool, error) {
	if count <= 0 || stride <= 0 || len(data) == 0 {
		existing.Release()
		return nil, false, nil
	}
	if len(data) != count*stride {
		existing.Release()
		return nil, false, fmt.Errorf("%w: %s has %d bytes for %d x %d", ErrSizeMismatch, label, len(data), count, stride)
	}
	if alloc == nil {
		existing.Release()
		return nil, false, ErrNoAllocator
	}

	if existing != nil && (existing.count != count || existing.stride != stride || existing.storage == nil) {
		existing.Release()
		existing = nil
	}

	allocated := false
	if existing == nil {
		s, err := alloc.Allocate(label, uint64(count)*uint64(stride))
		if err != nil {
			return nil, false, fmt.Errorf("gpu_buffer: allocate %s: %w", label, err)
		}
		existing = &Handle{count: count, stride: stride, storage: s}
		allocated = true
	}

	if err := alloc.Upload(existing.storage, data); err != nil {
		existing.Release()
		return nil, false, fmt.Errorf("gpu_buffer: upload %s: %w", label, err)
	}
	return existing, allocated, nil
}

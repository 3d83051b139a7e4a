// Package loader imports triangle models from glTF 2.0 files (.gltf with external or
// embedded buffers, and binary .glb) so scenes can trace more than the built-in primitives.
// Each file becomes one mesh in model space plus the material of its first primitive.
package loader

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-trace/engine/material"
	"github.com/Carmen-Shannon/oxy-trace/engine/mesh"
	"github.com/Carmen-Shannon/oxy-trace/log"
)

var logger = log.New("loader")

var (
	// ErrUnsupportedFormat is returned for a file extension no backend handles.
	ErrUnsupportedFormat = errors.New("loader: unsupported model format")

	// ErrNoGeometry is returned when a document contains no triangles.
	ErrNoGeometry = errors.New("loader: document contains no triangle geometry")
)

// Imported is one loaded model.
type Imported struct {
	// Name is the cache key and the name the mesh is stored under in the library.
	Name string

	// Source is the file the model was read from, empty for reader imports.
	Source string

	// Mesh is the whole default scene of the file with node transforms baked in.
	Mesh mesh.Mesh

	// Material is derived from the first primitive's material when HasMaterial is set.
	Material    material.Material
	HasMaterial bool

	// SkippedPrimitives counts point and line primitives that were left out.
	SkippedPrimitives int
}

// LoaderBackendType identifies the model file format backend to use.
type LoaderBackendType int

const (
	// BackendTypeGLTF selects the glTF/GLB loader backend.
	BackendTypeGLTF LoaderBackendType = iota
)

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	library mesh.Library

	cache map[string]*Imported

	backends map[LoaderBackendType]loaderBackend
}

// Loader loads model files and caches the results by name. When a mesh.Library is
// attached, every loaded mesh is also added to it so objects can reference it by name.
type Loader interface {
	// Load imports a model file named after its base name without extension.
	//
	// Parameters:
	//   - path: the file path to the model file
	//
	// Returns:
	//   - *Imported: the loaded or cached model
	//   - error: error if loading fails
	Load(path string) (*Imported, error)

	// LoadNamed imports a model file under an explicit name. If the name is already cached
	// the cached model is returned without reading the file.
	// The backend is selected from the file extension (.gltf/.glb → glTF backend).
	//
	// Parameters:
	//   - name: the cache key and library name
	//   - path: the file path to the model file
	//
	// Returns:
	//   - *Imported: the loaded or cached model
	//   - error: error if loading fails
	LoadNamed(name, path string) (*Imported, error)

	// LoadReader imports a model from a reader stream and caches it by the given name,
	// replacing any previous entry.
	//
	// Parameters:
	//   - name: the cache key and library name
	//   - r: the reader providing model data
	//   - isGLB: true if the reader provides GLB binary data
	//
	// Returns:
	//   - *Imported: the loaded model
	//   - error: error if loading fails
	LoadReader(name string, r io.Reader, isGLB bool) (*Imported, error)

	// Get retrieves a cached model by name.
	//
	// Parameters:
	//   - name: the cache key to look up
	//
	// Returns:
	//   - *Imported: the cached model or nil
	//   - bool: true if the name was found
	Get(name string) (*Imported, bool)

	// Names returns the cached model names in sorted order.
	Names() []string
}

var _ Loader = &loader{}

// NewLoader creates a new Loader with the glTF backend and the options applied.
//
// Parameters:
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new instance of Loader
func NewLoader(options ...LoaderBuilderOption) Loader {
	l := &loader{
		cache: make(map[string]*Imported),
		backends: map[LoaderBackendType]loaderBackend{
			BackendTypeGLTF: newGLTFLoaderBackend(),
		},
	}

	for _, option := range options {
		option(l)
	}
	return l
}

func (l *loader) Load(path string) (*Imported, error) {
	return l.LoadNamed(gltfModelName(path), path)
}

func (l *loader) LoadNamed(name, path string) (*Imported, error) {
	l.mu.RLock()
	cached, ok := l.cache[name]
	l.mu.RUnlock()
	if ok {
		return cached, nil
	}

	backend, err := l.resolveBackend(path)
	if err != nil {
		return nil, err
	}

	imported, err := backend.Load(name, path)
	if err != nil {
		return nil, err
	}
	imported.Source = path

	l.store(imported)
	return imported, nil
}

func (l *loader) LoadReader(name string, r io.Reader, isGLB bool) (*Imported, error) {
	imported, err := l.backends[BackendTypeGLTF].LoadReader(name, r, isGLB, ".")
	if err != nil {
		return nil, err
	}

	l.store(imported)
	return imported, nil
}

func (l *loader) Get(name string) (*Imported, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	imported, ok := l.cache[name]
	return imported, ok
}

func (l *loader) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	names := make([]string, 0, len(l.cache))
	for name := range l.cache {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (l *loader) store(imported *Imported) {
	l.mu.Lock()
	l.cache[imported.Name] = imported
	l.mu.Unlock()

	if l.library != nil {
		l.library.Add(imported.Name, imported.Mesh)
	}

	if imported.SkippedPrimitives > 0 {
		logger.Warningf("model %s: skipped %d non-triangle primitives", imported.Name, imported.SkippedPrimitives)
	}
	logger.Infof("imported model %s: %d vertices, %d triangles",
		imported.Name, imported.Mesh.VertexCount(), imported.Mesh.IndexCount()/3)
}

// resolveBackend selects an appropriate loader backend based on the file extension.
func (l *loader) resolveBackend(path string) (loaderBackend, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".gltf", ".glb":
		return l.backends[BackendTypeGLTF], nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

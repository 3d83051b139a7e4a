package loader

import "io"

// loaderBackend imports one model file format into triangle geometry and a material.
// Concrete implementations (e.g., gltfLoaderBackend) handle format-specific details.
type loaderBackend interface {
	// Load imports the model at path.
	//
	// Parameters:
	//   - name: the name given to the model and its mesh
	//   - path: the file path to load
	//
	// Returns:
	//   - *Imported: the imported model
	//   - error: error if loading fails
	Load(name, path string) (*Imported, error)

	// LoadReader imports a model from a reader stream.
	//
	// Parameters:
	//   - name: the name given to the model and its mesh
	//   - r: the reader providing model data
	//   - isGLB: true if the reader provides GLB binary data, false for text-based formats
	//   - baseDir: directory external resources are resolved against
	//
	// Returns:
	//   - *Imported: the imported model
	//   - error: error if loading fails
	LoadReader(name string, r io.Reader, isGLB bool, baseDir string) (*Imported, error)
}

package loader

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-trace/engine/mesh"
)

// gltfImporterImpl is the implementation of the gltfImporter interface.
type gltfImporterImpl struct{}

// gltfImporter runs the parser and both extractors to produce an Imported model.
type gltfImporter interface {
	// Import loads a glTF/GLB file.
	//
	// Parameters:
	//   - name: the name given to the model and its mesh
	//   - path: the file path to the glTF or GLB file
	//
	// Returns:
	//   - *Imported: the imported model
	//   - error: error if import fails
	Import(name, path string) (*Imported, error)

	// ImportReader loads a glTF document from a reader.
	//
	// Parameters:
	//   - name: the name given to the model and its mesh
	//   - r: the reader providing glTF/GLB data
	//   - isGLB: true if the reader provides GLB binary data
	//   - baseDir: directory relative buffer URIs resolve against
	//
	// Returns:
	//   - *Imported: the imported model
	//   - error: error if import fails
	ImportReader(name string, r io.Reader, isGLB bool, baseDir string) (*Imported, error)
}

var _ gltfImporter = &gltfImporterImpl{}

// newGLTFImporter creates a new glTF importer.
func newGLTFImporter() gltfImporter {
	return &gltfImporterImpl{}
}

func (imp *gltfImporterImpl) Import(name, path string) (*Imported, error) {
	parser := newGLTFParser()
	if err := parser.Parse(path); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return imp.importFromParser(parser, name)
}

func (imp *gltfImporterImpl) ImportReader(name string, r io.Reader, isGLB bool, baseDir string) (*Imported, error) {
	parser := newGLTFParser()
	if err := parser.ParseReader(r, isGLB, baseDir); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return imp.importFromParser(parser, name)
}

func (imp *gltfImporterImpl) importFromParser(parser gltfParser, name string) (*Imported, error) {
	geo, err := newGLTFMeshExtractor(parser).ExtractScene()
	if err != nil {
		return nil, fmt.Errorf("mesh extraction failed: %w", err)
	}

	m := mesh.NewMesh(name, geo.vertices, geo.indices)
	if err := mesh.Validate(m); err != nil {
		return nil, err
	}

	imported := &Imported{
		Name:              name,
		Mesh:              m,
		SkippedPrimitives: geo.skipped,
	}
	if geo.material >= 0 {
		mat, err := newGLTFMaterialExtractor(parser).ExtractMaterial(geo.material)
		if err != nil {
			return nil, fmt.Errorf("material extraction failed: %w", err)
		}
		imported.Material = mat
		imported.HasMaterial = true
	}
	return imported, nil
}

// gltfModelName derives a model name from the file name without its extension.
func gltfModelName(path string) string {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if name == "" || name == "." {
		return "unnamed_model"
	}
	return name
}

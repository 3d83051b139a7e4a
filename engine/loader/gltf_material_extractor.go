package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-trace/engine/material"
)

// gltfMaterialExtractorImpl is the implementation of the gltfMaterialExtractor interface.
type gltfMaterialExtractorImpl struct {
	parser gltfParser
}

// gltfMaterialExtractor converts glTF metallic-roughness factors into ray tracer materials.
type gltfMaterialExtractor interface {
	// ExtractMaterial converts one material. The base color splits between albedo and
	// specular by the metallic factor, smoothness is 1 - roughness, and emission is the
	// emissive factor scaled by KHR_materials_emissive_strength when present. Textures are
	// ignored and every channel is clamped to [0,1].
	//
	// Parameters:
	//   - materialIndex: the index of the material in the document
	//
	// Returns:
	//   - material.Material: the converted material
	//   - error: error if the index is out of range
	ExtractMaterial(materialIndex int) (material.Material, error)
}

var _ gltfMaterialExtractor = &gltfMaterialExtractorImpl{}

// newGLTFMaterialExtractor creates a new material extractor for a parsed document.
func newGLTFMaterialExtractor(parser gltfParser) gltfMaterialExtractor {
	return &gltfMaterialExtractorImpl{parser: parser}
}

func (e *gltfMaterialExtractorImpl) ExtractMaterial(materialIndex int) (material.Material, error) {
	doc := e.parser.Document()
	if doc == nil {
		return material.Material{}, errNoDocument
	}
	if materialIndex < 0 || materialIndex >= len(doc.Materials) {
		return material.Material{}, fmt.Errorf("material index %d out of range", materialIndex)
	}

	src := &doc.Materials[materialIndex]

	// glTF defaults: white base color, fully metallic, fully rough.
	base := [3]float32{1, 1, 1}
	metallic := float32(1)
	roughness := float32(1)
	if pbr := src.PbrMetallicRoughness; pbr != nil {
		if pbr.BaseColorFactor != nil {
			base = [3]float32{pbr.BaseColorFactor[0], pbr.BaseColorFactor[1], pbr.BaseColorFactor[2]}
		}
		if pbr.MetallicFactor != nil {
			metallic = *pbr.MetallicFactor
		}
		if pbr.RoughnessFactor != nil {
			roughness = *pbr.RoughnessFactor
		}
	}

	var emissive [3]float32
	if src.EmissiveFactor != nil {
		emissive = *src.EmissiveFactor
	}
	strength := float32(1)
	if ext := src.Extensions; ext != nil && ext.EmissiveStrength != nil {
		strength = ext.EmissiveStrength.EmissiveStrength
	}

	var m material.Material
	for i := 0; i < 3; i++ {
		m.Albedo[i] = base[i] * (1 - metallic)
		m.Specular[i] = base[i] * metallic
		m.Emission[i] = emissive[i] * strength
	}
	m.Smoothness = 1 - roughness
	return m.Clamped(), nil
}

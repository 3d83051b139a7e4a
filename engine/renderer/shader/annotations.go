// annotations.go defines the @oxy: comment annotations understood by the pre-processor.
// Annotations are single-line WGSL comments, so an unprocessed shader is still valid WGSL
// apart from the missing includes.
package shader

import (
	"fmt"
	"strconv"
	"strings"
)

// annotationPrefix marks an annotation inside a WGSL line comment.
const annotationPrefix = "@oxy:"

// AnnotationType identifies the kind of annotation parsed from a WGSL comment line.
type AnnotationType string

const (
	// AnnotationTypeInclude injects a registered WGSL source at the annotation site.
	//
	// Syntax: //@oxy:include <name>
	AnnotationTypeInclude AnnotationType = "include"

	// AnnotationTypeBindingGroup generates a @group/@binding variable declaration and is
	// recorded in the pre-processor's declarations list.
	//
	// Syntax: //@oxy:group <group> <binding> <address_space> <var_name> <type>
	//
	// Example: //@oxy:group 0 1 storage_read _MeshObjects array<MeshObject>
	AnnotationTypeBindingGroup AnnotationType = "group"
)

// Address space arguments accepted by AnnotationTypeBindingGroup.
const (
	AddressSpaceUniform          = "uniform"
	AddressSpaceStorageRead      = "storage_read"
	AddressSpaceStorageReadWrite = "storage_read_write"
)

var addressSpaceSyntax = map[string]string{
	AddressSpaceUniform:          "var<uniform>",
	AddressSpaceStorageRead:      "var<storage, read>",
	AddressSpaceStorageReadWrite: "var<storage, read_write>",
}

// Annotation is one parsed @oxy: line.
type Annotation struct {
	Type AnnotationType
	Line int

	// Name is the include name for AnnotationTypeInclude and the variable name for
	// AnnotationTypeBindingGroup.
	Name string

	Group        int
	Binding      int
	AddressSpace string
	WGSLType     string
}

// parseAnnotation parses a single source line. Lines without the annotation prefix return
// a nil annotation and no error.
//
// Parameters:
//   - line: the source line
//   - lineNum: the 1-based line number for error reporting
//
// Returns:
//   - *Annotation: the parsed annotation, or nil if the line is not an annotation
//   - error: a descriptive error if the annotation is malformed
func parseAnnotation(line string, lineNum int) (*Annotation, error) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "//") {
		return nil, nil
	}
	_, after, ok := strings.Cut(trimmed, annotationPrefix)
	if !ok {
		return nil, nil
	}

	args := strings.Fields(after)
	if len(args) == 0 {
		return nil, fmt.Errorf("line %d: empty @oxy annotation", lineNum)
	}

	switch AnnotationType(args[0]) {
	case AnnotationTypeInclude:
		if len(args) != 2 {
			return nil, fmt.Errorf("line %d: @oxy include annotation requires exactly one argument", lineNum)
		}
		return &Annotation{Type: AnnotationTypeInclude, Line: lineNum, Name: args[1]}, nil
	case AnnotationTypeBindingGroup:
		if len(args) != 6 {
			return nil, fmt.Errorf("line %d: @oxy group annotation requires group, binding, address space, name and type", lineNum)
		}
		group, err := strconv.Atoi(args[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid group number %q: %w", lineNum, args[1], err)
		}
		binding, err := strconv.Atoi(args[2])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid binding number %q: %w", lineNum, args[2], err)
		}
		if _, ok := addressSpaceSyntax[args[3]]; !ok {
			return nil, fmt.Errorf("line %d: unknown address space %q", lineNum, args[3])
		}
		return &Annotation{
			Type:         AnnotationTypeBindingGroup,
			Line:         lineNum,
			Name:         args[4],
			Group:        group,
			Binding:      binding,
			AddressSpace: args[3],
			WGSLType:     args[5],
		}, nil
	default:
		return nil, fmt.Errorf("line %d: unknown @oxy annotation type %q", lineNum, args[0])
	}
}

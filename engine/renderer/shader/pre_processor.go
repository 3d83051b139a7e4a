// pre_processor.go expands @oxy: annotations into plain WGSL. Includes are resolved from a
// registry of named WGSL snippets, normally the struct definitions embedded next to the Go
// types that marshal them, so host and shader layouts share one source.
package shader

import (
	"fmt"
	"strings"
)

type preProcessor struct {
	includes     map[string]string
	declarations []Annotation
}

// PreProcessor rewrites WGSL source containing @oxy: annotations.
type PreProcessor interface {
	// Process replaces include annotations with the registered source and group
	// annotations with generated declarations. Each name is included at most once per
	// call; repeated includes expand to nothing.
	//
	// Parameters:
	//   - source: the raw WGSL source
	//
	// Returns:
	//   - string: the processed WGSL source
	//   - error: an error if an annotation is malformed or names an unknown include
	Process(source string) (string, error)

	// Declarations returns the group annotations collected by the most recent Process call,
	// in source order.
	Declarations() []Annotation

	// Register adds or replaces a named include.
	//
	// Parameters:
	//   - name: the include name used after @oxy:include
	//   - source: the WGSL source to inject
	Register(name, source string)
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a PreProcessor with the given includes registered.
//
// Parameters:
//   - options: variadic list of PreProcessorOption functions
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor instance
func NewPreProcessor(options ...PreProcessorOption) PreProcessor {
	p := &preProcessor{
		includes: make(map[string]string),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// PreProcessorOption configures a pre-processor during construction.
type PreProcessorOption func(*preProcessor)

// WithInclude registers a named WGSL snippet.
//
// Parameters:
//   - name: the include name
//   - source: the WGSL source to inject
//
// Returns:
//   - PreProcessorOption: a function that registers the include
func WithInclude(name, source string) PreProcessorOption {
	return func(p *preProcessor) {
		p.includes[name] = source
	}
}

func (p *preProcessor) Register(name, source string) {
	p.includes[name] = source
}

func (p *preProcessor) Declarations() []Annotation {
	return p.declarations
}

func (p *preProcessor) Process(source string) (string, error) {
	p.declarations = nil
	included := make(map[string]bool)

	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))
	for i, line := range lines {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return "", err
		}
		if a == nil {
			out = append(out, line)
			continue
		}

		switch a.Type {
		case AnnotationTypeInclude:
			src, ok := p.includes[a.Name]
			if !ok {
				return "", fmt.Errorf("line %d: unknown @oxy:include %q", a.Line, a.Name)
			}
			if included[a.Name] {
				continue
			}
			included[a.Name] = true
			out = append(out, strings.TrimRight(src, "\n"))
		case AnnotationTypeBindingGroup:
			out = append(out, fmt.Sprintf("@group(%d) @binding(%d) %s %s: %s;",
				a.Group, a.Binding, addressSpaceSyntax[a.AddressSpace], a.Name, a.WGSLType))
			p.declarations = append(p.declarations, *a)
		}
	}
	return strings.Join(out, "\n"), nil
}

//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/gogpu/naga"
)

// shaderSources lists every embedded WGSL source by name, for startup
// validation and diagnostics.
var shaderSources = map[string]string{
	"node":        shaderNode,
	"edge":        shaderEdge,
	"gui":         shaderGUI,
	"sobel":       shaderSobel,
	"blur":        shaderBlur,
	"select_rect": shaderSelectRect,
	"translate":   shaderTranslate,
	"edge_curve":  shaderEdgeCurve,
}

// ShaderNames returns the names of all embedded shaders.
func ShaderNames() []string {
	names := make([]string, 0, len(shaderSources))
	for name := range shaderSources {
		names = append(names, name)
	}
	return names
}

// ShaderSource returns the WGSL source of a named embedded shader.
func ShaderSource(name string) (string, bool) {
	src, ok := shaderSources[name]
	return src, ok
}

// ValidateShaders runs every embedded shader through the WGSL
// compiler without a device, so a bad shader fails at startup instead
// of at first use. Returns the first compile error.
func ValidateShaders() error {
	for name, src := range shaderSources {
		if src == "" {
			return fmt.Errorf("gpu: shader %q is empty", name)
		}
		if _, err := naga.Compile(src); err != nil {
			return fmt.Errorf("gpu: shader %q: %w", name, err)
		}
	}
	return nil
}

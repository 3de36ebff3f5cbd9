// Package inspect provides device tree inspection and variable manipulation.
//
// The inspect package offers a unified interface for:
//   - Parsing path expressions (e.g., "Root/Lmk04828/LmkReg0139")
//   - Resolving paths to devices, variables and commands
//   - Reading and writing variables, with or without hardware access
//   - Formatting output for display
package inspect

import (
	"errors"
	"strings"
)

// Path errors.
var (
	ErrEmptyPath   = errors.New("empty path")
	ErrInvalidPath = errors.New("invalid path format")
)

// Path is a parsed slash-separated tree path.
// The last segment may name a device, a variable or a command.
type Path struct {
	// Segments are the path components in order.
	Segments []string

	// Raw stores the original input string.
	Raw string
}

// ParsePath parses a path string.
//
// Supported formats:
//   - "Root/Lmk04828/LmkReg0139" - absolute, starting at the root name
//   - "Lmk04828/LmkReg0139" - relative to the root
//   - "Lmk04828[1]" - a device instance
func ParsePath(input string) (*Path, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ErrEmptyPath
	}

	if strings.HasPrefix(input, "/") || strings.HasSuffix(input, "/") || strings.Contains(input, "//") {
		return nil, ErrInvalidPath
	}

	segments := strings.Split(input, "/")
	for _, seg := range segments {
		if strings.ContainsAny(seg, " \t") {
			return nil, ErrInvalidPath
		}
	}

	return &Path{Segments: segments, Raw: input}, nil
}

// Last returns the final segment.
func (p *Path) Last() string {
	return p.Segments[len(p.Segments)-1]
}

// Parent returns all segments but the last, joined with "/".
func (p *Path) Parent() string {
	return strings.Join(p.Segments[:len(p.Segments)-1], "/")
}

// String returns the normalized path.
func (p *Path) String() string {
	return strings.Join(p.Segments, "/")
}

package inspect

import (
	"fmt"
	"strings"
)

// Formatter formats inspection output.
type Formatter struct {
	// ShowMetadata includes class, address and flags.
	ShowMetadata bool

	// MaxVariables limits the variable rows printed per device (0 = all).
	MaxVariables int

	// IndentWidth is the number of spaces per indent level.
	IndentWidth int
}

// NewFormatter creates a new Formatter with default settings.
func NewFormatter() *Formatter {
	return &Formatter{
		ShowMetadata: true,
		IndentWidth:  2,
	}
}

// Indent returns the content with indentation.
func (f *Formatter) Indent(depth int, content string) string {
	width := f.IndentWidth
	if width == 0 {
		width = 2
	}
	return strings.Repeat(" ", depth*width) + content
}

// FormatVariable formats one variable row.
func (f *Formatter) FormatVariable(row VariableInfo) string {
	s := fmt.Sprintf("%s = %s", row.Name, row.Value)
	if !f.ShowMetadata {
		return s
	}

	var meta []string
	meta = append(meta, row.Class.String())
	if row.Address != nil {
		meta = append(meta, fmt.Sprintf("@0x%08x", *row.Address))
	}
	if row.PerInstance {
		meta = append(meta, "per-instance")
	}
	if row.Hidden {
		meta = append(meta, "hidden")
	}
	return s + " (" + strings.Join(meta, ", ") + ")"
}

// FormatVariables formats variable rows, one per line.
func (f *Formatter) FormatVariables(depth int, rows []VariableInfo) string {
	if len(rows) == 0 {
		return f.Indent(depth, "(no variables)") + "\n"
	}

	var sb strings.Builder
	for n, row := range rows {
		if f.MaxVariables > 0 && n == f.MaxVariables {
			sb.WriteString(f.Indent(depth, fmt.Sprintf("... %d more", len(rows)-n)))
			sb.WriteString("\n")
			break
		}
		sb.WriteString(f.Indent(depth, f.FormatVariable(row)))
		sb.WriteString("\n")
	}
	return sb.String()
}

// FormatDevice formats a device subtree.
func (f *Formatter) FormatDevice(info DeviceInfo) string {
	var sb strings.Builder
	f.formatDevice(&sb, 0, info)
	return sb.String()
}

func (f *Formatter) formatDevice(sb *strings.Builder, depth int, info DeviceInfo) {
	header := info.Path
	if info.Description != "" {
		header += " - " + info.Description
	}
	if !info.Enabled {
		header += " [disabled]"
	}
	sb.WriteString(f.Indent(depth, header))
	sb.WriteString("\n")

	if f.ShowMetadata && info.Registers > 0 {
		sb.WriteString(f.Indent(depth+1, fmt.Sprintf("registers: %d", info.Registers)))
		sb.WriteString("\n")
	}
	if len(info.Commands) > 0 {
		sb.WriteString(f.Indent(depth+1, "commands: "+strings.Join(info.Commands, ", ")))
		sb.WriteString("\n")
	}
	sb.WriteString(f.FormatVariables(depth+1, info.Variables))

	for _, c := range info.Children {
		f.formatDevice(sb, depth+1, c)
	}
}

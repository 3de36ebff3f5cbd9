package inspect

import (
	"context"
	"errors"
	"fmt"

	"github.com/jesd204b/lmk-go/pkg/model"
)

// Inspector errors.
var (
	ErrNotFound    = errors.New("no device, variable or command at path")
	ErrNotVariable = errors.New("path does not name a variable")
	ErrNotCommand  = errors.New("path does not name a command")
)

// Inspector resolves paths against a device tree.
type Inspector struct {
	root *model.Device
}

// NewInspector creates an Inspector rooted at root.
func NewInspector(root *model.Device) *Inspector {
	return &Inspector{root: root}
}

// Root returns the tree root.
func (i *Inspector) Root() *model.Device {
	return i.root
}

// Target is what a path resolved to. Device is always set; at most one of
// Variable and Command is.
type Target struct {
	Device   *model.Device
	Variable *model.Variable
	Command  *model.Command
}

// Resolve finds the device, variable or command a path names. A leading
// segment equal to the root's instance name is optional.
func (i *Inspector) Resolve(p *Path) (*Target, error) {
	segments := p.Segments
	if segments[0] == i.root.InstanceName() {
		segments = segments[1:]
	}
	if len(segments) == 0 {
		return &Target{Device: i.root}, nil
	}

	parent := i.root
	for _, seg := range segments[:len(segments)-1] {
		next, err := parent.Device(seg)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, p.Raw)
		}
		parent = next
	}

	last := segments[len(segments)-1]
	if dev, err := parent.Device(last); err == nil {
		return &Target{Device: dev}, nil
	}
	if v, err := parent.Variable(last); err == nil {
		return &Target{Device: parent, Variable: v}, nil
	}
	for _, c := range parent.Commands() {
		if c.Name() == last {
			return &Target{Device: parent, Command: c}, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, p.Raw)
}

// ResolveString parses and resolves a path string.
func (i *Inspector) ResolveString(path string) (*Target, error) {
	p, err := ParsePath(path)
	if err != nil {
		return nil, err
	}
	return i.Resolve(p)
}

func (i *Inspector) variable(path string) (*Target, error) {
	t, err := i.ResolveString(path)
	if err != nil {
		return nil, err
	}
	if t.Variable == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotVariable, path)
	}
	return t, nil
}

// Get returns the cached value of the variable at path.
func (i *Inspector) Get(path string) (string, error) {
	t, err := i.variable(path)
	if err != nil {
		return "", err
	}
	return t.Variable.Value(), nil
}

// Set changes the cached value of the variable at path without touching hardware.
func (i *Inspector) Set(path, value string) error {
	t, err := i.variable(path)
	if err != nil {
		return err
	}
	return t.Variable.SetValue(value)
}

// Read refreshes a register-backed variable from hardware and returns its value.
// Plain variables are returned as cached.
func (i *Inspector) Read(ctx context.Context, path string) (string, error) {
	t, err := i.variable(path)
	if err != nil {
		return "", err
	}
	if r := t.Variable.Register(); r != nil {
		if err := t.Device.ReadRegister(ctx, r); err != nil {
			return "", err
		}
	}
	return t.Variable.Value(), nil
}

// Write sets the variable at path and, if it is register-backed, commits the
// register to hardware.
func (i *Inspector) Write(ctx context.Context, path, value string) error {
	t, err := i.variable(path)
	if err != nil {
		return err
	}
	if err := t.Variable.SetValue(value); err != nil {
		return err
	}
	if r := t.Variable.Register(); r != nil {
		return t.Device.WriteRegister(ctx, r, true)
	}
	return nil
}

// Exec dispatches the command at path.
func (i *Inspector) Exec(ctx context.Context, path, arg string) error {
	t, err := i.ResolveString(path)
	if err != nil {
		return err
	}
	if t.Command == nil {
		return fmt.Errorf("%w: %s", ErrNotCommand, path)
	}
	return t.Device.Command(ctx, t.Command.Name(), arg)
}

// VariableInfo is a display row for one variable.
type VariableInfo struct {
	Name        string
	Value       string
	Class       model.VariableClass
	Hidden      bool
	PerInstance bool
	Address     *uint32 // nil for plain variables
}

// DeviceInfo is a display node for one device.
type DeviceInfo struct {
	Path        string
	Description string
	Enabled     bool
	Registers   int
	Variables   []VariableInfo
	Commands    []string
	Children    []DeviceInfo
}

// Variables returns display rows for the variables of dev. Hidden variables are
// skipped unless showHidden is set.
func (i *Inspector) Variables(dev *model.Device, showHidden bool) []VariableInfo {
	var rows []VariableInfo
	for _, v := range dev.Variables() {
		if v.Hidden() && !showHidden {
			continue
		}
		row := VariableInfo{
			Name:        v.Name(),
			Value:       v.Value(),
			Class:       v.Class(),
			Hidden:      v.Hidden(),
			PerInstance: v.PerInstance(),
		}
		if r := v.Register(); r != nil {
			addr := r.Address()
			row.Address = &addr
		}
		rows = append(rows, row)
	}
	return rows
}

// Inspect returns the subtree rooted at dev.
func (i *Inspector) Inspect(dev *model.Device, showHidden bool) DeviceInfo {
	info := DeviceInfo{
		Path:        dev.Path(),
		Description: dev.Description(),
		Enabled:     dev.Enabled(),
		Registers:   dev.RegisterCount(),
		Variables:   i.Variables(dev, showHidden),
	}
	for _, c := range dev.Commands() {
		info.Commands = append(info.Commands, c.Name())
	}
	for _, c := range dev.Devices() {
		info.Children = append(info.Children, i.Inspect(c, showHidden))
	}
	return info
}

package model

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jesd204b/lmk-go/pkg/bus"
	"github.com/jesd204b/lmk-go/pkg/log"
)

// Device errors.
var (
	ErrDeviceNotFound  = errors.New("device not found")
	ErrDuplicateDevice = errors.New("duplicate device")
	ErrNoBus           = errors.New("no bus attached to device tree")
	ErrDeviceCycle     = errors.New("device is an ancestor of its new parent")
)

// EnabledVariable is the name of the variable every device inherits.
const EnabledVariable = "Enabled"

// wordStride is the address distance between words of a multi-word register.
const wordStride = 4

// Device is a node in the hardware control tree.
type Device struct {
	mu sync.RWMutex

	name        string
	description string
	linkConfig  uint32
	baseAddress uint32
	index       uint32

	parent   *Device
	children []*Device

	// Registers indexed by name.
	registers map[string]*Register

	// Variables indexed by name, with insertion order kept for listings.
	variables map[string]*Variable
	varOrder  []string

	// Commands indexed by name, with insertion order kept for listings.
	commands map[string]*Command
	cmdOrder []string

	// regMu is the register lock held across multi-register updates.
	regMu sync.Mutex

	// Set on roots only; other devices inherit from their ancestors.
	bus       bus.Bus
	logger    log.Logger
	sessionID string
}

// NewDevice creates a detached device with its inherited "Enabled" variable.
func NewDevice(name string, linkConfig, baseAddress, index uint32) *Device {
	d := &Device{
		name:        name,
		linkConfig:  linkConfig,
		baseAddress: baseAddress,
		index:       index,
		registers:   make(map[string]*Register),
		variables:   make(map[string]*Variable),
		commands:    make(map[string]*Command),
	}

	enabled := NewVariable(VariableMetadata{
		Name:        EnabledVariable,
		Class:       ClassConfiguration,
		Default:     FormatBool(true),
		Description: "Enables hardware access for this device and its children",
	})
	d.variables[EnabledVariable] = enabled
	d.varOrder = append(d.varOrder, EnabledVariable)

	return d
}

// RootOption configures a root device.
type RootOption func(*Device)

// WithLogger reports register accesses and commands of the whole tree to l.
func WithLogger(l log.Logger) RootOption {
	return func(d *Device) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithSessionID overrides the generated session ID stamped on log events.
func WithSessionID(id string) RootOption {
	return func(d *Device) {
		d.sessionID = id
	}
}

// NewRoot creates the top of a device tree. The root owns the bus shared by
// all descendants and carries the ReadAll and WriteAll commands.
func NewRoot(name string, b bus.Bus, opts ...RootOption) *Device {
	d := NewDevice(name, 0, 0, 0)
	d.bus = b
	d.logger = log.NoopLogger{}
	d.sessionID = uuid.New().String()
	d.description = "Device tree root"

	for _, opt := range opts {
		opt(d)
	}

	readAll := NewCommand("ReadAll", func(ctx context.Context, _ string) error {
		return d.ReadAll(ctx)
	})
	readAll.SetDescription("Read every register of the tree from hardware.")
	d.mustAddCommand(readAll)

	writeAll := NewCommand("WriteAll", func(ctx context.Context, _ string) error {
		return d.WriteAll(ctx)
	})
	writeAll.SetDescription("Write every configuration register of the tree to hardware.")
	d.mustAddCommand(writeAll)

	return d
}

func (d *Device) mustAddCommand(c *Command) {
	if err := d.AddCommand(c); err != nil {
		panic(err)
	}
}

// Name returns the device type name.
func (d *Device) Name() string {
	return d.name
}

// Index returns the instance index among siblings of the same name.
func (d *Device) Index() uint32 {
	return d.index
}

// InstanceName is the path segment for this device: the name for index 0,
// "Name[i]" otherwise.
func (d *Device) InstanceName() string {
	if d.index == 0 {
		return d.name
	}
	return d.name + "[" + strconv.FormatUint(uint64(d.index), 10) + "]"
}

// BaseAddress returns the base bus address of the device.
func (d *Device) BaseAddress() uint32 {
	return d.baseAddress
}

// LinkConfig returns the link configuration word the device was built with.
func (d *Device) LinkConfig() uint32 {
	return d.linkConfig
}

// Description returns the human-readable description.
func (d *Device) Description() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.description
}

// SetDescription sets the human-readable description.
func (d *Device) SetDescription(desc string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.description = desc
}

// Parent returns the parent device, or nil for a root.
func (d *Device) Parent() *Device {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.parent
}

// Root returns the top of the tree d belongs to.
func (d *Device) Root() *Device {
	r := d
	for p := r.Parent(); p != nil; p = r.Parent() {
		r = p
	}
	return r
}

// Path returns the slash-separated instance names from the root to d.
func (d *Device) Path() string {
	var parts []string
	for cur := d; cur != nil; cur = cur.Parent() {
		parts = append(parts, cur.InstanceName())
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "/")
}

// AddDevice attaches child below d. Attaching d or one of its ancestors fails
// with ErrDeviceCycle.
func (d *Device) AddDevice(child *Device) error {
	if child == nil {
		return fmt.Errorf("%w: nil child", ErrDeviceNotFound)
	}
	for cur := d; cur != nil; cur = cur.Parent() {
		if cur == child {
			return fmt.Errorf("%w: %s below %s", ErrDeviceCycle, child.InstanceName(), d.Path())
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	inst := child.InstanceName()
	for _, c := range d.children {
		if c.InstanceName() == inst {
			return fmt.Errorf("%w: %s/%s", ErrDuplicateDevice, d.InstanceName(), inst)
		}
	}

	child.mu.Lock()
	child.parent = d
	child.mu.Unlock()

	d.children = append(d.children, child)
	return nil
}

// Device returns the direct child with the given instance name.
func (d *Device) Device(instanceName string) (*Device, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, c := range d.children {
		if c.InstanceName() == instanceName {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: %s/%s", ErrDeviceNotFound, d.InstanceName(), instanceName)
}

// Devices returns the direct children in attach order.
func (d *Device) Devices() []*Device {
	d.mu.RLock()
	defer d.mu.RUnlock()

	result := make([]*Device, len(d.children))
	copy(result, d.children)
	return result
}

// Find resolves a slash-separated path of instance names relative to d.
// An empty path returns d.
func (d *Device) Find(path string) (*Device, error) {
	cur := d
	for _, seg := range strings.Split(path, "/") {
		if seg == "" {
			continue
		}
		next, err := cur.Device(seg)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

// AddRegisterLink adds the link's register and variable to d.
// Neither is added if either name is already taken.
func (d *Device) AddRegisterLink(link *RegisterLink) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	name := link.Name()
	if _, exists := d.registers[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateRegister, name)
	}
	if _, exists := d.variables[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateVariable, name)
	}

	d.registers[name] = link.Register()
	d.variables[name] = link.Variable()
	d.varOrder = append(d.varOrder, name)
	return nil
}

// AddRegister adds a register that has no user-facing variable.
func (d *Device) AddRegister(r *Register) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.registers[r.Name()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateRegister, r.Name())
	}
	d.registers[r.Name()] = r
	return nil
}

// Register returns a register by name.
func (d *Device) Register(name string) (*Register, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	r, exists := d.registers[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrRegisterNotFound, name)
	}
	return r, nil
}

// Registers returns all registers ordered by address, then name.
func (d *Device) Registers() []*Register {
	d.mu.RLock()
	result := make([]*Register, 0, len(d.registers))
	for _, r := range d.registers {
		result = append(result, r)
	}
	d.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].Address() != result[j].Address() {
			return result[i].Address() < result[j].Address()
		}
		return result[i].Name() < result[j].Name()
	})
	return result
}

// RegisterCount returns the number of registers.
func (d *Device) RegisterCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.registers)
}

// AddVariable adds a plain variable.
func (d *Device) AddVariable(v *Variable) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.variables[v.Name()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateVariable, v.Name())
	}
	d.variables[v.Name()] = v
	d.varOrder = append(d.varOrder, v.Name())
	return nil
}

// Variable returns a variable by name.
func (d *Device) Variable(name string) (*Variable, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	v, exists := d.variables[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrVariableNotFound, name)
	}
	return v, nil
}

// Variables returns all variables, hidden ones included, in insertion order.
func (d *Device) Variables() []*Variable {
	d.mu.RLock()
	defer d.mu.RUnlock()

	result := make([]*Variable, 0, len(d.varOrder))
	for _, name := range d.varOrder {
		result = append(result, d.variables[name])
	}
	return result
}

// Enabled reports the value of the "Enabled" variable.
func (d *Device) Enabled() bool {
	v, err := d.Variable(EnabledVariable)
	if err != nil {
		return false
	}
	return v.Bool()
}

// SetEnabled sets the "Enabled" variable.
func (d *Device) SetEnabled(enabled bool) error {
	v, err := d.Variable(EnabledVariable)
	if err != nil {
		return err
	}
	return v.SetValue(FormatBool(enabled))
}

// AddCommand adds a command.
func (d *Device) AddCommand(c *Command) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.commands[c.Name()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateCommand, c.Name())
	}
	d.commands[c.Name()] = c
	d.cmdOrder = append(d.cmdOrder, c.Name())
	return nil
}

// Commands returns all commands in insertion order.
func (d *Device) Commands() []*Command {
	d.mu.RLock()
	defer d.mu.RUnlock()

	result := make([]*Command, 0, len(d.cmdOrder))
	for _, name := range d.cmdOrder {
		result = append(result, d.commands[name])
	}
	return result
}

// Command dispatches the named command with arg.
func (d *Device) Command(ctx context.Context, name, arg string) error {
	d.mu.RLock()
	c, exists := d.commands[name]
	d.mu.RUnlock()
	if !exists {
		return fmt.Errorf("%w: %s", ErrCommandNotFound, name)
	}

	start := time.Now()
	err := c.Invoke(ctx, arg)

	event := d.newEvent(log.CategoryCommand)
	event.Command = &log.CommandEvent{
		Name:     name,
		Arg:      arg,
		Duration: time.Since(start),
	}
	if err != nil {
		event.Error = err.Error()
		err = fmt.Errorf("%w: %s: %w", ErrCommandFailed, name, err)
	}
	d.Logger().Log(event)

	return err
}

// Bus returns the bus of the nearest ancestor that has one.
func (d *Device) Bus() bus.Bus {
	for cur := d; cur != nil; cur = cur.Parent() {
		if cur.bus != nil {
			return cur.bus
		}
	}
	return nil
}

// Logger returns the capture logger of the tree.
func (d *Device) Logger() log.Logger {
	if l := d.Root().logger; l != nil {
		return l
	}
	return log.NoopLogger{}
}

// SessionID returns the session ID of the tree.
func (d *Device) SessionID() string {
	return d.Root().sessionID
}

// LockRegisters acquires the register lock of d and returns the function that
// releases it. The returned function may be called more than once.
func (d *Device) LockRegisters() (unlock func()) {
	d.regMu.Lock()
	var once sync.Once
	return func() {
		once.Do(d.regMu.Unlock)
	}
}

// ReadRegister loads r from hardware under the register lock.
func (d *Device) ReadRegister(ctx context.Context, r *Register) error {
	unlock := d.LockRegisters()
	defer unlock()
	return d.readRegister(ctx, r)
}

// WriteRegister commits r to hardware under the register lock.
// Unless force is set, registers that are not stale are skipped.
func (d *Device) WriteRegister(ctx context.Context, r *Register, force bool) error {
	unlock := d.LockRegisters()
	defer unlock()
	return d.writeRegister(ctx, r, force)
}

func (d *Device) readRegister(ctx context.Context, r *Register) error {
	b := d.Bus()
	if b == nil {
		return ErrNoBus
	}

	for i := 0; i < r.Size(); i++ {
		addr := r.Address() + uint32(i*wordStride)
		value, err := b.ReadWord(ctx, addr)
		d.logAccess(log.DirectionRead, r.Name(), addr, value, err)
		if err != nil {
			return fmt.Errorf("read %s: %w", r.Name(), err)
		}
		r.mu.Lock()
		r.data[i] = value
		r.mu.Unlock()
	}
	r.clearStale()
	return nil
}

func (d *Device) writeRegister(ctx context.Context, r *Register, force bool) error {
	if !force && !r.Stale() {
		return nil
	}

	b := d.Bus()
	if b == nil {
		return ErrNoBus
	}

	for i := 0; i < r.Size(); i++ {
		addr := r.Address() + uint32(i*wordStride)
		value := r.Word(i)
		err := b.WriteWord(ctx, addr, value)
		d.logAccess(log.DirectionWrite, r.Name(), addr, value, err)
		if err != nil {
			return fmt.Errorf("write %s: %w", r.Name(), err)
		}
	}
	r.clearStale()
	return nil
}

// ReadAll reads every register of d and its enabled descendants.
// Disabled devices and their subtrees are skipped.
func (d *Device) ReadAll(ctx context.Context) error {
	if !d.Enabled() {
		return nil
	}

	unlock := d.LockRegisters()
	for _, r := range d.Registers() {
		if err := d.readRegister(ctx, r); err != nil {
			unlock()
			return fmt.Errorf("%s: %w", d.Path(), err)
		}
	}
	unlock()

	for _, c := range d.Devices() {
		if err := c.ReadAll(ctx); err != nil {
			return err
		}
	}
	return nil
}

// WriteAll writes every Configuration register of d and its enabled
// descendants, stale or not.
func (d *Device) WriteAll(ctx context.Context) error {
	if !d.Enabled() {
		return nil
	}

	unlock := d.LockRegisters()
	for _, r := range d.Registers() {
		if r.Class() != ClassConfiguration {
			continue
		}
		if err := d.writeRegister(ctx, r, true); err != nil {
			unlock()
			return fmt.Errorf("%s: %w", d.Path(), err)
		}
	}
	unlock()

	for _, c := range d.Devices() {
		if err := c.WriteAll(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the subtree. Devices hold no external resources; the bus is
// owned by whoever created the root.
func (d *Device) Close() error {
	d.mu.Lock()
	children := d.children
	d.children = nil
	d.mu.Unlock()

	for _, c := range children {
		c.mu.Lock()
		c.parent = nil
		c.mu.Unlock()
		if err := c.Close(); err != nil {
			return err
		}
	}
	return nil
}

func (d *Device) newEvent(category log.Category) log.Event {
	return log.Event{
		Timestamp: time.Now(),
		SessionID: d.SessionID(),
		Category:  category,
		Device:    d.Path(),
	}
}

func (d *Device) logAccess(dir log.Direction, name string, addr, value uint32, err error) {
	event := d.newEvent(log.CategoryAccess)
	event.Direction = dir
	event.Access = &log.AccessEvent{
		Register: name,
		Address:  addr,
		Value:    value,
	}
	if err != nil {
		event.Error = err.Error()
	}
	d.Logger().Log(event)
}

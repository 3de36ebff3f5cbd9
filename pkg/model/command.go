package model

import (
	"context"
	"errors"
)

// Command errors.
var (
	ErrCommandNotFound  = errors.New("command not found")
	ErrDuplicateCommand = errors.New("duplicate command name")
	ErrCommandFailed    = errors.New("command execution failed")
)

// CommandHandler runs a command. arg is the raw argument string given by the
// caller and may be empty.
type CommandHandler func(ctx context.Context, arg string) error

// Command is a named operation exposed by a device.
type Command struct {
	name        string
	description string
	handler     CommandHandler
}

// NewCommand creates a command with the given handler.
func NewCommand(name string, handler CommandHandler) *Command {
	return &Command{
		name:    name,
		handler: handler,
	}
}

// Name returns the command name.
func (c *Command) Name() string {
	return c.name
}

// Description returns the command description.
func (c *Command) Description() string {
	return c.description
}

// SetDescription sets the human-readable description.
func (c *Command) SetDescription(desc string) {
	c.description = desc
}

// SetHandler sets or replaces the command handler.
func (c *Command) SetHandler(handler CommandHandler) {
	c.handler = handler
}

// Invoke runs the command handler.
func (c *Command) Invoke(ctx context.Context, arg string) error {
	if c.handler == nil {
		return ErrCommandNotFound
	}
	return c.handler(ctx, arg)
}

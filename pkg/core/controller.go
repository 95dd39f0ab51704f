package core

import (
	"context"
	"fmt"
)

// Command is a zero-argument operation bound to one controller. Commands take
// no parameters and return no value; failures propagate to the remote caller.
type Command func(ctx context.Context) error

// Controller is one node in the device tree. It owns an ordered registry of
// attributes and commands; registration order is the order they are exposed
// externally.
type Controller struct {
	path string

	attrOrder []string
	attrs     map[string]*Attribute

	cmdOrder []string
	cmds     map[string]Command

	putTasks map[string]PutTask

	children []*Controller

	connect func(ctx context.Context) error
}

// NewController creates a controller at the given path. The root controller
// has an empty path; sub-controllers carry the identifier of their position in
// the tree, e.g. "motor1".
func NewController(path string) *Controller {
	return &Controller{
		path:     path,
		attrs:    make(map[string]*Attribute),
		cmds:     make(map[string]Command),
		putTasks: make(map[string]PutTask),
	}
}

// Path returns the controller's position in the tree, empty for the root.
func (c *Controller) Path() string { return c.path }

// AddAttribute registers an attribute under the given name. Names must be
// unique per controller.
func (c *Controller) AddAttribute(name string, a *Attribute) error {
	if _, ok := c.attrs[name]; ok {
		return fmt.Errorf("attribute %q already registered on controller %q", name, c.path)
	}
	c.attrOrder = append(c.attrOrder, name)
	c.attrs[name] = a
	return nil
}

// AddCommand registers a bound command under the given name.
func (c *Controller) AddCommand(name string, cmd Command) error {
	if _, ok := c.cmds[name]; ok {
		return fmt.Errorf("command %q already registered on controller %q", name, c.path)
	}
	c.cmdOrder = append(c.cmdOrder, name)
	c.cmds[name] = cmd
	return nil
}

// RegisterPutTask registers a task to run after a successful write to the
// named attribute. The attribute is resolved and validated by LinkPutTasks.
func (c *Controller) RegisterPutTask(attrName string, task PutTask) {
	c.putTasks[attrName] = task
}

// AddChild attaches a sub-controller.
func (c *Controller) AddChild(child *Controller) {
	c.children = append(c.children, child)
}

// SetConnectFunc installs the connection routine invoked during device
// initialization. Only meaningful on the root controller.
func (c *Controller) SetConnectFunc(fn func(ctx context.Context) error) {
	c.connect = fn
}

// Connect establishes the controller's connection to the underlying device.
// Controllers without a connect routine succeed trivially.
func (c *Controller) Connect(ctx context.Context) error {
	if c.connect == nil {
		return nil
	}
	return c.connect(ctx)
}

// Attribute returns the named attribute, if registered.
func (c *Controller) Attribute(name string) (*Attribute, bool) {
	a, ok := c.attrs[name]
	return a, ok
}

// AttributeNames returns attribute names in registration order.
func (c *Controller) AttributeNames() []string { return c.attrOrder }

// Command returns the named command, if registered.
func (c *Controller) Command(name string) (Command, bool) {
	cmd, ok := c.cmds[name]
	return cmd, ok
}

// CommandNames returns command names in registration order.
func (c *Controller) CommandNames() []string { return c.cmdOrder }

// Children returns the sub-controllers in attachment order.
func (c *Controller) Children() []*Controller { return c.children }

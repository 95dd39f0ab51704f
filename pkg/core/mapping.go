package core

import "fmt"

// Mapping wraps a controller tree and enumerates it in a deterministic order
// for backends to bind against.
type Mapping struct {
	root *Controller
}

// NewMapping creates a mapping over the given root controller.
func NewMapping(root *Controller) *Mapping {
	return &Mapping{root: root}
}

// Root returns the root controller.
func (m *Mapping) Root() *Controller { return m.root }

// Walk returns every controller in the tree, root first, children depth-first
// in attachment order. The order is stable across calls.
func (m *Mapping) Walk() []*Controller {
	var out []*Controller
	var visit func(c *Controller)
	visit = func(c *Controller) {
		out = append(out, c)
		for _, child := range c.Children() {
			visit(child)
		}
	}
	visit(m.root)
	return out
}

// Sender transmits attribute value changes out of process. The attribute
// sender link installs one on every attribute's notification hook.
type Sender interface {
	Send(path, attribute string, value any)
}

// LinkPutTasks binds the controller's registered put tasks to their
// attributes. Backends invoke this once per controller before binding, so
// write dispatch can assume tasks are already wired.
func LinkPutTasks(c *Controller) error {
	for name, task := range c.putTasks {
		attr, ok := c.Attribute(name)
		if !ok {
			return fmt.Errorf("put task for unknown attribute %q on controller %q", name, c.path)
		}
		if !attr.Writable() {
			return fmt.Errorf("put task for read-only attribute %q on controller %q", name, c.path)
		}
		attr.setPutTask(task)
	}
	return nil
}

// LinkAttributeSender installs the transmitting sender on every attribute of
// the controller. Runs once per controller per assembly, before binding.
func LinkAttributeSender(c *Controller, s Sender) {
	for _, name := range c.AttributeNames() {
		attr, _ := c.Attribute(name)
		name := name
		attr.setNotify(func(value any) {
			s.Send(c.path, name, value)
		})
	}
}

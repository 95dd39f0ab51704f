package core

import (
	"context"
	"sync"
	"time"
)

// Access qualifies which of the getter/setter pair an attribute exposes.
type Access int

const (
	ReadOnly Access = iota
	WriteOnly
	ReadWrite
)

// Updater refreshes an attribute from, or pushes a value to, the underlying
// device. Both operations may block on I/O and report failures to the caller;
// the binding layer never retries or suppresses them.
type Updater interface {
	Update(ctx context.Context, c *Controller, a *Attribute) error
	Put(ctx context.Context, c *Controller, a *Attribute, value any) error
	// Period is the cadence at which the external server should poll the
	// attribute. Zero means the attribute is refreshed on demand only.
	Period() time.Duration
}

// PutTask runs after a value has been successfully written to an attribute.
// Tasks are registered on the controller and bound to their attribute by
// LinkPutTasks before a backend starts dispatching writes.
type PutTask func(ctx context.Context, value any) error

// Attribute is a named, typed value slot on a controller. The cached value is
// guarded by a mutex so concurrent remote reads and writes stay safe; the
// access variant is fixed at construction and never widens.
type Attribute struct {
	datatype DataType
	access   Access
	updater  Updater

	mu      sync.RWMutex
	value   any
	notify  func(value any)
	putTask PutTask
}

// AttrOption configures an attribute at construction.
type AttrOption func(*Attribute)

// WithUpdater attaches the updater driving automatic refresh and external
// writes.
func WithUpdater(u Updater) AttrOption {
	return func(a *Attribute) {
		a.updater = u
	}
}

// NewAttrR creates a read-only attribute.
func NewAttrR(dt DataType, opts ...AttrOption) *Attribute {
	return newAttribute(dt, ReadOnly, opts)
}

// NewAttrW creates a write-only attribute.
func NewAttrW(dt DataType, opts ...AttrOption) *Attribute {
	return newAttribute(dt, WriteOnly, opts)
}

// NewAttrRW creates a read-write attribute.
func NewAttrRW(dt DataType, opts ...AttrOption) *Attribute {
	return newAttribute(dt, ReadWrite, opts)
}

func newAttribute(dt DataType, access Access, opts []AttrOption) *Attribute {
	a := &Attribute{datatype: dt, access: access}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Attribute) Datatype() DataType { return a.datatype }
func (a *Attribute) Access() Access     { return a.access }
func (a *Attribute) Updater() Updater   { return a.updater }

func (a *Attribute) Readable() bool { return a.access == ReadOnly || a.access == ReadWrite }
func (a *Attribute) Writable() bool { return a.access == WriteOnly || a.access == ReadWrite }

// Get returns the cached value, which may be nil if nothing has been set yet.
func (a *Attribute) Get() any {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.value
}

// Set stores a new cached value and fires the value-change notification, if
// one has been linked.
func (a *Attribute) Set(value any) {
	a.mu.Lock()
	a.value = value
	notify := a.notify
	a.mu.Unlock()

	if notify != nil {
		notify(value)
	}
}

// RunPutTask runs the linked put task, if any, after a successful write.
func (a *Attribute) RunPutTask(ctx context.Context, value any) error {
	a.mu.RLock()
	task := a.putTask
	a.mu.RUnlock()

	if task == nil {
		return nil
	}
	return task(ctx, value)
}

func (a *Attribute) setNotify(fn func(value any)) {
	a.mu.Lock()
	a.notify = fn
	a.mu.Unlock()
}

func (a *Attribute) setPutTask(task PutTask) {
	a.mu.Lock()
	a.putTask = task
	a.mu.Unlock()
}

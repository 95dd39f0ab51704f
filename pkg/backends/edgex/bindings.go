package edgex

import (
	"errors"
	"fmt"

	"github.com/edgexfoundry/go-mod-core-contracts/v4/common"
	"github.com/edgexfoundry/go-mod-core-contracts/v4/models"

	"github.com/marcelldls/FastCS/pkg/core"
)

// ErrDuplicateName reports two attributes or commands mapping to the same
// device-facing name. The naming transform must be injective; assembly is
// aborted rather than letting one binding silently overwrite another.
var ErrDuplicateName = errors.New("duplicate device-facing name")

// attrBinding is the explicit record behind one device resource: the
// attribute, its owning controller, and everything derived from them at
// assembly time. Dispatch resolves bindings by device-facing name, so there
// are no hidden shared captures.
type attrBinding struct {
	name       string
	controller *core.Controller
	attr       *core.Attribute
	properties models.ResourceProperties
	pollingMs  int64
}

// cmdBinding is the record behind one command resource.
type cmdBinding struct {
	name       string
	controller *core.Controller
	run        core.Command
}

// bindings is the full binding table for one assembled device.
type bindings struct {
	order []string
	attrs map[string]*attrBinding
	cmds  map[string]*cmdBinding
}

// collectBindings walks the controller tree in deterministic order and
// produces one binding per attribute and command. The caller must have run
// the link steps first.
func collectBindings(m *core.Mapping) (*bindings, error) {
	b := &bindings{
		attrs: make(map[string]*attrBinding),
		cmds:  make(map[string]*cmdBinding),
	}

	for _, c := range m.Walk() {
		for _, attrName := range c.AttributeNames() {
			attr, _ := c.Attribute(attrName)

			name := deviceName(c.Path(), attrName)
			if err := b.reserve(name); err != nil {
				return nil, err
			}

			props, err := resourceProperties(attr.Datatype(), accessReadWrite(attr.Access()))
			if err != nil {
				return nil, err
			}

			var pollingMs int64
			if u := attr.Updater(); u != nil {
				pollingMs = u.Period().Milliseconds()
			}

			b.attrs[name] = &attrBinding{
				name:       name,
				controller: c,
				attr:       attr,
				properties: props,
				pollingMs:  pollingMs,
			}
		}

		for _, cmdName := range c.CommandNames() {
			cmd, _ := c.Command(cmdName)

			name := deviceName(c.Path(), cmdName)
			if err := b.reserve(name); err != nil {
				return nil, err
			}

			b.cmds[name] = &cmdBinding{
				name:       name,
				controller: c,
				run:        cmd,
			}
		}
	}

	return b, nil
}

func (b *bindings) reserve(name string) error {
	if _, ok := b.attrs[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}
	if _, ok := b.cmds[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}
	b.order = append(b.order, name)
	return nil
}

func accessReadWrite(a core.Access) string {
	switch a {
	case core.ReadOnly:
		return common.ReadWrite_R
	case core.WriteOnly:
		return common.ReadWrite_W
	default:
		return common.ReadWrite_RW
	}
}

// resources returns one device resource declaration per binding, in binding
// order. Commands are exposed as write-only boolean resources: any write
// dispatches the command and the written value is discarded.
func (b *bindings) resources() []models.DeviceResource {
	out := make([]models.DeviceResource, 0, len(b.order))
	for _, name := range b.order {
		if ab, ok := b.attrs[name]; ok {
			out = append(out, models.DeviceResource{
				Name:       ab.name,
				Properties: ab.properties,
			})
			continue
		}
		out = append(out, models.DeviceResource{
			Name: name,
			Properties: models.ResourceProperties{
				ValueType: common.ValueTypeBool,
				ReadWrite: common.ReadWrite_W,
			},
		})
	}
	return out
}

// autoEvents returns the polling configuration: one auto-event per readable
// attribute with an updater, at the updater's period truncated to
// milliseconds. Attributes without an updater are refreshed only on demand.
func (b *bindings) autoEvents() []models.AutoEvent {
	var out []models.AutoEvent
	for _, name := range b.order {
		ab, ok := b.attrs[name]
		if !ok || ab.pollingMs <= 0 || !ab.attr.Readable() {
			continue
		}
		out = append(out, models.AutoEvent{
			SourceName: ab.name,
			Interval:   fmt.Sprintf("%dms", ab.pollingMs),
		})
	}
	return out
}

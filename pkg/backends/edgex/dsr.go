package edgex

import (
	"fmt"

	"github.com/edgexfoundry/device-sdk-go/v4/pkg/startup"
	"github.com/edgexfoundry/go-mod-core-contracts/v4/models"

	"github.com/marcelldls/FastCS/pkg/core"
)

// Version identifies this device service to the runtime.
const Version = "0.1.0"

// Options configure one assembled device server run.
type Options struct {
	DeviceName     string
	DeviceClass    string
	ServerInstance string
	Debug          bool

	// Senders receive every attribute value change in addition to the
	// runtime's async values channel.
	Senders []core.Sender
}

func (o *Options) applyDefaults() {
	if o.DeviceName == "" {
		o.DeviceName = "MY/DEVICE/NAME"
	}
	if o.DeviceClass == "" {
		o.DeviceClass = "FAST_CS_DEVICE"
	}
	if o.ServerInstance == "" {
		o.ServerInstance = "MY_SERVER_INSTANCE"
	}
}

// DSR assembles a controller mapping into one device server and runs it.
type DSR struct {
	mapping *core.Mapping
}

// NewDSR creates an assembler over the given mapping.
func NewDSR(m *core.Mapping) *DSR {
	return &DSR{mapping: m}
}

// Run assembles and serves the device: link steps over every controller, then
// attribute and command binding, then profile and device record construction,
// then hand-off to the runtime, which drives polling and remote calls back
// into the bindings and blocks for the lifetime of the process. Any failure
// before the hand-off aborts the run with the originating error.
func (d *DSR) Run(opts Options) error {
	opts.applyDefaults()

	drv, err := d.assemble(opts)
	if err != nil {
		return err
	}

	startup.Bootstrap(serviceName(opts), Version, drv)
	return nil
}

// assemble performs every fallible stage of Run and returns the driver ready
// for the runtime.
func (d *DSR) assemble(opts Options) (*Driver, error) {
	async := &asyncSender{}
	senders := make([]core.Sender, 0, len(opts.Senders)+1)
	senders = append(senders, opts.Senders...)
	senders = append(senders, async)

	// Link steps run exactly once per controller, before binding: binders
	// assume put tasks and senders are already wired.
	for _, c := range d.mapping.Walk() {
		if err := core.LinkPutTasks(c); err != nil {
			return nil, fmt.Errorf("link put tasks: %w", err)
		}
		core.LinkAttributeSender(c, multiSender(senders))
	}

	b, err := collectBindings(d.mapping)
	if err != nil {
		return nil, fmt.Errorf("collect bindings: %w", err)
	}

	drv := &Driver{
		opts:    opts,
		mapping: d.mapping,
		b:       b,
		profile: buildProfile(opts, b),
		device:  buildDevice(opts, b),
	}
	async.bind(drv)
	return drv, nil
}

func buildProfile(opts Options, b *bindings) models.DeviceProfile {
	return models.DeviceProfile{
		Name:            opts.DeviceClass,
		Description:     "FastCS assembled device class",
		DeviceResources: b.resources(),
	}
}

func buildDevice(opts Options, b *bindings) models.Device {
	return models.Device{
		Name:           opts.DeviceName,
		ProfileName:    opts.DeviceClass,
		ServiceName:    fmt.Sprintf("%s/%s", opts.DeviceClass, opts.ServerInstance),
		AdminState:     models.Unlocked,
		OperatingState: models.Up,
		Protocols:      map[string]models.ProtocolProperties{"fastcs": {}},
		AutoEvents:     b.autoEvents(),
	}
}

func serviceName(opts Options) string {
	return fmt.Sprintf("device-%s", opts.ServerInstance)
}

// multiSender fans one value change out to every configured sender.
type multiSender []core.Sender

func (m multiSender) Send(path, attribute string, value any) {
	for _, s := range m {
		s.Send(path, attribute, value)
	}
}

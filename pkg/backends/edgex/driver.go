// Package edgex adapts a controller/attribute/command tree into an EdgeX
// device service: attributes and commands become typed device resources with
// bound dispatch, updater periods become auto-events, and the assembled
// device is registered with the control-system database before serving.
package edgex

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/edgexfoundry/device-sdk-go/v4/pkg/interfaces"
	sdkModels "github.com/edgexfoundry/device-sdk-go/v4/pkg/models"
	"github.com/edgexfoundry/go-mod-core-contracts/v4/clients/logger"
	edgexErr "github.com/edgexfoundry/go-mod-core-contracts/v4/errors"
	"github.com/edgexfoundry/go-mod-core-contracts/v4/models"

	"github.com/marcelldls/FastCS/pkg/core"
)

// Driver dispatches the runtime's remote reads, writes and command
// invocations into the binding table. It implements
// interfaces.ProtocolDriver; the SDK owns its lifecycle.
type Driver struct {
	opts    Options
	mapping *core.Mapping
	b       *bindings
	profile models.DeviceProfile
	device  models.Device

	sdk     interfaces.DeviceServiceSDK
	lc      logger.LoggingClient
	asyncCh chan<- *sdkModels.AsyncValues

	ctx    context.Context
	cancel context.CancelFunc

	shutdown  chan struct{}
	closeOnce sync.Once
}

// Initialize performs the base initialization, then establishes the root
// controller's connection. A connect failure fails initialization and aborts
// startup.
func (d *Driver) Initialize(sdk interfaces.DeviceServiceSDK) error {
	d.sdk = sdk
	d.lc = sdk.LoggingClient()
	d.asyncCh = sdk.AsyncValuesChannel()
	d.ctx, d.cancel = context.WithCancel(context.Background())
	d.shutdown = make(chan struct{})

	if d.opts.Debug {
		if err := d.lc.SetLogLevel(models.DebugLog); err != nil {
			d.lc.Warnf("failed to set debug log level: %v", err)
		}
	}

	if err := d.mapping.Root().Connect(d.ctx); err != nil {
		return fmt.Errorf("controller connect: %w", err)
	}
	return nil
}

// Start registers the assembled device with the control-system database. The
// device record carries operating state up, so serving begins immediately
// after a successful registration.
func (d *Driver) Start() error {
	if err := registerDevice(d.sdk, d.lc, d.profile, d.device); err != nil {
		return err
	}
	d.lc.Infof("device %s is on", d.device.Name)
	return nil
}

// Shutdown is closed when the driver stops. Background tasks tied to the
// device's lifetime select on it.
func (d *Driver) Shutdown() <-chan struct{} {
	return d.shutdown
}

func (d *Driver) HandleReadCommands(deviceName string, protocols map[string]models.ProtocolProperties, reqs []sdkModels.CommandRequest) ([]*sdkModels.CommandValue, error) {
	res := make([]*sdkModels.CommandValue, len(reqs))

	for i, req := range reqs {
		ab, ok := d.b.attrs[req.DeviceResourceName]
		if !ok {
			if _, isCmd := d.b.cmds[req.DeviceResourceName]; isCmd {
				return nil, edgexErr.NewCommonEdgeX(edgexErr.KindNotAllowed,
					fmt.Sprintf("resource %s is a command and is write-only", req.DeviceResourceName), nil)
			}
			return nil, edgexErr.NewCommonEdgeX(edgexErr.KindEntityDoesNotExist,
				fmt.Sprintf("no binding for resource %s", req.DeviceResourceName), nil)
		}
		if !ab.attr.Readable() {
			return nil, edgexErr.NewCommonEdgeX(edgexErr.KindNotAllowed,
				fmt.Sprintf("resource %s is write-only", req.DeviceResourceName), nil)
		}

		// Refresh before returning the cached value. Update failures
		// propagate; the runtime turns them into a fault on the remote read.
		if u := ab.attr.Updater(); u != nil {
			if err := u.Update(d.ctx, ab.controller, ab.attr); err != nil {
				return nil, edgexErr.NewCommonEdgeX(edgexErr.KindServerError,
					fmt.Sprintf("update %s.%s", deviceName, req.DeviceResourceName), err)
			}
		}

		cv, err := encodeValue(req.DeviceResourceName, ab.properties.ValueType, ab.attr.Get())
		if err != nil {
			return nil, edgexErr.NewCommonEdgeX(edgexErr.KindServerError, "encode value", err)
		}
		res[i] = cv
		d.lc.Debugf("read %s.%s", deviceName, req.DeviceResourceName)
	}

	return res, nil
}

func (d *Driver) HandleWriteCommands(deviceName string, protocols map[string]models.ProtocolProperties, reqs []sdkModels.CommandRequest, params []*sdkModels.CommandValue) error {
	for i, req := range reqs {
		if cb, ok := d.b.cmds[req.DeviceResourceName]; ok {
			// Command dispatch. The written value is discarded; commands
			// take no parameters and their result is not wired back.
			if err := cb.run(d.ctx); err != nil {
				return edgexErr.NewCommonEdgeX(edgexErr.KindServerError,
					fmt.Sprintf("command %s.%s", deviceName, req.DeviceResourceName), err)
			}
			d.lc.Debugf("dispatched command %s.%s", deviceName, req.DeviceResourceName)
			continue
		}

		ab, ok := d.b.attrs[req.DeviceResourceName]
		if !ok {
			return edgexErr.NewCommonEdgeX(edgexErr.KindEntityDoesNotExist,
				fmt.Sprintf("no binding for resource %s", req.DeviceResourceName), nil)
		}
		if !ab.attr.Writable() {
			return edgexErr.NewCommonEdgeX(edgexErr.KindNotAllowed,
				fmt.Sprintf("resource %s is read-only", req.DeviceResourceName), nil)
		}

		value, err := decodeValue(params[i])
		if err != nil {
			return edgexErr.NewCommonEdgeX(edgexErr.KindContractInvalid, "decode value", err)
		}

		if u := ab.attr.Updater(); u != nil {
			if err := u.Put(d.ctx, ab.controller, ab.attr, value); err != nil {
				return edgexErr.NewCommonEdgeX(edgexErr.KindServerError,
					fmt.Sprintf("put %s.%s", deviceName, req.DeviceResourceName), err)
			}
		} else {
			ab.attr.Set(value)
		}

		if err := ab.attr.RunPutTask(d.ctx, value); err != nil {
			return edgexErr.NewCommonEdgeX(edgexErr.KindServerError,
				fmt.Sprintf("put task %s.%s", deviceName, req.DeviceResourceName), err)
		}
		d.lc.Debugf("wrote %s.%s", deviceName, req.DeviceResourceName)
	}

	return nil
}

// Stop cancels in-flight dispatch and closes the shutdown channel.
func (d *Driver) Stop(force bool) error {
	if d.lc != nil {
		d.lc.Infof("device %s is stopping", d.device.Name)
	}
	if d.cancel != nil {
		d.cancel()
	}
	d.closeOnce.Do(func() {
		if d.shutdown != nil {
			close(d.shutdown)
		}
	})
	return nil
}

func (d *Driver) AddDevice(deviceName string, protocols map[string]models.ProtocolProperties, adminState models.AdminState) error {
	d.lc.Debugf("a new device is added: %s", deviceName)
	return nil
}

func (d *Driver) UpdateDevice(deviceName string, protocols map[string]models.ProtocolProperties, adminState models.AdminState) error {
	d.lc.Debugf("device %s is updated", deviceName)
	return nil
}

func (d *Driver) RemoveDevice(deviceName string, protocols map[string]models.ProtocolProperties) error {
	d.lc.Debugf("device %s is removed", deviceName)
	return nil
}

func (d *Driver) Discover() error {
	return fmt.Errorf("driver's Discover function isn't implemented")
}

func (d *Driver) ValidateDevice(device models.Device) error {
	return nil
}

// asyncSender forwards attribute value changes to the runtime's async values
// channel. It is installed on every attribute by the sender link; sends are
// dropped until the driver is initialized.
type asyncSender struct {
	mu sync.RWMutex
	d  *Driver
}

func (s *asyncSender) bind(d *Driver) {
	s.mu.Lock()
	s.d = d
	s.mu.Unlock()
}

func (s *asyncSender) Send(path, attribute string, value any) {
	s.mu.RLock()
	d := s.d
	s.mu.RUnlock()
	if d == nil || d.asyncCh == nil {
		return
	}

	name := deviceName(path, attribute)
	ab, ok := d.b.attrs[name]
	if !ok {
		return
	}

	cv, err := encodeValue(name, ab.properties.ValueType, value)
	if err != nil {
		d.lc.Errorf("async value for %s: %v", name, err)
		return
	}

	select {
	case d.asyncCh <- &sdkModels.AsyncValues{
		DeviceName:    d.device.Name,
		SourceName:    name,
		CommandValues: []*sdkModels.CommandValue{cv},
	}:
	case <-time.After(time.Second):
		d.lc.Warnf("async value for %s dropped: channel full", name)
	}
}

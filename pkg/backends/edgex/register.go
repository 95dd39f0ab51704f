package edgex

import (
	"fmt"

	"github.com/edgexfoundry/go-mod-core-contracts/v4/clients/logger"
	"github.com/edgexfoundry/go-mod-core-contracts/v4/errors"
	"github.com/edgexfoundry/go-mod-core-contracts/v4/models"
)

// DeviceRegistry is the slice of the control-system database the assembler
// needs: register, delete, and read back device records. Satisfied by
// interfaces.DeviceServiceSDK.
type DeviceRegistry interface {
	AddDeviceProfile(profile models.DeviceProfile) (string, error)
	AddDevice(device models.Device) (string, error)
	RemoveDeviceByName(name string) error
	GetDeviceByName(name string) (models.Device, error)
}

// registerDevice submits the assembled profile and device record. Any
// pre-existing registration under the same device name is removed first, so
// registering twice is not an error. The record is read back and its three
// identity fields reported for operator confirmation; a mismatch between the
// submitted and read-back identity is not detected.
func registerDevice(reg DeviceRegistry, lc logger.LoggingClient, profile models.DeviceProfile, device models.Device) error {
	if _, err := reg.AddDeviceProfile(profile); err != nil && errors.Kind(err) != errors.KindDuplicateName {
		return fmt.Errorf("add device profile %s: %w", profile.Name, err)
	}

	if err := reg.RemoveDeviceByName(device.Name); err != nil && errors.Kind(err) != errors.KindEntityDoesNotExist {
		return fmt.Errorf("remove existing device %s: %w", device.Name, err)
	}

	if _, err := reg.AddDevice(device); err != nil {
		return fmt.Errorf("add device %s: %w", device.Name, err)
	}

	read, err := reg.GetDeviceByName(device.Name)
	if err != nil {
		return fmt.Errorf("read back device %s: %w", device.Name, err)
	}

	lc.Info("Registered on device service:")
	lc.Infof(" - Device: %s", read.Name)
	lc.Infof(" - Class: %s", read.ProfileName)
	lc.Infof(" - Device server: %s", read.ServiceName)
	return nil
}

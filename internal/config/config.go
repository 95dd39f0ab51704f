// Package config loads the device service configuration from YAML.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/marcelldls/FastCS/pkg/connections"
)

// DeviceConfig identifies the assembled device towards the control system.
type DeviceConfig struct {
	Name     string `yaml:"name"`
	Class    string `yaml:"class"`
	Instance string `yaml:"instance"`
	Debug    bool   `yaml:"debug"`
}

// SerialConfig describes the instrument's serial port.
type SerialConfig struct {
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
}

// MQTTConfig configures the optional attribute-change transmitter.
type MQTTConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"clientId"`
	Topic    string `yaml:"topic"`
}

// ServiceConfig is the root of the service's YAML configuration.
type ServiceConfig struct {
	Device DeviceConfig `yaml:"Device"`
	Serial SerialConfig `yaml:"Serial"`
	MQTT   MQTTConfig   `yaml:"MQTT"`
}

// Load reads and validates the configuration at path. The serial baud rate
// defaults to the transport's default when unset.
func Load(path string) (*ServiceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg ServiceConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if cfg.Serial.Port == "" {
		return nil, fmt.Errorf("config %s: Serial.port is required", path)
	}
	if cfg.Serial.Baud == 0 {
		cfg.Serial.Baud = connections.DefaultBaud
	}
	if cfg.MQTT.Enabled {
		if cfg.MQTT.Broker == "" {
			return nil, fmt.Errorf("config %s: MQTT.broker is required when MQTT is enabled", path)
		}
		if cfg.MQTT.Topic == "" {
			return nil, fmt.Errorf("config %s: MQTT.topic is required when MQTT is enabled", path)
		}
	}

	return &cfg, nil
}

package main

import (
	"fmt"
	"os"

	"github.com/marcelldls/FastCS/internal/config"
	"github.com/marcelldls/FastCS/internal/instrument"
	"github.com/marcelldls/FastCS/pkg/backends/edgex"
	"github.com/marcelldls/FastCS/pkg/connections"
	"github.com/marcelldls/FastCS/pkg/core"
	"github.com/marcelldls/FastCS/pkg/mqttclient"
)

const defaultConfigPath = "./res/service.yaml"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "device-fastcs: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	path := defaultConfigPath
	if v := os.Getenv("FASTCS_CONFIG"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	conn := connections.NewSerialConnection()
	root, err := instrument.NewController(conn, connections.SerialConnectionSettings{
		Port: cfg.Serial.Port,
		Baud: cfg.Serial.Baud,
	})
	if err != nil {
		return fmt.Errorf("build controller: %w", err)
	}

	var senders []core.Sender
	if cfg.MQTT.Enabled {
		client, err := mqttclient.NewClient(cfg.MQTT.Broker, cfg.MQTT.ClientID)
		if err != nil {
			return err
		}
		senders = append(senders, mqttclient.NewTransmitter(client, cfg.MQTT.Topic, nil))
	}

	dsr := edgex.NewDSR(core.NewMapping(root))
	return dsr.Run(edgex.Options{
		DeviceName:     cfg.Device.Name,
		DeviceClass:    cfg.Device.Class,
		ServerInstance: cfg.Device.Instance,
		Debug:          cfg.Device.Debug,
		Senders:        senders,
	})
}

// Package mqttclient publishes attribute value changes to an MQTT broker.
package mqttclient

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/edgexfoundry/go-mod-core-contracts/v4/clients/logger"
	"github.com/google/uuid"
)

// NewClient creates and connects an MQTT client for the given broker URL and
// client ID, with automatic reconnection.
func NewClient(brokerURL, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID(clientID).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetKeepAlive(60 * time.Second).
		SetPingTimeout(10 * time.Second)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if ok := token.WaitTimeout(10 * time.Second); !ok {
		return nil, fmt.Errorf("MQTT connect to %s timed out", brokerURL)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("MQTT connect to %s: %w", brokerURL, err)
	}
	return client, nil
}

// Envelope is the message wrapper published for every attribute update.
type Envelope struct {
	ApiVersion    string          `json:"apiVersion"`
	CorrelationID string          `json:"correlationID"`
	Payload       AttributeUpdate `json:"payload"`
	ContentType   string          `json:"contentType"`
}

// AttributeUpdate carries one attribute value change.
type AttributeUpdate struct {
	Controller string `json:"controller"`
	Attribute  string `json:"attribute"`
	Value      any    `json:"value"`
	Origin     int64  `json:"origin"`
}

// Transmitter sends attribute value changes to a fixed topic. It implements
// core.Sender; publish failures are logged, never propagated into the
// attribute write that triggered them.
type Transmitter struct {
	client mqtt.Client
	topic  string
	lc     logger.LoggingClient
}

// NewTransmitter creates a transmitter publishing to the given topic. The
// logging client may be nil.
func NewTransmitter(client mqtt.Client, topic string, lc logger.LoggingClient) *Transmitter {
	return &Transmitter{client: client, topic: topic, lc: lc}
}

// Send publishes the update without blocking the caller.
func (t *Transmitter) Send(path, attribute string, value any) {
	env := Envelope{
		ApiVersion:    "v1",
		CorrelationID: uuid.NewString(),
		Payload: AttributeUpdate{
			Controller: path,
			Attribute:  attribute,
			Value:      value,
			Origin:     time.Now().UnixNano(),
		},
		ContentType: "application/json",
	}

	data, err := json.Marshal(env)
	if err != nil {
		t.logError("marshal attribute update for %s/%s: %v", path, attribute, err)
		return
	}

	token := t.client.Publish(t.topic, 0, false, data)
	go func() {
		if token.WaitTimeout(10*time.Second) && token.Error() != nil {
			t.logError("publish attribute update for %s/%s: %v", path, attribute, token.Error())
		}
	}()
}

func (t *Transmitter) logError(format string, args ...any) {
	if t.lc != nil {
		t.lc.Errorf(format, args...)
	}
}

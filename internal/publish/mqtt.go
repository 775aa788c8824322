package publish

import (
	"context"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/smukkama/solar-forecast/internal/forecast"
	"github.com/smukkama/solar-forecast/internal/protocol"
)

// MQTTClient is the subset of mqtt.Client the publisher needs
type MQTTClient interface {
	Connect() mqtt.Token
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// disconnectQuiesce is how long (ms) paho may finish in-flight work
const disconnectQuiesce = 250

// MQTTPublisher sends the energy bundle as one JSON message. The client is
// created once; every Publish connects, announces the topic, publishes and
// disconnects again.
type MQTTPublisher struct {
	client MQTTClient
	topic  string
}

// NewMQTTPublisher creates a publisher for broker (tcp://host:port)
func NewMQTTPublisher(broker, topic string) *MQTTPublisher {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID("du_" + topic).
		SetAutoReconnect(false)
	return NewMQTTPublisherWithClient(mqtt.NewClient(opts), topic)
}

// NewMQTTPublisherWithClient creates a publisher around an existing client
func NewMQTTPublisherWithClient(client MQTTClient, topic string) *MQTTPublisher {
	return &MQTTPublisher{client: client, topic: topic}
}

// Publish sends the bundle to the topic
func (p *MQTTPublisher) Publish(_ context.Context, bundle forecast.Bundle) error {
	payload, err := protocol.EncodeBundle(bundle)
	if err != nil {
		return fmt.Errorf("failed to encode bundle: %w", err)
	}

	if err := wait(p.client.Connect()); err != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}
	defer p.client.Disconnect(disconnectQuiesce)

	if err := wait(p.client.Subscribe(p.topic, 0, nil)); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", p.topic, err)
	}

	if err := wait(p.client.Publish(p.topic, 0, false, payload)); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", p.topic, err)
	}

	return nil
}

func (p *MQTTPublisher) String() string {
	return "mqtt:" + p.topic
}

func wait(token mqtt.Token) error {
	token.Wait()
	return token.Error()
}

package publish

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/smukkama/solar-forecast/internal/forecast"
	"github.com/smukkama/solar-forecast/internal/protocol"
)

// MessageProducer is implemented by *queue.Producer
type MessageProducer interface {
	Publish(ctx context.Context, key string, value []byte) error
}

// KafkaPublisher mirrors each bundle onto Kafka, wrapped in a
// protocol.ForecastMessage and keyed by the MQTT topic name
type KafkaPublisher struct {
	producer MessageProducer
	topic    string
	now      func() time.Time
}

// NewKafkaPublisher creates a Kafka mirror for the given forecast topic
func NewKafkaPublisher(producer MessageProducer, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		producer: producer,
		topic:    topic,
		now:      time.Now,
	}
}

// Publish sends the wrapped bundle
func (k *KafkaPublisher) Publish(ctx context.Context, bundle forecast.Bundle) error {
	msg := &protocol.ForecastMessage{
		ID:          uuid.NewString(),
		Topic:       k.topic,
		GeneratedAt: k.now().UTC(),
		Forecast:    bundle,
	}
	if msg.Forecast == nil {
		msg.Forecast = map[string]string{}
	}

	data, err := protocol.EncodeForecastMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to encode forecast message: %w", err)
	}

	return k.producer.Publish(ctx, k.topic, data)
}

func (k *KafkaPublisher) String() string {
	return "kafka:" + k.topic
}

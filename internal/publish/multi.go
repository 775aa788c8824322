// Package publish delivers energy forecast bundles to downstream consumers:
// MQTT for home automation, and optionally Kafka and Redis.
package publish

import (
	"context"
	"fmt"

	"github.com/smukkama/solar-forecast/internal/forecast"
)

// Multi publishes to each sink in order and stops at the first failure
type Multi []forecast.Publisher

// Publish sends the bundle to every sink
func (m Multi) Publish(ctx context.Context, bundle forecast.Bundle) error {
	for _, p := range m {
		if err := p.Publish(ctx, bundle); err != nil {
			return fmt.Errorf("%v: %w", p, err)
		}
	}
	return nil
}

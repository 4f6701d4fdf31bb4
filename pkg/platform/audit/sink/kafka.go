// Package sink holds the audit event destinations.
package sink

import (
	"context"
	"fmt"

	audit "f2f-cri/pkg/platform/audit"
)

// JSONProducer is satisfied by the Kafka producer.
type JSONProducer interface {
	PublishJSON(ctx context.Context, topic, key string, v any) error
}

// Kafka writes events to the audit topic keyed by session id, so every
// event of one journey lands on the same partition in emission order.
type Kafka struct {
	producer JSONProducer
	topic    string
}

func NewKafka(producer JSONProducer, topic string) *Kafka {
	return &Kafka{producer: producer, topic: topic}
}

func (k *Kafka) Send(ctx context.Context, event audit.Event) error {
	if err := k.producer.PublishJSON(ctx, k.topic, event.User.SessionID, event); err != nil {
		return fmt.Errorf("send %s: %w", event.EventName, err)
	}
	return nil
}

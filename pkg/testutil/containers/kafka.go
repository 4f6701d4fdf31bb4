//go:build integration

package containers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaContainer is a single Redpanda broker.
type KafkaContainer struct {
	container *kafka.KafkaContainer
	Brokers   string
}

func startKafka() (*KafkaContainer, error) {
	ctx := context.Background()
	c, err := kafka.Run(ctx, "redpandadata/redpanda:latest", kafka.WithClusterID("f2f-it"))
	if err != nil {
		return nil, fmt.Errorf("kafka: %w", err)
	}
	brokers, err := c.Brokers(ctx)
	if err != nil || len(brokers) == 0 {
		_ = c.Terminate(ctx)
		return nil, fmt.Errorf("kafka brokers: %w", err)
	}
	return &KafkaContainer{container: c, Brokers: brokers[0]}, nil
}

// EnsureTopic creates a single-partition topic. An existing topic is fine.
func (k *KafkaContainer) EnsureTopic(ctx context.Context, topic string) error {
	client, err := kgo.NewClient(kgo.SeedBrokers(k.Brokers))
	if err != nil {
		return err
	}
	defer client.Close()

	resp, err := kadm.NewClient(client).CreateTopic(ctx, 1, 1, nil, topic)
	if err != nil {
		return err
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		return resp.Err
	}
	return nil
}

// ReadKey consumes topic from the start until a record with key arrives or
// timeout passes. It returns nil when nothing matched.
func (k *KafkaContainer) ReadKey(ctx context.Context, topic, key string, timeout time.Duration) (*kgo.Record, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(k.Brokers),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for ctx.Err() == nil {
		fetches := client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return nil, nil
		}
		var found *kgo.Record
		fetches.EachRecord(func(r *kgo.Record) {
			if found == nil && string(r.Key) == key {
				found = r
			}
		})
		if found != nil {
			return found, nil
		}
	}
	return nil, nil
}

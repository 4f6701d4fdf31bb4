//go:build integration

package producer_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"f2f-cri/internal/platform/kafka/producer"
	"f2f-cri/pkg/testutil/containers"
)

type ProducerIntegrationSuite struct {
	suite.Suite
	kafka    *containers.KafkaContainer
	producer *producer.Producer
}

func TestProducerIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(ProducerIntegrationSuite))
}

func (s *ProducerIntegrationSuite) SetupSuite() {
	s.kafka = containers.GetManager().GetKafka(s.T())

	prod, err := producer.New(producer.Config{
		Brokers:         s.kafka.Brokers,
		Acks:            "all",
		Retries:         3,
		DeliveryTimeout: 10 * time.Second,
	}, nil)
	s.Require().NoError(err)
	s.producer = prod
}

func (s *ProducerIntegrationSuite) TearDownSuite() {
	if s.producer != nil {
		s.producer.Close()
	}
}

func (s *ProducerIntegrationSuite) TestPublishJSONDeliversRecord() {
	ctx := context.Background()
	topic := "f2f-delivery-test"
	s.Require().NoError(s.kafka.EnsureTopic(ctx, topic))

	notice := map[string]string{"sub": "urn:fdc:gov.uk:2022:abc", "error": "access_denied"}
	s.Require().NoError(s.producer.PublishJSON(ctx, topic, "session-1", notice))

	record, err := s.kafka.ReadKey(ctx, topic, "session-1", 10*time.Second)
	s.Require().NoError(err)
	s.Require().NotNil(record)

	var got map[string]string
	s.Require().NoError(json.Unmarshal(record.Value, &got))
	s.Equal("access_denied", got["error"])
}

func (s *ProducerIntegrationSuite) TestCheckReportsReachableBrokers() {
	s.NoError(s.producer.Check(context.Background()))
}

func (s *ProducerIntegrationSuite) TestProduceAfterCloseFails() {
	prod, err := producer.New(producer.Config{Brokers: s.kafka.Brokers}, nil)
	s.Require().NoError(err)
	prod.Close()

	err = prod.Produce(context.Background(), &producer.Message{Topic: "x", Value: []byte("{}")})
	s.ErrorIs(err, producer.ErrClosed)
}

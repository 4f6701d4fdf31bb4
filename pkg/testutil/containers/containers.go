//go:build integration

// Package containers starts the backing services integration tests run
// against. Each service is started once per test binary and shared; Ryuk
// removes the containers when the process exits.
package containers

import (
	"sync"
	"testing"
)

type shared[T any] struct {
	once sync.Once
	val  T
	err  error
}

// get starts the service on first use. A failed start is remembered so every
// later caller fails fast with the same error.
func (s *shared[T]) get(t *testing.T, start func() (T, error)) T {
	t.Helper()
	s.once.Do(func() { s.val, s.err = start() })
	if s.err != nil {
		t.Fatalf("start container: %v", s.err)
	}
	return s.val
}

// Manager hands out the shared containers.
type Manager struct {
	postgres shared[*PostgresContainer]
	kafka    shared[*KafkaContainer]
	redis    shared[*RedisContainer]
}

var manager = &Manager{}

func GetManager() *Manager {
	return manager
}

// GetPostgres returns a migrated Postgres holding the sessions table.
func (m *Manager) GetPostgres(t *testing.T) *PostgresContainer {
	t.Helper()
	return m.postgres.get(t, startPostgres)
}

// GetKafka returns a Kafka-compatible broker for the delivery and audit topics.
func (m *Manager) GetKafka(t *testing.T) *KafkaContainer {
	t.Helper()
	return m.kafka.get(t, startKafka)
}

// GetRedis returns a Redis for the session store and issuance guard.
func (m *Manager) GetRedis(t *testing.T) *RedisContainer {
	t.Helper()
	return m.redis.get(t, startRedis)
}

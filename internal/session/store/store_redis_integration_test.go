//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"f2f-cri/internal/session/models"
	"f2f-cri/internal/session/store"
	"f2f-cri/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	StoreContractSuite
	redis *containers.RedisContainer
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	s := new(RedisStoreSuite)
	s.newStore = func() store.Store { return store.NewRedis(s.redis.Client, store.WithRetention(time.Hour)) }
	suite.Run(t, s)
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
	s.StoreContractSuite.SetupTest()
}

func (s *RedisStoreSuite) TestRetentionApplied() {
	sess := newSession(time.Now().Unix())
	s.Require().NoError(s.store.Create(s.ctx, sess))

	ttl, err := s.redis.Client.TTL(s.ctx, "f2f:session:"+sess.ID).Result()
	s.Require().NoError(err)
	s.Greater(ttl, 50*time.Minute)

	_, err = s.store.Execute(s.ctx, sess.ID, noCheck, func(m *models.Session) {
		m.State = models.StateAborted
	})
	s.Require().NoError(err)

	ttl, err = s.redis.Client.TTL(s.ctx, "f2f:session:"+sess.ID).Result()
	s.Require().NoError(err)
	s.Greater(ttl, 50*time.Minute, "updates keep the original TTL")
}

func (s *RedisStoreSuite) TestListPrunesExpiredKeys() {
	sess := newSession(time.Now().Unix() - 7200)
	s.Require().NoError(s.store.Create(s.ctx, sess))
	s.Require().NoError(s.redis.Client.Del(s.ctx, "f2f:session:"+sess.ID).Err())

	got, err := s.store.ListByStates(s.ctx, []models.State{models.StateCreated}, time.Now().Unix())
	s.Require().NoError(err)
	s.Empty(got)

	n, err := s.redis.Client.ZCard(s.ctx, "f2f:state:CREATED").Result()
	s.Require().NoError(err)
	s.Zero(n)
}

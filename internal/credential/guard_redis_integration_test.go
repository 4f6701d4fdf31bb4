//go:build integration

package credential_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"f2f-cri/internal/credential"
	"f2f-cri/pkg/testutil/containers"
)

func TestRedisGuard(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	rc := containers.GetManager().GetRedis(t)
	require.NoError(t, rc.FlushAll(context.Background()))

	exerciseGuard(t, credential.NewRedisGuard(rc.Client, time.Minute, credential.WithGuardRetention(time.Hour)))
}

func TestRedisGuardPendingClaimExpires(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()
	rc := containers.GetManager().GetRedis(t)
	require.NoError(t, rc.FlushAll(ctx))

	g := credential.NewRedisGuard(rc.Client, time.Second)
	claimed, _, err := g.Claim(ctx, "crashed")
	require.NoError(t, err)
	require.True(t, claimed)

	require.Eventually(t, func() bool {
		claimed, _, err := g.Claim(ctx, "crashed")
		return err == nil && claimed
	}, 5*time.Second, 100*time.Millisecond)
}

func TestRedisGuardRetention(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()
	rc := containers.GetManager().GetRedis(t)
	require.NoError(t, rc.FlushAll(ctx))

	g := credential.NewRedisGuard(rc.Client, time.Minute, credential.WithGuardRetention(2*time.Hour))
	_, _, err := g.Claim(ctx, "s1")
	require.NoError(t, err)
	require.NoError(t, g.Complete(ctx, "s1", "vc"))

	ttl, err := rc.Client.TTL(ctx, "f2f:vc:s1").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Hour)
}

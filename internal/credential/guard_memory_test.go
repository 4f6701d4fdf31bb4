package credential_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"f2f-cri/internal/credential"
)

func exerciseGuard(t *testing.T, g credential.Guard) {
	t.Helper()
	ctx := context.Background()

	claimed, vc, err := g.Claim(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, claimed)
	assert.Empty(t, vc)

	t.Run("second claim sees pending", func(t *testing.T) {
		claimed, vc, err := g.Claim(ctx, "s1")
		require.NoError(t, err)
		assert.False(t, claimed)
		assert.Empty(t, vc)

		vc, found, err := g.Lookup(ctx, "s1")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Empty(t, vc)
	})

	t.Run("completed claim returns credential", func(t *testing.T) {
		require.NoError(t, g.Complete(ctx, "s1", "header.payload.sig"))

		claimed, vc, err := g.Claim(ctx, "s1")
		require.NoError(t, err)
		assert.False(t, claimed)
		assert.Equal(t, "header.payload.sig", vc)
	})

	t.Run("release keeps a completed credential", func(t *testing.T) {
		require.NoError(t, g.Release(ctx, "s1"))

		vc, found, err := g.Lookup(ctx, "s1")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "header.payload.sig", vc)
	})

	t.Run("release frees a pending claim", func(t *testing.T) {
		claimed, _, err := g.Claim(ctx, "s2")
		require.NoError(t, err)
		require.True(t, claimed)
		require.NoError(t, g.Release(ctx, "s2"))

		_, found, err := g.Lookup(ctx, "s2")
		require.NoError(t, err)
		assert.False(t, found)

		claimed, _, err = g.Claim(ctx, "s2")
		require.NoError(t, err)
		assert.True(t, claimed)
	})
}

func TestInMemoryGuard(t *testing.T) {
	exerciseGuard(t, credential.NewInMemoryGuard())
}

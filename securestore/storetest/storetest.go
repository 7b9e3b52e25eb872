// Package storetest is a conformance suite every securestore.Store must pass.
package storetest

import (
	"context"
	"testing"

	"github.com/jrsteele09/go-auth-client/securestore"
	"github.com/stretchr/testify/require"
)

// Run exercises newStore; each subtest gets a fresh, empty store.
func Run(t *testing.T, newStore func(t *testing.T) securestore.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("empty store reports absent entries", func(t *testing.T) {
		s := newStore(t)
		_, ok, err := s.GetToken(ctx)
		require.NoError(t, err)
		require.False(t, ok)

		_, ok, err = s.GetRefreshToken(ctx)
		require.NoError(t, err)
		require.False(t, ok)

		_, ok, err = s.GetUser(ctx)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("round trip", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.SetToken(ctx, "tok-1"))
		require.NoError(t, s.SetRefreshToken(ctx, "rt-1"))
		require.NoError(t, s.SetUser(ctx, `{"id":"u-1"}`))

		tok, ok, err := s.GetToken(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "tok-1", tok)

		rt, ok, err := s.GetRefreshToken(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "rt-1", rt)

		user, ok, err := s.GetUser(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, `{"id":"u-1"}`, user)

		require.NoError(t, s.SetToken(ctx, "tok-2"))
		tok, _, err = s.GetToken(ctx)
		require.NoError(t, err)
		require.Equal(t, "tok-2", tok)
	})

	t.Run("remove token keeps the rest", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.SetToken(ctx, "tok"))
		require.NoError(t, s.SetUser(ctx, "user"))

		require.NoError(t, s.RemoveToken(ctx))
		_, ok, err := s.GetToken(ctx)
		require.NoError(t, err)
		require.False(t, ok)

		_, ok, err = s.GetUser(ctx)
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("clear all", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.SetToken(ctx, "tok"))
		require.NoError(t, s.SetRefreshToken(ctx, "rt"))
		require.NoError(t, s.SetUser(ctx, "user"))

		require.NoError(t, s.ClearAll(ctx))
		require.NoError(t, s.ClearAll(ctx))

		_, ok, err := s.GetToken(ctx)
		require.NoError(t, err)
		require.False(t, ok)
		_, ok, err = s.GetRefreshToken(ctx)
		require.NoError(t, err)
		require.False(t, ok)
		_, ok, err = s.GetUser(ctx)
		require.NoError(t, err)
		require.False(t, ok)
	})
}

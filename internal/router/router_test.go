package router

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"globaltrust/internal/session"
	dErrors "globaltrust/pkg/domain-errors"
)

var (
	unauthenticated = session.State{Status: session.StatusUnauthenticated}
	alice           = session.State{Status: session.StatusAuthenticated, Principal: "2vxsx-fae"}
	bob             = session.State{Status: session.StatusAuthenticated, Principal: "rrkah-fqaaa-aaaaa-aaaaq-cai"}
)

func change(from, to session.State) session.Change {
	return session.Change{From: from, To: to}
}

func TestRouterStartsUnauthenticated(t *testing.T) {
	r := New()
	assert.Equal(t, ViewUnauthenticated, r.Current())

	err := r.Select(ViewLending)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	assert.Equal(t, ViewUnauthenticated, r.Current())
}

func TestRouterTransitions(t *testing.T) {
	ctx := context.Background()

	t.Run("first authenticated resolution shows the dashboard", func(t *testing.T) {
		r := New()
		require.NoError(t, r.OnSessionChange(ctx, change(session.State{}, alice)))
		assert.Equal(t, ViewDashboard, r.Current())
	})

	t.Run("select is honored while authenticated", func(t *testing.T) {
		r := New()
		require.NoError(t, r.OnSessionChange(ctx, change(unauthenticated, alice)))
		require.NoError(t, r.Select(ViewMarketplace))
		assert.Equal(t, ViewMarketplace, r.Current())
	})

	t.Run("sign-out resets the selection", func(t *testing.T) {
		r := New()
		require.NoError(t, r.OnSessionChange(ctx, change(unauthenticated, alice)))
		require.NoError(t, r.Select(ViewLending))

		require.NoError(t, r.OnSessionChange(ctx, change(alice, unauthenticated)))
		assert.Equal(t, ViewUnauthenticated, r.Current())

		require.NoError(t, r.OnSessionChange(ctx, change(unauthenticated, alice)))
		assert.Equal(t, ViewDashboard, r.Current())
	})

	t.Run("select while signed out is not remembered", func(t *testing.T) {
		r := New()
		assert.True(t, dErrors.HasCode(r.Select(ViewLending), dErrors.CodeUnauthorized))
		assert.Equal(t, ViewUnauthenticated, r.Current())

		require.NoError(t, r.OnSessionChange(ctx, change(unauthenticated, alice)))
		assert.Equal(t, ViewDashboard, r.Current())
	})

	t.Run("principal change lands on the dashboard", func(t *testing.T) {
		r := New()
		require.NoError(t, r.OnSessionChange(ctx, change(unauthenticated, alice)))
		require.NoError(t, r.Select(ViewAssets))

		require.NoError(t, r.OnSessionChange(ctx, change(alice, bob)))
		assert.Equal(t, ViewDashboard, r.Current())
	})

	t.Run("same principal keeps the selection", func(t *testing.T) {
		r := New()
		require.NoError(t, r.OnSessionChange(ctx, change(unauthenticated, alice)))
		require.NoError(t, r.Select(ViewIdentity))

		require.NoError(t, r.OnSessionChange(ctx, change(alice, alice)))
		assert.Equal(t, ViewIdentity, r.Current())
	})
}

func TestParseView(t *testing.T) {
	for _, v := range Selectable() {
		got, err := ParseView(string(v))
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}

	_, err := ParseView(string(ViewUnauthenticated))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput), "unauthenticated is not selectable")

	r := New()
	require.NoError(t, r.OnSessionChange(context.Background(), change(unauthenticated, alice)))
	assert.True(t, dErrors.HasCode(r.Select("settings"), dErrors.CodeInvalidInput))
}

package token_test

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "github.com/jrsteele09/enedis-gateway/internal/errors"
	"github.com/jrsteele09/enedis-gateway/token"
	"github.com/jrsteele09/enedis-gateway/users"
	fakeuserrepo "github.com/jrsteele09/enedis-gateway/users/repofake"
	"github.com/stretchr/testify/require"
)

type countingRefresher struct {
	calls int
	token string
	err   error
}

func (r *countingRefresher) Refresh(context.Context, *users.User) (string, error) {
	r.calls++
	return r.token, r.err
}

func seedUser(t *testing.T, repo *fakeuserrepo.FakeUserRepo, u users.User) {
	t.Helper()
	_, created, err := repo.FindOrCreate(context.Background(), &u)
	require.NoError(t, err)
	require.True(t, created)
}

func TestResolveAccessToken(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	nowFunc := func() time.Time { return now }

	t.Run("unknown user", func(t *testing.T) {
		r := token.NewResolver(fakeuserrepo.NewFakeUserRepo(), token.WithFallbackToken("fallback"))
		_, err := r.ResolveAccessToken(ctx, "nobody")
		require.ErrorIs(t, err, apperrors.ErrUserNotFound)
	})

	t.Run("valid token is returned without refreshing", func(t *testing.T) {
		repo := fakeuserrepo.NewFakeUserRepo()
		seedUser(t, repo, users.User{ID: "u1", AccessToken: "stored", ExpiresAt: now.Add(time.Hour)})
		refresher := &countingRefresher{token: "refreshed"}

		r := token.NewResolver(repo, token.WithRefresher(refresher), token.WithResolverNowFunc(nowFunc))
		got, err := r.ResolveAccessToken(ctx, "u1")
		require.NoError(t, err)
		require.Equal(t, "stored", got)
		require.Equal(t, 0, refresher.calls)
	})

	t.Run("expired token consults the refresher", func(t *testing.T) {
		repo := fakeuserrepo.NewFakeUserRepo()
		seedUser(t, repo, users.User{ID: "u1", AccessToken: "stored", ExpiresAt: now.Add(-time.Minute)})
		refresher := &countingRefresher{token: "refreshed"}

		r := token.NewResolver(repo, token.WithRefresher(refresher), token.WithResolverNowFunc(nowFunc))
		got, err := r.ResolveAccessToken(ctx, "u1")
		require.NoError(t, err)
		require.Equal(t, "refreshed", got)
		require.Equal(t, 1, refresher.calls)
	})

	t.Run("default refresher returns the stale token", func(t *testing.T) {
		repo := fakeuserrepo.NewFakeUserRepo()
		seedUser(t, repo, users.User{ID: "u1", AccessToken: "stale", ExpiresAt: now.Add(-time.Hour)})

		r := token.NewResolver(repo, token.WithResolverNowFunc(nowFunc))
		got, err := r.ResolveAccessToken(ctx, "u1")
		require.NoError(t, err)
		require.Equal(t, "stale", got)
	})

	t.Run("refresh failure", func(t *testing.T) {
		repo := fakeuserrepo.NewFakeUserRepo()
		seedUser(t, repo, users.User{ID: "u1", AccessToken: "stale", ExpiresAt: now.Add(-time.Hour)})
		refresher := &countingRefresher{err: errors.New("boom")}

		r := token.NewResolver(repo, token.WithRefresher(refresher), token.WithResolverNowFunc(nowFunc))
		_, err := r.ResolveAccessToken(ctx, "u1")
		require.Error(t, err)
	})

	t.Run("empty stored token falls back", func(t *testing.T) {
		repo := fakeuserrepo.NewFakeUserRepo()
		seedUser(t, repo, users.User{ID: "u1"})

		r := token.NewResolver(repo, token.WithFallbackToken("fallback"), token.WithResolverNowFunc(nowFunc))
		got, err := r.ResolveAccessToken(ctx, "u1")
		require.NoError(t, err)
		require.Equal(t, "fallback", got)
	})
}

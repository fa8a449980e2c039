package token

import (
	"context"
	"fmt"
	"time"

	"github.com/jrsteele09/enedis-gateway/users"
	"github.com/rs/zerolog/log"
)

// Refresher renews a user's provider access token once it has expired.
type Refresher interface {
	Refresh(ctx context.Context, user *users.User) (string, error)
}

// StaleTokenRefresher does not refresh anything. It hands back the stored access token
// as-is, expired or not, so the provider decides whether it is still accepted.
type StaleTokenRefresher struct{}

func (StaleTokenRefresher) Refresh(_ context.Context, user *users.User) (string, error) {
	return user.AccessToken, nil
}

// Resolver yields the access token to present to the provider on behalf of a user.
type Resolver struct {
	users         users.Repo
	refresher     Refresher
	fallbackToken string
	nowFunc       func() time.Time
}

type ResolverOption func(*Resolver)

// WithRefresher swaps the refresh strategy
func WithRefresher(r Refresher) ResolverOption {
	return func(res *Resolver) {
		res.refresher = r
	}
}

// WithFallbackToken sets the token used when a user has none stored (ACCESS_TOKEN).
func WithFallbackToken(token string) ResolverOption {
	return func(res *Resolver) {
		res.fallbackToken = token
	}
}

func WithResolverNowFunc(now func() time.Time) ResolverOption {
	return func(res *Resolver) {
		res.nowFunc = now
	}
}

func NewResolver(repo users.Repo, options ...ResolverOption) *Resolver {
	r := &Resolver{
		users:     repo,
		refresher: StaleTokenRefresher{},
		nowFunc:   time.Now,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// ResolveAccessToken returns ErrUserNotFound for unknown users.
func (r *Resolver) ResolveAccessToken(ctx context.Context, userID string) (string, error) {
	user, err := r.users.GetByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("[Resolver ResolveAccessToken] %w", err)
	}

	accessToken := user.AccessToken
	if user.IsAccessTokenExpired(r.nowFunc()) {
		log.Debug().Str("user_id", userID).Time("expires_at", user.ExpiresAt).Msg("Access token expired")
		accessToken, err = r.refresher.Refresh(ctx, user)
		if err != nil {
			return "", fmt.Errorf("[Resolver ResolveAccessToken] refresh failed: %w", err)
		}
	}

	if accessToken == "" {
		return r.fallbackToken, nil
	}
	return accessToken, nil
}

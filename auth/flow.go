package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"net/url"
	"time"

	"github.com/jrsteele09/enedis-gateway/enedis"
	apperrors "github.com/jrsteele09/enedis-gateway/internal/errors"
	"github.com/jrsteele09/enedis-gateway/sessions"
	"github.com/jrsteele09/enedis-gateway/users"
	"github.com/rs/zerolog/log"
)

const (
	stateLength        = 12
	defaultTestClient  = "0"
	defaultSessionTTL  = 24 * time.Hour
	deepLinkTokenParam = "user"
)

// Provider is the part of the Enedis client the consent flow needs.
type Provider interface {
	AuthCodeURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*enedis.TokenGrant, error)
	FetchIdentity(ctx context.Context, accessToken, usagePointID string) (*enedis.Customer, error)
}

// SessionTokens signs the token handed back to the mobile app.
type SessionTokens interface {
	CreateSessionToken(userID, usagePointID string) (string, error)
}

// Deps holds all dependencies of the Flow
type Deps struct {
	Provider Provider
	Users    users.Repo
	Sessions sessions.Store
	Tokens   SessionTokens
}

// Flow drives the Enedis consent flow: login redirect, callback, user upsert and deep link.
type Flow struct {
	deps       Deps
	deepLink   string
	sessionTTL time.Duration
	nowTime    func() time.Time
	newState   func() (string, error)
}

// FlowOption defines a function type to modify the Flow instance.
type FlowOption func(*Flow)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) FlowOption {
	return func(f *Flow) {
		f.nowTime = nowFunc
	}
}

// WithSessionTTL bounds how long a login may take before its state is forgotten.
func WithSessionTTL(ttl time.Duration) FlowOption {
	return func(f *Flow) {
		f.sessionTTL = ttl
	}
}

// WithStateGenerator replaces the random state source (primarily for testing)
func WithStateGenerator(gen func() (string, error)) FlowOption {
	return func(f *Flow) {
		f.newState = gen
	}
}

func NewFlow(deps Deps, deepLink string, options ...FlowOption) *Flow {
	f := &Flow{
		deps:       deps,
		deepLink:   deepLink,
		sessionTTL: defaultSessionTTL,
		nowTime:    time.Now,
		newState:   randomState,
	}
	for _, opt := range options {
		opt(f)
	}
	return f
}

// BeginLogin stores a fresh state in the session and returns the consent page URL.
// The last character of the state selects the sandbox test client: testClientID when it
// is a digit between 0 and 4, 0 otherwise.
func (f *Flow) BeginLogin(ctx context.Context, sessionID, testClientID string) (string, error) {
	random, err := f.newState()
	if err != nil {
		return "", fmt.Errorf("[Flow BeginLogin] failed to generate state: %w", err)
	}
	state := random + normaliseTestClient(testClientID)

	session := sessions.Session{State: state, CreatedAt: f.nowTime()}
	if err := f.deps.Sessions.Save(ctx, sessionID, session, f.sessionTTL); err != nil {
		return "", fmt.Errorf("[Flow BeginLogin] failed to save session: %w", err)
	}

	redirectURL := f.deps.Provider.AuthCodeURL(state)
	log.Debug().Str("session_id", sessionID).Str("redirect_url", redirectURL).Msg("Starting Enedis consent")
	return redirectURL, nil
}

// HandleRedirect completes the flow and returns the deep link carrying the session token.
// A state that does not match the session's is rejected before anything else happens, and
// the stored state is consumed either way.
func (f *Flow) HandleRedirect(ctx context.Context, sessionID, returnedState, code, usagePointID string) (string, error) {
	session, err := f.deps.Sessions.Take(ctx, sessionID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrSessionNotFound) {
			return "", fmt.Errorf("[Flow HandleRedirect] %w: %w", apperrors.ErrStateMismatch, err)
		}
		return "", fmt.Errorf("[Flow HandleRedirect] %w", err)
	}
	if returnedState == "" || subtle.ConstantTimeCompare([]byte(session.State), []byte(returnedState)) != 1 {
		return "", fmt.Errorf("[Flow HandleRedirect] %w", apperrors.ErrStateMismatch)
	}

	grant, err := f.deps.Provider.ExchangeCode(ctx, code)
	if err != nil {
		return "", fmt.Errorf("[Flow HandleRedirect] code exchange: %w", err)
	}

	customer, err := f.deps.Provider.FetchIdentity(ctx, grant.AccessToken, usagePointID)
	if err != nil {
		return "", fmt.Errorf("[Flow HandleRedirect] identity: %w", err)
	}

	user, err := f.upsertUser(ctx, customer, grant, usagePointID)
	if err != nil {
		return "", fmt.Errorf("[Flow HandleRedirect] %w", err)
	}

	sessionToken, err := f.deps.Tokens.CreateSessionToken(user.ID, usagePointID)
	if err != nil {
		return "", fmt.Errorf("[Flow HandleRedirect] %w", err)
	}
	return f.deepLinkWith(sessionToken)
}

// upsertUser creates the user on first consent. Names are only written at creation;
// tokens, expiry and usage point are overwritten every time.
func (f *Flow) upsertUser(ctx context.Context, customer *enedis.Customer, grant *enedis.TokenGrant, usagePointID string) (*users.User, error) {
	creds := users.Credentials{
		AccessToken:  grant.AccessToken,
		RefreshToken: grant.RefreshToken,
		UsagePointID: usagePointID,
		ExpiresAt:    grant.ExpiresAt(),
	}

	candidate := &users.User{
		ID:        customer.CustomerID,
		Firstname: customer.Identity.NaturalPerson.Firstname,
		Lastname:  customer.Identity.NaturalPerson.Lastname,
	}
	candidate.ApplyCredentials(creds)

	user, created, err := f.deps.Users.FindOrCreate(ctx, candidate)
	if err != nil {
		return nil, fmt.Errorf("find or create user: %w", err)
	}
	if created {
		log.Info().Str("user_id", user.ID).Msg("Created user")
		return user, nil
	}

	user.ApplyCredentials(creds)
	if err := f.deps.Users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

func (f *Flow) deepLinkWith(sessionToken string) (string, error) {
	u, err := url.Parse(f.deepLink)
	if err != nil {
		return "", fmt.Errorf("[Flow] invalid deep link %q: %w", f.deepLink, err)
	}
	q := u.Query()
	q.Set(deepLinkTokenParam, sessionToken)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func normaliseTestClient(testClientID string) string {
	if len(testClientID) == 1 && testClientID[0] >= '0' && testClientID[0] <= '4' {
		return testClientID
	}
	return defaultTestClient
}

func randomState() (string, error) {
	b := make([]byte, stateLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

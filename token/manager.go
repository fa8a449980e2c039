package token

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	apperrors "github.com/jrsteele09/enedis-gateway/internal/errors"
)

// Claims is the payload of a session token handed to the mobile app. Session tokens carry
// no expiry; they stay valid until JWT_SECRET changes.
type Claims struct {
	ID           string `json:"id"`
	UsagePointID string `json:"usagePointId"`
	jwt.RegisteredClaims
}

// Manager issues and parses session tokens.
type Manager struct {
	signer  Signer
	nowFunc func() time.Time
}

type ManagerOption func(*Manager)

func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

func New(signer Signer, options ...ManagerOption) *Manager {
	m := &Manager{
		signer:  signer,
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// CreateSessionToken signs {id, usagePointId, iat}.
func (m *Manager) CreateSessionToken(userID, usagePointID string) (string, error) {
	claims := Claims{
		ID:           userID,
		UsagePointID: usagePointID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(m.nowFunc()),
		},
	}
	signed, err := m.signer.Sign(claims)
	if err != nil {
		return "", fmt.Errorf("[Manager CreateSessionToken] %w", err)
	}
	return signed, nil
}

// ParseSessionToken verifies the signature and returns the claims. Every failure
// unwraps to ErrInvalidToken.
func (m *Manager) ParseSessionToken(rawToken string) (*Claims, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidToken, "[Manager ParseSessionToken] empty token")
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(rawToken, claims, m.signer.GetVerificationKey,
		jwt.WithValidMethods([]string{m.signer.GetSigningMethod().Alg()}),
		jwt.WithTimeFunc(m.nowFunc),
	)
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("[Manager ParseSessionToken] %w: %v", apperrors.ErrInvalidToken, err)
	}
	if claims.ID == "" {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidToken, "[Manager ParseSessionToken] token has no id")
	}
	return claims, nil
}

package users

import "time"

// User links a local account to an Enedis customer. ID is the provider's customer_id.
type User struct {
	ID           string    `json:"id"`
	Firstname    string    `json:"firstname,omitempty"`
	Lastname     string    `json:"lastname,omitempty"`
	UsagePointID string    `json:"usagePointId,omitempty"`
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// Credentials are the fields overwritten on every successful authorization code exchange.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	UsagePointID string
	ExpiresAt    time.Time
}

// ApplyCredentials overwrites the token fields and usage point. Names are left alone.
func (u *User) ApplyCredentials(c Credentials) {
	u.AccessToken = c.AccessToken
	u.RefreshToken = c.RefreshToken
	u.UsagePointID = c.UsagePointID
	u.ExpiresAt = c.ExpiresAt
}

// IsAccessTokenExpired reports whether the stored access token expired before now.
// A zero expiry is treated as unknown, not expired.
func (u *User) IsAccessTokenExpired(now time.Time) bool {
	return !u.ExpiresAt.IsZero() && u.ExpiresAt.Before(now)
}

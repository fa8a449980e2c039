package config

import "time"

const (
	defaultAPIBaseURL   = "https://gw.hml.api.enedis.fr"
	defaultAuthorizeURL = defaultAPIBaseURL + "/group/espace-particuliers/consentement-linky/oauth2/authorize"
	defaultTokenURL     = defaultAPIBaseURL + "/v1/oauth2/token"
	defaultDeepLink     = "enedis-third-party-app://auth_complete"
)

// Enedis holds the upstream provider credentials and endpoints
type Enedis struct {
	ClientID     string
	ClientSecret string
	Duration     string // ISO-8601 consent duration, e.g. "P6M"
	RedirectURI  string

	APIBaseURL   string
	AuthorizeURL string
	TokenURL     string

	// FallbackAccessToken is sent when a user has no stored access token.
	FallbackAccessToken string

	// RequestTimeout bounds outbound calls. Zero means no timeout.
	RequestTimeout time.Duration

	// DeepLink is where the mobile application catches the end of the login flow.
	DeepLink string
}

func loadEnedis() Enedis {
	return Enedis{
		ClientID:            GetEnv(clientIDVar, ""),
		ClientSecret:        GetEnv(clientSecretVar, ""),
		Duration:            GetEnv(durationVar, "P6M"),
		RedirectURI:         GetEnv(redirectURIVar, ""),
		APIBaseURL:          GetEnv(apiBaseURLVar, defaultAPIBaseURL),
		AuthorizeURL:        GetEnv(authorizeURLVar, defaultAuthorizeURL),
		TokenURL:            GetEnv(tokenURLVar, defaultTokenURL),
		FallbackAccessToken: GetEnv(accessTokenVar, ""),
		RequestTimeout:      parseDuration(GetEnv(httpTimeoutVar, ""), 0),
		DeepLink:            GetEnv(deepLinkVar, defaultDeepLink),
	}
}

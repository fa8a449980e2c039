package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv(jwtSecretVar, "jwt")
	t.Setenv(sessionSecret, "session")
	t.Setenv(clientIDVar, "client")
	t.Setenv(clientSecretVar, "secret")
	t.Setenv(redirectURIVar, "https://gateway.example.com/redirect")

	// Clear anything inherited from the host environment.
	for _, key := range []string{envVar, portEnvVar, durationVar, httpTimeoutVar, sessionMaxAgeVar, databaseURLVar, databaseMigrateVar, allowedOriginsVar} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.True(t, cfg.IsDev())
	require.Equal(t, ":3001", cfg.Port)
	require.Equal(t, "P6M", cfg.Enedis.Duration)
	require.Equal(t, defaultAuthorizeURL, cfg.Enedis.AuthorizeURL)
	require.Equal(t, defaultDeepLink, cfg.Enedis.DeepLink)
	require.Zero(t, cfg.Enedis.RequestTimeout)
	require.Equal(t, 24*time.Hour, cfg.Security.SessionMaxAge)
	require.True(t, cfg.Storage.MigrateOnStart)
	require.Empty(t, cfg.Storage.DatabaseURL)
	require.True(t, cfg.Cors.AllowedOrigins.IsAllowedOrigin("*"))
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv(portEnvVar, "8080")
	t.Setenv(envVar, "PRODUCTION")
	t.Setenv(durationVar, "P1Y")
	t.Setenv(httpTimeoutVar, "15s")
	t.Setenv(sessionMaxAgeVar, "2h")
	t.Setenv(databaseMigrateVar, "false")
	t.Setenv(accessTokenVar, "fallback")
	t.Setenv(allowedOriginsVar, "https://a.example.com, https://b.example.com")

	cfg, err := Load()
	require.NoError(t, err)
	require.False(t, cfg.IsDev())
	require.Equal(t, ":8080", cfg.Port)
	require.Equal(t, "P1Y", cfg.Enedis.Duration)
	require.Equal(t, 15*time.Second, cfg.Enedis.RequestTimeout)
	require.Equal(t, 2*time.Hour, cfg.Security.SessionMaxAge)
	require.False(t, cfg.Storage.MigrateOnStart)
	require.Equal(t, "fallback", cfg.Enedis.FallbackAccessToken)
	require.True(t, cfg.Cors.AllowedOrigins.IsAllowedOrigin("https://b.example.com"))
	require.False(t, cfg.Cors.AllowedOrigins.IsAllowedOrigin("*"))
}

func TestLoadRejects(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{name: "missing jwt secret", key: jwtSecretVar, value: ""},
		{name: "missing client id", key: clientIDVar, value: ""},
		{name: "missing redirect uri", key: redirectURIVar, value: ""},
		{name: "bad duration", key: durationVar, value: "6 months"},
		{name: "bare duration", key: durationVar, value: "P"},
		{name: "bad session max age", key: sessionMaxAgeVar, value: "forever"},
		{name: "bad timeout", key: httpTimeoutVar, value: "soon"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tc.key, tc.value)

			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestISO8601Duration(t *testing.T) {
	for _, ok := range []string{"P6M", "P1Y", "P3W", "P1DT12H", "PT30M"} {
		require.True(t, isISO8601Duration(ok), ok)
	}
	for _, bad := range []string{"", "P", "6M", "P1DT", "P1X"} {
		require.False(t, isISO8601Duration(bad), bad)
	}
}

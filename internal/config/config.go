package config

import (
	"fmt"
	"time"
)

// Config is built once at startup and handed to the components that need it.
// Nothing reads the environment after Load returns.
type Config struct {
	Env      string
	AppName  string
	Port     string
	LogLevel string

	Enedis   Enedis
	Security Security
	Storage  Storage
	Cors     Cors
}

// Load reads the configuration from environment variables and validates the required keys.
func Load() (*Config, error) {
	cfg := &Config{
		Env:      GetEnv(envVar, "DEV"),
		AppName:  GetEnv(appNameVar, "Enedis Gateway"),
		Port:     normalisePort(GetEnv(portEnvVar, "3001")),
		LogLevel: GetEnv(logLevelVar, "info"),
		Enedis:   loadEnedis(),
		Security: loadSecurity(),
		Storage:  loadStorage(),
		Cors:     loadCors(),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsDev reports whether the service runs in the development environment
func (c *Config) IsDev() bool {
	return c.Env == "DEV"
}

func (c *Config) validate() error {
	required := map[string]string{
		jwtSecretVar:    c.Security.JWTSecret,
		sessionSecret:   c.Security.SessionSecret,
		clientIDVar:     c.Enedis.ClientID,
		clientSecretVar: c.Enedis.ClientSecret,
		redirectURIVar:  c.Enedis.RedirectURI,
	}
	for _, key := range []string{jwtSecretVar, sessionSecret, clientIDVar, clientSecretVar, redirectURIVar} {
		if required[key] == "" {
			return fmt.Errorf("[config Load] %s is required but not set in environment variables", key)
		}
	}

	if !isISO8601Duration(c.Enedis.Duration) {
		return fmt.Errorf("[config Load] %s must be an ISO-8601 duration (e.g. P6M), got %q", durationVar, c.Enedis.Duration)
	}
	if c.Security.SessionMaxAge <= 0 {
		return fmt.Errorf("[config Load] %s must be positive", sessionMaxAgeVar)
	}
	if c.Enedis.RequestTimeout < 0 {
		return fmt.Errorf("[config Load] %s cannot be negative", httpTimeoutVar)
	}
	return nil
}

func normalisePort(port string) string {
	if port == "" {
		return ":3001"
	}
	if port[0] != ':' {
		return ":" + port
	}
	return port
}

func parseDuration(value string, defaultValue time.Duration) time.Duration {
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return -1
	}
	return d
}

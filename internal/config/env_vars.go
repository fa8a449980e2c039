package config

import (
	"os"
	"regexp"
	"strconv"
	"strings"
)

const (
	envVar      = "ENV"
	portEnvVar  = "PORT"
	appNameVar  = "APP_NAME"
	logLevelVar = "LOG_LEVEL"

	jwtSecretVar     = "JWT_SECRET"
	sessionSecret    = "SESSION_SECRET"
	sessionMaxAgeVar = "SESSION_MAX_AGE"

	clientIDVar        = "CLIENT_ID"
	clientSecretVar    = "CLIENT_SECRET"
	durationVar        = "DURATION"
	redirectURIVar     = "REDIRECT_URI"
	accessTokenVar     = "ACCESS_TOKEN"
	apiBaseURLVar      = "ENEDIS_API_BASE_URL"
	authorizeURLVar    = "ENEDIS_AUTHORIZE_URL"
	tokenURLVar        = "ENEDIS_TOKEN_URL"
	httpTimeoutVar     = "ENEDIS_HTTP_TIMEOUT"
	deepLinkVar        = "APP_DEEP_LINK"
	databaseURLVar     = "DATABASE_URL"
	databaseMigrateVar = "DATABASE_MIGRATE"
	redisURLVar        = "REDIS_URL"
	allowedOriginsVar  = "CORS_ALLOWED_ORIGINS"
)

var iso8601Duration = regexp.MustCompile(`^P(\d+Y)?(\d+M)?(\d+W)?(\d+D)?(T(\d+H)?(\d+M)?(\d+S)?)?$`)

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

func GetEnvAsBool(envVar string, defaultValue bool) bool {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

// isISO8601Duration accepts durations such as P6M, P1Y or P1DT12H. A bare "P" or a
// trailing "T" are rejected.
func isISO8601Duration(value string) bool {
	if len(value) < 2 || strings.HasSuffix(value, "T") {
		return false
	}
	return iso8601Duration.MatchString(value)
}

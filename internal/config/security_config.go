package config

import "time"

type Security struct {
	JWTSecret     string
	SessionSecret string
	SessionMaxAge time.Duration
}

func loadSecurity() Security {
	return Security{
		JWTSecret:     GetEnv(jwtSecretVar, ""),
		SessionSecret: GetEnv(sessionSecret, ""),
		SessionMaxAge: parseDuration(GetEnv(sessionMaxAgeVar, ""), 24*time.Hour),
	}
}

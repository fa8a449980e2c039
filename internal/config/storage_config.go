package config

// Storage selects the persistence backends. Empty URLs select the in-memory implementations.
type Storage struct {
	DatabaseURL    string
	MigrateOnStart bool
	RedisURL       string
}

func loadStorage() Storage {
	return Storage{
		DatabaseURL:    GetEnv(databaseURLVar, ""),
		MigrateOnStart: GetEnvAsBool(databaseMigrateVar, true),
		RedisURL:       GetEnv(redisURLVar, ""),
	}
}

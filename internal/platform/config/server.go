package config

import "fmt"

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"

	AuthModeJWT = "jwt"
	AuthModeDev = "dev"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// ServerConfig is the environment-driven configuration of cmd/api.
type ServerConfig struct {
	Port           string
	StorageBackend string
	DatabaseURL    string
	Redis          RedisConfig
	// SeedCatalog loads the built-in airports and airlines into Postgres at startup.
	SeedCatalog bool

	AuthMode   string
	DevSubject string
	JWT        JWTConfig

	LogEnv string
}

func LoadServerConfigFromEnv() (ServerConfig, error) {
	cfg := ServerConfig{
		Port:           getenv("PORT", "8080"),
		StorageBackend: getenv("STORAGE_BACKEND", BackendMemory),
		DatabaseURL:    getenv("DATABASE_URL", ""),
		Redis: RedisConfig{
			Addr:     getenv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: getenv("REDIS_PASSWORD", ""),
		},
		AuthMode:   getenv("AUTH_MODE", AuthModeJWT),
		DevSubject: getenv("DEV_SUBJECT", "dev|local"),
		LogEnv:     getenv("LOG_ENV", "production"),
	}

	db, err := envInt("REDIS_DB", 0)
	if err != nil {
		return ServerConfig{}, err
	}
	cfg.Redis.DB = db

	if cfg.SeedCatalog, err = envBool("SEED_CATALOG", true); err != nil {
		return ServerConfig{}, err
	}

	switch cfg.StorageBackend {
	case BackendMemory, BackendRedis:
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return ServerConfig{}, fmt.Errorf("DATABASE_URL is required when STORAGE_BACKEND=%s", BackendPostgres)
		}
	default:
		return ServerConfig{}, fmt.Errorf("STORAGE_BACKEND must be one of memory, postgres, redis (got %q)", cfg.StorageBackend)
	}

	switch cfg.AuthMode {
	case AuthModeDev:
	case AuthModeJWT:
		jwt, err := LoadJWTConfigFromEnv()
		if err != nil {
			return ServerConfig{}, err
		}
		cfg.JWT = jwt
	default:
		return ServerConfig{}, fmt.Errorf("AUTH_MODE must be jwt or dev (got %q)", cfg.AuthMode)
	}

	return cfg, nil
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Sync      SyncConfig
	WebSocket WebSocketConfig
	CORS      CORSConfig
}

type ServerConfig struct {
	Port string
	Host string
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string

	// Three databases: the authoritative entity store, the device shadow
	// cache, and the resolved-conflict audit trail.
	ServerDB  string
	CacheDB   string
	HistoryDB string
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

type SyncConfig struct {
	// SyncKey is the shared key devices exchange for session tokens.
	SyncKey string

	// HistoryCap bounds the in-memory resolved-conflict list.
	HistoryCap int

	// SchemaFile optionally overrides the built-in entity schemas.
	SchemaFile string
}

type WebSocketConfig struct {
	WriteWait      time.Duration
	PongWait       time.Duration
	PingPeriod     time.Duration
	MaxConnPerUser int
}

type CORSConfig struct {
	AllowedOrigins string
	AllowedMethods string
	AllowedHeaders string
}

func Load() (*Config, error) {
	godotenv.Load()

	jwtExp, err := time.ParseDuration(getEnv("JWT_EXPIRATION", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_EXPIRATION: %w", err)
	}

	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Host: getEnv("HOST", "0.0.0.0"),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:      getEnv("DB_HOST", "localhost"),
			Port:      getEnv("DB_PORT", "5984"),
			User:      getEnv("DB_USER", "admin"),
			Password:  getEnv("DB_PASSWORD", "password"),
			ServerDB:  getEnv("DB_SERVER_NAME", "stride_entities"),
			CacheDB:   getEnv("DB_CACHE_NAME", "stride_cache"),
			HistoryDB: getEnv("DB_HISTORY_NAME", "stride_conflicts"),
		},
		JWT: JWTConfig{
			Secret:     getEnv("JWT_SECRET", "dev-secret-change-in-production"),
			Expiration: jwtExp,
		},
		Sync: SyncConfig{
			SyncKey:    getEnv("SYNC_KEY", "dev-sync-key"),
			HistoryCap: getEnvAsInt("CONFLICT_HISTORY_CAP", 200),
			SchemaFile: getEnv("SCHEMA_FILE", ""),
		},
		WebSocket: WebSocketConfig{
			WriteWait:      10 * time.Second,
			PongWait:       60 * time.Second,
			PingPeriod:     54 * time.Second,
			MaxConnPerUser: getEnvAsInt("WS_MAX_CONN_PER_USER", 5),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			AllowedMethods: getEnv("CORS_ALLOWED_METHODS", "GET,POST,PUT,DELETE,OPTIONS"),
			AllowedHeaders: getEnv("CORS_ALLOWED_HEADERS", "Content-Type,Authorization"),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

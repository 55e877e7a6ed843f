package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// DatabaseConfig holds the PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// DSN builds the lib/pq connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// RedisConfig holds the redis connection settings (sessions, live fan-out,
// document-change stream).
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// PushConfig holds the FCM HTTP settings for the notifier.
type PushConfig struct {
	Endpoint  string
	ServerKey string
	Timeout   time.Duration
}

// Config is the shared configuration for medtrack-api and medtrack-notifier.
type Config struct {
	HTTP struct {
		Addr string
	}
	Database DatabaseConfig
	Redis    RedisConfig
	Push     PushConfig
	Log      struct {
		Level  string
		Format string
	}
	Events struct {
		Stream    string
		Group     string
		Consumer  string
		BatchSize int64
	}
	Reconciler struct {
		Interval time.Duration
	}
	Session struct {
		TTL time.Duration
	}
}

func Load() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = parseInt(getEnv("DB_PORT", "5432"), 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "medtrack")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = parseInt(getEnv("DB_MAX_CONNS", "20"), 20)
	cfg.Database.MaxIdle = parseInt(getEnv("DB_MAX_IDLE", "5"), 5)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = parseInt(getEnv("REDIS_DB", "0"), 0)

	cfg.Push.Endpoint = getEnv("FCM_ENDPOINT", "https://fcm.googleapis.com/fcm/send")
	cfg.Push.ServerKey = getEnv("FCM_SERVER_KEY", "")
	cfg.Push.Timeout = parseDuration(getEnv("FCM_TIMEOUT", "10s"), 10*time.Second)

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	cfg.Events.Stream = getEnv("EVENTS_STREAM", "medtrack:document-events")
	cfg.Events.Group = getEnv("EVENTS_GROUP", "medtrack-notifier")
	cfg.Events.Consumer = getEnv("EVENTS_CONSUMER", "notifier-1")
	cfg.Events.BatchSize = int64(parseInt(getEnv("EVENTS_BATCH_SIZE", "10"), 10))

	cfg.Reconciler.Interval = parseDuration(getEnv("RECONCILER_INTERVAL", "10m"), 10*time.Minute)
	cfg.Session.TTL = parseDuration(getEnv("SESSION_TTL", "24h"), 24*time.Hour)

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	return def
}

func parseDuration(s string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return def
}

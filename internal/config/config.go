package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type Config struct {
	Env string

	Server      ServerConfig
	Storage     StorageConfig
	Postgres    PostgresConfig
	Redis       RedisConfig
	JWT         JWTConfig
	Log         LogConfig
	Booking     BookingConfig
	Notify      NotifyConfig
	Worker      WorkerConfig
	RateLimit   RateLimitConfig
	Suggestions SuggestionsConfig
}

type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

type StorageConfig struct {
	Driver         string
	MigrateOnStart bool
}

type PostgresConfig struct {
	User     string
	Password string
	Name     string
	Host     string
	Port     int
	SSLMode  string
	MaxConns int32

	// ConnectAttempts is how many pings the app tries before giving up on startup.
	ConnectAttempts int
}

// DSN renders the connection string used by both pgx and the migrator.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode,
	)
}

// RedisConfig leaves Addr empty to run without Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
}

type JWTConfig struct {
	Secret string
}

type LogConfig struct {
	Level  string
	Format string
}

type BookingConfig struct {
	Location            *time.Location
	RequireAvailability bool
	SlotCacheTTL        time.Duration
	IdempotencyTTL      time.Duration
}

type NotifyConfig struct {
	Driver        string
	RabbitMQURL   string
	RabbitMQQueue string
	KafkaBrokers  []string
	KafkaTopic    string
}

type WorkerConfig struct {
	CompletionInterval time.Duration
	CompletionBatch    int
}

type RateLimitConfig struct {
	Limit  int
	Window time.Duration
}

type SuggestionsConfig struct {
	MaxRadiusKm float64
}

func New() (*Config, error) {
	const op = "config.New"

	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	cfg := &Config{
		Env: v.GetString("APP_ENV"),
		Server: ServerConfig{
			Host:           v.GetString("SERVER_HOST"),
			Port:           v.GetInt("SERVER_PORT"),
			AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS")),
		},
		Storage: StorageConfig{
			Driver:         strings.ToLower(v.GetString("STORAGE_DRIVER")),
			MigrateOnStart: v.GetBool("MIGRATE_ON_START"),
		},
		Postgres: PostgresConfig{
			User:     v.GetString("POSTGRES_USER"),
			Password: v.GetString("POSTGRES_PASSWORD"),
			Name:     v.GetString("POSTGRES_DB"),
			Host:     v.GetString("POSTGRES_HOST"),
			Port:     v.GetInt("POSTGRES_PORT"),
			SSLMode:  v.GetString("POSTGRES_SSLMODE"),
			MaxConns: v.GetInt32("POSTGRES_MAX_CONNS"),

			ConnectAttempts: v.GetInt("POSTGRES_CONNECT_ATTEMPTS"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			PoolSize: v.GetInt("REDIS_POOL_SIZE"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("JWT_SECRET"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Booking: BookingConfig{
			RequireAvailability: v.GetBool("BOOKING_REQUIRE_AVAILABILITY"),
			SlotCacheTTL:        parseDuration(v.GetString("SLOT_CACHE_TTL"), 30*time.Second),
			IdempotencyTTL:      parseDuration(v.GetString("IDEMPOTENCY_TTL"), 24*time.Hour),
		},
		Notify: NotifyConfig{
			Driver:        strings.ToLower(v.GetString("NOTIFY_DRIVER")),
			RabbitMQURL:   v.GetString("RABBITMQ_URL"),
			RabbitMQQueue: v.GetString("RABBITMQ_QUEUE"),
			KafkaBrokers:  splitAndTrim(v.GetString("KAFKA_BROKERS")),
			KafkaTopic:    v.GetString("KAFKA_TOPIC"),
		},
		Worker: WorkerConfig{
			CompletionInterval: parseDuration(v.GetString("COMPLETION_INTERVAL"), time.Minute),
			CompletionBatch:    v.GetInt("COMPLETION_BATCH"),
		},
		RateLimit: RateLimitConfig{
			Limit:  v.GetInt("RATE_LIMIT"),
			Window: parseDuration(v.GetString("RATE_LIMIT_WINDOW"), time.Minute),
		},
		Suggestions: SuggestionsConfig{
			MaxRadiusKm: v.GetFloat64("SUGGEST_MAX_RADIUS_KM"),
		},
	}

	loc, err := time.LoadLocation(v.GetString("BOOKING_TIMEZONE"))
	if err != nil {
		return nil, fmt.Errorf("%s: invalid BOOKING_TIMEZONE: %w", op, err)
	}
	cfg.Booking.Location = loc

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case StorageMemory:
	case StoragePostgres:
		if c.Postgres.User == "" {
			return fmt.Errorf("missing POSTGRES_USER")
		}
		if c.Postgres.Password == "" {
			return fmt.Errorf("missing POSTGRES_PASSWORD")
		}
		if c.Postgres.Name == "" {
			return fmt.Errorf("missing POSTGRES_DB")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid SERVER_PORT %d", c.Server.Port)
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("missing JWT_SECRET")
	}

	switch c.Notify.Driver {
	case "log", "redis":
	case "rabbitmq":
		if c.Notify.RabbitMQURL == "" {
			return fmt.Errorf("missing RABBITMQ_URL")
		}
	case "kafka":
		if len(c.Notify.KafkaBrokers) == 0 {
			return fmt.Errorf("missing KAFKA_BROKERS")
		}
	default:
		return fmt.Errorf("unknown NOTIFY_DRIVER %q", c.Notify.Driver)
	}

	if c.Suggestions.MaxRadiusKm <= 0 {
		return fmt.Errorf("SUGGEST_MAX_RADIUS_KM must be positive")
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", EnvDevelopment)

	v.SetDefault("SERVER_HOST", "localhost")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("ALLOWED_ORIGINS", "")

	v.SetDefault("STORAGE_DRIVER", StoragePostgres)
	v.SetDefault("MIGRATE_ON_START", true)

	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", 5432)
	v.SetDefault("POSTGRES_USER", "")
	v.SetDefault("POSTGRES_PASSWORD", "")
	v.SetDefault("POSTGRES_DB", "")
	v.SetDefault("POSTGRES_SSLMODE", "disable")
	v.SetDefault("POSTGRES_MAX_CONNS", 10)
	v.SetDefault("POSTGRES_CONNECT_ATTEMPTS", 5)

	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_POOL_SIZE", 0)

	v.SetDefault("JWT_SECRET", "")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("BOOKING_TIMEZONE", "Local")
	v.SetDefault("BOOKING_REQUIRE_AVAILABILITY", false)
	v.SetDefault("SLOT_CACHE_TTL", "30s")
	v.SetDefault("IDEMPOTENCY_TTL", "24h")

	v.SetDefault("NOTIFY_DRIVER", "log")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("RABBITMQ_QUEUE", "booking_notifications")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC", "booking-notifications")

	v.SetDefault("COMPLETION_INTERVAL", "1m")
	v.SetDefault("COMPLETION_BATCH", 100)

	v.SetDefault("RATE_LIMIT", 20)
	v.SetDefault("RATE_LIMIT_WINDOW", "1m")

	v.SetDefault("SUGGEST_MAX_RADIUS_KM", 25.0)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

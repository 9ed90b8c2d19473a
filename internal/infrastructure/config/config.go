package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string        `env:"PORT,        default=8080"`
	Env       string        `env:"ENV,         default=development"`
	JWTSecret string        `env:"JWT_SECRET,  required"`
	TokenTTL  time.Duration `env:"TOKEN_TTL,   default=24h"`
	LogLevel  string        `env:"LOG_LEVEL,   default=info"`

	Mongo        MongoConfig
	Redis        RedisConfig
	Minio        MinioConfig
	RabbitMQ     RabbitMQConfig
	Classifier   ClassifierConfig
	RateLimit    RateLimitConfig
	Notification NotificationConfig
}

type MongoConfig struct {
	URI     string        `env:"MONGO_URI,     default=mongodb://localhost:27017"`
	UserDB  string        `env:"MONGO_USER_DB, default=user_auth"`
	ECGDB   string        `env:"MONGO_ECG_DB,  default=ecg_data"`
	Timeout time.Duration `env:"MONGO_TIMEOUT, default=10s"`
}

// RedisConfig is optional. An empty address disables cross-instance
// idempotency reservations.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB, default=0"`
}

// MinioConfig is optional. Without an endpoint profile images stay inline and
// uploads are not archived.
type MinioConfig struct {
	Endpoint  string `env:"MINIO_ENDPOINT"`
	AccessKey string `env:"MINIO_ACCESS_KEY"`
	SecretKey string `env:"MINIO_SECRET_KEY"`
	Bucket    string `env:"MINIO_BUCKET,  default=ecg-health-iq"`
	Region    string `env:"MINIO_REGION,  default=us-east-1"`
	UseSSL    bool   `env:"MINIO_USE_SSL, default=false"`
}

// RabbitMQConfig is optional. Without a URL notifications are logged.
type RabbitMQConfig struct {
	URL   string `env:"RABBITMQ_URL"`
	Queue string `env:"RABBITMQ_QUEUE, default=consultation_events"`
}

type ClassifierConfig struct {
	URL     string        `env:"CLASSIFIER_URL,     default=http://localhost:8501"`
	Timeout time.Duration `env:"CLASSIFIER_TIMEOUT, default=20s"`
}

type RateLimitConfig struct {
	RPS   float64 `env:"RATE_LIMIT_RPS,   default=20"`
	Burst int     `env:"RATE_LIMIT_BURST, default=40"`
}

type NotificationConfig struct {
	Workers int `env:"NOTIFICATION_WORKERS, default=4"`
}

// Load reads an optional .env file and then the process environment.
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: read .env: %w", err)
	}
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith resolves configuration from l.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) IsProduction() bool { return c.Env == "production" }

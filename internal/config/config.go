package config

import "time"

type PostgresConfig struct {
	DSN             string        `env:"PG_DSN"`
	MaxOpenConns    int           `env:"PG_MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns    int           `env:"PG_MAX_IDLE_CONNS" default:"5"`
	ConnMaxIdleTime time.Duration `env:"PG_CONN_MAX_IDLE_TIME" default:"30s"`
	ConnMaxLifetime time.Duration `env:"PG_CONN_MAX_LIFETIME" default:"5m"`
}

// GatewayConfig configures the outbound payment gateway client.
type GatewayConfig struct {
	BaseURL     string        `env:"GATEWAY_BASE_URL" default:"https://api.paystack.co"`
	SecretKey   string        `env:"GATEWAY_SECRET_KEY"`
	CallbackURL string        `env:"GATEWAY_CALLBACK_URL" default:""`
	Timeout     time.Duration `env:"GATEWAY_TIMEOUT" default:"10s"`
}

// WebhookConfig configures inbound gateway notifications.
type WebhookConfig struct {
	Secret    string        `env:"WEBHOOK_SECRET"`
	Workers   int           `env:"WEBHOOK_WORKERS" default:"4"`
	QueueSize int           `env:"WEBHOOK_QUEUE_SIZE" default:"256"`
	DedupeTTL time.Duration `env:"WEBHOOK_DEDUPE_TTL" default:"10m"`
}

// RedisConfig is optional; an empty Addr disables webhook dedupe.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" default:""`
	Password string `env:"REDIS_PASSWORD" default:""`
	DB       int    `env:"REDIS_DB" default:"0"`
}

// KafkaConfig is optional; no brokers disables settlement events.
type KafkaConfig struct {
	Brokers []string `env:"KAFKA_BROKERS" default:""`
	Topic   string   `env:"KAFKA_TOPIC" default:"wallet.settlements"`
}

type AuthConfig struct {
	JWTSecret string `env:"JWT_SECRET"`
	Issuer    string `env:"JWT_ISSUER" default:""`
}

// SweepConfig bounds the stale pending sweep.
type SweepConfig struct {
	OlderThan time.Duration `env:"SWEEP_OLDER_THAN" default:"30m"`
	Limit     int           `env:"SWEEP_LIMIT" default:"100"`
}

package main

import (
	"time"

	"github.com/fastprodman/walletledger/internal/config"
	"go.uber.org/zap/zapcore"
)

type apiConfig struct {
	Port            uint16        `env:"APP_PORT" default:"8080"`
	LogLevel        zapcore.Level `env:"APP_LOG_LEVEL" default:"info"`
	ShutdownTimeout time.Duration `env:"APP_SHUTDOWN_TIMEOUT" default:"15s"`
	CORSOrigins     []string      `env:"APP_CORS_ORIGINS" default:""`

	Postgres config.PostgresConfig
	Gateway  config.GatewayConfig
	Webhook  config.WebhookConfig
	Redis    config.RedisConfig
	Kafka    config.KafkaConfig
	Auth     config.AuthConfig
}

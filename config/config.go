package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	AppName                       string   `env:"APP_NAME" envDefault:"insumos-api"`
	Port                          int      `env:"PORT" envDefault:"3001"`
	LogLevel                      string   `env:"LOG_LEVEL" envDefault:"info"`
	PrettyLogs                    bool     `env:"PRETTY_LOGS" envDefault:"false"`
	HttpServerWriteTimeoutSeconds int      `env:"HTTP_SERVER_WRITE_TIMEOUT_SECONDS" envDefault:"10"`
	HttpServerReadTimeoutSeconds  int      `env:"HTTP_SERVER_READ_TIMEOUT_SECONDS" envDefault:"10"`
	HttpServerIdleTimeoutSeconds  int      `env:"HTTP_SERVER_IDLE_TIMEOUT_SECONDS" envDefault:"10"`
	AllowOrigins                  []string `env:"HTTP_SERVER_ALLOW_ORIGINS" envDefault:"*"`
	StartupMaxAttempts            int      `env:"STARTUP_MAX_ATTEMPTS" envDefault:"5"`

	// PostgreSQL
	DatabaseHost                string        `env:"DB_HOST" envDefault:"localhost"`
	DatabasePort                string        `env:"DB_PORT" envDefault:"5432"`
	DatabaseUserName            string        `env:"DB_USER_NAME" envDefault:""`
	DatabasePassword            string        `env:"DB_PASSWORD" envDefault:""`
	DatabaseName                string        `env:"DB_NAME" envDefault:"insumos"`
	DatabaseSSLMode             string        `env:"DB_SSL_MODE" envDefault:"disable"`
	DatabaseMaxOpenConns        int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DatabaseMaxIdleConns        int           `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DatabaseConnMaxLifetime     time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"10s"`
	DatabaseMigrationFolderPath string        `env:"DB_MIGRATION_FOLDER_PATH" envDefault:"db/pg"`
	DatabaseMigrationVersion    uint          `env:"DB_MIGRATION_VERSION" envDefault:"0"`
	DatabaseMigrationForce      int           `env:"DB_MIGRATION_FORCE" envDefault:"0"`

	// Tracing
	TracingEnabled bool   `env:"TRACING_ENABLED" envDefault:"false"`
	OTLPEndpoint   string `env:"OTLP_ENDPOINT" envDefault:"localhost:4317"`
	OTLPProtocol   string `env:"OTLP_PROTOCOL" envDefault:"grpc"`
	OTLPInsecure   bool   `env:"OTLP_INSECURE" envDefault:"true"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DSN builds the lib/pq connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DatabaseHost, c.DatabasePort, c.DatabaseUserName, c.DatabasePassword, c.DatabaseName, c.DatabaseSSLMode)
}

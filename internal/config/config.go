package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config defines reservations service configuration.
type Config struct {
	HTTP struct {
		Port string `yaml:"port" env:"RESERVATIONS_HTTP_PORT"`
	} `yaml:"http"`
	Database struct {
		DSN string `yaml:"dsn" env:"RESERVATIONS_POSTGRES_DSN"`
	} `yaml:"database"`
	Redis struct {
		Addr        string `yaml:"addr" env:"RESERVATIONS_REDIS_ADDR"`
		Password    string `yaml:"password" env:"RESERVATIONS_REDIS_PASSWORD"`
		DB          int    `yaml:"db" env:"RESERVATIONS_REDIS_DB"`
		SnapshotTTL int    `yaml:"snapshotTtlSeconds" env:"RESERVATIONS_REDIS_SNAPSHOT_TTL"`
	} `yaml:"redis"`
	Kafka struct {
		Brokers string `yaml:"brokers" env:"RESERVATIONS_KAFKA_BROKERS"`
		Topic   string `yaml:"topic" env:"RESERVATIONS_KAFKA_TOPIC"`
	} `yaml:"kafka"`
	Stripe struct {
		APIKey   string `yaml:"apiKey" env:"STRIPE_API_KEY"`
		Currency string `yaml:"currency" env:"RESERVATIONS_STRIPE_CURRENCY"`
	} `yaml:"stripe"`
	Auth struct {
		JWTSecret          string `yaml:"jwtSecret" env:"RESERVATIONS_JWT_SECRET"`
		OperatorAPIKeyHash string `yaml:"operatorApiKeyHash" env:"RESERVATIONS_OPERATOR_API_KEY_HASH"`
	} `yaml:"auth"`
	WS struct {
		PingInterval int `yaml:"pingIntervalSeconds" env:"RESERVATIONS_WS_PING_INTERVAL"`
	} `yaml:"ws"`
	Search struct {
		CacheSize int `yaml:"cacheSize" env:"RESERVATIONS_SEARCH_CACHE_SIZE"`
	} `yaml:"search"`
}

// Load reads configuration from the optional YAML file plus env overrides and
// applies service defaults.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.HTTP.Port = "8084"
	cfg.Redis.Addr = "localhost:6379"
	cfg.Redis.SnapshotTTL = 300
	cfg.Kafka.Topic = "booking-events"
	cfg.Stripe.Currency = "eur"
	cfg.WS.PingInterval = 30
	cfg.Search.CacheSize = 8

	if err := load(cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return nil, errors.New("config: database dsn required")
	}
	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		return nil, errors.New("config: jwt secret required")
	}
	return cfg, nil
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "8084"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// SnapshotTTL returns the station snapshot cache ttl as duration.
func (c *Config) SnapshotTTL() time.Duration {
	if c.Redis.SnapshotTTL <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.Redis.SnapshotTTL) * time.Second
}

// PingInterval returns websocket keepalive interval.
func (c *Config) PingInterval() time.Duration {
	if c.WS.PingInterval <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.WS.PingInterval) * time.Second
}

// KafkaBrokers splits the comma-separated broker list; empty means events are
// disabled.
func (c *Config) KafkaBrokers() []string {
	raw := strings.TrimSpace(c.Kafka.Brokers)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}

// config/config.go

package config

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

// Config is read from the environment. Field names map to the upper-case
// variables listed in each envconfig tag.
type Config struct {
	Port     string `envconfig:"PORT" default:"8080"`
	GRPCPort string `envconfig:"GRPC_PORT" default:"7070"`

	Storage   string `envconfig:"CART_STORAGE" default:"memory"`
	RedisAddr string `envconfig:"REDIS_ADDR"`
	MySQLDSN  string `envconfig:"MYSQL_DSN"`
	CartKey   string `envconfig:"CART_KEY" default:"@RocketShoes:cart"`

	CatalogAddr    string        `envconfig:"CATALOG_SERVICE_ADDR" required:"true"`
	CatalogTimeout time.Duration `envconfig:"CATALOG_TIMEOUT" default:"5s"`

	KafkaBrokers []string `envconfig:"KAFKA_BROKERS"`
	NotifyTopic  string   `envconfig:"NOTIFY_TOPIC" default:"cart-notifications"`

	OTelEnabled  bool   `envconfig:"OTEL_ENABLED" default:"false"`
	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT" default:"dns:///otel-collector.observability.svc.cluster.local:4317"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads the process environment and validates backend-specific settings.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, errors.Wrap(err, "failed to read configuration")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the selected storage backend has what it needs.
func (c *Config) Validate() error {
	c.Storage = strings.ToLower(strings.TrimSpace(c.Storage))
	switch c.Storage {
	case "memory":
	case "redis":
		if c.RedisAddr == "" {
			return errors.New("REDIS_ADDR is required when CART_STORAGE=redis")
		}
		// Add the default port only when none was given.
		if !strings.Contains(c.RedisAddr, ":") {
			c.RedisAddr += ":6379"
		}
	case "mysql":
		if c.MySQLDSN == "" {
			return errors.New("MYSQL_DSN is required when CART_STORAGE=mysql")
		}
	default:
		return errors.Errorf("unknown CART_STORAGE %q", c.Storage)
	}
	if strings.TrimSpace(c.CartKey) == "" {
		return errors.New("CART_KEY must not be empty")
	}
	c.CatalogAddr = strings.TrimRight(c.CatalogAddr, "/")
	return nil
}

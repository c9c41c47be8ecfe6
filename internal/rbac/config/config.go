package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	StoreDriverMongo  = "mongo"
	StoreDriverMemory = "memory"
)

type Config struct {
	Port         string        `envconfig:"PORT" default:"8080"`
	ReadTimeout  time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"10s"`
	WriteTimeout time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"10s"`
	LogLevel     string        `envconfig:"LOG_LEVEL" default:"info"`

	StoreDriver string `envconfig:"STORE_DRIVER" default:"mongo"`
	MongoURI    string `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	DBName      string `envconfig:"DB_NAME" default:"catalog"`

	ElasticsearchURLs     []string `envconfig:"ELASTICSEARCH_URLS" default:"http://localhost:9200"`
	ElasticsearchUsername string   `envconfig:"ELASTICSEARCH_USERNAME"`
	ElasticsearchPassword string   `envconfig:"ELASTICSEARCH_PASSWORD"`
	SearchIndex           string   `envconfig:"SEARCH_INDEX" default:"products"`

	SyncRetryInterval time.Duration `envconfig:"SYNC_RETRY_INTERVAL" default:"30s"`
	SyncProbeTimeout  time.Duration `envconfig:"SYNC_PROBE_TIMEOUT" default:"5s"`
	// entries per second drained against the index; 0 disables pacing
	SyncRate float64 `envconfig:"SYNC_RATE" default:"50"`

	JWTSecret       string `envconfig:"JWT_SECRET"`
	TrustUserHeader bool   `envconfig:"TRUST_USER_HEADER" default:"true"`

	AdminRoleName          string `envconfig:"ADMIN_ROLE_NAME" default:"Admin"`
	BootstrapAdminEmail    string `envconfig:"BOOTSTRAP_ADMIN_EMAIL" default:"admin@example.com"`
	BootstrapAdminPassword string `envconfig:"BOOTSTRAP_ADMIN_PASSWORD" default:"Admin123!"`
}

// LoadConfig reads an optional .env file and then the process environment.
func LoadConfig() (*Config, error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreDriverMongo:
		if c.MongoURI == "" {
			return errors.New("MONGO_URI is required")
		}
		if c.DBName == "" {
			return errors.New("DB_NAME is required")
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.StoreDriver)
	}
	if len(c.ElasticsearchURLs) == 0 {
		return errors.New("ELASTICSEARCH_URLS is required")
	}
	if c.SearchIndex == "" {
		return errors.New("SEARCH_INDEX is required")
	}
	if c.SyncRetryInterval <= 0 {
		return errors.New("SYNC_RETRY_INTERVAL must be positive")
	}
	if c.SyncRate < 0 {
		return errors.New("SYNC_RATE must not be negative")
	}
	if !c.TrustUserHeader && c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required when TRUST_USER_HEADER is disabled")
	}
	if strings.TrimSpace(c.AdminRoleName) == "" {
		return errors.New("ADMIN_ROLE_NAME is required")
	}
	return nil
}

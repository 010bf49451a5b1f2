package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Redis     RedisConfig     `koanf:"redis"`
	Oracle    OracleConfig    `koanf:"oracle"`
	Catalog   CatalogConfig   `koanf:"catalog"`
	Auth      AuthConfig      `koanf:"auth"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Logging   LoggingConfig   `koanf:"logging"`
}

type ServerConfig struct {
	Port           int           `koanf:"port"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
	CORSOrigins    []string      `koanf:"cors_origins"`
	// ProxyRequestsPerMinute caps catalog passthrough calls per client IP.
	ProxyRequestsPerMinute int `koanf:"proxy_requests_per_minute"`
}

type DatabaseConfig struct {
	// Driver is postgres or sqlite.
	Driver     string `koanf:"driver"`
	URL        string `koanf:"url"`
	PoolSize   int    `koanf:"pool_size"`
	SQLitePath string `koanf:"sqlite_path"`
}

type RedisConfig struct {
	URL string `koanf:"url"`
}

type OracleConfig struct {
	BaseURL           string        `koanf:"base_url"`
	APIKey            string        `koanf:"api_key"`
	Model             string        `koanf:"model"`
	Temperature       float32       `koanf:"temperature"`
	RepairTemperature float32       `koanf:"repair_temperature"`
	MaxTokens         int           `koanf:"max_tokens"`
	Timeout           time.Duration `koanf:"timeout"`
}

type CatalogConfig struct {
	BaseURL    string        `koanf:"base_url"`
	APIKey     string        `koanf:"api_key"`
	Language   string        `koanf:"language"`
	Timeout    time.Duration `koanf:"timeout"`
	BatchSize  int           `koanf:"batch_size"`
	BatchDelay time.Duration `koanf:"batch_delay"`
	CacheTTL   time.Duration `koanf:"cache_ttl"`
}

type AuthConfig struct {
	Disabled  bool   `koanf:"disabled"`
	JWTSecret string `koanf:"jwt_secret"`
	Issuer    string `koanf:"issuer"`
	Audience  string `koanf:"audience"`
}

type RateLimitConfig struct {
	Disabled bool          `koanf:"disabled"`
	Requests int           `koanf:"requests"`
	Window   time.Duration `koanf:"window"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}

	switch c.Database.Driver {
	case "postgres":
		if c.Database.URL == "" {
			errs = append(errs, errors.New("database.url is required for the postgres driver"))
		}
		if c.Database.PoolSize < 1 {
			errs = append(errs, fmt.Errorf("database.pool_size must be positive: %d", c.Database.PoolSize))
		}
	case "sqlite":
		if c.Database.SQLitePath == "" {
			errs = append(errs, errors.New("database.sqlite_path is required for the sqlite driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("database.driver must be postgres or sqlite: %q", c.Database.Driver))
	}

	if c.Oracle.APIKey == "" {
		errs = append(errs, errors.New("oracle.api_key is required (OPENAI_API_KEY)"))
	}
	if c.Oracle.Model == "" {
		errs = append(errs, errors.New("oracle.model is required"))
	}
	if c.Oracle.MaxTokens < 1 {
		errs = append(errs, fmt.Errorf("oracle.max_tokens must be positive: %d", c.Oracle.MaxTokens))
	}

	if c.Catalog.APIKey == "" {
		errs = append(errs, errors.New("catalog.api_key is required (TMDB_API_KEY)"))
	}
	if c.Catalog.BatchSize < 1 {
		errs = append(errs, fmt.Errorf("catalog.batch_size must be positive: %d", c.Catalog.BatchSize))
	}
	if c.Catalog.BatchDelay < 0 {
		errs = append(errs, fmt.Errorf("catalog.batch_delay must not be negative: %s", c.Catalog.BatchDelay))
	}

	if !c.Auth.Disabled && c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required unless auth.disabled is set"))
	}

	if !c.RateLimit.Disabled && (c.RateLimit.Requests < 1 || c.RateLimit.Window <= 0) {
		errs = append(errs, errors.New("rate_limit.requests and rate_limit.window must be positive"))
	}

	if f := strings.ToLower(c.Logging.Format); f != "json" && f != "console" {
		errs = append(errs, fmt.Errorf("logging.format must be json or console: %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}

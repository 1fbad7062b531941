package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	libconfig "parkgate/libs/config"
)

// Config defines dashboard configuration.
type Config struct {
	HTTP struct {
		Port string `yaml:"port" env:"DASHBOARD_HTTP_PORT"`
	} `yaml:"http"`
	Database struct {
		DSN string `yaml:"dsn" env:"DASHBOARD_POSTGRES_DSN"`
	} `yaml:"database"`
	Auth struct {
		JWTSecret       string `yaml:"jwtSecret" env:"DASHBOARD_JWT_SECRET"`
		TokenTTLMinutes int    `yaml:"tokenTtlMinutes" env:"DASHBOARD_TOKEN_TTL"`
		Operator        string `yaml:"operator" env:"DASHBOARD_OPERATOR"`
		PasswordHash    string `yaml:"passwordHash" env:"DASHBOARD_PASSWORD_HASH"`
	} `yaml:"auth"`
}

// Load uses the shared config loader and validates required fields.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.HTTP.Port = "8091"
	cfg.Auth.TokenTTLMinutes = 480

	if err := libconfig.Load(cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return nil, errors.New("config: database DSN is required")
	}
	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		return nil, errors.New("config: jwt secret is required")
	}
	if strings.TrimSpace(cfg.Auth.Operator) == "" || strings.TrimSpace(cfg.Auth.PasswordHash) == "" {
		return nil, errors.New("config: operator credentials are required")
	}

	return cfg, nil
}

// HTTPAddress returns :port style address.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "8091"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// TokenTTL returns operator token lifetime.
func (c *Config) TokenTTL() time.Duration {
	if c.Auth.TokenTTLMinutes <= 0 {
		return 8 * time.Hour
	}
	return time.Duration(c.Auth.TokenTTLMinutes) * time.Minute
}

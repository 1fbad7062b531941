package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	libconfig "parkgate/libs/config"
)

// Config defines lane-controller configuration.
type Config struct {
	HTTP struct {
		Port string `yaml:"port" env:"LANE_HTTP_PORT"`
	} `yaml:"http"`
	Database struct {
		DSN string `yaml:"dsn" env:"LANE_POSTGRES_DSN"`
	} `yaml:"database"`
	Redis struct {
		Addr     string `yaml:"addr" env:"LANE_REDIS_ADDR"`
		Password string `yaml:"password" env:"LANE_REDIS_PASSWORD"`
	} `yaml:"redis"`
	Terminal struct {
		Addr            string `yaml:"addr" env:"TERMINAL_ADDR"`
		CardWaitSeconds int    `yaml:"cardWaitSeconds" env:"TERMINAL_CARD_WAIT"`
		AckSeconds      int    `yaml:"ackSeconds" env:"TERMINAL_ACK_TIMEOUT"`
	} `yaml:"terminal"`
	Gate struct {
		Addr        string `yaml:"addr" env:"GATE_ADDR"`
		HoldSeconds int    `yaml:"holdSeconds" env:"GATE_HOLD_SECONDS"`
	} `yaml:"gate"`
	Detection struct {
		ConfidenceThreshold  float64 `yaml:"confidenceThreshold" env:"DETECT_CONFIDENCE_THRESHOLD"`
		PlatePattern         string  `yaml:"platePattern" env:"DETECT_PLATE_PATTERN"`
		EntryDebounceSeconds int     `yaml:"entryDebounceSeconds" env:"DETECT_ENTRY_DEBOUNCE"`
		ExitDebounceSeconds  int     `yaml:"exitDebounceSeconds" env:"DETECT_EXIT_DEBOUNCE"`
	} `yaml:"detection"`
	Billing struct {
		RatePerUnit int64 `yaml:"ratePerUnit" env:"BILLING_RATE_PER_UNIT"`
		UnitMinutes int   `yaml:"unitMinutes" env:"BILLING_UNIT_MINUTES"`
	} `yaml:"billing"`
}

// Load uses the shared config loader and validates required fields.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.HTTP.Port = "8090"
	cfg.Terminal.CardWaitSeconds = 30
	cfg.Terminal.AckSeconds = 10
	cfg.Gate.HoldSeconds = 15
	cfg.Detection.ConfidenceThreshold = 0.80
	cfg.Detection.EntryDebounceSeconds = 300
	cfg.Detection.ExitDebounceSeconds = 10
	cfg.Billing.RatePerUnit = 500
	cfg.Billing.UnitMinutes = 60

	if err := libconfig.Load(cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return nil, errors.New("config: database DSN is required")
	}
	if strings.TrimSpace(cfg.Terminal.Addr) == "" {
		return nil, errors.New("config: terminal addr is required")
	}

	return cfg, nil
}

// HTTPAddress returns :port style address.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "8090"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// CardWait returns the exit-side card grace window.
func (c *Config) CardWait() time.Duration {
	if c.Terminal.CardWaitSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Terminal.CardWaitSeconds) * time.Second
}

// AckTimeout returns the terminal decision/ack window.
func (c *Config) AckTimeout() time.Duration {
	if c.Terminal.AckSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Terminal.AckSeconds) * time.Second
}

// GateHold returns how long the barrier stays open per vehicle.
func (c *Config) GateHold() time.Duration {
	if c.Gate.HoldSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.Gate.HoldSeconds) * time.Second
}

// EntryDebounce returns the entry-lane duplicate suppression window.
func (c *Config) EntryDebounce() time.Duration {
	if c.Detection.EntryDebounceSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.Detection.EntryDebounceSeconds) * time.Second
}

// ExitDebounce returns the exit-lane duplicate suppression window.
func (c *Config) ExitDebounce() time.Duration {
	if c.Detection.ExitDebounceSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Detection.ExitDebounceSeconds) * time.Second
}

// BillingUnit returns the billing unit duration.
func (c *Config) BillingUnit() time.Duration {
	if c.Billing.UnitMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(c.Billing.UnitMinutes) * time.Minute
}

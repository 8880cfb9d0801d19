// Package config loads service configuration from the environment and an
// optional .env file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port          string        `mapstructure:"PORT"`
	Env           string        `mapstructure:"ENV"`
	DatabaseURL   string        `mapstructure:"DATABASE_URL"`
	DBMaxConns    int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns    int32         `mapstructure:"DB_MIN_CONNS"`
	AMQPURL       string        `mapstructure:"AMQP_URL"`
	JWTSecret     string        `mapstructure:"JWT_SECRET"`
	CORSOrigins   []string      `mapstructure:"CORS_ORIGINS"`
	HoldLease     time.Duration `mapstructure:"HOLD_LEASE"`
	SweepInterval time.Duration `mapstructure:"SWEEP_INTERVAL"`
	RelayInterval time.Duration `mapstructure:"RELAY_INTERVAL"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("HOLD_LEASE", "15m")
	v.SetDefault("SWEEP_INTERVAL", "1m")
	v.SetDefault("RELAY_INTERVAL", "5s")

	// Bind explicitly so Unmarshal sees env vars without a config file.
	for _, key := range []string{
		"PORT", "ENV", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
		"AMQP_URL", "JWT_SECRET", "CORS_ORIGINS",
		"HOLD_LEASE", "SWEEP_INTERVAL", "RELAY_INTERVAL",
	} {
		_ = v.BindEnv(key)
	}

	// A missing .env file is fine; env vars still apply.
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		if origins := v.GetString("CORS_ORIGINS"); origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.HoldLease <= 0 {
		return nil, fmt.Errorf("HOLD_LEASE must be positive, got %s", cfg.HoldLease)
	}
	if cfg.SweepInterval <= 0 {
		return nil, fmt.Errorf("SWEEP_INTERVAL must be positive, got %s", cfg.SweepInterval)
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

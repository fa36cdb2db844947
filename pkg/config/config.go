// Package config loads service settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"orderdesk/pkg/logger"
)

// Config holds the settings shared by the API server and the console tool.
type Config struct {
	Addr        string
	TLSCert     string
	TLSKey      string
	DatabaseURL string
	RedisAddr   string
	SessionTTL  time.Duration
	OTELHost    string
	SampleRatio float64
	LogLevel    logger.Level
}

// TLS reports whether both certificate and key are configured.
func (c Config) TLS() bool {
	return c.TLSCert != "" && c.TLSKey != ""
}

// Load reads the configuration, applying defaults for unset variables.
func Load() (Config, error) {
	return load(os.LookupEnv)
}

func load(lookup func(string) (string, bool)) (Config, error) {
	get := func(key, fallback string) string {
		if v, ok := lookup(key); ok {
			return v
		}
		return fallback
	}

	cfg := Config{
		Addr:        get("ORDERDESK_ADDR", ":8443"),
		TLSCert:     get("ORDERDESK_TLS_CERT", "certs/server.crt"),
		TLSKey:      get("ORDERDESK_TLS_KEY", "certs/server.key"),
		DatabaseURL: get("DATABASE_URL", ""),
		RedisAddr:   get("REDIS_ADDR", "localhost:6379"),
		OTELHost:    get("OTEL_HOST", ""),
	}

	var err error
	if cfg.SessionTTL, err = time.ParseDuration(get("SESSION_TTL", "1h")); err != nil {
		return Config{}, fmt.Errorf("SESSION_TTL: %w", err)
	}
	if cfg.SessionTTL <= 0 {
		return Config{}, fmt.Errorf("SESSION_TTL must be positive, got %s", cfg.SessionTTL)
	}

	if cfg.SampleRatio, err = strconv.ParseFloat(get("OTEL_SAMPLE_RATIO", "1.0"), 64); err != nil {
		return Config{}, fmt.Errorf("OTEL_SAMPLE_RATIO: %w", err)
	}
	if cfg.SampleRatio < 0 || cfg.SampleRatio > 1 {
		return Config{}, fmt.Errorf("OTEL_SAMPLE_RATIO must be within [0,1], got %v", cfg.SampleRatio)
	}

	if cfg.LogLevel, err = logger.ParseLevel(get("LOG_LEVEL", "info")); err != nil {
		return Config{}, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return cfg, nil
}

// Package config loads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every setting the server reads at startup.
type Config struct {
	Port          int
	DBPath        string
	JWTSecret     string
	TokenTTL      time.Duration
	LogLevel      string
	LogFormat     string // "text" (colored) or "json"
	CORSOrigins   []string
	AuthRateLimit int // requests per minute per IP on the auth service; 0 disables
	NATSURL       string
	NATSToken     string
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// LoadDotEnv reads variables from the given .env files into the process
// environment. Missing files are skipped; variables already set win.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// Load builds a Config from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		DBPath:    getEnv("DB_PATH", "./data/splitledger.db"),
		JWTSecret: os.Getenv("JWT_SECRET"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
		NATSURL:   os.Getenv("NATS_URL"),
		NATSToken: os.Getenv("NATS_TOKEN"),
	}

	var err error
	if cfg.Port, err = strconv.Atoi(getEnv("PORT", "8080")); err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}
	if cfg.TokenTTL, err = time.ParseDuration(getEnv("TOKEN_TTL", "168h")); err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL: %w", err)
	}
	if cfg.AuthRateLimit, err = strconv.Atoi(getEnv("AUTH_RATE_LIMIT", "30")); err != nil {
		return nil, fmt.Errorf("invalid AUTH_RATE_LIMIT: %w", err)
	}

	for _, origin := range strings.Split(getEnv("CORS_ORIGINS", "*"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
		}
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET must be set")
	}
	if cfg.TokenTTL <= 0 {
		return nil, errors.New("TOKEN_TTL must be positive")
	}

	return cfg, nil
}

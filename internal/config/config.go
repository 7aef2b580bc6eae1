// Package config reads process configuration from the environment.
// Call godotenv.Load before Load so a local .env file is honoured.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultDSN = "host=localhost user=postgres password=postgres dbname=dilemmas port=5432 sslmode=disable TimeZone=UTC"

type Config struct {
	Port          string
	DatabaseURL   string
	JWTSecret     string
	SessionSecret string
	TokenTTL      time.Duration

	// DenunciationLimit is the number of denunciations that deactivates a dilemma.
	DenunciationLimit int

	StatsCacheTTL  time.Duration
	StatsCacheSize int
}

// Load builds a Config from the environment. Any missing or malformed
// required value is an error; callers are expected to abort on it.
func Load() (Config, error) {
	cfg := Config{
		Port:          getenv("PORT", "8080"),
		DatabaseURL:   DatabaseURL(),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}
	if cfg.SessionSecret == "" {
		log.Println("SESSION_SECRET not set, deriving session key from JWT_SECRET")
		cfg.SessionSecret = cfg.JWTSecret
	}

	limit, err := parseLimit()
	if err != nil {
		return Config{}, err
	}
	cfg.DenunciationLimit = limit

	if cfg.TokenTTL, err = durationEnv("TOKEN_TTL", 7*24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.StatsCacheTTL, err = durationEnv("STATS_CACHE_TTL", 30*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.StatsCacheSize, err = intEnv("STATS_CACHE_SIZE", 500); err != nil {
		return Config{}, err
	}
	if cfg.StatsCacheSize <= 0 {
		return Config{}, fmt.Errorf("STATS_CACHE_SIZE must be positive, got %d", cfg.StatsCacheSize)
	}

	return cfg, nil
}

// DatabaseURL is the DSN on its own, for commands that only touch the database.
func DatabaseURL() string {
	return getenv("DATABASE_URL", defaultDSN)
}

// parseLimit reads DENUNCIATION_LIMIT, falling back to the legacy LIMITE_DENUNCIAS.
func parseLimit() (int, error) {
	name := "DENUNCIATION_LIMIT"
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		name = "LIMITE_DENUNCIAS"
		raw = strings.TrimSpace(os.Getenv(name))
	}
	if raw == "" {
		return 0, errors.New("DENUNCIATION_LIMIT is required")
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", name, err)
	}
	if limit <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", name, limit)
	}
	return limit, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func intEnv(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

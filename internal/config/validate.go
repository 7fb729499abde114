package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Validate checks Config for production-critical problems.
// It collects all errors into a single joined error.
func (c *Config) Validate() error {
	var errs []string

	if len(c.JWT.AccessSecret) < 32 {
		errs = append(errs, "JWT_ACCESS_SECRET must be at least 32 characters")
	}

	if c.DB.Password == "" {
		errs = append(errs, "DB_PASSWORD is required")
	}

	// Port ranges
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT must be 1–65535, got %d", c.Server.Port))
	}
	if c.DB.Port < 1 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Sprintf("DB_PORT must be 1–65535, got %d", c.DB.Port))
	}
	if c.Redis.Port < 1 || c.Redis.Port > 65535 {
		errs = append(errs, fmt.Sprintf("REDIS_PORT must be 1–65535, got %d", c.Redis.Port))
	}

	if c.LLM.Timeout <= 0 {
		errs = append(errs, "LLM_TIMEOUT must be positive")
	}
	if c.Retrieval.Timeout <= 0 {
		errs = append(errs, "RETRIEVAL_TIMEOUT must be positive")
	}
	if c.Cache.SearchTTL <= 0 || c.Cache.PastPaperTTL <= 0 || c.Cache.QuestionsTTL <= 0 {
		errs = append(errs, "CACHE_*_TTL values must be positive")
	}
	if c.Sweep.Interval < 0 {
		errs = append(errs, "SWEEP_INTERVAL must not be negative")
	}

	// LLM key: warn only, the interpreter degrades to pattern matching
	if c.LLM.APIKey == "" {
		slog.Warn("LLM_API_KEY is empty, semantic fallback and question generation will fail")
	}

	if len(errs) > 0 {
		return errors.New("config validation failed:\n  " + strings.Join(errs, "\n  "))
	}
	return nil
}

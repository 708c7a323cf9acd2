package config

import (
	"fmt"
	"strings"

	compassErrors "github.com/compass-oss/compass/internal/errors"
)

// Validate checks a loaded configuration for consistency.
func Validate(cfg *Config) error {
	var problems []string

	validDrivers := map[string]bool{
		"sqlite": true,
		"file":   true,
	}
	if !validDrivers[cfg.Storage.Driver] {
		problems = append(problems, fmt.Sprintf("invalid storage driver: %s", cfg.Storage.Driver))
	}

	if cfg.Memory.SimilarityThreshold < 0 || cfg.Memory.SimilarityThreshold > 1 {
		problems = append(problems, fmt.Sprintf("similarity_threshold must be in [0,1], got %v", cfg.Memory.SimilarityThreshold))
	}

	if cfg.Memory.ContextCacheSize < 0 {
		problems = append(problems, "context_cache_size must not be negative")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		problems = append(problems, fmt.Sprintf("invalid logging level: %s", cfg.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[cfg.Logging.Format] {
		problems = append(problems, fmt.Sprintf("invalid logging format: %s", cfg.Logging.Format))
	}

	if len(problems) > 0 {
		return compassErrors.New(compassErrors.CodeConfigInvalid,
			"config validation failed: "+strings.Join(problems, "; ")).
			WithSuggestion("Check compass.yaml against the documented schema")
	}
	return nil
}

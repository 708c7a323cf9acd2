package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load loads the main project configuration
func Load(dir string) (*Config, error) {
	configFile := filepath.Join(dir, "compass.yaml")

	content, err := os.ReadFile(configFile)
	if err != nil {
		if os.IsNotExist(err) {
			// Return default config if no file exists
			return defaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Interpolate environment variables
	content = []byte(interpolateEnv(string(content)))

	var cfg Config
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Apply defaults
	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// interpolateEnv replaces ${env.VAR} and ${VAR} with environment values
func interpolateEnv(content string) string {
	// Match ${env.VAR} pattern
	envPattern := regexp.MustCompile(`\$\{env\.([^}]+)\}`)
	content = envPattern.ReplaceAllStringFunc(content, func(match string) string {
		varName := envPattern.FindStringSubmatch(match)[1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match // keep original if not found
	})

	// Match ${VAR} pattern
	varPattern := regexp.MustCompile(`\$\{([^}]+)\}`)
	content = varPattern.ReplaceAllStringFunc(content, func(match string) string {
		varName := varPattern.FindStringSubmatch(match)[1]
		if strings.Contains(varName, ".") {
			return match
		}
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})

	return content
}

func defaultConfig() *Config {
	return &Config{
		Name:    "compass-project",
		Version: "1.0",
		Provider: ProviderConfig{
			Name:  "anthropic",
			Model: "claude-sonnet-4-20250514",
		},
		Storage: StorageConfig{
			Driver: "sqlite",
			Path:   ".compass/memory.db",
		},
		Memory: MemoryConfig{
			Enabled:             true,
			UserID:              "default_user",
			SimilarityThreshold: 0.7,
			ContextCacheSize:    64,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Name == "" {
		cfg.Name = "compass-project"
	}
	if cfg.Provider.Name == "" {
		cfg.Provider.Name = "anthropic"
	}
	if cfg.Provider.Model == "" {
		cfg.Provider.Model = "claude-sonnet-4-20250514"
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "sqlite"
	}
	if cfg.Storage.Path == "" {
		if cfg.Storage.Driver == "file" {
			cfg.Storage.Path = ".compass/memories"
		} else {
			cfg.Storage.Path = ".compass/memory.db"
		}
	}
	if cfg.Memory.UserID == "" {
		cfg.Memory.UserID = "default_user"
	}
	if cfg.Memory.SimilarityThreshold == 0 {
		cfg.Memory.SimilarityThreshold = 0.7
	}
	if cfg.Memory.ContextCacheSize == 0 {
		cfg.Memory.ContextCacheSize = 64
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}

	// Load API key from environment if not set
	if cfg.Provider.APIKey == "" {
		cfg.Provider.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
}

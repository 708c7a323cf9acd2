package config

// Config represents the main project configuration (compass.yaml)
type Config struct {
	Name     string         `yaml:"name" json:"name"`
	Version  string         `yaml:"version" json:"version"`
	Provider ProviderConfig `yaml:"provider" json:"provider"`
	Storage  StorageConfig  `yaml:"storage" json:"storage"`
	Memory   MemoryConfig   `yaml:"memory" json:"memory"`
	Logging  LoggingConfig  `yaml:"logging" json:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics" json:"metrics"`
	Hooks    HooksConfig    `yaml:"hooks" json:"hooks"`
}

// ProviderConfig configures the text-generation provider used by the summarizer.
type ProviderConfig struct {
	Name    string `yaml:"name" json:"name"`   // anthropic
	Model   string `yaml:"model" json:"model"` // claude-sonnet-4-20250514, etc.
	APIKey  string `yaml:"api_key,omitempty" json:"api_key,omitempty"`
	BaseURL string `yaml:"base_url,omitempty" json:"base_url,omitempty"`
}

// StorageConfig configures the memory store backend.
type StorageConfig struct {
	Driver string `yaml:"driver" json:"driver"` // sqlite, file
	Path   string `yaml:"path" json:"path"`     // db file path or storage root directory
}

// MemoryConfig configures the tiered memory subsystem.
type MemoryConfig struct {
	Enabled             bool    `yaml:"enabled" json:"enabled"`
	UserID              string  `yaml:"user_id" json:"user_id"`
	SimilarityThreshold float64 `yaml:"similarity_threshold" json:"similarity_threshold"`
	ContextCacheSize    int64   `yaml:"context_cache_size" json:"context_cache_size"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`   // debug, info, warn, error
	Format string `yaml:"format" json:"format"` // text, json
	File   string `yaml:"file,omitempty" json:"file,omitempty"`
}

// MetricsConfig configures optional metrics export.
type MetricsConfig struct {
	Path string `yaml:"path,omitempty" json:"path,omitempty"` // JSONL export path, empty = disabled
}

// HooksConfig configures lifecycle event hooks.
type HooksConfig struct {
	Enabled bool         `yaml:"enabled" json:"enabled"`
	Hooks   []HookConfig `yaml:"hooks" json:"hooks"`
}

// HookConfig defines a single hook.
type HookConfig struct {
	Name     string   `yaml:"name" json:"name"`
	Type     string   `yaml:"type" json:"type"`     // shell, webhook, log
	Events   []string `yaml:"events" json:"events"` // event types to match, empty = all
	Blocking bool     `yaml:"blocking" json:"blocking"`
	Command  string   `yaml:"command,omitempty" json:"command,omitempty"` // for shell hooks
	URL      string   `yaml:"url,omitempty" json:"url,omitempty"`         // for webhook hooks
	Level    string   `yaml:"level,omitempty" json:"level,omitempty"`     // for log hooks
}

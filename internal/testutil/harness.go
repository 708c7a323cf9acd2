package testutil

import (
	"path/filepath"
	"testing"

	"github.com/compass-oss/compass/internal/config"
	"github.com/compass-oss/compass/internal/memory"
	"github.com/compass-oss/compass/internal/telemetry"
)

// TestHarness provides everything needed for memory integration tests:
// config, an isolated store, a manager, and a mock generator.
type TestHarness struct {
	T         *testing.T
	Config    *config.Config
	Store     memory.Store
	Manager   *memory.Manager
	Logger    *telemetry.Logger
	Metrics   *telemetry.Metrics
	Generator *MockGenerator
}

// NewTestHarness creates a harness over a SQLite store in a temp directory.
func NewTestHarness(t *testing.T) *TestHarness {
	t.Helper()

	store, err := memory.NewStore("sqlite", filepath.Join(t.TempDir(), "memory.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	logger := telemetry.NewTestLogger()
	metrics := telemetry.NewMetrics()
	gen := &MockGenerator{}

	mgr, err := memory.NewManager(store, memory.ManagerOptions{
		UserID:    "test_user",
		Enabled:   true,
		Generator: gen,
		Logger:    logger,
		Metrics:   metrics,
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(mgr.Close)

	return &TestHarness{
		T:         t,
		Config:    TestConfig(),
		Store:     store,
		Manager:   mgr,
		Logger:    logger,
		Metrics:   metrics,
		Generator: gen,
	}
}

// SetResponses queues mock generator responses.
func (h *TestHarness) SetResponses(responses ...string) {
	h.Generator.Responses = responses
}

// TestConfig returns a config suitable for tests.
func TestConfig() *config.Config {
	return &config.Config{
		Name:    "test",
		Version: "0.0.0",
		Provider: config.ProviderConfig{
			Name:  "mock",
			Model: "mock-model",
		},
		Storage: config.StorageConfig{
			Driver: "sqlite",
		},
		Memory: config.MemoryConfig{
			Enabled:             true,
			UserID:              "test_user",
			SimilarityThreshold: 0.7,
			ContextCacheSize:    16,
		},
		Logging: config.LoggingConfig{
			Level:  "error",
			Format: "text",
		},
	}
}

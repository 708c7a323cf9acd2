package cli

import (
	"fmt"

	"github.com/compass-oss/compass/internal/config"
	"github.com/compass-oss/compass/internal/event"
	"github.com/compass-oss/compass/internal/memory"
	"github.com/compass-oss/compass/internal/provider"
	"github.com/compass-oss/compass/internal/provider/anthropic"
	"github.com/compass-oss/compass/internal/telemetry"
)

// runtime bundles everything a command needs: config, telemetry, storage,
// and the memory manager.
type runtime struct {
	cfg     *config.Config
	logger  *telemetry.Logger
	metrics *telemetry.Metrics
	store   memory.Store
	manager *memory.Manager
	gen     provider.Generator
}

// newRuntime loads config from the working directory and wires the stack.
// withProvider controls whether an LLM generator is attached; list-style
// commands skip it so they work without an API key.
func newRuntime(withProvider bool) (*runtime, error) {
	cfg, err := config.Load(".")
	if err != nil {
		return nil, err
	}

	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	logger := telemetry.NewLogger(level, cfg.Logging.Format)
	if cfg.Logging.File != "" {
		if err := logger.WithFile(cfg.Logging.File); err != nil {
			return nil, err
		}
	}

	metrics := telemetry.NewMetrics()
	if cfg.Metrics.Path != "" {
		exporter, err := telemetry.NewJSONFileExporter(cfg.Metrics.Path)
		if err != nil {
			return nil, err
		}
		metrics.SetExporter(exporter)
	}

	store, err := memory.NewStore(cfg.Storage.Driver, cfg.Storage.Path)
	if err != nil {
		return nil, err
	}

	var gen provider.Generator
	if withProvider {
		gen, err = newGenerator(cfg)
		if err != nil {
			store.Close()
			return nil, err
		}
	}

	user := cfg.Memory.UserID
	if userID != "" {
		user = userID
	}

	var bus *event.Bus
	if cfg.Hooks.Enabled {
		bus = event.NewBus(logger)
		for _, hc := range cfg.Hooks.Hooks {
			hook, err := event.FromConfig(hc.Name, hc.Type, hc.Command, hc.URL,
				hc.Level, hc.Events, hc.Blocking, logger)
			if err != nil {
				store.Close()
				return nil, err
			}
			bus.Register(hook)
		}
	}

	mgr, err := memory.NewManager(store, memory.ManagerOptions{
		UserID:              user,
		Enabled:             cfg.Memory.Enabled,
		SimilarityThreshold: cfg.Memory.SimilarityThreshold,
		CacheSize:           int64(cfg.Memory.ContextCacheSize),
		Generator:           gen,
		Logger:              logger,
		Metrics:             metrics,
		Events:              bus,
	})
	if err != nil {
		store.Close()
		return nil, err
	}

	return &runtime{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		store:   store,
		manager: mgr,
		gen:     gen,
	}, nil
}

func newGenerator(cfg *config.Config) (provider.Generator, error) {
	switch cfg.Provider.Name {
	case "anthropic", "":
		client := anthropic.NewClient(cfg.Provider.APIKey, cfg.Provider.Model)
		if cfg.Provider.BaseURL != "" {
			client = client.WithBaseURL(cfg.Provider.BaseURL)
		}
		return provider.NewRetryGenerator(client, provider.DefaultRetryConfig()), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider.Name)
	}
}

func (r *runtime) close() {
	r.manager.Close()
	r.store.Close()
	if r.cfg.Metrics.Path != "" {
		r.metrics.Flush("shutdown", nil)
	}
	r.logger.Close()
}

// Package config loads and hot-reloads the syncread core configuration
// surface: provider byte limits, chunk duration clamps,
// progressive-sync sizing, and anchor thresholds.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Manager handles loading, validating, and hot-reloading configuration.
type Manager struct {
	mu        sync.RWMutex
	config    *Config
	callbacks []func(*Config)
	schema    *jsonschema.Schema
}

// NewManager creates a new config manager and loads the initial config.
func NewManager(cfgFile string) (*Manager, error) {
	schema, err := compileSchema()
	if err != nil {
		return nil, fmt.Errorf("failed to compile config schema: %w", err)
	}

	cm := &Manager{
		callbacks: make([]func(*Config), 0),
		schema:    schema,
	}

	if err := cm.initViper(cfgFile); err != nil {
		return nil, err
	}

	cfg, err := cm.load()
	if err != nil {
		return nil, err
	}
	cm.config = cfg

	return cm, nil
}

func compileSchema() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("config.json", bytes.NewReader([]byte(schemaJSON))); err != nil {
		return nil, err
	}
	return c.Compile("config.json")
}

// initViper sets up viper with defaults and config file.
func (cm *Manager) initViper(cfgFile string) error {
	defaults := DefaultConfig()
	viper.SetDefault("provider_max_bytes", defaults.ProviderMaxBytes)
	viper.SetDefault("chunk_target_bytes", defaults.ChunkTargetBytes)
	viper.SetDefault("chunk_duration_clamp_min_sec", defaults.ChunkDurationClampMinSec)
	viper.SetDefault("chunk_duration_clamp_max_sec", defaults.ChunkDurationClampMaxSec)
	viper.SetDefault("narration_rate_wpm", defaults.NarrationRateWPM)
	viper.SetDefault("progressive_first_chunk_words", defaults.ProgressiveFirstChunkWords)
	viper.SetDefault("progressive_chunk_words", defaults.ProgressiveChunkWords)
	viper.SetDefault("progressive_overlap_words", defaults.ProgressiveOverlapWords)
	viper.SetDefault("advance_threshold_words", defaults.AdvanceThresholdWords)
	viper.SetDefault("initial_alignment_probe_sec", defaults.InitialAlignmentProbeSec)
	viper.SetDefault("initial_alignment_search_words", defaults.InitialAlignmentSearchWords)
	viper.SetDefault("anchor_confidence_floor", defaults.AnchorConfidenceFloor)
	viper.SetDefault("anchor_min_gap_sec", defaults.AnchorMinGapSec)
	viper.SetDefault("anchor_min_gap_chars", defaults.AnchorMinGapChars)
	viper.SetDefault("anchor_merge_window_sec", defaults.AnchorMergeWindowSec)
	viper.SetDefault("anchor_merge_window_chars", defaults.AnchorMergeWindowChars)
	viper.SetDefault("progress_debounce_ms", defaults.ProgressDebounceMs)

	// Environment variables with SYNCREAD_ prefix.
	viper.SetEnvPrefix("SYNCREAD")
	viper.AutomaticEnv()

	// Config file.
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.syncread")
	}

	// Try to read config file (not required).
	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// load parses the current viper state into a Config struct and validates it
// against the JSON schema before returning.
func (cm *Manager) load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cm.validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cm *Manager) validate(cfg *Config) error {
	doc := map[string]any{
		"provider_max_bytes":             cfg.ProviderMaxBytes,
		"chunk_target_bytes":             cfg.ChunkTargetBytes,
		"chunk_duration_clamp_min_sec":   cfg.ChunkDurationClampMinSec,
		"chunk_duration_clamp_max_sec":   cfg.ChunkDurationClampMaxSec,
		"narration_rate_wpm":             cfg.NarrationRateWPM,
		"progressive_first_chunk_words":  cfg.ProgressiveFirstChunkWords,
		"progressive_chunk_words":        cfg.ProgressiveChunkWords,
		"progressive_overlap_words":      cfg.ProgressiveOverlapWords,
		"advance_threshold_words":        cfg.AdvanceThresholdWords,
		"initial_alignment_probe_sec":    cfg.InitialAlignmentProbeSec,
		"initial_alignment_search_words": cfg.InitialAlignmentSearchWords,
		"anchor_confidence_floor":        cfg.AnchorConfidenceFloor,
		"anchor_min_gap_sec":             cfg.AnchorMinGapSec,
		"anchor_min_gap_chars":           cfg.AnchorMinGapChars,
		"anchor_merge_window_sec":        cfg.AnchorMergeWindowSec,
		"anchor_merge_window_chars":      cfg.AnchorMergeWindowChars,
		"progress_debounce_ms":           cfg.ProgressDebounceMs,
	}
	if err := cm.schema.Validate(doc); err != nil {
		return fmt.Errorf("config failed validation: %w", err)
	}
	if cfg.ChunkDurationClampMinSec > cfg.ChunkDurationClampMaxSec {
		return fmt.Errorf("chunk_duration_clamp_min_sec (%d) exceeds chunk_duration_clamp_max_sec (%d)",
			cfg.ChunkDurationClampMinSec, cfg.ChunkDurationClampMaxSec)
	}
	if cfg.ChunkTargetBytes > cfg.ProviderMaxBytes {
		return fmt.Errorf("chunk_target_bytes (%d) exceeds provider_max_bytes (%d)",
			cfg.ChunkTargetBytes, cfg.ProviderMaxBytes)
	}
	return nil
}

// Get returns the current configuration (thread-safe).
func (cm *Manager) Get() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// OnChange registers a callback for config changes.
func (cm *Manager) OnChange(fn func(*Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, fn)
}

// WatchConfig enables hot-reloading of configuration. A reload that fails
// validation is logged by the caller (via the returned error channel
// semantics of viper) and the previously-loaded config is kept in place.
func (cm *Manager) WatchConfig() {
	viper.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := cm.load()
		if err != nil {
			return
		}

		cm.mu.Lock()
		cm.config = cfg
		callbacks := make([]func(*Config), len(cm.callbacks))
		copy(callbacks, cm.callbacks)
		cm.mu.Unlock()

		for _, fn := range callbacks {
			fn(cfg)
		}
	})
	viper.WatchConfig()
}

// WriteDefault writes the default configuration to the specified path.
func WriteDefault(path string) error {
	cfg := DefaultConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# syncread core configuration

`)
	return os.WriteFile(path, append(header, data...), 0o644)
}

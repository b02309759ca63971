// Package config loads the snipd configuration from the user's config
// directory, with environment overrides for scripting and tests.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all snipd configuration.
type Config struct {
	// MatchDirs are the directory trees scanned for match definition files.
	MatchDirs []string `yaml:"match_dirs"`

	// DataDir holds mutable state such as the expansion history.
	DataDir string `yaml:"data_dir"`

	// Injection settings
	Inject InjectConfig `yaml:"inject"`

	// Watcher settings
	Watcher WatcherConfig `yaml:"watcher"`

	// Secure-input monitor settings
	Secure SecureConfig `yaml:"secure"`

	// UI settings
	UI UIConfig `yaml:"ui"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// InjectConfig configures how expansions reach the focused application.
type InjectConfig struct {
	// Backend is auto, keys or clipboard.
	Backend string `yaml:"backend"`
	// Tool is the external typing binary (xdotool, wtype).
	Tool string `yaml:"tool"`
	// KeyDelay paces individual key events ("2ms", "10ms").
	KeyDelay string `yaml:"key_delay"`
	// DisableFastInject forces key-by-key typing.
	DisableFastInject bool `yaml:"disable_fast_inject"`
}

// WatcherConfig configures match-file watching.
type WatcherConfig struct {
	// Enabled toggles live reload of match files.
	Enabled *bool `yaml:"enabled"`
	// Debounce is how long the file set must stay quiet before reloading.
	Debounce string `yaml:"debounce"`
}

// SecureConfig configures the secure-input monitor.
type SecureConfig struct {
	// PollInterval is how often the capture state is probed.
	PollInterval string `yaml:"poll_interval"`
}

// UIConfig configures the search palette.
type UIConfig struct {
	// SearchShortcut is the global shortcut opening the palette.
	SearchShortcut string `yaml:"search_shortcut"`
	// MaxResults caps the palette result list.
	MaxResults int `yaml:"max_results"`
}

// LoggingConfig controls the categorized file logger.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Categories map[string]bool `yaml:"categories"`
	Level      string          `yaml:"level"`
}

// DefaultConfigDir resolves the per-user config directory.
func DefaultConfigDir() string {
	if dir := os.Getenv("SNIPD_CONFIG_DIR"); dir != "" {
		return dir
	}
	base, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "snipd")
}

// DefaultConfig returns the built-in defaults, anchored at configDir.
func DefaultConfig(configDir string) *Config {
	return &Config{
		MatchDirs: []string{filepath.Join(configDir, "match")},
		DataDir:   filepath.Join(configDir, "data"),
		Inject: InjectConfig{
			Backend:  "auto",
			Tool:     "xdotool",
			KeyDelay: "2ms",
		},
		Watcher: WatcherConfig{
			Debounce: "1s",
		},
		Secure: SecureConfig{
			PollInterval: "1s",
		},
		UI: UIConfig{
			SearchShortcut: "alt+space",
			MaxResults:     50,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads config.yml from configDir, falling back to defaults when the
// file does not exist.
func Load(configDir string) (*Config, error) {
	cfg := DefaultConfig(configDir)

	path := filepath.Join(configDir, "config.yml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration to configDir/config.yml.
func (c *Config) Save(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	path := filepath.Join(configDir, "config.yml")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if backend := os.Getenv("SNIPD_BACKEND"); backend != "" {
		c.Inject.Backend = backend
	}
	if tool := os.Getenv("SNIPD_INJECT_TOOL"); tool != "" {
		c.Inject.Tool = tool
	}
	if dir := os.Getenv("SNIPD_DATA_DIR"); dir != "" {
		c.DataDir = dir
	}
	if os.Getenv("SNIPD_DEBUG") == "1" {
		c.Logging.DebugMode = true
		c.Logging.Level = "debug"
	}
}

// WatcherEnabled defaults to on unless explicitly disabled.
func (c *Config) WatcherEnabled() bool {
	return c.Watcher.Enabled == nil || *c.Watcher.Enabled
}

// KeyDelay parses the configured key delay.
func (c *Config) KeyDelay() time.Duration {
	return parseDuration(c.Inject.KeyDelay, 2*time.Millisecond)
}

// WatcherDebounce parses the configured debounce window.
func (c *Config) WatcherDebounce() time.Duration {
	return parseDuration(c.Watcher.Debounce, time.Second)
}

// SecurePollInterval parses the configured probe interval.
func (c *Config) SecurePollInterval() time.Duration {
	return parseDuration(c.Secure.PollInterval, time.Second)
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

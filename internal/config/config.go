// Package config loads and validates the yashell configuration.
// Configuration comes from a YAML file, YASHELL_* environment variables,
// and built-in defaults, resolved through viper.
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/spf13/viper"
)

// AutoStartEnv is the environment variable that gates whether the
// sidecar auto-starts with the host. Unset means true. It predates the
// config file and is kept for compatibility with the packaging scripts.
const AutoStartEnv = "VITE_SPAWN_CORE"

// Config is the complete yashell configuration.
type Config struct {
	Sidecar SidecarConfig `mapstructure:"sidecar"`
	Logging LoggingConfig `mapstructure:"logging"`
	Watch   WatchConfig   `mapstructure:"watch"`
}

// SidecarConfig controls how the core API process is located and started.
type SidecarConfig struct {
	// Mode is the build mode: "development" or "packaged".
	Mode string `mapstructure:"mode"`
	// Strategy is how a packaged build bundles the sidecar:
	// "script" (entry file run under an interpreter) or "binary"
	// (platform-suffixed native executable). A build uses exactly one.
	Strategy string `mapstructure:"strategy"`
	// Dir is the sidecar project directory name (default: "yaLLMa3API").
	Dir string `mapstructure:"dir"`
	// Entry is the entry file name (default: "index.js"). For the binary
	// strategy its stem is suffixed with the platform triple.
	Entry string `mapstructure:"entry"`
	// Interpreter is the external binary scripts run under (default: "node").
	Interpreter string `mapstructure:"interpreter"`
	// ResourceDir is the packaged build's bundled-asset directory.
	ResourceDir string `mapstructure:"resource_dir"`
	// FallbackDir is the platform packaging extraction location tried
	// when the resource directory candidate does not exist.
	FallbackDir string `mapstructure:"fallback_dir"`
	// AutoStart spawns the sidecar on host startup (default: true).
	// The VITE_SPAWN_CORE environment variable overrides it when set.
	AutoStart bool `mapstructure:"auto_start"`
}

// LoggingConfig controls the host's own diagnostic logging.
type LoggingConfig struct {
	// Level is one of DEBUG, INFO, WARN, ERROR (default: INFO).
	Level string `mapstructure:"level"`
	// Dir overrides where host and sidecar logs are written.
	// Empty means the platform data directory.
	Dir string `mapstructure:"dir"`
}

// WatchConfig controls the development-mode entry watcher.
type WatchConfig struct {
	// Enabled turns on watching of the resolved entry file in
	// development mode (default: true).
	Enabled bool `mapstructure:"enabled"`
	// AutoRestart restarts the sidecar when the entry changes
	// (default: false; changes are only logged and published).
	AutoRestart bool `mapstructure:"auto_restart"`
	// DebounceMs coalesces bursts of change events (default: 500).
	DebounceMs int `mapstructure:"debounce_ms"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Sidecar: SidecarConfig{
			Mode:        "development",
			Strategy:    "script",
			Dir:         "yaLLMa3API",
			Entry:       "index.js",
			Interpreter: "node",
			FallbackDir: defaultFallbackDir(),
			AutoStart:   true,
		},
		Logging: LoggingConfig{
			Level: "INFO",
		},
		Watch: WatchConfig{
			Enabled:     true,
			AutoRestart: false,
			DebounceMs:  500,
		},
	}
}

// defaultFallbackDir returns the OS-packaging extraction location tried
// after the resource directory in packaged script builds.
func defaultFallbackDir() string {
	switch runtime.GOOS {
	case "linux":
		return "/usr/lib/yallma3"
	case "darwin":
		return "/Library/Application Support/yallma3"
	default:
		return ""
	}
}

// SetDefaults registers all defaults with viper so they apply even
// without a config file.
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("sidecar.mode", defaults.Sidecar.Mode)
	viper.SetDefault("sidecar.strategy", defaults.Sidecar.Strategy)
	viper.SetDefault("sidecar.dir", defaults.Sidecar.Dir)
	viper.SetDefault("sidecar.entry", defaults.Sidecar.Entry)
	viper.SetDefault("sidecar.interpreter", defaults.Sidecar.Interpreter)
	viper.SetDefault("sidecar.resource_dir", defaults.Sidecar.ResourceDir)
	viper.SetDefault("sidecar.fallback_dir", defaults.Sidecar.FallbackDir)
	viper.SetDefault("sidecar.auto_start", defaults.Sidecar.AutoStart)

	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)

	viper.SetDefault("watch.enabled", defaults.Watch.Enabled)
	viper.SetDefault("watch.auto_restart", defaults.Watch.AutoRestart)
	viper.SetDefault("watch.debounce_ms", defaults.Watch.DebounceMs)
}

// Load unmarshals the current viper state into a Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// AutoStart reports whether the sidecar should spawn on host startup.
// A set VITE_SPAWN_CORE environment variable wins over the config value;
// an unparseable value falls back to the config value.
func (c *Config) AutoStart() bool {
	if v, ok := os.LookupEnv(AutoStartEnv); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return c.Sidecar.AutoStart
}

// LogDir returns the directory host and sidecar logs are written to:
// the configured override, or <data-dir>/logs.
func (c *Config) LogDir() string {
	if c.Logging.Dir != "" {
		return c.Logging.Dir
	}
	return filepath.Join(DataDir(), "logs")
}

// ConfigDir returns the path to the user's config directory.
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "yashell")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".yashell"
	}
	return filepath.Join(home, ".config", "yashell")
}

// ConfigFile returns the path to the config file.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// DataDir returns the host's writable data directory.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "yashell")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".yashell"
	}
	return filepath.Join(home, ".local", "share", "yashell")
}

// ValidModes returns the valid sidecar.mode values.
func ValidModes() []string {
	return []string{"development", "packaged"}
}

// ValidStrategies returns the valid sidecar.strategy values.
func ValidStrategies() []string {
	return []string{"script", "binary"}
}

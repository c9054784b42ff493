package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds tabroll user configuration.
type Config struct {
	Theme     string          `mapstructure:"theme" yaml:"theme"`
	History   HistoryConfig   `mapstructure:"history" yaml:"history"`
	Suppress  SuppressConfig  `mapstructure:"suppress" yaml:"suppress"`
	Reconcile ReconcileConfig `mapstructure:"reconcile" yaml:"reconcile"`
	Session   SessionConfig   `mapstructure:"session" yaml:"session"`
	Titles    TitlesConfig    `mapstructure:"titles" yaml:"titles"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
}

// HistoryConfig bounds the per-window stacks.
type HistoryConfig struct {
	MaxStackLength int `mapstructure:"max_stack_length" yaml:"max_stack_length"`
}

// SuppressConfig controls how self-inflicted activations are ignored.
type SuppressConfig struct {
	Mode    string `mapstructure:"mode" yaml:"mode"` // "debounce" or "token"
	DelayMS int    `mapstructure:"delay_ms" yaml:"delay_ms"`
}

// ReconcileConfig controls the stale-tab sweep.
type ReconcileConfig struct {
	IntervalMS int `mapstructure:"interval_ms" yaml:"interval_ms"`
}

// SessionConfig controls workspace layout persistence.
type SessionConfig struct {
	Restore bool `mapstructure:"restore" yaml:"restore"`
}

// TitlesConfig controls page title lookups for tabs opened by URL.
type TitlesConfig struct {
	Fetch     bool `mapstructure:"fetch" yaml:"fetch"`
	CacheSize int  `mapstructure:"cache_size" yaml:"cache_size"`
}

// LogConfig controls the log file.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"`
}

// SuppressDelay returns the suppression delay as a duration.
func (c Config) SuppressDelay() time.Duration {
	return time.Duration(c.Suppress.DelayMS) * time.Millisecond
}

// ReconcileInterval returns the sweep interval as a duration.
func (c Config) ReconcileInterval() time.Duration {
	return time.Duration(c.Reconcile.IntervalMS) * time.Millisecond
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Theme:     "default",
		History:   HistoryConfig{MaxStackLength: 20},
		Suppress:  SuppressConfig{Mode: "debounce", DelayMS: 2000},
		Reconcile: ReconcileConfig{IntervalMS: 1000},
		Session:   SessionConfig{Restore: true},
		Titles:    TitlesConfig{Fetch: true, CacheSize: 128},
		Log:       LogConfig{Level: "info"},
	}
}

// LoadConfig reads configuration from path, or from the standard config
// directory when path is empty. A missing file yields the defaults.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		p, err := DefaultConfigPath()
		if err != nil {
			return Config{}, err
		}
		path = p
	}

	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault("theme", cfg.Theme)
	v.SetDefault("history.max_stack_length", cfg.History.MaxStackLength)
	v.SetDefault("suppress.mode", cfg.Suppress.Mode)
	v.SetDefault("suppress.delay_ms", cfg.Suppress.DelayMS)
	v.SetDefault("reconcile.interval_ms", cfg.Reconcile.IntervalMS)
	v.SetDefault("session.restore", cfg.Session.Restore)
	v.SetDefault("titles.fetch", cfg.Titles.Fetch)
	v.SetDefault("titles.cache_size", cfg.Titles.CacheSize)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.file", cfg.Log.File)

	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.History.MaxStackLength < 1 {
		return fmt.Errorf("history.max_stack_length must be positive, got %d", c.History.MaxStackLength)
	}
	switch c.Suppress.Mode {
	case "debounce", "token":
	default:
		return fmt.Errorf("suppress.mode must be debounce or token, got %q", c.Suppress.Mode)
	}
	if c.Suppress.DelayMS <= 0 {
		return fmt.Errorf("suppress.delay_ms must be positive, got %d", c.Suppress.DelayMS)
	}
	if c.Reconcile.IntervalMS <= 0 {
		return fmt.Errorf("reconcile.interval_ms must be positive, got %d", c.Reconcile.IntervalMS)
	}
	return nil
}

// WriteDefaultConfig writes the default configuration to path, or to the
// standard location when path is empty. It refuses to overwrite unless asked.
func WriteDefaultConfig(path string, overwrite bool) (string, error) {
	if path == "" {
		p, err := DefaultConfigPath()
		if err != nil {
			return "", err
		}
		path = p
	}

	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("config already exists at %s", path)
		}
	}

	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return "", fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("creating config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// DefaultConfigPath returns the config file location.
func DefaultConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// DataDir returns the data directory for the session database and log file.
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home dir: %w", err)
	}

	var dir string
	switch runtime.GOOS {
	case "darwin":
		dir = filepath.Join(home, "Library", "Application Support", "tabroll")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			dir = filepath.Join(appData, "tabroll")
		} else {
			dir = filepath.Join(home, ".tabroll")
		}
	default: // Linux, BSD, etc.
		xdgData := os.Getenv("XDG_DATA_HOME")
		if xdgData != "" {
			dir = filepath.Join(xdgData, "tabroll")
		} else {
			dir = filepath.Join(home, ".local", "share", "tabroll")
		}
	}

	return dir, nil
}

// ConfigDir returns the configuration directory.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home dir: %w", err)
	}

	var dir string
	switch runtime.GOOS {
	case "darwin":
		dir = filepath.Join(home, "Library", "Application Support", "tabroll")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			dir = filepath.Join(appData, "tabroll")
		} else {
			dir = filepath.Join(home, ".tabroll")
		}
	default:
		xdgConfig := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfig != "" {
			dir = filepath.Join(xdgConfig, "tabroll")
		} else {
			dir = filepath.Join(home, ".config", "tabroll")
		}
	}

	return dir, nil
}

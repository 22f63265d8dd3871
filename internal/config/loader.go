package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// For mocking in tests
var osUserHomeDir = os.UserHomeDir

const (
	userConfigDir  = ".config/ttlpanel"
	configFileName = "config.yaml"

	envBackendURL = "TTLPANEL_BACKEND_URL"
	envToken      = "TTLPANEL_TOKEN"
	envConfig     = "TTLPANEL_CONFIG"
)

// Config holds the runtime settings of the panel and its commands.
type Config struct {
	BackendURL     string        `yaml:"backend_url"`
	Plugin         string        `yaml:"plugin"`
	Token          string        `yaml:"token,omitempty"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	LogLevel       string        `yaml:"log_level"`
	LogFile        string        `yaml:"log_file,omitempty"`
	Journal        JournalConfig `yaml:"journal"`
}

// JournalConfig controls the local operation journal.
type JournalConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Path      string        `yaml:"path,omitempty"`
	Retention time.Duration `yaml:"retention"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		BackendURL:     DefaultBackendURL,
		Plugin:         DefaultPluginName,
		RequestTimeout: DefaultRequestTimeout,
		LogLevel:       "info",
		Journal: JournalConfig{
			Enabled:   true,
			Retention: DefaultJournalRetention,
		},
	}
}

// Load layers the default configuration, the user file, an explicit file
// and environment overrides, in that order. An empty path falls back to
// $TTLPANEL_CONFIG.
func Load(path string) (Config, error) {
	cfg := Default()

	userPath, err := getUserConfigPath()
	if err != nil {
		// The user file is optional
		fmt.Fprintf(os.Stderr, "Warning: Could not determine user config path: %v\n", err)
	} else if _, err := os.Stat(userPath); err == nil {
		userCfg, err := loadConfigFromFile(userPath)
		if err != nil {
			return Config{}, fmt.Errorf("error loading user config from %s: %w", userPath, err)
		}
		cfg = mergeConfigs(cfg, userCfg)
	}

	if path == "" {
		path = os.Getenv(envConfig)
	}
	if path != "" {
		fileCfg, err := loadConfigFromFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("error loading config from %s: %w", path, err)
		}
		cfg = mergeConfigs(cfg, fileCfg)
	}

	if v := os.Getenv(envBackendURL); v != "" {
		cfg.BackendURL = v
	}
	if v := os.Getenv(envToken); v != "" {
		cfg.Token = v
	}

	return cfg, nil
}

var getUserConfigPath = func() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, userConfigDir, configFileName), nil
}

// loadConfigFromFile reads a partial Config from a YAML file. The journal
// block is decoded separately so that an omitted "enabled" key does not
// switch the journal off.
func loadConfigFromFile(filePath string) (fileConfig, error) {
	var fc fileConfig
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fileConfig{}, err
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fileConfig{}, err
	}
	return fc, nil
}

// fileConfig mirrors Config with pointer fields so merges can tell unset
// keys from zero values.
type fileConfig struct {
	BackendURL     string         `yaml:"backend_url"`
	Plugin         string         `yaml:"plugin"`
	Token          string         `yaml:"token"`
	RequestTimeout *time.Duration `yaml:"request_timeout"`
	LogLevel       string         `yaml:"log_level"`
	LogFile        string         `yaml:"log_file"`
	Journal        struct {
		Enabled   *bool          `yaml:"enabled"`
		Path      string         `yaml:"path"`
		Retention *time.Duration `yaml:"retention"`
	} `yaml:"journal"`
}

// mergeConfigs merges the keys set in overlay into base.
func mergeConfigs(base Config, overlay fileConfig) Config {
	merged := base

	if overlay.BackendURL != "" {
		merged.BackendURL = overlay.BackendURL
	}
	if overlay.Plugin != "" {
		merged.Plugin = overlay.Plugin
	}
	if overlay.Token != "" {
		merged.Token = overlay.Token
	}
	if overlay.RequestTimeout != nil {
		merged.RequestTimeout = *overlay.RequestTimeout
	}
	if overlay.LogLevel != "" {
		merged.LogLevel = overlay.LogLevel
	}
	if overlay.LogFile != "" {
		merged.LogFile = overlay.LogFile
	}
	if overlay.Journal.Enabled != nil {
		merged.Journal.Enabled = *overlay.Journal.Enabled
	}
	if overlay.Journal.Path != "" {
		merged.Journal.Path = overlay.Journal.Path
	}
	if overlay.Journal.Retention != nil {
		merged.Journal.Retention = *overlay.Journal.Retention
	}

	return merged
}

// StateDir returns the directory for the journal and log file, following
// XDG conventions.
func StateDir() (string, error) {
	if dir := os.Getenv("TTLPANEL_STATE_DIR"); dir != "" {
		return dir, nil
	}

	if xdgState := os.Getenv("XDG_STATE_HOME"); xdgState != "" {
		return filepath.Join(xdgState, "ttlpanel"), nil
	}

	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(homeDir, ".local", "state", "ttlpanel"), nil
}

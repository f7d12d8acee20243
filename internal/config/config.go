package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Config holds all tripbudget configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Rates      RatesConfig      `toml:"rates"`
	Store      StoreConfig      `toml:"store"`
	Log        LogConfig        `toml:"log"`
	Daemon     DaemonConfig     `toml:"daemon"`
	Appearance AppearanceConfig `toml:"appearance"`
}

// GeneralConfig holds display preferences.
type GeneralConfig struct {
	TargetCurrency string `toml:"target_currency"`
	Language       string `toml:"language,omitempty"`
}

// RatesConfig holds exchange-rate source settings.
type RatesConfig struct {
	URL            string `toml:"url"`
	BaseCurrency   string `toml:"base_currency"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	MaxRetries     int    `toml:"max_retries"`
	RefreshMinutes int    `toml:"refresh_minutes"`
}

// StoreConfig holds the state database location.
type StoreConfig struct {
	Path string `toml:"path,omitempty"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// DaemonConfig holds status daemon settings.
type DaemonConfig struct {
	Addr         string `toml:"addr"`
	EventsBuffer int    `toml:"events_buffer"`
}

// AppearanceConfig holds dashboard settings.
type AppearanceConfig struct {
	Theme              string `toml:"theme"`
	RefreshIntervalSec int    `toml:"refresh_interval_sec"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			TargetCurrency: "SAR",
		},
		Rates: RatesConfig{
			URL:            "https://api.exchangerate-api.com/v4/latest",
			BaseCurrency:   "USD",
			TimeoutSeconds: 10,
			MaxRetries:     2,
			RefreshMinutes: 60,
		},
		Log: LogConfig{
			Level: "warn",
		},
		Daemon: DaemonConfig{
			Addr:         "127.0.0.1:8787",
			EventsBuffer: 200,
		},
		Appearance: AppearanceConfig{
			Theme:              "flexoki-dark",
			RefreshIntervalSec: 30,
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "tripbudget")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "tripbudget")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// DataDir returns the XDG-compliant directory for state and daemon files.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "tripbudget")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "tripbudget")
}

// StorePath returns the configured database path, or the default one.
func (c Config) StorePath() string {
	if c.Store.Path != "" {
		return c.Store.Path
	}
	return filepath.Join(DataDir(), "tripbudget.db")
}

// Load reads the config file, returning defaults if it doesn't exist.
// Environment overrides are applied last.
func Load() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil && !os.IsNotExist(err) {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err == nil {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TRIPBUDGET_RATES_URL"); v != "" {
		cfg.Rates.URL = v
	}
	if v := os.Getenv("TRIPBUDGET_DB"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("TRIPBUDGET_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("TRIPBUDGET_REFRESH_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Rates.RefreshMinutes = n
		}
	}
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(ConfigPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

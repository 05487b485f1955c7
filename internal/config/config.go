package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines configuration for the sign-addon CLI.
type Config struct {
	APIKey       string        `yaml:"api_key"`
	APISecret    string        `yaml:"api_secret"`
	BaseURL      string        `yaml:"base_url"`
	ProxyURL     string        `yaml:"proxy_url"`
	PollInterval time.Duration `yaml:"poll_interval"`
	PhaseTimeout time.Duration `yaml:"phase_timeout"`
	TokenExpiry  time.Duration `yaml:"token_expiry"`
	DownloadDir  string        `yaml:"download_dir"`
	Dest         string        `yaml:"dest"`
	Channel      string        `yaml:"channel"`
	Debug        bool          `yaml:"debug"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		BaseURL:      "https://addons.mozilla.org/api/v4",
		PollInterval: time.Second,
		PhaseTimeout: 15 * time.Minute,
		TokenExpiry:  5 * time.Minute,
		DownloadDir:  ".",
	}
}

// yamlConfig is used for YAML unmarshaling with string durations.
type yamlConfig struct {
	APIKey       string `yaml:"api_key"`
	APISecret    string `yaml:"api_secret"`
	BaseURL      string `yaml:"base_url"`
	ProxyURL     string `yaml:"proxy_url"`
	PollInterval string `yaml:"poll_interval"`
	PhaseTimeout string `yaml:"phase_timeout"`
	TokenExpiry  string `yaml:"token_expiry"`
	DownloadDir  string `yaml:"download_dir"`
	Dest         string `yaml:"dest"`
	Channel      string `yaml:"channel"`
	Debug        bool   `yaml:"debug"`
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	cfg := Default()

	if yc.APIKey != "" {
		cfg.APIKey = yc.APIKey
	}
	if yc.APISecret != "" {
		cfg.APISecret = yc.APISecret
	}
	if yc.BaseURL != "" {
		cfg.BaseURL = yc.BaseURL
	}
	if yc.ProxyURL != "" {
		cfg.ProxyURL = yc.ProxyURL
	}
	if yc.PollInterval != "" {
		d, err := time.ParseDuration(yc.PollInterval)
		if err != nil {
			return Config{}, fmt.Errorf("parse poll_interval: %w", err)
		}
		cfg.PollInterval = d
	}
	if yc.PhaseTimeout != "" {
		d, err := time.ParseDuration(yc.PhaseTimeout)
		if err != nil {
			return Config{}, fmt.Errorf("parse phase_timeout: %w", err)
		}
		cfg.PhaseTimeout = d
	}
	if yc.TokenExpiry != "" {
		d, err := time.ParseDuration(yc.TokenExpiry)
		if err != nil {
			return Config{}, fmt.Errorf("parse token_expiry: %w", err)
		}
		cfg.TokenExpiry = d
	}
	if yc.DownloadDir != "" {
		cfg.DownloadDir = yc.DownloadDir
	}
	if yc.Dest != "" {
		cfg.Dest = yc.Dest
	}
	if yc.Channel != "" {
		cfg.Channel = yc.Channel
	}
	cfg.Debug = yc.Debug

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the SIGN_ADDON_ prefix.
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("SIGN_ADDON_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("SIGN_ADDON_API_SECRET"); v != "" {
		c.APISecret = v
	}
	if v := os.Getenv("SIGN_ADDON_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("SIGN_ADDON_PROXY_URL"); v != "" {
		c.ProxyURL = v
	}
	if v := os.Getenv("SIGN_ADDON_POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse SIGN_ADDON_POLL_INTERVAL: %w", err)
		}
		c.PollInterval = d
	}
	if v := os.Getenv("SIGN_ADDON_PHASE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse SIGN_ADDON_PHASE_TIMEOUT: %w", err)
		}
		c.PhaseTimeout = d
	}
	if v := os.Getenv("SIGN_ADDON_TOKEN_EXPIRY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse SIGN_ADDON_TOKEN_EXPIRY: %w", err)
		}
		c.TokenExpiry = d
	}
	if v := os.Getenv("SIGN_ADDON_DOWNLOAD_DIR"); v != "" {
		c.DownloadDir = v
	}
	if v := os.Getenv("SIGN_ADDON_DEST"); v != "" {
		c.Dest = v
	}
	if v := os.Getenv("SIGN_ADDON_CHANNEL"); v != "" {
		c.Channel = v
	}
	if v := os.Getenv("SIGN_ADDON_DEBUG"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parse SIGN_ADDON_DEBUG: %w", err)
		}
		c.Debug = b
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return errors.New("config: api_key is required")
	}
	if c.APISecret == "" {
		return errors.New("config: api_secret is required")
	}
	if c.BaseURL == "" {
		return errors.New("config: base_url is required")
	}
	if c.PollInterval <= 0 {
		return errors.New("config: poll_interval must be positive")
	}
	if c.PhaseTimeout < 0 {
		return errors.New("config: phase_timeout must not be negative")
	}
	if c.TokenExpiry <= 0 {
		return errors.New("config: token_expiry must be positive")
	}
	if c.Dest == "" && c.DownloadDir == "" {
		return errors.New("config: download_dir is required when dest is unset")
	}
	return nil
}

// Merge merges override values into c, returning a new Config.
// Zero values in override are ignored.
func (c Config) Merge(override Config) Config {
	if override.APIKey != "" {
		c.APIKey = override.APIKey
	}
	if override.APISecret != "" {
		c.APISecret = override.APISecret
	}
	if override.BaseURL != "" {
		c.BaseURL = override.BaseURL
	}
	if override.ProxyURL != "" {
		c.ProxyURL = override.ProxyURL
	}
	if override.PollInterval != 0 {
		c.PollInterval = override.PollInterval
	}
	if override.PhaseTimeout != 0 {
		c.PhaseTimeout = override.PhaseTimeout
	}
	if override.TokenExpiry != 0 {
		c.TokenExpiry = override.TokenExpiry
	}
	if override.DownloadDir != "" {
		c.DownloadDir = override.DownloadDir
	}
	if override.Dest != "" {
		c.Dest = override.Dest
	}
	if override.Channel != "" {
		c.Channel = override.Channel
	}
	if override.Debug {
		c.Debug = override.Debug
	}
	return c
}

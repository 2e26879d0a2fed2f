package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// APIConfig holds connection settings for the workspace backend.
type APIConfig struct {
	// BaseURL is the root URL of the backend (e.g., https://workspace.example.com).
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// TimeoutSec is the per-request HTTP timeout.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// MailConfig holds mail-specific client settings.
type MailConfig struct {
	// UnreadPollSec is how often the unread counts are refreshed.
	UnreadPollSec int `mapstructure:"unread_poll_sec" yaml:"unread_poll_sec"`

	// PageSize is the message list page size used for load-more paging.
	PageSize int `mapstructure:"page_size" yaml:"page_size"`
}

// IMAPAccountConfig describes an optional external IMAP account mirrored
// into the mail view alongside the workspace mailbox.
type IMAPAccountConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Host     string `mapstructure:"host" yaml:"host"`
	Port     string `mapstructure:"port" yaml:"port"`
	Username string `mapstructure:"username" yaml:"username"`
	TLS      bool   `mapstructure:"tls" yaml:"tls"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	API     APIConfig         `mapstructure:"api" yaml:"api"`
	Mail    MailConfig        `mapstructure:"mail" yaml:"mail"`
	IMAP    IMAPAccountConfig `mapstructure:"imap" yaml:"imap"`
	Display DisplayConfig     `mapstructure:"display" yaml:"display"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/workspace/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "workspace", "config.yaml")
}

// DefaultStatePath returns the default path for the local state database,
// located at ~/.config/workspace/state.db.
func DefaultStatePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "state.db")
	}
	return filepath.Join(home, ".config", "workspace", "state.db")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		API: APIConfig{
			BaseURL:    "http://localhost:8080",
			TimeoutSec: 30,
		},
		Mail: MailConfig{
			UnreadPollSec: 30,
			PageSize:      50,
		},
		IMAP: IMAPAccountConfig{
			Port: "993",
			TLS:  true,
		},
		Display: DisplayConfig{
			Theme: "default",
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("api.base_url", "http://localhost:8080")
	v.SetDefault("api.timeout_sec", 30)
	v.SetDefault("mail.unread_poll_sec", 30)
	v.SetDefault("mail.page_size", 50)
	v.SetDefault("imap.port", "993")
	v.SetDefault("imap.tls", true)
	v.SetDefault("display.theme", "default")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("api", cfg.API)
	v.Set("mail", cfg.Mail)
	v.Set("imap", cfg.IMAP)
	v.Set("display", cfg.Display)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}

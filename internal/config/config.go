package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Preferences PreferencesConfig `mapstructure:"preferences"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// ServerConfig holds Jellyfin server configuration
type ServerConfig struct {
	URL      string `mapstructure:"url"`      // Server base URL
	Token    string `mapstructure:"token"`    // Access token
	UserID   string `mapstructure:"user_id"`  // Authenticated user id
	Username string `mapstructure:"username"` // Display name
}

// PreferencesConfig holds user preferences consumed by the home screen
type PreferencesConfig struct {
	MaxItemsPerRow               int  `mapstructure:"max_items_per_row"`                // Cap applied to every row
	EnableRewatchingNextUp       bool `mapstructure:"enable_rewatching_next_up"`        // Include watched series in Next Up
	CombineContinueNext          bool `mapstructure:"combine_continue_next"`            // Merge Continue Watching and Next Up into one row
	EnableCustomHomeRows         bool `mapstructure:"enable_custom_home_rows"`          // Consult the companion layout service
	CustomRowsNativeContinueNext bool `mapstructure:"custom_rows_native_continue_next"` // Prepend native continue/next rows above custom layouts
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Preferences: PreferencesConfig{
			MaxItemsPerRow:       20,
			CombineContinueNext:  true,
			EnableCustomHomeRows: true,
		},
		Logging: LoggingConfig{
			File:  defaultLogPath(),
			Level: "INFO",
		},
	}
}

// defaultLogPath returns the default log file path for the current OS
func defaultLogPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "homeshelf", "homeshelf.log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "homeshelf", "homeshelf.log")
	}
}

// defaultConfigPath returns the default config file path for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "homeshelf")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "homeshelf")
	}
}

// defaultCachePath returns the default cache directory path for the current OS
func defaultCachePath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "homeshelf", "cache")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "homeshelf", "cache")
	}
}

// LoadConfig loads configuration from file and environment
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(defaultConfigPath())
	viper.AddConfigPath(".")

	// Environment variable overrides
	viper.SetEnvPrefix("HOMESHELF")
	viper.AutomaticEnv()

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if cfg.Preferences.MaxItemsPerRow <= 0 {
		cfg.Preferences.MaxItemsPerRow = 20
	}

	return cfg, nil
}

// SaveConfig saves the current configuration to file
func SaveConfig(cfg *Config) error {
	configPath := defaultConfigPath()

	if err := os.MkdirAll(configPath, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Set fields individually to ensure correct key names (snake_case)
	viper.Set("server.url", cfg.Server.URL)
	viper.Set("server.token", cfg.Server.Token)
	viper.Set("server.user_id", cfg.Server.UserID)
	viper.Set("server.username", cfg.Server.Username)

	viper.Set("preferences.max_items_per_row", cfg.Preferences.MaxItemsPerRow)
	viper.Set("preferences.enable_rewatching_next_up", cfg.Preferences.EnableRewatchingNextUp)
	viper.Set("preferences.combine_continue_next", cfg.Preferences.CombineContinueNext)
	viper.Set("preferences.enable_custom_home_rows", cfg.Preferences.EnableCustomHomeRows)
	viper.Set("preferences.custom_rows_native_continue_next", cfg.Preferences.CustomRowsNativeContinueNext)

	viper.Set("logging.file", cfg.Logging.File)
	viper.Set("logging.level", cfg.Logging.Level)

	configFile := filepath.Join(configPath, "config.yaml")
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// IsConfigured returns true if the server URL, token and user are set
func (c *Config) IsConfigured() bool {
	return c.Server.URL != "" && c.Server.Token != "" && c.Server.UserID != ""
}

// ClearServerConfig removes all server-related configuration while
// preserving preferences and logging settings
func ClearServerConfig() error {
	viper.Set("server.url", "")
	viper.Set("server.token", "")
	viper.Set("server.user_id", "")
	viper.Set("server.username", "")

	configPath := defaultConfigPath()
	if err := os.MkdirAll(configPath, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configFile := filepath.Join(configPath, "config.yaml")
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ClearCache removes all cached data
func ClearCache() error {
	cachePath := defaultCachePath()
	if err := os.RemoveAll(cachePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

// GetCachePath returns the cache directory path
func GetCachePath() string {
	return defaultCachePath()
}

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
)

// Config holds the configuration for the anitrack server and its dependencies.
type Config struct {
	// Listen is the address the anitrack server will listen on.
	Listen string `yaml:"listen" mapstructure:"listen"`
	// ServerURL is the base URL of the anitrack server.
	ServerURL string `yaml:"server_url" mapstructure:"server_url"`
	// Database holds the database configuration.
	Database *DatabaseConfig `yaml:"database" mapstructure:"database"`
	// Import holds the import pipeline configuration.
	Import *ImportConfig `yaml:"import" mapstructure:"import"`
	// Jikan holds the configuration for the Jikan metadata service.
	Jikan *JikanConfig `yaml:"jikan" mapstructure:"jikan"`
}

// DatabaseConfig holds the database configuration.
type DatabaseConfig struct {
	// Path is the path to the SQLite database file.
	Path string `yaml:"path" mapstructure:"path"`
	// BusyTimeout is the maximum time in milliseconds a writer waits for a lock.
	BusyTimeout int `yaml:"busy_timeout" mapstructure:"busy_timeout"`
}

// ImportConfig holds the import pipeline configuration.
type ImportConfig struct {
	// MaxRetries is the number of attempts for a single entry before it counts as failed.
	MaxRetries int `yaml:"max_retries" mapstructure:"max_retries"`
	// RetryDelay is the base delay between retries. The delay grows linearly per attempt.
	RetryDelay time.Duration `yaml:"retry_delay" mapstructure:"retry_delay"`
}

// JikanConfig holds the configuration for the Jikan metadata service.
type JikanConfig struct {
	// URL is the base URL of the Jikan API.
	URL string `yaml:"url" mapstructure:"url"`
	// RequestDelay is the fixed delay between requests during a sweep.
	RequestDelay time.Duration `yaml:"request_delay" mapstructure:"request_delay"`
	// MaxRetries is the number of attempts for a single lookup before giving up.
	MaxRetries int `yaml:"max_retries" mapstructure:"max_retries"`
	// BackoffBase is the initial backoff delay after a rate limit response.
	// The delay doubles with every attempt.
	BackoffBase time.Duration `yaml:"backoff_base" mapstructure:"backoff_base"`
	// CacheTTL is how long successful lookups are cached in memory.
	CacheTTL time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`
}

// Load reads the configuration from the specified path and returns a Config struct.
// If path is empty, it will use default search paths for config files.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	// Configure Viper
	v.SetConfigType("yaml")
	v.SetEnvPrefix("ANITRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var configFileFound bool
	if path != "" {
		// Use specific config file
		v.SetConfigFile(path)
	} else {
		// Search for config in common locations
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.anitrack")
		v.AddConfigPath("/etc/anitrack")
	}

	// Read the config file
	if err := v.ReadInConfig(); err != nil {
		// If no config file is found, use defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		configFileFound = true
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Print info about config file usage
	if configFileFound {
		log.Debug("Using config file", "file", v.ConfigFileUsed())
		log.Debug("Environment variables with ANITRACK_ prefix will override config file values")
	}

	if err := validateConfig(&c); err != nil {
		return nil, err
	}

	return &c, nil
}

// setDefaults sets default values for the configuration.
func setDefaults(v *viper.Viper) {
	v.SetDefault("listen", "0.0.0.0:3004")
	v.SetDefault("server_url", "http://localhost:3004")

	// Database defaults
	v.SetDefault("database.path", "data/anitrack.db")
	v.SetDefault("database.busy_timeout", 5000)

	// Import defaults
	v.SetDefault("import.max_retries", 3)
	v.SetDefault("import.retry_delay", 200*time.Millisecond)

	// Jikan defaults
	v.SetDefault("jikan.url", "https://api.jikan.moe/v4")
	v.SetDefault("jikan.request_delay", 1500*time.Millisecond)
	v.SetDefault("jikan.max_retries", 4)
	v.SetDefault("jikan.backoff_base", time.Second)
	v.SetDefault("jikan.cache_ttl", time.Hour)
}

// validateConfig validates the configuration.
func validateConfig(c *Config) error {
	if c == nil {
		return fmt.Errorf("missing anitrack config")
	}
	if c.Database == nil || c.Database.Path == "" {
		return fmt.Errorf("missing database path")
	}
	if c.Import == nil || c.Import.MaxRetries < 1 {
		return fmt.Errorf("import.max_retries must be at least 1")
	}
	if c.Jikan == nil || c.Jikan.URL == "" {
		return fmt.Errorf("missing jikan url")
	}
	if c.Jikan.MaxRetries < 1 {
		return fmt.Errorf("jikan.max_retries must be at least 1")
	}
	return nil
}

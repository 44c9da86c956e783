package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the profile tracker
type Config struct {
	// Instagram session and request settings
	Instagram InstagramConfig `yaml:"instagram" json:"instagram"`

	// AI enrichment settings
	Inference InferenceConfig `yaml:"inference" json:"inference"`

	// Snapshot store location
	Storage StorageConfig `yaml:"storage" json:"storage"`

	// Rate limiting configuration for the Instagram source
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Periodic refresh of tracked profiles
	Schedule ScheduleConfig `yaml:"schedule" json:"schedule"`

	// Prometheus exporter
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// InstagramConfig holds Instagram-specific configuration
type InstagramConfig struct {
	SessionID string        `yaml:"session_id" json:"session_id"`
	CSRFToken string        `yaml:"csrf_token" json:"csrf_token"`
	DSUserID  string        `yaml:"ds_user_id" json:"ds_user_id"`
	UserAgent string        `yaml:"user_agent" json:"user_agent"`
	AppID     string        `yaml:"app_id" json:"app_id"`
	BaseURL   string        `yaml:"base_url" json:"base_url"`
	MaxItems  int           `yaml:"max_items" json:"max_items"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
}

// InferenceConfig holds the AI enrichment configuration
type InferenceConfig struct {
	Enabled            bool          `yaml:"enabled" json:"enabled"`
	APIKey             string        `yaml:"api_key" json:"api_key"`
	Model              string        `yaml:"model" json:"model"`
	BaseURL            string        `yaml:"base_url" json:"base_url"`
	CallTimeout        time.Duration `yaml:"call_timeout" json:"call_timeout"`
	Concurrency        int           `yaml:"concurrency" json:"concurrency"`
	RequestsPerMinute  int           `yaml:"requests_per_minute" json:"requests_per_minute"`
	CaptionSampleLimit int           `yaml:"caption_sample_limit" json:"caption_sample_limit"`
	FailureThreshold   uint32        `yaml:"failure_threshold" json:"failure_threshold"`
	BreakerTimeout     time.Duration `yaml:"breaker_timeout" json:"breaker_timeout"`
}

// StorageConfig holds the snapshot store configuration
type StorageConfig struct {
	Path        string        `yaml:"path" json:"path"`
	BusyTimeout time.Duration `yaml:"busy_timeout" json:"busy_timeout"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
	BurstSize         int `yaml:"burst_size" json:"burst_size"`
}

// ScheduleConfig holds the periodic refresh configuration
type ScheduleConfig struct {
	Cron        string        `yaml:"cron" json:"cron"`
	Workers     int           `yaml:"workers" json:"workers"`
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts"`
	RetryDelay  time.Duration `yaml:"retry_delay" json:"retry_delay"`
	JobTimeout  time.Duration `yaml:"job_timeout" json:"job_timeout"`
}

// MetricsConfig holds the Prometheus exporter configuration
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Address string `yaml:"address" json:"address"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Instagram: InstagramConfig{
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
			AppID:     "936619743392459",
			BaseURL:   "https://www.instagram.com",
			MaxItems:  5,
			Timeout:   30 * time.Second,
		},
		Inference: InferenceConfig{
			Enabled:            true,
			Model:              "gemini-2.0-flash",
			BaseURL:            "https://generativelanguage.googleapis.com/v1beta",
			CallTimeout:        45 * time.Second,
			Concurrency:        3,
			RequestsPerMinute:  30,
			CaptionSampleLimit: 500,
			FailureThreshold:   5,
			BreakerTimeout:     60 * time.Second,
		},
		Storage: StorageConfig{
			Path:        defaultStoragePath(),
			BusyTimeout: 5 * time.Second,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 30,
			BurstSize:         2,
		},
		Schedule: ScheduleConfig{
			Cron:        "0 */6 * * *",
			Workers:     2,
			MaxAttempts: 3,
			RetryDelay:  10 * time.Second,
			JobTimeout:  30 * time.Minute,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Address: ":9464",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

func defaultStoragePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "igtracker.db"
	}
	return filepath.Join(home, ".local", "share", "igtracker", "igtracker.db")
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	// Instagram session
	if v := os.Getenv("IGTRACKER_SESSION_ID"); v != "" {
		c.Instagram.SessionID = v
	}
	if v := os.Getenv("IGTRACKER_CSRF_TOKEN"); v != "" {
		c.Instagram.CSRFToken = v
	}
	if v := os.Getenv("IGTRACKER_DS_USER_ID"); v != "" {
		c.Instagram.DSUserID = v
	}
	if v := os.Getenv("IGTRACKER_USER_AGENT"); v != "" {
		c.Instagram.UserAgent = v
	}

	// Inference
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.Inference.APIKey = v
	}
	if v := os.Getenv("IGTRACKER_GEMINI_API_KEY"); v != "" {
		c.Inference.APIKey = v
	}
	if v := os.Getenv("IGTRACKER_GEMINI_MODEL"); v != "" {
		c.Inference.Model = v
	}
	if v := os.Getenv("IGTRACKER_INFERENCE_ENABLED"); v != "" {
		c.Inference.Enabled = strings.ToLower(v) == "true"
	}
	if v := os.Getenv("IGTRACKER_INFERENCE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("IGTRACKER_INFERENCE_TIMEOUT: %w", err))
		} else {
			c.Inference.CallTimeout = d
		}
	}

	// Storage
	if v := os.Getenv("IGTRACKER_DB_PATH"); v != "" {
		c.Storage.Path = v
	}

	// Rate limiting
	if v := os.Getenv("IGTRACKER_REQUESTS_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("IGTRACKER_REQUESTS_PER_MINUTE: %w", err))
		} else if n > 0 {
			c.RateLimit.RequestsPerMinute = n
		}
	}

	// Schedule
	if v := os.Getenv("IGTRACKER_SCHEDULE"); v != "" {
		c.Schedule.Cron = v
	}
	if v := os.Getenv("IGTRACKER_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("IGTRACKER_WORKERS: %w", err))
		} else if n > 0 {
			c.Schedule.Workers = n
		}
	}

	// Metrics
	if v := os.Getenv("IGTRACKER_METRICS_ENABLED"); v != "" {
		c.Metrics.Enabled = strings.ToLower(v) == "true"
	}
	if v := os.Getenv("IGTRACKER_METRICS_ADDR"); v != "" {
		c.Metrics.Address = v
	}

	// Logging
	if v := os.Getenv("IGTRACKER_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("IGTRACKER_LOG_FILE"); v != "" {
		c.Logging.File = v
	}

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".igtracker.yaml",
		".igtracker.yml",
		filepath.Join(home, ".config", "igtracker", "config.yaml"),
		filepath.Join(home, ".config", "igtracker", "config.yml"),
		filepath.Join(home, ".igtracker.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid. Instagram cookies are not
// required here; commands that talk to Instagram check them separately.
func (c *Config) Validate() error {
	var errs []error

	if c.Instagram.MaxItems <= 0 {
		errs = append(errs, errors.New("instagram max items must be positive"))
	}
	if c.Instagram.Timeout <= 0 {
		errs = append(errs, errors.New("instagram timeout must be positive"))
	}

	if c.Inference.Enabled {
		if c.Inference.CallTimeout <= 0 {
			errs = append(errs, errors.New("inference call timeout must be positive"))
		}
		if c.Inference.Concurrency <= 0 {
			errs = append(errs, errors.New("inference concurrency must be positive"))
		}
		if c.Inference.CaptionSampleLimit <= 0 {
			errs = append(errs, errors.New("caption sample limit must be positive"))
		}
	}

	if c.Storage.Path == "" {
		errs = append(errs, errors.New("storage path is required"))
	}

	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}
	if c.RateLimit.BurstSize <= 0 {
		errs = append(errs, errors.New("burst size must be positive"))
	}

	if c.Schedule.Workers <= 0 {
		errs = append(errs, errors.New("schedule workers must be positive"))
	}
	if c.Schedule.Workers > 10 {
		errs = append(errs, errors.New("schedule workers should not exceed 10"))
	}
	if c.Schedule.MaxAttempts < 1 {
		errs = append(errs, errors.New("schedule max attempts must be at least 1"))
	}

	if c.Metrics.Enabled && c.Metrics.Address == "" {
		errs = append(errs, errors.New("metrics address is required when metrics are enabled"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// HasSession reports whether the Instagram session cookies are configured
func (c *Config) HasSession() bool {
	return c.Instagram.SessionID != "" && c.Instagram.CSRFToken != ""
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["session-id"].(string); ok && v != "" {
		c.Instagram.SessionID = v
	}
	if v, ok := flags["csrf-token"].(string); ok && v != "" {
		c.Instagram.CSRFToken = v
	}
	if v, ok := flags["db"].(string); ok && v != "" {
		c.Storage.Path = v
	}
	if v, ok := flags["no-ai"].(bool); ok && v {
		c.Inference.Enabled = false
	}
	if v, ok := flags["schedule"].(string); ok && v != "" {
		c.Schedule.Cron = v
	}
	if v, ok := flags["workers"].(int); ok && v > 0 {
		c.Schedule.Workers = v
	}
	if v, ok := flags["metrics-addr"].(string); ok && v != "" {
		c.Metrics.Enabled = true
		c.Metrics.Address = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// .env files are optional
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".igtracker.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
